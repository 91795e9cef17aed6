// Package batchrun executes one complete pixelwatch batch: it takes the
// single-run lock, runs preflight checks, fans the session checks out, logs a
// summary, and records the batch in the history store.
//
// Task failures are reported through the returned outcomes. Run itself only
// fails for problems that prevent a batch from starting or being recorded.
package batchrun
