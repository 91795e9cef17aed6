// Package logging assembles structured slog loggers and formatting helpers used
// across pixelwatch.
//
// It owns the console/JSON handlers, centralizes level and output plumbing,
// and exposes context-aware helpers so pipeline code automatically tags log
// lines with the batch ID, task index, and stage. Concurrent check tasks share
// one handler; lines are written whole so they never interleave.
package logging
