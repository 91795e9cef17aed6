// Package services defines shared utilities consumed by the check pipeline and
// its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp batch IDs, task indexes, and stage names for
//     logging.
//   - Structured error markers plus the Wrap helper that tag failures so the
//     orchestrator can classify every outcome (timeout, process, protocol,
//     mismatch, decode, bounds).
//
// Use these helpers when wiring new pipeline steps so failures stay
// classifiable across the whole batch.
package services
