// Package history persists batch results in SQLite so past runs can be listed
// and inspected.
//
// The database lives at <state_dir>/history.db. It is versioned: opening a
// database written by an incompatible schema fails with ErrSchemaMismatch
// instead of silently migrating.
package history
