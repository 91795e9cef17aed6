// Package main hosts the pixelwatch CLI entrypoint and command graph.
//
// The Cobra-based command tree runs visual-regression batches, compares PNG
// files directly, lists recorded batch history, and reports environment
// readiness. It centralizes configuration resolution and logging setup so
// subcommands stay small; the checking itself lives in internal packages.
package main
