// Package deps checks that external executables are installed and reports
// their versions.
package deps
