// Package config loads, normalizes, and validates pixelwatch configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours the PIXELWATCH_DRIVER environment
// fallback. Only ambient settings live here: where state and logs go, which
// WebDriver binary to spawn, and how to log. The batch shape (session count,
// endpoint, threshold) is fixed by the check package.
package config
