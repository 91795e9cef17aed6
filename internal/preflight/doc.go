// Package preflight provides readiness checks for the driver binary, the
// filesystem paths, and the baseline image that pixelwatch depends on.
//
// These checks run in two contexts:
//   - pixelwatch run calls RunAll before launching a batch and aborts when a
//     required check fails.
//   - pixelwatch doctor prints every result, including advisory ones.
package preflight
