// Package check runs the per-session visual check and fans a batch of them out
// concurrently.
//
// A check launches its own driver, waits for it to accept connections, opens a
// WebDriver session, confirms the browser landed on the expected URL, captures
// a screenshot and optionally compares it with a baseline image. Every check
// yields exactly one Outcome; failures are data, never panics or aborts, and
// one failing session never cancels its siblings.
package check
