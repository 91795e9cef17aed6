// Package readiness gates session start on a WebDriver process actually
// accepting TCP connections.
//
// A Poller dials the driver address until a connection succeeds or the
// overall deadline elapses, sleeping a fixed interval between attempts. The
// deadline is never reset by retries and there is no backoff. Each check task
// owns its own Poller loop, so a slow driver only stalls its own task.
package readiness
