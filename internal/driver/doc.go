// Package driver owns the lifecycle of the WebDriver processes (geckodriver by
// default) that back each check session.
//
// Manager.Start allocates an ephemeral loopback port, releases it, and spawns
// the driver bound to that port in its own process group. The returned
// Process is the sole owner of the child: Stop kills the whole group and reaps
// it exactly once, no matter how many callers ask. Releasing the probe
// listener before the child binds leaves a short window where another program
// can grab the port; callers detect that through Exited and relaunch.
package driver
