package readiness

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"pixelwatch/internal/services"
)

const (
	// DefaultTimeout bounds the whole readiness wait.
	DefaultTimeout = 30 * time.Second
	// DefaultInterval is the fixed delay between failed connection attempts.
	DefaultInterval = 500 * time.Millisecond
)

var errExited = errors.New("process exited")

// ContextDialer opens probe connections.
type ContextDialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Poller repeatedly probes an address until it accepts a connection.
type Poller struct {
	Timeout  time.Duration
	Interval time.Duration
	Dialer   ContextDialer
}

// New returns a Poller with the default deadline and retry interval.
func New() *Poller {
	return &Poller{Timeout: DefaultTimeout, Interval: DefaultInterval}
}

// Wait blocks until addr accepts a TCP connection. The probe connection is
// closed immediately. It fails with services.ErrTimeout once the deadline
// elapses, or with services.ErrProcess as soon as exited is closed (the
// process that should be listening died). exited may be nil.
func (p *Poller) Wait(ctx context.Context, addr string, exited <-chan struct{}) error {
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	interval := p.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	dialer := p.Dialer
	if dialer == nil {
		dialer = &net.Dialer{}
	}

	deadline := time.Now().Add(timeout)
	attempts := 0
	for {
		attempts++
		attemptCtx, cancel := context.WithDeadline(ctx, deadline)
		conn, err := dialer.DialContext(attemptCtx, "tcp", addr)
		cancel()
		if err == nil {
			_ = conn.Close()
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}

		remaining := time.Until(deadline)
		if remaining <= 0 {
			return services.Wrap(services.ErrTimeout, "readiness", "wait",
				fmt.Sprintf("%s not reachable after %s (%d attempts)", addr, timeout, attempts), err)
		}

		if err := sleep(ctx, min(interval, remaining), exited); err != nil {
			if errors.Is(err, errExited) {
				return services.Wrap(services.ErrProcess, "readiness", "wait",
					fmt.Sprintf("process exited before %s accepted connections", addr), nil)
			}
			return err
		}
	}
}

// sleep pauses this task only. It returns ctx.Err() on cancellation and
// errExited when the watched process goes away first.
func sleep(ctx context.Context, d time.Duration, exited <-chan struct{}) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-exited:
		return errExited
	case <-timer.C:
		return nil
	}
}

// WaitReady reports whether addr accepted a connection within timeout.
func WaitReady(ctx context.Context, addr string, timeout time.Duration) bool {
	p := New()
	p.Timeout = timeout
	return p.Wait(ctx, addr, nil) == nil
}
