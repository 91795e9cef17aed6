package driver

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"pixelwatch/internal/logging"
	"pixelwatch/internal/services"
)

// Process is an owning handle to one running driver.
type Process struct {
	cmd         *exec.Cmd
	port        int
	stopTimeout time.Duration
	logger      *slog.Logger

	exited  chan struct{}
	waitErr error

	stopOnce sync.Once
	stopErr  error
}

func newProcess(cmd *exec.Cmd, port int, stopTimeout time.Duration, logger *slog.Logger) *Process {
	p := &Process{
		cmd:         cmd,
		port:        port,
		stopTimeout: stopTimeout,
		logger:      logger,
		exited:      make(chan struct{}),
	}
	go func() {
		p.waitErr = cmd.Wait()
		close(p.exited)
	}()
	return p
}

// Port returns the port the driver was told to bind.
func (p *Process) Port() int { return p.port }

// Addr returns the driver's host:port.
func (p *Process) Addr() string {
	return net.JoinHostPort(loopbackHost, strconv.Itoa(p.port))
}

// URL returns the base URL of the driver's HTTP endpoint.
func (p *Process) URL() string { return "http://" + p.Addr() }

// PID returns the child's process ID.
func (p *Process) PID() int {
	if p.cmd == nil || p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Exited is closed once the child has been reaped.
func (p *Process) Exited() <-chan struct{} { return p.exited }

// ExitErr returns the child's wait error. Only meaningful after Exited fires.
func (p *Process) ExitErr() error {
	select {
	case <-p.exited:
		return p.waitErr
	default:
		return nil
	}
}

// Stop kills the driver's process group and waits for the child to be reaped.
// Only the first call does any work; every call returns the same result.
func (p *Process) Stop() error {
	p.stopOnce.Do(func() {
		p.stopErr = p.stop()
	})
	return p.stopErr
}

func (p *Process) stop() error {
	select {
	case <-p.exited:
		p.logger.Debug("driver already exited", logging.String("status", exitError(p.waitErr)))
		return nil
	default:
	}

	pid := p.PID()
	if pid <= 0 {
		return services.Wrap(services.ErrProcess, "driver", "stop", "process never started", nil)
	}
	// Negative pid targets the whole group so browsers spawned by the driver die too.
	if err := unix.Kill(-pid, unix.SIGKILL); err != nil && !errors.Is(err, unix.ESRCH) {
		return services.Wrap(services.ErrProcess, "driver", "stop", fmt.Sprintf("kill pid %d", pid), err)
	}

	timer := time.NewTimer(p.stopTimeout)
	defer timer.Stop()
	select {
	case <-p.exited:
		p.logger.Debug("driver stopped", logging.Int("pid", pid))
		return nil
	case <-timer.C:
		return services.Wrap(services.ErrProcess, "driver", "stop",
			fmt.Sprintf("pid %d not reaped after %s", pid, p.stopTimeout), nil)
	}
}
