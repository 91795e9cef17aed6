package driver

import (
	"context"
	"errors"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"

	"pixelwatch/internal/logging"
	"pixelwatch/internal/services"
)

// DefaultStopTimeout bounds how long Stop waits for a killed driver to be reaped.
const DefaultStopTimeout = 10 * time.Second

// Manager spawns driver processes.
type Manager struct {
	Binary      string
	Args        []string
	StopTimeout time.Duration
	Logger      *slog.Logger
}

// NewManager constructs a Manager for the given driver binary.
func NewManager(binary string, args []string, logger *slog.Logger) (*Manager, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, services.Wrap(services.ErrConfiguration, "driver", "init", "driver binary required", nil)
	}
	return &Manager{
		Binary:      binary,
		Args:        append([]string(nil), args...),
		StopTimeout: DefaultStopTimeout,
		Logger:      logging.NewComponentLogger(logger, "driver"),
	}, nil
}

// Start allocates a port and spawns the driver bound to it. The caller owns
// the returned Process and must Stop it.
func (m *Manager) Start(ctx context.Context) (*Process, error) {
	port, err := AllocatePort()
	if err != nil {
		return nil, err
	}

	args := append(append([]string(nil), m.Args...), "--port", strconv.Itoa(port))
	logger := logging.WithContext(ctx, m.Logger).With(logging.Int("port", port))

	cmd := exec.Command(m.Binary, args...) //nolint:gosec
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	out := newLineLogger(logger)
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.WaitDelay = time.Second

	if err := cmd.Start(); err != nil {
		return nil, services.Wrap(services.ErrProcess, "driver", "spawn", m.Binary, err)
	}

	proc := newProcess(cmd, port, m.stopTimeout(), logger)
	logger.Debug("driver started", logging.Int("pid", proc.PID()), logging.String("binary", m.Binary))
	return proc, nil
}

func (m *Manager) stopTimeout() time.Duration {
	if m.StopTimeout > 0 {
		return m.StopTimeout
	}
	return DefaultStopTimeout
}

// exitError renders the child's exit status for logs and errors.
func exitError(err error) string {
	if err == nil {
		return "exited cleanly"
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.String()
	}
	return err.Error()
}
