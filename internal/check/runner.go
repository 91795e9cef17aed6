package check

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"pixelwatch/internal/driver"
	"pixelwatch/internal/logging"
	"pixelwatch/internal/readiness"
	"pixelwatch/internal/services"
	"pixelwatch/internal/webdriver"
)

const (
	// DefaultSessions is the number of checks in one batch.
	DefaultSessions = 10
	// DefaultEndpoint is the application every session visits.
	DefaultEndpoint = "http://localhost:3000"
	// DefaultThreshold is the number of differing pixels tolerated against a baseline.
	DefaultThreshold = 0
	// LaunchAttempts bounds relaunches of a driver that dies before it is ready.
	LaunchAttempts = 3
)

// Driver is a running driver process owned by one check.
type Driver interface {
	Addr() string
	URL() string
	Exited() <-chan struct{}
	Stop() error
}

// Launcher starts driver processes.
type Launcher interface {
	Launch(ctx context.Context) (Driver, error)
}

// Prober waits for a driver to accept connections.
type Prober interface {
	Wait(ctx context.Context, addr string, exited <-chan struct{}) error
}

// ManagerLauncher adapts a driver.Manager to Launcher.
type ManagerLauncher struct {
	Manager *driver.Manager
}

// Launch starts one driver process.
func (l ManagerLauncher) Launch(ctx context.Context) (Driver, error) {
	if l.Manager == nil {
		return nil, services.Wrap(services.ErrInternal, "launch", "start", "driver manager unavailable", nil)
	}
	proc, err := l.Manager.Start(ctx)
	if err != nil {
		return nil, err
	}
	return proc, nil
}

// Runner performs individual checks. A Runner is safe for concurrent use as
// long as its collaborators are.
type Runner struct {
	Launcher Launcher
	Prober   Prober
	Opener   webdriver.Opener
	Endpoint string
	Expected string
	Baseline *Baseline
	Logger   *slog.Logger
}

// NewRunner wires a Runner with the fixed endpoint and default readiness policy.
func NewRunner(manager *driver.Manager, opener webdriver.Opener, baseline *Baseline, logger *slog.Logger) *Runner {
	return &Runner{
		Launcher: ManagerLauncher{Manager: manager},
		Prober:   readiness.New(),
		Opener:   opener,
		Endpoint: DefaultEndpoint,
		Expected: DefaultEndpoint,
		Baseline: baseline,
		Logger:   logging.NewComponentLogger(logger, "check"),
	}
}

// Check runs one complete session check. It never panics on check failures
// and always returns an Outcome.
func (r *Runner) Check(ctx context.Context, index int) Outcome {
	ctx = services.WithTaskIndex(ctx, index)
	started := time.Now()
	outcome := Outcome{Index: index, Endpoint: r.Endpoint, Started: started}

	verification, attempts, err := r.run(ctx)
	outcome.Attempts = attempts
	outcome.Duration = time.Since(started)
	outcome.ScreenshotSize = len(verification.Screenshot)
	outcome.Compared = verification.Compared
	outcome.Match = verification.Match
	outcome.Err = err
	outcome.Kind = Classify(err)

	logger := logging.WithContext(ctx, r.logger())
	if err != nil {
		logging.WarnWithContext(logger, "check failed", "check_failed",
			logging.String("kind", string(outcome.Kind)),
			logging.Duration("duration", outcome.Duration),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, hintFor(outcome.Kind)),
			logging.String(logging.FieldImpact, "session reported as failed"),
		)
	} else {
		logger.Info("check passed",
			logging.Duration("duration", outcome.Duration),
			logging.Int("screenshot_bytes", outcome.ScreenshotSize),
			logging.Bool("compared", outcome.Compared),
		)
	}
	return outcome
}

func (r *Runner) run(ctx context.Context) (v Verification, attempts int, err error) {
	if r.Launcher == nil || r.Prober == nil {
		return v, 0, services.Wrap(services.ErrInternal, "check", "init", "runner not configured", nil)
	}
	logger := r.logger()

	// Stop failures from abandoned launches are carried into the result.
	var released error
	var drv Driver
	for attempts = 1; ; attempts++ {
		stageCtx := services.WithStage(ctx, "launch")
		drv, err = r.Launcher.Launch(stageCtx)
		if err != nil {
			return v, attempts, errors.Join(err, released)
		}

		waitErr := r.Prober.Wait(services.WithStage(ctx, "readiness"), drv.Addr(), drv.Exited())
		if waitErr == nil {
			break
		}
		stopErr := drv.Stop()
		if errors.Is(waitErr, services.ErrProcess) && attempts < LaunchAttempts {
			if stopErr != nil {
				logging.WarnWithContext(logging.WithContext(stageCtx, logger), "exited driver could not be stopped", "driver_stop_failed",
					logging.Int("attempt", attempts),
					logging.Error(stopErr),
					logging.String(logging.FieldErrorHint, "check for a leftover driver process group"),
					logging.String(logging.FieldImpact, "check reported as failed after relaunch"),
				)
				released = errors.Join(released, stopErr)
			}
			logging.WarnWithContext(logging.WithContext(stageCtx, logger), "driver exited before ready; relaunching", "driver_relaunch",
				logging.Int("attempt", attempts),
				logging.Error(waitErr),
				logging.String(logging.FieldErrorHint, "another process may have claimed the allocated port"),
				logging.String(logging.FieldImpact, "check retried with a fresh port"),
			)
			continue
		}
		return v, attempts, errors.Join(waitErr, released, stopErr)
	}
	defer func() {
		stopErr := drv.Stop()
		if released != nil || stopErr != nil {
			err = errors.Join(err, released, stopErr)
		}
	}()

	v, err = Verify(services.WithStage(ctx, "verify"), r.Opener, drv.URL(), r.Endpoint, r.Expected, r.Baseline)
	return v, attempts, err
}

func (r *Runner) logger() *slog.Logger {
	if r.Logger == nil {
		return logging.NewNop()
	}
	return r.Logger
}

func hintFor(kind Kind) string {
	switch kind {
	case KindTimeout:
		return "driver did not accept connections in time; check host load"
	case KindProcess:
		return "run pixelwatch doctor to confirm the driver binary works"
	case KindProtocol:
		return "inspect driver output at debug level"
	case KindMismatch:
		return "confirm the application is serving the expected page"
	case KindDecode:
		return "baseline or screenshot is not a valid PNG"
	case KindBounds:
		return "baseline dimensions differ from the screenshot"
	case KindCanceled:
		return "run was interrupted; rerun pixelwatch to check this session"
	default:
		return "check logs for details"
	}
}
