package batchrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"pixelwatch/internal/check"
	"pixelwatch/internal/config"
	"pixelwatch/internal/driver"
	"pixelwatch/internal/history"
	"pixelwatch/internal/logging"
	"pixelwatch/internal/preflight"
	"pixelwatch/internal/services"
	"pixelwatch/internal/webdriver"
)

// Options customizes a batch. Zero values select the production defaults.
type Options struct {
	Sessions int
	Opener   webdriver.Opener
	Prober   check.Prober
}

// Result is a finished batch.
type Result struct {
	BatchID   string
	Started   time.Time
	Finished  time.Time
	Outcomes  []check.Outcome
	Tally     check.Tally
	Preflight []preflight.Result
}

// Run executes one batch against the fixed endpoint.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts Options) (*Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	logger = logging.NewComponentLogger(logger, "batch")
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}

	lock, err := acquireLock(cfg.LockPath())
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := lock.release(); err != nil {
			logging.WarnWithContext(logger, "failed to release run lock", "lock_release_failed",
				logging.String("lock", lock.path),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the lock file if no batch is running"),
			)
		}
	}()

	results := preflight.RunAll(ctx, cfg, check.DefaultEndpoint)
	for _, r := range results {
		if r.Passed {
			logger.Debug("preflight passed", logging.String("check", r.Name), logging.String("detail", r.Detail))
			continue
		}
		if r.Advisory {
			logging.WarnWithContext(logger, "preflight advisory", "preflight_advisory",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldImpact, "sessions may fail verification"),
			)
		}
	}
	if blocking := preflight.Blocking(results); len(blocking) > 0 {
		return nil, services.Wrap(services.ErrConfiguration, "preflight", blocking[0].Name, blocking[0].Detail, nil)
	}

	baseline, err := loadBaseline(cfg.Paths.Baseline)
	if err != nil {
		return nil, err
	}

	manager, err := driver.NewManager(cfg.DriverBinary(), cfg.Driver.Args, logger)
	if err != nil {
		return nil, err
	}
	opener := opts.Opener
	if opener == nil {
		opener = webdriver.NewRemote(cfg.Driver.Headless)
	}
	runner := check.NewRunner(manager, opener, baseline, logger)
	if opts.Prober != nil {
		runner.Prober = opts.Prober
	}
	sessions := opts.Sessions
	if sessions <= 0 {
		sessions = check.DefaultSessions
	}

	result := &Result{BatchID: uuid.NewString(), Preflight: results}
	ctx = services.WithBatchID(ctx, result.BatchID)
	batchLogger := logging.WithContext(ctx, logger)
	batchLogger.Info("batch started",
		logging.Int("sessions", sessions),
		logging.String("endpoint", runner.Endpoint),
		logging.Bool("baseline", baseline != nil),
		logging.String(logging.FieldEventType, "batch_started"),
	)

	result.Started = time.Now()
	result.Outcomes = check.RunBatch(ctx, sessions, runner)
	result.Finished = time.Now()
	result.Tally = check.Summary(result.Outcomes)

	batchLogger.Info("batch finished",
		logging.Int("total", result.Tally.Total),
		logging.Int("succeeded", result.Tally.Succeeded),
		logging.Int("failed", result.Tally.Failed),
		logging.Duration("duration", result.Finished.Sub(result.Started)),
		logging.String(logging.FieldEventType, "batch_finished"),
	)

	if err := record(ctx, cfg, result, runner.Endpoint); err != nil {
		logging.ErrorWithContext(batchLogger, "batch not recorded", "history_record_failed",
			logging.Error(err),
			logging.String("history", cfg.HistoryPath()),
			logging.String(logging.FieldErrorHint, "check state_dir permissions or delete a stale history.db"),
		)
		return result, err
	}
	return result, nil
}

func loadBaseline(path string) (*check.Baseline, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "baseline", "read", path, err)
	}
	return &check.Baseline{Image: data, Threshold: check.DefaultThreshold}, nil
}

func record(ctx context.Context, cfg *config.Config, result *Result, endpoint string) error {
	store, err := history.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("open history: %w", err)
	}
	defer store.Close()

	batch := history.Batch{
		ID:         result.BatchID,
		Endpoint:   endpoint,
		StartedAt:  result.Started,
		FinishedAt: result.Finished,
		Total:      result.Tally.Total,
		Succeeded:  result.Tally.Succeeded,
		Failed:     result.Tally.Failed,
	}
	rows := make([]history.Outcome, 0, len(result.Outcomes))
	for order, o := range result.Outcomes {
		row := history.Outcome{
			TaskIndex:       o.Index,
			Order:           order,
			Kind:            string(o.Kind),
			Attempts:        o.Attempts,
			ScreenshotBytes: o.ScreenshotSize,
			Compared:        o.Compared,
			Match:           o.Match,
			StartedAt:       o.Started,
			Duration:        o.Duration,
		}
		if o.Err != nil {
			row.Error = o.Err.Error()
		}
		rows = append(rows, row)
	}
	if err := store.RecordBatch(ctx, batch, rows); err != nil {
		return fmt.Errorf("record batch: %w", err)
	}
	return nil
}
