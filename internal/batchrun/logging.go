package batchrun

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"pixelwatch/internal/config"
	"pixelwatch/internal/logging"
)

// SetupLogger starts a fresh log file for this run and prunes rotated logs
// past the retention window. Console output goes to stderr.
func SetupLogger(cfg *config.Config, levelOverride string, stderr io.Writer) (*slog.Logger, error) {
	if err := os.MkdirAll(cfg.Paths.LogDir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure log directory: %w", err)
	}
	rotated, rotateErr := logging.RotateLog(cfg.LogPath(), time.Now())

	effective := *cfg
	if levelOverride != "" {
		effective.Logging.Level = levelOverride
	}
	logger, err := logging.NewFromConfig(&effective, stderr)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	if rotateErr != nil {
		logging.WarnWithContext(logger, "log rotation failed; appending to existing log", "log_rotate_failed",
			logging.Error(rotateErr),
			logging.String(logging.FieldErrorHint, "check log_dir permissions"),
		)
	} else if rotated != "" {
		logger.Debug("previous log rotated", logging.String("path", rotated))
	}

	ext := filepath.Ext(cfg.LogPath())
	stem := filepath.Base(cfg.LogPath())
	stem = stem[:len(stem)-len(ext)]
	logging.CleanupOldLogs(logger, cfg.Logging.RetentionDays, logging.RetentionTarget{
		Dir:     cfg.Paths.LogDir,
		Pattern: stem + "-*" + ext,
		Exclude: []string{cfg.LogPath()},
	})
	return logger, nil
}
