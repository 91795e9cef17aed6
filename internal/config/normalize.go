package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDriver()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.Baseline = strings.TrimSpace(c.Paths.Baseline)
	if c.Paths.Baseline != "" {
		if c.Paths.Baseline, err = expandPath(c.Paths.Baseline); err != nil {
			return fmt.Errorf("paths.baseline: %w", err)
		}
	}
	return nil
}

func (c *Config) normalizeDriver() {
	if value, ok := os.LookupEnv("PIXELWATCH_DRIVER"); ok && strings.TrimSpace(value) != "" {
		c.Driver.Binary = value
	}
	c.Driver.Binary = strings.TrimSpace(c.Driver.Binary)
	if c.Driver.Binary == "" {
		c.Driver.Binary = defaultDriverBinary
	}
	args := c.Driver.Args[:0]
	for _, arg := range c.Driver.Args {
		if trimmed := strings.TrimSpace(arg); trimmed != "" {
			args = append(args, trimmed)
		}
	}
	c.Driver.Args = args
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
