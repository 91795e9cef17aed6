package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"pixelwatch/internal/config"
)

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("PIXELWATCH_DRIVER", "")
	t.Chdir(t.TempDir())

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantState := filepath.Join(tempHome, ".local", "share", "pixelwatch")
	if cfg.Paths.StateDir != wantState {
		t.Fatalf("unexpected state dir: got %q want %q", cfg.Paths.StateDir, wantState)
	}
	if cfg.Paths.LogDir != filepath.Join(wantState, "logs") {
		t.Fatalf("unexpected log dir: %q", cfg.Paths.LogDir)
	}
	if cfg.Paths.Baseline != "" {
		t.Fatalf("expected no baseline by default, got %q", cfg.Paths.Baseline)
	}
	if cfg.DriverBinary() != "geckodriver" {
		t.Fatalf("unexpected driver binary: %q", cfg.DriverBinary())
	}
	if !cfg.Driver.Headless {
		t.Fatal("expected headless driver by default")
	}
	if cfg.HistoryPath() != filepath.Join(wantState, "history.db") {
		t.Fatalf("unexpected history path: %q", cfg.HistoryPath())
	}
	if cfg.LockPath() != filepath.Join(wantState, "pixelwatch.lock") {
		t.Fatalf("unexpected lock path: %q", cfg.LockPath())
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("PIXELWATCH_DRIVER", "")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	payload := map[string]any{
		"paths": map[string]any{
			"state_dir": "~/state",
			"baseline":  "~/baseline.png",
		},
		"driver": map[string]any{
			"binary":   "/opt/geckodriver",
			"args":     []string{" --log ", "warn", ""},
			"headless": false,
		},
		"logging": map[string]any{
			"format": "JSON",
			"level":  "Debug",
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected explicit config to be used, got %q (exists=%v)", resolved, exists)
	}
	if cfg.Paths.StateDir != filepath.Join(tempHome, "state") {
		t.Fatalf("unexpected state dir: %q", cfg.Paths.StateDir)
	}
	if cfg.Paths.Baseline != filepath.Join(tempHome, "baseline.png") {
		t.Fatalf("unexpected baseline: %q", cfg.Paths.Baseline)
	}
	if cfg.DriverBinary() != "/opt/geckodriver" {
		t.Fatalf("unexpected driver binary: %q", cfg.DriverBinary())
	}
	if got := strings.Join(cfg.Driver.Args, ","); got != "--log,warn" {
		t.Fatalf("unexpected driver args: %q", got)
	}
	if cfg.Driver.Headless {
		t.Fatal("expected headless override to be honoured")
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("expected normalized logging, got %q/%q", cfg.Logging.Format, cfg.Logging.Level)
	}
}

func TestLoadRejectsUnknownFields(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(configPath, []byte("[batch]\nsessions = 4\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil {
		t.Fatal("expected unknown section to be rejected")
	}
}

func TestDriverEnvOverride(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PIXELWATCH_DRIVER", "/usr/local/bin/geckodriver")
	t.Chdir(t.TempDir())

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.DriverBinary() != "/usr/local/bin/geckodriver" {
		t.Fatalf("expected env override, got %q", cfg.DriverBinary())
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr string
	}{
		{"defaults", func(*config.Config) {}, ""},
		{"empty binary", func(c *config.Config) { c.Driver.Binary = " " }, "driver.binary"},
		{"port arg", func(c *config.Config) { c.Driver.Args = []string{"--port", "4444"} }, "driver.args"},
		{"bad format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"bad level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"negative retention", func(c *config.Config) { c.Logging.RetentionDays = -1 }, "retention_days"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if tc.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tc.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestCreateSampleRoundTrips(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("PIXELWATCH_DRIVER", "")
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.DriverBinary() != "geckodriver" {
		t.Fatalf("unexpected sample driver: %q", cfg.DriverBinary())
	}
}
