package testsupport

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"pixelwatch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.LogDir = filepath.Join(base, "state", "logs")
	cfgVal.Logging.Level = "debug"

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithDriverBinary points the driver at a specific executable.
func WithDriverBinary(path string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Driver.Binary = path
	}
}

// WithBaseline writes data as the baseline image and configures it.
func WithBaseline(data []byte) ConfigOption {
	return func(b *configBuilder) {
		target := filepath.Join(b.baseDir, "baseline.png")
		if err := os.WriteFile(target, data, 0o644); err != nil {
			b.t.Fatalf("write baseline: %v", err)
		}
		b.cfg.Paths.Baseline = target
	}
}

// WithStubbedBinaries writes stub executables that print a version line for
// the provided names and prepends them to PATH. If names is empty, the default driver binary is
// stubbed.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{b.cfg.DriverBinary()}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			target := filepath.Join(binDir, name)
			script := fmt.Appendf(nil, "#!/bin/sh\necho '%s 0.0.0-stub'\nexit 0\n", name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		oldPath := os.Getenv("PATH")
		if err := os.Setenv("PATH", binDir+string(os.PathListSeparator)+oldPath); err != nil {
			b.t.Fatalf("set PATH: %v", err)
		}
		b.t.Cleanup(func() {
			_ = os.Setenv("PATH", oldPath)
		})
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
