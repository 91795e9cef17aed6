package batchrun

import (
	"bytes"
	"context"
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"pixelwatch/internal/check"
	"pixelwatch/internal/logging"
	"pixelwatch/internal/readiness"
	"pixelwatch/internal/services"
	"pixelwatch/internal/testsupport"
	"pixelwatch/internal/webdriver"
)

func TestMain(m *testing.M) {
	testsupport.RunFakeDriverIfRequested()
	os.Exit(m.Run())
}

type stubSession struct {
	url        string
	screenshot []byte
}

func (s *stubSession) Navigate(_ context.Context, url string) error { s.url = url; return nil }
func (s *stubSession) CurrentURL(context.Context) (string, error)   { return s.url, nil }
func (s *stubSession) Screenshot(context.Context) ([]byte, error)   { return s.screenshot, nil }
func (s *stubSession) Close() error                                 { return nil }

type stubOpener struct {
	screenshot []byte
	opened     atomic.Int32
}

func (o *stubOpener) Open(context.Context, string) (webdriver.Session, error) {
	o.opened.Add(1)
	return &stubSession{screenshot: o.screenshot}, nil
}

func fastProber() check.Prober {
	return &readiness.Poller{Timeout: 10 * time.Second, Interval: 50 * time.Millisecond}
}

func TestRunRecordsBatch(t *testing.T) {
	binary := testsupport.UseFakeDriver(t, testsupport.FakeDriverListen)
	shot := testsupport.SolidPNG(t, 4, 4, color.NRGBA{R: 10, A: 255})
	cfg := testsupport.NewConfig(t,
		testsupport.WithDriverBinary(binary),
		testsupport.WithBaseline(shot),
	)
	opener := &stubOpener{screenshot: shot}

	result, err := Run(context.Background(), cfg, logging.NewNop(), Options{Sessions: 3, Opener: opener, Prober: fastProber()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Tally.Total != 3 || result.Tally.Succeeded != 3 {
		for _, o := range result.Outcomes {
			t.Logf("task %d: %s %v", o.Index, o.Kind, o.Err)
		}
		t.Fatalf("unexpected tally %+v", result.Tally)
	}
	for _, o := range result.Outcomes {
		if !o.Compared || !o.Match {
			t.Fatalf("task %d: expected baseline comparison to match", o.Index)
		}
	}
	if opener.opened.Load() != 3 {
		t.Fatalf("opened %d sessions", opener.opened.Load())
	}

	store := testsupport.MustOpenStore(t, cfg)
	batch, err := store.GetBatch(context.Background(), result.BatchID)
	if err != nil {
		t.Fatalf("GetBatch: %v", err)
	}
	if batch.Total != 3 || batch.Endpoint != check.DefaultEndpoint {
		t.Fatalf("unexpected recorded batch %+v", batch)
	}
	rows, err := store.Outcomes(context.Background(), result.BatchID)
	if err != nil {
		t.Fatalf("Outcomes: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected 3 recorded outcomes, got %d", len(rows))
	}
}

func TestRunReportsMismatchAgainstBaseline(t *testing.T) {
	binary := testsupport.UseFakeDriver(t, testsupport.FakeDriverListen)
	cfg := testsupport.NewConfig(t,
		testsupport.WithDriverBinary(binary),
		testsupport.WithBaseline(testsupport.SolidPNG(t, 4, 4, color.NRGBA{A: 255})),
	)
	opener := &stubOpener{screenshot: testsupport.SolidPNG(t, 4, 4, color.NRGBA{G: 200, A: 255})}

	result, err := Run(context.Background(), cfg, logging.NewNop(), Options{Sessions: 2, Opener: opener, Prober: fastProber()})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if result.Tally.ByKind[check.KindMismatch] != 2 {
		t.Fatalf("expected two mismatches, got %+v", result.Tally.ByKind)
	}
}

func TestRunRefusesConcurrentBatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories: %v", err)
	}
	held := flock.New(cfg.LockPath())
	ok, err := held.TryLock()
	if err != nil || !ok {
		t.Fatalf("TryLock: ok=%v err=%v", ok, err)
	}
	defer held.Unlock()

	_, err = Run(context.Background(), cfg, logging.NewNop(), Options{Sessions: 1, Opener: &stubOpener{}})
	if !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy, got %v", err)
	}
}

func TestRunStopsOnBlockingPreflight(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithDriverBinary(filepath.Join(t.TempDir(), "missing-driver")))

	_, err := Run(context.Background(), cfg, logging.NewNop(), Options{Sessions: 1, Opener: &stubOpener{}})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
	if !strings.Contains(err.Error(), "WebDriver") {
		t.Fatalf("expected driver check to be named: %v", err)
	}
}

func TestSetupLoggerRotatesPreviousLog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.WriteFile(t, cfg.LogPath(), []byte("previous run\n"))

	var console bytes.Buffer
	logger, err := SetupLogger(cfg, "", &console)
	if err != nil {
		t.Fatalf("SetupLogger: %v", err)
	}
	logger.Info("fresh run")
	if !strings.Contains(console.String(), "fresh run") {
		t.Fatalf("expected console output on the given writer, got %q", console.String())
	}

	rotated, err := filepath.Glob(filepath.Join(cfg.Paths.LogDir, "pixelwatch-*.log"))
	if err != nil {
		t.Fatalf("glob: %v", err)
	}
	if len(rotated) != 1 {
		t.Fatalf("expected one rotated log, got %v", rotated)
	}
	data, err := os.ReadFile(cfg.LogPath())
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if strings.Contains(string(data), "previous run") || !strings.Contains(string(data), "fresh run") {
		t.Fatalf("unexpected fresh log content %q", data)
	}
}
