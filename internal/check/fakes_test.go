package check

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"sync"
	"sync/atomic"
	"testing"

	"pixelwatch/internal/services"
	"pixelwatch/internal/webdriver"
)

type fakeSession struct {
	reportURL  string
	screenshot []byte
	navErr     error
	shotErr    error
	closed     *atomic.Int32
	navigated  string
}

func (s *fakeSession) Navigate(_ context.Context, url string) error {
	if s.navErr != nil {
		return s.navErr
	}
	s.navigated = url
	return nil
}

func (s *fakeSession) CurrentURL(context.Context) (string, error) {
	if s.reportURL != "" {
		return s.reportURL, nil
	}
	return s.navigated, nil
}

func (s *fakeSession) Screenshot(context.Context) ([]byte, error) {
	if s.shotErr != nil {
		return nil, s.shotErr
	}
	return s.screenshot, nil
}

func (s *fakeSession) Close() error {
	if s.closed != nil {
		s.closed.Add(1)
	}
	return nil
}

// fakeOpener hands out sessions. newSession is called once per Open and may
// vary behaviour by driver URL.
type fakeOpener struct {
	openErr    error
	newSession func(driverURL string) *fakeSession
	opened     atomic.Int32
	closed     atomic.Int32
}

func (o *fakeOpener) Open(_ context.Context, driverURL string) (webdriver.Session, error) {
	if o.openErr != nil {
		return nil, o.openErr
	}
	o.opened.Add(1)
	s := o.newSession(driverURL)
	s.closed = &o.closed
	return s, nil
}

type fakeDriver struct {
	addr    string
	exited  chan struct{}
	stops   atomic.Int32
	stopErr error
}

func (d *fakeDriver) Addr() string            { return d.addr }
func (d *fakeDriver) URL() string             { return "http://" + d.addr }
func (d *fakeDriver) Exited() <-chan struct{} { return d.exited }
func (d *fakeDriver) Stop() error {
	d.stops.Add(1)
	return d.stopErr
}

type fakeLauncher struct {
	mu       sync.Mutex
	launched []*fakeDriver
	err      error
	// stopErrs[i] is returned by Stop on the i-th launched driver.
	stopErrs []error
}

func (l *fakeLauncher) Launch(context.Context) (Driver, error) {
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	d := &fakeDriver{
		addr:   fmt.Sprintf("127.0.0.1:%d", 4000+len(l.launched)),
		exited: make(chan struct{}),
	}
	if n := len(l.launched); n < len(l.stopErrs) {
		d.stopErr = l.stopErrs[n]
	}
	l.launched = append(l.launched, d)
	return d, nil
}

func (l *fakeLauncher) drivers() []*fakeDriver {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*fakeDriver(nil), l.launched...)
}

// scriptedProber returns queued errors in order, then nil.
type scriptedProber struct {
	mu     sync.Mutex
	script []error
	calls  int
}

func (p *scriptedProber) Wait(context.Context, string, <-chan struct{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if len(p.script) == 0 {
		return nil
	}
	err := p.script[0]
	p.script = p.script[1:]
	return err
}

func exitedErr() error {
	return services.Wrap(services.ErrProcess, "readiness", "wait", "driver exited before accepting connections", nil)
}

func pngBytes(t testing.TB, w, h int, c color.NRGBA) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newTestRunner(opener *fakeOpener, launcher *fakeLauncher, prober Prober) *Runner {
	return &Runner{
		Launcher: launcher,
		Prober:   prober,
		Opener:   opener,
		Endpoint: DefaultEndpoint,
		Expected: DefaultEndpoint,
	}
}
