package driver

import (
	"context"
	"errors"
	"net"
	"strings"
	"testing"
	"time"

	"pixelwatch/internal/logging"
	"pixelwatch/internal/readiness"
	"pixelwatch/internal/services"
	"pixelwatch/internal/testsupport"
)

func TestAllocatePortReturnsBindablePort(t *testing.T) {
	port, err := AllocatePort()
	if err != nil {
		t.Fatalf("AllocatePort: %v", err)
	}
	if port <= 0 || port > 65535 {
		t.Fatalf("unexpected port %d", port)
	}
	ln, err := net.Listen("tcp", net.JoinHostPort(loopbackHost, itoa(port)))
	if err != nil {
		t.Fatalf("expected released port to be bindable: %v", err)
	}
	ln.Close()
}

func TestNewManagerRequiresBinary(t *testing.T) {
	_, err := NewManager("  ", nil, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestStartWaitStop(t *testing.T) {
	binary := testsupport.UseFakeDriver(t, testsupport.FakeDriverListen)
	mgr, err := NewManager(binary, nil, logging.NewNop())
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	proc, err := mgr.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}
	t.Cleanup(func() { _ = proc.Stop() })

	if proc.PID() <= 0 {
		t.Fatalf("expected pid, got %d", proc.PID())
	}
	if !strings.HasPrefix(proc.URL(), "http://127.0.0.1:") {
		t.Fatalf("unexpected url %q", proc.URL())
	}

	poller := &readiness.Poller{Timeout: 10 * time.Second, Interval: 50 * time.Millisecond}
	if err := poller.Wait(context.Background(), proc.Addr(), proc.Exited()); err != nil {
		t.Fatalf("driver never became ready: %v", err)
	}

	if err := proc.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	select {
	case <-proc.Exited():
	default:
		t.Fatal("expected process to be reaped after Stop")
	}
	if err := proc.Stop(); err != nil {
		t.Fatalf("second Stop should be a no-op, got %v", err)
	}

	conn, err := net.DialTimeout("tcp", proc.Addr(), 200*time.Millisecond)
	if err == nil {
		conn.Close()
		t.Fatal("expected driver port to be closed after Stop")
	}
}

func TestStartReportsSpawnFailure(t *testing.T) {
	mgr, err := NewManager("/nonexistent/pixelwatch-driver", nil, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	_, err = mgr.Start(context.Background())
	if !errors.Is(err, services.ErrProcess) {
		t.Fatalf("expected process error, got %v", err)
	}
}

func TestEarlyExitIsObservable(t *testing.T) {
	binary := testsupport.UseFakeDriver(t, testsupport.FakeDriverExit)
	mgr, err := NewManager(binary, []string{"--verbose"}, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	proc, err := mgr.Start(context.Background())
	if err != nil {
		t.Fatalf("Start: %v", err)
	}

	select {
	case <-proc.Exited():
	case <-time.After(10 * time.Second):
		_ = proc.Stop()
		t.Fatal("expected fake driver to exit")
	}
	if proc.ExitErr() == nil {
		t.Fatal("expected non-zero exit to be reported")
	}

	poller := &readiness.Poller{Timeout: 5 * time.Second, Interval: 50 * time.Millisecond}
	if err := poller.Wait(context.Background(), proc.Addr(), proc.Exited()); !errors.Is(err, services.ErrProcess) {
		t.Fatalf("expected readiness to fail with process error, got %v", err)
	}
	if err := proc.Stop(); err != nil {
		t.Fatalf("Stop after exit should succeed, got %v", err)
	}
}

func TestLineLoggerSplitsLines(t *testing.T) {
	rec := &recordingHandler{}
	l := newLineLogger(newRecordingLogger(rec))
	_, _ = l.Write([]byte("first\nsec"))
	_, _ = l.Write([]byte("ond\n\n"))
	if got := strings.Join(rec.lines(), "|"); got != "first|second" {
		t.Fatalf("unexpected lines %q", got)
	}
}
