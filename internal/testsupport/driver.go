package testsupport

import (
	"flag"
	"fmt"
	"image/color"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"testing"
)

// FakeDriverEnv selects fake driver behaviour when the test binary re-executes
// itself as a driver process.
const FakeDriverEnv = "PIXELWATCH_FAKE_DRIVER"

const (
	// FakeDriverListen binds --port and serves a W3C WebDriver remote end
	// until killed. Screenshots are a solid 8x8 PNG.
	FakeDriverListen = "listen"
	// FakeDriverExit exits immediately with status 3, like a driver that lost the port race.
	FakeDriverExit = "exit"
)

// RunFakeDriverIfRequested turns the current process into a fake driver when
// FakeDriverEnv is set. Call it first thing in TestMain; it never returns in
// driver mode.
func RunFakeDriverIfRequested() {
	mode := os.Getenv(FakeDriverEnv)
	if mode == "" {
		return
	}
	for _, arg := range os.Args[1:] {
		if arg == "--version" {
			fmt.Fprintln(os.Stdout, "fakedriver 0.0.0")
			os.Exit(0)
		}
	}
	if mode == FakeDriverExit {
		os.Exit(3)
	}

	fs := flag.NewFlagSet("fake-driver", flag.ContinueOnError)
	port := fs.Int("port", 0, "port to bind")
	// Ignore arguments placed before --port.
	args := os.Args[1:]
	for i, arg := range args {
		if arg == "--port" {
			args = args[i:]
			break
		}
	}
	if err := fs.Parse(args); err != nil || *port == 0 {
		fmt.Fprintln(os.Stderr, "fake driver: --port required")
		os.Exit(2)
	}

	ln, err := net.Listen("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(*port)))
	if err != nil {
		fmt.Fprintf(os.Stderr, "fake driver: bind: %v\n", err)
		os.Exit(3)
	}
	fmt.Fprintf(os.Stdout, "fake driver listening on %s\n", ln.Addr())

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGTERM, syscall.SIGINT)
		<-sig
		os.Exit(0)
	}()
	shot, err := encodeSolidPNG(8, 8, color.NRGBA{R: 32, G: 96, B: 160, A: 255})
	if err != nil {
		fmt.Fprintf(os.Stderr, "fake driver: screenshot: %v\n", err)
		os.Exit(3)
	}
	_ = http.Serve(ln, &W3CDriver{Screenshot: shot})
	os.Exit(0)
}

// UseFakeDriver configures the environment so processes spawned from the test
// binary behave as a fake driver in the given mode. It returns the binary path
// to hand to the driver manager.
func UseFakeDriver(t *testing.T, mode string) string {
	t.Helper()
	t.Setenv(FakeDriverEnv, mode)
	exe, err := os.Executable()
	if err != nil {
		t.Fatalf("resolve test executable: %v", err)
	}
	return exe
}
