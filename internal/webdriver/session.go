package webdriver

import (
	"context"
	"strings"

	"github.com/tebeka/selenium"
	"github.com/tebeka/selenium/firefox"

	"pixelwatch/internal/services"
)

// Session is a remote automation session bound to one driver process.
type Session interface {
	Navigate(ctx context.Context, url string) error
	CurrentURL(ctx context.Context) (string, error)
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// Opener opens sessions against a ready driver.
type Opener interface {
	Open(ctx context.Context, driverURL string) (Session, error)
}

// ConnectFunc dials a WebDriver endpoint. selenium.NewRemote satisfies it.
type ConnectFunc func(caps selenium.Capabilities, urlPrefix string) (selenium.WebDriver, error)

// Remote opens Firefox sessions through a WebDriver HTTP endpoint.
type Remote struct {
	Headless bool
	connect  ConnectFunc
}

// NewRemote returns an Opener that talks to geckodriver.
func NewRemote(headless bool) *Remote {
	return &Remote{Headless: headless, connect: selenium.NewRemote}
}

// Capabilities builds the session capabilities sent to the driver.
func (r *Remote) Capabilities() selenium.Capabilities {
	caps := selenium.Capabilities{"browserName": "firefox"}
	var args []string
	if r.Headless {
		args = append(args, "-headless")
	}
	caps.AddFirefox(firefox.Capabilities{Args: args})
	return caps
}

// Open starts a new browser session.
func (r *Remote) Open(ctx context.Context, driverURL string) (Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	driverURL = strings.TrimRight(strings.TrimSpace(driverURL), "/")
	if driverURL == "" {
		return nil, services.Wrap(services.ErrProtocol, "session", "open", "driver url required", nil)
	}
	connect := r.connect
	if connect == nil {
		connect = selenium.NewRemote
	}
	wd, err := connect(r.Capabilities(), driverURL)
	if err != nil {
		return nil, services.Wrap(services.ErrProtocol, "session", "open", driverURL, err)
	}
	return &remoteSession{wd: wd}, nil
}

type remoteSession struct {
	wd selenium.WebDriver
}

func (s *remoteSession) Navigate(ctx context.Context, url string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := s.wd.Get(url); err != nil {
		return services.Wrap(services.ErrProtocol, "session", "navigate", url, err)
	}
	return nil
}

func (s *remoteSession) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	url, err := s.wd.CurrentURL()
	if err != nil {
		return "", services.Wrap(services.ErrProtocol, "session", "current url", "", err)
	}
	return url, nil
}

func (s *remoteSession) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.wd.Screenshot()
	if err != nil {
		return nil, services.Wrap(services.ErrProtocol, "session", "screenshot", "", err)
	}
	if len(data) == 0 {
		return nil, services.Wrap(services.ErrProtocol, "session", "screenshot", "driver returned an empty image", nil)
	}
	return data, nil
}

func (s *remoteSession) Close() error {
	if s.wd == nil {
		return nil
	}
	wd := s.wd
	s.wd = nil
	if err := wd.Quit(); err != nil {
		return services.Wrap(services.ErrProtocol, "session", "quit", "", err)
	}
	return nil
}
