package check

import (
	"context"
	"errors"
	"fmt"

	"pixelwatch/internal/imagecmp"
	"pixelwatch/internal/services"
	"pixelwatch/internal/webdriver"
)

// Baseline is the reference image a screenshot must match.
type Baseline struct {
	Image     []byte
	Threshold int
}

// Verification describes what a successful session observed.
type Verification struct {
	URL        string
	Screenshot []byte
	Compared   bool
	Match      bool
}

// Verify drives one browser session against a ready driver. The session is
// closed on every path. A nil baseline skips the image comparison.
func Verify(ctx context.Context, opener webdriver.Opener, driverURL, endpoint, expected string, baseline *Baseline) (v Verification, err error) {
	if opener == nil {
		return v, services.Wrap(services.ErrInternal, "verify", "open", "session opener unavailable", nil)
	}
	session, err := opener.Open(ctx, driverURL)
	if err != nil {
		return v, err
	}
	defer func() {
		if closeErr := session.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
	}()

	if err := session.Navigate(ctx, endpoint); err != nil {
		return v, err
	}
	current, err := session.CurrentURL(ctx)
	if err != nil {
		return v, err
	}
	v.URL = current
	if current != expected {
		return v, services.Wrap(services.ErrMismatch, "verify", "url",
			fmt.Sprintf("expected %q, browser reported %q", expected, current), nil)
	}

	shot, err := session.Screenshot(ctx)
	if err != nil {
		return v, err
	}
	v.Screenshot = shot

	if baseline == nil {
		return v, nil
	}
	match, err := imagecmp.Compare(shot, baseline.Image, baseline.Threshold)
	if err != nil {
		return v, err
	}
	v.Compared = true
	v.Match = match
	if !match {
		return v, services.Wrap(services.ErrMismatch, "verify", "screenshot",
			fmt.Sprintf("more than %d pixels differ from baseline", baseline.Threshold), nil)
	}
	return v, nil
}
