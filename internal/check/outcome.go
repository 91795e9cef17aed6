package check

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"pixelwatch/internal/services"
)

// Kind tags the result of one check.
type Kind string

const (
	KindSuccess       Kind = "success"
	KindTimeout       Kind = "timeout"
	KindProcess       Kind = "process-error"
	KindProtocol      Kind = "protocol-error"
	KindMismatch      Kind = "verification-mismatch"
	KindDecode        Kind = "decode-error"
	KindBounds        Kind = "bounds-error"
	KindInternalFault Kind = "internal-fault"

	// KindCanceled marks a check interrupted before it finished, e.g. by SIGINT.
	KindCanceled Kind = "canceled"
)

// Label renders the kind for humans, e.g. "Verification Mismatch".
func (k Kind) Label() string {
	// Casers are stateful and must not be shared between goroutines.
	return cases.Title(language.English).String(strings.ReplaceAll(string(k), "-", " "))
}

// Failed reports whether the kind represents a failure.
func (k Kind) Failed() bool { return k != KindSuccess }

// Outcome is the single result a check task produces.
type Outcome struct {
	Index          int
	Endpoint       string
	Kind           Kind
	Err            error
	Attempts       int
	ScreenshotSize int
	Compared       bool
	Match          bool
	Started        time.Time
	Duration       time.Duration
}

// Classify maps an error chain onto an outcome kind. When several errors are
// joined, the first one that classifies decides.
func Classify(err error) Kind {
	if err == nil {
		return KindSuccess
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		for _, inner := range joined.Unwrap() {
			if inner == nil {
				continue
			}
			if kind, ok := classifyMarker(inner); ok {
				return kind
			}
		}
	}
	if kind, ok := classifyMarker(err); ok {
		return kind
	}
	return KindInternalFault
}

func classifyMarker(err error) (Kind, bool) {
	if errors.Is(err, context.Canceled) {
		return KindCanceled, true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout, true
	}
	switch services.Marker(err) {
	case services.ErrTimeout:
		return KindTimeout, true
	case services.ErrProcess:
		return KindProcess, true
	case services.ErrProtocol:
		return KindProtocol, true
	case services.ErrMismatch:
		return KindMismatch, true
	case services.ErrDecode:
		return KindDecode, true
	case services.ErrBounds:
		return KindBounds, true
	case services.ErrInternal, services.ErrConfiguration:
		return KindInternalFault, true
	}
	return "", false
}

// Tally summarizes a batch.
type Tally struct {
	Total     int
	Succeeded int
	Failed    int
	ByKind    map[Kind]int
}

// Summary counts outcomes by kind.
func Summary(outcomes []Outcome) Tally {
	t := Tally{Total: len(outcomes), ByKind: make(map[Kind]int)}
	for _, o := range outcomes {
		t.ByKind[o.Kind]++
		if o.Kind.Failed() {
			t.Failed++
		} else {
			t.Succeeded++
		}
	}
	return t
}
