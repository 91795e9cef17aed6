package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrTimeout       = errors.New("timeout")
	ErrProcess       = errors.New("process error")
	ErrProtocol      = errors.New("protocol error")
	ErrMismatch      = errors.New("verification mismatch")
	ErrDecode        = errors.New("decode error")
	ErrBounds        = errors.New("bounds error")
	ErrInternal      = errors.New("internal fault")
	ErrConfiguration = errors.New("configuration error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later outcome classification. The marker should be one
// of the exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrInternal
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Marker returns the first sentinel the error chain carries, or nil.
func Marker(err error) error {
	if err == nil {
		return nil
	}
	for _, marker := range []error{
		ErrTimeout,
		ErrProcess,
		ErrProtocol,
		ErrMismatch,
		ErrDecode,
		ErrBounds,
		ErrConfiguration,
		ErrInternal,
	} {
		if errors.Is(err, marker) {
			return marker
		}
	}
	return nil
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "check failure"
	}
	return strings.Join(parts, ": ")
}
