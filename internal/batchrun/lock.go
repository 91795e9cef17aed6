package batchrun

import (
	"errors"
	"fmt"

	"github.com/gofrs/flock"
)

// ErrBusy reports that another batch holds the run lock.
var ErrBusy = errors.New("another pixelwatch batch is already running")

type runLock struct {
	path string
	lock *flock.Flock
}

func acquireLock(path string) (*runLock, error) {
	lock := flock.New(path)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w (lock %s)", ErrBusy, path)
	}
	return &runLock{path: path, lock: lock}, nil
}

func (l *runLock) release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
