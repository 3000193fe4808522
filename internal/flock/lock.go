package flock

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/mrz1836/waypoint/internal/constants"
	wperrors "github.com/mrz1836/waypoint/internal/errors"
)

// Lock is an exclusive advisory lock held on a sidecar lock file.
type Lock struct {
	path string
	file *os.File
}

// New creates a Lock for the given lock file path. Nothing is opened until Acquire.
func New(path string) *Lock {
	return &Lock{path: path}
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Acquire takes the lock, retrying until timeout elapses or ctx is done.
// A timeout wraps ErrLockTimeout; cancellation returns the context error.
func (l *Lock) Acquire(ctx context.Context, timeout time.Duration) error {
	f, err := os.OpenFile(l.path, os.O_RDWR|os.O_CREATE, 0o600) //nolint:gosec // lock path is derived from a configured document path
	if err != nil {
		return fmt.Errorf("open lock file %s: %w", l.path, err)
	}

	deadline := time.Now().Add(timeout)
	for {
		if err := ctx.Err(); err != nil {
			_ = f.Close()
			return err
		}

		if err := Exclusive(f.Fd()); err == nil {
			l.file = f
			return nil
		}

		if time.Now().After(deadline) {
			_ = f.Close()
			return fmt.Errorf("%w: %s after %v", wperrors.ErrLockTimeout, l.path, timeout)
		}

		timer := time.NewTimer(constants.LockRetryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			_ = f.Close()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// Release drops the lock and closes the lock file. Releasing an
// unacquired lock is a no-op.
func (l *Lock) Release() error {
	if l.file == nil {
		return nil
	}
	_ = Unlock(l.file.Fd())
	err := l.file.Close()
	l.file = nil
	return err
}
