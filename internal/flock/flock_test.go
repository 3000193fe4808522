//go:build unix

package flock_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wperrors "github.com/mrz1836/waypoint/internal/errors"
	"github.com/mrz1836/waypoint/internal/flock"
)

func openLockFile(t *testing.T, path string) *os.File {
	t.Helper()
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o600) // #nosec G304 -- test temp dir
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

func TestExclusive(t *testing.T) {
	t.Parallel()

	t.Run("second descriptor cannot take a held lock", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "doc.json.lock")

		f1 := openLockFile(t, path)
		require.NoError(t, flock.Exclusive(f1.Fd()))

		f2 := openLockFile(t, path)
		require.Error(t, flock.Exclusive(f2.Fd()))

		require.NoError(t, flock.Unlock(f1.Fd()))
		require.NoError(t, flock.Exclusive(f2.Fd()))
		require.NoError(t, flock.Unlock(f2.Fd()))
	})
}

func TestLock_Acquire(t *testing.T) {
	t.Parallel()

	t.Run("acquires and releases", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "session-state.json.lock")

		lock := flock.New(path)
		require.NoError(t, lock.Acquire(context.Background(), time.Second))
		assert.FileExists(t, lock.Path())
		require.NoError(t, lock.Release())

		again := flock.New(path)
		require.NoError(t, again.Acquire(context.Background(), time.Second))
		require.NoError(t, again.Release())
	})

	t.Run("times out while held", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "session-state.json.lock")

		holder := flock.New(path)
		require.NoError(t, holder.Acquire(context.Background(), time.Second))
		defer func() { _ = holder.Release() }()

		err := flock.New(path).Acquire(context.Background(), 120*time.Millisecond)
		require.Error(t, err)
		assert.ErrorIs(t, err, wperrors.ErrLockTimeout)
	})

	t.Run("honors cancellation", func(t *testing.T) {
		t.Parallel()
		path := filepath.Join(t.TempDir(), "session-state.json.lock")

		holder := flock.New(path)
		require.NoError(t, holder.Acquire(context.Background(), time.Second))
		defer func() { _ = holder.Release() }()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := flock.New(path).Acquire(ctx, time.Minute)
		assert.True(t, errors.Is(err, context.Canceled))
	})

	t.Run("release without acquire is a no-op", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, flock.New(filepath.Join(t.TempDir(), "x.lock")).Release())
	})

	t.Run("missing directory fails to open", func(t *testing.T) {
		t.Parallel()
		err := flock.New(filepath.Join(t.TempDir(), "nope", "x.lock")).Acquire(context.Background(), time.Second)
		assert.Error(t, err)
	})
}
