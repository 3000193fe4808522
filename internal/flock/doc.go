// Package flock provides cross-platform advisory file locking.
//
// Exclusive and Unlock are the raw, non-blocking primitives. Lock wraps them
// with a retry loop that honors both a timeout and context cancellation,
// which is what the state store uses for optional read-modify-write locking.
//
// Usage:
//
//	lock := flock.New(path + ".lock")
//	if err := lock.Acquire(ctx, 5*time.Second); err != nil {
//	    return err // errors.Is(err, errors.ErrLockTimeout) when held elsewhere
//	}
//	defer func() { _ = lock.Release() }()
package flock
