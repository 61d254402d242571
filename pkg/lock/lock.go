// Package lock serializes acceptance commits per admission period.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrLockHeld is returned when another commit holds the lock for the same key
var ErrLockHeld = errors.New("lock is held by another run")

// Locker acquires exclusive, expiring locks by key
type Locker interface {
	// Acquire takes the lock for key or returns ErrLockHeld. The returned release func is safe to
	// call more than once and only releases the lock this call acquired.
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(context.Context) error, err error)
}

// PeriodKey is the lock key for commits on one admission period
func PeriodKey(periodID string) string {
	return "spmb:acceptance:" + periodID
}
