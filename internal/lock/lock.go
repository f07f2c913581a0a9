// Package lock provides the named mutual-exclusion primitive that
// serializes reservation writes.  Lock names are scoped per
// (date, classroom), so writes against different sessions proceed
// concurrently while all writes for one session are linearized.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned when a lock cannot be acquired within the
// bounded wait.  Callers surface it as a retryable "system busy" error
// instead of queuing indefinitely.
var ErrTimeout = errors.New("lock acquisition timed out")

// Locker acquires a named lock, waiting at most wait.  The returned
// release function must be called on every exit path; it is safe to call
// more than once.
type Locker interface {
	TryAcquire(ctx context.Context, name string, wait time.Duration) (release func(), err error)
}
