package lock

import (
	"context"
	"sync"
	"time"
)

// MemoryLocker implements Locker with in-process semaphores.  It backs
// tests and single-node deployments running without Redis; the
// serialization guarantee then only covers one process.
type MemoryLocker struct {
	mu    sync.Mutex
	names map[string]chan struct{}
}

// NewMemoryLocker returns an empty in-process locker.
func NewMemoryLocker() *MemoryLocker {
	return &MemoryLocker{names: make(map[string]chan struct{})}
}

func (l *MemoryLocker) sem(name string) chan struct{} {
	l.mu.Lock()
	defer l.mu.Unlock()
	ch, ok := l.names[name]
	if !ok {
		ch = make(chan struct{}, 1)
		l.names[name] = ch
	}
	return ch
}

// TryAcquire waits up to wait for the named semaphore.
func (l *MemoryLocker) TryAcquire(ctx context.Context, name string, wait time.Duration) (func(), error) {
	ch := l.sem(name)
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		var once sync.Once
		return func() { once.Do(func() { <-ch }) }, nil
	case <-timer.C:
		return nil, ErrTimeout
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
