package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryMedium is an in-process Medium used in tests and in deployments
// running without Redis.  Expiry is checked lazily on Get.
type MemoryMedium struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	val       []byte
	expiresAt time.Time // zero means no expiry
}

// NewMemoryMedium returns an empty in-memory medium.
func NewMemoryMedium() *MemoryMedium {
	return &MemoryMedium{entries: make(map[string]memoryEntry)}
}

func (m *MemoryMedium) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrMiss
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return nil, ErrMiss
	}
	out := make([]byte, len(e.val))
	copy(out, e.val)
	return out, nil
}

func (m *MemoryMedium) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	cp := make([]byte, len(val))
	copy(cp, val)
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.entries[key] = memoryEntry{val: cp, expiresAt: exp}
	m.mu.Unlock()
	return nil
}

func (m *MemoryMedium) Del(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
	return nil
}
