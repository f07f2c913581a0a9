// Package cache implements the versioned snapshot cache that offloads
// read traffic from the authoritative store.  Snapshots are disposable:
// any component may discard them without correctness impact, because
// every correctness-critical decision re-reads the store directly.
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by a Medium when a key is absent or expired.
var ErrMiss = errors.New("cache miss")

// Medium is the underlying key/value store with TTL support.  Production
// uses Redis; tests use the in-memory implementation.  Get must return
// ErrMiss for absent keys.
type Medium interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Del(ctx context.Context, key string) error
}

// RedisMedium adapts a go-redis client to the Medium interface.
type RedisMedium struct {
	rdb *redis.Client
}

// NewRedisMedium wraps the given client.  The client must be non-nil.
func NewRedisMedium(rdb *redis.Client) *RedisMedium { return &RedisMedium{rdb: rdb} }

func (m *RedisMedium) Get(ctx context.Context, key string) ([]byte, error) {
	bs, err := m.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrMiss
		}
		return nil, err
	}
	return bs, nil
}

func (m *RedisMedium) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return m.rdb.Set(ctx, key, val, ttl).Err()
}

func (m *RedisMedium) Del(ctx context.Context, key string) error {
	return m.rdb.Del(ctx, key).Err()
}
