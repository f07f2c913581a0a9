package cache

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/classroom-booking/internal/config"
)

func newTestCache(medium Medium, ttl time.Duration) *Cache {
	return New(medium, config.SnapshotCacheConfig{Enabled: true, TTL: ttl, Prefix: "snap"})
}

func rebuildWith(v any) RebuildFunc {
	return func(context.Context) (any, error) { return v, nil }
}

func TestGetOrRebuildMissThenHit(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(NewMemoryMedium(), time.Minute)

	calls := 0
	rebuild := func(context.Context) (any, error) {
		calls++
		return []string{"a", "b"}, nil
	}

	e1, err := c.GetOrRebuild(ctx, KeyAllReservations, rebuild)
	require.NoError(t, err)
	var got []string
	require.NoError(t, e1.Decode(&got))
	assert.Equal(t, []string{"a", "b"}, got)

	e2, err := c.GetOrRebuild(ctx, KeyAllReservations, rebuild)
	require.NoError(t, err)
	assert.Equal(t, 1, calls, "second read must hit the cache")
	assert.Equal(t, e1.Version, e2.Version)
}

func TestVersionsStrictlyIncrease(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(NewMemoryMedium(), time.Minute)

	var last int64
	for i := 0; i < 5; i++ {
		e, err := c.GetOrRebuild(ctx, KeyScheduleMaster, rebuildWith(i))
		require.NoError(t, err)
		assert.Greater(t, e.Version, last)
		last = e.Version
		c.Invalidate(ctx, KeyScheduleMaster)
	}
}

func TestInvalidateForcesRebuild(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(NewMemoryMedium(), time.Minute)

	calls := 0
	rebuild := func(context.Context) (any, error) {
		calls++
		return calls, nil
	}

	_, err := c.GetOrRebuild(ctx, KeyAllReservations, rebuild)
	require.NoError(t, err)
	c.Invalidate(ctx, KeyAllReservations)

	e, err := c.GetOrRebuild(ctx, KeyAllReservations, rebuild)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	var v int
	require.NoError(t, e.Decode(&v))
	assert.Equal(t, 2, v)
}

func TestFailedRebuildNeverCached(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(NewMemoryMedium(), time.Minute)

	boom := errors.New("store down")
	_, err := c.GetOrRebuild(ctx, KeyAccountingMaster, func(context.Context) (any, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	// The failure must not have been stored; the next read retries and
	// succeeds.
	e, err := c.GetOrRebuild(ctx, KeyAccountingMaster, rebuildWith("ok"))
	require.NoError(t, err)
	var s string
	require.NoError(t, e.Decode(&s))
	assert.Equal(t, "ok", s)
}

func TestTTLExpiryForcesRebuild(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(NewMemoryMedium(), 10*time.Millisecond)

	calls := 0
	rebuild := func(context.Context) (any, error) {
		calls++
		return calls, nil
	}
	_, err := c.GetOrRebuild(ctx, KeyAllReservations, rebuild)
	require.NoError(t, err)

	time.Sleep(20 * time.Millisecond)

	_, err = c.GetOrRebuild(ctx, KeyAllReservations, rebuild)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

type failingMedium struct{}

func (failingMedium) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("medium down")
}
func (failingMedium) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("medium down")
}
func (failingMedium) Del(context.Context, string) error {
	return errors.New("medium down")
}

func TestMediumFailureDegradesToMiss(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(failingMedium{}, time.Minute)

	calls := 0
	rebuild := func(context.Context) (any, error) {
		calls++
		return calls, nil
	}
	for i := 0; i < 3; i++ {
		e, err := c.GetOrRebuild(ctx, KeyAllReservations, rebuild)
		require.NoError(t, err, "medium failure must not fail the read")
		var v int
		require.NoError(t, e.Decode(&v))
		assert.Equal(t, i+1, v)
	}
	assert.Equal(t, 3, calls)
}

func TestDisabledCacheAlwaysRebuilds(t *testing.T) {
	ctx := context.Background()
	c := New(nil, config.SnapshotCacheConfig{Enabled: true, TTL: time.Minute, Prefix: "snap"})

	calls := 0
	rebuild := func(context.Context) (any, error) {
		calls++
		return calls, nil
	}
	_, err := c.GetOrRebuild(ctx, KeyAllReservations, rebuild)
	require.NoError(t, err)
	_, err = c.GetOrRebuild(ctx, KeyAllReservations, rebuild)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)

	_, ok := c.Get(ctx, KeyAllReservations)
	assert.False(t, ok)
}

func TestCorruptEntryDegradesToMiss(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryMedium()
	c := newTestCache(m, time.Minute)

	require.NoError(t, m.Set(ctx, "snap:"+KeyAllReservations, []byte("{not json"), time.Minute))

	e, err := c.GetOrRebuild(ctx, KeyAllReservations, rebuildWith("fresh"))
	require.NoError(t, err)
	var s string
	require.NoError(t, e.Decode(&s))
	assert.Equal(t, "fresh", s)
}

func TestConcurrentRebuildsSerializedPerKey(t *testing.T) {
	ctx := context.Background()
	c := newTestCache(NewMemoryMedium(), time.Minute)

	var mu sync.Mutex
	calls := 0
	rebuild := func(context.Context) (any, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		time.Sleep(5 * time.Millisecond)
		return "payload", nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.GetOrRebuild(ctx, KeyAllReservations, rebuild)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls, "waiters must reuse the in-flight rebuild")
}
