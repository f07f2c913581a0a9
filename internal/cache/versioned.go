package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/iliyamo/classroom-booking/internal/config"
)

// Dataset keys served by the cache.
const (
	KeyAllReservations  = "ALL_RESERVATIONS"
	KeyScheduleMaster   = "SCHEDULE_MASTER"
	KeyAccountingMaster = "ACCOUNTING_MASTER"
)

// Entry is one cached dataset tagged with its version stamp.  Versions
// strictly increase on every payload replacement for the same key, so a
// reader holding two entries can detect staleness by comparing versions
// without re-fetching payloads.
type Entry struct {
	Version int64           `json:"version"`
	Payload json.RawMessage `json:"payload"`
}

// Decode unmarshals the entry payload into v.
func (e *Entry) Decode(v any) error {
	return json.Unmarshal(e.Payload, v)
}

// RebuildFunc regenerates a dataset from the authoritative store.
type RebuildFunc func(ctx context.Context) (any, error)

// Cache is the versioned snapshot cache.  It is read-side only: write
// transactions invalidate entries but never read them for validation.
// A nil or disabled cache is fully functional; every read takes the
// rebuild path.
type Cache struct {
	medium  Medium
	ttl     time.Duration
	prefix  string
	enabled bool

	mu       sync.Mutex
	building map[string]*sync.Mutex // per-key rebuild debounce
	versions map[string]int64       // highest version issued per key
}

// New builds a Cache over the given medium.  Passing a nil medium (e.g.
// Redis unreachable at startup) disables storage: reads always rebuild.
func New(medium Medium, cfg config.SnapshotCacheConfig) *Cache {
	return &Cache{
		medium:   medium,
		ttl:      cfg.TTL,
		prefix:   cfg.Prefix,
		enabled:  cfg.Enabled && medium != nil,
		building: make(map[string]*sync.Mutex),
		versions: make(map[string]int64),
	}
}

func (c *Cache) storageKey(key string) string {
	return c.prefix + ":" + key
}

// Get returns the cached entry for key, or false on a miss.  Medium
// failures and corrupt payloads degrade to a miss; Get never fails.
func (c *Cache) Get(ctx context.Context, key string) (*Entry, bool) {
	if !c.enabled {
		return nil, false
	}
	bs, err := c.medium.Get(ctx, c.storageKey(key))
	if err != nil {
		return nil, false
	}
	var e Entry
	if err := json.Unmarshal(bs, &e); err != nil {
		return nil, false
	}
	c.observeVersion(key, e.Version)
	return &e, true
}

// GetOrRebuild returns the cached entry for key, rebuilding it from the
// authoritative store on a miss.  Concurrent in-process rebuilds of the
// same key are serialized; whichever rebuild stores last wins, which is
// safe because no correctness decision depends on cache freshness.  A
// failed rebuild is propagated to the caller and never cached, so the
// next read simply retries.
func (c *Cache) GetOrRebuild(ctx context.Context, key string, rebuild RebuildFunc) (*Entry, error) {
	if e, ok := c.Get(ctx, key); ok {
		return e, nil
	}
	km := c.keyMutex(key)
	km.Lock()
	defer km.Unlock()
	// Another request may have finished the rebuild while we waited.
	if e, ok := c.Get(ctx, key); ok {
		return e, nil
	}
	payload, err := rebuild(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s snapshot: %w", key, err)
	}
	e := &Entry{Version: c.nextVersion(key), Payload: raw}
	c.store(ctx, key, e)
	return e, nil
}

// Invalidate removes the entry for key so the next read forces a
// rebuild.  Medium failures are logged, not surfaced: the TTL backstop
// bounds staleness even when a delete is lost.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	if !c.enabled {
		return
	}
	if err := c.medium.Del(ctx, c.storageKey(key)); err != nil {
		log.Printf("cache: invalidate %s failed: %v", key, err)
	}
}

func (c *Cache) store(ctx context.Context, key string, e *Entry) {
	if !c.enabled {
		return
	}
	buf, err := json.Marshal(e)
	if err != nil {
		log.Printf("cache: encode entry %s failed: %v", key, err)
		return
	}
	if err := c.medium.Set(ctx, c.storageKey(key), buf, c.ttl); err != nil {
		log.Printf("cache: store %s failed: %v", key, err)
	}
}

func (c *Cache) keyMutex(key string) *sync.Mutex {
	c.mu.Lock()
	defer c.mu.Unlock()
	km, ok := c.building[key]
	if !ok {
		km = &sync.Mutex{}
		c.building[key] = km
	}
	return km
}

// nextVersion issues a version stamp strictly greater than any version
// previously seen or issued for key, even when the clock stalls.
func (c *Cache) nextVersion(key string) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	v := time.Now().UnixNano()
	if last := c.versions[key]; v <= last {
		v = last + 1
	}
	c.versions[key] = v
	return v
}

func (c *Cache) observeVersion(key string, v int64) {
	c.mu.Lock()
	if v > c.versions[key] {
		c.versions[key] = v
	}
	c.mu.Unlock()
}
