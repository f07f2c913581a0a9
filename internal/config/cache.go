package config

import "time"

// SnapshotCacheConfig defines settings for the versioned snapshot cache.
// When Enabled is false or no Redis client is configured, reads fall
// back to rebuilding snapshots from the authoritative store on every
// call.  TTL is a safety net against missed invalidations; explicit
// invalidation on every committed write is the primary freshness
// mechanism.  Prefix namespaces the cache keys in Redis.
type SnapshotCacheConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// LoadSnapshotCacheConfig reads environment variables to build a
// SnapshotCacheConfig.  Defaults are used when variables are not set.
func LoadSnapshotCacheConfig() SnapshotCacheConfig {
	return SnapshotCacheConfig{
		Enabled: envBool("SNAPSHOT_CACHE_ENABLED", true),
		TTL:     envDur("SNAPSHOT_CACHE_TTL", 5*time.Minute),
		Prefix:  envStr("SNAPSHOT_CACHE_PREFIX", "snap"),
	}
}
