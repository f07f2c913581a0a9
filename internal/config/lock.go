package config

import "time"

// LockConfig defines settings for the named reservation lock.  Wait is
// the bounded acquisition timeout surfaced to callers as a "system busy"
// error when exceeded.  Lease bounds how long a crashed holder can keep
// a lock; it must comfortably exceed the longest write transaction.
// Retry is the polling interval while waiting.
type LockConfig struct {
	Wait   time.Duration
	Lease  time.Duration
	Retry  time.Duration
	Prefix string
}

// LoadLockConfig reads environment variables to build a LockConfig.
func LoadLockConfig() LockConfig {
	cfg := LockConfig{
		Wait:   envDur("LOCK_WAIT_TIMEOUT", 5*time.Second),
		Lease:  envDur("LOCK_LEASE_TTL", 15*time.Second),
		Retry:  envDur("LOCK_RETRY_INTERVAL", 100*time.Millisecond),
		Prefix: envStr("LOCK_PREFIX", "lock:resv"),
	}
	if cfg.Lease < cfg.Wait {
		cfg.Lease = cfg.Wait * 3
	}
	if cfg.Retry <= 0 {
		cfg.Retry = 100 * time.Millisecond
	}
	return cfg
}
