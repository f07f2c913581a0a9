package lock

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/classroom-booking/internal/config"
)

// releaseScript deletes the lock key only when it still holds our token,
// so an expired lock re-acquired by another writer is never released by
// the previous holder.
var releaseScript = redis.NewScript(`
if redis.call('GET', KEYS[1]) == ARGV[1] then
    return redis.call('DEL', KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX polling.  Each acquired
// lock carries a random token and a lease TTL that bounds how long a
// crashed holder can block other writers.
type RedisLocker struct {
	rdb    *redis.Client
	lease  time.Duration
	retry  time.Duration
	prefix string
}

// NewRedisLocker builds a locker over the given client using lease and
// retry settings from cfg.
func NewRedisLocker(rdb *redis.Client, cfg config.LockConfig) *RedisLocker {
	return &RedisLocker{rdb: rdb, lease: cfg.Lease, retry: cfg.Retry, prefix: cfg.Prefix}
}

// TryAcquire polls SET NX until the lock is won or wait elapses.  A
// Redis failure aborts immediately rather than spinning against a dead
// broker.
func (l *RedisLocker) TryAcquire(ctx context.Context, name string, wait time.Duration) (func(), error) {
	key := l.prefix + ":" + name
	token := uuid.NewString()
	deadline := time.Now().Add(wait)
	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.lease).Result()
		if err != nil {
			return nil, fmt.Errorf("lock %s: %w", name, err)
		}
		if ok {
			var once sync.Once
			return func() {
				once.Do(func() {
					rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
					defer cancel()
					if err := releaseScript.Run(rctx, l.rdb, []string{key}, token).Err(); err != nil {
						log.Printf("lock: release %s failed: %v", name, err)
					}
				})
			}, nil
		}
		if time.Now().Add(l.retry).After(deadline) {
			return nil, ErrTimeout
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(l.retry):
		}
	}
}
