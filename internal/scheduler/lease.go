package scheduler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Lease gates a scan cycle when the service runs with multiple
// replicas. It is an optimization only: the store claim remains the
// single-dispatch invariant even without it.
type Lease interface {
	// TryAcquire reports whether this replica may scan now.
	TryAcquire(ctx context.Context) (bool, error)
	Release(ctx context.Context) error
}

// releaseScript deletes the lease key only when it still holds our
// token, so a replica cannot release a lease it lost to expiry.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLease is a SET NX PX lease on a shared Redis key.
type RedisLease struct {
	rdb   *redis.Client
	key   string
	ttl   time.Duration
	token string
}

func NewRedisLease(rdb *redis.Client, key string, ttl time.Duration) *RedisLease {
	return &RedisLease{
		rdb:   rdb,
		key:   key,
		ttl:   ttl,
		token: uuid.New().String(),
	}
}

func (l *RedisLease) TryAcquire(ctx context.Context) (bool, error) {
	return l.rdb.SetNX(ctx, l.key, l.token, l.ttl).Result()
}

func (l *RedisLease) Release(ctx context.Context) error {
	return releaseScript.Run(ctx, l.rdb, []string{l.key}, l.token).Err()
}

var _ Lease = (*RedisLease)(nil)
