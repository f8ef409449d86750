package runguard

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const leaseKeyPrefix = "runguard:lease:"

// renewScript extends the expiry only while this process still holds the
// lease. Compare-and-expire must be atomic, hence Lua.
var renewScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return 0
`)

// releaseScript deletes the lease only when this process holds it.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLease implements Lease on a shared Redis instance. The value stored
// under the lease key is a per-process holder token, so renew and release
// cannot touch a lease owned by another process.
type RedisLease struct {
	client *redis.Client
	holder string
}

func NewRedisLease(client *redis.Client) *RedisLease {
	return &RedisLease{
		client: client,
		holder: uuid.NewString(),
	}
}

// Holder exposes the process token; used by integration tests.
func (l *RedisLease) Holder() string { return l.holder }

func (l *RedisLease) Acquire(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	// SET NX PX is the atomic check-and-claim: the first caller in a window
	// writes the key, later callers see it and are denied until expiry.
	ok, err := l.client.SetNX(ctx, leaseKeyPrefix+name, l.holder, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lease %q: %w", name, err)
	}
	return ok, nil
}

func (l *RedisLease) Renew(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	res, err := renewScript.Run(ctx, l.client, []string{leaseKeyPrefix + name}, l.holder, ttl.Milliseconds()).Int()
	if err != nil {
		return false, fmt.Errorf("renew lease %q: %w", name, err)
	}
	return res == 1, nil
}

func (l *RedisLease) Release(ctx context.Context, name string) error {
	if _, err := releaseScript.Run(ctx, l.client, []string{leaseKeyPrefix + name}, l.holder).Result(); err != nil {
		return fmt.Errorf("release lease %q: %w", name, err)
	}
	return nil
}
