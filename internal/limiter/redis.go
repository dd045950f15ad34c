package limiter

import (
	"context"
	"encoding/hex"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/and161185/sitecms/internal/model"
)

// DefaultRedisPrefix namespaces limiter keys.
const DefaultRedisPrefix = "sitecms:ratelimit:"

type redisCounter interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	PExpire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	PTTL(ctx context.Context, key string) *redis.DurationCmd
}

// Redis is a fixed-window limiter on INCR + PEXPIRE. Key expiry replaces the sweep.
type Redis struct {
	rdb    redisCounter
	prefix string
	max    int
	window time.Duration
	now    func() time.Time
}

// NewRedis constructs a Redis-backed limiter. *redis.Client satisfies rdb.
func NewRedis(rdb redisCounter, max int, window time.Duration, opts ...Option) *Redis {
	max, window = normalize(max, window)
	o := buildOptions(opts)
	return &Redis{rdb: rdb, prefix: DefaultRedisPrefix, max: max, window: window, now: o.now}
}

// Check increments the identifier's counter and reads back the remaining window.
func (l *Redis) Check(ctx context.Context, identifier string) (model.Decision, error) {
	key := l.prefix + hex.EncodeToString(HashIdentifier(identifier))

	n, err := l.rdb.Incr(ctx, key).Result()
	if err != nil {
		return model.Decision{}, err
	}
	if n == 1 {
		if err := l.rdb.PExpire(ctx, key, l.window).Err(); err != nil {
			return model.Decision{}, err
		}
	}

	ttl, err := l.rdb.PTTL(ctx, key).Result()
	if err != nil {
		return model.Decision{}, err
	}
	if ttl < 0 {
		// counter survived without an expiry (e.g. PEXPIRE lost); start the window now
		if err := l.rdb.PExpire(ctx, key, l.window).Err(); err != nil {
			return model.Decision{}, err
		}
		ttl = l.window
	}
	return model.Decision{Allowed: n <= int64(l.max), ResetAt: l.now().Add(ttl)}, nil
}
