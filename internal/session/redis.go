package session

import (
	"context"
	"encoding/hex"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/and161185/sitecms/internal/crypto"
)

// DefaultRedisPrefix namespaces session keys.
const DefaultRedisPrefix = "sitecms:session:"

// redisGrace keeps the key around slightly longer than the session so that
// Validate, not key eviction, decides the exact expiry instant.
const redisGrace = time.Minute

type redisHashes interface {
	HSet(ctx context.Context, key string, values ...any) *redis.IntCmd
	HGet(ctx context.Context, key, field string) *redis.StringCmd
	PExpire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Redis stores one hash per session with a key TTL, so expired sessions
// are reaped by Redis itself.
type Redis struct {
	rdb    redisHashes
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedis constructs a Redis session store. *redis.Client satisfies rdb.
func NewRedis(rdb redisHashes, ttl time.Duration, opts ...Option) *Redis {
	o := buildOptions(opts)
	return &Redis{rdb: rdb, prefix: DefaultRedisPrefix, ttl: normalizeDuration(ttl), now: o.now}
}

func (s *Redis) key(token string) string {
	return s.prefix + hex.EncodeToString(crypto.TokenKey(token))
}

func (s *Redis) Create(ctx context.Context, token string) error {
	key := s.key(token)
	now := s.now().UnixMilli()
	if err := s.rdb.HSet(ctx, key, "created_at", now, "last_active", now).Err(); err != nil {
		return err
	}
	return s.rdb.PExpire(ctx, key, s.ttl+redisGrace).Err()
}

func (s *Redis) Validate(ctx context.Context, token string) (bool, error) {
	key := s.key(token)
	raw, err := s.rdb.HGet(ctx, key, "created_at").Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, err
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		// unreadable record is treated as no session
		_ = s.rdb.Del(ctx, key).Err()
		return false, nil
	}

	now := s.now()
	if now.Sub(time.UnixMilli(ms)) > s.ttl {
		if err := s.rdb.Del(ctx, key).Err(); err != nil {
			return false, err
		}
		return false, nil
	}
	if err := s.rdb.HSet(ctx, key, "last_active", now.UnixMilli()).Err(); err != nil {
		return false, err
	}
	return true, nil
}

func (s *Redis) Delete(ctx context.Context, token string) error {
	return s.rdb.Del(ctx, s.key(token)).Err()
}

// CleanupExpired is a no-op: key TTLs reap sessions.
func (s *Redis) CleanupExpired(context.Context) (int, error) { return 0, nil }
