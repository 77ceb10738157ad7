// Package lock serializes concurrent work on the same settlement key across
// instances. It only reduces contention; callers must stay correct without it.
package lock

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	keyPrefix  = "creditsettle:lock:"
	DefaultTTL = 30 * time.Second
)

// releaseScript deletes the key only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLocker struct {
	rdb redis.UniversalClient
	ttl time.Duration
}

func NewRedisLocker(rdb redis.UniversalClient, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisLocker{rdb: rdb, ttl: ttl}
}

// Acquire takes the lock with SET NX PX. acquired is false when another
// holder has it; release is always safe to call.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (release func(), acquired bool, err error) {
	token := uuid.NewString()
	fullKey := keyPrefix + key

	ok, err := l.rdb.SetNX(ctx, fullKey, token, l.ttl).Result()
	if err != nil {
		return func() {}, false, fmt.Errorf("acquire lock %s: %w", key, err)
	}
	if !ok {
		return func() {}, false, nil
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := releaseScript.Run(ctx, l.rdb, []string{fullKey}, token).Err(); err != nil && !errors.Is(err, redis.Nil) {
			zap.L().Warn("failed to release lock", zap.String("key", key), zap.Error(err))
		}
	}, true, nil
}

// NoopLocker always grants the lock.
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, string) (func(), bool, error) {
	return func() {}, true, nil
}

// NewRedisClient connects to addr and checks the connection.
func NewRedisClient(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return rdb, nil
}
