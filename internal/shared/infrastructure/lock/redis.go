package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token, so an
// expired lock re-acquired by another process is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisLocker is a Locker shared by every process pointed at the same
// Redis. Locks expire after TTL if the holder dies.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
	retry  time.Duration
	prefix string
	logger *slog.Logger
}

// NewRedisLocker creates a RedisLocker on an existing client.
func NewRedisLocker(client *redis.Client, ttl time.Duration, logger *slog.Logger) *RedisLocker {
	if logger == nil {
		logger = slog.Default()
	}
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLocker{
		client: client,
		ttl:    ttl,
		retry:  25 * time.Millisecond,
		prefix: "stride:lock:",
		logger: logger,
	}
}

// Connect parses url, pings the server and returns a client.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// Acquire polls SET NX until the key is ours or ctx ends.
func (l *RedisLocker) Acquire(ctx context.Context, key string) (func(), error) {
	redisKey := l.prefix + key
	token := uuid.NewString()

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: %s: %w", ErrNotAcquired, key, ctx.Err())
		case <-timer.C:
		}

		ok, err := l.client.SetNX(ctx, redisKey, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire %s: %w", key, err)
		}
		if ok {
			break
		}
		timer.Reset(l.retry)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if err := releaseScript.Run(ctx, l.client, []string{redisKey}, token).Err(); err != nil {
				l.logger.Warn("failed to release lock", "key", key, "error", err)
			}
		})
	}, nil
}
