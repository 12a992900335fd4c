package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
)

// slidingWindow keeps one sorted-set member per admitted request, scored by
// its timestamp in milliseconds. It returns 1 when the caller is limited.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, 0, now - window)
if redis.call('ZCARD', key) >= limit then
	return 1
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window * 2)
return 0
`)

// RedisRateLimiter is a sliding-window limiter shared by every instance that
// points at the same Redis.
type RedisRateLimiter struct {
	client    *redis.Client
	requests  int
	window    time.Duration
	keyPrefix string
	logger    Logger
}

// NewRedisRateLimiter namespaces keys under "ratelimit:<scope>:".
func NewRedisRateLimiter(client *redis.Client, requests int, window time.Duration, scope string, logger Logger) *RedisRateLimiter {
	keyPrefix := "ratelimit:"
	if scope = strings.Trim(scope, ":"); scope != "" {
		keyPrefix += scope + ":"
	}

	return &RedisRateLimiter{
		client:    client,
		requests:  requests,
		window:    window,
		keyPrefix: keyPrefix,
		logger:    logger,
	}
}

func (r *RedisRateLimiter) GetLimitDetails() (int, time.Duration) {
	return r.requests, r.window
}

func (r *RedisRateLimiter) key(key string) string {
	if strings.HasPrefix(key, r.keyPrefix) {
		return key
	}
	return r.keyPrefix + key
}

func (r *RedisRateLimiter) IsLimited(ctx context.Context, key string) (bool, error) {
	fullKey := r.key(key)

	limited, err := slidingWindow.Run(ctx, r.client, []string{fullKey},
		time.Now().UnixMilli(),
		r.window.Milliseconds(),
		r.requests,
		uuid.NewString(),
	).Int()
	if err != nil {
		if r.logger != nil {
			r.logger.Error("Redis rate limit script failed", "key", fullKey, "error", err)
		}
		return false, fmt.Errorf("rate limiter redis: %w", err)
	}

	return limited == 1, nil
}

// Close is a no-op: the client belongs to the application cache.
func (r *RedisRateLimiter) Close() error {
	return nil
}
