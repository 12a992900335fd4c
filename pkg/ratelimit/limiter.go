package ratelimit

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

type Logger interface {
	Error(msg string, args ...interface{})
}

// RateLimiter decides whether the caller identified by key is over its budget.
type RateLimiter interface {
	GetLimitDetails() (int, time.Duration)
	IsLimited(ctx context.Context, key string) (bool, error)
	Close() error
}

// Unlimited never limits. Bind it as an override for routes that must not be throttled.
type Unlimited struct{}

func (Unlimited) GetLimitDetails() (int, time.Duration) { return 0, 0 }

func (Unlimited) IsLimited(context.Context, string) (bool, error) { return false, nil }

func (Unlimited) Close() error { return nil }

type RateLimitConfig struct {
	Requests int
	Window   time.Duration
	// Redis is optional; without it limits are per process.
	Redis *redis.Client
	// Scope namespaces Redis keys so per-route limiters keep separate windows.
	Scope  string
	Logger Logger
}

func NewRateLimiter(config *RateLimitConfig) RateLimiter {
	if config.Redis != nil {
		return NewRedisRateLimiter(config.Redis, config.Requests, config.Window, config.Scope, config.Logger)
	}
	return NewInMemoryRateLimiter(config.Requests, config.Window)
}
