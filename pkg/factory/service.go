package factory

import (
	"time"

	"github.com/akeren/lingo-site/pkg/ratelimit"
	"github.com/go-redis/redis/v8"
)

// RateLimiterFactory builds per-route limiters that share the backend of the global limiter.
type RateLimiterFactory interface {
	CreateRateLimiter(scope string, requests int, window time.Duration) ratelimit.RateLimiter
}

type DefaultRateLimiterFactory struct {
	redisClient *redis.Client
	logger      ratelimit.Logger
}

// NewDefaultRateLimiterFactory falls back to in-memory limiters when redisClient is nil.
func NewDefaultRateLimiterFactory(redisClient *redis.Client, logger ratelimit.Logger) *DefaultRateLimiterFactory {
	return &DefaultRateLimiterFactory{
		redisClient: redisClient,
		logger:      logger,
	}
}

func (f *DefaultRateLimiterFactory) CreateRateLimiter(scope string, requests int, window time.Duration) ratelimit.RateLimiter {
	return ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
		Requests: requests,
		Window:   window,
		Redis:    f.redisClient,
		Scope:    scope,
		Logger:   f.logger,
	})
}

type FactoryContainer struct {
	RateLimiterFactory RateLimiterFactory
}

func NewFactoryContainer(redisClient *redis.Client, logger ratelimit.Logger) *FactoryContainer {
	return &FactoryContainer{
		RateLimiterFactory: NewDefaultRateLimiterFactory(redisClient, logger),
	}
}
