package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

const connectTimeout = 5 * time.Second

// RedisCache owns the single go-redis client shared by the rate limiters.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache dials and pings before returning so a bad address fails at startup.
func NewRedisCache(opts *redis.Options) (*RedisCache, error) {
	if opts == nil || opts.Addr == "" {
		return nil, fmt.Errorf("redis: address is required")
	}

	o := *opts
	if o.DialTimeout == 0 {
		o.DialTimeout = connectTimeout
	}
	if o.ReadTimeout == 0 {
		o.ReadTimeout = 3 * time.Second
	}
	if o.WriteTimeout == 0 {
		o.WriteTimeout = 3 * time.Second
	}

	client := redis.NewClient(&o)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", o.Addr, err)
	}

	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// GetClient exposes the client to the router's Redis rate limiter.
func (c *RedisCache) GetClient() *redis.Client {
	return c.client
}
