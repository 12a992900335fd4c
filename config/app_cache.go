package config

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strconv"

	"github.com/akeren/lingo-site/internal/log"
	pkgredis "github.com/akeren/lingo-site/pkg/redis"
	"github.com/akeren/lingo-site/pkg/utils"
	"github.com/go-redis/redis/v8"
)

// Cache is the shared Redis connection. The site only needs it for
// distributed rate limiting and the health check.
type Cache interface {
	Ping(ctx context.Context) error
	Close() error
}

var ErrCacheNotConfigured = errors.New("cache: REDIS_URL or REDIS_HOST is not set")

// CacheConfig accepts either a full REDIS_URL (as hosted providers hand out)
// or the discrete REDIS_* variables. The URL wins when both are set.
type CacheConfig struct {
	URL      string
	Host     string
	Port     string
	Password string
	DB       int
}

func NewCacheConfig() *CacheConfig {
	return &CacheConfig{
		URL:      utils.GetEnvTrimmed("REDIS_URL"),
		Host:     utils.GetEnvTrimmed("REDIS_HOST"),
		Port:     utils.GetEnvTrimmedOrDefault("REDIS_PORT", "6379"),
		Password: utils.GetEnvTrimmed("REDIS_PASSWORD"),
		DB:       utils.GetEnvInt("REDIS_DB", 0),
	}
}

func (cc *CacheConfig) IsConfigured() bool {
	return cc.URL != "" || cc.Host != ""
}

func (cc *CacheConfig) options() (*redis.Options, error) {
	if cc.URL != "" {
		opts, err := redis.ParseURL(cc.URL)
		if err != nil {
			return nil, fmt.Errorf("cache: invalid REDIS_URL: %w", err)
		}
		return opts, nil
	}
	if cc.Host == "" {
		return nil, ErrCacheNotConfigured
	}
	if _, err := strconv.Atoi(cc.Port); err != nil {
		return nil, fmt.Errorf("cache: invalid REDIS_PORT %q", cc.Port)
	}

	return &redis.Options{
		Addr:     net.JoinHostPort(cc.Host, cc.Port),
		Password: cc.Password,
		DB:       cc.DB,
	}, nil
}

func (cc *CacheConfig) NewCache(logger *log.Logger) (Cache, error) {
	opts, err := cc.options()
	if err != nil {
		return nil, err
	}

	cache, err := pkgredis.NewRedisCache(opts)
	if err != nil {
		return nil, err
	}

	logger.Info("Cache (Redis) connected", "addr", opts.Addr, "db", opts.DB)
	return cache, nil
}

// NewCacheOrNil never fails startup: without Redis the rate limiters run in memory.
func (cc *CacheConfig) NewCacheOrNil(logger *log.Logger) Cache {
	if !cc.IsConfigured() {
		logger.Info("Cache (Redis) is not configured; rate limits are per instance")
		return nil
	}

	cache, err := cc.NewCache(logger)
	if err != nil {
		logger.Error("Failed to connect to Cache (Redis); rate limits are per instance", "error", err)
		return nil
	}
	return cache
}

func CloseCache(cache Cache, logger *log.Logger) {
	if cache == nil {
		return
	}
	if err := cache.Close(); err != nil {
		logger.Error("Failed to close cache", "error", err)
		return
	}
	logger.Info("Cache connection closed")
}
