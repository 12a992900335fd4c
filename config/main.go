package config

import (
	"context"
	"errors"
	"time"

	"github.com/akeren/lingo-site/config/router"
	"github.com/akeren/lingo-site/internal/log"
	"github.com/akeren/lingo-site/internal/models"
	"github.com/akeren/lingo-site/pkg/constants"
	"github.com/akeren/lingo-site/pkg/utils"
	"gorm.io/gorm"
)

type ApplicationConfig struct {
	// DB is nil when no database is configured.
	DB              *gorm.DB
	RouterService   *router.RouterService
	Logger          *log.Logger
	Cache           Cache
	Config          *AppConfig
	TracingShutdown func(context.Context) error
}

type AppConfig struct {
	Environment       string
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
	Site              SiteConfig
}

// SiteConfig holds the content and third-party settings of the marketing site.
type SiteConfig struct {
	BlogContentDir  string
	BlogShowDrafts  bool
	MusicDir        string
	MusicPublicPath string

	AnalyticsAPIHost      string
	AnalyticsAssetsHost   string
	AnalyticsProxyTimeout time.Duration

	EnableTestRoutes bool
}

func NewAppConfig() *AppConfig {
	config := &AppConfig{
		Environment:       GetAppEnv(),
		RateLimitRequests: constants.DefaultRateLimitRequests,
		RateLimitWindow:   constants.DefaultRateLimitWindow(),
		RequestTimeout:    30 * time.Second, // Default request timeout
		Site:              NewSiteConfig(),
	}

	config.RateLimitRequests = utils.GetEnvInt("RATE_LIMIT_REQUESTS", config.RateLimitRequests)
	config.RateLimitWindow = utils.GetEnvDuration("RATE_LIMIT_WINDOW", config.RateLimitWindow)
	config.RequestTimeout = utils.GetEnvDuration("REQUEST_TIMEOUT", config.RequestTimeout)

	return config
}

func NewSiteConfig() SiteConfig {
	return SiteConfig{
		BlogContentDir:  utils.GetEnvTrimmedOrDefault("BLOG_CONTENT_DIR", constants.DefaultBlogContentDir),
		BlogShowDrafts:  utils.GetEnvBool("BLOG_SHOW_DRAFTS", false),
		MusicDir:        utils.GetEnvTrimmedOrDefault("MUSIC_DIR", constants.DefaultMusicDir),
		MusicPublicPath: utils.GetEnvTrimmedOrDefault("MUSIC_PUBLIC_PATH", constants.DefaultMusicPublicPath),

		AnalyticsAPIHost:      utils.GetEnvTrimmedOrDefault("ANALYTICS_API_HOST", constants.DefaultAnalyticsAPIHost),
		AnalyticsAssetsHost:   utils.GetEnvTrimmedOrDefault("ANALYTICS_ASSETS_HOST", constants.DefaultAnalyticsAssetsHost),
		AnalyticsProxyTimeout: utils.GetEnvDuration("ANALYTICS_PROXY_TIMEOUT", constants.DefaultAnalyticsTimeout),

		EnableTestRoutes: utils.GetEnvBool("ENABLE_TEST_ROUTES", false),
	}
}

// IsProduction reports whether the configured APP_ENV is a production deployment.
func (c *AppConfig) IsProduction() bool {
	return c != nil && IsProductionEnv(c.Environment)
}

func (ac *ApplicationConfig) Cleanup() {
	if ac.TracingShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := ac.TracingShutdown(ctx); err != nil {
			ac.Logger.Error("Failed to shutdown tracer provider", "error", err)
		}
	}

	if ac.DB != nil {
		CloseDatabase(ac.DB, ac.Logger)
	}

	if ac.RouterService != nil {
		ac.RouterService.Cleanup()
	}

	if ac.Cache != nil {
		CloseCache(ac.Cache, ac.Logger)
	}

	ac.Logger.Info("Application cleanup completed")
}

func LoadApplicationConfiguration(logger *log.Logger, autoMigrate bool) (*ApplicationConfig, error) {
	InitializeEnvFile(logger)

	appConfig := NewAppConfig()

	if autoMigrate {
		if err := ValidateAutoMigrateAllowed(appConfig.Environment); err != nil {
			return nil, err
		}
		if appConfig.Environment == "" {
			logger.Warn("APP_ENV not set; allowing --auto-migrate as development")
		}
	}

	tracingShutdown, err := SetupTracing(logger)
	if err != nil {
		return nil, err
	}

	db, err := NewDatabase(logger, &DBConfig{})
	switch {
	case errors.Is(err, ErrDatabaseNotConfigured):
		if appConfig.IsProduction() {
			logger.Error("Running in production without a database; waitlist signups will be rejected")
		} else {
			logger.Warn("Running without a database; waitlist signups will be logged only")
		}
	case err != nil:
		return nil, err
	}

	if autoMigrate && db != nil {
		if err := AutoMigrate(logger, db, models.ModelRegistry...); err != nil {
			return nil, err
		}
	}

	cache := NewCacheConfig().NewCacheOrNil(logger)

	routerService := router.CreateRouterService(logger, cache, &router.RouterConfig{
		RateLimitRequests: appConfig.RateLimitRequests,
		RateLimitWindow:   appConfig.RateLimitWindow,
		RequestTimeout:    appConfig.RequestTimeout,
	})

	logger.Info("Application configuration loaded successfully",
		"env", appConfig.Environment,
		"database", db != nil,
		"cache", cache != nil,
	)

	return &ApplicationConfig{
		DB:              db,
		RouterService:   routerService,
		Logger:          logger,
		Cache:           cache,
		Config:          appConfig,
		TracingShutdown: tracingShutdown,
	}, nil
}
