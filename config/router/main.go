package router

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/akeren/lingo-site/internal/log"
	"github.com/akeren/lingo-site/pkg/ratelimit"
	"github.com/akeren/lingo-site/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const DefaultTimeoutDuration = 30 * time.Second

type Cache interface {
	Ping(ctx context.Context) error
}

type RedisClientProvider interface {
	GetClient() *redis.Client
}

type RouterService struct {
	engine         *gin.Engine
	server         *http.Server
	logger         *log.Logger
	settings       httpSettings
	requestTimeout time.Duration

	rateLimiter       ratelimit.RateLimiter
	rateLimitRequests int
	rateLimitWindow   time.Duration
	redisClient       *redis.Client
	metricsRegistry   *prometheus.Registry

	routes               map[route]binding
	controllerLimiters   map[string]ratelimit.RateLimiter
	controllerBodyLimits map[string]int64
}

type RouterConfig struct {
	RateLimitRequests int
	RateLimitWindow   time.Duration
	RequestTimeout    time.Duration
}

func CreateRouterService(logger *log.Logger, cache Cache, routerConfig *RouterConfig) *RouterService {
	settings := loadHTTPSettings()

	if settings.ginMode != "" {
		logger.Info("Setting Gin mode", "mode", settings.ginMode)
		gin.SetMode(settings.ginMode)
	}

	timeout := routerConfig.RequestTimeout
	if timeout <= 0 {
		timeout = DefaultTimeoutDuration
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	if utils.IsTracingEnabled() {
		engine.Use(otelgin.Middleware(utils.OTelServiceName()))
		logger.Info("Tracing middleware enabled")
	}

	// SECURITY: Gin trusts every proxy by default, which lets clients spoof
	// ClientIP() (and so the rate limit key) through X-Forwarded-For.
	if err := engine.SetTrustedProxies(settings.trustedProxies); err != nil {
		logger.Error("Invalid TRUSTED_PROXIES; disabling trusted proxies", "error", err)
		_ = engine.SetTrustedProxies(nil)
	} else if settings.trustedProxies == nil {
		logger.Info("Trusted proxies disabled (TRUSTED_PROXIES not set)")
	}

	var redisClient *redis.Client
	if provider, ok := cache.(RedisClientProvider); ok {
		redisClient = provider.GetClient()
	}

	rs := &RouterService{
		engine:            engine,
		logger:            logger,
		settings:          settings,
		requestTimeout:    timeout,
		rateLimitRequests: routerConfig.RateLimitRequests,
		rateLimitWindow:   routerConfig.RateLimitWindow,
		redisClient:       redisClient,

		routes:               make(map[route]binding),
		controllerLimiters:   make(map[string]ratelimit.RateLimiter),
		controllerBodyLimits: make(map[string]int64),
	}

	rs.initRateLimiting()

	// Registered before the middleware chain below so scrapes skip rate limiting.
	rs.mountMetrics()

	engine.Use(
		rs.securityHeadersMiddleware(),
		rs.maxBodySizeMiddleware(),
		rs.corsMiddleware(),
		rs.rateLimitMiddleware(),
		rs.timeoutMiddleware(),
		rs.correlationIDMiddleware(),
		rs.loggerInjectionMiddleware(),
		rs.requestLoggingMiddleware(),
	)

	engine.HandleMethodNotAllowed = true
	engine.RedirectTrailingSlash = true

	engine.NoRoute(rs.fallbackHandler(http.StatusNotFound, "Route not found"))
	engine.NoMethod(rs.fallbackHandler(http.StatusMethodNotAllowed, "Method not allowed"))

	rs.server = &http.Server{
		Addr:    ":" + settings.port,
		Handler: engine,

		// Server timeouts bound handler time; gin's Context cannot be handed to
		// another goroutine to enforce a deadline.
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       timeout,
		WriteTimeout:      timeout,
		IdleTimeout:       60 * time.Second,
	}

	logger.Info("Router service initialized", "addr", rs.server.Addr, "request_timeout", timeout)
	return rs
}

func (routerService *RouterService) fallbackHandler(status int, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		routerService.logger.WithCorrelationID(c.Request.Context()).Warn(message, "method", c.Request.Method, "path", c.Request.URL.Path)
		c.JSON(status, ErrorResult(status, message, nil).ToJSON())
	}
}

func (routerService *RouterService) initRateLimiting() {
	requests := routerService.rateLimitRequests
	window := routerService.rateLimitWindow

	if routerService.redisClient != nil {
		if err := routerService.redisClient.Ping(context.Background()).Err(); err != nil {
			routerService.logger.Warn("Failed to connect to Redis for rate limiting, falling back to in-memory", "error", err)
			routerService.redisClient = nil
		}
	}

	routerService.rateLimiter = ratelimit.NewRateLimiter(&ratelimit.RateLimitConfig{
		Requests: requests,
		Window:   window,
		Redis:    routerService.redisClient,
		Logger:   routerService.logger,
	})

	backend := "in-memory"
	if routerService.redisClient != nil {
		backend = "redis"
	}
	routerService.logger.Info("Rate limiting initialized", "backend", backend, "requests", requests, "window", window)
}

func (routerService *RouterService) GetEngine() *gin.Engine {
	return routerService.engine
}

// GetRedisClient returns the Redis client used for rate limiting, or nil when running in-memory.
func (routerService *RouterService) GetRedisClient() *redis.Client {
	return routerService.redisClient
}

// MetricsRegisterer returns the registry served on /metrics so domains can add collectors.
// It is nil when metrics are disabled.
func (routerService *RouterService) MetricsRegisterer() prometheus.Registerer {
	if routerService.metricsRegistry == nil {
		return nil
	}
	return routerService.metricsRegistry
}

func (routerService *RouterService) Cleanup() {
	if routerService.rateLimiter != nil {
		if err := routerService.rateLimiter.Close(); err != nil {
			routerService.logger.Error("Failed to close rate limiter", "error", err)
		}
	}
	routerService.logger.Info("Router service cleanup completed")
}

func (routerService *RouterService) MountController(controller *RESTController) {
	controller.prepare(routerService, controller)

	routerService.logger.Info("Controller mounted",
		"name", controller.name,
		"path", controller.mountPoint,
		"version", controller.version,
		"handlers", controller.handlerCount,
	)
}

func (routerService *RouterService) RunHTTPServer() error {
	routerService.logger.Info("Starting HTTP server", "addr", routerService.server.Addr)

	if err := routerService.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		routerService.logger.Error("Failed to start HTTP server", "error", err)
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	return nil
}

func (routerService *RouterService) Shutdown(ctx context.Context) error {
	routerService.logger.Info("Shutting down HTTP server gracefully...")
	return routerService.server.Shutdown(ctx)
}
