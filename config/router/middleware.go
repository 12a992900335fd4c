package router

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/akeren/lingo-site/internal/log"
	"github.com/akeren/lingo-site/pkg/ratelimit"
	"github.com/gin-gonic/gin"
)

const (
	corsAllowedHeaders = "Content-Type, Content-Length, Accept, Accept-Encoding, Origin, Cache-Control, X-Requested-With, X-Correlation-ID"
	corsAllowedMethods = "GET, POST, OPTIONS"
)

func (routerService *RouterService) correlationIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Correlation-ID")
		if id == "" {
			id = log.GenerateCorrelationID()
		}
		c.Request = c.Request.WithContext(log.ContextWithCorrelationID(c.Request.Context(), id))
		c.Header("X-Correlation-ID", id)
		c.Next()
	}
}

func (routerService *RouterService) loggerInjectionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		correlatedLogger := routerService.logger.WithCorrelationID(c.Request.Context())
		c.Request = c.Request.WithContext(log.ContextWithLogger(c.Request.Context(), correlatedLogger))
		c.Next()
	}
}

func (routerService *RouterService) requestLoggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		routerService.logger.WithCorrelationID(c.Request.Context()).Info("HTTP request",
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"bytes", c.Writer.Size(),
			"latency_ms", time.Since(start).Milliseconds(),
			"remote_addr", c.ClientIP(),
		)
	}
}

// securityHeadersMiddleware sets the browser hardening headers. The CSP only
// matters for the HTML pages but is harmless on JSON responses.
func (routerService *RouterService) securityHeadersMiddleware() gin.HandlerFunc {
	settings := routerService.settings
	hsts := fmt.Sprintf("max-age=%d", settings.hstsMaxAge)
	if settings.hstsIncludeSubdomains {
		hsts += "; includeSubDomains"
	}

	return func(c *gin.Context) {
		h := c.Writer.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		h.Set("Content-Security-Policy", settings.contentSecurityPolicy)

		if settings.hstsEnabled && isHTTPS(c) {
			h.Set("Strict-Transport-Security", hsts)
		}
		c.Next()
	}
}

// isHTTPS also trusts X-Forwarded-Proto since TLS usually ends at the edge proxy.
func isHTTPS(c *gin.Context) bool {
	if c.Request.TLS != nil {
		return true
	}
	return strings.EqualFold(strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")), "https")
}

func (routerService *RouterService) maxBodySizeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		maxBytes := routerService.bodyLimitFor(c)
		if maxBytes == NoBodyLimit {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, ErrorResult(
				http.StatusRequestEntityTooLarge,
				"Request payload too large",
				nil,
			).ToJSON())
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}

// bodyLimitFor returns the controller's own body limit for the matched route,
// falling back to MAX_REQUEST_BODY_BYTES.
func (routerService *RouterService) bodyLimitFor(c *gin.Context) int64 {
	if b, found := routerService.routes[route{method: c.Request.Method, path: c.FullPath()}]; found {
		if maxBytes, ok := routerService.controllerBodyLimits[b.controller.mountPoint]; ok {
			return maxBytes
		}
	}
	return routerService.settings.maxBodyBytes
}

// corsMiddleware only answers cross-origin requests from CORS_ALLOWED_ORIGIN.
// Same-origin traffic from the site itself never needs it.
func (routerService *RouterService) corsMiddleware() gin.HandlerFunc {
	settings := routerService.settings
	if len(settings.allowedOrigins) == 0 {
		routerService.logger.Info("CORS_ALLOWED_ORIGIN not set, cross-origin requests will be denied")
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}

		if !settings.originAllowed(origin) {
			routerService.logger.Debug("CORS origin not allowed", "origin", origin)
			c.Next()
			return
		}

		h := c.Writer.Header()
		h.Set("Access-Control-Allow-Origin", origin)
		h.Set("Access-Control-Allow-Headers", corsAllowedHeaders)
		h.Set("Access-Control-Allow-Methods", corsAllowedMethods)
		h.Add("Vary", "Origin")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

func (routerService *RouterService) timeoutMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), routerService.requestTimeout)
		defer cancel()

		c.Request = c.Request.WithContext(ctx)

		// Gin's Context is not safe for concurrent use, so the chain runs inline.
		c.Next()

		// Mid-flight enforcement belongs to the http.Server timeouts; here we
		// only answer when the chain ran out of time without writing anything.
		if ctx.Err() == context.DeadlineExceeded && !c.Writer.Written() {
			routerService.logger.WithCorrelationID(c.Request.Context()).Warn("Request timeout detected")
			c.AbortWithStatusJSON(http.StatusRequestTimeout, ErrorResult(
				http.StatusRequestTimeout,
				"Request timeout",
				nil,
			).ToJSON())
		}
	}
}

// resolveLimiter picks the limiter for the matched route: a handler override
// wins over a controller override, which wins over the global limiter.
// Requests that match no registered route use the global limiter.
func (routerService *RouterService) resolveLimiter(c *gin.Context) ratelimit.RateLimiter {
	b, found := routerService.routes[route{method: c.Request.Method, path: c.FullPath()}]
	if !found {
		return routerService.rateLimiter
	}

	if b.limiter != nil {
		return b.limiter
	}
	if limiter, ok := routerService.controllerLimiters[b.controller.mountPoint]; ok {
		return limiter
	}
	return routerService.rateLimiter
}

// rateLimitMiddleware also runs ahead of the NoRoute and NoMethod fallbacks so
// scanners probing unknown paths are throttled like everyone else.
func (routerService *RouterService) rateLimitMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		limiter := routerService.resolveLimiter(c)

		if _, unlimited := limiter.(ratelimit.Unlimited); unlimited {
			c.Next()
			return
		}

		clientIP := c.ClientIP()
		limit, window := limiter.GetLimitDetails()
		c.Header("X-RateLimit-Limit", strconv.Itoa(limit))
		c.Header("X-RateLimit-Window", window.String())

		limited, err := limiter.IsLimited(c.Request.Context(), clientIP)
		if err != nil {
			// Fail open: a limiter backend outage must not take the site down.
			routerService.logger.Error("Rate limiter error", "error", err, "client_ip", clientIP)
			c.Next()
			return
		}

		if limited {
			routerService.logger.Warn("Rate limit exceeded", "client_ip", clientIP, "route", c.FullPath())
			retryAfter := strconv.Itoa(max(1, int(math.Ceil(window.Seconds()))))
			c.Header("Retry-After", retryAfter)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, TooManyRequestsResult(RateLimitResponse{
				Limit:      limit,
				Window:     window.String(),
				RetryAfter: retryAfter,
			}).ToJSON())
			return
		}

		c.Next()
	}
}
