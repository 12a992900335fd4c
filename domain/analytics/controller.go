package analytics

import (
	"net/http"

	"github.com/akeren/lingo-site/config/router"
	"github.com/akeren/lingo-site/internal/log"
	apperrors "github.com/akeren/lingo-site/pkg/errors"
	"github.com/akeren/lingo-site/pkg/ratelimit"
)

// NewAnalyticsController mounts the first-party event and web-vitals sinks.
func NewAnalyticsController(logger *log.Logger) *router.RESTController {
	return router.NewRESTController(
		"AnalyticsController",
		"/api",
		func(rs *router.RouterService, c *router.RESTController) {
			service := NewAnalyticsService(logger, NewMetrics(rs.MetricsRegisterer()))

			rs.AddPostHandler(c, nil, "analytics", recordEventHandler(service))
			rs.AddPostHandler(c, nil, "web-vitals", recordWebVitalHandler(service))
		},
	)
}

// NewProxyController mounts the analytics vendor proxy under /ingest. Proxied
// traffic bypasses the global rate limiter and the request body cap, since
// session recordings routinely exceed MAX_REQUEST_BODY_BYTES.
func NewProxyController(logger *log.Logger, config ProxyConfig) *router.RESTController {
	return router.NewRESTController(
		"AnalyticsProxyController",
		"/ingest",
		func(rs *router.RouterService, c *router.RESTController) {
			handler := proxyHandler(logger, config)
			c.LimitBodyWith(rs, router.NoBodyLimit)

			rs.AddRawHandler(c, ratelimit.Unlimited{}, http.MethodGet, "*path", handler)
			rs.AddRawHandler(c, ratelimit.Unlimited{}, http.MethodPost, "*path", handler)
		},
	)
}

func recordEventHandler(service AnalyticsService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req EventRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.Info("Failed to bind analytics event", "error", err)
			return invalidResult(err, &req)
		}

		if err := service.RecordEvent(ctx.Request.Context(), &req); err != nil {
			return router.ErrorResult(apperrors.HTTPStatusCode(err), apperrors.GetHumanReadableMessage(err), Result{Error: ErrorCodeInvalid})
		}

		return router.OKResult(Result{OK: true}, "Event recorded")
	}
}

func recordWebVitalHandler(service AnalyticsService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req WebVitalRequest

		if err := ctx.ShouldBindJSON(&req); err != nil {
			logger.Info("Failed to bind web vital", "error", err)
			return invalidResult(err, &req)
		}

		if err := service.RecordWebVital(ctx.Request.Context(), &req); err != nil {
			return router.ErrorResult(apperrors.HTTPStatusCode(err), apperrors.GetHumanReadableMessage(err), Result{Error: ErrorCodeInvalid})
		}

		return router.OKResult(Result{OK: true}, "Web vital recorded")
	}
}

func invalidResult(err error, model any) *router.ServiceResult {
	message := "Invalid request body"
	if details := apperrors.FormatValidationErrors(err, model); len(details) > 0 {
		message = details[0].Field + ": " + details[0].Message
	}

	return router.BadRequestResult(message, Result{Error: ErrorCodeInvalid})
}

func proxyHandler(logger *log.Logger, config ProxyConfig) router.MiddlewareFunc {
	proxy, err := NewProxy(logger, config)
	if err != nil {
		logger.Error("Analytics proxy disabled", "error", err)
		return func(c *router.RequestContext) {
			c.JSON(http.StatusServiceUnavailable, router.ServiceUnavailableResult(proxyUnavailableMessage).ToJSON())
		}
	}

	return func(c *router.RequestContext) {
		proxy.Forward(c.Request.Context(), c, c.Param("path"))
	}
}
