package waitlist

import (
	"net/http"
	"time"

	"github.com/akeren/lingo-site/config/router"
	"github.com/akeren/lingo-site/pkg/factory"
)

const (
	joinRequestsPerMinute = 30
	testSource            = "test"
)

type ControllerOptions struct {
	Production       bool
	EnableTestRoutes bool
}

func NewWaitlistController(service WaitlistService, limiters factory.RateLimiterFactory) *router.RESTController {
	return router.NewVersionedRESTController(
		"WaitlistController",
		"v1",
		"/waitlist",
		func(rs *router.RouterService, c *router.RESTController) {
			limiter := limiters.CreateRateLimiter("waitlist", joinRequestsPerMinute, time.Minute)

			rs.AddPostHandler(c, limiter, "", joinWaitlistHandler(service))
		},
	)
}

// NewWaitlistTestController mounts the signup endpoint used by end-to-end tests.
// The route always exists but answers "disabled" unless test routes are enabled.
func NewWaitlistTestController(service WaitlistService, limiters factory.RateLimiterFactory, enabled bool) *router.RESTController {
	return router.NewRESTController(
		"WaitlistTestController",
		"/api/test/waitlist",
		func(rs *router.RouterService, c *router.RESTController) {
			limiter := limiters.CreateRateLimiter("waitlist-test", joinRequestsPerMinute, time.Minute)

			rs.AddPostHandler(c, limiter, "", testJoinHandler(service, enabled))
		},
	)
}

func joinWaitlistHandler(service WaitlistService) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		logger := router.GetLogger(ctx)

		var req JoinRequest

		if err := ctx.ShouldBind(&req); err != nil {
			logger.Info("Failed to bind waitlist request", "error", err)
			return joinResult(failed(ErrorCodeInvalidEmail))
		}

		return joinResult(service.Join(ctx.Request.Context(), &req))
	}
}

func testJoinHandler(service WaitlistService, enabled bool) router.HandlerFunction {
	return func(ctx *router.RequestContext) *router.ServiceResult {
		if !enabled {
			return joinResult(failed(ErrorCodeDisabled))
		}

		logger := router.GetLogger(ctx)

		var req JoinRequest

		if err := ctx.ShouldBind(&req); err != nil {
			logger.Info("Failed to bind test waitlist request", "error", err)
			return joinResult(failed(ErrorCodeInvalid))
		}

		return joinResult(service.Join(ctx.Request.Context(), &req))
	}
}

func joinResult(result *JoinResult) *router.ServiceResult {
	if result.OK {
		return router.OKResult(result, "Joined the waitlist")
	}

	switch result.Error {
	case ErrorCodeServiceUnavailable:
		return router.ErrorResult(http.StatusServiceUnavailable, "Waitlist is temporarily unavailable", result)
	case ErrorCodeDisabled:
		return router.ErrorResult(http.StatusNotFound, "Test routes are disabled", result)
	case ErrorCodeInvalid:
		return router.BadRequestResult("Invalid request body", result)
	default:
		return router.BadRequestResult("Invalid email address", result)
	}
}
