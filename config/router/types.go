package router

import (
	"github.com/akeren/lingo-site/pkg/ratelimit"
	"github.com/gin-gonic/gin"
)

type RequestContext = gin.Context

type MiddlewareFunc = gin.HandlerFunc

// ServiceResult is the {code, data, message} envelope every JSON route answers with.
type ServiceResult struct {
	StatusCode int    `json:"code"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
}

type RateLimitResponse struct {
	Limit      int    `json:"limit"`
	Window     string `json:"window"`
	RetryAfter string `json:"retry_after"`
}

type HandlerFunction func(*RequestContext) *ServiceResult

type RESTController struct {
	name         string
	mountPoint   string
	version      string
	handlerCount int
	prepare      func(*RouterService, *RESTController)
}

// route identifies a registered handler by method and gin path pattern.
type route struct {
	method string
	path   string
}

// binding records who owns a route and the limiter it was registered with, if any.
type binding struct {
	controller *RESTController
	limiter    ratelimit.RateLimiter
}

func (result *ServiceResult) ToJSON() gin.H {
	return gin.H{
		"code":    result.StatusCode,
		"data":    result.Data,
		"message": result.Message,
	}
}
