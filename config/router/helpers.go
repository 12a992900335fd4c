package router

import (
	"net/http"

	"github.com/akeren/lingo-site/internal/log"
)

// GetLogger returns the request-scoped logger injected by the router middleware.
func GetLogger(ctx *RequestContext) *log.Logger {
	return log.GetLoggerInstanceFromContext(ctx.Request.Context(), nil)
}

func ErrorResult(statusCode int, message string, data any) *ServiceResult {
	return &ServiceResult{StatusCode: statusCode, Data: data, Message: message}
}

func OKResult(data any, message string) *ServiceResult {
	return ErrorResult(http.StatusOK, message, data)
}

func BadRequestResult(message string, payload any) *ServiceResult {
	return ErrorResult(http.StatusBadRequest, message, payload)
}

func NotFoundResult(message string) *ServiceResult {
	return ErrorResult(http.StatusNotFound, message, nil)
}

func InternalServerErrorResult(message string) *ServiceResult {
	return ErrorResult(http.StatusInternalServerError, message, nil)
}

func ServiceUnavailableResult(message string) *ServiceResult {
	return ErrorResult(http.StatusServiceUnavailable, message, nil)
}

func TooManyRequestsResult(data RateLimitResponse) *ServiceResult {
	return ErrorResult(http.StatusTooManyRequests, "Too Many Requests", data)
}
