package errors

import (
	"errors"
	"net/http"
)

const genericMessage = "An unexpected error occurred"

var statusByType = map[string]int{
	ErrorTypeInvalidRequest: http.StatusBadRequest,
	ErrorTypeNotFound:       http.StatusNotFound,
	ErrorTypeConflict:       http.StatusConflict,
}

// HTTPStatusCode maps err to a response status. Anything unclassified is a 500.
func HTTPStatusCode(err error) int {
	if status, ok := statusByType[GetErrorType(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// GetHumanReadableMessage returns the AppError message, never the raw cause,
// so driver and filesystem errors stay out of responses.
func GetHumanReadableMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) && appErr.Message != "" {
		return appErr.Message
	}
	return genericMessage
}
