package errors

import (
	"errors"
	"fmt"
)

// Kinds of failure a service can report. Each maps to one HTTP status.
const (
	ErrorTypeInvalidRequest      = "INVALID_REQUEST"
	ErrorTypeNotFound            = "NOT_FOUND"
	ErrorTypeConflict            = "CONFLICT"
	ErrorTypeDatabaseError       = "DATABASE_ERROR"
	ErrorTypeInternalServerError = "INTERNAL_SERVER_ERROR"
	ErrorTypeUnknown             = "UNKNOWN_ERROR"
)

// AppError carries a safe, user-facing Message alongside the underlying cause.
type AppError struct {
	Type    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Type + ": " + e.Message
	}
	return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
}

func (e *AppError) Unwrap() error { return e.Err }

func NewAppError(errType, message string, err error) *AppError {
	return &AppError{Type: errType, Message: message, Err: err}
}

func NewInvalidRequestError(message string, err error) *AppError {
	return NewAppError(ErrorTypeInvalidRequest, message, err)
}

func NewNotFoundError(message string, err error) *AppError {
	return NewAppError(ErrorTypeNotFound, message, err)
}

func NewConflictError(message string, err error) *AppError {
	return NewAppError(ErrorTypeConflict, message, err)
}

func NewDatabaseError(message string, err error) *AppError {
	return NewAppError(ErrorTypeDatabaseError, message, err)
}

func NewInternalServerError(message string, err error) *AppError {
	return NewAppError(ErrorTypeInternalServerError, message, err)
}

// GetErrorType returns the kind of the first AppError in err's chain.
func GetErrorType(err error) string {
	if err == nil {
		return ""
	}

	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeUnknown
}
