package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	apperrors "whisper-api/internal/app/errors"
)

// ErrorKind represents different types of API errors
type ErrorKind string

const (
	KindValidation   ErrorKind = "validation"
	KindBadRequest   ErrorKind = "bad_request"
	KindNotFound     ErrorKind = "not_found"
	KindUnauthorized ErrorKind = "unauthorized"
	KindTimeout      ErrorKind = "timeout"
	KindOverloaded   ErrorKind = "overloaded"
	KindInternal     ErrorKind = "internal"
)

// Client-facing messages fixed by the HTTP contract.
const (
	MessageTimedOut     = "Transcription timed out"
	MessageUnauthorized = "Invalid or missing bearer token"
)

// APIError represents a structured API error response
type APIError struct {
	Kind      ErrorKind         `json:"kind"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// HTTPStatus returns the appropriate HTTP status code for the error kind
func (e *APIError) HTTPStatus() int {
	switch e.Kind {
	case KindValidation:
		return http.StatusUnprocessableEntity
	case KindBadRequest:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindTimeout:
		return http.StatusGatewayTimeout
	case KindOverloaded:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewValidationError creates a validation error with field details
func NewValidationError(message string, fields map[string]string) *APIError {
	return &APIError{
		Kind:    KindValidation,
		Message: message,
		Details: fields,
	}
}

// NewNotFoundError creates a not found error
func NewNotFoundError(resource string) *APIError {
	return &APIError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("%s not found", resource),
	}
}

// NewUnauthorizedError creates an unauthorized error
func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		Kind:    KindUnauthorized,
		Message: message,
	}
}

// NewTimeoutError creates a gateway timeout error
func NewTimeoutError(message string) *APIError {
	return &APIError{
		Kind:    KindTimeout,
		Message: message,
	}
}

// NewOverloadedError creates a service unavailable error
func NewOverloadedError(message string) *APIError {
	return &APIError{
		Kind:    KindOverloaded,
		Message: message,
	}
}

// NewInternalError creates an internal server error
func NewInternalError(message string) *APIError {
	return &APIError{
		Kind:    KindInternal,
		Message: message,
	}
}

// NewBadRequestError creates a bad request error
func NewBadRequestError(message string) *APIError {
	return &APIError{
		Kind:    KindBadRequest,
		Message: message,
	}
}

// FromError maps a domain error onto the HTTP contract. Timeouts become 504, a full or
// stopped scheduler becomes 503 and everything else is a 500 carrying the error text.
func FromError(err error) *APIError {
	if err == nil {
		return nil
	}

	var apiErr *APIError
	if stderrors.As(err, &apiErr) {
		return apiErr
	}

	switch {
	case stderrors.Is(err, apperrors.ErrTimeout):
		return NewTimeoutError(MessageTimedOut)
	case stderrors.Is(err, apperrors.ErrQueueFull):
		return NewOverloadedError("Transcription queue is full, retry later")
	case stderrors.Is(err, apperrors.ErrSchedulerStopped):
		return NewOverloadedError("Transcription service is shutting down")
	default:
		return NewInternalError(err.Error())
	}
}
