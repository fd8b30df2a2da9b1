package model

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Machine-readable error codes carried in the error envelope.
const (
	ErrCodeValidation       = "VALIDATION_ERROR"
	ErrCodeBadRequest       = "INVALID_REQUEST"
	ErrCodeAuthentication   = "AUTHENTICATION_FAILED"
	ErrCodeTokenExpired     = "TOKEN_EXPIRED"
	ErrCodeAccessDenied     = "ACCESS_DENIED"
	ErrCodeNotFound         = "RESOURCE_NOT_FOUND"
	ErrCodeConflict         = "RESOURCE_CONFLICT"
	ErrCodeRateLimited      = "RATE_LIMIT_EXCEEDED"
	ErrCodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	ErrCodeInternal         = "INTERNAL_ERROR"
)

// ErrorResponse is the uniform error envelope returned by every endpoint.
// CorrelationID is filled in at write time from the request context.
type ErrorResponse struct {
	Message       string       `json:"message"`
	ErrorCode     string       `json:"error_code"`
	Details       []FieldError `json:"details,omitempty"`
	CorrelationID string       `json:"correlation_id,omitempty"`
	Timestamp     time.Time    `json:"timestamp"`

	// Status is the HTTP status to render; not serialized.
	Status int `json:"-"`
}

// FieldError represents a validation error on a specific field
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *ErrorResponse) Error() string {
	return fmt.Sprintf("[%d] %s: %s", e.Status, e.ErrorCode, e.Message)
}

// WriteJSON writes the envelope as a JSON response. The timestamp is stamped
// here so cached constructors stay comparable in tests.
func (e *ErrorResponse) WriteJSON(w http.ResponseWriter) {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now().UTC()
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.Status)
	_ = json.NewEncoder(w).Encode(e)
}

// Common error constructors

func NewUnauthorizedError(message string) *ErrorResponse {
	return &ErrorResponse{
		Message:   message,
		ErrorCode: ErrCodeAuthentication,
		Status:    http.StatusUnauthorized,
	}
}

func NewTokenExpiredError() *ErrorResponse {
	return &ErrorResponse{
		Message:   "token expired",
		ErrorCode: ErrCodeTokenExpired,
		Status:    http.StatusUnauthorized,
	}
}

func NewForbiddenError(message string) *ErrorResponse {
	return &ErrorResponse{
		Message:   message,
		ErrorCode: ErrCodeAccessDenied,
		Status:    http.StatusForbidden,
	}
}

func NewNotFoundError(resource string) *ErrorResponse {
	return &ErrorResponse{
		Message:   fmt.Sprintf("%s not found", resource),
		ErrorCode: ErrCodeNotFound,
		Status:    http.StatusNotFound,
	}
}

func NewValidationError(details []FieldError) *ErrorResponse {
	message := "one or more fields failed validation"
	if len(details) > 0 {
		message = fmt.Sprintf("%s: %s", details[0].Field, details[0].Message)
		if len(details) > 1 {
			message = fmt.Sprintf("%s (and %d more errors)", message, len(details)-1)
		}
	}
	return &ErrorResponse{
		Message:   message,
		ErrorCode: ErrCodeValidation,
		Details:   details,
		Status:    http.StatusUnprocessableEntity,
	}
}

func NewConflictError(message string) *ErrorResponse {
	return &ErrorResponse{
		Message:   message,
		ErrorCode: ErrCodeConflict,
		Status:    http.StatusConflict,
	}
}

func NewBadRequestError(message string) *ErrorResponse {
	return &ErrorResponse{
		Message:   message,
		ErrorCode: ErrCodeBadRequest,
		Status:    http.StatusBadRequest,
	}
}

func NewRateLimitError(retryAfter int) *ErrorResponse {
	return &ErrorResponse{
		Message:   fmt.Sprintf("rate limit exceeded, retry after %d seconds", retryAfter),
		ErrorCode: ErrCodeRateLimited,
		Status:    http.StatusTooManyRequests,
	}
}

func NewInternalError(message string) *ErrorResponse {
	if message == "" {
		message = "an unexpected error occurred"
	}
	return &ErrorResponse{
		Message:   message,
		ErrorCode: ErrCodeInternal,
		Status:    http.StatusInternalServerError,
	}
}
