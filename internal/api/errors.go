package api

import (
	"errors"
	"fmt"
)

// APIError represents an error response from the backend.
type APIError struct {
	StatusCode int
	Message    string
	Retryable  bool
	Fatal      bool // If true, the session is over and no further calls will succeed
}

func (e *APIError) Error() string {
	return e.Message
}

// NewAPIError creates a new API error. Only rate limiting is retryable at
// this layer; server faults (>=500) are propagated for the caller to decide.
func NewAPIError(statusCode int, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		Message:    message,
		Retryable:  statusCode == 429,
	}
}

// NetworkError represents a request that never produced a response. It is
// transient from the caller's point of view: nothing about the session
// changed, and the caller may retry manually.
type NetworkError struct {
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %v", e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// IsNetworkError reports whether err is a transport-level failure.
func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

// StatusOf returns the HTTP status behind err, or 0 when err carries none.
func StatusOf(err error) int {
	var ae *APIError
	if errors.As(err, &ae) {
		return ae.StatusCode
	}
	return 0
}
