// Package llmerrors provides structured error classification and retry
// configuration for provider API interactions.
package llmerrors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents different categories of provider errors for
// retry logic.
type ErrorType int8

const (
	// ErrorTypeRateLimit represents rate limiting errors (429, quota exceeded).
	ErrorTypeRateLimit ErrorType = iota
	// ErrorTypeTransient represents transient errors (5xx, EOF, connection reset, timeout).
	ErrorTypeTransient
	// ErrorTypeEmptyResponse represents HTTP 200 but no content errors.
	ErrorTypeEmptyResponse
	// ErrorTypeAuth represents authentication errors (401/403, bad API key).
	ErrorTypeAuth
	// ErrorTypeBadPrompt represents malformed request errors.
	ErrorTypeBadPrompt
	// ErrorTypeUnknown represents unclassified errors.
	ErrorTypeUnknown
)

// String returns the string representation of the error type.
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeRateLimit:
		return "rate_limit"
	case ErrorTypeTransient:
		return "transient"
	case ErrorTypeEmptyResponse:
		return "empty_response"
	case ErrorTypeAuth:
		return "auth"
	case ErrorTypeBadPrompt:
		return "bad_prompt"
	case ErrorTypeUnknown:
		return "unknown"
	default:
		return "invalid"
	}
}

// RetryConfig defines exponential backoff configuration for an error type.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// DefaultRetryConfigs provides default retry configurations per type.
//
//nolint:gochecknoglobals // Configuration map - acceptable for package defaults.
var DefaultRetryConfigs = map[ErrorType]RetryConfig{
	ErrorTypeRateLimit: {
		MaxRetries:    6,
		InitialDelay:  5 * time.Second,
		MaxDelay:      2 * time.Minute,
		BackoffFactor: 2.0,
	},
	ErrorTypeTransient: {
		MaxRetries:    4,
		InitialDelay:  time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
	},
	ErrorTypeEmptyResponse: {
		MaxRetries:    3,
		InitialDelay:  2 * time.Second,
		MaxDelay:      30 * time.Second,
		BackoffFactor: 2.0,
	},
	ErrorTypeAuth:      {MaxRetries: 0},
	ErrorTypeBadPrompt: {MaxRetries: 0},
	ErrorTypeUnknown: {
		MaxRetries:    1,
		InitialDelay:  time.Second,
		MaxDelay:      time.Second,
		BackoffFactor: 1.0,
	},
}

// Error is a classified provider error.
type Error struct {
	Cause   error
	Message string
	Type    ErrorType
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a classified error without a cause.
func NewError(t ErrorType, message string) *Error {
	return &Error{Type: t, Message: message}
}

// NewErrorWithCause creates a classified error wrapping a cause.
func NewErrorWithCause(t ErrorType, cause error, message string) *Error {
	return &Error{Type: t, Cause: cause, Message: message}
}

// TypeOf returns the classified type of err, or ErrorTypeUnknown when
// err is not a classified error.
func TypeOf(err error) ErrorType {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Type
	}
	return ErrorTypeUnknown
}

// Retryable reports whether the error type permits another attempt.
func Retryable(err error) bool {
	return DefaultRetryConfigs[TypeOf(err)].MaxRetries > 0
}
