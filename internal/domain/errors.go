package domain

import (
	"errors"
	"fmt"
)

// Domain-specific errors for better error handling and user feedback
var (
	// ErrLinkNotFound is returned when a short code doesn't exist
	ErrLinkNotFound = errors.New("link not found")

	// ErrCodeTaken is returned when a caller-supplied code is already in use
	ErrCodeTaken = errors.New("code already exists")

	// ErrValidation is returned for bad or missing request input
	ErrValidation = errors.New("invalid request input")

	// ErrGenerationExhausted is returned when generated codes kept colliding
	// past the retry budget
	ErrGenerationExhausted = errors.New("failed to generate a unique code")

	// ErrUpdateRaceLost is returned when a concurrent deletion removed the
	// link between lookup and the click-counter update
	ErrUpdateRaceLost = errors.New("link was deleted during resolution")

	// ErrStoreUnavailable is returned for database connectivity issues
	ErrStoreUnavailable = errors.New("database connection error")
)

// AppError wraps errors with additional context for better debugging
type AppError struct {
	Err        error  // Original error
	Message    string // User-friendly message
	StatusCode int    // HTTP status code
	Internal   bool   // Whether to log as internal error
}

// Error implements the error interface
func (e *AppError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Err.Error()
}

// Unwrap returns the wrapped error for errors.Is and errors.As
func (e *AppError) Unwrap() error {
	return e.Err
}

// NewValidationError creates a 400 validation error
func NewValidationError(message string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Message:    message,
		StatusCode: 400,
		Internal:   false,
	}
}

// NewMissingParamError reports a required request parameter that was absent
func NewMissingParamError(param string) *AppError {
	return &AppError{
		Err:        ErrValidation,
		Message:    fmt.Sprintf("Parameter %q is missing", param),
		StatusCode: 400,
		Internal:   false,
	}
}

// NewInternalError creates a 500 internal server error
func NewInternalError(err error) *AppError {
	return &AppError{
		Err:        err,
		Message:    "Something went wrong!",
		StatusCode: 500,
		Internal:   true, // Log this error
	}
}
