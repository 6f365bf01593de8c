// Package errors provides domain-specific errors for the ctxprobe application.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common domain error conditions.
var (
	ErrModelNotFound       = errors.New("model not found")
	ErrInvalidRange        = errors.New("minimum tokens exceeds maximum tokens")
	ErrInvalidPrecision    = errors.New("precision must be positive")
	ErrInvalidAttempts     = errors.New("max attempts must be positive")
	ErrUnknownStrategy     = errors.New("unknown search strategy")
	ErrEncodingNotFound    = errors.New("encoding not found")
	ErrPresetNotFound      = errors.New("preset not found")
	ErrTargetBelowPreamble = errors.New("target tokens below preamble size")
)

// ErrorCode categorizes errors for handling and reporting.
type ErrorCode string

const (
	CodeValidation    ErrorCode = "VALIDATION"
	CodeNotFound      ErrorCode = "NOT_FOUND"
	CodeProvider      ErrorCode = "PROVIDER"
	CodeExecution     ErrorCode = "EXECUTION"
	CodeConfiguration ErrorCode = "CONFIG"
)

// ProbeError wraps errors with additional context for debugging and handling.
type ProbeError struct {
	Code    ErrorCode
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error returns a formatted error string including the code, message, and cause if present.
func (e *ProbeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause error for use with errors.Is and errors.As.
func (e *ProbeError) Unwrap() error {
	return e.Cause
}

// NewError creates a new ProbeError with the given code, message, and optional cause.
func NewError(code ErrorCode, message string, cause error) *ProbeError {
	return &ProbeError{
		Code:    code,
		Message: message,
		Cause:   cause,
		Context: make(map[string]interface{}),
	}
}

// WithContext adds a key-value pair to the error's context and returns the error.
// This allows for method chaining when adding multiple context values.
func WithContext(err *ProbeError, key string, value interface{}) *ProbeError {
	if err.Context == nil {
		err.Context = make(map[string]interface{})
	}
	err.Context[key] = value
	return err
}

// Is reports whether err matches target using errors.Is semantics.
// This is a convenience wrapper around the standard library's errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target and sets target to that error value.
// This is a convenience wrapper around the standard library's errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
