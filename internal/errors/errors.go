// Package errors provides standardized domain errors with codes for vigil.
//
// Usage:
//
//	// In the watcher - return typed errors
//	if closed {
//	    return errors.Closed("watcher is closed")
//	}
//
//	// In callers - check with errors.Is
//	if errors.Is(err, errors.ErrClosed) {
//	    return
//	}
//
//	// Or use the Code directly for switch statements
//	var domainErr *errors.Error
//	if errors.As(err, &domainErr) {
//	    switch domainErr.Code {
//	    case errors.CodeWatchFailed:
//	        log.Warn("could not watch", "path", path)
//	    case errors.CodeObservation:
//	        // transient, keep going
//	    }
//	}
package errors

import (
	"errors"
	"fmt"
)

// Re-export standard library functions for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
	Join   = errors.Join
)

// Code represents a machine-readable error code.
type Code string

// Error codes used throughout the application.
const (
	CodeNotFound    Code = "NOT_FOUND"
	CodeWatchFailed Code = "WATCH_FAILED"
	CodeClosed      Code = "CLOSED"
	CodeObservation Code = "OBSERVATION"
	CodeValidation  Code = "VALIDATION"
	CodeInternal    Code = "INTERNAL"
)

// Error is a domain error with a code, message, and optional details.
type Error struct {
	Code    Code
	Message string
	Details any
	cause   error // unexported, for wrapping
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.cause
}

// Is reports whether target matches this error.
// Matches if target is an *Error with the same Code.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Code == t.Code
	}
	return false
}

// WithDetails returns a new error with additional details.
func (e *Error) WithDetails(details any) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		cause:   e.cause,
	}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		cause:   err,
	}
}

// Sentinel errors for use with errors.Is().
var (
	ErrNotFound    = &Error{Code: CodeNotFound, Message: "not found"}
	ErrWatchFailed = &Error{Code: CodeWatchFailed, Message: "watch registration failed"}
	ErrClosed      = &Error{Code: CodeClosed, Message: "closed"}
	ErrObservation = &Error{Code: CodeObservation, Message: "observation error"}
	ErrValidation  = &Error{Code: CodeValidation, Message: "validation error"}
	ErrInternal    = &Error{Code: CodeInternal, Message: "internal error"}
)

// Constructor functions for creating errors with custom messages.

// NotFound creates a not found error.
func NotFound(msg string) *Error {
	return &Error{Code: CodeNotFound, Message: msg}
}

// NotFoundf creates a not found error with formatted message.
func NotFoundf(format string, args ...any) *Error {
	return &Error{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

// WatchFailed creates a watch registration error.
func WatchFailed(msg string) *Error {
	return &Error{Code: CodeWatchFailed, Message: msg}
}

// WatchFailedf creates a watch registration error with formatted message.
func WatchFailedf(format string, args ...any) *Error {
	return &Error{Code: CodeWatchFailed, Message: fmt.Sprintf(format, args...)}
}

// Closed creates a closed error.
func Closed(msg string) *Error {
	return &Error{Code: CodeClosed, Message: msg}
}

// Observation creates an observation error.
func Observation(msg string) *Error {
	return &Error{Code: CodeObservation, Message: msg}
}

// Observationf creates an observation error with formatted message.
func Observationf(format string, args ...any) *Error {
	return &Error{Code: CodeObservation, Message: fmt.Sprintf(format, args...)}
}

// Validation creates a validation error.
func Validation(msg string) *Error {
	return &Error{Code: CodeValidation, Message: msg}
}

// Validationf creates a validation error with formatted message.
func Validationf(format string, args ...any) *Error {
	return &Error{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

// ValidationWithDetails creates a validation error with details.
func ValidationWithDetails(msg string, details any) *Error {
	return &Error{Code: CodeValidation, Message: msg, Details: details}
}

// Internal creates an internal error.
func Internal(msg string) *Error {
	return &Error{Code: CodeInternal, Message: msg}
}

// Internalf creates an internal error with formatted message.
func Internalf(format string, args ...any) *Error {
	return &Error{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// Wrap wraps an error with a code and message.
func Wrap(err error, code Code, msg string) *Error {
	return &Error{Code: code, Message: msg, cause: err}
}

// Wrapf wraps an error with a code and formatted message.
func Wrapf(err error, code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), cause: err}
}
