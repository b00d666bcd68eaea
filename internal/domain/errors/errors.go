// Package errors defines the dev server's error types.
// Using typed errors (instead of strings) lets the HTTP layer and the CLI
// decide on status codes and exit codes without parsing messages.
//
// Pattern: Sentinel Errors + Custom Error Types
package errors

import (
	"errors"
	"fmt"
	"net/http"
	"syscall"
)

// Common sentinel errors
var (
	// Startup errors (fatal)
	ErrPortInUse      = errors.New("port already in use")
	ErrPortPermission = errors.New("permission denied on port")
	ErrInvalidConfig  = errors.New("invalid configuration")

	// Request errors (per request, never fatal)
	ErrPathTraversal    = errors.New("path escapes the served directory")
	ErrFileNotFound     = errors.New("file not found")
	ErrMethodNotAllowed = errors.New("method not allowed")
)

// StartupError is returned when the listener cannot be bound.
// It is reported to the operator and the process exits non-zero.
type StartupError struct {
	Addr string // Address we tried to bind (e.g., ":8000")
	Err  error  // ErrPortInUse, ErrPortPermission or the raw net error
}

// Error implements the error interface.
func (e *StartupError) Error() string {
	return fmt.Sprintf("cannot listen on %s: %v", e.Addr, e.Err)
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *StartupError) Unwrap() error {
	return e.Err
}

// NewStartupError classifies a bind error. Address-in-use and permission
// errors are mapped onto the matching sentinel so callers can use errors.Is.
func NewStartupError(addr string, err error) *StartupError {
	switch {
	case errors.Is(err, syscall.EADDRINUSE):
		err = fmt.Errorf("%w: %w", ErrPortInUse, err)
	case errors.Is(err, syscall.EACCES), errors.Is(err, syscall.EPERM):
		err = fmt.Errorf("%w: %w", ErrPortPermission, err)
	}
	return &StartupError{Addr: addr, Err: err}
}

// RequestError is a per-request failure that becomes an HTTP error response.
type RequestError struct {
	Status  int    // HTTP status code
	Code    string // Machine-readable error code (e.g., "NOT_FOUND")
	Message string // Human-readable message
	Path    string // Requested URL path
	Err     error  // Underlying error
}

// Error implements the error interface.
func (e *RequestError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s (%s): %v", e.Code, e.Message, e.Path, e.Err)
	}
	return fmt.Sprintf("[%s] %s (%s)", e.Code, e.Message, e.Path)
}

// Unwrap implements error unwrapping for errors.Is and errors.As.
func (e *RequestError) Unwrap() error {
	return e.Err
}

// NotFound creates a 404 request error.
func NotFound(path string, err error) *RequestError {
	if err == nil {
		err = ErrFileNotFound
	} else if !errors.Is(err, ErrFileNotFound) {
		err = fmt.Errorf("%w: %w", ErrFileNotFound, err)
	}
	return &RequestError{
		Status:  http.StatusNotFound,
		Code:    "NOT_FOUND",
		Message: "File not found",
		Path:    path,
		Err:     err,
	}
}

// Forbidden creates a 403 request error for paths outside the served directory.
func Forbidden(path string) *RequestError {
	return &RequestError{
		Status:  http.StatusForbidden,
		Code:    "FORBIDDEN",
		Message: "Access to this path is not allowed",
		Path:    path,
		Err:     ErrPathTraversal,
	}
}

// MethodNotAllowed creates a 405 request error.
func MethodNotAllowed(path, method string) *RequestError {
	return &RequestError{
		Status:  http.StatusMethodNotAllowed,
		Code:    "METHOD_NOT_ALLOWED",
		Message: "Method " + method + " is not supported",
		Path:    path,
		Err:     ErrMethodNotAllowed,
	}
}

// Helper functions for common error checking

// IsPortInUse checks if an error means the listen port is taken.
func IsPortInUse(err error) bool {
	return errors.Is(err, ErrPortInUse)
}

// IsStartupError checks if an error happened while binding the listener.
func IsStartupError(err error) bool {
	var se *StartupError
	return errors.As(err, &se)
}

// IsNotFound checks if an error is a "file not found" error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrFileNotFound)
}

// IsPathTraversal checks if an error is a rejected traversal attempt.
func IsPathTraversal(err error) bool {
	return errors.Is(err, ErrPathTraversal)
}

// AsRequestError extracts a RequestError from the chain.
func AsRequestError(err error) (*RequestError, bool) {
	var re *RequestError
	if errors.As(err, &re) {
		return re, true
	}
	return nil, false
}
