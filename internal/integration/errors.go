// Package integration holds the shared plumbing for downstream system
// clients: a normalized error taxonomy and per-call bearer token minting.
// Downstream calls are best-effort with short timeouts; callers log and
// continue rather than retry.
package integration

import (
	"errors"
	"fmt"
)

// ErrorCategory normalizes downstream failures.
type ErrorCategory string

const (
	ErrorTimeout        ErrorCategory = "timeout"
	ErrorBadData        ErrorCategory = "bad_data"
	ErrorAuthentication ErrorCategory = "authentication"
	ErrorOutage         ErrorCategory = "outage"
	ErrorInternal       ErrorCategory = "internal"
)

// Error wraps a downstream failure with its category and originating system.
type Error struct {
	Category   ErrorCategory
	System     string
	Message    string
	Underlying error
}

func (e *Error) Error() string {
	if e.Underlying != nil {
		return fmt.Sprintf("%s [%s]: %s: %v", e.System, e.Category, e.Message, e.Underlying)
	}
	return fmt.Sprintf("%s [%s]: %s", e.System, e.Category, e.Message)
}

func (e *Error) Unwrap() error { return e.Underlying }

// NewError creates a categorized integration error.
func NewError(category ErrorCategory, system, message string, underlying error) *Error {
	return &Error{Category: category, System: system, Message: message, Underlying: underlying}
}

// CategoryOf extracts the category, defaulting to internal.
func CategoryOf(err error) ErrorCategory {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return ErrorInternal
}
