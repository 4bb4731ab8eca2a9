// Package apperr provides the error taxonomy surfaced by the transaction services.
// Every error carries a category so the HTTP layer can choose a status code and a
// human-readable message without inspecting store-specific errors.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Category classifies errors by who is at fault.
type Category string

const (
	// CategoryValidation marks malformed client input (bad id, unparseable parameter).
	CategoryValidation Category = "VALIDATION"
	// CategoryStore marks an unavailable store or a failed query.
	CategoryStore Category = "STORE"
	// CategoryInternal marks anything else.
	CategoryInternal Category = "INTERNAL"
)

// Error is the structured error type returned by the service layer.
type Error struct {
	Category Category
	Message  string
	Cause    error
}

// Error returns a formatted error string.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Category, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Category, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Validation creates a validation error with a formatted message.
func Validation(format string, args ...interface{}) *Error {
	return &Error{Category: CategoryValidation, Message: fmt.Sprintf(format, args...)}
}

// Store wraps a store failure. The message is safe to show to clients; the cause is not.
func Store(message string, cause error) *Error {
	return &Error{Category: CategoryStore, Message: message, Cause: cause}
}

// CategoryOf returns the category of err, or CategoryInternal for foreign errors.
func CategoryOf(err error) Category {
	var e *Error
	if errors.As(err, &e) {
		return e.Category
	}
	return CategoryInternal
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool {
	return CategoryOf(err) == CategoryValidation
}

// HTTPStatus maps an error to the status code the API answers with.
func HTTPStatus(err error) int {
	switch CategoryOf(err) {
	case CategoryValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// PublicMessage returns the message that may be sent to the client.
func PublicMessage(err error) string {
	var e *Error
	if errors.As(err, &e) && e.Message != "" {
		return e.Message
	}
	return "Internal server error"
}
