package domain

import (
	"errors"
	"fmt"
)

// DefaultErrorMessage is used when a failed response carries no readable message.
const DefaultErrorMessage = "Request failed"

var (
	ErrSessionExpired      = errors.New("session expired")
	ErrRequestFailed       = errors.New("request failed")
	ErrValidation          = errors.New("validation failed")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrNotAuthenticated    = errors.New("not authenticated")
	ErrForbidden           = errors.New("access forbidden")
	ErrLineRefMismatch     = errors.New("line reference does not match the active cart")
	ErrInvalidQuantity     = errors.New("quantity must be at least 1")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInvalidTransition   = errors.New("invalid status transition")
	ErrOrderNotCancellable = errors.New("only pending orders can be cancelled")
	ErrItemNotFound        = errors.New("order item not found")
)

// RequestError is a non-2xx answer from the backend.
type RequestError struct {
	Status  int
	Message string
	// Fields holds field-name to messages pairs when the backend reported them.
	Fields map[string][]string
}

func (e *RequestError) Error() string {
	if e.Message == "" {
		return DefaultErrorMessage
	}
	return e.Message
}

// Is makes every RequestError match ErrRequestFailed.
func (e *RequestError) Is(target error) bool { return target == ErrRequestFailed }

// ValidationError is a RequestError carrying field-level detail, returned by
// registration and profile endpoints.
type ValidationError struct {
	*RequestError
}

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

func (e *ValidationError) Unwrap() error { return e.RequestError }

// FieldMessage returns the first message reported for the first of fields that
// has one. Without fields, or when none match, it falls back to Message.
func (e *ValidationError) FieldMessage(fields ...string) string {
	for _, f := range fields {
		if msgs := e.Fields[f]; len(msgs) > 0 {
			return msgs[0]
		}
	}
	return e.Error()
}

// StatusOf extracts the HTTP status of a backend failure, or 0.
func StatusOf(err error) int {
	var re *RequestError
	if errors.As(err, &re) {
		return re.Status
	}
	return 0
}

// InvalidCredentials wraps a rejected login so it matches both
// ErrInvalidCredentials and the underlying request failure.
func InvalidCredentials(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidCredentials, err)
}
