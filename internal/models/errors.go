package models

import (
	"errors"
	"fmt"
)

// ErrInvalidEntity is wrapped by every ValidationError.
var ErrInvalidEntity = errors.New("invalid entity")

// ValidationError describes a rejected field value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error { return ErrInvalidEntity }

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}
