package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation signals malformed search input.
	ErrValidation = errors.New("validation failed")
	// ErrCorpusUnavailable signals that the document corpus could not be fetched.
	ErrCorpusUnavailable = errors.New("corpus unavailable")
	// ErrSearchTimeout signals that the search pipeline exceeded its deadline.
	ErrSearchTimeout = errors.New("search timed out")
	// ErrIndexUnavailable signals that the index-assisted matcher cannot serve the request.
	ErrIndexUnavailable = errors.New("similarity index unavailable")
)

// ValidationError wraps ErrValidation with the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError creates a field-level validation error.
func NewValidationError(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
