package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a lookup or update targets a missing record.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a unique attribute is already taken.
	ErrConflict = errors.New("record already exists")
	// ErrInvalidReference is returned when a record points at a missing owner.
	ErrInvalidReference = errors.New("referenced record does not exist")
)

// ValidationError reports a caller supplied attribute that fails shape checks.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Invalid builds a *ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a validation failure, including
// dangling references.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve) || errors.Is(err, ErrInvalidReference)
}
