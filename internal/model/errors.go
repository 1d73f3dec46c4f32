package model

import (
	"errors"
	"fmt"
)

// ErrInvalid is wrapped by every FieldError.
var ErrInvalid = errors.New("invalid record")

// FieldError reports a master-data field that failed validation.
type FieldError struct {
	Field   string
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e FieldError) Unwrap() error {
	return ErrInvalid
}

// Invalid returns a FieldError for field.
func Invalid(field, format string, args ...any) error {
	return FieldError{Field: field, Message: fmt.Sprintf(format, args...)}
}
