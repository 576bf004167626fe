package model

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingRequired is returned by Validate when a required field has no value.
	ErrMissingRequired = errors.New("arestor: required field is missing")

	// ErrTypeMismatch is returned when a field write disagrees with the declared kind.
	ErrTypeMismatch = errors.New("arestor: field value has the wrong type")

	// ErrReadOnly is returned by a post-provision write to a read-only field.
	ErrReadOnly = errors.New("arestor: field is read-only")

	// ErrUnknownField is returned when the schema has no field of the given name.
	ErrUnknownField = errors.New("arestor: unknown field")
)

// FieldError ties a field-level sentinel to the offending field name.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %q: %v", e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func fieldErr(name string, sentinel error) error {
	return &FieldError{Field: name, Err: sentinel}
}
