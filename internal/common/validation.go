package common

import (
	"fmt"
	"sort"
	"strings"
)

// ValidationError reports malformed or conflicting input, keyed by field name.
// A field-less problem is stored under NonFieldErrors.
type ValidationError struct {
	Fields map[string][]string
}

const NonFieldErrors = "non_field_errors"

// NewValidationError returns a ValidationError with a single message for field.
func NewValidationError(field, msg string) *ValidationError {
	return (&ValidationError{}).Add(field, msg)
}

// Add appends msg to field and returns the receiver so calls can be chained.
func (e *ValidationError) Add(field, msg string) *ValidationError {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
	return e
}

// Empty reports whether no messages were collected.
func (e *ValidationError) Empty() bool {
	return e == nil || len(e.Fields) == 0
}

// OrNil returns nil when nothing was collected, so it can be returned as error directly.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, strings.Join(e.Fields[k], "; ")))
	}
	return "validation error: " + strings.Join(parts, ", ")
}

// ConflictError is a uniqueness clash on Field. It matches
// ErrorAlreadyExists under errors.Is.
type ConflictError struct {
	Field   string
	Message string
}

func (e *ConflictError) Error() string {
	return e.Field + ": " + e.Message
}

func (e *ConflictError) Unwrap() error {
	return ErrorAlreadyExists
}
