package service

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned for missing objects and for objects the caller
	// may not see.
	ErrNotFound = errors.New("not found")
	// ErrForbidden is returned when the caller may not perform a creation or
	// role/status change.
	ErrForbidden = errors.New("permission denied")
)

// NonFieldErrors is the ValidationError key for errors not tied to one field.
const NonFieldErrors = "non_field_errors"

// Common validation messages.
const (
	msgRequired = "This field is required."
	msgBlank    = "This field may not be blank."
	msgTooLarge = "Ensure this value is less than or equal to %d."

	msgFoodNotSaved = "The food record could not be saved."
)

// ValidationError collects every invalid field of a request.
type ValidationError struct {
	Fields map[string][]string
}

// Add records msg against field.
func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string][]string)
	}
	e.Fields[field] = append(e.Fields[field], msg)
}

// Addf records a formatted message against field.
func (e *ValidationError) Addf(field, format string, args ...any) {
	e.Add(field, fmt.Sprintf(format, args...))
}

// Has reports whether field already has an error.
func (e *ValidationError) Has(field string) bool {
	return len(e.Fields[field]) > 0
}

// OrNil returns e when it holds at least one error and nil otherwise.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

// FieldNames returns the invalid fields in sorted order.
func (e *ValidationError) FieldNames() []string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (e *ValidationError) Error() string {
	keys := e.FieldNames()
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+strings.Join(e.Fields[k], " "))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func fieldError(field, msg string) *ValidationError {
	e := &ValidationError{}
	e.Add(field, msg)
	return e
}
