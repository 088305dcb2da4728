package shared

import (
	"sort"
	"strings"
)

// FieldErrors maps form field names to user-facing validation messages.
// All violations are collected before reporting; nothing short-circuits.
type FieldErrors map[string]string

// Add records a message for a field, keeping the first message per field.
func (e FieldErrors) Add(field, message string) {
	if _, exists := e[field]; !exists {
		e[field] = message
	}
}

// Any reports whether at least one field failed validation.
func (e FieldErrors) Any() bool {
	return len(e) > 0
}

// ValidationError carries field-level validation failures across layers.
type ValidationError struct {
	Fields FieldErrors
}

// Error renders a deterministic summary of the violated fields.
func (e *ValidationError) Error() string {
	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// Err returns a ValidationError when any field failed, nil otherwise.
func (e FieldErrors) Err() error {
	if !e.Any() {
		return nil
	}
	return &ValidationError{Fields: e}
}
