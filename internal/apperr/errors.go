// Package apperr defines the error taxonomy shared across Raido.
package apperr

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("not found")
	ErrConflict      = errors.New("conflict")
	ErrAlreadyExists = errors.New("already exists")
)

// ValidationError reports malformed filter criteria or request payloads.
// It is raised when a filter is compiled, never during evaluation.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation: %s", e.Msg)
	}
	return fmt.Sprintf("validation: %s: %s", e.Field, e.Msg)
}

// Validationf builds a ValidationError for the given criteria field.
func Validationf(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Msg: fmt.Sprintf(format, args...)}
}

// GeometryError reports a widget record that lacks the fields geometry
// needs. Batch operations catch it with errors.As and skip the widget.
type GeometryError struct {
	WidgetID string
	Msg      string
}

func (e *GeometryError) Error() string {
	if e.WidgetID == "" {
		return fmt.Sprintf("geometry: %s", e.Msg)
	}
	return fmt.Sprintf("geometry: widget %s: %s", e.WidgetID, e.Msg)
}

// CircularReferenceError reports a reparent request that would make a
// widget its own ancestor. Always fatal to that request.
type CircularReferenceError struct {
	WidgetID    string
	NewParentID string
}

func (e *CircularReferenceError) Error() string {
	return fmt.Sprintf("reparent: widget %s under %s would create a cycle", e.WidgetID, e.NewParentID)
}
