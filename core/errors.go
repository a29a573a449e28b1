/*
errors.go - Centralized error types for the engine

PURPOSE:
  All engine error kinds in one place. Domain packages wrap these with
  additional context; the API layer maps them to HTTP status codes.

ERROR CATEGORIES:
  1. NotFound      - a referenced invoice/slip/student/staff/adjustment is absent
  2. InvalidState  - an operation is illegal for the document's current state
                     (marking a Paid document paid again, refreshing a Paid
                     slip, editing an Applied adjustment directly)
  3. Validation    - missing or malformed input (amount, description, period)

  "Nothing to bill" is NOT an error: generation operations return a zero
  count and succeed.

USAGE:
  Callers classify with errors.Is or the helpers:

    if core.IsNotFound(err) { ... 404 ... }
    if core.IsInvalidState(err) { ... 409 ... }
*/
package core

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrNotFound is returned when a referenced record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidState is returned when an operation is not legal for the
	// document's current state.
	ErrInvalidState = errors.New("invalid state")

	// ErrValidation is returned for missing or malformed input.
	ErrValidation = errors.New("validation failed")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NotFoundError identifies which record was missing.
type NotFoundError struct {
	Kind string // "invoice", "slip", "student", "staff", "adjustment", ...
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// InvalidStateError describes an operation rejected for the document's state.
type InvalidStateError struct {
	Kind  string // "invoice", "slip", "adjustment"
	ID    string
	State string // current state, e.g. "paid", "applied"
	Op    string // attempted operation, e.g. "mark-paid", "refresh"
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("cannot %s %s %s: state is %s", e.Op, e.Kind, e.ID, e.State)
}

func (e *InvalidStateError) Unwrap() error { return ErrInvalidState }

// ValidationError describes a rejected input field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// =============================================================================
// ERROR HELPERS
// =============================================================================

func IsNotFound(err error) bool     { return errors.Is(err, ErrNotFound) }
func IsInvalidState(err error) bool { return errors.Is(err, ErrInvalidState) }
func IsValidation(err error) bool   { return errors.Is(err, ErrValidation) }
