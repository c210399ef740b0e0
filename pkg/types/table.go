package types

import (
	"errors"
	"fmt"
)

// Table provides uniform CRUD operations for a single record kind.
// Get, Create, Update and List return any; callers type-assert to the
// concrete record struct. Every record kind in the portal is reachable
// through this interface so the CLI and HTTP layers can stay generic.
type Table interface {
	// Name returns the record kind name (one of the *Table constants).
	Name() string

	// Get retrieves the record with the given ID.
	// Returns ErrNotFound if no record exists with that ID.
	Get(id string) (any, error)

	// Create decodes a JSON creation input, assigns identity and
	// timestamps, and persists the new record.
	Create(data []byte) (any, error)

	// Update merges the partial field set over the stored record.
	// Returns ErrNotFound if no record exists with that ID.
	Update(id string, fields map[string]any) (any, error)

	// Delete removes the record with the given ID and reports whether a
	// record was removed.
	Delete(id string) (bool, error)

	// List returns every record in file order.
	List() ([]any, error)

	// Statistics returns the kind's aggregate counters.
	Statistics() (any, error)
}

// Table operation errors.
var (
	ErrNotFound      = errors.New("record not found")
	ErrInvalidID     = errors.New("invalid record ID")
	ErrInvalidData   = errors.New("invalid record data")
	ErrTableNotFound = errors.New("table not found")
)

// Record method errors.
var (
	ErrInvalidStatus      = errors.New("invalid status value")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError describes a record or input that does not satisfy its
// kind's schema. It unwraps to ErrInvalidData.
type ValidationError struct {
	Kind   string
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("invalid %s: %s", e.Kind, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s: %s", e.Kind, e.Field, e.Reason)
}

// Unwrap lets errors.Is match ErrInvalidData.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidData
}

// Invalid builds a ValidationError.
func Invalid(kind, field, reason string) error {
	return &ValidationError{Kind: kind, Field: field, Reason: reason}
}
