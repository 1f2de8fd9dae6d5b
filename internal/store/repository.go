// Package store provides data access over the hosted Supabase backend.
// Every method returns a typed error so handlers can tell a missing record
// from a downstream failure.
package store

import (
	"errors"
	"fmt"
	"strings"

	"github.com/planbook-app/planbook/internal/supabase"
)

// Sentinel errors for error-kind classification.
var (
	// ErrInvalidInput marks caller mistakes caught before any request is made.
	ErrInvalidInput = errors.New("invalid input")

	// ErrDatabaseError marks failures surfaced by the hosted backend.
	ErrDatabaseError = errors.New("database error")
)

// NotFoundError reports a record that does not exist.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// NewNotFoundError creates a NotFoundError.
func NewNotFoundError(resource, id string) *NotFoundError {
	return &NotFoundError{Resource: resource, ID: id}
}

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

// Repository exposes entity accessors over one Supabase client.
type Repository struct {
	client *supabase.Client
}

// NewRepository creates a repository backed by the given client.
func NewRepository(client *supabase.Client) *Repository {
	return &Repository{client: client}
}

// ValidateID rejects empty ids and ids that would break a PostgREST filter.
func ValidateID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: id cannot be empty", ErrInvalidInput)
	}
	if strings.ContainsAny(id, ",()&=") {
		return fmt.Errorf("%w: id contains invalid characters", ErrInvalidInput)
	}
	return nil
}
