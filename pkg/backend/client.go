// Package backend talks to the record store behind the forms. Resources are
// addressed by logical name so the same form definitions work against the
// hosted REST API or a direct Postgres connection.
package backend

import (
	"context"
	"fmt"
)

// Record is one row of a resource, keyed by column name.
type Record map[string]any

// Filter restricts an operation to rows where Column equals Value.
type Filter struct {
	Column string
	Value  string
}

// Client is the storage port the orchestrator and importer submit through.
type Client interface {
	Select(ctx context.Context, resource string, filters ...Filter) ([]Record, error)
	Insert(ctx context.Context, resource string, record Record) (Record, error)
	Update(ctx context.Context, resource string, filters []Filter, record Record) ([]Record, error)
	Delete(ctx context.Context, resource string, filters ...Filter) error
}

// APIError is a failed backend call with its transport status attached, so
// the fault layer can classify without knowing the client implementation.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("backend: request failed with status %d", e.Status)
	}
	return fmt.Sprintf("backend: %s (status %d)", e.Message, e.Status)
}

// StatusCode exposes the HTTP status for classification.
func (e *APIError) StatusCode() int {
	return e.Status
}
