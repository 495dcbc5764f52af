package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrNotFound is returned when an entry ID does not exist.
var ErrNotFound = errors.New("faq entry not found")

// FAQStore persists the knowledge base. List returns entries in a stable
// order; match tie-breaking depends on it.
type FAQStore interface {
	List(ctx context.Context) ([]FAQEntry, error)
	Get(ctx context.Context, id uuid.UUID) (*FAQEntry, error)

	// Put inserts e (assigning an ID when e.ID is uuid.Nil) or replaces the
	// entry with the same ID, keeping its position.
	Put(ctx context.Context, e *FAQEntry) error
	Delete(ctx context.Context, id uuid.UUID) error

	Close() error
}
