package notebook

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a notebook does not exist in the store.
var ErrNotFound = errors.New("notebook: not found")

// Store persists notebooks and their conversation history.
type Store interface {
	// Create persists a new notebook. The ID must not already exist.
	Create(ctx context.Context, nb *Notebook) error

	// Get loads one notebook with its turns and notes.
	Get(ctx context.Context, id string) (*Notebook, error)

	// List returns all notebooks without their turn and note bodies, newest
	// first.
	List(ctx context.Context) ([]*Notebook, error)

	// UpdateSummary replaces a notebook's title and summary.
	UpdateSummary(ctx context.Context, id, title, summary string) error

	// AppendTurn adds one completed exchange to a notebook's history.
	AppendTurn(ctx context.Context, notebookID string, turn Turn) error

	// AddNote pins a note to a notebook.
	AddNote(ctx context.Context, notebookID string, note Note) error

	// Delete removes a notebook with its turns and notes.
	Delete(ctx context.Context, id string) error

	// Close releases the store's resources.
	Close() error
}
