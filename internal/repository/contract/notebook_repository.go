package contract

import (
	"context"
	"errors"

	"collabnote-be/internal/entity"
)

var (
	// ErrNotFound marks an unknown notebook id.
	ErrNotFound = errors.New("notebook not found")

	// ErrPersistence marks a durable read/write failure. The in-memory
	// document that triggered the write is left intact so a caller can
	// retry.
	ErrPersistence = errors.New("persistence failure")
)

// NotebookRepository owns the durable form of every notebook document.
// The persistence unit is the whole document; there is no field-level
// update at this layer.
type INotebookRepository interface {
	// List returns summaries of every readable notebook, newest edit first.
	// Unreadable or corrupt documents are skipped, not surfaced.
	List(ctx context.Context) ([]entity.NotebookSummary, error)

	// Get loads one full document. Returns ErrNotFound for unknown ids.
	Get(ctx context.Context, id string) (*entity.Notebook, error)

	// Put persists the full document, overwriting any prior version, and
	// stamps LastEdited to the current time before writing.
	Put(ctx context.Context, notebook *entity.Notebook) error
}
