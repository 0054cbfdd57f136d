package dto

import (
	"collabnote-be/internal/entity"
)

// Outbound event names.
const (
	EventNotebooks    = "notebooks"
	EventNotebookData = "notebook-data"
	EventCellUpdate   = "cell-update"
	EventActiveUsers  = "active-users"
	EventError        = "error"
)

// NotebookDataEvent carries the full document to everyone in a room after a
// join, rename, or structural mutation.
type NotebookDataEvent struct {
	Notebook entity.NotebookSummary `json:"notebook"`
	Cells    []entity.Cell          `json:"cells"`
}

type ErrorEvent struct {
	Message string `json:"message"`
}
