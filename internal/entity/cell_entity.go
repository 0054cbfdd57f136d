package entity

import (
	"time"
)

type CellType string

const (
	CellTypeMarkdown CellType = "markdown"
	CellTypeCode     CellType = "code"
)

// Cell ids are client-generated for cells added through the editor and
// server-generated for starter cells. Sequence position inside
// Notebook.Cells is the only ordering signal.
type Cell struct {
	Id           string     `json:"id" validate:"required"`
	Type         CellType   `json:"type" validate:"required,oneof=markdown code"`
	Content      string     `json:"content"`
	CreatedBy    string     `json:"createdBy"`
	CreatedAt    time.Time  `json:"createdAt"`
	LastEdited   *time.Time `json:"lastEdited,omitempty"`
	LastEditedBy string     `json:"lastEditedBy,omitempty"`
	Output       *string    `json:"output,omitempty"`
	ExecutedAt   *time.Time `json:"executedAt,omitempty"`
	ExecutedBy   string     `json:"executedBy,omitempty"`
}
