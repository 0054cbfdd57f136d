package entity

import (
	"time"
)

type Notebook struct {
	Id         string    `json:"id"`
	Title      string    `json:"title"`
	Cells      []Cell    `json:"cells"`
	CreatedBy  string    `json:"createdBy"`
	CreatedAt  time.Time `json:"createdAt"`
	LastEdited time.Time `json:"lastEdited"`
}

// NotebookSummary is the cells-free view used by the notebooks list and by
// the notebook-data event envelope.
type NotebookSummary struct {
	Id         string    `json:"id"`
	Title      string    `json:"title"`
	LastEdited time.Time `json:"lastEdited"`
	CreatedBy  string    `json:"createdBy"`
	CreatedAt  time.Time `json:"createdAt"`
}

func (n *Notebook) Summary() NotebookSummary {
	return NotebookSummary{
		Id:         n.Id,
		Title:      n.Title,
		LastEdited: n.LastEdited,
		CreatedBy:  n.CreatedBy,
		CreatedAt:  n.CreatedAt,
	}
}

// FindCell returns the cell with the given id, or nil.
func (n *Notebook) FindCell(cellId string) *Cell {
	for i := range n.Cells {
		if n.Cells[i].Id == cellId {
			return &n.Cells[i]
		}
	}
	return nil
}

// CellIds returns the ids of all cells in sequence order.
func (n *Notebook) CellIds() []string {
	ids := make([]string, 0, len(n.Cells))
	for i := range n.Cells {
		ids = append(ids, n.Cells[i].Id)
	}
	return ids
}
