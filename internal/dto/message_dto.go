package dto

import (
	"encoding/json"

	"collabnote-be/internal/entity"
)

// Frame is the envelope for every message in both directions:
// {"event": "<name>", "data": {...}}.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Inbound event names.
const (
	EventLogin            = "login"
	EventLogout           = "logout"
	EventCreateNotebook   = "create-notebook"
	EventJoinNotebook     = "join-notebook"
	EventLeaveNotebook    = "leave-notebook"
	EventUpdateNotebook   = "update-notebook"
	EventUpdateCell       = "update-cell"
	EventAddCell          = "add-cell"
	EventDeleteCell       = "delete-cell"
	EventUpdateCellsOrder = "update-cells-order"
	EventExecuteCode      = "execute-code"
)

type LoginRequest struct {
	Id    string `json:"id" validate:"required"`
	Name  string `json:"name" validate:"required"`
	Color string `json:"color" validate:"omitempty,hexcolor"`
}

type CreateNotebookRequest struct {
	UserId string `json:"userId" validate:"required"`
}

type JoinNotebookRequest struct {
	NotebookId string `json:"notebookId" validate:"required"`
	UserId     string `json:"userId" validate:"required"`
}

type LeaveNotebookRequest struct {
	NotebookId string `json:"notebookId" validate:"required"`
	UserId     string `json:"userId" validate:"required"`
}

type UpdateNotebookRequest struct {
	NotebookId string `json:"notebookId" validate:"required"`
	Title      string `json:"title"`
	UserId     string `json:"userId" validate:"required"`
}

type UpdateCellRequest struct {
	NotebookId string `json:"notebookId" validate:"required"`
	CellId     string `json:"cellId" validate:"required"`
	Content    string `json:"content"`
	UserId     string `json:"userId" validate:"required"`
}

type AddCellRequest struct {
	NotebookId string      `json:"notebookId" validate:"required"`
	Cell       entity.Cell `json:"cell" validate:"required"`
	Position   int         `json:"position"`
}

type DeleteCellRequest struct {
	NotebookId string `json:"notebookId" validate:"required"`
	CellId     string `json:"cellId" validate:"required"`
}

type UpdateCellsOrderRequest struct {
	NotebookId string        `json:"notebookId" validate:"required"`
	Cells      []entity.Cell `json:"cells" validate:"required"`
	UserId     string        `json:"userId" validate:"required"`
}

type ExecuteCodeRequest struct {
	NotebookId string `json:"notebookId" validate:"required"`
	CellId     string `json:"cellId" validate:"required"`
	Code       string `json:"code"`
	UserId     string `json:"userId" validate:"required"`
}
