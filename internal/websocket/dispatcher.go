package websocket

import (
	"context"
	"encoding/json"
	"errors"

	"collabnote-be/internal/dto"
	"collabnote-be/internal/pkg/logger"
	"collabnote-be/internal/pkg/serverutils"
	"collabnote-be/internal/repository/contract"
	"collabnote-be/internal/service"
)

// Dispatcher routes inbound frames to the services and turns their errors
// into error events for the originating connection only. A bad message
// never takes the connection down.
type Dispatcher struct {
	hub       *Hub
	registry  service.ISessionRegistry
	presence  service.IPresenceTracker
	notebooks service.INotebookService
	executor  service.IExecutionService
	logger    logger.ILogger
}

func NewDispatcher(
	hub *Hub,
	registry service.ISessionRegistry,
	presence service.IPresenceTracker,
	notebooks service.INotebookService,
	executor service.IExecutionService,
	log logger.ILogger,
) *Dispatcher {
	return &Dispatcher{
		hub:       hub,
		registry:  registry,
		presence:  presence,
		notebooks: notebooks,
		executor:  executor,
		logger:    log,
	}
}

func (d *Dispatcher) Dispatch(connId string, raw []byte) {
	var frame dto.Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		d.sendError(connId, "Malformed message")
		return
	}

	ctx := context.Background()

	var err error
	switch frame.Event {
	case dto.EventLogin:
		err = d.handleLogin(ctx, connId, frame.Data)
	case dto.EventLogout:
		d.registry.Logout(connId)
	case dto.EventCreateNotebook:
		err = d.handleCreateNotebook(ctx, connId, frame.Data)
	case dto.EventJoinNotebook:
		err = d.handleJoinNotebook(ctx, connId, frame.Data)
	case dto.EventLeaveNotebook:
		err = d.handleLeaveNotebook(connId, frame.Data)
	case dto.EventUpdateNotebook:
		err = d.handleUpdateNotebook(ctx, connId, frame.Data)
	case dto.EventUpdateCell:
		err = d.handleUpdateCell(ctx, connId, frame.Data)
	case dto.EventAddCell:
		err = d.handleAddCell(ctx, connId, frame.Data)
	case dto.EventDeleteCell:
		err = d.handleDeleteCell(ctx, connId, frame.Data)
	case dto.EventUpdateCellsOrder:
		err = d.handleUpdateCellsOrder(ctx, connId, frame.Data)
	case dto.EventExecuteCode:
		err = d.handleExecuteCode(ctx, connId, frame.Data)
	default:
		d.sendError(connId, "Unknown event: "+frame.Event)
		return
	}

	if err != nil {
		d.reportError(connId, frame.Event, err)
	}
}

// Disconnect cleans up everything the connection owned: its session, its
// room memberships, and the presence view of every room it was in.
func (d *Dispatcher) Disconnect(connId string) {
	rooms := d.presence.DropConnection(connId)
	d.registry.Logout(connId)

	for _, notebookId := range rooms {
		d.hub.ToRoom(notebookId, dto.EventActiveUsers, d.presence.ActiveUsers(notebookId))
	}
}

func (d *Dispatcher) handleLogin(ctx context.Context, connId string, data json.RawMessage) error {
	var req dto.LoginRequest
	if err := decode(data, &req); err != nil {
		return err
	}

	d.registry.Login(connId, &req)

	// The fresh session gets the current notebook list right away.
	summaries, err := d.notebooks.ListSummaries(ctx)
	if err != nil {
		return err
	}
	d.hub.ToConn(connId, dto.EventNotebooks, summaries)
	return nil
}

func (d *Dispatcher) handleCreateNotebook(ctx context.Context, connId string, data json.RawMessage) error {
	var req dto.CreateNotebookRequest
	if err := decode(data, &req); err != nil {
		return err
	}

	// The list refresh reaches every session through the bus consumer.
	_, err := d.notebooks.Create(ctx, req.UserId)
	return err
}

func (d *Dispatcher) handleJoinNotebook(ctx context.Context, connId string, data json.RawMessage) error {
	var req dto.JoinNotebookRequest
	if err := decode(data, &req); err != nil {
		return err
	}

	notebook, err := d.notebooks.GetNotebook(ctx, req.NotebookId)
	if err != nil {
		return err
	}

	d.presence.Join(connId, req.NotebookId)

	d.hub.ToConn(connId, dto.EventNotebookData, dto.NotebookDataEvent{
		Notebook: notebook.Summary(),
		Cells:    notebook.Cells,
	})
	d.hub.ToRoom(req.NotebookId, dto.EventActiveUsers, d.presence.ActiveUsers(req.NotebookId))
	return nil
}

func (d *Dispatcher) handleLeaveNotebook(connId string, data json.RawMessage) error {
	var req dto.LeaveNotebookRequest
	if err := decode(data, &req); err != nil {
		return err
	}

	d.presence.Leave(connId, req.NotebookId)
	d.hub.ToRoom(req.NotebookId, dto.EventActiveUsers, d.presence.ActiveUsers(req.NotebookId))
	return nil
}

func (d *Dispatcher) handleUpdateNotebook(ctx context.Context, connId string, data json.RawMessage) error {
	var req dto.UpdateNotebookRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	return d.notebooks.Rename(ctx, req.NotebookId, req.Title, req.UserId)
}

func (d *Dispatcher) handleUpdateCell(ctx context.Context, connId string, data json.RawMessage) error {
	var req dto.UpdateCellRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	return d.notebooks.UpdateCellContent(ctx, req.NotebookId, req.CellId, req.Content, req.UserId)
}

func (d *Dispatcher) handleAddCell(ctx context.Context, connId string, data json.RawMessage) error {
	var req dto.AddCellRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	return d.notebooks.InsertCell(ctx, req.NotebookId, req.Cell, req.Position)
}

func (d *Dispatcher) handleDeleteCell(ctx context.Context, connId string, data json.RawMessage) error {
	var req dto.DeleteCellRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	return d.notebooks.DeleteCell(ctx, req.NotebookId, req.CellId)
}

func (d *Dispatcher) handleUpdateCellsOrder(ctx context.Context, connId string, data json.RawMessage) error {
	var req dto.UpdateCellsOrderRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	return d.notebooks.ReorderCells(ctx, req.NotebookId, req.Cells, req.UserId)
}

func (d *Dispatcher) handleExecuteCode(ctx context.Context, connId string, data json.RawMessage) error {
	var req dto.ExecuteCodeRequest
	if err := decode(data, &req); err != nil {
		return err
	}
	return d.executor.Execute(ctx, req.NotebookId, req.CellId, req.Code, req.UserId)
}

func (d *Dispatcher) reportError(connId, event string, err error) {
	switch {
	case errors.Is(err, contract.ErrNotFound):
		d.sendError(connId, "Notebook not found")
	case errors.Is(err, service.ErrCellSetMismatch),
		errors.Is(err, service.ErrCellExists):
		d.sendError(connId, err.Error())
	default:
		var appErr *serverutils.AppError
		if errors.As(err, &appErr) {
			d.sendError(connId, appErr.Message)
			return
		}
		d.logger.Error("Dispatcher", "Event handling failed", map[string]interface{}{
			"conn_id": connId,
			"event":   event,
			"error":   err.Error(),
		})
		d.sendError(connId, "Internal server error")
	}
}

func (d *Dispatcher) sendError(connId, message string) {
	d.hub.ToConn(connId, dto.EventError, dto.ErrorEvent{Message: message})
}

func decode(data json.RawMessage, req interface{}) error {
	if err := json.Unmarshal(data, req); err != nil {
		return serverutils.NewValidationError("Malformed payload", err)
	}
	return serverutils.ValidateRequest(req)
}
