package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"collabnote-be/internal/dto"
	"collabnote-be/internal/entity"
	"collabnote-be/internal/pkg/logger"
	"collabnote-be/internal/repository/contract"
	"collabnote-be/pkg/events"

	"github.com/google/uuid"
)

const DefaultNotebookTitle = "Untitled Notebook"

const (
	starterMarkdownContent = "# Welcome to your new notebook\n\nStart writing in markdown here..."
	starterCodeContent     = "// Write some JavaScript code here\nconsole.log(\"Hello world!\");"
)

var (
	// ErrCellExists rejects an add-cell whose id is already present in the
	// document.
	ErrCellExists = errors.New("cell id already exists in notebook")

	// ErrCellSetMismatch rejects a reorder whose cell set is not a
	// permutation of the document's current cells.
	ErrCellSetMismatch = errors.New("reordered cells are not a permutation of the notebook")
)

// INotebookService is the mutation engine. Every operation follows the same
// protocol: serialize on the notebook id, load the full document, apply the
// change in memory, persist the full document, then broadcast. A failed
// persist aborts the broadcast so a change is never announced before it is
// durable.
type INotebookService interface {
	ListSummaries(ctx context.Context) ([]entity.NotebookSummary, error)
	GetNotebook(ctx context.Context, id string) (*entity.Notebook, error)
	Create(ctx context.Context, creatorId string) (*entity.Notebook, error)
	Rename(ctx context.Context, id, title, userId string) error
	UpdateCellContent(ctx context.Context, id, cellId, content, userId string) error
	InsertCell(ctx context.Context, id string, cell entity.Cell, position int) error
	DeleteCell(ctx context.Context, id, cellId string) error
	ReorderCells(ctx context.Context, id string, cells []entity.Cell, userId string) error
	RecordExecution(ctx context.Context, id, cellId, output, userId string) error
}

type notebookService struct {
	repo             contract.INotebookRepository
	broadcaster      Broadcaster
	publisherService IPublisherService
	logger           logger.ILogger

	// Per-notebook-id serialization point: concurrent load-modify-store
	// cycles against one id execute atomically with respect to each other,
	// cross-notebook operations stay fully concurrent. Within one id the
	// policy is last-writer-wins at document granularity.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewNotebookService(
	repo contract.INotebookRepository,
	broadcaster Broadcaster,
	publisherService IPublisherService,
	log logger.ILogger,
) INotebookService {
	return &notebookService{
		repo:             repo,
		broadcaster:      broadcaster,
		publisherService: publisherService,
		logger:           log,
		locks:            make(map[string]*sync.Mutex),
	}
}

func (s *notebookService) ListSummaries(ctx context.Context) ([]entity.NotebookSummary, error) {
	return s.repo.List(ctx)
}

func (s *notebookService) GetNotebook(ctx context.Context, id string) (*entity.Notebook, error) {
	return s.repo.Get(ctx, id)
}

func (s *notebookService) Create(ctx context.Context, creatorId string) (*entity.Notebook, error) {
	now := time.Now().UTC()
	notebook := &entity.Notebook{
		Id:    uuid.NewString(),
		Title: DefaultNotebookTitle,
		Cells: []entity.Cell{
			{
				Id:        uuid.NewString(),
				Type:      entity.CellTypeMarkdown,
				Content:   starterMarkdownContent,
				CreatedBy: creatorId,
				CreatedAt: now,
			},
			{
				Id:        uuid.NewString(),
				Type:      entity.CellTypeCode,
				Content:   starterCodeContent,
				CreatedBy: creatorId,
				CreatedAt: now,
				Output:    nil,
			},
		},
		CreatedBy: creatorId,
		CreatedAt: now,
	}

	if err := s.repo.Put(ctx, notebook); err != nil {
		return nil, err
	}

	s.logger.Info("NotebookService", "Notebook created", map[string]interface{}{
		"notebook_id": notebook.Id,
		"created_by":  creatorId,
	})
	s.publishListUpdate(ctx, notebook.Id)
	return notebook, nil
}

func (s *notebookService) Rename(ctx context.Context, id, title, userId string) error {
	if strings.TrimSpace(title) == "" {
		title = DefaultNotebookTitle
	}

	notebook, err := s.mutate(ctx, id, func(n *entity.Notebook) error {
		n.Title = title
		return nil
	})
	if err != nil {
		return err
	}

	s.broadcastNotebookData(notebook)
	s.publishListUpdate(ctx, id)
	return nil
}

func (s *notebookService) UpdateCellContent(ctx context.Context, id, cellId, content, userId string) error {
	var updated entity.Cell
	_, err := s.mutate(ctx, id, func(n *entity.Notebook) error {
		cell := n.FindCell(cellId)
		if cell == nil {
			return fmt.Errorf("%w: cell %s", contract.ErrNotFound, cellId)
		}
		now := time.Now().UTC()
		cell.Content = content
		cell.LastEdited = &now
		cell.LastEditedBy = userId
		updated = *cell
		return nil
	})
	if err != nil {
		return err
	}

	// Content edits are the high-frequency path: only the changed cell goes
	// out, not the whole document.
	s.broadcaster.ToRoom(id, dto.EventCellUpdate, updated)
	return nil
}

func (s *notebookService) InsertCell(ctx context.Context, id string, cell entity.Cell, position int) error {
	if cell.Id == "" {
		cell.Id = uuid.NewString()
	}
	if cell.CreatedAt.IsZero() {
		cell.CreatedAt = time.Now().UTC()
	}

	notebook, err := s.mutate(ctx, id, func(n *entity.Notebook) error {
		if n.FindCell(cell.Id) != nil {
			return fmt.Errorf("%w: %s", ErrCellExists, cell.Id)
		}
		if position < 0 {
			position = 0
		}
		if position > len(n.Cells) {
			position = len(n.Cells)
		}
		n.Cells = append(n.Cells[:position], append([]entity.Cell{cell}, n.Cells[position:]...)...)
		return nil
	})
	if err != nil {
		return err
	}

	s.broadcastNotebookData(notebook)
	return nil
}

func (s *notebookService) DeleteCell(ctx context.Context, id, cellId string) error {
	notebook, err := s.mutate(ctx, id, func(n *entity.Notebook) error {
		for i := range n.Cells {
			if n.Cells[i].Id == cellId {
				n.Cells = append(n.Cells[:i], n.Cells[i+1:]...)
				return nil
			}
		}
		return fmt.Errorf("%w: cell %s", contract.ErrNotFound, cellId)
	})
	if err != nil {
		return err
	}

	s.broadcastNotebookData(notebook)
	return nil
}

func (s *notebookService) ReorderCells(ctx context.Context, id string, cells []entity.Cell, userId string) error {
	notebook, err := s.mutate(ctx, id, func(n *entity.Notebook) error {
		if !sameCellSet(n.Cells, cells) {
			return ErrCellSetMismatch
		}
		n.Cells = cells
		return nil
	})
	if err != nil {
		return err
	}

	s.broadcastNotebookData(notebook)
	return nil
}

func (s *notebookService) RecordExecution(ctx context.Context, id, cellId, output, userId string) error {
	var updated entity.Cell
	_, err := s.mutate(ctx, id, func(n *entity.Notebook) error {
		cell := n.FindCell(cellId)
		if cell == nil {
			return fmt.Errorf("%w: cell %s", contract.ErrNotFound, cellId)
		}
		if cell.Type != entity.CellTypeCode {
			return fmt.Errorf("%w: cell %s is not a code cell", contract.ErrNotFound, cellId)
		}
		now := time.Now().UTC()
		out := output
		cell.Output = &out
		cell.ExecutedAt = &now
		cell.ExecutedBy = userId
		updated = *cell
		return nil
	})
	if err != nil {
		return err
	}

	s.broadcaster.ToRoom(id, dto.EventCellUpdate, updated)
	return nil
}

// mutate runs one load-modify-store cycle under the notebook's lock.
func (s *notebookService) mutate(ctx context.Context, id string, apply func(*entity.Notebook) error) (*entity.Notebook, error) {
	lock := s.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	notebook, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := apply(notebook); err != nil {
		return nil, err
	}
	if err := s.repo.Put(ctx, notebook); err != nil {
		s.logger.Error("NotebookService", "Persist failed, mutation not announced", map[string]interface{}{
			"notebook_id": id,
			"error":       err.Error(),
		})
		return nil, err
	}
	return notebook, nil
}

func (s *notebookService) lockFor(id string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	lock, ok := s.locks[id]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[id] = lock
	}
	return lock
}

func (s *notebookService) broadcastNotebookData(notebook *entity.Notebook) {
	s.broadcaster.ToRoom(notebook.Id, dto.EventNotebookData, dto.NotebookDataEvent{
		Notebook: notebook.Summary(),
		Cells:    notebook.Cells,
	})
}

func (s *notebookService) publishListUpdate(ctx context.Context, notebookId string) {
	if err := s.publisherService.Publish(ctx, events.NotebookListUpdated(notebookId)); err != nil {
		s.logger.Error("NotebookService", "Failed to publish list update", map[string]interface{}{
			"notebook_id": notebookId,
			"error":       err.Error(),
		})
	}
}

// sameCellSet reports whether the proposed sequence is a permutation of the
// current one: same ids, same count, no duplicates.
func sameCellSet(current, proposed []entity.Cell) bool {
	if len(current) != len(proposed) {
		return false
	}
	ids := make(map[string]bool, len(current))
	for i := range current {
		ids[current[i].Id] = true
	}
	seen := make(map[string]bool, len(proposed))
	for i := range proposed {
		id := proposed[i].Id
		if !ids[id] || seen[id] {
			return false
		}
		seen[id] = true
	}
	return true
}
