package service

import (
	"context"
	"errors"
	"fmt"

	"collabnote-be/internal/entity"
	"collabnote-be/internal/pkg/logger"
	"collabnote-be/internal/repository/contract"
	"collabnote-be/pkg/sandbox"
)

// IExecutionService runs user-submitted code for one cell and writes the
// result back onto the cell exactly like a content update. Execution errors
// become user-visible cell output, never connection-level faults.
type IExecutionService interface {
	Execute(ctx context.Context, notebookId, cellId, code, userId string) error
}

type executionService struct {
	notebooks INotebookService
	runner    *sandbox.Runner
	logger    logger.ILogger
}

func NewExecutionService(notebooks INotebookService, runner *sandbox.Runner, log logger.ILogger) IExecutionService {
	return &executionService{
		notebooks: notebooks,
		runner:    runner,
		logger:    log,
	}
}

func (s *executionService) Execute(ctx context.Context, notebookId, cellId, code, userId string) error {
	notebook, err := s.notebooks.GetNotebook(ctx, notebookId)
	if err != nil {
		return err
	}
	cell := notebook.FindCell(cellId)
	if cell == nil {
		return fmt.Errorf("%w: cell %s", contract.ErrNotFound, cellId)
	}
	if cell.Type != entity.CellTypeCode {
		return fmt.Errorf("%w: cell %s is not a code cell", contract.ErrNotFound, cellId)
	}

	result := s.runner.Run(code)
	output := result.Output
	if result.Err != nil {
		output = "Error: " + result.Err.Error()
		if errors.Is(result.Err, sandbox.ErrTimeout) {
			s.logger.Warn("ExecutionService", "Execution timed out", map[string]interface{}{
				"notebook_id": notebookId,
				"cell_id":     cellId,
			})
		}
	}

	// The cell may have been deleted or retyped while the code was running;
	// RecordExecution revalidates under the notebook lock.
	return s.notebooks.RecordExecution(ctx, notebookId, cellId, output, userId)
}
