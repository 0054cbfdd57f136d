package filestore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"collabnote-be/internal/entity"
	"collabnote-be/internal/pkg/logger"
	"collabnote-be/internal/repository/contract"

	"github.com/google/uuid"
)

// NotebookRepository keeps one JSON document per notebook under
// <dataDir>/notebooks/<id>.json.
type NotebookRepository struct {
	dir    string
	logger logger.ILogger
}

func NewNotebookRepository(dataDir string, log logger.ILogger) (*NotebookRepository, error) {
	dir := filepath.Join(dataDir, "notebooks")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create notebooks dir: %w", err)
	}
	return &NotebookRepository{dir: dir, logger: log}, nil
}

func (r *NotebookRepository) List(ctx context.Context) ([]entity.NotebookSummary, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return nil, fmt.Errorf("%w: reading notebooks dir: %v", contract.ErrPersistence, err)
	}

	summaries := make([]entity.NotebookSummary, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		notebook, err := r.readFile(filepath.Join(r.dir, e.Name()))
		if err != nil {
			r.logger.Warn("FileStore", "Skipping unreadable notebook", map[string]interface{}{
				"file":  e.Name(),
				"error": err.Error(),
			})
			continue
		}
		summaries = append(summaries, notebook.Summary())
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].LastEdited.After(summaries[j].LastEdited)
	})
	return summaries, nil
}

func (r *NotebookRepository) Get(ctx context.Context, id string) (*entity.Notebook, error) {
	path, err := r.pathFor(id)
	if err != nil {
		return nil, err
	}

	notebook, err := r.readFile(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", contract.ErrNotFound, id)
	}
	if err != nil {
		// A corrupt document is indistinguishable from a missing one for
		// callers; log the real cause and report not found.
		r.logger.Warn("FileStore", "Unreadable notebook treated as missing", map[string]interface{}{
			"notebook_id": id,
			"error":       err.Error(),
		})
		return nil, fmt.Errorf("%w: %s", contract.ErrNotFound, id)
	}
	return notebook, nil
}

func (r *NotebookRepository) Put(ctx context.Context, notebook *entity.Notebook) error {
	path, err := r.pathFor(notebook.Id)
	if err != nil {
		return fmt.Errorf("%w: invalid notebook id %q", contract.ErrPersistence, notebook.Id)
	}

	notebook.LastEdited = time.Now().UTC()

	data, err := json.MarshalIndent(notebook, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encoding notebook %s: %v", contract.ErrPersistence, notebook.Id, err)
	}

	// Write to a temp file then rename so a crashed write never leaves a
	// half-written document behind.
	tmp, err := os.CreateTemp(r.dir, notebook.Id+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: creating temp file for %s: %v", contract.ErrPersistence, notebook.Id, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: writing notebook %s: %v", contract.ErrPersistence, notebook.Id, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: closing temp file for %s: %v", contract.ErrPersistence, notebook.Id, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("%w: replacing notebook %s: %v", contract.ErrPersistence, notebook.Id, err)
	}
	return nil
}

// pathFor rejects ids that are not UUIDs; notebook ids double as file names
// and must never be able to escape the data directory.
func (r *NotebookRepository) pathFor(id string) (string, error) {
	if _, err := uuid.Parse(id); err != nil {
		return "", fmt.Errorf("%w: %s", contract.ErrNotFound, id)
	}
	return filepath.Join(r.dir, id+".json"), nil
}

func (r *NotebookRepository) readFile(path string) (*entity.Notebook, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var notebook entity.Notebook
	if err := json.Unmarshal(data, &notebook); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	if notebook.Id == "" || notebook.Id+".json" != filepath.Base(path) {
		return nil, fmt.Errorf("document id %q does not match file %s", notebook.Id, filepath.Base(path))
	}
	if notebook.Cells == nil {
		notebook.Cells = []entity.Cell{}
	}
	return &notebook, nil
}
