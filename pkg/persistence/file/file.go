// Package file provides a file-based persistence implementation for workflow
// graphs. Each graph is stored as one JSON document under <root>/graphs/.
package file

import (
	"context"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ideonhq/ideon/pkg/models"
	"github.com/ideonhq/ideon/pkg/persistence"
)

// Persistence implements the persistence.Persistence interface using the
// file system.
type Persistence struct {
	root string
}

// NewPersistence creates a new instance rooted at the given directory. A
// file:// prefix is accepted and stripped.
func NewPersistence(root string) persistence.Persistence {
	cleanRoot := strings.Replace(root, "file://", "", 1)

	return &Persistence{root: cleanRoot}
}

// Graphs returns all stored graphs ordered by creation time, newest first.
func (fp *Persistence) Graphs(ctx context.Context) ([]*models.WorkflowGraph, error) {
	root := os.DirFS(fp.graphsDir())

	jsonFiles, err := fs.Glob(root, "*.json")
	if err != nil {
		return nil, fmt.Errorf("failed to list graph files: %w", err)
	}

	graphs := make([]*models.WorkflowGraph, 0, len(jsonFiles))

	for _, file := range jsonFiles {
		graphID := file[:len(file)-len(".json")]

		graph, err := fp.GraphByID(ctx, graphID)
		if err != nil {
			return nil, fmt.Errorf("failed to load graph %s: %w", graphID, err)
		}

		if graph != nil {
			graphs = append(graphs, graph)
		}
	}

	sort.Slice(graphs, func(i, j int) bool {
		return graphs[i].CreatedAt.After(graphs[j].CreatedAt)
	})

	return graphs, nil
}

// GraphByID retrieves a graph by its ID. A missing graph is (nil, nil), not
// an error.
func (fp *Persistence) GraphByID(_ context.Context, id string) (*models.WorkflowGraph, error) {
	filePath := filepath.Clean(path.Join(fp.graphsDir(), id+".json"))

	body, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}

		return nil, persistence.NewGraphError("GetByID", id, err)
	}

	var graph models.WorkflowGraph

	err = json.Unmarshal(body, &graph)
	if err != nil {
		return nil, &persistence.GraphError{
			Op:      "GetByID",
			GraphID: id,
			Message: err.Error(),
			Err:     persistence.ErrInvalidGraph,
		}
	}

	return &graph, nil
}

// SaveGraph writes the graph as an indented JSON document, creating the
// graphs directory on first use. Timestamps are maintained here: CreatedAt is
// set once, UpdatedAt on every save.
func (fp *Persistence) SaveGraph(_ context.Context, graph *models.WorkflowGraph) error {
	err := os.MkdirAll(fp.graphsDir(), 0750)
	if err != nil {
		return fmt.Errorf("failed to create graphs directory: %w", err)
	}

	if graph.ID == "" {
		graph.ID = uuid.New().String()
	}

	now := time.Now().UTC()
	if graph.CreatedAt.IsZero() {
		graph.CreatedAt = now
	}

	graph.UpdatedAt = now

	data, err := json.MarshalIndent(graph, "", "  ")
	if err != nil {
		return persistence.NewGraphError("Save", graph.ID, err)
	}

	filePath := path.Join(fp.graphsDir(), graph.ID+".json")

	return os.WriteFile(filePath, data, 0600)
}

// DeleteGraph removes a graph by its ID. Deleting a missing graph is not an
// error.
func (fp *Persistence) DeleteGraph(_ context.Context, id string) error {
	filePath := path.Join(fp.graphsDir(), id+".json")

	err := os.Remove(filePath)
	if err != nil && os.IsNotExist(err) {
		return nil
	}

	if err != nil {
		return persistence.NewGraphError("Delete", id, err)
	}

	return nil
}

// HealthCheck verifies the root directory exists.
func (fp *Persistence) HealthCheck(_ context.Context) error {
	if _, err := os.Stat(fp.root); os.IsNotExist(err) {
		return os.ErrNotExist
	}

	return nil
}

// Close performs any necessary cleanup. For file-based persistence, there is
// nothing to clean up.
func (fp *Persistence) Close(_ context.Context) error {
	return nil
}

func (fp *Persistence) graphsDir() string {
	return path.Join(fp.root, "graphs")
}
