package postgresql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/ideonhq/ideon/pkg/models"
)

// GraphRepository handles graph-related database operations.
type GraphRepository struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewGraphRepository creates a new graph repository.
func NewGraphRepository(db *sql.DB, logger *slog.Logger) *GraphRepository {
	return &GraphRepository{db: db, logger: logger}
}

// GetAll returns all live graphs from the database, newest first.
func (r *GraphRepository) GetAll(ctx context.Context) ([]*models.WorkflowGraph, error) {
	query := `
		SELECT
			id
		  , source_idea
		  , summary
		  , nodes
		  , edges
		  , warnings
		  , created_at
		  , updated_at
		FROM graphs
		WHERE deleted_at IS NULL
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query graphs: %w", err)
	}

	defer func(ctx context.Context, r *GraphRepository) {
		err := rows.Close()
		if err != nil {
			r.logger.ErrorContext(ctx, "failed to close rows", "error", err)
		}
	}(ctx, r)

	graphs := make([]*models.WorkflowGraph, 0)

	for rows.Next() {
		graph, err := r.scanGraph(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan graph: %w", err)
		}

		graphs = append(graphs, graph)
	}

	err = rows.Err()
	if err != nil {
		return nil, fmt.Errorf("error iterating graphs: %w", err)
	}

	return graphs, nil
}

// GetByID returns a graph by its ID, or nil when no live row matches.
func (r *GraphRepository) GetByID(ctx context.Context, id string) (*models.WorkflowGraph, error) {
	// The primary key column is UUID, so a non-UUID id cannot match any row.
	if uuid.Validate(id) != nil {
		return nil, nil
	}

	query := `
		SELECT
			id
		  , source_idea
		  , summary
		  , nodes
		  , edges
		  , warnings
		  , created_at
		  , updated_at
		FROM graphs
		WHERE id = $1 AND deleted_at IS NULL
	`

	row := r.db.QueryRowContext(ctx, query, id)

	graph, err := r.scanGraph(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}

		return nil, fmt.Errorf("failed to scan graph: %w", err)
	}

	return graph, nil
}

// Save upserts a graph. Saving an id that was soft deleted revives the row.
func (r *GraphRepository) Save(ctx context.Context, graph *models.WorkflowGraph) error {
	now := time.Now().UTC()

	if graph.CreatedAt.IsZero() {
		graph.CreatedAt = now
	}

	graph.UpdatedAt = now

	if graph.ID == "" {
		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate graph ID: %w", err)
		}

		graph.ID = id.String()
	}

	nodesJSON, err := json.Marshal(graph.Nodes)
	if err != nil {
		return fmt.Errorf("failed to marshal nodes: %w", err)
	}

	edgesJSON, err := json.Marshal(graph.Edges)
	if err != nil {
		return fmt.Errorf("failed to marshal edges: %w", err)
	}

	warningsJSON, err := json.Marshal(graph.Warnings)
	if err != nil {
		return fmt.Errorf("failed to marshal warnings: %w", err)
	}

	query := `
		INSERT INTO graphs (id, source_idea, summary, nodes, edges, warnings, created_at, updated_at, deleted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULL)
		ON CONFLICT (id) DO UPDATE SET
			source_idea = EXCLUDED.source_idea,
			summary = EXCLUDED.summary,
			nodes = EXCLUDED.nodes,
			edges = EXCLUDED.edges,
			warnings = EXCLUDED.warnings,
			updated_at = EXCLUDED.updated_at,
			deleted_at = NULL
	`

	_, err = r.db.ExecContext(ctx, query,
		graph.ID,
		graph.SourceIdea,
		graph.Summary,
		nodesJSON,
		edgesJSON,
		warningsJSON,
		graph.CreatedAt,
		graph.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save graph: %w", err)
	}

	return nil
}

// Delete soft deletes a graph by setting the deleted_at timestamp.
func (r *GraphRepository) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		// Non-UUID ids cannot exist, so there is nothing to delete.
		return nil
	}

	query := `UPDATE graphs SET deleted_at = NOW() WHERE id = $1 AND deleted_at IS NULL`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to delete graph: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Graph doesn't exist or was already deleted - this is not an error
		return nil
	}

	return nil
}

func (r *GraphRepository) scanGraph(scanner interface {
	Scan(dest ...any) error
}) (*models.WorkflowGraph, error) {
	var (
		graph                              models.WorkflowGraph
		nodesJSON, edgesJSON, warningsJSON []byte
	)

	err := scanner.Scan(
		&graph.ID,
		&graph.SourceIdea,
		&graph.Summary,
		&nodesJSON,
		&edgesJSON,
		&warningsJSON,
		&graph.CreatedAt,
		&graph.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if nodesJSON != nil {
		err := json.Unmarshal(nodesJSON, &graph.Nodes)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal nodes: %w", err)
		}
	}

	if edgesJSON != nil {
		err := json.Unmarshal(edgesJSON, &graph.Edges)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal edges: %w", err)
		}
	}

	if warningsJSON != nil {
		err := json.Unmarshal(warningsJSON, &graph.Warnings)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal warnings: %w", err)
		}
	}

	return &graph, nil
}
