// Package postgresql provides PostgreSQL persistence for workflow graphs.
package postgresql

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/ideonhq/ideon/pkg/models"
	"github.com/ideonhq/ideon/pkg/persistence/sqlbase"

	_ "github.com/lib/pq"
)

// Persistence implements the persistence layer for PostgreSQL.
type Persistence struct {
	db        *sql.DB
	logger    *slog.Logger
	graphRepo *GraphRepository
}

// NewPersistence creates a new PostgreSQL persistence layer.
func NewPersistence(ctx context.Context, logger *slog.Logger, databaseURL string) (*Persistence, error) {
	database, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to PostgreSQL database: %w", err)
	}

	err = database.PingContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	migrationManager := sqlbase.NewMigrationManager(logger, database, migrations())
	graphRepo := NewGraphRepository(database, logger)

	postgres := &Persistence{
		db:        database,
		logger:    logger,
		graphRepo: graphRepo,
	}

	// Run migrations on initialization
	err = migrationManager.RunMigrations(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return postgres, nil
}

// Close closes the database connection.
func (p *Persistence) Close(ctx context.Context) error {
	if p.db != nil {
		err := p.db.Close()
		if err != nil {
			return fmt.Errorf("failed to close database connection: %w", err)
		}
	}

	return nil
}

// HealthCheck verifies the database connection is healthy.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.db.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	return nil
}

// Graphs returns all workflow graphs from the database.
func (p *Persistence) Graphs(ctx context.Context) ([]*models.WorkflowGraph, error) {
	return p.graphRepo.GetAll(ctx)
}

// GraphByID returns a workflow graph by its ID.
func (p *Persistence) GraphByID(ctx context.Context, id string) (*models.WorkflowGraph, error) {
	return p.graphRepo.GetByID(ctx, id)
}

// SaveGraph saves a workflow graph to the database.
func (p *Persistence) SaveGraph(ctx context.Context, graph *models.WorkflowGraph) error {
	return p.graphRepo.Save(ctx, graph)
}

// DeleteGraph soft deletes a workflow graph by setting deleted_at timestamp.
func (p *Persistence) DeleteGraph(ctx context.Context, id string) error {
	return p.graphRepo.Delete(ctx, id)
}
