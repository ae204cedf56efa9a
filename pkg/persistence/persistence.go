// Package persistence provides the data storage abstraction for workflow
// graphs.
package persistence

import (
	"context"

	"github.com/ideonhq/ideon/pkg/models"
)

type Persistence interface {
	Graphs(ctx context.Context) ([]*models.WorkflowGraph, error)
	SaveGraph(ctx context.Context, graph *models.WorkflowGraph) error
	GraphByID(ctx context.Context, id string) (*models.WorkflowGraph, error)
	DeleteGraph(ctx context.Context, id string) error
	HealthCheck(ctx context.Context) error

	Close(ctx context.Context) error
}
