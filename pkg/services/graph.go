package services

import (
	"context"
	"fmt"

	"github.com/ideonhq/ideon/pkg/cache"
	"github.com/ideonhq/ideon/pkg/models"
	"github.com/ideonhq/ideon/pkg/persistence"
	"github.com/ideonhq/ideon/pkg/trace"
	"github.com/ideonhq/ideon/pkg/workflow"
)

// Graph implements the graph side of the API: building graphs from ideas,
// editing their structure, and moving them between deployments as exchange
// documents. Structural changes to a graph whose run lock is held are
// rejected with ErrRunInProgress; the worker owns the graph until its run
// returns.
type Graph struct {
	persistence persistence.Persistence
	runLock     *cache.RunLock
	traces      trace.Recorder
}

// NewGraph creates a new graph service.
func NewGraph(persistence persistence.Persistence, runLock *cache.RunLock, traces trace.Recorder) *Graph {
	return &Graph{
		persistence: persistence,
		runLock:     runLock,
		traces:      traces,
	}
}

// HealthCheck checks the health of the persistence layer.
func (g *Graph) HealthCheck(ctx context.Context) (string, bool) {
	if g.persistence == nil {
		return "Persistence layer not initialized", false
	}

	err := g.persistence.HealthCheck(ctx)
	if err != nil {
		return "Persistence layer is unhealthy: " + err.Error(), false
	}

	return "Persistence layer is healthy", true
}

// Build decomposes an idea into a new graph and persists it. Empty and
// near-empty ideas fall back to a placeholder plan rather than failing.
func (g *Graph) Build(ctx context.Context, idea string) (*models.WorkflowGraph, error) {
	graph := workflow.BuildFromIdea(idea)

	err := g.persistence.SaveGraph(ctx, graph)
	if err != nil {
		return nil, fmt.Errorf("failed to save graph: %w", err)
	}

	return graph, nil
}

// List returns all stored graphs, newest first.
func (g *Graph) List(ctx context.Context) ([]*models.WorkflowGraph, error) {
	graphs, err := g.persistence.Graphs(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list graphs: %w", err)
	}

	return graphs, nil
}

// Fetch retrieves a graph by its ID.
func (g *Graph) Fetch(ctx context.Context, id string) (*models.WorkflowGraph, error) {
	graph, err := g.persistence.GraphByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch graph: %w", err)
	}

	if graph == nil {
		return nil, ErrGraphNotFound
	}

	return graph, nil
}

// Delete removes a graph by its ID. A graph with an active run cannot be
// deleted out from under its worker.
func (g *Graph) Delete(ctx context.Context, id string) error {
	_, err := g.Fetch(ctx, id)
	if err != nil {
		return err
	}

	err = g.ensureNotRunning(ctx, id)
	if err != nil {
		return err
	}

	err = g.persistence.DeleteGraph(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to delete graph: %w", err)
	}

	// The trace dies with the graph. A failed clear never blocks the delete.
	if g.traces != nil {
		_ = g.traces.Clear(ctx, id)
	}

	return nil
}

// Export returns the graph rendered as an exchange document.
func (g *Graph) Export(ctx context.Context, id string) (*models.GraphDocument, error) {
	graph, err := g.Fetch(ctx, id)
	if err != nil {
		return nil, err
	}

	doc := graph.Document()

	return &doc, nil
}

// DeleteNode removes a node from a graph, bridging its incoming and outgoing
// edges, and persists the result.
func (g *Graph) DeleteNode(ctx context.Context, graphID, nodeID string) (*models.WorkflowGraph, error) {
	graph, err := g.Fetch(ctx, graphID)
	if err != nil {
		return nil, err
	}

	err = g.ensureNotRunning(ctx, graphID)
	if err != nil {
		return nil, err
	}

	updated, err := workflow.DeleteNode(graph, nodeID)
	if err != nil {
		return nil, err
	}

	err = g.persistence.SaveGraph(ctx, updated)
	if err != nil {
		return nil, fmt.Errorf("failed to save graph: %w", err)
	}

	return updated, nil
}

// ConnectNodes adds a dependency edge between two existing nodes and persists
// the result. Connecting an already-connected pair is a no-op.
func (g *Graph) ConnectNodes(ctx context.Context, graphID, sourceID, targetID string) (*models.WorkflowGraph, error) {
	graph, err := g.Fetch(ctx, graphID)
	if err != nil {
		return nil, err
	}

	err = g.ensureNotRunning(ctx, graphID)
	if err != nil {
		return nil, err
	}

	updated, err := workflow.ConnectNodes(graph, sourceID, targetID)
	if err != nil {
		return nil, err
	}

	err = g.persistence.SaveGraph(ctx, updated)
	if err != nil {
		return nil, fmt.Errorf("failed to save graph: %w", err)
	}

	return updated, nil
}

// Reset returns every node in a graph to pending, clears outputs and errors,
// and persists the result.
func (g *Graph) Reset(ctx context.Context, graphID string) (*models.WorkflowGraph, error) {
	graph, err := g.Fetch(ctx, graphID)
	if err != nil {
		return nil, err
	}

	err = g.ensureNotRunning(ctx, graphID)
	if err != nil {
		return nil, err
	}

	updated := workflow.ResetGraph(graph)

	err = g.persistence.SaveGraph(ctx, updated)
	if err != nil {
		return nil, fmt.Errorf("failed to save graph: %w", err)
	}

	return updated, nil
}

func (g *Graph) ensureNotRunning(ctx context.Context, graphID string) error {
	held, err := g.runLock.Held(ctx, graphID)
	if err != nil {
		return err
	}

	if held {
		return ErrRunInProgress
	}

	return nil
}
