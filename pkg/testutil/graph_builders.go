// Package testutil provides test data builders and utilities for testing.
package testutil

import (
	"time"

	"github.com/google/uuid"

	"github.com/ideonhq/ideon/pkg/models"
)

// CreateTestNode creates a test WorkflowNode with default values that can be
// overridden.
func CreateTestNode(overrides ...func(*models.WorkflowNode)) *models.WorkflowNode {
	node := &models.WorkflowNode{
		ID:       uuid.New().String(),
		Title:    "Test step",
		Detail:   "Collect data for the test",
		Category: models.CategoryCollect,
		Status:   models.NodeStatusPending,
		Tags:     []string{},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithID sets the node ID.
func WithID(id string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.ID = id
	}
}

// WithTitle sets the node title.
func WithTitle(title string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Title = title
	}
}

// WithDetail sets the node detail text.
func WithDetail(detail string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Detail = detail
	}
}

// WithCategory sets the node category.
func WithCategory(category models.NodeCategory) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Category = category
	}
}

// WithStatus sets the node status.
func WithStatus(status models.NodeStatus) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Status = status
	}
}

// WithTags sets the node tags.
func WithTags(tags ...string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.Tags = tags
	}
}

// WithOutput marks the node done with the given output.
func WithOutput(output string) func(*models.WorkflowNode) {
	return func(n *models.WorkflowNode) {
		n.MarkDone(output)
	}
}

// CreateTestEdge creates an edge between two node IDs.
func CreateTestEdge(id, source, target string, label models.EdgeLabel) *models.WorkflowEdge {
	return &models.WorkflowEdge{
		ID:     id,
		Source: source,
		Target: target,
		Label:  label,
	}
}

// CreateTestGraph creates a three-node linear chain (node-1 -> node-2 ->
// node-3) with default values that can be overridden.
func CreateTestGraph(overrides ...func(*models.WorkflowGraph)) *models.WorkflowGraph {
	graph := &models.WorkflowGraph{
		ID:         uuid.New().String(),
		SourceIdea: "Collect data. Analyze it. Share the result.",
		Nodes: []*models.WorkflowNode{
			CreateTestNode(WithID("node-1"), WithTitle("Collect data"), WithCategory(models.CategoryCollect)),
			CreateTestNode(WithID("node-2"), WithTitle("Analyze it"), WithCategory(models.CategoryAnalyze)),
			CreateTestNode(WithID("node-3"), WithTitle("Share the result"), WithCategory(models.CategoryNotify)),
		},
		Edges: []*models.WorkflowEdge{
			CreateTestEdge("edge-1", "node-1", "node-2", models.EdgeLabelNext),
			CreateTestEdge("edge-2", "node-2", "node-3", models.EdgeLabelNext),
		},
		Summary:   "3 steps: Collect data. Analyze it. Share the result.",
		Warnings:  []string{},
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}

	for _, override := range overrides {
		override(graph)
	}

	return graph
}

// WithGraphID sets the graph ID.
func WithGraphID(id string) func(*models.WorkflowGraph) {
	return func(g *models.WorkflowGraph) {
		g.ID = id
	}
}

// WithSourceIdea sets the idea text the graph was built from.
func WithSourceIdea(idea string) func(*models.WorkflowGraph) {
	return func(g *models.WorkflowGraph) {
		g.SourceIdea = idea
	}
}

// WithNodes replaces the graph's nodes.
func WithNodes(nodes ...*models.WorkflowNode) func(*models.WorkflowGraph) {
	return func(g *models.WorkflowGraph) {
		g.Nodes = nodes
	}
}

// WithEdges replaces the graph's edges.
func WithEdges(edges ...*models.WorkflowEdge) func(*models.WorkflowGraph) {
	return func(g *models.WorkflowGraph) {
		g.Edges = edges
	}
}
