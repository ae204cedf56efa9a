package models

import "time"

// EdgeLabel is the heuristic relationship recorded on a dependency edge.
type EdgeLabel string

const (
	EdgeLabelNext   EdgeLabel = "next"
	EdgeLabelBranch EdgeLabel = "branch"
	EdgeLabelFollow EdgeLabel = "follow"
)

// CoerceLabel keeps known labels and drops anything else to the empty label.
func CoerceLabel(value string) EdgeLabel {
	switch label := EdgeLabel(value); label {
	case EdgeLabelNext, EdgeLabelBranch, EdgeLabelFollow:
		return label
	default:
		return ""
	}
}

// WorkflowEdge is a directed dependency link between two nodes.
type WorkflowEdge struct {
	ID     string    `json:"id"     validate:"required"`
	Source string    `json:"source" validate:"required"`
	Target string    `json:"target" validate:"required"`
	Label  EdgeLabel `json:"label,omitempty"`
}

// WorkflowGraph is the single mutable unit for the life of a session. Nodes
// keep insertion order, which is not necessarily execution order. Warnings
// are advisory only and never prevent further graph operations.
type WorkflowGraph struct {
	ID         string          `json:"id"`
	SourceIdea string          `json:"source_idea,omitempty"`
	Nodes      []*WorkflowNode `json:"nodes"`
	Edges      []*WorkflowEdge `json:"edges"`
	Summary    string          `json:"summary"`
	Warnings   []string        `json:"warnings"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

// NodeByID returns the node with the given id, or nil.
func (g *WorkflowGraph) NodeByID(id string) *WorkflowNode {
	for _, node := range g.Nodes {
		if node.ID == id {
			return node
		}
	}

	return nil
}

// HasNode reports whether a node with the given id exists.
func (g *WorkflowGraph) HasNode(id string) bool {
	return g.NodeByID(id) != nil
}

// HasEdge reports whether an edge with the exact (source, target) pair exists.
func (g *WorkflowGraph) HasEdge(source, target string) bool {
	for _, edge := range g.Edges {
		if edge.Source == source && edge.Target == target {
			return true
		}
	}

	return false
}

// Clone returns a deep copy of the graph. Editing operations work on clones
// so earlier snapshots stay valid for concurrent readers.
func (g *WorkflowGraph) Clone() *WorkflowGraph {
	clone := &WorkflowGraph{
		ID:         g.ID,
		SourceIdea: g.SourceIdea,
		Summary:    g.Summary,
		CreatedAt:  g.CreatedAt,
		UpdatedAt:  g.UpdatedAt,
		Nodes:      make([]*WorkflowNode, 0, len(g.Nodes)),
		Edges:      make([]*WorkflowEdge, 0, len(g.Edges)),
	}

	for _, node := range g.Nodes {
		clone.Nodes = append(clone.Nodes, node.Clone())
	}

	for _, edge := range g.Edges {
		edgeCopy := *edge
		clone.Edges = append(clone.Edges, &edgeCopy)
	}

	if g.Warnings != nil {
		clone.Warnings = make([]string, len(g.Warnings))
		copy(clone.Warnings, g.Warnings)
	}

	return clone
}
