// Package models defines the core domain models for idea-driven workflow graphs.
package models

// NodeCategory represents the kind of work a step performs.
type NodeCategory string

const (
	CategoryCollect  NodeCategory = "collect"
	CategoryAnalyze  NodeCategory = "analyze"
	CategoryExecute  NodeCategory = "execute"
	CategoryNotify   NodeCategory = "notify"
	CategoryDecision NodeCategory = "decision"
)

// DefaultCategory is assigned when no keyword table matches and when an
// external producer supplies a value outside the closed enum.
const DefaultCategory = CategoryCollect

// Categories lists the closed category enum in canonical priority order.
// Classification checks the keyword tables in exactly this order; the sets
// overlap, so reordering changes outcomes.
func Categories() []NodeCategory {
	return []NodeCategory{
		CategoryCollect,
		CategoryAnalyze,
		CategoryExecute,
		CategoryNotify,
		CategoryDecision,
	}
}

// CoerceCategory maps any out-of-enum value to DefaultCategory. Externally
// produced graphs are accepted rather than rejected.
func CoerceCategory(value string) NodeCategory {
	category := NodeCategory(value)
	for _, known := range Categories() {
		if category == known {
			return category
		}
	}

	return DefaultCategory
}

// NodeStatus defines the per-node execution state machine.
type NodeStatus string

const (
	NodeStatusPending NodeStatus = "pending"
	NodeStatusRunning NodeStatus = "running"
	NodeStatusDone    NodeStatus = "done"
	NodeStatusBlocked NodeStatus = "blocked"
)

// CoerceStatus maps any out-of-enum value to pending.
func CoerceStatus(value string) NodeStatus {
	switch status := NodeStatus(value); status {
	case NodeStatusPending, NodeStatusRunning, NodeStatusDone, NodeStatusBlocked:
		return status
	default:
		return NodeStatusPending
	}
}

// WorkflowNode represents one atomic step in a workflow graph.
type WorkflowNode struct {
	ID          string       `json:"id"                     validate:"required"`
	Title       string       `json:"title"                  validate:"required"`
	Detail      string       `json:"detail"`
	Category    NodeCategory `json:"category"               validate:"required"`
	Status      NodeStatus   `json:"status"`
	Tags        []string     `json:"tags"`
	Output      string       `json:"output,omitempty"`
	Error       string       `json:"error,omitempty"`
	SearchQuery string       `json:"search_query,omitempty"`
}

// MarkRunning transitions the node from pending to running.
func (n *WorkflowNode) MarkRunning() {
	n.Status = NodeStatusRunning
}

// MarkDone records the step output. Output and Error are mutually exclusive,
// so any prior error is cleared.
func (n *WorkflowNode) MarkDone(output string) {
	n.Status = NodeStatusDone
	n.Output = output
	n.Error = ""
}

// MarkBlocked records the step failure. Output and Error are mutually
// exclusive, so any prior output is cleared.
func (n *WorkflowNode) MarkBlocked(errorText string) {
	n.Status = NodeStatusBlocked
	n.Error = errorText
	n.Output = ""
}

// Reset returns the node to pending and clears output and error.
func (n *WorkflowNode) Reset() {
	n.Status = NodeStatusPending
	n.Output = ""
	n.Error = ""
}

// Clone returns a deep copy of the node.
func (n *WorkflowNode) Clone() *WorkflowNode {
	clone := *n
	if n.Tags != nil {
		clone.Tags = make([]string, len(n.Tags))
		copy(clone.Tags, n.Tags)
	}

	return &clone
}
