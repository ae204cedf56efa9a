package models

// ExecutedNode is one entry in the append-only execution log.
type ExecutedNode struct {
	NodeID string `json:"node_id"`
	Title  string `json:"title"`
	Output string `json:"output"`
}

// ExecutionContext is the accumulated state threaded through sequential node
// execution. It is created fresh at the start of each run and discarded on
// reset. Updates always produce a new value, so snapshots handed to earlier
// nodes or to live readers remain valid.
type ExecutionContext struct {
	OriginalIdea  string         `json:"original_idea"`
	ExecutedNodes []ExecutedNode `json:"executed_nodes"`
	CurrentInput  string         `json:"current_input"`
}

// NewExecutionContext creates the initial context for a run. CurrentInput is
// seeded with the original idea.
func NewExecutionContext(originalIdea string) ExecutionContext {
	return ExecutionContext{
		OriginalIdea:  originalIdea,
		ExecutedNodes: []ExecutedNode{},
		CurrentInput:  originalIdea,
	}
}

// Advance returns a new context with the node's output appended to the
// execution log and CurrentInput replaced by that output. The receiver is
// never mutated.
func (c ExecutionContext) Advance(node *WorkflowNode, output string) ExecutionContext {
	log := make([]ExecutedNode, len(c.ExecutedNodes), len(c.ExecutedNodes)+1)
	copy(log, c.ExecutedNodes)

	log = append(log, ExecutedNode{
		NodeID: node.ID,
		Title:  node.Title,
		Output: output,
	})

	return ExecutionContext{
		OriginalIdea:  c.OriginalIdea,
		ExecutedNodes: log,
		CurrentInput:  output,
	}
}
