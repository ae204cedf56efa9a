package workflow

import (
	"fmt"

	"github.com/ideonhq/ideon/pkg/models"
)

// Validate checks a graph for structural problems and records them as
// human-readable warnings on the graph itself. Warnings are advisory: a graph
// with warnings still loads, schedules, and runs. The warning list is
// recomputed from scratch on every call, so fixed problems disappear.
func Validate(graph *models.WorkflowGraph) []string {
	warnings := make([]string, 0)

	known := make(map[string]bool, len(graph.Nodes))
	for _, node := range graph.Nodes {
		known[node.ID] = true
	}

	incoming := make(map[string]bool, len(graph.Nodes))

	for _, edge := range graph.Edges {
		if !known[edge.Source] {
			warnings = append(warnings, fmt.Sprintf("edge %s references missing source node %s", edge.ID, edge.Source))
		}

		if known[edge.Target] {
			incoming[edge.Target] = true
		} else {
			warnings = append(warnings, fmt.Sprintf("edge %s references missing target node %s", edge.ID, edge.Target))
		}
	}

	// The first node is the entry point and needs no incoming edge. Every
	// node after it should be reachable from somewhere.
	for i, node := range graph.Nodes {
		if i == 0 {
			continue
		}

		if !incoming[node.ID] {
			warnings = append(warnings, fmt.Sprintf("node %s (%s) has no incoming edge", node.ID, node.Title))
		}
	}

	graph.Warnings = warnings

	return warnings
}
