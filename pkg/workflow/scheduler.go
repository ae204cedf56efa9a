package workflow

import "github.com/ideonhq/ideon/pkg/models"

// Schedule orders the graph's nodes so every node runs after its dependencies
// (Kahn's algorithm). Zero in-degree nodes are seeded in node-list order and
// newly freed nodes are appended as their last dependency completes, which
// keeps the result deterministic for a given graph. Edges touching unknown
// nodes impose no constraint. Nodes stuck in a cycle are appended at the end
// in node-list order, so every node is scheduled exactly once and a damaged
// graph still makes forward progress.
func Schedule(graph *models.WorkflowGraph) []*models.WorkflowNode {
	position := make(map[string]int, len(graph.Nodes))
	for i, node := range graph.Nodes {
		position[node.ID] = i
	}

	inDegree := make([]int, len(graph.Nodes))
	adjacency := make([][]int, len(graph.Nodes))

	for _, edge := range graph.Edges {
		source, ok := position[edge.Source]
		if !ok {
			continue
		}

		target, ok := position[edge.Target]
		if !ok {
			continue
		}

		adjacency[source] = append(adjacency[source], target)
		inDegree[target]++
	}

	queue := make([]int, 0, len(graph.Nodes))
	for i := range graph.Nodes {
		if inDegree[i] == 0 {
			queue = append(queue, i)
		}
	}

	order := make([]*models.WorkflowNode, 0, len(graph.Nodes))
	visited := make([]bool, len(graph.Nodes))

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		visited[current] = true
		order = append(order, graph.Nodes[current])

		for _, target := range adjacency[current] {
			inDegree[target]--
			if inDegree[target] == 0 {
				queue = append(queue, target)
			}
		}
	}

	for i, node := range graph.Nodes {
		if !visited[i] {
			order = append(order, node)
		}
	}

	return order
}
