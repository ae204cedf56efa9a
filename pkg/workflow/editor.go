package workflow

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/ideonhq/ideon/pkg/models"
)

// ErrNodeNotFound is returned by editing operations that reference a node id
// absent from the graph.
var ErrNodeNotFound = errors.New("node not found")

// DeleteNode returns a new graph snapshot without the named node. Every edge
// touching the node is removed and one bridge edge is synthesized per
// (incoming source, outgoing target) pair, so paths that flowed through the
// deleted node keep flowing. Bridges that would duplicate an existing
// (source, target) pair are skipped. Bridge labels prefer the outgoing edge's
// label, then the incoming edge's, then next.
func DeleteNode(graph *models.WorkflowGraph, nodeID string) (*models.WorkflowGraph, error) {
	if !graph.HasNode(nodeID) {
		return nil, fmt.Errorf("delete node %s: %w", nodeID, ErrNodeNotFound)
	}

	next := graph.Clone()

	incoming := make([]*models.WorkflowEdge, 0)
	outgoing := make([]*models.WorkflowEdge, 0)
	kept := make([]*models.WorkflowEdge, 0, len(next.Edges))

	for _, edge := range next.Edges {
		switch {
		case edge.Source == nodeID && edge.Target == nodeID:
			// Self-loop on the deleted node: nothing to bridge.
		case edge.Target == nodeID:
			incoming = append(incoming, edge)
		case edge.Source == nodeID:
			outgoing = append(outgoing, edge)
		default:
			kept = append(kept, edge)
		}
	}

	nodes := make([]*models.WorkflowNode, 0, len(next.Nodes)-1)
	for _, node := range next.Nodes {
		if node.ID != nodeID {
			nodes = append(nodes, node)
		}
	}
	next.Nodes = nodes

	for _, in := range incoming {
		for _, out := range outgoing {
			if pairExists(kept, in.Source, out.Target) {
				continue
			}

			kept = append(kept, &models.WorkflowEdge{
				ID:     fmt.Sprintf("bridge-%s-%s", in.Source, out.Target),
				Source: in.Source,
				Target: out.Target,
				Label:  bridgeLabel(in, out),
			})
		}
	}
	next.Edges = kept

	Validate(next)

	return next, nil
}

// ConnectNodes returns a new graph snapshot with an unlabeled edge from
// source to target. Both endpoints must exist. When the exact (source,
// target) pair already exists the operation is a no-op and the snapshot is
// returned unchanged.
func ConnectNodes(graph *models.WorkflowGraph, sourceID, targetID string) (*models.WorkflowGraph, error) {
	if !graph.HasNode(sourceID) {
		return nil, fmt.Errorf("connect %s -> %s: source: %w", sourceID, targetID, ErrNodeNotFound)
	}

	if !graph.HasNode(targetID) {
		return nil, fmt.Errorf("connect %s -> %s: target: %w", sourceID, targetID, ErrNodeNotFound)
	}

	next := graph.Clone()
	if next.HasEdge(sourceID, targetID) {
		return next, nil
	}

	next.Edges = append(next.Edges, &models.WorkflowEdge{
		ID:     fmt.Sprintf("edge-%s", uuid.New().String()[:8]),
		Source: sourceID,
		Target: targetID,
	})

	Validate(next)

	return next, nil
}

// ResetGraph returns a new snapshot with every node back to pending and all
// outputs and errors cleared.
func ResetGraph(graph *models.WorkflowGraph) *models.WorkflowGraph {
	next := graph.Clone()
	for _, node := range next.Nodes {
		node.Reset()
	}

	return next
}

func pairExists(edges []*models.WorkflowEdge, source, target string) bool {
	for _, edge := range edges {
		if edge.Source == source && edge.Target == target {
			return true
		}
	}

	return false
}

func bridgeLabel(in, out *models.WorkflowEdge) models.EdgeLabel {
	if out.Label != "" {
		return out.Label
	}

	if in.Label != "" {
		return in.Label
	}

	return models.EdgeLabelNext
}
