package models

import "strings"

// GraphDocument is the exchange format crossing the serialization boundary.
// External decomposition collaborators may produce conforming documents;
// category, status, and label values outside the closed enums are coerced to
// defaults rather than rejected.
type GraphDocument struct {
	Nodes    []*WorkflowNode `json:"nodes"`
	Edges    []*WorkflowEdge `json:"edges"`
	Summary  string          `json:"summary"`
	Warnings []string        `json:"warnings"`
}

// Document exports the graph as an exchange document. The document holds deep
// copies, so later graph edits do not leak into an export in flight.
func (g *WorkflowGraph) Document() GraphDocument {
	clone := g.Clone()

	doc := GraphDocument{
		Nodes:    clone.Nodes,
		Edges:    clone.Edges,
		Summary:  clone.Summary,
		Warnings: clone.Warnings,
	}

	if doc.Nodes == nil {
		doc.Nodes = []*WorkflowNode{}
	}

	if doc.Edges == nil {
		doc.Edges = []*WorkflowEdge{}
	}

	if doc.Warnings == nil {
		doc.Warnings = []string{}
	}

	return doc
}

// Graph materializes a workflow graph from an exchange document, coercing
// out-of-enum values and normalizing tags. Identity and timestamps are left
// for the caller to assign.
func (d GraphDocument) Graph() *WorkflowGraph {
	graph := &WorkflowGraph{
		Summary:  d.Summary,
		Nodes:    make([]*WorkflowNode, 0, len(d.Nodes)),
		Edges:    make([]*WorkflowEdge, 0, len(d.Edges)),
		Warnings: make([]string, 0, len(d.Warnings)),
	}

	for _, node := range d.Nodes {
		if node == nil {
			continue
		}

		imported := node.Clone()
		imported.Category = CoerceCategory(string(node.Category))
		imported.Status = CoerceStatus(string(node.Status))
		imported.Tags = normalizeTags(node.Tags)
		graph.Nodes = append(graph.Nodes, imported)
	}

	for _, edge := range d.Edges {
		if edge == nil {
			continue
		}

		edgeCopy := *edge
		edgeCopy.Label = CoerceLabel(string(edge.Label))
		graph.Edges = append(graph.Edges, &edgeCopy)
	}

	graph.Warnings = append(graph.Warnings, d.Warnings...)

	return graph
}

func normalizeTags(tags []string) []string {
	normalized := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))

	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}

		seen[tag] = true

		normalized = append(normalized, tag)
	}

	return normalized
}
