// Package workflow turns decomposed steps into dependency graphs and runs
// them: building, validating, scheduling, editing, and orchestrating
// execution of idea-derived workflow graphs.
package workflow

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ideonhq/ideon/pkg/decompose"
	"github.com/ideonhq/ideon/pkg/models"
)

const maxSummaryWords = 12

// BuildFromIdea decomposes an idea and assembles the resulting steps into a
// graph. The recorded source idea is the effective one, so a graph built from
// blank input carries the fallback text it was actually built from.
func BuildFromIdea(idea string) *models.WorkflowGraph {
	effective := decompose.EffectiveIdea(idea)

	return Build(effective, decompose.Decompose(effective))
}

// Build assembles steps into a graph. Nodes keep step order and every
// consecutive pair is linked, so the default shape is a linear chain. Node
// and edge identifiers are positional (node-1, edge-1, ...); the graph itself
// gets a fresh unique identifier.
func Build(idea string, steps []decompose.Step) *models.WorkflowGraph {
	graph := &models.WorkflowGraph{
		ID:         uuid.New().String(),
		SourceIdea: idea,
		Nodes:      make([]*models.WorkflowNode, 0, len(steps)),
		Edges:      make([]*models.WorkflowEdge, 0),
		Summary:    summarize(idea, len(steps)),
	}

	for i, step := range steps {
		graph.Nodes = append(graph.Nodes, &models.WorkflowNode{
			ID:          fmt.Sprintf("node-%d", i+1),
			Title:       step.Title,
			Detail:      step.Detail,
			Category:    step.Category,
			Status:      models.NodeStatusPending,
			Tags:        step.Tags,
			SearchQuery: step.SearchQuery,
		})
	}

	for i := 0; i+1 < len(steps); i++ {
		graph.Edges = append(graph.Edges, &models.WorkflowEdge{
			ID:     fmt.Sprintf("edge-%d", i+1),
			Source: graph.Nodes[i].ID,
			Target: graph.Nodes[i+1].ID,
			Label:  linkLabel(steps[i].Detail, steps[i+1].Detail),
		})
	}

	Validate(graph)

	return graph
}

// linkLabel picks the edge label for a source -> target step pair.
// Conditional wording on either side marks a branch; continuation wording on
// the target marks a follow-up; everything else is a plain next link.
func linkLabel(source, target string) models.EdgeLabel {
	if decompose.HasConditionalLanguage(source) || decompose.HasConditionalLanguage(target) {
		return models.EdgeLabelBranch
	}

	if decompose.HasContinuationLanguage(target) {
		return models.EdgeLabelFollow
	}

	return models.EdgeLabelNext
}

func summarize(idea string, stepCount int) string {
	words := strings.Fields(idea)
	if len(words) > maxSummaryWords {
		words = words[:maxSummaryWords:maxSummaryWords]
		words = append(words, "...")
	}

	noun := "steps"
	if stepCount == 1 {
		noun = "step"
	}

	return fmt.Sprintf("%d %s: %s", stepCount, noun, strings.Join(words, " "))
}
