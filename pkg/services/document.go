package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/ideonhq/ideon/pkg/models"
	"github.com/ideonhq/ideon/pkg/workflow"
)

// documentSchema is the shape contract for imported exchange documents.
// It deliberately does not constrain category, status, or label values:
// out-of-enum values from external producers are coerced, never rejected.
var documentSchema = map[string]any{
	"type":     "object",
	"required": []string{"nodes", "edges"},
	"properties": map[string]any{
		"nodes": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []string{"id", "title"},
				"properties": map[string]any{
					"id":           map[string]any{"type": "string", "minLength": 1},
					"title":        map[string]any{"type": "string"},
					"detail":       map[string]any{"type": "string"},
					"category":     map[string]any{"type": "string"},
					"status":       map[string]any{"type": "string"},
					"tags":         map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					"output":       map[string]any{"type": "string"},
					"error":        map[string]any{"type": "string"},
					"search_query": map[string]any{"type": "string"},
				},
			},
		},
		"edges": map[string]any{
			"type": "array",
			"items": map[string]any{
				"type":     "object",
				"required": []string{"id", "source", "target"},
				"properties": map[string]any{
					"id":     map[string]any{"type": "string", "minLength": 1},
					"source": map[string]any{"type": "string", "minLength": 1},
					"target": map[string]any{"type": "string", "minLength": 1},
					"label":  map[string]any{"type": "string"},
				},
			},
		},
		"summary":  map[string]any{"type": "string"},
		"warnings": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
	},
}

// Import materializes a graph from a raw exchange document and persists it
// under a fresh identity. Shape violations are validation errors; category,
// status, and label values outside the closed enums are coerced to defaults.
func (g *Graph) Import(ctx context.Context, raw []byte) (*models.WorkflowGraph, error) {
	err := validateDocumentShape(raw)
	if err != nil {
		return nil, err
	}

	var doc models.GraphDocument

	err = json.Unmarshal(raw, &doc)
	if err != nil {
		return nil, NewValidationError("Import", "MALFORMED_DOCUMENT", err.Error(), ErrInvalidGraphDocument)
	}

	graph := doc.Graph()

	// The exchange document carries no source idea; the summary is the
	// closest statement of the plan and seeds future run contexts.
	graph.SourceIdea = doc.Summary

	carried := graph.Warnings
	structural := workflow.Validate(graph)
	graph.Warnings = mergeWarnings(structural, carried)

	err = g.persistence.SaveGraph(ctx, graph)
	if err != nil {
		return nil, fmt.Errorf("failed to save graph: %w", err)
	}

	return graph, nil
}

// validateDocumentShape checks a raw document against the exchange schema
// before unmarshalling, so producers get field-level messages instead of a
// Go type error.
func validateDocumentShape(raw []byte) error {
	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(documentSchema),
		gojsonschema.NewBytesLoader(raw),
	)
	if err != nil {
		return NewValidationError("Import", "MALFORMED_DOCUMENT", err.Error(), ErrInvalidGraphDocument)
	}

	if !result.Valid() {
		messages := make([]string, 0, len(result.Errors()))
		for _, desc := range result.Errors() {
			messages = append(messages, desc.String())
		}

		return NewValidationError("Import", "INVALID_DOCUMENT", strings.Join(messages, "; "), ErrInvalidGraphDocument)
	}

	return nil
}

// mergeWarnings keeps the fresh structural warnings first and appends any
// producer-supplied warnings the structural pass did not rediscover.
func mergeWarnings(structural, carried []string) []string {
	merged := make([]string, 0, len(structural)+len(carried))
	seen := make(map[string]bool, len(structural))

	for _, warning := range structural {
		if seen[warning] {
			continue
		}

		seen[warning] = true

		merged = append(merged, warning)
	}

	for _, warning := range carried {
		if seen[warning] {
			continue
		}

		seen[warning] = true

		merged = append(merged, warning)
	}

	return merged
}
