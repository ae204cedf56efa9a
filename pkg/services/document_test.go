package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ideonhq/ideon/pkg/models"
)

func TestGraph_Import(t *testing.T) {
	service, _ := newGraphService(t)

	raw := []byte(`{
		"nodes": [
			{"id": "n1", "title": "Gather inputs", "detail": "Pull last month of tickets", "category": "collect", "status": "pending", "tags": ["Support", "support"]},
			{"id": "n2", "title": "Summarize findings", "detail": "", "category": "wizardry", "status": "unknown", "tags": []}
		],
		"edges": [
			{"id": "e1", "source": "n1", "target": "n2", "label": "next"}
		],
		"summary": "2 steps: gather inputs then summarize findings",
		"warnings": ["produced by an external decomposer"]
	}`)

	graph, err := service.Import(t.Context(), raw)
	require.NoError(t, err)
	require.NotNil(t, graph)

	// Identity is assigned on save, never taken from the document.
	assert.NotEmpty(t, graph.ID)
	assert.Equal(t, "2 steps: gather inputs then summarize findings", graph.Summary)
	assert.Equal(t, graph.Summary, graph.SourceIdea)

	require.Len(t, graph.Nodes, 2)
	assert.Equal(t, models.CategoryCollect, graph.Nodes[0].Category)
	assert.Equal(t, []string{"support"}, graph.Nodes[0].Tags)

	// Out-of-enum values from the producer are coerced, not rejected.
	assert.Equal(t, models.DefaultCategory, graph.Nodes[1].Category)
	assert.Equal(t, models.NodeStatusPending, graph.Nodes[1].Status)

	// Producer warnings survive alongside the fresh structural pass.
	assert.Contains(t, graph.Warnings, "produced by an external decomposer")

	fetched, err := service.Fetch(t.Context(), graph.ID)
	require.NoError(t, err)
	assert.Len(t, fetched.Nodes, 2)
}

func TestGraph_Import_StructuralWarnings(t *testing.T) {
	service, _ := newGraphService(t)

	// n2's edge references a node the document does not define.
	raw := []byte(`{
		"nodes": [
			{"id": "n1", "title": "Only step", "detail": "", "category": "collect", "status": "pending", "tags": []}
		],
		"edges": [
			{"id": "e1", "source": "n1", "target": "ghost"}
		],
		"summary": "1 step",
		"warnings": []
	}`)

	graph, err := service.Import(t.Context(), raw)
	require.NoError(t, err)
	assert.NotEmpty(t, graph.Warnings)
}

func TestGraph_Import_InvalidShape(t *testing.T) {
	service, _ := newGraphService(t)

	tests := []struct {
		name string
		raw  string
	}{
		{
			name: "not json",
			raw:  `{"nodes": [`,
		},
		{
			name: "nodes not an array",
			raw:  `{"nodes": "oops", "edges": []}`,
		},
		{
			name: "missing edges",
			raw:  `{"nodes": []}`,
		},
		{
			name: "node missing title",
			raw:  `{"nodes": [{"id": "n1"}], "edges": []}`,
		},
		{
			name: "edge missing target",
			raw:  `{"nodes": [{"id": "n1", "title": "Step"}], "edges": [{"id": "e1", "source": "n1"}]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			graph, err := service.Import(t.Context(), []byte(tt.raw))
			require.Error(t, err)
			assert.Nil(t, graph)
			assert.ErrorIs(t, err, ErrInvalidGraphDocument)
			assert.True(t, IsValidationError(err))
		})
	}
}

func TestGraph_Import_RoundTrip(t *testing.T) {
	service, _ := newGraphService(t)

	built, err := service.Build(t.Context(), testIdea)
	require.NoError(t, err)

	doc, err := service.Export(t.Context(), built.ID)
	require.NoError(t, err)

	raw, err := json.Marshal(doc)
	require.NoError(t, err)

	imported, err := service.Import(t.Context(), raw)
	require.NoError(t, err)

	// The import is a new graph, not an overwrite.
	assert.NotEqual(t, built.ID, imported.ID)
	assert.Len(t, imported.Nodes, len(built.Nodes))
	assert.Len(t, imported.Edges, len(built.Edges))

	graphs, err := service.List(t.Context())
	require.NoError(t, err)
	assert.Len(t, graphs, 2)
}

func TestMergeWarnings(t *testing.T) {
	structural := []string{"node ghost is unreachable", "edge e9 dangles"}
	carried := []string{"edge e9 dangles", "produced externally"}

	merged := mergeWarnings(structural, carried)

	assert.Equal(t, []string{
		"node ghost is unreachable",
		"edge e9 dangles",
		"produced externally",
	}, merged)
}

func TestMergeWarnings_Empty(t *testing.T) {
	assert.Empty(t, mergeWarnings(nil, nil))
	assert.Equal(t, []string{"only carried"}, mergeWarnings(nil, []string{"only carried"}))
}
