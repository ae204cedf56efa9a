package workflow_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ideonhq/ideon/pkg/models"
	"github.com/ideonhq/ideon/pkg/testutil"
	"github.com/ideonhq/ideon/pkg/workflow"
)

func TestDeleteNode_BridgesThroughDeletedNode(t *testing.T) {
	graph := testutil.CreateTestGraph(testutil.WithEdges(
		testutil.CreateTestEdge("edge-1", "node-1", "node-2", models.EdgeLabelNext),
		testutil.CreateTestEdge("edge-2", "node-2", "node-3", models.EdgeLabelBranch),
	))

	edited, err := workflow.DeleteNode(graph, "node-2")
	require.NoError(t, err)

	assert.False(t, edited.HasNode("node-2"))
	require.Len(t, edited.Edges, 1)

	bridge := edited.Edges[0]
	assert.Equal(t, "node-1", bridge.Source)
	assert.Equal(t, "node-3", bridge.Target)
	// Bridge label prefers the outgoing edge's label.
	assert.Equal(t, models.EdgeLabelBranch, bridge.Label)
}

func TestDeleteNode_CrossProductBridges(t *testing.T) {
	// Two edges in, two edges out: deleting hub yields 4 bridges.
	graph := testutil.CreateTestGraph(
		testutil.WithNodes(
			testutil.CreateTestNode(testutil.WithID("in-1")),
			testutil.CreateTestNode(testutil.WithID("in-2")),
			testutil.CreateTestNode(testutil.WithID("hub")),
			testutil.CreateTestNode(testutil.WithID("out-1")),
			testutil.CreateTestNode(testutil.WithID("out-2")),
		),
		testutil.WithEdges(
			testutil.CreateTestEdge("e1", "in-1", "hub", models.EdgeLabelNext),
			testutil.CreateTestEdge("e2", "in-2", "hub", models.EdgeLabelNext),
			testutil.CreateTestEdge("e3", "hub", "out-1", models.EdgeLabelNext),
			testutil.CreateTestEdge("e4", "hub", "out-2", models.EdgeLabelNext),
		),
	)

	edited, err := workflow.DeleteNode(graph, "hub")
	require.NoError(t, err)

	require.Len(t, edited.Edges, 4)

	for _, pair := range [][2]string{
		{"in-1", "out-1"}, {"in-1", "out-2"},
		{"in-2", "out-1"}, {"in-2", "out-2"},
	} {
		assert.True(t, edited.HasEdge(pair[0], pair[1]), "missing bridge %s -> %s", pair[0], pair[1])
	}
}

func TestDeleteNode_SkipsExistingPairs(t *testing.T) {
	graph := testutil.CreateTestGraph(testutil.WithEdges(
		testutil.CreateTestEdge("edge-1", "node-1", "node-2", models.EdgeLabelNext),
		testutil.CreateTestEdge("edge-2", "node-2", "node-3", models.EdgeLabelNext),
		testutil.CreateTestEdge("edge-3", "node-1", "node-3", models.EdgeLabelNext),
	))

	edited, err := workflow.DeleteNode(graph, "node-2")
	require.NoError(t, err)

	// The direct node-1 -> node-3 edge already exists; no duplicate bridge.
	require.Len(t, edited.Edges, 1)
	assert.Equal(t, "edge-3", edited.Edges[0].ID)
}

func TestDeleteNode_BridgeLabelFallsBackToIncoming(t *testing.T) {
	graph := testutil.CreateTestGraph(testutil.WithEdges(
		testutil.CreateTestEdge("edge-1", "node-1", "node-2", models.EdgeLabelFollow),
		testutil.CreateTestEdge("edge-2", "node-2", "node-3", ""),
	))

	edited, err := workflow.DeleteNode(graph, "node-2")
	require.NoError(t, err)

	require.Len(t, edited.Edges, 1)
	assert.Equal(t, models.EdgeLabelFollow, edited.Edges[0].Label)
}

func TestDeleteNode_BridgeLabelDefaultsToNext(t *testing.T) {
	graph := testutil.CreateTestGraph(testutil.WithEdges(
		testutil.CreateTestEdge("edge-1", "node-1", "node-2", ""),
		testutil.CreateTestEdge("edge-2", "node-2", "node-3", ""),
	))

	edited, err := workflow.DeleteNode(graph, "node-2")
	require.NoError(t, err)

	require.Len(t, edited.Edges, 1)
	assert.Equal(t, models.EdgeLabelNext, edited.Edges[0].Label)
}

func TestDeleteNode_EndpointWithoutBridges(t *testing.T) {
	graph := testutil.CreateTestGraph()

	edited, err := workflow.DeleteNode(graph, "node-3")
	require.NoError(t, err)

	require.Len(t, edited.Nodes, 2)
	require.Len(t, edited.Edges, 1)
	assert.Equal(t, "edge-1", edited.Edges[0].ID)
}

func TestDeleteNode_MissingNode(t *testing.T) {
	graph := testutil.CreateTestGraph()

	_, err := workflow.DeleteNode(graph, "ghost")

	require.Error(t, err)
	assert.ErrorIs(t, err, workflow.ErrNodeNotFound)
}

func TestDeleteNode_OriginalGraphUntouched(t *testing.T) {
	graph := testutil.CreateTestGraph()

	edited, err := workflow.DeleteNode(graph, "node-2")
	require.NoError(t, err)

	assert.Len(t, graph.Nodes, 3)
	assert.Len(t, graph.Edges, 2)
	assert.True(t, graph.HasNode("node-2"))
	assert.NotSame(t, graph, edited)
}

func TestDeleteNode_IgnoresSelfLoopOnDeletedNode(t *testing.T) {
	graph := testutil.CreateTestGraph(testutil.WithEdges(
		testutil.CreateTestEdge("edge-1", "node-1", "node-2", models.EdgeLabelNext),
		testutil.CreateTestEdge("edge-2", "node-2", "node-2", models.EdgeLabelNext),
		testutil.CreateTestEdge("edge-3", "node-2", "node-3", models.EdgeLabelNext),
	))

	edited, err := workflow.DeleteNode(graph, "node-2")
	require.NoError(t, err)

	require.Len(t, edited.Edges, 1)
	assert.Equal(t, "node-1", edited.Edges[0].Source)
	assert.Equal(t, "node-3", edited.Edges[0].Target)
}

func TestConnectNodes_AppendsUnlabeledEdge(t *testing.T) {
	graph := testutil.CreateTestGraph()

	edited, err := workflow.ConnectNodes(graph, "node-1", "node-3")
	require.NoError(t, err)

	require.Len(t, edited.Edges, 3)

	added := edited.Edges[2]
	assert.Equal(t, "node-1", added.Source)
	assert.Equal(t, "node-3", added.Target)
	assert.Empty(t, added.Label)
	assert.NotEmpty(t, added.ID)

	// Copy-on-write: the original graph is unchanged.
	assert.Len(t, graph.Edges, 2)
}

func TestConnectNodes_ExistingPairIsNoOp(t *testing.T) {
	graph := testutil.CreateTestGraph()

	edited, err := workflow.ConnectNodes(graph, "node-1", "node-2")
	require.NoError(t, err)

	assert.Len(t, edited.Edges, 2)
}

func TestConnectNodes_MissingEndpoint(t *testing.T) {
	graph := testutil.CreateTestGraph()

	_, err := workflow.ConnectNodes(graph, "ghost", "node-2")
	assert.ErrorIs(t, err, workflow.ErrNodeNotFound)

	_, err = workflow.ConnectNodes(graph, "node-1", "ghost")
	assert.ErrorIs(t, err, workflow.ErrNodeNotFound)
}

func TestResetGraph_ClearsRunState(t *testing.T) {
	graph := testutil.CreateTestGraph()
	graph.Nodes[0].MarkDone("collected output")
	graph.Nodes[1].MarkBlocked("boom")

	reset := workflow.ResetGraph(graph)

	for _, node := range reset.Nodes {
		assert.Equal(t, models.NodeStatusPending, node.Status)
		assert.Empty(t, node.Output)
		assert.Empty(t, node.Error)
	}

	// Original keeps its run state until the caller swaps snapshots.
	assert.Equal(t, models.NodeStatusDone, graph.Nodes[0].Status)
}
