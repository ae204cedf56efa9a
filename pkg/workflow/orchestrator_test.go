package workflow_test

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ideonhq/ideon/pkg/eventbus"
	"github.com/ideonhq/ideon/pkg/events"
	"github.com/ideonhq/ideon/pkg/models"
	"github.com/ideonhq/ideon/pkg/testutil"
	"github.com/ideonhq/ideon/pkg/workflow"
)

// scriptedExecutor succeeds with "out:<node id>" unless told to fail.
type scriptedExecutor struct {
	mu      sync.Mutex
	calls   []string
	inputs  []string
	fail    map[string]string
	errs    map[string]error
	onStart func(nodeID string)
}

func (s *scriptedExecutor) Execute(ctx context.Context, node *models.WorkflowNode, execCtx models.ExecutionContext) (models.StepResult, error) {
	s.mu.Lock()
	s.calls = append(s.calls, node.ID)
	s.inputs = append(s.inputs, execCtx.CurrentInput)
	onStart := s.onStart
	s.mu.Unlock()

	if onStart != nil {
		onStart(node.ID)
	}

	if err, ok := s.errs[node.ID]; ok {
		return models.StepResult{}, err
	}

	if message, ok := s.fail[node.ID]; ok {
		return models.StepResult{Success: false, Error: message}, nil
	}

	return models.StepResult{Success: true, Output: "out:" + node.ID}, nil
}

func (s *scriptedExecutor) callIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.calls...)
}

func (s *scriptedExecutor) callInputs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]string(nil), s.inputs...)
}

type captureSink struct {
	mu     sync.Mutex
	events []eventbus.Event
}

func (c *captureSink) Emit(_ context.Context, event eventbus.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.events = append(c.events, event)
}

func (c *captureSink) types() []events.EventType {
	c.mu.Lock()
	defer c.mu.Unlock()

	types := make([]events.EventType, 0, len(c.events))
	for _, event := range c.events {
		types = append(types, event.GetType())
	}

	return types
}

func newTestOrchestrator(graph *models.WorkflowGraph, executor *scriptedExecutor, sink workflow.EventSink) *workflow.Orchestrator {
	return workflow.NewOrchestrator(slog.Default(), graph, executor, sink, "worker-test")
}

func TestOrchestrator_RunHappyPath(t *testing.T) {
	graph := testutil.CreateTestGraph()
	executor := &scriptedExecutor{}
	sink := &captureSink{}

	result, err := newTestOrchestrator(graph, executor, sink).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, result.Done)
	assert.Equal(t, 0, result.Blocked)
	assert.Equal(t, 0, result.Pending)
	assert.False(t, result.Cancelled)
	assert.Equal(t, graph.ID, result.GraphID)
	assert.NotEmpty(t, result.RunID)

	for _, node := range graph.Nodes {
		assert.Equal(t, models.NodeStatusDone, node.Status)
		assert.Equal(t, "out:"+node.ID, node.Output)
		assert.Empty(t, node.Error)
	}

	// The context is threaded: each node sees the previous node's output.
	assert.Equal(t, []string{
		graph.SourceIdea,
		"out:node-1",
		"out:node-2",
	}, executor.callInputs())

	require.Len(t, result.Context.ExecutedNodes, 3)
	assert.Equal(t, "out:node-3", result.Context.CurrentInput)
	assert.Equal(t, graph.SourceIdea, result.Context.OriginalIdea)

	assert.Equal(t, []events.EventType{
		events.RunStartedEvent,
		events.NodeStartedEvent, events.NodeSucceededEvent,
		events.NodeStartedEvent, events.NodeSucceededEvent,
		events.NodeStartedEvent, events.NodeSucceededEvent,
		events.RunCompletedEvent,
	}, sink.types())
}

func TestOrchestrator_PartialFailureContinues(t *testing.T) {
	graph := testutil.CreateTestGraph()
	executor := &scriptedExecutor{fail: map[string]string{"node-2": "sentiment service unavailable"}}
	sink := &captureSink{}

	result, err := newTestOrchestrator(graph, executor, sink).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, result.Done)
	assert.Equal(t, 1, result.Blocked)
	assert.Equal(t, 0, result.Pending)

	assert.Equal(t, models.NodeStatusDone, graph.Nodes[0].Status)
	assert.Equal(t, models.NodeStatusBlocked, graph.Nodes[1].Status)
	assert.Equal(t, "sentiment service unavailable", graph.Nodes[1].Error)
	assert.Empty(t, graph.Nodes[1].Output)
	assert.Equal(t, models.NodeStatusDone, graph.Nodes[2].Status)

	// A blocked node contributes nothing: node-3 still sees node-1's output.
	assert.Equal(t, []string{
		graph.SourceIdea,
		"out:node-1",
		"out:node-1",
	}, executor.callInputs())

	require.Len(t, result.Context.ExecutedNodes, 2)
	assert.Equal(t, "node-1", result.Context.ExecutedNodes[0].NodeID)
	assert.Equal(t, "node-3", result.Context.ExecutedNodes[1].NodeID)

	assert.Contains(t, sink.types(), events.NodeFailedEvent)
	assert.Equal(t, events.RunCompletedEvent, sink.types()[len(sink.types())-1])
}

func TestOrchestrator_ExecutorErrorBlocksNode(t *testing.T) {
	graph := testutil.CreateTestGraph()
	executor := &scriptedExecutor{errs: map[string]error{"node-1": errors.New("connection refused")}}

	result, err := newTestOrchestrator(graph, executor, &captureSink{}).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, models.NodeStatusBlocked, graph.Nodes[0].Status)
	assert.Equal(t, "connection refused", graph.Nodes[0].Error)
	assert.Equal(t, 2, result.Done)
	assert.Equal(t, 1, result.Blocked)
}

func TestOrchestrator_CancelStopsAtNodeBoundary(t *testing.T) {
	graph := testutil.CreateTestGraph()
	executor := &scriptedExecutor{}
	sink := &captureSink{}
	orchestrator := newTestOrchestrator(graph, executor, sink)

	// Request cancellation while the first node is in flight: it finishes,
	// the rest never start.
	executor.onStart = func(nodeID string) {
		if nodeID == "node-1" {
			orchestrator.Cancel()
		}
	}

	result, err := orchestrator.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, result.Cancelled)
	assert.Equal(t, 1, result.Done)
	assert.Equal(t, 0, result.Blocked)
	assert.Equal(t, 2, result.Pending)

	assert.Equal(t, []string{"node-1"}, executor.callIDs())
	assert.Equal(t, models.NodeStatusDone, graph.Nodes[0].Status)
	assert.Equal(t, models.NodeStatusPending, graph.Nodes[1].Status)
	assert.Equal(t, models.NodeStatusPending, graph.Nodes[2].Status)

	types := sink.types()
	assert.Equal(t, events.RunCancelledEvent, types[len(types)-1])
}

func TestOrchestrator_ContextCancellationStopsRun(t *testing.T) {
	graph := testutil.CreateTestGraph()
	executor := &scriptedExecutor{}
	orchestrator := newTestOrchestrator(graph, executor, &captureSink{})

	ctx, cancel := context.WithCancel(context.Background())
	executor.onStart = func(nodeID string) {
		if nodeID == "node-2" {
			cancel()
		}
	}

	result, err := orchestrator.Run(ctx)
	require.NoError(t, err)

	assert.True(t, result.Cancelled)
	assert.Equal(t, 2, result.Done)
	assert.Equal(t, 1, result.Pending)
}

func TestOrchestrator_SecondRunRejected(t *testing.T) {
	graph := testutil.CreateTestGraph()
	executor := &scriptedExecutor{}
	orchestrator := newTestOrchestrator(graph, executor, &captureSink{})

	started := make(chan struct{})
	release := make(chan struct{})

	var once sync.Once

	executor.onStart = func(string) {
		once.Do(func() { close(started) })
		<-release
	}

	done := make(chan error, 1)

	go func() {
		_, err := orchestrator.Run(context.Background())
		done <- err
	}()

	select {
	case <-started:
	case <-time.After(2 * time.Second):
		t.Fatal("run never started")
	}

	_, err := orchestrator.Run(context.Background())
	assert.ErrorIs(t, err, workflow.ErrRunActive)
	assert.True(t, orchestrator.Running())

	close(release)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("run never finished")
	}

	assert.False(t, orchestrator.Running())
}

func TestOrchestrator_RunResetsPreviousState(t *testing.T) {
	graph := testutil.CreateTestGraph()
	graph.Nodes[0].MarkDone("stale output")
	graph.Nodes[1].MarkBlocked("stale error")

	executor := &scriptedExecutor{}

	result, err := newTestOrchestrator(graph, executor, &captureSink{}).Run(context.Background())
	require.NoError(t, err)

	assert.Len(t, executor.callIDs(), 3)
	assert.Equal(t, 3, result.Done)
	assert.Equal(t, "out:node-1", graph.Nodes[0].Output)
	assert.Empty(t, graph.Nodes[1].Error)
}

func TestOrchestrator_EmptyGraphCompletes(t *testing.T) {
	graph := testutil.CreateTestGraph(testutil.WithNodes(), testutil.WithEdges())
	executor := &scriptedExecutor{}
	sink := &captureSink{}

	result, err := newTestOrchestrator(graph, executor, sink).Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 0, result.Done)
	assert.Empty(t, executor.callIDs())
	assert.Equal(t, []events.EventType{events.RunStartedEvent, events.RunCompletedEvent}, sink.types())
}

func TestOrchestrator_CancelBeforeRunHasNoEffect(t *testing.T) {
	graph := testutil.CreateTestGraph()
	orchestrator := newTestOrchestrator(graph, &scriptedExecutor{}, &captureSink{})

	orchestrator.Cancel()

	result, err := orchestrator.Run(context.Background())
	require.NoError(t, err)

	assert.False(t, result.Cancelled)
	assert.Equal(t, 3, result.Done)
}
