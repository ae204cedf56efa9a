package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/ideonhq/ideon/pkg/cache"
	"github.com/ideonhq/ideon/pkg/cache/memory"
	"github.com/ideonhq/ideon/pkg/eventbus"
	"github.com/ideonhq/ideon/pkg/events"
	"github.com/ideonhq/ideon/pkg/mocks"
	"github.com/ideonhq/ideon/pkg/models"
	"github.com/ideonhq/ideon/pkg/persistence"
	"github.com/ideonhq/ideon/pkg/persistence/file"
	"github.com/ideonhq/ideon/pkg/trace"
	tracememory "github.com/ideonhq/ideon/pkg/trace/memory"
	"github.com/ideonhq/ideon/pkg/workflow"
)

// captureBus records published events so tests can assert on run requests
// without a broker.
type captureBus struct {
	mu        sync.Mutex
	published []eventbus.Event
	keys      []string
	fail      error
}

func (b *captureBus) Publish(_ context.Context, key string, event eventbus.Event) error {
	if b.fail != nil {
		return b.fail
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	b.keys = append(b.keys, key)
	b.published = append(b.published, event)

	return nil
}

func (b *captureBus) Handle(events.EventType, eventbus.EventHandler) error { return nil }
func (b *captureBus) Subscribe(context.Context) error                      { return nil }
func (b *captureBus) Close() error                                         { return nil }
func (b *captureBus) GenerateID() string                                   { return "capture-bus" }

func (b *captureBus) events() []eventbus.Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	return append([]eventbus.Event(nil), b.published...)
}

type runFixture struct {
	service     *Run
	persistence persistence.Persistence
	store       cache.Store
	runLock     *cache.RunLock
	bus         *captureBus
	recorder    trace.Recorder
}

func newRunFixture(t *testing.T) *runFixture {
	t.Helper()

	store := memory.NewStore()
	t.Cleanup(func() { _ = store.Close() })

	f := &runFixture{
		persistence: file.NewPersistence(t.TempDir()),
		store:       store,
		runLock:     cache.NewRunLock(store, 0),
		bus:         &captureBus{},
		recorder:    tracememory.NewRecorder(),
	}
	f.service = NewRun(f.persistence, f.bus, f.store, f.runLock, f.recorder)

	return f
}

func (f *runFixture) buildGraph(t *testing.T) *models.WorkflowGraph {
	t.Helper()

	graph := workflow.BuildFromIdea(testIdea)
	require.NoError(t, f.persistence.SaveGraph(t.Context(), graph))

	return graph
}

func TestRun_Start(t *testing.T) {
	f := newRunFixture(t)
	graph := f.buildGraph(t)

	event, err := f.service.Start(t.Context(), graph.ID, "api", map[string]any{"source": "manual"})
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.NotEmpty(t, event.ID)
	assert.Equal(t, events.RunRequestedEvent, event.Type)
	assert.Equal(t, graph.ID, event.GraphID)
	assert.Equal(t, "api", event.RequestedBy)
	assert.Equal(t, "manual", event.TriggerData["source"])

	published := f.bus.events()
	require.Len(t, published, 1)
	assert.Equal(t, graph.ID, f.bus.keys[0])

	requested, ok := published[0].(events.RunRequested)
	require.True(t, ok)
	assert.Equal(t, event.ID, requested.ID)
}

func TestRun_Start_GraphNotFound(t *testing.T) {
	f := newRunFixture(t)

	event, err := f.service.Start(t.Context(), "non-existent", "api", nil)
	assert.Nil(t, event)
	assert.ErrorIs(t, err, ErrGraphNotFound)
	assert.Empty(t, f.bus.events())
}

func TestRun_Start_AlreadyRunning(t *testing.T) {
	f := newRunFixture(t)
	graph := f.buildGraph(t)

	acquired, err := f.runLock.Acquire(t.Context(), graph.ID, "worker-busy")
	require.NoError(t, err)
	require.True(t, acquired)

	event, err := f.service.Start(t.Context(), graph.ID, "api", nil)
	assert.Nil(t, event)
	assert.ErrorIs(t, err, ErrRunInProgress)
	assert.True(t, IsConflictError(err))
	assert.Empty(t, f.bus.events())
}

func TestRun_Start_PublishError(t *testing.T) {
	f := newRunFixture(t)
	graph := f.buildGraph(t)
	f.bus.fail = assert.AnError

	event, err := f.service.Start(t.Context(), graph.ID, "api", nil)
	assert.Nil(t, event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish run request")
}

func TestRun_Cancel(t *testing.T) {
	f := newRunFixture(t)
	graph := f.buildGraph(t)

	acquired, err := f.runLock.Acquire(t.Context(), graph.ID, "worker-busy")
	require.NoError(t, err)
	require.True(t, acquired)

	event, err := f.service.Cancel(t.Context(), graph.ID, "operator requested")
	require.NoError(t, err)
	require.NotNil(t, event)

	assert.Equal(t, events.RunCancelRequestedEvent, event.Type)
	assert.Equal(t, "operator requested", event.Reason)

	published := f.bus.events()
	require.Len(t, published, 1)

	cancel, ok := published[0].(events.RunCancelRequested)
	require.True(t, ok)
	assert.Equal(t, graph.ID, cancel.GraphID)
}

func TestRun_Cancel_NoActiveRun(t *testing.T) {
	f := newRunFixture(t)
	graph := f.buildGraph(t)

	event, err := f.service.Cancel(t.Context(), graph.ID, "too late")
	assert.Nil(t, event)
	assert.ErrorIs(t, err, ErrNoActiveRun)
	assert.True(t, IsConflictError(err))
	assert.Empty(t, f.bus.events())
}

func TestRun_Cancel_PublishError(t *testing.T) {
	f := newRunFixture(t)
	graph := f.buildGraph(t)

	acquired, err := f.runLock.Acquire(t.Context(), graph.ID, "worker-busy")
	require.NoError(t, err)
	require.True(t, acquired)

	bus := &mocks.MockEventBus{}
	bus.On("Publish", mock.Anything, graph.ID, mock.AnythingOfType("events.RunCancelRequested")).Return(assert.AnError)

	service := NewRun(f.persistence, bus, f.store, f.runLock, f.recorder)

	event, err := service.Cancel(t.Context(), graph.ID, "operator requested")
	assert.Nil(t, event)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to publish cancel request")
	bus.AssertExpectations(t)
}

func TestRun_Status_Idle(t *testing.T) {
	f := newRunFixture(t)
	graph := f.buildGraph(t)

	status, err := f.service.Status(t.Context(), graph.ID)
	require.NoError(t, err)

	assert.False(t, status.Active)
	assert.Empty(t, status.Worker)
	assert.Nil(t, status.LastRun)
}

func TestRun_Status_ActiveWithLastRun(t *testing.T) {
	f := newRunFixture(t)
	graph := f.buildGraph(t)

	acquired, err := f.runLock.Acquire(t.Context(), graph.ID, "worker-abc")
	require.NoError(t, err)
	require.True(t, acquired)

	summary := RunSummary{
		RunID:      "run-1",
		GraphID:    graph.ID,
		WorkerID:   "worker-abc",
		Done:       2,
		Blocked:    1,
		Cancelled:  false,
		StartedAt:  time.Now().UTC().Add(-time.Minute),
		DurationMs: 4200,
	}
	require.NoError(t, SaveRunSummary(t.Context(), f.store, summary))

	status, err := f.service.Status(t.Context(), graph.ID)
	require.NoError(t, err)

	assert.True(t, status.Active)
	assert.Equal(t, "worker-abc", status.Worker)
	require.NotNil(t, status.LastRun)
	assert.Equal(t, "run-1", status.LastRun.RunID)
	assert.Equal(t, 2, status.LastRun.Done)
	assert.Equal(t, 1, status.LastRun.Blocked)
	assert.Equal(t, int64(4200), status.LastRun.DurationMs)
	assert.WithinDuration(t, summary.StartedAt, status.LastRun.StartedAt, time.Second)
}

func TestRun_Status_GraphNotFound(t *testing.T) {
	f := newRunFixture(t)

	status, err := f.service.Status(t.Context(), "non-existent")
	assert.Nil(t, status)
	assert.ErrorIs(t, err, ErrGraphNotFound)
}

func TestRun_Trace(t *testing.T) {
	f := newRunFixture(t)
	graph := f.buildGraph(t)

	require.NoError(t, f.recorder.Append(t.Context(), graph.ID,
		trace.NewEntry(models.TraceLevelInfo, "run started", "")))
	require.NoError(t, f.recorder.Append(t.Context(), graph.ID,
		trace.NewEntry(models.TraceLevelInfo, "node done", "node-1")))

	entries, err := f.service.Trace(t.Context(), graph.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "run started", entries[0].Message)
	assert.Equal(t, "node done", entries[1].Message)
	assert.Equal(t, "node-1", entries[1].NodeID)
}

func TestRun_Trace_GraphNotFound(t *testing.T) {
	f := newRunFixture(t)

	entries, err := f.service.Trace(t.Context(), "non-existent", 10)
	assert.Nil(t, entries)
	assert.ErrorIs(t, err, ErrGraphNotFound)
}

func TestNewRunSummary(t *testing.T) {
	started := time.Now().UTC().Add(-2 * time.Second)
	result := &workflow.RunResult{
		RunID:     "run-9",
		GraphID:   "graph-9",
		Done:      3,
		Blocked:   0,
		Pending:   0,
		Cancelled: true,
		StartedAt: started,
		Duration:  1500 * time.Millisecond,
	}

	summary := NewRunSummary(result, "worker-9")

	assert.Equal(t, "run-9", summary.RunID)
	assert.Equal(t, "graph-9", summary.GraphID)
	assert.Equal(t, "worker-9", summary.WorkerID)
	assert.Equal(t, 3, summary.Done)
	assert.True(t, summary.Cancelled)
	assert.Equal(t, started, summary.StartedAt)
	assert.Equal(t, int64(1500), summary.DurationMs)
}
