package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ideonhq/ideon/pkg/cache"
	"github.com/ideonhq/ideon/pkg/eventbus"
	"github.com/ideonhq/ideon/pkg/events"
	"github.com/ideonhq/ideon/pkg/models"
	"github.com/ideonhq/ideon/pkg/persistence"
	"github.com/ideonhq/ideon/pkg/trace"
	"github.com/ideonhq/ideon/pkg/workflow"
)

// RunSummary is the cached record of a graph's most recent run.
type RunSummary struct {
	RunID      string    `json:"run_id"`
	GraphID    string    `json:"graph_id"`
	WorkerID   string    `json:"worker_id,omitempty"`
	Done       int       `json:"done"`
	Blocked    int       `json:"blocked"`
	Pending    int       `json:"pending"`
	Cancelled  bool      `json:"cancelled"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
}

// NewRunSummary converts an orchestrator run result into the cacheable
// summary record.
func NewRunSummary(result *workflow.RunResult, workerID string) RunSummary {
	return RunSummary{
		RunID:      result.RunID,
		GraphID:    result.GraphID,
		WorkerID:   workerID,
		Done:       result.Done,
		Blocked:    result.Blocked,
		Pending:    result.Pending,
		Cancelled:  result.Cancelled,
		StartedAt:  result.StartedAt,
		DurationMs: result.Duration.Milliseconds(),
	}
}

// SaveRunSummary records a finished run's summary as its graph's last run.
// Workers call this after the orchestrator returns; the record never expires
// and is replaced by the next run.
func SaveRunSummary(ctx context.Context, store cache.Store, summary RunSummary) error {
	payload, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode run summary: %w", err)
	}

	err = store.Set(ctx, cache.LastRunKey(summary.GraphID), string(payload), 0)
	if err != nil {
		return fmt.Errorf("failed to cache run summary for graph %s: %w", summary.GraphID, err)
	}

	return nil
}

// RunStatus is the live view of a graph's run state.
type RunStatus struct {
	Active  bool        `json:"active"`
	Worker  string      `json:"worker,omitempty"`
	LastRun *RunSummary `json:"last_run,omitempty"`
}

// Run implements run control: requesting and cancelling graph runs through
// the event bus and reading their outcomes back. The service never executes
// a graph itself; workers subscribed to the bus do.
type Run struct {
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	store       cache.Store
	runLock     *cache.RunLock
	recorder    trace.Recorder
}

// NewRun creates a new run service.
func NewRun(
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	store cache.Store,
	runLock *cache.RunLock,
	recorder trace.Recorder,
) *Run {
	return &Run{
		persistence: persistence,
		eventBus:    eventBus,
		store:       store,
		runLock:     runLock,
		recorder:    recorder,
	}
}

// Start publishes a run request for a graph. The returned event carries the
// request id; the run itself happens on whichever worker claims the graph's
// lock. The lock check here is a fast 409 for callers — the worker's acquire
// is what actually enforces the single-run invariant.
func (r *Run) Start(ctx context.Context, graphID, requestedBy string, triggerData map[string]any) (*events.RunRequested, error) {
	err := r.ensureExists(ctx, graphID)
	if err != nil {
		return nil, err
	}

	held, err := r.runLock.Held(ctx, graphID)
	if err != nil {
		return nil, err
	}

	if held {
		return nil, ErrRunInProgress
	}

	event := events.RunRequested{
		BaseEvent:   events.NewBaseEvent(events.RunRequestedEvent, graphID),
		RequestedBy: requestedBy,
		TriggerData: triggerData,
	}

	err = r.eventBus.Publish(ctx, graphID, event)
	if err != nil {
		return nil, fmt.Errorf("failed to publish run request for graph %s: %w", graphID, err)
	}

	return &event, nil
}

// Cancel asks the worker running a graph to stop at the next node boundary.
// Cancelling a graph with no active run is a conflict.
func (r *Run) Cancel(ctx context.Context, graphID, reason string) (*events.RunCancelRequested, error) {
	err := r.ensureExists(ctx, graphID)
	if err != nil {
		return nil, err
	}

	held, err := r.runLock.Held(ctx, graphID)
	if err != nil {
		return nil, err
	}

	if !held {
		return nil, ErrNoActiveRun
	}

	event := events.RunCancelRequested{
		BaseEvent: events.NewBaseEvent(events.RunCancelRequestedEvent, graphID),
		Reason:    reason,
	}

	err = r.eventBus.Publish(ctx, graphID, event)
	if err != nil {
		return nil, fmt.Errorf("failed to publish cancel request for graph %s: %w", graphID, err)
	}

	return &event, nil
}

// Status reports whether a run is active, which worker holds it, and the
// last recorded run summary if any.
func (r *Run) Status(ctx context.Context, graphID string) (*RunStatus, error) {
	err := r.ensureExists(ctx, graphID)
	if err != nil {
		return nil, err
	}

	owner, err := r.runLock.Owner(ctx, graphID)
	if err != nil {
		return nil, err
	}

	status := &RunStatus{
		Active: owner != "",
		Worker: owner,
	}

	value, err := r.store.Get(ctx, cache.LastRunKey(graphID))
	if err != nil {
		if cache.IsKeyNotFound(err) {
			return status, nil
		}

		return nil, fmt.Errorf("failed to read last run for graph %s: %w", graphID, err)
	}

	var summary RunSummary

	err = json.Unmarshal([]byte(value), &summary)
	if err != nil {
		return nil, fmt.Errorf("failed to decode last run for graph %s: %w", graphID, err)
	}

	status.LastRun = &summary

	return status, nil
}

// Trace returns the newest entries of a graph's execution trace, oldest
// first. A non-positive limit falls back to the recorder's default window.
func (r *Run) Trace(ctx context.Context, graphID string, limit int) ([]models.TraceEntry, error) {
	err := r.ensureExists(ctx, graphID)
	if err != nil {
		return nil, err
	}

	entries, err := r.recorder.Window(ctx, graphID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace for graph %s: %w", graphID, err)
	}

	return entries, nil
}

func (r *Run) ensureExists(ctx context.Context, graphID string) error {
	graph, err := r.persistence.GraphByID(ctx, graphID)
	if err != nil {
		return fmt.Errorf("failed to fetch graph: %w", err)
	}

	if graph == nil {
		return ErrGraphNotFound
	}

	return nil
}
