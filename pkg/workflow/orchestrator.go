package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ideonhq/ideon/pkg/eventbus"
	"github.com/ideonhq/ideon/pkg/events"
	"github.com/ideonhq/ideon/pkg/models"
	"github.com/ideonhq/ideon/pkg/protocol"
)

// ErrRunActive is returned when a run is requested while another run of the
// same graph is still in flight.
var ErrRunActive = errors.New("a run is already active for this graph")

// EventSink receives lifecycle events emitted during a run. Emit is called
// synchronously between state transitions, so implementations should be fast
// or hand off to their own goroutine.
type EventSink interface {
	Emit(ctx context.Context, event eventbus.Event)
}

// EmitFunc adapts a plain function to the EventSink interface.
type EmitFunc func(ctx context.Context, event eventbus.Event)

func (f EmitFunc) Emit(ctx context.Context, event eventbus.Event) {
	f(ctx, event)
}

// RunResult summarizes one finished run.
type RunResult struct {
	RunID     string
	GraphID   string
	Context   models.ExecutionContext
	Done      int
	Blocked   int
	Pending   int
	Cancelled bool
	StartedAt time.Time
	Duration  time.Duration
}

// Orchestrator drives one graph through complete runs. It owns the graph
// instance it was built with: node statuses are mutated in place and the
// caller persists the graph after the run returns. A single orchestrator
// never runs its graph concurrently; a second Run while one is in flight is
// rejected with ErrRunActive.
type Orchestrator struct {
	graph    *models.WorkflowGraph
	executor protocol.StepExecutor
	sink     EventSink
	logger   *slog.Logger
	workerID string

	running   atomic.Bool
	cancelled atomic.Bool
}

func NewOrchestrator(
	logger *slog.Logger,
	graph *models.WorkflowGraph,
	executor protocol.StepExecutor,
	sink EventSink,
	workerID string,
) *Orchestrator {
	if sink == nil {
		sink = EmitFunc(func(context.Context, eventbus.Event) {})
	}

	return &Orchestrator{
		graph:    graph,
		executor: executor,
		sink:     sink,
		logger:   logger.With("graph_id", graph.ID),
		workerID: workerID,
	}
}

// Run executes the whole graph once: reset every node, build a fresh
// execution context from the source idea, then walk the scheduled order. A
// failed node is marked blocked and the run continues (no retries); a
// cancellation request or context cancellation stops the run at the next
// node boundary, leaving remaining nodes pending. In-flight executor calls
// are never interrupted.
func (o *Orchestrator) Run(ctx context.Context) (*RunResult, error) {
	if !o.running.CompareAndSwap(false, true) {
		return nil, ErrRunActive
	}
	defer o.running.Store(false)

	o.cancelled.Store(false)

	runID := uuid.New().String()
	logger := o.logger.With("run_id", runID)
	startedAt := time.Now().UTC()

	for _, node := range o.graph.Nodes {
		node.Reset()
	}

	execCtx := models.NewExecutionContext(o.graph.SourceIdea)
	order := Schedule(o.graph)

	logger.InfoContext(ctx, "Run started", "nodes", len(order))
	o.sink.Emit(ctx, events.RunStarted{
		BaseEvent:  o.baseEvent(events.RunStartedEvent),
		RunID:      runID,
		SourceIdea: o.graph.SourceIdea,
		NodeCount:  len(order),
	})

	cancelled := false

	for _, node := range order {
		if o.cancelled.Load() || ctx.Err() != nil {
			cancelled = true

			break
		}

		node.MarkRunning()
		o.sink.Emit(ctx, events.NodeStarted{
			BaseEvent: o.baseEvent(events.NodeStartedEvent),
			RunID:     runID,
			NodeID:    node.ID,
			Title:     node.Title,
			Category:  string(node.Category),
		})

		nodeStarted := time.Now()
		result, err := o.executor.Execute(ctx, node, execCtx)
		elapsedMs := time.Since(nodeStarted).Milliseconds()

		if err != nil || !result.Success {
			message := result.Error
			if message == "" && err != nil {
				message = err.Error()
			}

			if message == "" {
				message = "step failed"
			}

			node.MarkBlocked(message)
			logger.ErrorContext(ctx, "Node blocked", "node_id", node.ID, "error", message)
			o.sink.Emit(ctx, events.NodeFailed{
				BaseEvent:  o.baseEvent(events.NodeFailedEvent),
				RunID:      runID,
				NodeID:     node.ID,
				Error:      message,
				DurationMs: elapsedMs,
			})

			continue
		}

		node.MarkDone(result.Output)
		execCtx = execCtx.Advance(node, result.Output)

		logger.InfoContext(ctx, "Node done", "node_id", node.ID)
		o.sink.Emit(ctx, events.NodeSucceeded{
			BaseEvent:  o.baseEvent(events.NodeSucceededEvent),
			RunID:      runID,
			NodeID:     node.ID,
			Output:     result.Output,
			DurationMs: elapsedMs,
		})
	}

	done, blocked, pending := o.tally()
	duration := time.Since(startedAt)

	runResult := &RunResult{
		RunID:     runID,
		GraphID:   o.graph.ID,
		Context:   execCtx,
		Done:      done,
		Blocked:   blocked,
		Pending:   pending,
		Cancelled: cancelled,
		StartedAt: startedAt,
		Duration:  duration,
	}

	if cancelled {
		logger.InfoContext(ctx, "Run cancelled", "done", done, "blocked", blocked, "pending", pending)
		o.sink.Emit(ctx, events.RunCancelled{
			BaseEvent:    o.baseEvent(events.RunCancelledEvent),
			RunID:        runID,
			DurationMs:   duration.Milliseconds(),
			NodesDone:    done,
			NodesBlocked: blocked,
			NodesPending: pending,
		})

		return runResult, nil
	}

	logger.InfoContext(ctx, "Run completed", "done", done, "blocked", blocked, "pending", pending)
	o.sink.Emit(ctx, events.RunCompleted{
		BaseEvent:    o.baseEvent(events.RunCompletedEvent),
		RunID:        runID,
		DurationMs:   duration.Milliseconds(),
		NodesDone:    done,
		NodesBlocked: blocked,
		NodesPending: pending,
		Summary:      o.graph.Summary,
	})

	return runResult, nil
}

// Cancel requests a cooperative stop of the in-flight run. The running node
// finishes; remaining nodes stay pending. Safe to call from any goroutine;
// when no run is active the request has no effect.
func (o *Orchestrator) Cancel() {
	o.cancelled.Store(true)
}

// Running reports whether a run is currently in flight.
func (o *Orchestrator) Running() bool {
	return o.running.Load()
}

// Graph returns the graph instance this orchestrator drives.
func (o *Orchestrator) Graph() *models.WorkflowGraph {
	return o.graph
}

func (o *Orchestrator) baseEvent(eventType events.EventType) events.BaseEvent {
	base := events.NewBaseEvent(eventType, o.graph.ID)
	base.WorkerID = o.workerID

	return base
}

func (o *Orchestrator) tally() (done, blocked, pending int) {
	for _, node := range o.graph.Nodes {
		switch node.Status {
		case models.NodeStatusDone:
			done++
		case models.NodeStatusBlocked:
			blocked++
		case models.NodeStatusPending:
			pending++
		case models.NodeStatusRunning:
			// A node can only be observed running mid-loop; by the time
			// tally runs the loop is over.
		}
	}

	return done, blocked, pending
}
