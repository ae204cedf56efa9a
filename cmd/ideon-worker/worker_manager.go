package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/ideonhq/ideon/pkg/cache"
	"github.com/ideonhq/ideon/pkg/eventbus"
	"github.com/ideonhq/ideon/pkg/events"
	"github.com/ideonhq/ideon/pkg/models"
	"github.com/ideonhq/ideon/pkg/otelhelper"
	"github.com/ideonhq/ideon/pkg/persistence"
	"github.com/ideonhq/ideon/pkg/protocol"
	"github.com/ideonhq/ideon/pkg/services"
	"github.com/ideonhq/ideon/pkg/trace"
	"github.com/ideonhq/ideon/pkg/workflow"
)

// WorkerManager consumes run requests from the event bus and drives each
// graph through the orchestrator. The shared run lock enforces one active
// run per graph across all workers.
type WorkerManager struct {
	id          string
	logger      *slog.Logger
	persistence persistence.Persistence
	eventBus    eventbus.EventBus
	store       cache.Store
	runLock     *cache.RunLock
	recorder    trace.Recorder
	executor    protocol.StepExecutor
	tracer      oteltrace.Tracer
	triggers    map[string]protocol.Trigger

	mu     sync.Mutex
	active map[string]*workflow.Orchestrator
}

func NewWorkerManager(
	id string,
	logger *slog.Logger,
	persistence persistence.Persistence,
	eventBus eventbus.EventBus,
	store cache.Store,
	recorder trace.Recorder,
	executor protocol.StepExecutor,
	tracer oteltrace.Tracer,
) *WorkerManager {
	return &WorkerManager{
		id:          id,
		logger:      logger.With("module", "ideon-worker", "worker_id", id),
		persistence: persistence,
		eventBus:    eventBus,
		store:       store,
		runLock:     cache.NewRunLock(store, 0),
		recorder:    recorder,
		executor:    executor,
		tracer:      tracer,
		triggers:    make(map[string]protocol.Trigger),
		active:      make(map[string]*workflow.Orchestrator),
	}
}

// AddTrigger registers a run-request source that Start will launch alongside
// the event subscription. The id tags the run requests it produces.
func (w *WorkerManager) AddTrigger(id string, trigger protocol.Trigger) {
	w.triggers[id] = trigger
}

// Start subscribes to run events, launches the registered triggers and
// blocks until a shutdown signal or context cancellation.
func (w *WorkerManager) Start(ctx context.Context) error {
	w.logger.InfoContext(ctx, "Starting worker manager")

	err := w.eventBus.Handle(events.RunRequestedEvent, w.handleRunRequested)
	if err != nil {
		return err
	}

	err = w.eventBus.Handle(events.RunCancelRequestedEvent, w.handleRunCancelRequested)
	if err != nil {
		return err
	}

	err = w.eventBus.Subscribe(ctx)
	if err != nil {
		w.logger.ErrorContext(ctx, "Failed to subscribe to event bus", "error", err)

		return err
	}

	for id, trigger := range w.triggers {
		err = trigger.Start(ctx, w.triggerCallback(id))
		if err != nil {
			return fmt.Errorf("failed to start %s trigger: %w", id, err)
		}
	}

	w.logger.InfoContext(ctx, "Worker started successfully")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		w.logger.InfoContext(ctx, "Shutting down worker...")
	case <-ctx.Done():
		w.logger.InfoContext(ctx, "Context cancelled, shutting down worker...")
	}

	w.stopTriggers(ctx)

	return nil
}

func (w *WorkerManager) stopTriggers(ctx context.Context) {
	for id, trigger := range w.triggers {
		if err := trigger.Stop(ctx); err != nil {
			w.logger.ErrorContext(ctx, "Failed to stop trigger", "trigger", id, "error", err)
		}
	}
}

// triggerCallback adapts a trigger firing into a run request on the bus, so
// queue messages and cron schedules flow through the same path as API calls.
func (w *WorkerManager) triggerCallback(triggerID string) protocol.TriggerCallback {
	return func(ctx context.Context, graphID string, data map[string]any) error {
		event := events.RunRequested{
			BaseEvent:   events.NewBaseEvent(events.RunRequestedEvent, graphID),
			RequestedBy: "trigger:" + triggerID,
			TriggerData: data,
		}
		event.WorkerID = w.id

		return w.eventBus.Publish(ctx, graphID, event)
	}
}

func (w *WorkerManager) handleRunRequested(ctx context.Context, event any) error {
	requested, ok := event.(*events.RunRequested)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for RunRequested")

		return nil
	}

	logger := w.logger.With(
		"graph_id", requested.GraphID,
		"event_id", requested.ID,
		"requested_by", requested.RequestedBy,
	)
	logger.InfoContext(ctx, "Processing run request")

	acquired, err := w.runLock.Acquire(ctx, requested.GraphID, w.id)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to acquire run lock", "error", err)

		return err
	}

	if !acquired {
		logger.InfoContext(ctx, "Run already in progress, dropping request")

		return nil
	}

	defer func() {
		// Release must survive a cancelled run context, otherwise the lock
		// lingers until its TTL expires.
		releaseCtx := context.WithoutCancel(ctx)
		if releaseErr := w.runLock.Release(releaseCtx, requested.GraphID); releaseErr != nil {
			logger.ErrorContext(ctx, "Failed to release run lock", "error", releaseErr)
		}
	}()

	graph, err := w.persistence.GraphByID(ctx, requested.GraphID)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to load graph", "error", err)

		return err
	}

	if graph == nil {
		logger.WarnContext(ctx, "Run requested for unknown graph, dropping request")

		return nil
	}

	return w.runGraph(ctx, logger, graph, requested)
}

func (w *WorkerManager) runGraph(ctx context.Context, logger *slog.Logger, graph *models.WorkflowGraph, requested *events.RunRequested) error {
	runCtx, span := otelhelper.StartSpan(ctx, w.tracer, "graph.run",
		attribute.String(otelhelper.GraphIDKey, graph.ID),
		attribute.String(otelhelper.WorkerIDKey, w.id),
		attribute.String(otelhelper.EventIDKey, requested.ID),
	)
	defer span.End()

	sink := newRunSink(graph.ID, w.eventBus, w.recorder, w.tracer, logger)
	orchestrator := workflow.NewOrchestrator(logger, graph, w.executor, sink, w.id)

	w.track(orchestrator)
	defer w.untrack(graph.ID)

	result, err := orchestrator.Run(runCtx)
	if err != nil {
		otelhelper.SetError(span, err)
		logger.ErrorContext(runCtx, "Run did not start", "error", err)

		return err
	}

	// The run may have ended through cancellation; its outcome still gets
	// persisted.
	saveCtx := context.WithoutCancel(runCtx)

	err = w.persistence.SaveGraph(saveCtx, graph)
	if err != nil {
		otelhelper.SetError(span, err)
		logger.ErrorContext(runCtx, "Failed to save graph after run", "error", err)

		return err
	}

	summary := services.NewRunSummary(result, w.id)
	if err := services.SaveRunSummary(saveCtx, w.store, summary); err != nil {
		logger.WarnContext(runCtx, "Failed to record run summary", "error", err)
	}

	span.SetAttributes(
		attribute.String(otelhelper.RunIDKey, result.RunID),
		attribute.Int("ideon.run.nodes_done", result.Done),
		attribute.Int("ideon.run.nodes_blocked", result.Blocked),
		attribute.Int("ideon.run.nodes_pending", result.Pending),
		attribute.Bool("ideon.run.cancelled", result.Cancelled),
	)

	logger.InfoContext(runCtx, "Run finished",
		"run_id", result.RunID,
		"done", result.Done,
		"blocked", result.Blocked,
		"pending", result.Pending,
		"cancelled", result.Cancelled,
	)

	return nil
}

func (w *WorkerManager) handleRunCancelRequested(ctx context.Context, event any) error {
	cancelRequest, ok := event.(*events.RunCancelRequested)
	if !ok {
		w.logger.ErrorContext(ctx, "Invalid event type for RunCancelRequested")

		return nil
	}

	logger := w.logger.With("graph_id", cancelRequest.GraphID, "reason", cancelRequest.Reason)

	w.mu.Lock()
	orchestrator, running := w.active[cancelRequest.GraphID]
	w.mu.Unlock()

	if !running {
		// TODO: workers share one kafka consumer group, so a cancel can be
		// delivered to a worker that is not running the graph and die here.
		// Cancels need fan-out delivery (a broadcast topic or per-worker
		// groups) before multi-worker deployments can rely on them.
		logger.InfoContext(ctx, "Cancel requested but no run is active on this worker")

		return nil
	}

	orchestrator.Cancel()
	logger.InfoContext(ctx, "Run cancellation requested")

	return nil
}

func (w *WorkerManager) track(orchestrator *workflow.Orchestrator) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.active[orchestrator.Graph().ID] = orchestrator
}

func (w *WorkerManager) untrack(graphID string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	delete(w.active, graphID)
}
