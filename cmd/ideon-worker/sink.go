package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/ideonhq/ideon/pkg/eventbus"
	"github.com/ideonhq/ideon/pkg/events"
	"github.com/ideonhq/ideon/pkg/models"
	"github.com/ideonhq/ideon/pkg/otelhelper"
	"github.com/ideonhq/ideon/pkg/trace"
)

// traceOutputLimit keeps node outputs readable in the trace; the full output
// lives on the node itself.
const traceOutputLimit = 120

// runSink fans orchestrator lifecycle events out to the event bus, the trace
// recorder and per-node tracing spans. Emit is called synchronously from the
// run loop, one event at a time, so the single nodeSpan field is safe.
type runSink struct {
	graphID  string
	bus      eventbus.EventPublisher
	recorder trace.Recorder
	tracer   oteltrace.Tracer
	logger   *slog.Logger

	nodeSpan oteltrace.Span
}

func newRunSink(graphID string, bus eventbus.EventPublisher, recorder trace.Recorder, tracer oteltrace.Tracer, logger *slog.Logger) *runSink {
	return &runSink{
		graphID:  graphID,
		bus:      bus,
		recorder: recorder,
		tracer:   tracer,
		logger:   logger,
	}
}

func (s *runSink) Emit(ctx context.Context, event eventbus.Event) {
	if err := s.bus.Publish(ctx, s.graphID, event); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish run event", "type", event.GetType(), "error", err)
	}

	switch e := event.(type) {
	case events.RunStarted:
		s.append(ctx, models.TraceLevelInfo, fmt.Sprintf("Run started: %d nodes", e.NodeCount), "")
	case events.NodeStarted:
		_, s.nodeSpan = otelhelper.StartSpan(ctx, s.tracer, "graph.node",
			attribute.String(otelhelper.GraphIDKey, s.graphID),
			attribute.String(otelhelper.RunIDKey, e.RunID),
			attribute.String(otelhelper.NodeIDKey, e.NodeID),
			attribute.String(otelhelper.NodeCategoryKey, e.Category),
		)
		s.append(ctx, models.TraceLevelInfo, "Node started: "+e.Title, e.NodeID)
	case events.NodeSucceeded:
		s.endNodeSpan(nil)
		s.append(ctx, models.TraceLevelInfo, "Node done: "+snippet(e.Output), e.NodeID)
	case events.NodeFailed:
		s.endNodeSpan(errors.New(e.Error))
		s.append(ctx, models.TraceLevelError, "Node blocked: "+e.Error, e.NodeID)
	case events.RunCompleted:
		s.append(ctx, models.TraceLevelInfo,
			fmt.Sprintf("Run completed: %d done, %d blocked, %d pending", e.NodesDone, e.NodesBlocked, e.NodesPending), "")
	case events.RunCancelled:
		s.append(ctx, models.TraceLevelWarn,
			fmt.Sprintf("Run cancelled: %d done, %d blocked, %d pending", e.NodesDone, e.NodesBlocked, e.NodesPending), "")
	}
}

// append records a trace entry. Trace failures never fail a run.
func (s *runSink) append(ctx context.Context, level models.TraceLevel, message, nodeID string) {
	if err := s.recorder.Append(ctx, s.graphID, trace.NewEntry(level, message, nodeID)); err != nil {
		s.logger.WarnContext(ctx, "Failed to append trace entry", "error", err)
	}
}

func (s *runSink) endNodeSpan(err error) {
	if s.nodeSpan == nil {
		return
	}

	if err != nil {
		otelhelper.SetError(s.nodeSpan, err)
	}

	s.nodeSpan.End()
	s.nodeSpan = nil
}

func snippet(output string) string {
	if len(output) <= traceOutputLimit {
		return output
	}

	return output[:traceOutputLimit] + "..."
}
