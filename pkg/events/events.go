// Package events defines event types and structures for graph run lifecycle
// notifications.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic is the single stream all run lifecycle events are published to.
const Topic = "ideon.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Run intent events, consumed by workers.
	RunRequestedEvent       EventType = "run.requested"
	RunCancelRequestedEvent EventType = "run.cancel.requested"

	// Run lifecycle events, emitted by the orchestrator.
	RunStartedEvent   EventType = "run.started"
	RunCompletedEvent EventType = "run.completed"
	RunCancelledEvent EventType = "run.cancelled"

	// Node transition events, emitted by the orchestrator.
	NodeStartedEvent   EventType = "node.started"
	NodeSucceededEvent EventType = "node.succeeded"
	NodeFailedEvent    EventType = "node.failed"
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	GraphID   string         `json:"graph_id"`
	WorkerID  string         `json:"worker_id,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, graphID string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		GraphID:   graphID,
		Metadata:  make(map[string]any),
	}
}

// RunRequested asks any available worker to execute a graph.
type RunRequested struct {
	BaseEvent

	RequestedBy string         `json:"requested_by,omitempty"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
}

func (e RunRequested) GetType() EventType {
	return RunRequestedEvent
}

// RunCancelRequested asks the worker running a graph to stop at the next
// node boundary.
type RunCancelRequested struct {
	BaseEvent

	Reason string `json:"reason,omitempty"`
}

func (e RunCancelRequested) GetType() EventType {
	return RunCancelRequestedEvent
}

type RunStarted struct {
	BaseEvent

	RunID      string `json:"run_id"`
	SourceIdea string `json:"source_idea,omitempty"`
	NodeCount  int    `json:"node_count"`
}

func (e RunStarted) GetType() EventType {
	return RunStartedEvent
}

type NodeStarted struct {
	BaseEvent

	RunID    string `json:"run_id"`
	NodeID   string `json:"node_id"`
	Title    string `json:"title"`
	Category string `json:"category"`
}

func (e NodeStarted) GetType() EventType {
	return NodeStartedEvent
}

type NodeSucceeded struct {
	BaseEvent

	RunID      string `json:"run_id"`
	NodeID     string `json:"node_id"`
	Output     string `json:"output,omitempty"`
	DurationMs int64  `json:"duration_ms"`
}

func (e NodeSucceeded) GetType() EventType {
	return NodeSucceededEvent
}

type NodeFailed struct {
	BaseEvent

	RunID      string `json:"run_id"`
	NodeID     string `json:"node_id"`
	Error      string `json:"error"`
	DurationMs int64  `json:"duration_ms"`
}

func (e NodeFailed) GetType() EventType {
	return NodeFailedEvent
}

// RunCompleted closes a run. Blocked counts nodes whose executor failed;
// pending counts nodes never reached.
type RunCompleted struct {
	BaseEvent

	RunID        string `json:"run_id"`
	DurationMs   int64  `json:"duration_ms"`
	NodesDone    int    `json:"nodes_done"`
	NodesBlocked int    `json:"nodes_blocked"`
	NodesPending int    `json:"nodes_pending"`
	Summary      string `json:"summary,omitempty"`
}

func (e RunCompleted) GetType() EventType {
	return RunCompletedEvent
}

// RunCancelled closes a run that stopped at a node boundary on request.
type RunCancelled struct {
	BaseEvent

	RunID        string `json:"run_id"`
	DurationMs   int64  `json:"duration_ms"`
	NodesDone    int    `json:"nodes_done"`
	NodesBlocked int    `json:"nodes_blocked"`
	NodesPending int    `json:"nodes_pending"`
}

func (e RunCancelled) GetType() EventType {
	return RunCancelledEvent
}
