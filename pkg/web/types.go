// Package web provides the HTTP handlers and request types for the graph API.
package web

import "time"

// BuildGraphRequest is the body for building a graph from an idea. Idea is
// deliberately not required: blank input falls back to a placeholder plan
// instead of failing.
type BuildGraphRequest struct {
	Idea string `json:"idea"`
}

// ConnectNodesRequest is the body for adding a dependency edge.
type ConnectNodesRequest struct {
	Source string `json:"source" validate:"required"`
	Target string `json:"target" validate:"required"`
}

// StartRunRequest is the optional body for requesting a run.
type StartRunRequest struct {
	RequestedBy string         `json:"requested_by,omitempty"`
	TriggerData map[string]any `json:"trigger_data,omitempty"`
}

// CancelRunRequest is the optional body for cancelling a run.
type CancelRunRequest struct {
	Reason string `json:"reason,omitempty"`
}

// RunAcceptedResponse acknowledges an asynchronous run or cancel request.
// The request id identifies the published event, not a run: the run id is
// assigned by the worker that picks the request up.
type RunAcceptedResponse struct {
	RequestID string    `json:"request_id"`
	GraphID   string    `json:"graph_id"`
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}
