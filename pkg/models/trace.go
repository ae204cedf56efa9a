package models

import "time"

// TraceLevel classifies a trace entry.
type TraceLevel string

const (
	TraceLevelInfo  TraceLevel = "info"
	TraceLevelWarn  TraceLevel = "warn"
	TraceLevelError TraceLevel = "error"
)

// TraceEntry is one line in a graph's append-only execution trace. The log is
// unbounded; consumers window it for display.
type TraceEntry struct {
	ID        string     `json:"id"`
	Level     TraceLevel `json:"level"`
	Message   string     `json:"message"`
	Timestamp time.Time  `json:"timestamp"`
	NodeID    string     `json:"node_id,omitempty"`
}
