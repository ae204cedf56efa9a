// Package trace records per-graph execution traces. The trace is the
// human-readable companion to the event stream: one line per run and node
// transition, windowed for display.
package trace

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ideonhq/ideon/pkg/models"
)

// DefaultWindow is how many entries Window returns when the caller passes a
// non-positive limit.
const DefaultWindow = 50

// Recorder is an append-only per-graph trace log. Appending must not fail a
// run: callers log append errors and continue.
type Recorder interface {
	// Append adds one entry to graphID's trace.
	Append(ctx context.Context, graphID string, entry models.TraceEntry) error
	// Window returns at most limit of the newest entries in append order.
	Window(ctx context.Context, graphID string, limit int) ([]models.TraceEntry, error)
	// Clear drops graphID's whole trace. Used when the graph is deleted.
	Clear(ctx context.Context, graphID string) error
	Close() error
}

// NewEntry builds a trace entry stamped with a fresh id and UTC time. nodeID
// may be empty for run-level entries.
func NewEntry(level models.TraceLevel, message, nodeID string) models.TraceEntry {
	return models.TraceEntry{
		ID:        uuid.New().String(),
		Level:     level,
		Message:   message,
		Timestamp: time.Now().UTC(),
		NodeID:    nodeID,
	}
}
