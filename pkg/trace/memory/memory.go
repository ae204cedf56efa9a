// Package memory provides a process-local trace recorder for single-binary
// deployments and tests.
package memory

import (
	"context"
	"sync"

	"github.com/ideonhq/ideon/pkg/models"
	"github.com/ideonhq/ideon/pkg/trace"
)

// Recorder implements trace.Recorder on a mutex-guarded map keyed by graph id.
type Recorder struct {
	mu     sync.Mutex
	traces map[string][]models.TraceEntry
}

// NewRecorder creates an empty in-process recorder.
func NewRecorder() *Recorder {
	return &Recorder{traces: make(map[string][]models.TraceEntry)}
}

func (r *Recorder) Append(_ context.Context, graphID string, entry models.TraceEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.traces[graphID] = append(r.traces[graphID], entry)

	return nil
}

func (r *Recorder) Window(_ context.Context, graphID string, limit int) ([]models.TraceEntry, error) {
	if limit <= 0 {
		limit = trace.DefaultWindow
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	entries := r.traces[graphID]
	if len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	window := make([]models.TraceEntry, len(entries))
	copy(window, entries)

	return window, nil
}

func (r *Recorder) Clear(_ context.Context, graphID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.traces, graphID)

	return nil
}

func (r *Recorder) Close() error {
	return nil
}
