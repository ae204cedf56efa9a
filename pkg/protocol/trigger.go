package protocol

import (
	"context"
	"log/slog"
)

// TriggerCallback is invoked by a trigger when it wants a graph run. The data
// map carries trigger-specific detail (queue payload, schedule expression,
// firing time) and is recorded on the resulting run request.
type TriggerCallback func(ctx context.Context, graphID string, data map[string]any) error

// Trigger is a long-running process that watches an external signal source
// and requests graph runs through its callback.
type Trigger interface {
	Start(ctx context.Context, callback TriggerCallback) error
	Stop(ctx context.Context) error
	Validate() error
}

// TriggerFactory creates trigger instances and describes the trigger type so
// registries can list it and validate configuration against its schema.
type TriggerFactory interface {
	// Create builds a new trigger instance from the given configuration.
	Create(ctx context.Context, config map[string]any, logger *slog.Logger) (Trigger, error)

	// ID returns the unique identifier for this trigger type.
	ID() string

	// Name returns the human-readable name for this trigger type.
	Name() string

	// Description returns a description of what this trigger does.
	Description() string

	// Schema returns the JSON schema for this trigger's configuration.
	Schema() map[string]any
}
