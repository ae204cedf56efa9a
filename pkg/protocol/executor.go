// Package protocol defines the contracts between the workflow engine and its
// pluggable collaborators: step executors, which perform the work a node
// describes, and triggers, which request runs in response to external
// signals.
package protocol

import (
	"context"
	"log/slog"

	"github.com/ideonhq/ideon/pkg/models"
)

// StepExecutor performs the work described by a single node. The engine
// delegates the node together with the accumulated execution context and
// interprets the result: success advances the context, failure blocks the
// node. Executors own their side effects; the engine applies no timeout and
// no retry.
type StepExecutor interface {
	Execute(ctx context.Context, node *models.WorkflowNode, execCtx models.ExecutionContext) (models.StepResult, error)
}

// StepExecutorFactory creates step executor instances and describes the
// executor type so registries can list it and validate configuration against
// its schema.
type StepExecutorFactory interface {
	// Create builds a new executor instance from the given configuration.
	Create(ctx context.Context, config map[string]any, logger *slog.Logger) (StepExecutor, error)

	// ID returns the unique identifier for this executor type.
	ID() string

	// Name returns the human-readable name for this executor type.
	Name() string

	// Description returns a description of what this executor does.
	Description() string

	// Schema returns the JSON schema for this executor's configuration.
	Schema() map[string]any
}
