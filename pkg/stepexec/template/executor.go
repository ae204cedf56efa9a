// Package template provides a deterministic step executor that renders a text
// template for each node. It is the executor of choice for development and
// tests, where reproducible outputs matter more than real work.
package template

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ideonhq/ideon/pkg/models"
	tpl "github.com/ideonhq/ideon/pkg/template"
)

// DefaultTemplate is used when the configuration does not provide one. It
// threads the current input forward so multi-node runs show accumulation.
const DefaultTemplate = "{{.node.title}}: handled {{.current_input}}"

// Executor renders its template against each node and the execution context.
type Executor struct {
	template string
	logger   *slog.Logger
}

// NewExecutor creates a template executor. An empty template falls back to
// DefaultTemplate.
func NewExecutor(config map[string]any, logger *slog.Logger) (*Executor, error) {
	templateStr, _ := config["template"].(string)
	if templateStr == "" {
		templateStr = DefaultTemplate
	}

	return &Executor{
		template: templateStr,
		logger:   logger.With("module", "template_executor"),
	}, nil
}

// Execute renders the template. Render failures surface as errors so the
// engine blocks the node.
func (e *Executor) Execute(ctx context.Context, node *models.WorkflowNode, execCtx models.ExecutionContext) (models.StepResult, error) {
	if !tpl.NeedsTemplating(e.template) {
		return models.StepResult{Success: true, Output: e.template}, nil
	}

	output, err := tpl.RenderWithContext(e.template, node, execCtx)
	if err != nil {
		return models.StepResult{}, fmt.Errorf("failed to render step template: %w", err)
	}

	e.logger.DebugContext(ctx, "Rendered step output", "node_id", node.ID)

	return models.StepResult{Success: true, Output: output}, nil
}
