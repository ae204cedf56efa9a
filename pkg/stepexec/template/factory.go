package template

import (
	"context"
	"log/slog"

	"github.com/ideonhq/ideon/pkg/protocol"
)

var _ protocol.StepExecutorFactory = (*Factory)(nil)

// Factory creates template step executors.
type Factory struct{}

// NewFactory creates a new template executor factory.
func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) ID() string {
	return "template"
}

func (f *Factory) Name() string {
	return "Template"
}

func (f *Factory) Description() string {
	return "Renders a text template for each node instead of doing real work. Useful for development, demos and tests."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"template": map[string]any{
				"type":        "string",
				"description": "Go text/template rendered per node. Has access to node, original_idea, current_input, executed_nodes and env.",
				"examples":    []string{"{{.node.title}}: handled {{.current_input}}"},
			},
		},
		"required": []string{},
	}
}

func (f *Factory) Create(ctx context.Context, config map[string]any, logger *slog.Logger) (protocol.StepExecutor, error) {
	return NewExecutor(config, logger)
}
