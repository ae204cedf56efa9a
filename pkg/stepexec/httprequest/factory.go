package httprequest

import (
	"context"
	"log/slog"

	"github.com/ideonhq/ideon/pkg/protocol"
)

var _ protocol.StepExecutorFactory = (*Factory)(nil)

// Factory creates HTTP request step executors.
type Factory struct{}

// NewFactory creates a new HTTP request executor factory.
func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) ID() string {
	return "http_request"
}

func (f *Factory) Name() string {
	return "HTTP Request"
}

func (f *Factory) Description() string {
	return "Performs each step as an HTTP request. URL, headers and body are templates with access to the execution context; the response body becomes the step output."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{
				"type":        "string",
				"description": "Request URL. Rendered as a template before each step.",
				"examples":    []string{"https://api.example.com/steps/{{.node.id}}"},
			},
			"method": map[string]any{
				"type":        "string",
				"description": "HTTP method. Defaults to GET.",
				"examples":    []string{"GET", "POST", "PUT"},
			},
			"headers": map[string]any{
				"type":        "object",
				"description": "Request headers. Values are rendered as templates.",
			},
			"body": map[string]any{
				"type":        "string",
				"description": "Request body template. Has access to node, original_idea, current_input and executed_nodes.",
			},
			"timeout_seconds": map[string]any{
				"type":        "number",
				"description": "Per-request timeout. Defaults to 30 seconds.",
				"default":     30,
			},
			"retry": map[string]any{
				"type":        "object",
				"description": "Retry behavior for transport errors and 5xx responses.",
				"properties": map[string]any{
					"attempts":      map[string]any{"type": "number", "default": 1},
					"delay_seconds": map[string]any{"type": "number", "default": 0},
				},
			},
		},
		"required": []string{"url"},
	}
}

func (f *Factory) Create(ctx context.Context, config map[string]any, logger *slog.Logger) (protocol.StepExecutor, error) {
	return NewExecutor(config, logger)
}
