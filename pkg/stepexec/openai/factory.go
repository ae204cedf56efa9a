package openai

import (
	"context"
	"log/slog"

	"github.com/ideonhq/ideon/pkg/protocol"
)

var _ protocol.StepExecutorFactory = (*Factory)(nil)

// Factory creates OpenAI step executors.
type Factory struct{}

// NewFactory creates a new OpenAI executor factory.
func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) ID() string {
	return "openai"
}

func (f *Factory) Name() string {
	return "OpenAI"
}

func (f *Factory) Description() string {
	return "Performs each step with an OpenAI-compatible chat completion. The prompt carries the original idea, completed step outputs and the current node."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"api_key": map[string]any{
				"type":        "string",
				"description": "API key for the chat completion endpoint.",
			},
			"model": map[string]any{
				"type":        "string",
				"description": "Model name sent with each completion request.",
				"default":     defaultModel,
				"examples":    []string{"gpt-4o-mini", "gpt-4o"},
			},
			"base_url": map[string]any{
				"type":        "string",
				"description": "Custom base URL for OpenAI-compatible providers. Leave empty for api.openai.com.",
			},
			"prompt": map[string]any{
				"type":        "string",
				"description": "Go text/template for the user prompt. Has access to node, original_idea, current_input, executed_nodes and env.",
			},
			"max_tokens": map[string]any{
				"type":        "number",
				"description": "Completion token limit per step.",
				"default":     defaultMaxTokens,
			},
			"temperature": map[string]any{
				"type":        "number",
				"description": "Sampling temperature. Omit to use the provider default.",
				"examples":    []float64{0.2},
			},
		},
		"required": []string{"api_key"},
	}
}

func (f *Factory) Create(ctx context.Context, config map[string]any, logger *slog.Logger) (protocol.StepExecutor, error) {
	return NewExecutor(config, logger)
}
