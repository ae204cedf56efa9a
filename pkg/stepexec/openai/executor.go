// Package openai provides a step executor that performs each node with an
// OpenAI-compatible chat completion. The rendered prompt carries the original
// idea, the outputs of completed steps and the node being executed, so the
// model sees the same accumulated state a human operator would.
package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/ideonhq/ideon/pkg/models"
	tpl "github.com/ideonhq/ideon/pkg/template"
)

const (
	defaultModel     = "gpt-4o-mini"
	defaultMaxTokens = 1024
)

const systemPrompt = "You are a workflow step executor. You are given one step of a larger plan " +
	"together with the outputs of the steps already completed. Perform the step and reply with its " +
	"outcome as plain text. Be concrete and concise; your reply becomes the input of the next step."

const defaultPromptTemplate = `Plan: {{.original_idea}}
{{- if .executed_nodes}}

Completed steps:
{{- range .executed_nodes}}
- {{.title}}: {{.output}}
{{- end}}
{{- end}}

Current step: {{.node.title}}
{{- if .node.detail}}
Detail: {{.node.detail}}
{{- end}}
Category: {{.node.category}}
{{- if .node.search_query}}
Research hint: {{.node.search_query}}
{{- end}}

Input: {{.current_input}}`

// Config holds the chat completion settings for the executor.
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Prompt      string
	MaxTokens   int64
	Temperature *float64
}

// Executor performs workflow steps through the OpenAI Chat Completions API.
// A custom base URL points it at any OpenAI-compatible provider.
type Executor struct {
	client openai.Client
	config Config
	logger *slog.Logger
}

// NewExecutor creates an OpenAI step executor from its configuration map.
func NewExecutor(config map[string]any, logger *slog.Logger) (*Executor, error) {
	// Parse configuration
	execConfig := Config{
		Model:     defaultModel,
		Prompt:    defaultPromptTemplate,
		MaxTokens: defaultMaxTokens,
	}

	// Parse API key (required)
	if apiKey, ok := config["api_key"].(string); ok && apiKey != "" {
		execConfig.APIKey = apiKey
	} else {
		return nil, errors.New("missing required field 'api_key'")
	}

	// Parse optional fields
	if model, ok := config["model"].(string); ok && model != "" {
		execConfig.Model = model
	}

	if baseURL, ok := config["base_url"].(string); ok {
		execConfig.BaseURL = baseURL
	}

	if prompt, ok := config["prompt"].(string); ok && prompt != "" {
		execConfig.Prompt = prompt
	}

	if maxTokens, ok := config["max_tokens"].(float64); ok && maxTokens > 0 {
		execConfig.MaxTokens = int64(maxTokens)
	}

	if temperature, ok := config["temperature"].(float64); ok {
		execConfig.Temperature = &temperature
	}

	opts := []option.RequestOption{option.WithAPIKey(execConfig.APIKey)}
	if execConfig.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(execConfig.BaseURL))
	}

	return &Executor{
		client: openai.NewClient(opts...),
		config: execConfig,
		logger: logger.With("module", "openai_executor"),
	}, nil
}

// Execute renders the prompt for the node and asks the model to perform the
// step. The completion text becomes the node output.
func (e *Executor) Execute(ctx context.Context, node *models.WorkflowNode, execCtx models.ExecutionContext) (models.StepResult, error) {
	prompt, err := e.buildPrompt(node, execCtx)
	if err != nil {
		return models.StepResult{}, err
	}

	params := openai.ChatCompletionNewParams{
		Model: e.config.Model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		MaxCompletionTokens: openai.Int(e.config.MaxTokens),
	}

	if e.config.Temperature != nil {
		params.Temperature = openai.Float(*e.config.Temperature)
	}

	resp, err := e.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return models.StepResult{}, fmt.Errorf("chat completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return models.StepResult{}, errors.New("chat completion returned no choices")
	}

	e.logger.DebugContext(ctx, "Chat completion finished",
		"node_id", node.ID,
		"model", resp.Model,
		"prompt_tokens", resp.Usage.PromptTokens,
		"completion_tokens", resp.Usage.CompletionTokens)

	return models.StepResult{
		Success: true,
		Output:  strings.TrimSpace(resp.Choices[0].Message.Content),
	}, nil
}

func (e *Executor) buildPrompt(node *models.WorkflowNode, execCtx models.ExecutionContext) (string, error) {
	if !tpl.NeedsTemplating(e.config.Prompt) {
		return e.config.Prompt, nil
	}

	prompt, err := tpl.RenderWithContext(e.config.Prompt, node, execCtx)
	if err != nil {
		return "", fmt.Errorf("failed to render prompt template: %w", err)
	}

	return prompt, nil
}
