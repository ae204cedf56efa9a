package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ideonhq/ideon/pkg/protocol"
)

var _ protocol.TriggerFactory = (*Factory)(nil)

// Factory creates queue triggers.
type Factory struct{}

// NewFactory creates a new queue trigger factory.
func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) ID() string {
	return "queue"
}

func (f *Factory) Name() string {
	return "Queue"
}

func (f *Factory) Description() string {
	return "Pops JSON run requests from a Redis list and starts the graph each message names."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"provider": map[string]any{
				"type":        "string",
				"description": "Queue backend. Only redis is supported.",
				"enum":        []string{"redis"},
				"default":     "redis",
			},
			"queue": map[string]any{
				"type":        "string",
				"description": "Name of the list to consume run requests from.",
				"examples":    []string{"ideon:runs"},
			},
			"connection": map[string]any{
				"type":        "object",
				"description": "Redis connection settings.",
				"properties": map[string]any{
					"addr":     map[string]any{"type": "string", "default": "localhost:6379"},
					"password": map[string]any{"type": "string"},
					"db":       map[string]any{"type": "string", "default": "0"},
				},
			},
		},
		"required": []string{"queue"},
	}
}

func (f *Factory) Create(ctx context.Context, config map[string]any, logger *slog.Logger) (protocol.Trigger, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}

	trigger, err := NewTrigger(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create queue trigger: %w", err)
	}

	return trigger, nil
}
