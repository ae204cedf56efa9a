package kafka

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ideonhq/ideon/pkg/protocol"
)

var _ protocol.TriggerFactory = (*Factory)(nil)

// Factory creates kafka triggers.
type Factory struct{}

// NewFactory creates a new kafka trigger factory.
func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) ID() string {
	return "kafka"
}

func (f *Factory) Name() string {
	return "Kafka"
}

func (f *Factory) Description() string {
	return "Consumes JSON run requests from a Kafka topic and starts the graph each message names."
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"topic": map[string]any{
				"type":        "string",
				"description": "Kafka topic to consume run requests from.",
				"examples":    []string{"ideon-runs"},
			},
			"consumer_group": map[string]any{
				"type":        "string",
				"description": "Consumer group ID. Defaults to ideon-triggers.",
				"default":     "ideon-triggers",
			},
			"brokers": map[string]any{
				"type":        "string",
				"description": "Comma-separated broker addresses. Falls back to KAFKA_BROKERS, then localhost:9092.",
				"examples":    []string{"localhost:9092", "kafka1:9092,kafka2:9092"},
			},
		},
		"required": []string{"topic"},
	}
}

func (f *Factory) Create(ctx context.Context, config map[string]any, logger *slog.Logger) (protocol.Trigger, error) {
	if config == nil {
		return nil, errors.New("config cannot be nil")
	}

	trigger, err := NewTrigger(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create kafka trigger: %w", err)
	}

	return trigger, nil
}
