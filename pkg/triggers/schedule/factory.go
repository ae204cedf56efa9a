package schedule

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ideonhq/ideon/pkg/protocol"
)

var ErrConfigNil = errors.New("config cannot be nil")

var _ protocol.TriggerFactory = (*Factory)(nil)

// Factory creates schedule triggers.
type Factory struct{}

// NewFactory creates a new schedule trigger factory.
func NewFactory() *Factory {
	return &Factory{}
}

func (f *Factory) ID() string {
	return "schedule"
}

func (f *Factory) Name() string {
	return "Schedule"
}

func (f *Factory) Description() string {
	return "Requests graph runs on a cron schedule"
}

func (f *Factory) Schema() map[string]any {
	return map[string]any{
		"type":        "object",
		"title":       "Schedule Trigger Configuration",
		"description": "Configuration for cron-based graph runs",
		"properties": map[string]any{
			"cron": map[string]any{
				"type":        "string",
				"description": "Cron expression defining the schedule (standard 5-field format)",
				"examples": []string{
					"0 9 * * *",    // Daily at 9 AM
					"*/15 * * * *", // Every 15 minutes
					"0 0 1 * *",    // First day of every month
					"0 18 * * 5",   // Every Friday at 6 PM
				},
			},
			"graph_id": map[string]any{
				"type":        "string",
				"description": "ID of the graph to run on each firing",
			},
		},
		"required": []string{"cron", "graph_id"},
		"examples": []map[string]any{
			{
				"cron":     "0 2 * * *",
				"graph_id": "0198f2e4-7d4e-7a3b-9c1d-2e5f6a7b8c9d",
			},
			{
				"cron":     "*/15 * * * *",
				"graph_id": "0198f2e4-7d4e-7a3b-9c1d-2e5f6a7b8c9d",
			},
		},
	}
}

func (f *Factory) Create(ctx context.Context, config map[string]any, logger *slog.Logger) (protocol.Trigger, error) {
	if config == nil {
		return nil, ErrConfigNil
	}

	trigger, err := NewTrigger(config, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create schedule trigger: %w", err)
	}

	return trigger, nil
}
