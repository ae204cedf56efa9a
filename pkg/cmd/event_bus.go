package cmd

import (
	"fmt"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"

	"github.com/ideonhq/ideon/pkg/channels/gochannel"
	"github.com/ideonhq/ideon/pkg/channels/kafka"
	"github.com/ideonhq/ideon/pkg/eventbus"
)

// NewEventBus creates the event bus for the given provider. Kafka connects
// the API and workers across processes; service names the kafka consumer
// group, so all workers share one group while the API keeps its own. The
// default gochannel bus is in-process only, for development and
// single-binary deployments.
func NewEventBus(provider, service string, logger *slog.Logger) (eventbus.EventBus, error) {
	wmLogger := watermill.NewSlogLogger(logger)

	switch provider {
	case "kafka":
		pub, sub, err := kafka.CreateChannel(wmLogger, service)
		if err != nil {
			return nil, fmt.Errorf("failed to create kafka pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	case "", "gochannel":
		pub, sub, err := gochannel.CreateChannel(wmLogger)
		if err != nil {
			return nil, fmt.Errorf("failed to create gochannel pub/sub: %w", err)
		}

		return eventbus.NewWatermillEventBus(pub, sub), nil
	default:
		return nil, fmt.Errorf("unsupported event bus provider: %s", provider)
	}
}
