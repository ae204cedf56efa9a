// Package kafka provides a trigger that consumes run requests from a Kafka
// topic. Producers publish JSON messages carrying a graph_id; each message
// becomes one run request.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"github.com/ideonhq/ideon/pkg/protocol"
)

const (
	kafkaSessionTimeout    = 10 * time.Second
	kafkaHeartbeatInterval = 3 * time.Second
	kafkaRetryInterval     = 5 * time.Second
)

type Trigger struct {
	Topic         string
	ConsumerGroup string
	Brokers       []string

	consumer sarama.ConsumerGroup
	callback protocol.TriggerCallback
	logger   *slog.Logger
}

func NewTrigger(config map[string]any, logger *slog.Logger) (*Trigger, error) {
	topic, _ := config["topic"].(string)

	consumerGroup, _ := config["consumer_group"].(string)
	if consumerGroup == "" {
		consumerGroup = "ideon-triggers"
	}

	brokersStr, _ := config["brokers"].(string)
	if brokersStr == "" {
		brokersStr = os.Getenv("KAFKA_BROKERS")
		if brokersStr == "" {
			brokersStr = "localhost:9092"
		}
	}

	brokers := strings.Split(brokersStr, ",")
	for i, broker := range brokers {
		brokers[i] = strings.TrimSpace(broker)
	}

	trigger := &Trigger{
		Topic:         topic,
		ConsumerGroup: consumerGroup,
		Brokers:       brokers,
		logger: logger.With(
			"module", "kafka_trigger",
			"topic", topic,
			"consumer_group", consumerGroup,
		),
	}

	err := trigger.Validate()
	if err != nil {
		return nil, err
	}

	return trigger, nil
}

func (t *Trigger) Validate() error {
	if t.Topic == "" {
		return errors.New("kafka trigger topic is required")
	}

	if len(t.Brokers) == 0 {
		return errors.New("kafka trigger brokers are required")
	}

	return nil
}

func (t *Trigger) Start(ctx context.Context, callback protocol.TriggerCallback) error {
	t.logger.InfoContext(ctx, "Starting kafka trigger")
	t.callback = callback

	config := sarama.NewConfig()
	config.Version = sarama.V2_6_0_0
	config.Consumer.Group.Session.Timeout = kafkaSessionTimeout
	config.Consumer.Group.Heartbeat.Interval = kafkaHeartbeatInterval
	config.Consumer.Offsets.Initial = sarama.OffsetNewest
	config.Consumer.Return.Errors = true

	consumer, err := sarama.NewConsumerGroup(t.Brokers, t.ConsumerGroup, config)
	if err != nil {
		return fmt.Errorf("failed to create kafka consumer group: %w", err)
	}

	t.consumer = consumer

	go t.consume(ctx)
	go t.monitorErrors(ctx)

	return nil
}

func (t *Trigger) Stop(ctx context.Context) error {
	t.logger.InfoContext(ctx, "Stopping kafka trigger")

	if t.consumer != nil {
		err := t.consumer.Close()
		if err != nil {
			return fmt.Errorf("failed to close kafka consumer: %w", err)
		}
	}

	return nil
}

func (t *Trigger) consume(ctx context.Context) {
	handler := &consumerGroupHandler{trigger: t}

	for {
		if ctx.Err() != nil {
			t.logger.InfoContext(ctx, "Kafka consumer stopped")

			return
		}

		// Consume returns on every rebalance; the loop rejoins the group.
		err := t.consumer.Consume(ctx, []string{t.Topic}, handler)
		if err != nil {
			if errors.Is(err, sarama.ErrClosedConsumerGroup) {
				return
			}

			t.logger.ErrorContext(ctx, "Kafka consumer error", "error", err)
			time.Sleep(kafkaRetryInterval)
		}
	}
}

func (t *Trigger) monitorErrors(ctx context.Context) {
	for {
		select {
		case err, ok := <-t.consumer.Errors():
			if !ok {
				return
			}

			t.logger.ErrorContext(ctx, "Kafka consumer group error", "error", err)
		case <-ctx.Done():
			return
		}
	}
}

// handleMessage turns one Kafka message into a run request. Malformed
// messages and messages without a graph_id are discarded so a bad producer
// cannot wedge the partition.
func (t *Trigger) handleMessage(ctx context.Context, message *sarama.ConsumerMessage) {
	var payload map[string]any
	if err := json.Unmarshal(message.Value, &payload); err != nil {
		t.logger.WarnContext(ctx, "Discarding malformed kafka message", "error", err)

		return
	}

	graphID, _ := payload["graph_id"].(string)
	if graphID == "" {
		t.logger.WarnContext(ctx, "Discarding kafka message without graph_id")

		return
	}

	headers := make(map[string]string, len(message.Headers))
	for _, header := range message.Headers {
		headers[string(header.Key)] = string(header.Value)
	}

	triggerData := map[string]any{
		"topic":     message.Topic,
		"partition": message.Partition,
		"offset":    message.Offset,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"key":       string(message.Key),
		"message":   payload,
		"headers":   headers,
	}

	t.logger.InfoContext(ctx, "Received run request from kafka", "graph_id", graphID)

	err := t.callback(ctx, graphID, triggerData)
	if err != nil {
		t.logger.ErrorContext(ctx, "Error requesting graph run", "graph_id", graphID, "error", err)
	}
}

type consumerGroupHandler struct {
	trigger *Trigger
}

func (h *consumerGroupHandler) Setup(session sarama.ConsumerGroupSession) error {
	h.trigger.logger.InfoContext(session.Context(), "Kafka consumer group session started")

	return nil
}

func (h *consumerGroupHandler) Cleanup(session sarama.ConsumerGroupSession) error {
	h.trigger.logger.InfoContext(session.Context(), "Kafka consumer group session ended")

	return nil
}

func (h *consumerGroupHandler) ConsumeClaim(
	session sarama.ConsumerGroupSession,
	claim sarama.ConsumerGroupClaim,
) error {
	for message := range claim.Messages() {
		h.trigger.handleMessage(session.Context(), message)
		session.MarkMessage(message, "")
	}

	return nil
}
