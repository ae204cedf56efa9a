// Package redis provides the redis-backed trace recorder shared by workers.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/ideonhq/ideon/pkg/models"
	"github.com/ideonhq/ideon/pkg/trace"
)

const connectTimeout = 5 * time.Second

// Recorder implements trace.Recorder on a redis list per graph. Entries are
// stored as JSON documents in append order.
type Recorder struct {
	client goredis.UniversalClient
}

// NewRecorder connects to redis at redisURL and verifies the connection.
func NewRecorder(ctx context.Context, redisURL string) (*Recorder, error) {
	options, err := goredis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := goredis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	err = client.Ping(pingCtx).Err()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Recorder{client: client}, nil
}

func (r *Recorder) Append(ctx context.Context, graphID string, entry models.TraceEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal trace entry: %w", err)
	}

	err = r.client.RPush(ctx, traceKey(graphID), payload).Err()
	if err != nil {
		return fmt.Errorf("failed to append trace entry for graph %s: %w", graphID, err)
	}

	return nil
}

func (r *Recorder) Window(ctx context.Context, graphID string, limit int) ([]models.TraceEntry, error) {
	if limit <= 0 {
		limit = trace.DefaultWindow
	}

	raw, err := r.client.LRange(ctx, traceKey(graphID), int64(-limit), -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read trace for graph %s: %w", graphID, err)
	}

	entries := make([]models.TraceEntry, 0, len(raw))

	for _, item := range raw {
		var entry models.TraceEntry

		err := json.Unmarshal([]byte(item), &entry)
		if err != nil {
			return nil, fmt.Errorf("failed to unmarshal trace entry: %w", err)
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

func (r *Recorder) Clear(ctx context.Context, graphID string) error {
	err := r.client.Del(ctx, traceKey(graphID)).Err()
	if err != nil {
		return fmt.Errorf("failed to clear trace for graph %s: %w", graphID, err)
	}

	return nil
}

func (r *Recorder) Close() error {
	err := r.client.Close()
	if err != nil {
		return fmt.Errorf("failed to close redis client: %w", err)
	}

	return nil
}

func traceKey(graphID string) string {
	return "trace:" + graphID
}
