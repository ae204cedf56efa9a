package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/ideonhq/ideon/pkg/cache"
	cachememory "github.com/ideonhq/ideon/pkg/cache/memory"
	cacheredis "github.com/ideonhq/ideon/pkg/cache/redis"
	"github.com/ideonhq/ideon/pkg/trace"
	tracememory "github.com/ideonhq/ideon/pkg/trace/memory"
	traceredis "github.com/ideonhq/ideon/pkg/trace/redis"
)

func isRedisURL(url string) bool {
	return strings.HasPrefix(url, "redis://") || strings.HasPrefix(url, "rediss://")
}

// NewCacheStore returns the Redis-backed store when redisURL is set. The
// in-process store only makes sense when the API and worker share a process,
// since run locks and last-run summaries live in it.
func NewCacheStore(ctx context.Context, redisURL string) (cache.Store, error) {
	if redisURL == "" {
		return cachememory.NewStore(), nil
	}

	if !isRedisURL(redisURL) {
		return nil, fmt.Errorf("unsupported cache URL scheme: %s", redisURL)
	}

	store, err := cacheredis.NewStore(ctx, redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect cache store: %w", err)
	}

	return store, nil
}

// NewTraceRecorder mirrors NewCacheStore: Redis when configured, in-process
// otherwise.
func NewTraceRecorder(ctx context.Context, redisURL string) (trace.Recorder, error) {
	if redisURL == "" {
		return tracememory.NewRecorder(), nil
	}

	if !isRedisURL(redisURL) {
		return nil, fmt.Errorf("unsupported trace URL scheme: %s", redisURL)
	}

	recorder, err := traceredis.NewRecorder(ctx, redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect trace recorder: %w", err)
	}

	return recorder, nil
}
