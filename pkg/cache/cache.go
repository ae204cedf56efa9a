// Package cache defines the session key-value store used for run locks and
// last-run summaries. Implementations live in subpackages; callers receive
// the Store interface so single-binary deployments can run on the in-process
// store while multi-worker deployments share redis.
package cache

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned by Get when a key does not exist or its TTL has
// expired.
var ErrKeyNotFound = errors.New("cache: key not found")

// Store is an explicit key-value store with per-entry TTLs. A zero or
// negative ttl means the entry never expires.
type Store interface {
	// Get returns the value stored under key, or ErrKeyNotFound.
	Get(ctx context.Context, key string) (string, error)
	// Set stores value under key, replacing any existing entry.
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// SetIfAbsent stores value only when key has no live entry and reports
	// whether the write happened.
	SetIfAbsent(ctx context.Context, key, value string, ttl time.Duration) (bool, error)
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	Close() error
}

// IsKeyNotFound reports whether err means the key had no live entry.
func IsKeyNotFound(err error) bool {
	return errors.Is(err, ErrKeyNotFound)
}

// RunLockKey is the store key guarding a graph's single active run.
func RunLockKey(graphID string) string {
	return "run:lock:" + graphID
}

// LastRunKey is the store key holding a graph's most recent run summary.
func LastRunKey(graphID string) string {
	return "run:last:" + graphID
}
