package cache

import (
	"context"
	"fmt"
	"time"
)

// DefaultRunLockTTL bounds how long a crashed worker can keep a graph locked.
// Healthy workers release the lock explicitly when the run returns.
const DefaultRunLockTTL = 15 * time.Minute

// RunLock enforces the one-active-run-per-graph invariant across processes
// through the session store.
type RunLock struct {
	store Store
	ttl   time.Duration
}

// NewRunLock wraps a store. A zero ttl falls back to DefaultRunLockTTL.
func NewRunLock(store Store, ttl time.Duration) *RunLock {
	if ttl <= 0 {
		ttl = DefaultRunLockTTL
	}

	return &RunLock{store: store, ttl: ttl}
}

// Acquire claims graphID's run lock for owner. It reports false when another
// owner already holds it.
func (l *RunLock) Acquire(ctx context.Context, graphID, owner string) (bool, error) {
	acquired, err := l.store.SetIfAbsent(ctx, RunLockKey(graphID), owner, l.ttl)
	if err != nil {
		return false, fmt.Errorf("failed to acquire run lock for graph %s: %w", graphID, err)
	}

	return acquired, nil
}

// Release frees graphID's run lock. Releasing an unheld lock is not an error.
func (l *RunLock) Release(ctx context.Context, graphID string) error {
	err := l.store.Delete(ctx, RunLockKey(graphID))
	if err != nil {
		return fmt.Errorf("failed to release run lock for graph %s: %w", graphID, err)
	}

	return nil
}

// Held reports whether any owner currently holds graphID's run lock.
func (l *RunLock) Held(ctx context.Context, graphID string) (bool, error) {
	_, err := l.store.Get(ctx, RunLockKey(graphID))
	if err != nil {
		if IsKeyNotFound(err) {
			return false, nil
		}

		return false, fmt.Errorf("failed to check run lock for graph %s: %w", graphID, err)
	}

	return true, nil
}

// Owner returns who holds graphID's run lock, or "" when it is free.
func (l *RunLock) Owner(ctx context.Context, graphID string) (string, error) {
	owner, err := l.store.Get(ctx, RunLockKey(graphID))
	if err != nil {
		if IsKeyNotFound(err) {
			return "", nil
		}

		return "", fmt.Errorf("failed to read run lock for graph %s: %w", graphID, err)
	}

	return owner, nil
}
