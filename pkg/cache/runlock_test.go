package cache_test

import (
	"context"
	"testing"
	"time"

	"github.com/ideonhq/ideon/pkg/cache"
	"github.com/ideonhq/ideon/pkg/cache/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunLock_AcquireAndRelease(t *testing.T) {
	ctx := context.Background()
	lock := cache.NewRunLock(memory.NewStore(), 0)

	acquired, err := lock.Acquire(ctx, "graph-1", "worker-a")
	require.NoError(t, err)
	assert.True(t, acquired)

	held, err := lock.Held(ctx, "graph-1")
	require.NoError(t, err)
	assert.True(t, held)

	owner, err := lock.Owner(ctx, "graph-1")
	require.NoError(t, err)
	assert.Equal(t, "worker-a", owner)

	// A second worker cannot claim the same graph
	acquired, err = lock.Acquire(ctx, "graph-1", "worker-b")
	require.NoError(t, err)
	assert.False(t, acquired)

	// Other graphs are unaffected
	acquired, err = lock.Acquire(ctx, "graph-2", "worker-b")
	require.NoError(t, err)
	assert.True(t, acquired)

	err = lock.Release(ctx, "graph-1")
	require.NoError(t, err)

	held, err = lock.Held(ctx, "graph-1")
	require.NoError(t, err)
	assert.False(t, held)

	acquired, err = lock.Acquire(ctx, "graph-1", "worker-b")
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestRunLock_ReleaseUnheld(t *testing.T) {
	ctx := context.Background()
	lock := cache.NewRunLock(memory.NewStore(), 0)

	err := lock.Release(ctx, "graph-1")
	assert.NoError(t, err)
}

func TestRunLock_OwnerWhenFree(t *testing.T) {
	ctx := context.Background()
	lock := cache.NewRunLock(memory.NewStore(), 0)

	owner, err := lock.Owner(ctx, "graph-1")
	require.NoError(t, err)
	assert.Empty(t, owner)
}

func TestRunLock_TTLExpiry(t *testing.T) {
	ctx := context.Background()
	lock := cache.NewRunLock(memory.NewStore(), 10*time.Millisecond)

	acquired, err := lock.Acquire(ctx, "graph-1", "worker-a")
	require.NoError(t, err)
	assert.True(t, acquired)

	time.Sleep(25 * time.Millisecond)

	// An expired lock is claimable again
	acquired, err = lock.Acquire(ctx, "graph-1", "worker-b")
	require.NoError(t, err)
	assert.True(t, acquired)
}

func TestRunLockKeys(t *testing.T) {
	assert.Equal(t, "run:lock:graph-9", cache.RunLockKey("graph-9"))
	assert.Equal(t, "run:last:graph-9", cache.LastRunKey("graph-9"))
}
