package memory_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/ideonhq/ideon/pkg/models"
	"github.com/ideonhq/ideon/pkg/trace"
	"github.com/ideonhq/ideon/pkg/trace/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorder_AppendAndWindow(t *testing.T) {
	ctx := context.Background()
	recorder := memory.NewRecorder()

	first := trace.NewEntry(models.TraceLevelInfo, "run started", "")
	second := trace.NewEntry(models.TraceLevelInfo, "node done", "node-1")
	third := trace.NewEntry(models.TraceLevelError, "node blocked", "node-2")

	for _, entry := range []models.TraceEntry{first, second, third} {
		err := recorder.Append(ctx, "graph-1", entry)
		require.NoError(t, err)
	}

	window, err := recorder.Window(ctx, "graph-1", 10)
	require.NoError(t, err)
	require.Len(t, window, 3)

	// Append order is preserved
	assert.Equal(t, "run started", window[0].Message)
	assert.Equal(t, "node done", window[1].Message)
	assert.Equal(t, "node blocked", window[2].Message)
	assert.Equal(t, "node-2", window[2].NodeID)
	assert.Equal(t, models.TraceLevelError, window[2].Level)
	assert.NotEmpty(t, window[0].ID)
	assert.False(t, window[0].Timestamp.IsZero())
}

func TestRecorder_WindowKeepsNewest(t *testing.T) {
	ctx := context.Background()
	recorder := memory.NewRecorder()

	for i := 1; i <= 5; i++ {
		err := recorder.Append(ctx, "graph-1", trace.NewEntry(models.TraceLevelInfo, fmt.Sprintf("entry %d", i), ""))
		require.NoError(t, err)
	}

	window, err := recorder.Window(ctx, "graph-1", 2)
	require.NoError(t, err)
	require.Len(t, window, 2)
	assert.Equal(t, "entry 4", window[0].Message)
	assert.Equal(t, "entry 5", window[1].Message)
}

func TestRecorder_WindowDefaultLimit(t *testing.T) {
	ctx := context.Background()
	recorder := memory.NewRecorder()

	for i := range trace.DefaultWindow + 10 {
		err := recorder.Append(ctx, "graph-1", trace.NewEntry(models.TraceLevelInfo, fmt.Sprintf("entry %d", i), ""))
		require.NoError(t, err)
	}

	window, err := recorder.Window(ctx, "graph-1", 0)
	require.NoError(t, err)
	assert.Len(t, window, trace.DefaultWindow)
	assert.Equal(t, "entry 10", window[0].Message)
}

func TestRecorder_GraphIsolation(t *testing.T) {
	ctx := context.Background()
	recorder := memory.NewRecorder()

	err := recorder.Append(ctx, "graph-1", trace.NewEntry(models.TraceLevelInfo, "first graph", ""))
	require.NoError(t, err)

	err = recorder.Append(ctx, "graph-2", trace.NewEntry(models.TraceLevelInfo, "second graph", ""))
	require.NoError(t, err)

	window, err := recorder.Window(ctx, "graph-1", 10)
	require.NoError(t, err)
	require.Len(t, window, 1)
	assert.Equal(t, "first graph", window[0].Message)
}

func TestRecorder_EmptyGraph(t *testing.T) {
	ctx := context.Background()
	recorder := memory.NewRecorder()

	window, err := recorder.Window(ctx, "graph-1", 10)
	require.NoError(t, err)
	assert.Empty(t, window)
}

func TestRecorder_Clear(t *testing.T) {
	ctx := context.Background()
	recorder := memory.NewRecorder()

	err := recorder.Append(ctx, "graph-1", trace.NewEntry(models.TraceLevelInfo, "doomed", ""))
	require.NoError(t, err)

	err = recorder.Clear(ctx, "graph-1")
	require.NoError(t, err)

	window, err := recorder.Window(ctx, "graph-1", 10)
	require.NoError(t, err)
	assert.Empty(t, window)

	// Clearing an unknown graph is fine
	err = recorder.Clear(ctx, "graph-9")
	assert.NoError(t, err)
}
