package file_test

import (
	"context"
	"os"
	"path"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ideonhq/ideon/pkg/persistence"
	"github.com/ideonhq/ideon/pkg/persistence/file"
	"github.com/ideonhq/ideon/pkg/testutil"
)

func TestSaveAndGetGraph(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	ctx := context.Background()

	graph := testutil.CreateTestGraph(testutil.WithGraphID("graph-1"))
	require.NoError(t, store.SaveGraph(ctx, graph))

	loaded, err := store.GraphByID(ctx, "graph-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)

	assert.Equal(t, graph.ID, loaded.ID)
	assert.Equal(t, graph.SourceIdea, loaded.SourceIdea)
	require.Len(t, loaded.Nodes, 3)
	require.Len(t, loaded.Edges, 2)
	assert.Equal(t, graph.Nodes[0].Title, loaded.Nodes[0].Title)
	assert.Equal(t, graph.Edges[0].Label, loaded.Edges[0].Label)
}

func TestGetGraphByID_Missing(t *testing.T) {
	store := file.NewPersistence(t.TempDir())

	loaded, err := store.GraphByID(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestSaveGraph_GeneratesIDAndTimestamps(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	ctx := context.Background()

	graph := testutil.CreateTestGraph(testutil.WithGraphID(""))
	graph.CreatedAt = time.Time{}
	graph.UpdatedAt = time.Time{}

	require.NoError(t, store.SaveGraph(ctx, graph))

	assert.NotEmpty(t, graph.ID)
	assert.False(t, graph.CreatedAt.IsZero())
	assert.False(t, graph.UpdatedAt.IsZero())

	createdAt := graph.CreatedAt

	time.Sleep(10 * time.Millisecond)
	require.NoError(t, store.SaveGraph(ctx, graph))

	assert.Equal(t, createdAt, graph.CreatedAt)
	assert.True(t, graph.UpdatedAt.After(createdAt))
}

func TestGraphs_ListsNewestFirst(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	ctx := context.Background()

	older := testutil.CreateTestGraph(testutil.WithGraphID("older"))
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := testutil.CreateTestGraph(testutil.WithGraphID("newer"))
	newer.CreatedAt = time.Now().UTC()

	require.NoError(t, store.SaveGraph(ctx, older))
	require.NoError(t, store.SaveGraph(ctx, newer))

	graphs, err := store.Graphs(ctx)
	require.NoError(t, err)
	require.Len(t, graphs, 2)

	assert.Equal(t, "newer", graphs[0].ID)
	assert.Equal(t, "older", graphs[1].ID)
}

func TestGraphs_EmptyStore(t *testing.T) {
	store := file.NewPersistence(t.TempDir())

	graphs, err := store.Graphs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, graphs)
}

func TestDeleteGraph(t *testing.T) {
	store := file.NewPersistence(t.TempDir())
	ctx := context.Background()

	graph := testutil.CreateTestGraph(testutil.WithGraphID("graph-1"))
	require.NoError(t, store.SaveGraph(ctx, graph))
	require.NoError(t, store.DeleteGraph(ctx, "graph-1"))

	loaded, err := store.GraphByID(ctx, "graph-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Deleting again is not an error.
	assert.NoError(t, store.DeleteGraph(ctx, "graph-1"))
}

func TestGraphByID_CorruptFile(t *testing.T) {
	root := t.TempDir()
	store := file.NewPersistence(root)

	require.NoError(t, os.MkdirAll(path.Join(root, "graphs"), 0o750))
	require.NoError(t, os.WriteFile(path.Join(root, "graphs", "bad.json"), []byte("{nope"), 0o600))

	_, err := store.GraphByID(context.Background(), "bad")
	require.Error(t, err)
	assert.True(t, persistence.IsInvalidGraph(err))
}

func TestHealthCheck(t *testing.T) {
	root := t.TempDir()

	assert.NoError(t, file.NewPersistence(root).HealthCheck(context.Background()))
	assert.Error(t, file.NewPersistence(path.Join(root, "missing")).HealthCheck(context.Background()))
}

func TestNewPersistence_StripsFileScheme(t *testing.T) {
	root := t.TempDir()
	store := file.NewPersistence("file://" + root)

	assert.NoError(t, store.HealthCheck(context.Background()))
}
