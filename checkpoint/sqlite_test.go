package checkpoint

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentforge/core"
	"github.com/hupe1980/agentforge/internal/testutil"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "checkpoints.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	state := testutil.NewStateBuilder().
		UserMessage("build an agent").
		Scope("refined_prompt", "a detailed spec").
		History(core.Message{Role: core.RoleUser, Content: "build an agent"}).
		Build()
	cp := testutil.NewCheckpointBuilder("t1").State(state).Pending("clarify").Seq(4).Build()

	require.NoError(t, store.Save(ctx, cp))

	loaded, err := store.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "t1", loaded.ThreadID)
	assert.Equal(t, "clarify", loaded.PendingNode)
	assert.Equal(t, 4, loaded.Seq)
	assert.Equal(t, "a detailed spec", loaded.State.StringField("refined_prompt"))
	require.Len(t, loaded.State.History, 1)
	assert.Equal(t, core.RoleUser, loaded.State.History[0].Role)
	assert.False(t, loaded.UpdatedAt.IsZero())
}

func TestSQLiteStoreNotFound(t *testing.T) {
	store := newTestSQLiteStore(t)
	_, err := store.Load(context.Background(), "missing")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestSQLiteStoreUpsertReplacesRow(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testutil.NewCheckpointBuilder("t1").Pending("clarify").Seq(1).Build()))
	require.NoError(t, store.Save(ctx, testutil.NewCheckpointBuilder("t1").Seq(2).Build()))

	loaded, err := store.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.Seq)
	assert.Empty(t, loaded.PendingNode)
}

func TestSQLiteStoreSaveIsIdempotent(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	cp := testutil.NewCheckpointBuilder("t1").Pending("clarify").Seq(1).Build()
	require.NoError(t, store.Save(ctx, cp))
	require.NoError(t, store.Save(ctx, cp))

	loaded, err := store.Load(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Seq)
	assert.Equal(t, "clarify", loaded.PendingNode)
}

func TestSQLiteStoreDelete(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testutil.NewCheckpointBuilder("t1").Build()))
	require.NoError(t, store.Delete(ctx, "t1"))

	_, err := store.Load(ctx, "t1")
	assert.ErrorIs(t, err, core.ErrNotFound)

	// Deleting an absent row is not an error.
	assert.NoError(t, store.Delete(ctx, "t1"))
}

func TestSQLiteStoreIsolatesThreads(t *testing.T) {
	store := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, testutil.NewCheckpointBuilder("t1").Seq(1).Build()))
	require.NoError(t, store.Save(ctx, testutil.NewCheckpointBuilder("t2").Seq(7).Build()))

	cp1, err := store.Load(ctx, "t1")
	require.NoError(t, err)
	cp2, err := store.Load(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, 1, cp1.Seq)
	assert.Equal(t, 7, cp2.Seq)
}
