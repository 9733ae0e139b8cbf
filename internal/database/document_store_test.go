package database

import (
	"context"
	"path/filepath"
	"testing"

	"meal-planner/internal/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *DocumentStore {
	t.Helper()
	db, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewDocumentStore(db.SQL)
}

func TestDocumentStore(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	t.Run("GetMissing", func(t *testing.T) {
		_, err := store.Get(ctx, storage.KeyPlan)
		assert.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("PutOverwrites", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, storage.KeyConfig, []byte(`{"family_size":2}`)))
		require.NoError(t, store.Put(ctx, storage.KeyConfig, []byte(`{"family_size":3}`)))

		data, err := store.Get(ctx, storage.KeyConfig)
		require.NoError(t, err)
		assert.JSONEq(t, `{"family_size":3}`, string(data))
	})

	t.Run("KeysByPrefix", func(t *testing.T) {
		require.NoError(t, store.Put(ctx, "recipes/b", []byte(`{}`)))
		require.NoError(t, store.Put(ctx, "recipes/a", []byte(`{}`)))
		require.NoError(t, store.Put(ctx, "recipes_old", []byte(`{}`)))

		keys, err := store.Keys(ctx, storage.RecipePrefix)
		require.NoError(t, err)
		assert.Equal(t, []string{"recipes/a", "recipes/b"}, keys)

		require.NoError(t, store.Delete(ctx, "recipes/a"))
		keys, err = store.Keys(ctx, storage.RecipePrefix)
		require.NoError(t, err)
		assert.Equal(t, []string{"recipes/b"}, keys)
	})

	t.Run("AppendKeepsOrder", func(t *testing.T) {
		require.NoError(t, store.Append(ctx, storage.KeyHistory, []byte(`{"n":1}`)))
		require.NoError(t, store.Append(ctx, storage.KeyHistory, []byte(`{"n":2}`)))
		require.NoError(t, store.Append(ctx, "other", []byte(`{"n":3}`)))

		entries, err := store.Entries(ctx, storage.KeyHistory)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.JSONEq(t, `{"n":1}`, string(entries[0]))
		assert.JSONEq(t, `{"n":2}`, string(entries[1]))
	})
}

func TestNewDBIsReopenable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")

	db, err := NewDB(path)
	require.NoError(t, err)
	require.NoError(t, NewDocumentStore(db.SQL).Put(context.Background(), "k", []byte(`1`)))
	require.NoError(t, db.Close())

	db, err = NewDB(path)
	require.NoError(t, err)
	defer db.Close()

	data, err := NewDocumentStore(db.SQL).Get(context.Background(), "k")
	require.NoError(t, err)
	assert.Equal(t, "1", string(data))
}

func TestSchemaVersion(t *testing.T) {
	db, err := NewDB(filepath.Join(t.TempDir(), "version.db"))
	require.NoError(t, err)
	defer db.Close()

	v, err := db.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, uint(1), v)
}
