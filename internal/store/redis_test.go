package store

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stellar/graphql-stitcher/internal/data"
)

// setupTestRedis creates a new miniredis instance and returns a RedisStore connected to it
func setupTestRedis(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)

	store, err := NewRedisStore(t.Context(), "redis://"+mr.Addr())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() }) //nolint:errcheck // test code

	return store, mr
}

func TestNewRedisStore(t *testing.T) {
	t.Run("invalid_url", func(t *testing.T) {
		store, err := NewRedisStore(t.Context(), "http://localhost:6379")
		require.Error(t, err)
		assert.Nil(t, store)
		assert.Contains(t, err.Error(), "parsing redis URL")
	})

	t.Run("redis_down", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		store, err := NewRedisStore(t.Context(), "redis://"+addr)
		require.Error(t, err)
		assert.Nil(t, store)
		assert.Contains(t, err.Error(), "pinging redis")
	})
}

func TestRedisStore_UpsertAndGet(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := t.Context()
	fetchedAt := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, store.Upsert(ctx, "heroes", []byte(`{"data":{}}`), fetchedAt))
	assert.True(t, mr.Exists(DefaultSnapshotsKey))

	snapshot, err := store.Get(ctx, "heroes")
	require.NoError(t, err)
	assert.Equal(t, &data.SchemaSnapshot{Backend: "heroes", Document: `{"data":{}}`, FetchedAt: fetchedAt}, snapshot)

	t.Run("upsert_replaces", func(t *testing.T) {
		later := fetchedAt.Add(time.Minute)
		require.NoError(t, store.Upsert(ctx, "heroes", []byte(`{"data":{"__schema":{}}}`), later))

		snapshot, err := store.Get(ctx, "heroes")
		require.NoError(t, err)
		assert.Equal(t, `{"data":{"__schema":{}}}`, snapshot.Document)
		assert.Equal(t, later, snapshot.FetchedAt)
	})

	t.Run("not_found", func(t *testing.T) {
		snapshot, err := store.Get(ctx, "villains")
		assert.ErrorIs(t, err, data.ErrSnapshotNotFound)
		assert.Nil(t, snapshot)
	})

	t.Run("corrupted_value", func(t *testing.T) {
		mr.HSet(DefaultSnapshotsKey, "broken", "not json")

		_, err := store.Get(ctx, "broken")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "decoding schema snapshot of broken")
	})
}

func TestRedisStore_GetAll(t *testing.T) {
	store, mr := setupTestRedis(t)
	ctx := t.Context()
	fetchedAt := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)

	snapshots, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshots)

	require.NoError(t, store.Upsert(ctx, "villains", []byte(`{"v":1}`), fetchedAt))
	require.NoError(t, store.Upsert(ctx, "heroes", []byte(`{"h":1}`), fetchedAt))

	snapshots, err = store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, "heroes", snapshots[0].Backend)
	assert.Equal(t, `{"h":1}`, snapshots[0].Document)
	assert.Equal(t, "villains", snapshots[1].Backend)

	t.Run("redis_down", func(t *testing.T) {
		mr.Close()

		_, err := store.GetAll(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "getting schema snapshots")
	})
}
