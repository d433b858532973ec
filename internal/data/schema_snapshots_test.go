package data

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/stellar/graphql-stitcher/internal/db/dbtest"
	"github.com/stellar/graphql-stitcher/internal/metrics"
)

func newSchemaSnapshotModel(t *testing.T) (*SchemaSnapshotModel, *metrics.MockMetricsService) {
	t.Helper()

	mockMetricsService := metrics.NewMockMetricsService()
	t.Cleanup(func() { mockMetricsService.AssertExpectations(t) })

	return &SchemaSnapshotModel{
		DB:             dbtest.Open(t),
		MetricsService: mockMetricsService,
	}, mockMetricsService
}

func TestNewModels(t *testing.T) {
	t.Run("nil_db", func(t *testing.T) {
		models, err := NewModels(nil, metrics.NewMockMetricsService())
		require.EqualError(t, err, "ConnectionPool must be initialized")
		assert.Nil(t, models)
	})

	t.Run("nil_metrics", func(t *testing.T) {
		models, err := NewModels(dbtest.Open(t), nil)
		require.EqualError(t, err, "MetricsService must be initialized")
		assert.Nil(t, models)
	})

	t.Run("ok", func(t *testing.T) {
		models, err := NewModels(dbtest.Open(t), metrics.NewMockMetricsService())
		require.NoError(t, err)
		require.NotNil(t, models.SchemaSnapshots)
	})
}

func TestSchemaSnapshotModel_Upsert(t *testing.T) {
	ctx := context.Background()
	m, mockMetricsService := newSchemaSnapshotModel(t)
	mockMetricsService.
		On("ObserveDBQueryDuration", "UPSERT", "schema_snapshots", mock.Anything).Return().Twice().
		On("IncDBQuery", "UPSERT", "schema_snapshots").Return().Twice().
		On("ObserveDBQueryDuration", "SELECT", "schema_snapshots", mock.Anything).Return().Twice().
		On("IncDBQuery", "SELECT", "schema_snapshots").Return().Twice()

	firstFetch := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	secondFetch := firstFetch.Add(time.Hour)

	require.NoError(t, m.Upsert(ctx, "heroes", []byte(`{"data":{"__schema":{}}}`), firstFetch))

	snapshot, err := m.Get(ctx, "heroes")
	require.NoError(t, err)
	assert.Equal(t, "heroes", snapshot.Backend)
	assert.Equal(t, `{"data":{"__schema":{}}}`, snapshot.Document)
	assert.True(t, firstFetch.Equal(snapshot.FetchedAt), "got %s", snapshot.FetchedAt)

	require.NoError(t, m.Upsert(ctx, "heroes", []byte(`{"data":{"__schema":{"types":[]}}}`), secondFetch))

	snapshot, err = m.Get(ctx, "heroes")
	require.NoError(t, err)
	assert.Equal(t, `{"data":{"__schema":{"types":[]}}}`, snapshot.Document)
	assert.True(t, secondFetch.Equal(snapshot.FetchedAt), "got %s", snapshot.FetchedAt)
}

func TestSchemaSnapshotModel_Get_notFound(t *testing.T) {
	ctx := context.Background()
	m, mockMetricsService := newSchemaSnapshotModel(t)
	mockMetricsService.
		On("ObserveDBQueryDuration", "SELECT", "schema_snapshots", mock.Anything).Return().Once().
		On("IncDBQuery", "SELECT", "schema_snapshots").Return().Once()

	snapshot, err := m.Get(ctx, "heroes")
	require.ErrorIs(t, err, ErrSnapshotNotFound)
	assert.Nil(t, snapshot)
}

func TestSchemaSnapshotModel_GetAll(t *testing.T) {
	ctx := context.Background()
	m, mockMetricsService := newSchemaSnapshotModel(t)
	mockMetricsService.
		On("ObserveDBQueryDuration", "UPSERT", "schema_snapshots", mock.Anything).Return().Twice().
		On("IncDBQuery", "UPSERT", "schema_snapshots").Return().Twice().
		On("ObserveDBQueryDuration", "SELECT", "schema_snapshots", mock.Anything).Return().Twice().
		On("IncDBQuery", "SELECT", "schema_snapshots").Return().Twice()

	snapshots, err := m.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, snapshots)

	fetchedAt := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	require.NoError(t, m.Upsert(ctx, "villains", []byte(`{"v":1}`), fetchedAt))
	require.NoError(t, m.Upsert(ctx, "heroes", []byte(`{"h":1}`), fetchedAt))

	snapshots, err = m.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, snapshots, 2)
	assert.Equal(t, "heroes", snapshots[0].Backend)
	assert.Equal(t, `{"h":1}`, snapshots[0].Document)
	assert.Equal(t, "villains", snapshots[1].Backend)
}

func TestSchemaSnapshotModel_queryError(t *testing.T) {
	ctx := context.Background()
	mockMetricsService := metrics.NewMockMetricsService()
	defer mockMetricsService.AssertExpectations(t)
	mockMetricsService.
		On("ObserveDBQueryDuration", "SELECT", "schema_snapshots", mock.Anything).Return().Once().
		On("IncDBQueryError", "SELECT", "schema_snapshots", "sqlite_error").Return().Once()

	m := &SchemaSnapshotModel{DB: dbtest.OpenWithoutMigrations(t), MetricsService: mockMetricsService}

	_, err := m.GetAll(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "getting schema snapshots")
}
