package data

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/stellar/graphql-stitcher/internal/db"
	"github.com/stellar/graphql-stitcher/internal/metrics"
	"github.com/stellar/graphql-stitcher/internal/utils"
)

var ErrSnapshotNotFound = errors.New("schema snapshot not found")

const schemaSnapshotsTable = "schema_snapshots"

type SchemaSnapshot struct {
	Backend   string    `db:"backend" json:"backend"`
	Document  string    `db:"document" json:"-"`
	FetchedAt time.Time `db:"fetched_at" json:"fetchedAt"`
}

type SchemaSnapshotStore interface {
	Upsert(ctx context.Context, backend string, document []byte, fetchedAt time.Time) error
	Get(ctx context.Context, backend string) (*SchemaSnapshot, error)
	GetAll(ctx context.Context) ([]SchemaSnapshot, error)
}

var _ SchemaSnapshotStore = (*SchemaSnapshotModel)(nil)

// SchemaSnapshotModel persists the last applied introspection document of every backend so a restarted stitcher can
// route requests before its first refresh completes.
type SchemaSnapshotModel struct {
	DB             db.ConnectionPool
	MetricsService metrics.MetricsService
}

// Upsert stores the document as the latest snapshot of the backend, replacing any previous one.
func (m *SchemaSnapshotModel) Upsert(ctx context.Context, backend string, document []byte, fetchedAt time.Time) error {
	query := m.DB.Rebind(`
		INSERT INTO schema_snapshots (backend, document, fetched_at)
		VALUES (?, ?, ?)
		ON CONFLICT (backend) DO UPDATE SET
			document = excluded.document,
			fetched_at = excluded.fetched_at`)

	start := time.Now()
	err := utils.RetryDB(ctx, utils.DefaultDBRetryConfig, func() error {
		_, execErr := m.DB.ExecContext(ctx, query, backend, string(document), fetchedAt.UTC())
		return execErr //nolint:wrapcheck // wrapped below
	})
	m.MetricsService.ObserveDBQueryDuration("UPSERT", schemaSnapshotsTable, time.Since(start).Seconds())
	if err != nil {
		m.MetricsService.IncDBQueryError("UPSERT", schemaSnapshotsTable, utils.GetDBErrorType(err))
		return fmt.Errorf("upserting schema snapshot of backend %s: %w", backend, err)
	}
	m.MetricsService.IncDBQuery("UPSERT", schemaSnapshotsTable)
	return nil
}

func (m *SchemaSnapshotModel) Get(ctx context.Context, backend string) (*SchemaSnapshot, error) {
	query := m.DB.Rebind(`SELECT backend, document, fetched_at FROM schema_snapshots WHERE backend = ?`)

	var snapshot SchemaSnapshot
	start := time.Now()
	err := m.DB.GetContext(ctx, &snapshot, query, backend)
	m.MetricsService.ObserveDBQueryDuration("SELECT", schemaSnapshotsTable, time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			m.MetricsService.IncDBQuery("SELECT", schemaSnapshotsTable)
			return nil, ErrSnapshotNotFound
		}
		m.MetricsService.IncDBQueryError("SELECT", schemaSnapshotsTable, utils.GetDBErrorType(err))
		return nil, fmt.Errorf("getting schema snapshot of backend %s: %w", backend, err)
	}
	m.MetricsService.IncDBQuery("SELECT", schemaSnapshotsTable)
	return &snapshot, nil
}

// GetAll returns every stored snapshot ordered by backend name.
func (m *SchemaSnapshotModel) GetAll(ctx context.Context) ([]SchemaSnapshot, error) {
	const query = `SELECT backend, document, fetched_at FROM schema_snapshots ORDER BY backend`

	var snapshots []SchemaSnapshot
	start := time.Now()
	err := m.DB.SelectContext(ctx, &snapshots, query)
	m.MetricsService.ObserveDBQueryDuration("SELECT", schemaSnapshotsTable, time.Since(start).Seconds())
	if err != nil {
		m.MetricsService.IncDBQueryError("SELECT", schemaSnapshotsTable, utils.GetDBErrorType(err))
		return nil, fmt.Errorf("getting schema snapshots: %w", err)
	}
	m.MetricsService.IncDBQuery("SELECT", schemaSnapshotsTable)
	return snapshots, nil
}
