package serve

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/stellar/graphql-stitcher/internal/apptracker"
	"github.com/stellar/graphql-stitcher/internal/backends"
	"github.com/stellar/graphql-stitcher/internal/data"
	"github.com/stellar/graphql-stitcher/internal/db"
	"github.com/stellar/graphql-stitcher/internal/metrics"
	"github.com/stellar/graphql-stitcher/internal/registry"
	"github.com/stellar/graphql-stitcher/internal/services"
)

// DatabaseProvider provides the connection pool of the schema snapshot store
type DatabaseProvider interface {
	GetDB(ctx context.Context) (*sqlx.DB, error)
	GetConnectionPool() db.ConnectionPool
	Close() error
}

// ServiceDependencies holds the basic dependencies needed for service creation
type ServiceDependencies struct {
	Backends []backends.Config
	// DatabaseProvider is optional. Without it, and without SnapshotStore, schemas are kept in memory only.
	DatabaseProvider DatabaseProvider
	// SnapshotStore is optional and takes precedence over the database models for persisting schemas.
	SnapshotStore        data.SchemaSnapshotStore
	RefreshMaxWorkers    int
	RefreshRetryAttempts uint
	RefreshRetryDelay    time.Duration
	AppTracker           apptracker.AppTracker
}

// ServiceContainer manages all business services
type ServiceContainer interface {
	GetSchemaRefreshService() services.SchemaRefreshService
	GetRequestSplitService() services.RequestSplitService
	GetRegistry() *registry.Store
	GetMetricsService() metrics.MetricsService
	// GetModels returns nil when no database is configured.
	GetModels() *data.Models
	GetAppTracker() apptracker.AppTracker
	// Close stops the refresh workers and closes the snapshot storage, if any.
	Close()
}
