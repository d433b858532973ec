package serve

import (
	"context"
	"fmt"
	"io"

	"github.com/alitto/pond/v2"
	"github.com/jmoiron/sqlx"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/graphql-stitcher/internal/apptracker"
	"github.com/stellar/graphql-stitcher/internal/data"
	"github.com/stellar/graphql-stitcher/internal/metrics"
	"github.com/stellar/graphql-stitcher/internal/registry"
	"github.com/stellar/graphql-stitcher/internal/services"
)

const refreshPoolName = "schema_refresh"

// serviceContainer implements ServiceContainer
type serviceContainer struct {
	schemaRefreshService services.SchemaRefreshService
	requestSplitService  services.RequestSplitService
	registry             *registry.Store
	metricsService       metrics.MetricsService
	models               *data.Models
	appTracker           apptracker.AppTracker
	pool                 pond.Pool
	closers              []io.Closer
}

func (c *serviceContainer) GetSchemaRefreshService() services.SchemaRefreshService {
	return c.schemaRefreshService
}

func (c *serviceContainer) GetRequestSplitService() services.RequestSplitService {
	return c.requestSplitService
}

func (c *serviceContainer) GetRegistry() *registry.Store {
	return c.registry
}

func (c *serviceContainer) GetMetricsService() metrics.MetricsService {
	return c.metricsService
}

func (c *serviceContainer) GetModels() *data.Models {
	return c.models
}

func (c *serviceContainer) GetAppTracker() apptracker.AppTracker {
	return c.appTracker
}

func (c *serviceContainer) Close() {
	c.pool.StopAndWait()
	for _, closer := range c.closers {
		if err := closer.Close(); err != nil {
			log.Errorf("closing service container: %v", err)
		}
	}
}

// NewServiceContainer creates a new service container with all required services
func NewServiceContainer(ctx context.Context, deps ServiceDependencies) (*serviceContainer, error) {
	var sqlxDB *sqlx.DB
	if deps.DatabaseProvider != nil {
		var err error
		if sqlxDB, err = deps.DatabaseProvider.GetDB(ctx); err != nil {
			return nil, fmt.Errorf("getting database: %w", err)
		}
	}

	metricsService := metrics.NewMetricsService(sqlxDB)

	models, err := createModels(deps, metricsService)
	if err != nil {
		return nil, fmt.Errorf("creating models: %w", err)
	}

	registryStore := registry.NewStore()

	pool := pond.NewPool(deps.RefreshMaxWorkers)
	metricsService.RegisterPoolMetrics(refreshPoolName, pool)

	schemaRefreshService, err := createSchemaRefreshService(deps, registryStore, metricsService, pool, models)
	if err != nil {
		pool.StopAndWait()
		return nil, fmt.Errorf("creating schema refresh service: %w", err)
	}

	requestSplitService, err := services.NewRequestSplitService(registryStore, metricsService)
	if err != nil {
		pool.StopAndWait()
		return nil, fmt.Errorf("creating request split service: %w", err)
	}

	return &serviceContainer{
		schemaRefreshService: schemaRefreshService,
		requestSplitService:  requestSplitService,
		registry:             registryStore,
		metricsService:       metricsService,
		models:               models,
		appTracker:           deps.AppTracker,
		pool:                 pool,
		closers:              closers(deps),
	}, nil
}

func closers(deps ServiceDependencies) []io.Closer {
	var c []io.Closer
	if closer, ok := deps.SnapshotStore.(io.Closer); ok {
		c = append(c, closer)
	}
	if deps.DatabaseProvider != nil {
		c = append(c, deps.DatabaseProvider)
	}
	return c
}

func createModels(deps ServiceDependencies, metricsService metrics.MetricsService) (*data.Models, error) {
	if deps.DatabaseProvider == nil {
		return nil, nil
	}
	models, err := data.NewModels(deps.DatabaseProvider.GetConnectionPool(), metricsService)
	if err != nil {
		return nil, fmt.Errorf("creating data models: %w", err)
	}
	return models, nil
}

func createSchemaRefreshService(
	deps ServiceDependencies,
	registryStore *registry.Store,
	metricsService metrics.MetricsService,
	pool pond.Pool,
	models *data.Models,
) (services.SchemaRefreshService, error) {
	opts := services.SchemaRefreshServiceOptions{
		Backends:       deps.Backends,
		Registry:       registryStore,
		MetricsService: metricsService,
		Pool:           pool,
		AppTracker:     deps.AppTracker,
		RetryAttempts:  deps.RefreshRetryAttempts,
		RetryDelay:     deps.RefreshRetryDelay,
	}
	switch {
	case deps.SnapshotStore != nil:
		opts.SnapshotStore = deps.SnapshotStore
	case models != nil:
		opts.SnapshotStore = models.SchemaSnapshots
	}

	schemaRefreshService, err := services.NewSchemaRefreshService(opts)
	if err != nil {
		return nil, fmt.Errorf("creating schema refresh service: %w", err)
	}
	return schemaRefreshService, nil
}
