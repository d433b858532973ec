package serve

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	supporthttp "github.com/stellar/go-stellar-sdk/support/http"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/graphql-stitcher/internal/apptracker"
	"github.com/stellar/graphql-stitcher/internal/backends"
	"github.com/stellar/graphql-stitcher/internal/services"
	"github.com/stellar/graphql-stitcher/internal/store"
)

var ErrConflictingSnapshotStores = errors.New("database-url and redis-url cannot be used together")

type Configs struct {
	Port     int
	LogLevel logrus.Level
	Backends []backends.Config

	// Schema refresh
	RefreshInterval      time.Duration
	RefreshMaxWorkers    int
	RefreshRetryAttempts uint
	RefreshRetryDelay    time.Duration

	// DatabaseURL is optional and enables the SQL schema snapshot store.
	DatabaseURL    string
	MigrateOnStart bool
	// RedisURL is optional and enables the Redis schema snapshot store. It cannot be combined with DatabaseURL.
	RedisURL string

	AppTracker apptracker.AppTracker
}

func Serve(cfg Configs) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	container, err := initServiceContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("setting up service container: %w", err)
	}
	defer container.Close()

	refreshDone := startSchemaRefresh(ctx, container.GetSchemaRefreshService(), cfg.RefreshInterval)

	addr := fmt.Sprintf(":%d", cfg.Port)
	supporthttp.Run(supporthttp.Config{
		ListenAddr: addr,
		Handler:    NewHandler(container),
		OnStarting: func() {
			log.Infof("Starting GraphQL Stitcher server on port %d with %d backends", cfg.Port, len(cfg.Backends))
		},
		OnStopping: func() {
			log.Info("Stopping GraphQL Stitcher server")
			cancel()
		},
	})

	cancel()
	<-refreshDone

	return nil
}

// startSchemaRefresh seeds the registry from the snapshot store and runs the refresh loop in the background. The
// returned channel is closed once the loop has stopped, after ctx is done.
func startSchemaRefresh(ctx context.Context, refreshService services.SchemaRefreshService, interval time.Duration) <-chan struct{} {
	if err := refreshService.WarmStart(ctx); err != nil {
		log.Ctx(ctx).Errorf("warm starting from persisted schemas: %v", err)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		refreshService.Run(ctx, interval)
	}()
	return done
}

func initServiceContainer(ctx context.Context, cfg Configs) (*serviceContainer, error) {
	deps := ServiceDependencies{
		Backends:             cfg.Backends,
		RefreshMaxWorkers:    cfg.RefreshMaxWorkers,
		RefreshRetryAttempts: cfg.RefreshRetryAttempts,
		RefreshRetryDelay:    cfg.RefreshRetryDelay,
		AppTracker:           cfg.AppTracker,
	}

	switch {
	case cfg.DatabaseURL != "" && cfg.RedisURL != "":
		return nil, ErrConflictingSnapshotStores
	case cfg.DatabaseURL != "":
		databaseProvider, err := NewDatabaseProvider(ctx, cfg.DatabaseURL, cfg.MigrateOnStart)
		if err != nil {
			return nil, fmt.Errorf("creating database provider: %w", err)
		}
		deps.DatabaseProvider = databaseProvider
	case cfg.RedisURL != "":
		redisStore, err := store.NewRedisStore(ctx, cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("creating redis snapshot store: %w", err)
		}
		deps.SnapshotStore = redisStore
	}

	container, err := NewServiceContainer(ctx, deps)
	if err != nil {
		for _, closer := range closers(deps) {
			_ = closer.Close() //nolint:errcheck // the container error is the one reported
		}
		return nil, err
	}
	return container, nil
}
