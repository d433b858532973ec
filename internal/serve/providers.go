package serve

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	migrate "github.com/rubenv/sql-migrate"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/graphql-stitcher/internal/db"
)

// databaseProvider implements DatabaseProvider
type databaseProvider struct {
	connectionPool db.ConnectionPool
}

// NewDatabaseProvider opens the snapshot store. With migrateUp, pending migrations are applied before returning,
// which is required for `sqlite3://:memory:` databases.
func NewDatabaseProvider(ctx context.Context, databaseURL string, migrateUp bool) (*databaseProvider, error) {
	connectionPool, err := db.OpenDBConnectionPool(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening database connection pool: %w", err)
	}

	if migrateUp {
		numMigrationsRun, err := db.MigratePool(ctx, connectionPool, migrate.Up, 0)
		if err != nil {
			_ = connectionPool.Close() //nolint:errcheck // the migration error is the one reported
			return nil, fmt.Errorf("migrating database: %w", err)
		}
		log.Ctx(ctx).Infof("applied %d migrations", numMigrationsRun)
	}

	return &databaseProvider{
		connectionPool: connectionPool,
	}, nil
}

func (p *databaseProvider) GetDB(ctx context.Context) (*sqlx.DB, error) {
	db, err := p.connectionPool.SqlxDB(ctx)
	if err != nil {
		return nil, fmt.Errorf("getting sqlx DB: %w", err)
	}
	return db, nil
}

func (p *databaseProvider) GetConnectionPool() db.ConnectionPool {
	return p.connectionPool
}

func (p *databaseProvider) Close() error {
	if err := p.connectionPool.Close(); err != nil {
		return fmt.Errorf("closing database connection pool: %w", err)
	}
	return nil
}
