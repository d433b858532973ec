// Package dbtest opens migrated in-memory SQLite databases for tests.
package dbtest

import (
	"context"
	"testing"

	migrate "github.com/rubenv/sql-migrate"
	"github.com/stretchr/testify/require"

	"github.com/stellar/graphql-stitcher/internal/db"
)

const InMemoryURL = "sqlite3://:memory:"

// Open returns a connection pool to a fresh in-memory database with every migration applied. The pool is closed when
// the test ends.
func Open(t *testing.T) db.ConnectionPool {
	t.Helper()

	dbConnectionPool := OpenWithoutMigrations(t)
	_, err := db.MigratePool(context.Background(), dbConnectionPool, migrate.Up, 0)
	require.NoError(t, err)

	return dbConnectionPool
}

// OpenWithoutMigrations returns a connection pool to a fresh, empty in-memory database.
func OpenWithoutMigrations(t *testing.T) db.ConnectionPool {
	t.Helper()

	dbConnectionPool, err := db.OpenDBConnectionPool(InMemoryURL)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbConnectionPool.Close() }) //nolint:errcheck // test code

	return dbConnectionPool
}
