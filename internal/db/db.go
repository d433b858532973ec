package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // Postgres driver
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

type ConnectionPool interface {
	SQLExecuter
	Close() error
	Ping(ctx context.Context) error
	SqlDB(ctx context.Context) (*sql.DB, error)
	SqlxDB(ctx context.Context) (*sqlx.DB, error)
}

// Make sure *ConnectionPoolImplementation implements ConnectionPool:
var _ ConnectionPool = (*ConnectionPoolImplementation)(nil)

type ConnectionPoolImplementation struct {
	*sqlx.DB
}

const (
	MaxDBConnIdleTime = 10 * time.Second
	MaxOpenDBConns    = 30

	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"

	sqlitePrefix = "sqlite3://"
)

// DriverFor returns the driver and the driver-specific data source for a database URL. URLs starting with
// `sqlite3://` open a SQLite database (e.g. `sqlite3://:memory:` or `sqlite3:///var/lib/stitcher.db`), any other URL
// is handed to the Postgres driver.
func DriverFor(databaseURL string) (driverName, dataSourceName string) {
	if after, ok := strings.CutPrefix(databaseURL, sqlitePrefix); ok {
		return DriverSQLite, after
	}
	return DriverPostgres, databaseURL
}

func OpenDBConnectionPool(databaseURL string) (ConnectionPool, error) {
	driverName, dataSourceName := DriverFor(databaseURL)
	sqlxDB, err := sqlx.Open(driverName, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("error creating app DB connection pool: %w", err)
	}

	if driverName == DriverSQLite {
		// A single connection keeps in-memory databases alive and serializes writers.
		sqlxDB.SetMaxOpenConns(1)
		sqlxDB.SetMaxIdleConns(1)
	} else {
		sqlxDB.SetConnMaxIdleTime(MaxDBConnIdleTime)
		sqlxDB.SetMaxOpenConns(MaxOpenDBConns)
	}

	err = sqlxDB.Ping()
	if err != nil {
		_ = sqlxDB.Close() //nolint:errcheck // the ping error is the one worth returning
		return nil, fmt.Errorf("error pinging app DB connection pool: %w", err)
	}

	return &ConnectionPoolImplementation{DB: sqlxDB}, nil
}

//nolint:wrapcheck // this is a thin layer on top of the sqlx.DB.PingContext method
func (db *ConnectionPoolImplementation) Ping(ctx context.Context) error {
	return db.DB.PingContext(ctx)
}

func (db *ConnectionPoolImplementation) SqlDB(ctx context.Context) (*sql.DB, error) {
	return db.DB.DB, nil
}

func (db *ConnectionPoolImplementation) SqlxDB(ctx context.Context) (*sqlx.DB, error) {
	return db.DB, nil
}

// SQLExecuter is an interface that wraps the *sqlx.DB and *sqlx.Tx structs methods.
type SQLExecuter interface {
	DriverName() string
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	Rebind(query string) string
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

// Make sure *sqlx.DB implements SQLExecuter:
var _ SQLExecuter = (*sqlx.DB)(nil)

// Make sure *sqlx.Tx implements SQLExecuter:
var _ SQLExecuter = (*sqlx.Tx)(nil)
