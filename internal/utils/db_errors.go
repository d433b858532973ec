package utils

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// GetDBErrorType categorizes database errors into types for metrics
func GetDBErrorType(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, sql.ErrNoRows) {
		return "no_rows"
	}
	if errors.Is(err, sql.ErrConnDone) {
		return "connection_closed"
	}
	if errors.Is(err, sql.ErrTxDone) {
		return "transaction_done"
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505":
			return "unique_violation"
		case "23502":
			return "not_null_violation"
		case "40001":
			return "serialization_failure"
		case "40P01":
			return "deadlock"
		case "57014":
			return "query_canceled"
		case "08000", "08003", "08006":
			return "connection_error"
		default:
			return "postgres_error"
		}
	}

	// The sqlite driver backs the snapshot store in tests and single-node setups.
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		switch liteErr.Code {
		case sqlite3.ErrConstraint:
			if liteErr.ExtendedCode == sqlite3.ErrConstraintUnique || liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey {
				return "unique_violation"
			}
			return "constraint_violation"
		case sqlite3.ErrBusy, sqlite3.ErrLocked:
			return "database_locked"
		default:
			return "sqlite_error"
		}
	}

	if errors.Is(err, context.Canceled) {
		return "context_canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "context_deadline_exceeded"
	}

	return "unknown"
}
