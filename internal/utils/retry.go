package utils

import (
	"context"
	"errors"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/stellar/go-stellar-sdk/support/log"
)

type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
}

// DefaultDBRetryConfig is used for snapshot writes, which can race with a concurrent refresh of another replica.
var DefaultDBRetryConfig = RetryConfig{
	MaxRetries: 5,
	BaseDelay:  100 * time.Millisecond,
	MaxDelay:   2 * time.Second,
}

// IsRetryableDBError reports whether err is a transient database error: a Postgres deadlock or
// serialization failure, or a busy/locked sqlite database.
func IsRetryableDBError(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40P01", "40001":
			return true
		}
		return false
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrBusy || liteErr.Code == sqlite3.ErrLocked
	}
	return false
}

// RetryDB runs fn until it succeeds, returns a non-retryable error or the retries are exhausted, backing off
// exponentially with jitter between attempts. The last error is returned as is.
func RetryDB(ctx context.Context, config RetryConfig, fn func() error) error {
	return retry.Do(
		fn,
		retry.Context(ctx),
		retry.Attempts(uint(max(config.MaxRetries, 0))+1),
		retry.Delay(config.BaseDelay),
		retry.MaxDelay(config.MaxDelay),
		retry.MaxJitter(config.BaseDelay),
		retry.DelayType(retry.CombineDelay(retry.BackOffDelay, retry.RandomDelay)),
		retry.RetryIf(IsRetryableDBError),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Ctx(ctx).Warnf("🔄 retrying database operation (attempt %d/%d): %v", n+1, config.MaxRetries, err)
		}),
	)
}
