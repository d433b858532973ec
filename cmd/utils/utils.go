package utils

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/config"

	"github.com/stellar/graphql-stitcher/internal/apptracker"
	"github.com/stellar/graphql-stitcher/internal/apptracker/dryrun"
	"github.com/stellar/graphql-stitcher/internal/apptracker/sentry"
)

const trackerFlushFrequencySeconds = 5

func DefaultPersistentPreRunE(cfgOpts config.ConfigOptions) func(_ *cobra.Command, _ []string) error {
	return func(_ *cobra.Command, _ []string) error {
		if err := cfgOpts.RequireE(); err != nil {
			return fmt.Errorf("requiring values of config options: %w", err)
		}
		if err := cfgOpts.SetValues(); err != nil {
			return fmt.Errorf("setting values of config options: %w", err)
		}
		return nil
	}
}

// AppTrackerResolver returns a Sentry tracker, or a dry-run tracker that only logs when dsn is empty.
func AppTrackerResolver(dsn, environment, release string) (apptracker.AppTracker, error) {
	if dsn == "" {
		return &dryrun.DryRunTracker{}, nil
	}

	tracker, err := sentry.NewSentryTracker(sentry.Options{
		DSN:            dsn,
		Environment:    environment,
		Release:        release,
		FlushFrequency: trackerFlushFrequencySeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("resolving app tracker: %w", err)
	}
	return tracker, nil
}
