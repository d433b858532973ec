package cmd

import (
	"fmt"
	"go/types"
	"time"

	"github.com/spf13/cobra"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/graphql-stitcher/cmd/utils"
	"github.com/stellar/graphql-stitcher/internal/serve"
)

type serveCmd struct{}

func (c *serveCmd) Command() *cobra.Command {
	cfg := serve.Configs{}

	var trackerDSN string
	var environment string
	var refreshIntervalSeconds, refreshRetryAttempts, refreshRetryDelayMS int
	cfgOpts := config.ConfigOptions{
		utils.LogLevelOption(&cfg.LogLevel),
		utils.BackendsConfigFileOption(&cfg.Backends),
		utils.DatabaseURLOption(&cfg.DatabaseURL, false),
		utils.RedisURLOption(&cfg.RedisURL),
		utils.TrackerDSNOption(&trackerDSN),
		utils.EnvironmentOption(&environment),
		utils.RefreshIntervalSecondsOption(&refreshIntervalSeconds),
		utils.RefreshRetryAttemptsOption(&refreshRetryAttempts),
		utils.RefreshRetryDelayMSOption(&refreshRetryDelayMS),
		utils.RefreshMaxWorkersOption(&cfg.RefreshMaxWorkers),
		{
			Name:        "port",
			Usage:       "Port to listen and serve on",
			OptType:     types.Int,
			ConfigKey:   &cfg.Port,
			FlagDefault: 8002,
			Required:    false,
		},
		{
			Name:        "migrate-on-start",
			Usage:       "Apply pending snapshot store migrations before serving. Required for in-memory SQLite databases.",
			OptType:     types.Bool,
			ConfigKey:   &cfg.MigrateOnStart,
			FlagDefault: false,
			Required:    false,
		},
	}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the GraphQL Stitcher server",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := utils.DefaultPersistentPreRunE(cfgOpts)(cmd, args); err != nil {
				return err
			}

			if refreshIntervalSeconds <= 0 {
				return fmt.Errorf("refresh-interval-seconds must be positive, got %d", refreshIntervalSeconds)
			}
			if refreshRetryAttempts <= 0 {
				return fmt.Errorf("refresh-retry-attempts must be positive, got %d", refreshRetryAttempts)
			}
			if refreshRetryDelayMS < 0 || cfg.RefreshMaxWorkers < 0 {
				return fmt.Errorf("refresh-retry-delay-ms and refresh-max-workers cannot be negative")
			}
			cfg.RefreshInterval = time.Duration(refreshIntervalSeconds) * time.Second
			cfg.RefreshRetryAttempts = uint(refreshRetryAttempts)
			cfg.RefreshRetryDelay = time.Duration(refreshRetryDelayMS) * time.Millisecond

			appTracker, err := utils.AppTrackerResolver(trackerDSN, environment, release)
			if err != nil {
				return fmt.Errorf("initializing App Tracker: %w", err)
			}
			cfg.AppTracker = appTracker

			return nil
		},
		RunE: func(_ *cobra.Command, _ []string) error {
			return c.Run(cfg)
		},
	}

	if err := cfgOpts.Init(cmd); err != nil {
		log.Fatalf("Error initializing a config option: %s", err.Error())
	}

	return cmd
}

func (c *serveCmd) Run(cfg serve.Configs) error {
	err := serve.Serve(cfg)
	if err != nil {
		return fmt.Errorf("running serve: %w", err)
	}
	return nil
}
