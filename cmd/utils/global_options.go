package utils

import (
	"go/types"

	"github.com/sirupsen/logrus"
	"github.com/stellar/go-stellar-sdk/support/config"

	"github.com/stellar/graphql-stitcher/internal/backends"
)

func DatabaseURLOption(configKey *string, required bool) *config.ConfigOption {
	return &config.ConfigOption{
		Name:      "database-url",
		Usage:     `Database connection URL of the schema snapshot store. Postgres URLs and "sqlite3://<path>" are accepted.`,
		OptType:   types.String,
		ConfigKey: configKey,
		Required:  required,
	}
}

func LogLevelOption(configKey *logrus.Level) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "log-level",
		Usage:          `The log level used in this project. Options: "TRACE", "DEBUG", "INFO", "WARN", "ERROR", "FATAL", or "PANIC".`,
		OptType:        types.String,
		FlagDefault:    "INFO",
		ConfigKey:      configKey,
		CustomSetValue: SetConfigOptionLogLevel,
		Required:       false,
	}
}

func TrackerDSNOption(configKey *string) *config.ConfigOption {
	return &config.ConfigOption{
		Name:      "tracker-dsn",
		Usage:     "The Sentry DSN. When empty, errors are only logged.",
		OptType:   types.String,
		ConfigKey: configKey,
		Required:  false,
	}
}

func EnvironmentOption(configKey *string) *config.ConfigOption {
	return &config.ConfigOption{
		Name:        "environment",
		Usage:       "The environment reported along with tracked errors.",
		OptType:     types.String,
		ConfigKey:   configKey,
		FlagDefault: "development",
		Required:    false,
	}
}

func BackendsConfigFileOption(configKey *[]backends.Config) *config.ConfigOption {
	return &config.ConfigOption{
		Name:           "backends-config-file",
		Usage:          "Path to the TOML file listing the GraphQL backends, as [[backends]] tables with name, url and optional min_fetch_interval_seconds, timeout_seconds and headers.",
		OptType:        types.String,
		CustomSetValue: SetConfigOptionBackendsFile,
		ConfigKey:      configKey,
		Required:       true,
	}
}

func RefreshIntervalSecondsOption(configKey *int) *config.ConfigOption {
	return &config.ConfigOption{
		Name:        "refresh-interval-seconds",
		Usage:       "How often, in seconds, the backend schemas are refreshed. Each backend still honors its own min_fetch_interval_seconds.",
		OptType:     types.Int,
		ConfigKey:   configKey,
		FlagDefault: 60,
		Required:    true,
	}
}

func RefreshRetryAttemptsOption(configKey *int) *config.ConfigOption {
	return &config.ConfigOption{
		Name:        "refresh-retry-attempts",
		Usage:       "Number of introspection fetch attempts per backend and refresh.",
		OptType:     types.Int,
		ConfigKey:   configKey,
		FlagDefault: 3,
		Required:    true,
	}
}

func RefreshRetryDelayMSOption(configKey *int) *config.ConfigOption {
	return &config.ConfigOption{
		Name:        "refresh-retry-delay-ms",
		Usage:       "Base delay, in milliseconds, between introspection fetch attempts. The delay grows exponentially with jitter.",
		OptType:     types.Int,
		ConfigKey:   configKey,
		FlagDefault: 500,
		Required:    true,
	}
}

func RefreshMaxWorkersOption(configKey *int) *config.ConfigOption {
	return &config.ConfigOption{
		Name:        "refresh-max-workers",
		Usage:       "Maximum number of backends refreshed concurrently. 0 means no limit.",
		OptType:     types.Int,
		ConfigKey:   configKey,
		FlagDefault: 4,
		Required:    true,
	}
}

func RedisURLOption(configKey *string) *config.ConfigOption {
	return &config.ConfigOption{
		Name:      "redis-url",
		Usage:     `Redis URL of the schema snapshot store, e.g. "redis://localhost:6379/0". Cannot be combined with database-url.`,
		OptType:   types.String,
		ConfigKey: configKey,
		Required:  false,
	}
}
