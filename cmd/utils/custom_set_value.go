package utils

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stellar/go-stellar-sdk/support/config"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/graphql-stitcher/internal/backends"
)

func SetConfigOptionLogLevel(co *config.ConfigOption) error {
	logLevelStr := viper.GetString(co.Name)
	logLevel, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		return fmt.Errorf("couldn't parse log level in %s: %w", co.Name, err)
	}

	key, ok := co.ConfigKey.(*logrus.Level)
	if !ok {
		return fmt.Errorf("%s configKey has an invalid type %T", co.Name, co.ConfigKey)
	}
	*key = logLevel

	log.DefaultLogger.SetLevel(logLevel)
	return nil
}

// SetConfigOptionBackendsFile loads and validates the backends TOML file whose path is the option value.
func SetConfigOptionBackendsFile(co *config.ConfigOption) error {
	path := strings.TrimSpace(viper.GetString(co.Name))
	if path == "" {
		return fmt.Errorf("%s cannot be empty", co.Name)
	}

	configs, err := backends.LoadFile(path)
	if err != nil {
		return fmt.Errorf("reading backends in %s: %w", co.Name, err)
	}

	key, ok := co.ConfigKey.(*[]backends.Config)
	if !ok {
		return fmt.Errorf("the expected type for the config key in %s is a []backends.Config, but a %T was provided instead", co.Name, co.ConfigKey)
	}
	*key = configs

	return nil
}

// SetConfigOptionStringList splits a comma-separated value, dropping blank items.
func SetConfigOptionStringList(co *config.ConfigOption) error {
	var list []string
	for _, item := range strings.Split(viper.GetString(co.Name), ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	if len(list) == 0 {
		return fmt.Errorf("%s cannot be empty", co.Name)
	}

	key, ok := co.ConfigKey.(*[]string)
	if !ok {
		return fmt.Errorf("the expected type for the config key in %s is a string slice, but a %T was provided instead", co.Name, co.ConfigKey)
	}
	*key = list

	return nil
}
