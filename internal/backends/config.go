// Package backends loads the list of GraphQL backends whose schemas are stitched together.
package backends

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml"

	"github.com/stellar/graphql-stitcher/internal/validators"
)

var ErrNoBackends = errors.New("no backends configured")

// Config is one `[[backends]]` table of the backends file, e.g.
//
//	[[backends]]
//	name = "heroes"
//	url = "https://heroes.example.com/graphql"
//	min_fetch_interval_seconds = 60
//	timeout_seconds = 10
//	[backends.headers]
//	Authorization = "Bearer ..."
type Config struct {
	Name                    string            `toml:"name" validate:"required,backend_name"`
	URL                     string            `toml:"url" validate:"required,url"`
	MinFetchIntervalSeconds int               `toml:"min_fetch_interval_seconds" validate:"gte=0"`
	TimeoutSeconds          int               `toml:"timeout_seconds" validate:"gte=0"`
	Headers                 map[string]string `toml:"headers"`
}

func (c Config) MinFetchInterval() time.Duration {
	return time.Duration(c.MinFetchIntervalSeconds) * time.Second
}

func (c Config) Timeout() time.Duration {
	return time.Duration(c.TimeoutSeconds) * time.Second
}

type file struct {
	Backends []Config `toml:"backends" validate:"dive"`
}

// LoadFile reads and validates a backends file.
func LoadFile(path string) ([]Config, error) {
	tree, err := toml.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading backends file %s: %w", path, err)
	}
	return fromTree(tree)
}

// Parse reads and validates the content of a backends file.
func Parse(data []byte) ([]Config, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, fmt.Errorf("parsing backends: %w", err)
	}
	return fromTree(tree)
}

func fromTree(tree *toml.Tree) ([]Config, error) {
	var f file
	if err := tree.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("unmarshalling backends: %w", err)
	}
	if err := Validate(f.Backends); err != nil {
		return nil, err
	}
	return f.Backends, nil
}

// Validate checks every backend and that names are unique.
func Validate(configs []Config) error {
	if len(configs) == 0 {
		return ErrNoBackends
	}

	validate := validators.NewValidator()
	seen := make(map[string]struct{}, len(configs))
	for i, c := range configs {
		if err := validate.Struct(c); err != nil {
			var vErrs validator.ValidationErrors
			if errors.As(err, &vErrs) {
				return fmt.Errorf("invalid backend #%d (%s): %v", i, c.Name, validators.ParseValidationError(vErrs))
			}
			return fmt.Errorf("validating backend #%d (%s): %w", i, c.Name, err)
		}
		if _, ok := seen[c.Name]; ok {
			return fmt.Errorf("duplicate backend name %q", c.Name)
		}
		seen[c.Name] = struct{}{}
	}

	return nil
}
