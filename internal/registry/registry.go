// Package registry publishes the schemas of every configured backend, and their merge, as one immutable
// snapshot that readers load without locking.
package registry

import (
	"fmt"
	"time"

	"go.uber.org/atomic"

	"github.com/stellar/graphql-stitcher/pkg/gqlschema"
)

type Backend struct {
	Name   string
	URL    string
	Schema *gqlschema.Model
	// RefreshedAt is when Schema was last fetched from the backend, zero when it was never fetched.
	RefreshedAt time.Time
}

// Snapshot is never modified after NewSnapshot returns.
type Snapshot struct {
	Backends  []Backend
	Merged    *gqlschema.Model
	UpdatedAt time.Time
}

// NewSnapshot merges the backend schemas in the given order, so the first backend wins name collisions.
func NewSnapshot(updatedAt time.Time, backends ...Backend) (*Snapshot, error) {
	models := make([]*gqlschema.Model, 0, len(backends))
	for _, b := range backends {
		models = append(models, b.Schema)
	}

	merged, err := gqlschema.MergeMany(models...)
	if err != nil {
		return nil, fmt.Errorf("merging backend schemas: %w", err)
	}

	return &Snapshot{
		Backends:  backends,
		Merged:    merged,
		UpdatedAt: updatedAt,
	}, nil
}

func (s *Snapshot) Backend(name string) (Backend, bool) {
	for _, b := range s.Backends {
		if b.Name == name {
			return b, true
		}
	}
	return Backend{}, false
}

type Store struct {
	current *atomic.Pointer[Snapshot]
}

func NewStore() *Store {
	return &Store{
		current: atomic.NewPointer(&Snapshot{Merged: gqlschema.Empty()}),
	}
}

// Current returns the latest published snapshot.
func (s *Store) Current() *Snapshot {
	return s.current.Load()
}

func (s *Store) Publish(snapshot *Snapshot) {
	s.current.Store(snapshot)
}
