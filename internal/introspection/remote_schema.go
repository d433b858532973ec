package introspection

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stellar/go-stellar-sdk/support/log"
	"github.com/tidwall/gjson"
	"go.uber.org/atomic"

	"github.com/stellar/graphql-stitcher/pkg/gqlschema"
)

type RefreshResult int

const (
	// RefreshThrottled means the minimum interval since the last applied refresh has not elapsed yet.
	RefreshThrottled RefreshResult = iota
	// RefreshFailed means the fetch itself failed; the error says why.
	RefreshFailed
	// RefreshSkipped means the backend answered with nothing usable and the current schema was kept.
	RefreshSkipped
	// RefreshApplied means a new schema was loaded and published.
	RefreshApplied
)

func (r RefreshResult) String() string {
	switch r {
	case RefreshThrottled:
		return "throttled"
	case RefreshFailed:
		return "failed"
	case RefreshSkipped:
		return "skipped"
	case RefreshApplied:
		return "applied"
	default:
		return fmt.Sprintf("RefreshResult(%d)", int(r))
	}
}

// RemoteSchema holds the latest schema model of one backend. Readers never block: the model is swapped as a
// whole once a refresh yields a usable document.
type RemoteSchema struct {
	name        string
	fetcher     Fetcher
	minInterval time.Duration
	now         func() time.Time

	// refreshMu serializes refreshes so the throttle is checked against a settled clock.
	refreshMu       sync.Mutex
	schema          *atomic.Pointer[gqlschema.Model]
	lastRefreshedAt *atomic.Time
}

func NewRemoteSchema(name string, fetcher Fetcher, minInterval time.Duration) *RemoteSchema {
	return &RemoteSchema{
		name:            name,
		fetcher:         fetcher,
		minInterval:     minInterval,
		now:             time.Now,
		schema:          atomic.NewPointer(gqlschema.Empty()),
		lastRefreshedAt: atomic.NewTime(time.Time{}),
	}
}

// WithClock replaces the clock used for throttling.
func (r *RemoteSchema) WithClock(now func() time.Time) *RemoteSchema {
	r.now = now
	return r
}

func (r *RemoteSchema) Name() string {
	return r.name
}

// Schema returns the current model, an empty one until the first applied refresh or Seed.
func (r *RemoteSchema) Schema() *gqlschema.Model {
	return r.schema.Load()
}

// LastRefreshedAt returns when the last refresh was applied, the zero time if none was.
func (r *RemoteSchema) LastRefreshedAt() time.Time {
	return r.lastRefreshedAt.Load()
}

// Seed publishes a model obtained elsewhere, e.g. a persisted snapshot, without affecting throttling.
func (r *RemoteSchema) Seed(model *gqlschema.Model) {
	if model == nil {
		return
	}
	r.schema.Store(model)
}

// Refresh fetches the backend's introspection document unless the last applied refresh is more recent than
// the minimum interval. The current model is only replaced by a document that loads into a non-empty model.
func (r *RemoteSchema) Refresh(ctx context.Context) (RefreshResult, error) {
	r.refreshMu.Lock()
	defer r.refreshMu.Unlock()

	last := r.lastRefreshedAt.Load()
	if !last.IsZero() && r.now().Sub(last) < r.minInterval {
		return RefreshThrottled, nil
	}

	body, err := r.fetcher.Fetch(ctx)
	if err != nil {
		return RefreshFailed, fmt.Errorf("fetching introspection of backend %s: %w", r.name, err)
	}

	if len(bytes.TrimSpace(body)) == 0 {
		log.Ctx(ctx).Warnf("backend %s returned an empty introspection response, keeping the current schema", r.name)
		return RefreshSkipped, nil
	}

	model, err := gqlschema.Load(body)
	if err != nil {
		log.Ctx(ctx).Warnf("backend %s returned an unparseable introspection response, keeping the current schema: %v", r.name, err)
		return RefreshSkipped, nil
	}
	if model.IsEmpty() {
		if message := gjson.GetBytes(body, "errors.0.message"); message.Exists() {
			log.Ctx(ctx).Warnf("backend %s answered the introspection query with an error, keeping the current schema: %s", r.name, message.String())
		} else {
			log.Ctx(ctx).Warnf("backend %s returned no __schema, keeping the current schema", r.name)
		}
		return RefreshSkipped, nil
	}

	r.schema.Store(model)
	r.lastRefreshedAt.Store(r.now())

	log.Ctx(ctx).Debugf("applied schema of backend %s: %d types, %d query fields, %d mutation fields",
		r.name, len(model.TypeNames()), len(model.QueryFieldNames()), len(model.MutationFieldNames()))

	return RefreshApplied, nil
}
