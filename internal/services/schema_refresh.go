package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/avast/retry-go/v4"
	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/graphql-stitcher/internal/apptracker"
	"github.com/stellar/graphql-stitcher/internal/backends"
	"github.com/stellar/graphql-stitcher/internal/data"
	"github.com/stellar/graphql-stitcher/internal/introspection"
	"github.com/stellar/graphql-stitcher/internal/metrics"
	"github.com/stellar/graphql-stitcher/internal/registry"
	"github.com/stellar/graphql-stitcher/pkg/gqlschema"
)

const (
	DefaultRefreshRetryAttempts = 3
	DefaultRefreshRetryDelay    = 500 * time.Millisecond
)

type SchemaRefreshService interface {
	// WarmStart seeds every backend with its persisted snapshot, when a snapshot store is configured, and publishes
	// the result.
	WarmStart(ctx context.Context) error
	// RefreshAll refreshes every backend concurrently and publishes a new registry snapshot. The returned error joins
	// the errors of the backends that failed; their previous schemas are kept.
	RefreshAll(ctx context.Context) error
	// Run calls RefreshAll right away and then on every tick until ctx is done.
	Run(ctx context.Context, interval time.Duration)
}

var _ SchemaRefreshService = (*schemaRefreshService)(nil)

type SchemaRefreshServiceOptions struct {
	Backends       []backends.Config
	Registry       *registry.Store
	MetricsService metrics.MetricsService
	Pool           pond.Pool
	// SnapshotStore is optional. Without it nothing is persisted and WarmStart is a no-op.
	SnapshotStore data.SchemaSnapshotStore
	// AppTracker is optional and receives the errors of refreshes that failed after every retry.
	AppTracker    apptracker.AppTracker
	RetryAttempts uint
	RetryDelay    time.Duration
	// NewFetcher builds the introspection fetcher of a backend, defaults to an HTTP client.
	NewFetcher func(cfg backends.Config) introspection.Fetcher
	// Now defaults to time.Now.
	Now func() time.Time
}

func (o *SchemaRefreshServiceOptions) ValidateOptions() error {
	if len(o.Backends) == 0 {
		return backends.ErrNoBackends
	}
	if o.Registry == nil {
		return errors.New("registry cannot be nil")
	}
	if o.MetricsService == nil {
		return errors.New("metrics service cannot be nil")
	}
	if o.Pool == nil {
		return errors.New("pool cannot be nil")
	}
	return nil
}

type refreshTarget struct {
	cfg    backends.Config
	remote *introspection.RemoteSchema
}

type schemaRefreshService struct {
	targets        []refreshTarget
	registry       *registry.Store
	metricsService metrics.MetricsService
	pool           pond.Pool
	snapshotStore  data.SchemaSnapshotStore
	appTracker     apptracker.AppTracker
	retryAttempts  uint
	retryDelay     time.Duration
	now            func() time.Time

	// publishMu keeps concurrent publishers from replacing a newer snapshot with an older one.
	publishMu sync.Mutex
}

func NewSchemaRefreshService(opts SchemaRefreshServiceOptions) (*schemaRefreshService, error) {
	if err := opts.ValidateOptions(); err != nil {
		return nil, fmt.Errorf("validating schema refresh service options: %w", err)
	}

	if opts.NewFetcher == nil {
		opts.NewFetcher = func(cfg backends.Config) introspection.Fetcher {
			return introspection.NewClient(cfg.URL, cfg.Timeout(), cfg.Headers)
		}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.RetryAttempts == 0 {
		opts.RetryAttempts = DefaultRefreshRetryAttempts
	}

	targets := make([]refreshTarget, 0, len(opts.Backends))
	for _, cfg := range opts.Backends {
		remote := introspection.NewRemoteSchema(cfg.Name, opts.NewFetcher(cfg), cfg.MinFetchInterval()).WithClock(opts.Now)
		targets = append(targets, refreshTarget{cfg: cfg, remote: remote})
	}

	return &schemaRefreshService{
		targets:        targets,
		registry:       opts.Registry,
		metricsService: opts.MetricsService,
		pool:           opts.Pool,
		snapshotStore:  opts.SnapshotStore,
		appTracker:     opts.AppTracker,
		retryAttempts:  opts.RetryAttempts,
		retryDelay:     opts.RetryDelay,
		now:            opts.Now,
	}, nil
}

func (s *schemaRefreshService) WarmStart(ctx context.Context) error {
	if s.snapshotStore == nil {
		return nil
	}

	snapshots, err := s.snapshotStore.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("getting stored schema snapshots: %w", err)
	}

	byBackend := make(map[string]data.SchemaSnapshot, len(snapshots))
	for _, snapshot := range snapshots {
		byBackend[snapshot.Backend] = snapshot
	}

	seeded := 0
	for _, target := range s.targets {
		snapshot, ok := byBackend[target.cfg.Name]
		if !ok {
			continue
		}
		model, err := gqlschema.Load([]byte(snapshot.Document))
		if err != nil || model.IsEmpty() {
			log.Ctx(ctx).Warnf("ignoring unusable stored schema of backend %s fetched at %s: %v", target.cfg.Name, snapshot.FetchedAt, err)
			continue
		}
		target.remote.Seed(model)
		s.observeKnownNames(target.cfg.Name, model)
		seeded++
	}

	log.Ctx(ctx).Infof("seeded %d of %d backends from stored schema snapshots", seeded, len(s.targets))
	return s.publish(ctx)
}

func (s *schemaRefreshService) RefreshAll(ctx context.Context) error {
	var (
		errs []error
		mu   sync.Mutex
	)

	group := s.pool.NewGroupContext(ctx)
	for _, target := range s.targets {
		group.Submit(func() {
			if err := s.refresh(ctx, target); err != nil {
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
			}
		})
	}
	if err := group.Wait(); err != nil {
		return fmt.Errorf("waiting for schema refresh group: %w", err)
	}

	if err := s.publish(ctx); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

func (s *schemaRefreshService) refresh(ctx context.Context, target refreshTarget) error {
	name := target.cfg.Name
	start := time.Now()

	result, err := retry.DoWithData(
		func() (introspection.RefreshResult, error) {
			return target.remote.Refresh(ctx)
		},
		retry.Context(ctx),
		retry.Attempts(s.retryAttempts),
		retry.Delay(s.retryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.metricsService.IncSchemaRefreshRetries(name)
			log.Ctx(ctx).Warnf("🔄 retrying schema refresh of backend %s (attempt %d/%d): %v", name, n+1, s.retryAttempts, err)
		}),
	)
	s.metricsService.ObserveSchemaRefreshDuration(name, time.Since(start).Seconds())
	if err != nil {
		s.metricsService.IncSchemaRefresh(name, introspection.RefreshFailed.String())
		log.Ctx(ctx).Errorf("refreshing schema of backend %s: %v", name, err)
		if s.appTracker != nil && ctx.Err() == nil {
			s.appTracker.CaptureException(err)
		}
		return fmt.Errorf("refreshing schema of backend %s: %w", name, err)
	}
	s.metricsService.IncSchemaRefresh(name, result.String())

	if result != introspection.RefreshApplied {
		return nil
	}

	model := target.remote.Schema()
	s.observeKnownNames(name, model)
	s.metricsService.SetSchemaLastRefresh(name, float64(target.remote.LastRefreshedAt().Unix()))

	if s.snapshotStore != nil {
		if err := s.persist(ctx, name, model, target.remote.LastRefreshedAt()); err != nil {
			// The schema is already live; a stale snapshot only affects the next warm start.
			log.Ctx(ctx).Errorf("persisting schema of backend %s: %v", name, err)
		}
	}
	return nil
}

func (s *schemaRefreshService) persist(ctx context.Context, name string, model *gqlschema.Model, fetchedAt time.Time) error {
	document, err := model.Introspection()
	if err != nil {
		return fmt.Errorf("rendering introspection document: %w", err)
	}
	if err := s.snapshotStore.Upsert(ctx, name, document, fetchedAt); err != nil {
		return fmt.Errorf("storing schema snapshot: %w", err)
	}
	return nil
}

func (s *schemaRefreshService) observeKnownNames(name string, model *gqlschema.Model) {
	s.metricsService.SetSchemaKnownNames(name, "types", len(model.TypeNames()))
	s.metricsService.SetSchemaKnownNames(name, "query_fields", len(model.QueryFieldNames()))
	s.metricsService.SetSchemaKnownNames(name, "mutation_fields", len(model.MutationFieldNames()))
}

func (s *schemaRefreshService) publish(ctx context.Context) error {
	s.publishMu.Lock()
	defer s.publishMu.Unlock()

	backendsInOrder := make([]registry.Backend, 0, len(s.targets))
	for _, target := range s.targets {
		backendsInOrder = append(backendsInOrder, registry.Backend{
			Name:        target.cfg.Name,
			URL:         target.cfg.URL,
			Schema:      target.remote.Schema(),
			RefreshedAt: target.remote.LastRefreshedAt(),
		})
	}

	snapshot, err := registry.NewSnapshot(s.now(), backendsInOrder...)
	if err != nil {
		return fmt.Errorf("building registry snapshot: %w", err)
	}
	s.registry.Publish(snapshot)

	log.Ctx(ctx).Debugf("published registry snapshot: %d backends, %d merged query fields",
		len(backendsInOrder), len(snapshot.Merged.QueryFieldNames()))
	return nil
}

func (s *schemaRefreshService) Run(ctx context.Context, interval time.Duration) {
	if err := s.RefreshAll(ctx); err != nil {
		log.Ctx(ctx).Errorf("refreshing schemas: %v", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Ctx(ctx).Info("stopping schema refresh loop")
			return
		case <-ticker.C:
			if err := s.RefreshAll(ctx); err != nil {
				log.Ctx(ctx).Errorf("refreshing schemas: %v", err)
			}
		}
	}
}
