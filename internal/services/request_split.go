package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stellar/go-stellar-sdk/support/log"

	"github.com/stellar/graphql-stitcher/internal/metrics"
	"github.com/stellar/graphql-stitcher/internal/registry"
	"github.com/stellar/graphql-stitcher/pkg/gqlquery"
	"github.com/stellar/graphql-stitcher/pkg/gqlsplit"
)

var (
	ErrBackendNotFound = errors.New("backend not found")
	// ErrSchemaNotLoaded is returned until a refresh or a warm start has loaded the schema to split against.
	ErrSchemaNotLoaded = errors.New("schema not loaded")
)

// BackendQuery is the part of a request one backend can serve.
type BackendQuery struct {
	Backend string `json:"backend"`
	Query   string `json:"query"`
}

type SplitPlan struct {
	// Projections follow the configured backend order and never hold a blank query.
	Projections []BackendQuery `json:"projections"`
	// Unserved is what no backend knows, empty when the whole request is routable.
	Unserved string `json:"unserved"`
}

type Projection struct {
	Backend     string `json:"backend"`
	Matching    string `json:"matching"`
	NotMatching string `json:"notMatching"`
}

type RequestSplitService interface {
	Plan(ctx context.Context, request string) (*SplitPlan, error)
	Project(ctx context.Context, backend, request string) (*Projection, error)
}

var _ RequestSplitService = (*requestSplitService)(nil)

type requestSplitService struct {
	registry       *registry.Store
	metricsService metrics.MetricsService
}

func NewRequestSplitService(registryStore *registry.Store, metricsService metrics.MetricsService) (*requestSplitService, error) {
	if registryStore == nil {
		return nil, errors.New("registry cannot be nil")
	}
	if metricsService == nil {
		return nil, errors.New("metrics service cannot be nil")
	}

	return &requestSplitService{
		registry:       registryStore,
		metricsService: metricsService,
	}, nil
}

func (s *requestSplitService) Plan(ctx context.Context, request string) (*SplitPlan, error) {
	start := time.Now()
	defer func() {
		s.metricsService.ObserveSplitDuration("plan", time.Since(start).Seconds())
	}()

	snapshot := s.registry.Current()
	if snapshot.Merged.IsEmpty() {
		s.metricsService.IncSplitErrors("plan", splitErrorType(ErrSchemaNotLoaded))
		return nil, fmt.Errorf("planning request: %w", ErrSchemaNotLoaded)
	}

	plan := &SplitPlan{Projections: []BackendQuery{}}

	for _, backend := range snapshot.Backends {
		if backend.Schema.IsEmpty() || !backend.Schema.QuickMatch(request) {
			continue
		}

		query, err := gqlsplit.New(backend.Schema).Matching(request)
		if err != nil {
			s.metricsService.IncSplitErrors("plan", splitErrorType(err))
			return nil, fmt.Errorf("projecting request onto backend %s: %w", backend.Name, err)
		}
		if strings.TrimSpace(query) == "" {
			continue
		}

		plan.Projections = append(plan.Projections, BackendQuery{Backend: backend.Name, Query: query})
		s.metricsService.IncSplitProjections(backend.Name)
	}

	unserved, err := gqlsplit.New(snapshot.Merged).NotMatching(request)
	if err != nil {
		s.metricsService.IncSplitErrors("plan", splitErrorType(err))
		return nil, fmt.Errorf("computing unserved part of request: %w", err)
	}
	if strings.TrimSpace(unserved) != "" {
		plan.Unserved = unserved
		s.metricsService.IncSplitUnserved()
		log.Ctx(ctx).Debugf("request has a part no backend serves: %q", unserved)
	}

	return plan, nil
}

func (s *requestSplitService) Project(ctx context.Context, backendName, request string) (*Projection, error) {
	start := time.Now()
	defer func() {
		s.metricsService.ObserveSplitDuration("project", time.Since(start).Seconds())
	}()

	backend, ok := s.registry.Current().Backend(backendName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotFound, backendName)
	}
	if backend.Schema.IsEmpty() {
		s.metricsService.IncSplitErrors("project", splitErrorType(ErrSchemaNotLoaded))
		return nil, fmt.Errorf("projecting request onto backend %s: %w", backendName, ErrSchemaNotLoaded)
	}

	splitter := gqlsplit.New(backend.Schema)
	matching, err := splitter.Matching(request)
	if err != nil {
		s.metricsService.IncSplitErrors("project", splitErrorType(err))
		return nil, fmt.Errorf("projecting request onto backend %s: %w", backendName, err)
	}
	notMatching, err := splitter.NotMatching(request)
	if err != nil {
		s.metricsService.IncSplitErrors("project", splitErrorType(err))
		return nil, fmt.Errorf("projecting request away from backend %s: %w", backendName, err)
	}

	return &Projection{
		Backend:     backendName,
		Matching:    matching,
		NotMatching: notMatching,
	}, nil
}

func splitErrorType(err error) string {
	switch {
	case errors.Is(err, gqlquery.ErrMalformedDocument):
		return "malformed_document"
	case errors.Is(err, gqlsplit.ErrOverlappingSpans):
		return "overlapping_spans"
	case errors.Is(err, ErrSchemaNotLoaded):
		return "schema_not_loaded"
	default:
		return "unknown"
	}
}
