package serve

import (
	"net/http"

	"github.com/go-chi/chi"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	supporthttp "github.com/stellar/go-stellar-sdk/support/http"
	"github.com/stellar/go-stellar-sdk/support/log"
	"github.com/stellar/go-stellar-sdk/support/render/health"

	"github.com/stellar/graphql-stitcher/internal/serve/httperror"
	"github.com/stellar/graphql-stitcher/internal/serve/httphandler"
	"github.com/stellar/graphql-stitcher/internal/serve/middleware"
)

// NewHandler creates the main HTTP handler with all routes configured
func NewHandler(container ServiceContainer) http.Handler {
	mux := supporthttp.NewAPIMux(log.DefaultLogger)
	mux.NotFound(httperror.ErrorHandler{Error: httperror.NotFound}.ServeHTTP)
	mux.MethodNotAllowed(httperror.ErrorHandler{Error: httperror.MethodNotAllowed}.ServeHTTP)

	setupMiddleware(mux, container)
	setupPublicRoutes(mux, container)
	setupSchemaRoutes(mux, container)
	setupSplitRoutes(mux, container)

	return mux
}

func setupMiddleware(mux *chi.Mux, container ServiceContainer) {
	mux.Use(middleware.MetricsMiddleware(container.GetMetricsService()))
	mux.Use(middleware.RecoverHandler(container.GetAppTracker()))
	mux.Use(middleware.LimitBody(middleware.MaxBodySize))
}

func setupPublicRoutes(mux *chi.Mux, container ServiceContainer) {
	mux.Get("/health", health.PassHandler{}.ServeHTTP)

	mux.Get("/metrics", promhttp.HandlerFor(
		container.GetMetricsService().GetRegistry(),
		promhttp.HandlerOpts{},
	).ServeHTTP)
}

func setupSchemaRoutes(mux *chi.Mux, container ServiceContainer) {
	handler := &httphandler.SchemaHandler{
		Registry:   container.GetRegistry(),
		AppTracker: container.GetAppTracker(),
	}

	mux.Get("/schema", handler.GetSchema)
	mux.Get("/backends", handler.ListBackends)
	mux.Get("/backends/{name}/schema", handler.GetBackendSchema)
}

func setupSplitRoutes(mux *chi.Mux, container ServiceContainer) {
	handler := &httphandler.SplitHandler{
		SplitService: container.GetRequestSplitService(),
		AppTracker:   container.GetAppTracker(),
	}

	mux.Post("/split", handler.Split)
	mux.Post("/backends/{name}/split", handler.SplitForBackend)
}
