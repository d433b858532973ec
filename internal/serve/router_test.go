package serve

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"github.com/stellar/graphql-stitcher/internal/apptracker"
	"github.com/stellar/graphql-stitcher/internal/backends"
	"github.com/stellar/graphql-stitcher/internal/registry"
	"github.com/stellar/graphql-stitcher/pkg/gqlschema"
)

const heroesIntrospection = `{"data": {"__schema": {
  "queryType": {"name": "Query"},
  "types": [
    {"name": "Query", "fields": [{"name": "hero"}]},
    {"name": "Character", "fields": [{"name": "name"}]}
  ]
}}}`

var testBackends = []backends.Config{
	{Name: "heroes", URL: "http://heroes.invalid/graphql"},
	{Name: "villains", URL: "http://villains.invalid/graphql"},
}

func newTestContainer(t *testing.T) *serviceContainer {
	t.Helper()

	container, err := NewServiceContainer(t.Context(), ServiceDependencies{
		Backends:          testBackends,
		RefreshMaxWorkers: 2,
		AppTracker:        &apptracker.MockAppTracker{},
	})
	require.NoError(t, err)
	t.Cleanup(container.Close)
	return container
}

func publishHeroes(t *testing.T, container ServiceContainer) {
	t.Helper()

	heroes, err := gqlschema.Load([]byte(heroesIntrospection))
	require.NoError(t, err)
	snapshot, err := registry.NewSnapshot(time.Now(),
		registry.Backend{Name: "heroes", URL: testBackends[0].URL, Schema: heroes, RefreshedAt: time.Now()},
		registry.Backend{Name: "villains", URL: testBackends[1].URL, Schema: gqlschema.Empty()},
	)
	require.NoError(t, err)
	container.GetRegistry().Publish(snapshot)
}

func do(handler http.Handler, method, path, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	handler.ServeHTTP(rr, req)
	return rr
}

func TestNewHandler(t *testing.T) {
	t.Run("health", func(t *testing.T) {
		rr := do(NewHandler(newTestContainer(t)), http.MethodGet, "/health", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), "pass")
	})

	t.Run("metrics_count_requests", func(t *testing.T) {
		handler := NewHandler(newTestContainer(t))
		do(handler, http.MethodGet, "/health", "")

		rr := do(handler, http.MethodGet, "/metrics", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `http_requests_total{endpoint="/health",method="GET",status_code="200"} 1`)
		assert.Contains(t, rr.Body.String(), `pool_tasks_submitted_total{channel="schema_refresh"}`)
	})

	t.Run("not_found", func(t *testing.T) {
		rr := do(NewHandler(newTestContainer(t)), http.MethodGet, "/graphql", "")
		assert.Equal(t, http.StatusNotFound, rr.Code)
		assert.JSONEq(t, `{"error": "The resource at the url requested was not found."}`, rr.Body.String())
	})

	t.Run("method_not_allowed", func(t *testing.T) {
		rr := do(NewHandler(newTestContainer(t)), http.MethodGet, "/split", "")
		assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
	})

	t.Run("schema_before_first_refresh", func(t *testing.T) {
		handler := NewHandler(newTestContainer(t))

		rr := do(handler, http.MethodGet, "/schema", "")
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)

		rr = do(handler, http.MethodGet, "/backends", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.JSONEq(t, `{"backends": []}`, rr.Body.String())
	})

	t.Run("schema_routes", func(t *testing.T) {
		container := newTestContainer(t)
		publishHeroes(t, container)
		handler := NewHandler(container)

		rr := do(handler, http.MethodGet, "/schema", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, "Query", gjson.Get(rr.Body.String(), "data.__schema.queryType.name").String())

		rr = do(handler, http.MethodGet, "/backends", "")
		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Equal(t, []interface{}{"heroes", "villains"}, gjson.Get(rr.Body.String(), "backends.#.name").Value())
		assert.Equal(t, []interface{}{true, false}, gjson.Get(rr.Body.String(), "backends.#.ready").Value())

		rr = do(handler, http.MethodGet, "/backends/heroes/schema", "")
		assert.Equal(t, http.StatusOK, rr.Code)

		rr = do(handler, http.MethodGet, "/backends/villains/schema", "")
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	})

	t.Run("split_routes", func(t *testing.T) {
		container := newTestContainer(t)
		handler := NewHandler(container)

		rr := do(handler, http.MethodPost, "/split", `{"query": "{ hero { name } }"}`)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.JSONEq(t, `{"error": "No backend schema has been loaded yet."}`, rr.Body.String())

		publishHeroes(t, container)

		rr = do(handler, http.MethodPost, "/split", `{"query": "{ hero { name } }"}`)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, "heroes", gjson.Get(rr.Body.String(), "projections.0.backend").String())
		assert.Contains(t, gjson.Get(rr.Body.String(), "projections.0.query").String(), "hero")
		assert.Equal(t, int64(1), gjson.Get(rr.Body.String(), "projections.#").Int())

		rr = do(handler, http.MethodPost, "/backends/heroes/split", `{"query": "{ hero { name } }"}`)
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		assert.Equal(t, "heroes", gjson.Get(rr.Body.String(), "backend").String())

		rr = do(handler, http.MethodPost, "/backends/sidekicks/split", `{"query": "{ hero { name } }"}`)
		assert.Equal(t, http.StatusNotFound, rr.Code)

		rr = do(handler, http.MethodPost, "/backends/villains/split", `{"query": "{ villain { name } }"}`)
		assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
		assert.JSONEq(t, `{"error": "The schema of backend villains has not been loaded yet."}`, rr.Body.String())

		rr = do(handler, http.MethodPost, "/split", `{"query": ""}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("body_too_large", func(t *testing.T) {
		handler := NewHandler(newTestContainer(t))
		body := `{"query": "` + strings.Repeat("a", 2<<20) + `"}`

		rr := do(handler, http.MethodPost, "/split", body)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})
}
