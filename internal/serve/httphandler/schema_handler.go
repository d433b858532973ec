package httphandler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/stellar/go-stellar-sdk/support/render/httpjson"

	"github.com/stellar/graphql-stitcher/internal/apptracker"
	"github.com/stellar/graphql-stitcher/internal/registry"
	"github.com/stellar/graphql-stitcher/internal/serve/httperror"
	"github.com/stellar/graphql-stitcher/pkg/gqlschema"
)

type SchemaHandler struct {
	Registry   *registry.Store
	AppTracker apptracker.AppTracker
}

type BackendStatus struct {
	Name              string     `json:"name"`
	URL               string     `json:"url"`
	Ready             bool       `json:"ready"`
	Types             int        `json:"types"`
	QueryFields       int        `json:"queryFields"`
	MutationFields    int        `json:"mutationFields"`
	SchemaRefreshedAt *time.Time `json:"schemaRefreshedAt,omitempty"`
}

type BackendsResponse struct {
	Backends  []BackendStatus `json:"backends"`
	UpdatedAt *time.Time      `json:"updatedAt,omitempty"`
}

func newBackendStatus(b registry.Backend) BackendStatus {
	status := BackendStatus{
		Name:           b.Name,
		URL:            b.URL,
		Ready:          !b.Schema.IsEmpty(),
		Types:          len(b.Schema.TypeNames()),
		QueryFields:    len(b.Schema.QueryFieldNames()),
		MutationFields: len(b.Schema.MutationFieldNames()),
	}
	if !b.RefreshedAt.IsZero() {
		refreshedAt := b.RefreshedAt
		status.SchemaRefreshedAt = &refreshedAt
	}
	return status
}

func (h SchemaHandler) ListBackends(w http.ResponseWriter, r *http.Request) {
	snapshot := h.Registry.Current()

	resp := BackendsResponse{Backends: make([]BackendStatus, 0, len(snapshot.Backends))}
	for _, b := range snapshot.Backends {
		resp.Backends = append(resp.Backends, newBackendStatus(b))
	}
	if !snapshot.UpdatedAt.IsZero() {
		updatedAt := snapshot.UpdatedAt
		resp.UpdatedAt = &updatedAt
	}

	httpjson.Render(w, resp, httpjson.JSON)
}

// GetSchema renders the merged introspection document of every backend.
func (h SchemaHandler) GetSchema(w http.ResponseWriter, r *http.Request) {
	merged := h.Registry.Current().Merged
	if merged.IsEmpty() {
		httperror.ServiceUnavailable("No backend schema has been loaded yet.").Render(w)
		return
	}
	h.renderIntrospection(w, r, merged)
}

func (h SchemaHandler) GetBackendSchema(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	backend, ok := h.Registry.Current().Backend(name)
	if !ok {
		httperror.NotFoundError("Backend not found.", map[string]interface{}{"backend": name}).Render(w)
		return
	}
	if backend.Schema.IsEmpty() {
		httperror.ServiceUnavailable(fmt.Sprintf("The schema of backend %s has not been loaded yet.", name)).Render(w)
		return
	}
	h.renderIntrospection(w, r, backend.Schema)
}

func (h SchemaHandler) renderIntrospection(w http.ResponseWriter, r *http.Request, model *gqlschema.Model) {
	document, err := model.Introspection()
	if err != nil {
		httperror.InternalServerError(r.Context(), "", fmt.Errorf("rendering introspection: %w", err), nil, h.AppTracker).Render(w)
		return
	}
	httpjson.Render(w, json.RawMessage(document), httpjson.JSON)
}
