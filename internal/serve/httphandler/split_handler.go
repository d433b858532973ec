package httphandler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/stellar/go-stellar-sdk/support/render/httpjson"

	"github.com/stellar/graphql-stitcher/internal/apptracker"
	"github.com/stellar/graphql-stitcher/internal/serve/httperror"
	"github.com/stellar/graphql-stitcher/internal/services"
	"github.com/stellar/graphql-stitcher/pkg/gqlquery"
)

type SplitHandler struct {
	SplitService services.RequestSplitService
	AppTracker   apptracker.AppTracker
}

type SplitRequest struct {
	Query string `json:"query" validate:"required,not_blank"`
}

// Split answers with the projection of the request onto every backend that can serve part of it, and with the part
// none of them can serve.
func (h SplitHandler) Split(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var reqBody SplitRequest
	if httpErr := DecodeJSONAndValidate(ctx, r, &reqBody, h.AppTracker); httpErr != nil {
		httpErr.Render(w)
		return
	}

	plan, err := h.SplitService.Plan(ctx, reqBody.Query)
	if err != nil {
		h.renderSplitError(w, r, err)
		return
	}

	httpjson.Render(w, plan, httpjson.JSON)
}

// SplitForBackend answers with the part of the request the backend named in the path serves, and the rest.
func (h SplitHandler) SplitForBackend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	backend := chi.URLParam(r, "name")

	var reqBody SplitRequest
	if httpErr := DecodeJSONAndValidate(ctx, r, &reqBody, h.AppTracker); httpErr != nil {
		httpErr.Render(w)
		return
	}

	projection, err := h.SplitService.Project(ctx, backend, reqBody.Query)
	if err != nil {
		h.renderSplitError(w, r, err)
		return
	}

	httpjson.Render(w, projection, httpjson.JSON)
}

func (h SplitHandler) renderSplitError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, gqlquery.ErrMalformedDocument):
		httperror.BadRequest("Malformed GraphQL document.", map[string]interface{}{"details": err.Error()}).Render(w)
	case errors.Is(err, services.ErrBackendNotFound):
		httperror.NotFoundError("Backend not found.", map[string]interface{}{"backend": chi.URLParam(r, "name")}).Render(w)
	case errors.Is(err, services.ErrSchemaNotLoaded):
		if backend := chi.URLParam(r, "name"); backend != "" {
			httperror.ServiceUnavailable(fmt.Sprintf("The schema of backend %s has not been loaded yet.", backend)).Render(w)
			return
		}
		httperror.ServiceUnavailable("No backend schema has been loaded yet.").Render(w)
	default:
		httperror.InternalServerError(r.Context(), "", err, nil, h.AppTracker).Render(w)
	}
}
