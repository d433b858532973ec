package httphandler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/stellar/go-stellar-sdk/support/http/httpdecode"

	"github.com/stellar/graphql-stitcher/internal/apptracker"
	"github.com/stellar/graphql-stitcher/internal/serve/httperror"
	"github.com/stellar/graphql-stitcher/internal/validators"
)

func DecodeJSONAndValidate(ctx context.Context, req *http.Request, reqBody interface{}, appTracker apptracker.AppTracker) *httperror.ErrorResponse {
	err := httpdecode.DecodeJSON(req, reqBody)
	if err != nil {
		return httperror.BadRequest("Invalid request body.", nil)
	}

	return ValidateRequestBody(ctx, reqBody, appTracker)
}

func ValidateRequestBody(ctx context.Context, reqBody interface{}, appTracker apptracker.AppTracker) *httperror.ErrorResponse {
	val := validators.NewValidator()
	if err := val.StructCtx(ctx, reqBody); err != nil {
		var vErrs validator.ValidationErrors
		if errors.As(err, &vErrs) {
			extras := validators.ParseValidationError(vErrs)
			return httperror.BadRequest("Validation error.", extras)
		}
		return httperror.InternalServerError(ctx, "", err, nil, appTracker)
	}
	return nil
}
