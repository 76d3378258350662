package http

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/vaultmeter/vaultmeter/app"
	"github.com/vaultmeter/vaultmeter/domain/account"
	"github.com/vaultmeter/vaultmeter/domain/period"
	"github.com/vaultmeter/vaultmeter/domain/usage"
	"github.com/vaultmeter/vaultmeter/pkg/jsonapi"
)

// writeError maps a service error onto a JSON:API error response.
// typ and id name the resource for 404s.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error, typ, id string) {
	var verr *account.ValidationError

	switch {
	case errors.As(err, &verr):
		jsonapi.WriteError(w, jsonapi.ErrValidation(verr.Field, verr.Message))
	case errors.Is(err, usage.ErrInvalidAmount):
		jsonapi.WriteError(w, jsonapi.ErrValidation("amount", usage.ErrInvalidAmount.Error()))
	case errors.Is(err, period.ErrInvalidPolicy):
		jsonapi.WriteError(w, jsonapi.ErrValidation("reset_policy", err.Error()))
	case errors.Is(err, app.ErrInvalidInput):
		jsonapi.WriteError(w, jsonapi.NewError(http.StatusUnprocessableEntity, "invalid_input", "Invalid Input", err.Error()))
	case errors.Is(err, jsonapi.ErrMalformed):
		jsonapi.WriteError(w, jsonapi.ErrBadRequest(err.Error()))
	case errors.Is(err, app.ErrNotFound):
		jsonapi.WriteError(w, jsonapi.ErrNotFound(typ, id))
	case errors.Is(err, app.ErrAccountInactive):
		jsonapi.WriteError(w, jsonapi.ErrConflict("account_inactive", "Usage cannot be logged against an inactive account"))
	default:
		h.logger.Error().Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("request failed")
		jsonapi.WriteError(w, jsonapi.ErrInternal())
	}
}
