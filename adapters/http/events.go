package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vaultmeter/vaultmeter/domain/usage"
	"github.com/vaultmeter/vaultmeter/pkg/jsonapi"
)

// UpdateEventRequest holds the editable attributes of an event.
type UpdateEventRequest struct {
	Amount      *json.Number `json:"amount,omitempty" swaggertype:"integer"`
	Description *string      `json:"description,omitempty"`
}

// GetEvent returns one event.
//
//	@Summary		Get usage event
//	@Tags			Events
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Event ID"
//	@Success		200	{object}	jsonapi.Document
//	@Failure		404	{object}	jsonapi.Document
//	@Router			/api/events/{id} [get]
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	e, err := h.usage.GetEvent(r.Context(), owner, id)
	if err != nil {
		h.writeError(w, r, err, typeEvents, id)
		return
	}
	jsonapi.WriteResource(w, http.StatusOK, eventResource(e), nil)
}

// UpdateEvent edits an event's amount or description. The timestamp and
// account never change.
//
//	@Summary		Update usage event
//	@Tags			Events
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string				true	"Event ID"
//	@Param			event	body		UpdateEventRequest	true	"Changed attributes"
//	@Success		200		{object}	jsonapi.Document
//	@Failure		404		{object}	jsonapi.Document
//	@Failure		422		{object}	jsonapi.Document
//	@Router			/api/events/{id} [patch]
func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var req UpdateEventRequest
	if err := jsonapi.Decode(r, typeEvents, &req); err != nil {
		h.writeError(w, r, err, typeEvents, id)
		return
	}

	var p usage.Patch
	if req.Amount != nil {
		amount, err := parseAmount(*req.Amount)
		if err != nil {
			h.writeError(w, r, err, typeEvents, id)
			return
		}
		p.Amount = &amount
	}
	p.Description = req.Description

	e, err := h.usage.UpdateEvent(r.Context(), owner, id, p)
	if err != nil {
		h.writeError(w, r, err, typeEvents, id)
		return
	}
	jsonapi.WriteResource(w, http.StatusOK, eventResource(e), nil)
}

// DeleteEvent removes an event.
//
//	@Summary		Delete usage event
//	@Tags			Events
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Event ID"
//	@Success		204
//	@Failure		404	{object}	jsonapi.Document
//	@Router			/api/events/{id} [delete]
func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.usage.DeleteEvent(r.Context(), owner, id); err != nil {
		h.writeError(w, r, err, typeEvents, id)
		return
	}
	jsonapi.WriteNoContent(w)
}
