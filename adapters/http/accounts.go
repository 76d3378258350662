package http

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/vaultmeter/vaultmeter/app"
	"github.com/vaultmeter/vaultmeter/domain/account"
	"github.com/vaultmeter/vaultmeter/domain/period"
	"github.com/vaultmeter/vaultmeter/domain/usage"
	"github.com/vaultmeter/vaultmeter/pkg/jsonapi"
)

// CreateAccountRequest is the attributes of a new account.
type CreateAccountRequest struct {
	Name        string   `json:"name" example:"Netflix"`
	Description string   `json:"description,omitempty"`
	FolderID    string   `json:"folder_id,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	ResetPolicy string   `json:"reset_policy" example:"monthly" enums:"daily,weekly,monthly,yearly,never"`
	UsageLimit  *int64   `json:"usage_limit,omitempty" example:"4"`
}

// UpdateAccountRequest holds the attributes to change. Omitted attributes are
// left as they are; "usage_limit": null removes the ceiling.
type UpdateAccountRequest struct {
	Name        *string       `json:"name,omitempty"`
	Description *string       `json:"description,omitempty"`
	FolderID    *string       `json:"folder_id,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	ResetPolicy *string       `json:"reset_policy,omitempty"`
	UsageLimit  optionalInt64 `json:"usage_limit" swaggertype:"integer"`
	IsActive    *bool         `json:"is_active,omitempty"`
}

// LogUsageRequest is the attributes of a usage log call.
type LogUsageRequest struct {
	Amount      json.Number `json:"amount" swaggertype:"integer" example:"1"`
	Description string      `json:"description,omitempty" example:"Movie night"`
}

// optionalInt64 tells an absent value from an explicit null.
type optionalInt64 struct {
	Set   bool
	Value *int64
}

func (o *optionalInt64) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func (req UpdateAccountRequest) patch() (account.Patch, error) {
	p := account.Patch{
		Name:        req.Name,
		Description: req.Description,
		FolderID:    req.FolderID,
		Tags:        req.Tags,
		IsActive:    req.IsActive,
	}
	if req.ResetPolicy != nil {
		policy, err := period.ParsePolicy(*req.ResetPolicy)
		if err != nil {
			return account.Patch{}, &account.ValidationError{Field: "reset_policy", Message: err.Error()}
		}
		p.ResetPolicy = &policy
	}
	if req.UsageLimit.Set {
		if req.UsageLimit.Value == nil {
			p.ClearLimit = true
		} else {
			p.UsageLimit = req.UsageLimit.Value
		}
	}
	return p, nil
}

// parseAmount accepts only whole positive numbers.
func parseAmount(n json.Number) (int64, error) {
	if n == "" {
		return 0, &account.ValidationError{Field: "amount", Message: "is required"}
	}
	v, err := n.Int64()
	if err != nil {
		return 0, usage.ErrInvalidAmount
	}
	return v, nil
}

func (h *Handler) respondAccount(w http.ResponseWriter, status int, a account.Account) {
	jsonapi.WriteResource(w, status, accountResource(a, usage.StatusOf(a, h.clock.Now())), nil)
}

// ListAccounts returns the owner's accounts with live usage.
//
//	@Summary		List accounts
//	@Description	Returns every account of the caller with usage recomputed for the current period
//	@Tags			Accounts
//	@Produce		json
//	@Security		BearerAuth
//	@Success		200	{object}	jsonapi.Document
//	@Failure		401	{object}	jsonapi.Document
//	@Router			/api/accounts [get]
func (h *Handler) ListAccounts(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	accounts, err := h.accounts.List(r.Context(), owner)
	if err != nil {
		h.writeError(w, r, err, typeAccounts, "")
		return
	}

	now := h.clock.Now()
	resources := make([]jsonapi.Resource, 0, len(accounts))
	for _, a := range accounts {
		resources = append(resources, accountResource(a, usage.StatusOf(a, now)))
	}
	jsonapi.WriteCollection(w, resources, jsonapi.Meta{"total": len(resources)})
}

// CreateAccount creates an account.
//
//	@Summary		Create account
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			account	body		CreateAccountRequest	true	"Account attributes"
//	@Success		201		{object}	jsonapi.Document
//	@Failure		400		{object}	jsonapi.Document
//	@Failure		422		{object}	jsonapi.Document
//	@Router			/api/accounts [post]
func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	var req CreateAccountRequest
	if err := jsonapi.Decode(r, typeAccounts, &req); err != nil {
		h.writeError(w, r, err, typeAccounts, "")
		return
	}

	a, err := h.accounts.Create(r.Context(), owner, app.CreateInput{
		FolderID:    req.FolderID,
		Name:        req.Name,
		Description: req.Description,
		Tags:        req.Tags,
		ResetPolicy: req.ResetPolicy,
		UsageLimit:  req.UsageLimit,
	})
	if err != nil {
		h.writeError(w, r, err, typeAccounts, "")
		return
	}

	jsonapi.WriteCreated(w, accountResource(a, usage.StatusOf(a, h.clock.Now())), "/api/accounts/"+a.ID)
}

// GetAccount returns one account.
//
//	@Summary		Get account
//	@Tags			Accounts
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Account ID"
//	@Success		200	{object}	jsonapi.Document
//	@Failure		404	{object}	jsonapi.Document
//	@Router			/api/accounts/{id} [get]
func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	a, err := h.accounts.Get(r.Context(), owner, id)
	if err != nil {
		h.writeError(w, r, err, typeAccounts, id)
		return
	}
	h.respondAccount(w, http.StatusOK, a)
}

// UpdateAccount changes an account.
//
//	@Summary		Update account
//	@Description	Omitted attributes are unchanged. A null usage_limit removes the ceiling.
//	@Tags			Accounts
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string					true	"Account ID"
//	@Param			account	body		UpdateAccountRequest	true	"Changed attributes"
//	@Success		200		{object}	jsonapi.Document
//	@Failure		404		{object}	jsonapi.Document
//	@Failure		422		{object}	jsonapi.Document
//	@Router			/api/accounts/{id} [patch]
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var req UpdateAccountRequest
	if err := jsonapi.Decode(r, typeAccounts, &req); err != nil {
		h.writeError(w, r, err, typeAccounts, id)
		return
	}
	p, err := req.patch()
	if err != nil {
		h.writeError(w, r, err, typeAccounts, id)
		return
	}

	a, err := h.accounts.Update(r.Context(), owner, id, p)
	if err != nil {
		h.writeError(w, r, err, typeAccounts, id)
		return
	}
	h.respondAccount(w, http.StatusOK, a)
}

// DeleteAccount removes an account. Its events stop counting anywhere.
//
//	@Summary		Delete account
//	@Tags			Accounts
//	@Security		BearerAuth
//	@Param			id	path	string	true	"Account ID"
//	@Success		204
//	@Failure		404	{object}	jsonapi.Document
//	@Router			/api/accounts/{id} [delete]
func (h *Handler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	if err := h.accounts.Delete(r.Context(), owner, id); err != nil {
		h.writeError(w, r, err, typeAccounts, id)
		return
	}
	jsonapi.WriteNoContent(w)
}

// GetUsage returns an account's usage for the current period.
//
//	@Summary		Get current usage
//	@Tags			Usage
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Account ID"
//	@Success		200	{object}	jsonapi.Document
//	@Failure		404	{object}	jsonapi.Document
//	@Router			/api/accounts/{id}/usage [get]
func (h *Handler) GetUsage(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	a, st, err := h.usage.Status(r.Context(), owner, id)
	if err != nil {
		h.writeError(w, r, err, typeAccounts, id)
		return
	}
	jsonapi.WriteResource(w, http.StatusOK, usageResource(a, st), nil)
}

// LogUsage records usage against an account at the current instant.
//
//	@Summary		Log usage
//	@Description	Logging succeeds past the ceiling; the response reports the warning level.
//	@Tags			Usage
//	@Accept			json
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id		path		string			true	"Account ID"
//	@Param			usage	body		LogUsageRequest	true	"Amount and description"
//	@Success		201		{object}	jsonapi.Document
//	@Failure		404		{object}	jsonapi.Document
//	@Failure		409		{object}	jsonapi.Document	"Account is inactive"
//	@Failure		422		{object}	jsonapi.Document
//	@Router			/api/accounts/{id}/usage [post]
func (h *Handler) LogUsage(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	var req LogUsageRequest
	if err := jsonapi.Decode(r, typeEvents, &req); err != nil {
		h.writeError(w, r, err, typeAccounts, id)
		return
	}
	amount, err := parseAmount(req.Amount)
	if err != nil {
		h.writeError(w, r, err, typeAccounts, id)
		return
	}

	e, err := h.usage.LogUsage(r.Context(), owner, id, amount, req.Description)
	if err != nil {
		h.writeError(w, r, err, typeAccounts, id)
		return
	}

	res := eventResource(e)
	if a, st, err := h.usage.Status(r.Context(), owner, id); err == nil {
		res.Meta = jsonapi.Meta{"account": usageResource(a, st).Attributes}
	}
	jsonapi.WriteCreated(w, res, "/api/events/"+e.ID)
}

// ListEvents returns an account's events, oldest first.
//
//	@Summary		List account events
//	@Tags			Usage
//	@Produce		json
//	@Security		BearerAuth
//	@Param			id	path		string	true	"Account ID"
//	@Success		200	{object}	jsonapi.Document
//	@Failure		404	{object}	jsonapi.Document
//	@Router			/api/accounts/{id}/events [get]
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")

	events, err := h.usage.ListEvents(r.Context(), owner, id)
	if err != nil {
		h.writeError(w, r, err, typeAccounts, id)
		return
	}
	jsonapi.WriteCollection(w, eventResources(events), jsonapi.Meta{"total": len(events)})
}
