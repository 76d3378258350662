// Package http provides the HTTP API adapter.
package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/vaultmeter/vaultmeter/app"
	"github.com/vaultmeter/vaultmeter/pkg/jsonapi"
	"github.com/vaultmeter/vaultmeter/ports"
)

// Resource types.
const (
	typeAccounts = "accounts"
	typeEvents   = "usage-events"
	typeUsage    = "usage"
	typeDays     = "calendar-days"
)

// Handler serves the owner-scoped API.
type Handler struct {
	accounts *app.AccountService
	usage    *app.UsageService
	calendar *app.CalendarService
	clock    ports.Clock
	logger   zerolog.Logger
}

// HandlerDeps contains dependencies for Handler.
type HandlerDeps struct {
	Accounts *app.AccountService
	Usage    *app.UsageService
	Calendar *app.CalendarService
	Clock    ports.Clock
	Logger   zerolog.Logger
}

// NewHandler creates an API handler.
func NewHandler(deps HandlerDeps) *Handler {
	return &Handler{
		accounts: deps.Accounts,
		usage:    deps.Usage,
		calendar: deps.Calendar,
		clock:    deps.Clock,
		logger:   deps.Logger.With().Str("component", "api").Logger(),
	}
}

// Routes returns the API routes. Every route expects an owner in the
// request context.
func (h *Handler) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/accounts", func(r chi.Router) {
		r.Get("/", h.ListAccounts)
		r.Post("/", h.CreateAccount)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetAccount)
			r.Patch("/", h.UpdateAccount)
			r.Delete("/", h.DeleteAccount)
			r.Get("/usage", h.GetUsage)
			r.Post("/usage", h.LogUsage)
			r.Get("/events", h.ListEvents)
		})
	})

	r.Route("/events/{id}", func(r chi.Router) {
		r.Get("/", h.GetEvent)
		r.Patch("/", h.UpdateEvent)
		r.Delete("/", h.DeleteEvent)
	})

	r.Get("/calendar/days/{date}", h.GetDay)
	r.Get("/calendar/{year}/{month}", h.GetMonth)

	return r
}

// owner returns the authenticated owner or writes a 401.
func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	owner, ok := OwnerFromContext(r.Context())
	if !ok {
		jsonapi.WriteError(w, jsonapi.ErrUnauthorized(""))
		return "", false
	}
	return owner, true
}
