package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/vaultmeter/vaultmeter/domain/calendar"
	"github.com/vaultmeter/vaultmeter/pkg/jsonapi"
)

// GetMonth returns the calendar grid of a month.
//
//	@Summary		Get month grid
//	@Description	Returns whole weeks of day cells, Sunday first, with each day's events in the configured time zone
//	@Tags			Calendar
//	@Produce		json
//	@Security		BearerAuth
//	@Param			year	path		int	true	"Year"
//	@Param			month	path		int	true	"Month (1-12)"
//	@Success		200		{object}	jsonapi.Document
//	@Failure		400		{object}	jsonapi.Document
//	@Failure		422		{object}	jsonapi.Document
//	@Router			/api/calendar/{year}/{month} [get]
func (h *Handler) GetMonth(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	year, err := strconv.Atoi(chi.URLParam(r, "year"))
	if err != nil {
		jsonapi.WriteError(w, jsonapi.ErrBadRequest("year must be a number").AtParameter("year"))
		return
	}
	month, err := strconv.Atoi(chi.URLParam(r, "month"))
	if err != nil {
		jsonapi.WriteError(w, jsonapi.ErrBadRequest("month must be a number").AtParameter("month"))
		return
	}

	grid, err := h.calendar.GetMonthGrid(r.Context(), owner, year, month)
	if err != nil {
		h.writeError(w, r, err, typeDays, "")
		return
	}

	resources := make([]jsonapi.Resource, 0, len(grid.Cells))
	for _, c := range grid.Cells {
		resources = append(resources, dayResource(c, grid.Accounts))
	}
	layout := calendar.GridLayout(year, grid.Month, grid.Location)
	jsonapi.WriteCollection(w, resources, jsonapi.Meta{
		"year":          grid.Year,
		"month":         int(grid.Month),
		"timezone":      grid.Location.String(),
		"offset":        layout.Offset,
		"days_in_month": layout.DaysInMonth,
		"total_amount":  grid.Total,
	})
}

// GetDay returns the events of one calendar day.
//
//	@Summary		Get day events
//	@Tags			Calendar
//	@Produce		json
//	@Security		BearerAuth
//	@Param			date	path		string	true	"Date (YYYY-MM-DD)"
//	@Success		200		{object}	jsonapi.Document
//	@Failure		422		{object}	jsonapi.Document
//	@Router			/api/calendar/days/{date} [get]
func (h *Handler) GetDay(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}

	day, err := h.calendar.GetEventsForDate(r.Context(), owner, chi.URLParam(r, "date"))
	if err != nil {
		h.writeError(w, r, err, typeDays, "")
		return
	}

	resources := eventResources(day.Events)
	for i, e := range day.Events {
		resources[i].Attributes["account_name"] = day.Accounts[e.AccountID]
	}
	jsonapi.WriteCollection(w, resources, jsonapi.Meta{
		"date":         day.Date,
		"timezone":     h.calendar.Location().String(),
		"total_amount": day.Total,
	})
}
