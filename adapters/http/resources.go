package http

import (
	"time"

	"github.com/vaultmeter/vaultmeter/domain/account"
	"github.com/vaultmeter/vaultmeter/domain/calendar"
	"github.com/vaultmeter/vaultmeter/domain/usage"
	"github.com/vaultmeter/vaultmeter/pkg/jsonapi"
)

func accountResource(a account.Account, st usage.Status) jsonapi.Resource {
	tags := a.Tags
	if tags == nil {
		tags = []string{}
	}
	b := jsonapi.NewResource(typeAccounts, a.ID).
		Attr("name", a.Name).
		Attr("description", a.Description).
		Attr("folder_id", a.FolderID).
		Attr("tags", tags).
		Attr("reset_policy", string(a.ResetPolicy)).
		Attr("usage_limit", a.UsageLimit).
		Attr("current_usage", a.CurrentUsage).
		Attr("is_active", a.IsActive).
		Attr("created_at", a.CreatedAt).
		Attr("updated_at", a.UpdatedAt).
		Self("/api/accounts/" + a.ID)
	statusAttrs(b, st)
	return b.Build()
}

func usageResource(a account.Account, st usage.Status) jsonapi.Resource {
	b := jsonapi.NewResource(typeUsage, a.ID).
		Attr("current_usage", st.Used).
		Attr("usage_limit", st.Limit).
		Attr("reset_policy", string(a.ResetPolicy)).
		Attr("is_active", a.IsActive).
		BelongsTo("account", typeAccounts, a.ID)
	statusAttrs(b, st)
	return b.Build()
}

func statusAttrs(b *jsonapi.ResourceBuilder, st usage.Status) {
	b.Attr("usage_percentage", st.Percent).
		Attr("warning_level", st.Level.String()).
		Attr("is_over_limit", st.IsOverLimit)

	var start, end, resets *time.Time
	if st.Window != nil {
		start, end = &st.Window.Start, &st.Window.End
	}
	if st.ResetsAt != nil {
		resets = st.ResetsAt
	}
	b.Attr("period_start", start).
		Attr("period_end", end).
		Attr("resets_at", resets)
}

func eventResource(e usage.Event) jsonapi.Resource {
	return jsonapi.NewResource(typeEvents, e.ID).
		Attr("account_id", e.AccountID).
		Attr("amount", e.Amount).
		Attr("description", e.Description).
		Attr("timestamp", e.Timestamp).
		BelongsTo("account", typeAccounts, e.AccountID).
		Self("/api/events/" + e.ID).
		Build()
}

func eventResources(events []usage.Event) []jsonapi.Resource {
	out := make([]jsonapi.Resource, 0, len(events))
	for _, e := range events {
		out = append(out, eventResource(e))
	}
	return out
}

// dayEvent is an event embedded in a calendar day, labelled with its
// account's name.
type dayEvent struct {
	ID          string    `json:"id"`
	AccountID   string    `json:"account_id"`
	AccountName string    `json:"account_name"`
	Amount      int64     `json:"amount"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

func dayEvents(events []usage.Event, names map[string]string) []dayEvent {
	out := make([]dayEvent, 0, len(events))
	for _, e := range events {
		out = append(out, dayEvent{
			ID:          e.ID,
			AccountID:   e.AccountID,
			AccountName: names[e.AccountID],
			Amount:      e.Amount,
			Description: e.Description,
			Timestamp:   e.Timestamp,
		})
	}
	return out
}

func dayResource(c calendar.DayCell, names map[string]string) jsonapi.Resource {
	return jsonapi.NewResource(typeDays, c.Key()).
		Attr("date", c.Key()).
		Attr("day", c.Day).
		Attr("kind", c.Kind.String()).
		Attr("selectable", c.Selectable).
		Attr("decoration", c.Decoration).
		Attr("total_amount", c.TotalAmount).
		Attr("event_count", len(c.Events)).
		Attr("events", dayEvents(c.Events, names)).
		Build()
}
