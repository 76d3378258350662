package usage

import (
	"math"
	"time"

	"github.com/vaultmeter/vaultmeter/domain/account"
	"github.com/vaultmeter/vaultmeter/domain/period"
)

// Sum adds the amounts of events belonging to accountID.
// A nil window means all time. The total saturates at math.MaxInt64.
// This is a PURE function.
func Sum(accountID string, events []Event, window *period.Window) int64 {
	var total int64
	for _, e := range events {
		if e.AccountID != accountID {
			continue
		}
		if window != nil && !window.Contains(e.Timestamp) {
			continue
		}
		if e.Amount > 0 && total > math.MaxInt64-e.Amount {
			return math.MaxInt64
		}
		total += e.Amount
	}
	return total
}

// CurrentUsage computes the account's usage for the period containing now.
//
// Inactive accounts are frozen: their cached value is returned unchanged.
// Accounts with the Never policy count every event. All others count
// events inside the resolved window.
// This is a PURE function; it never mutates events.
func CurrentUsage(a account.Account, events []Event, now time.Time) int64 {
	if !a.IsActive {
		return a.CurrentUsage
	}
	w, ok := period.Resolve(a.ResetPolicy, now)
	if !ok {
		return Sum(a.ID, events, nil)
	}
	return Sum(a.ID, events, &w)
}

// Percentage returns current as a percentage of limit.
// Returns 0 when no limit is set or the limit is not positive.
// This is a PURE function.
func Percentage(current int64, limit *int64) float64 {
	if limit == nil || *limit <= 0 {
		return 0
	}
	return float64(current) / float64(*limit) * 100
}

// Level maps a percentage onto a warning level.
// This is a PURE function.
func Level(percent float64) WarningLevel {
	switch {
	case percent > 100:
		return WarningExceeded
	case percent >= 95:
		return WarningCritical
	case percent >= 80:
		return WarningApproaching
	default:
		return WarningNone
	}
}

// Status summarizes an account's usage for display (value type).
type Status struct {
	AccountID   string
	Used        int64
	Limit       *int64
	Percent     float64
	Level       WarningLevel
	Window      *period.Window // nil for Never
	ResetsAt    *time.Time
	IsOverLimit bool
}

// StatusOf builds a Status from an account whose CurrentUsage is up to date.
// This is a PURE function.
func StatusOf(a account.Account, now time.Time) Status {
	pct := Percentage(a.CurrentUsage, a.UsageLimit)
	s := Status{
		AccountID:   a.ID,
		Used:        a.CurrentUsage,
		Limit:       a.UsageLimit,
		Percent:     pct,
		Level:       Level(pct),
		IsOverLimit: a.HasLimit() && a.CurrentUsage > *a.UsageLimit,
	}
	if w, ok := period.Resolve(a.ResetPolicy, now); ok {
		s.Window = &w
		end := w.End
		s.ResetsAt = &end
	}
	return s
}

// FilterOrphans drops events whose account is not in accountIDs.
// This is a PURE function.
func FilterOrphans(events []Event, accountIDs map[string]bool) []Event {
	out := make([]Event, 0, len(events))
	for _, e := range events {
		if accountIDs[e.AccountID] {
			out = append(out, e)
		}
	}
	return out
}
