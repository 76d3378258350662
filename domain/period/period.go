// Package period resolves reset policies into concrete time windows.
// All functions are pure - the caller supplies "now".
package period

import (
	"errors"
	"strings"
	"time"
)

// Policy determines when a usage counter restarts.
type Policy string

const (
	Daily   Policy = "daily"
	Weekly  Policy = "weekly"
	Monthly Policy = "monthly"
	Yearly  Policy = "yearly"
	Never   Policy = "never" // cumulative over the account's lifetime
)

// ErrInvalidPolicy is returned when a policy string is not recognized.
var ErrInvalidPolicy = errors.New("invalid reset policy")

// Policies lists every supported policy in display order.
var Policies = []Policy{Daily, Weekly, Monthly, Yearly, Never}

// ParsePolicy converts user input into a Policy.
func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(s)))
	if !p.Valid() {
		return "", ErrInvalidPolicy
	}
	return p, nil
}

// Valid reports whether p is a known policy.
func (p Policy) Valid() bool {
	switch p {
	case Daily, Weekly, Monthly, Yearly, Never:
		return true
	}
	return false
}

// Window is a half-open instant range [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// Duration returns the wall-clock length of the window.
func (w Window) Duration() time.Duration {
	return w.End.Sub(w.Start)
}

// Resolve returns the window containing now for the given policy.
// The second return value is false for Never (and unknown policies),
// meaning the window is unbounded.
//
// Alignment uses now's location, so a day is a calendar day in that zone
// even when a DST transition makes it 23 or 25 hours long.
// This is a PURE function.
func Resolve(p Policy, now time.Time) (Window, bool) {
	loc := now.Location()
	y, m, d := now.Date()

	var start, end time.Time
	switch p {
	case Daily:
		start = time.Date(y, m, d, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 0, 1)
	case Weekly:
		// Sunday is weekday 0.
		start = time.Date(y, m, d-int(now.Weekday()), 0, 0, 0, 0, loc)
		end = start.AddDate(0, 0, 7)
	case Monthly:
		start = time.Date(y, m, 1, 0, 0, 0, 0, loc)
		end = start.AddDate(0, 1, 0)
	case Yearly:
		start = time.Date(y, time.January, 1, 0, 0, 0, 0, loc)
		end = start.AddDate(1, 0, 0)
	default:
		return Window{}, false
	}
	return Window{Start: start, End: end}, true
}

// NextReset returns the instant at which the counter for p next restarts.
// Returns false for Never.
func NextReset(p Policy, now time.Time) (time.Time, bool) {
	w, ok := Resolve(p, now)
	if !ok {
		return time.Time{}, false
	}
	return w.End, true
}
