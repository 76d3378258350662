// Package calendar projects usage events onto a month grid.
// Bucketing is by local calendar date and ignores reset policies.
// All functions are pure - no side effects.
package calendar

import (
	"errors"
	"sort"
	"time"

	"github.com/vaultmeter/vaultmeter/domain/usage"
)

// DateKeyLayout is the format of day keys ("YYYY-MM-DD").
const DateKeyLayout = "2006-01-02"

// DecorationCount is the number of distinct decoration indexes.
const DecorationCount = 8

// ErrInvalidMonth is returned for out-of-range month numbers.
var ErrInvalidMonth = errors.New("month must be between 1 and 12")

// Kind classifies a cell in the grid.
type Kind int

const (
	Leading  Kind = iota // trailing days of the previous month
	InMonth              // a day of the displayed month
	Trailing             // filler after the last day
)

func (k Kind) String() string {
	switch k {
	case Leading:
		return "leading"
	case Trailing:
		return "trailing"
	default:
		return "in_month"
	}
}

// DayCell is one cell of the 7-column grid (value type).
type DayCell struct {
	Date        time.Time // local midnight
	Day         int
	Kind        Kind
	Events      []usage.Event
	TotalAmount int64
	Selectable  bool
	Decoration  int
}

// Key returns the cell's date key.
func (c DayCell) Key() string {
	return c.Date.Format(DateKeyLayout)
}

// Layout describes the shape of a month grid.
type Layout struct {
	Offset      int // weekday of the 1st, Sunday = 0
	DaysInMonth int
	Trailing    int
	Total       int
}

// GridLayout computes the grid shape for a month.
// This is a PURE function.
func GridLayout(year int, month time.Month, loc *time.Location) Layout {
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	offset := int(first.Weekday())
	days := first.AddDate(0, 1, -1).Day()
	total := (offset + days + 6) / 7 * 7
	return Layout{
		Offset:      offset,
		DaysInMonth: days,
		Trailing:    total - offset - days,
		Total:       total,
	}
}

// ValidateMonth checks a 1-based month number.
func ValidateMonth(month int) error {
	if month < 1 || month > 12 {
		return ErrInvalidMonth
	}
	return nil
}

// DateKey formats t's local date in loc.
func DateKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(DateKeyLayout)
}

// ParseDateKey parses "YYYY-MM-DD" as local midnight in loc.
func ParseDateKey(key string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateKeyLayout, key, loc)
}

// DecorationIndex derives a stable presentation index from a day and month.
// It never affects aggregation.
// This is a PURE function.
func DecorationIndex(day int, month time.Month) int {
	h := uint32(day)*2654435761 ^ uint32(month)*40503
	h ^= h >> 13
	return int(h % DecorationCount)
}

// Bucket groups events by local date key, each bucket ordered by timestamp.
// This is a PURE function.
func Bucket(events []usage.Event, loc *time.Location) map[string][]usage.Event {
	buckets := make(map[string][]usage.Event)
	for _, e := range events {
		k := DateKey(e.Timestamp, loc)
		buckets[k] = append(buckets[k], e)
	}
	for _, b := range buckets {
		sort.SliceStable(b, func(i, j int) bool {
			return b[i].Timestamp.Before(b[j].Timestamp)
		})
	}
	return buckets
}

// EventsForDate returns events whose local date equals key, ordered by timestamp.
// This is a PURE function.
func EventsForDate(key string, events []usage.Event, loc *time.Location) []usage.Event {
	out := make([]usage.Event, 0)
	for _, e := range events {
		if DateKey(e.Timestamp, loc) == key {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

// ProjectMonth builds the row-major grid for a month: leading days of the
// previous month, one cell per day with its bucket, then trailing filler.
// This is a PURE function.
func ProjectMonth(year int, month time.Month, events []usage.Event, loc *time.Location) []DayCell {
	layout := GridLayout(year, month, loc)
	first := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	buckets := Bucket(events, loc)

	cells := make([]DayCell, 0, layout.Total)

	for i := layout.Offset; i > 0; i-- {
		d := first.AddDate(0, 0, -i)
		cells = append(cells, DayCell{
			Date:       d,
			Day:        d.Day(),
			Kind:       Leading,
			Decoration: DecorationIndex(d.Day(), d.Month()),
		})
	}

	for day := 1; day <= layout.DaysInMonth; day++ {
		d := time.Date(year, month, day, 0, 0, 0, 0, loc)
		bucket := buckets[d.Format(DateKeyLayout)]

		var total int64
		for _, e := range bucket {
			total += e.Amount
		}
		cells = append(cells, DayCell{
			Date:        d,
			Day:         day,
			Kind:        InMonth,
			Events:      bucket,
			TotalAmount: total,
			Selectable:  len(bucket) > 0,
			Decoration:  DecorationIndex(day, month),
		})
	}

	next := first.AddDate(0, 1, 0)
	for i := 0; i < layout.Trailing; i++ {
		d := next.AddDate(0, 0, i)
		cells = append(cells, DayCell{
			Date:       d,
			Day:        d.Day(),
			Kind:       Trailing,
			Decoration: DecorationIndex(d.Day(), d.Month()),
		})
	}

	return cells
}
