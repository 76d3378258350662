package app

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/vaultmeter/vaultmeter/domain/calendar"
	"github.com/vaultmeter/vaultmeter/domain/usage"
	"github.com/vaultmeter/vaultmeter/ports"
)

// CalendarService projects an owner's events onto calendar days in a
// fixed time zone.
type CalendarService struct {
	accounts  ports.AccountStore
	snapshots *Snapshots
	loc       *time.Location
	logger    zerolog.Logger
}

// NewCalendarService creates a calendar service evaluating dates in loc.
func NewCalendarService(accounts ports.AccountStore, snapshots *Snapshots, loc *time.Location, logger zerolog.Logger) *CalendarService {
	if loc == nil {
		loc = time.Local
	}
	return &CalendarService{
		accounts:  accounts,
		snapshots: snapshots,
		loc:       loc,
		logger:    logger.With().Str("service", "calendar").Logger(),
	}
}

// MonthGrid is a projected month.
type MonthGrid struct {
	Year     int
	Month    time.Month
	Location *time.Location
	Cells    []calendar.DayCell
	Total    int64
	Accounts map[string]string // id -> name, for labelling events
}

// DayEvents is the detail of one calendar day.
type DayEvents struct {
	Date     string
	Events   []usage.Event
	Total    int64
	Accounts map[string]string
}

// Location returns the evaluation time zone.
func (s *CalendarService) Location() *time.Location {
	return s.loc
}

// GetMonthGrid returns the grid for a month. Events of deleted accounts
// are excluded.
func (s *CalendarService) GetMonthGrid(ctx context.Context, ownerID string, year, month int) (MonthGrid, error) {
	if err := calendar.ValidateMonth(month); err != nil {
		return MonthGrid{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if year < 1 || year > 9999 {
		return MonthGrid{}, fmt.Errorf("%w: year %d out of range", ErrInvalidInput, year)
	}

	events, names, err := s.liveEvents(ctx, ownerID)
	if err != nil {
		return MonthGrid{}, err
	}

	cells := calendar.ProjectMonth(year, time.Month(month), events, s.loc)
	var total int64
	for _, c := range cells {
		total += c.TotalAmount
	}
	return MonthGrid{
		Year:     year,
		Month:    time.Month(month),
		Location: s.loc,
		Cells:    cells,
		Total:    total,
		Accounts: names,
	}, nil
}

// GetEventsForDate returns the events on a "YYYY-MM-DD" day, oldest first.
func (s *CalendarService) GetEventsForDate(ctx context.Context, ownerID, dateKey string) (DayEvents, error) {
	day, err := calendar.ParseDateKey(dateKey, s.loc)
	if err != nil {
		return DayEvents{}, fmt.Errorf("%w: date %q", ErrInvalidInput, dateKey)
	}
	key := day.Format(calendar.DateKeyLayout)

	events, names, err := s.liveEvents(ctx, ownerID)
	if err != nil {
		return DayEvents{}, err
	}

	matched := calendar.EventsForDate(key, events, s.loc)
	var total int64
	for _, e := range matched {
		total += e.Amount
	}
	return DayEvents{Date: key, Events: matched, Total: total, Accounts: names}, nil
}

// liveEvents returns the owner's events that still belong to an account.
func (s *CalendarService) liveEvents(ctx context.Context, ownerID string) ([]usage.Event, map[string]string, error) {
	accounts, err := s.accounts.List(ctx, ownerID)
	if err != nil {
		return nil, nil, fmt.Errorf("list accounts: %w", err)
	}
	events, err := s.snapshots.Events(ctx, ownerID)
	if err != nil {
		return nil, nil, fmt.Errorf("list events: %w", err)
	}

	live := make(map[string]bool, len(accounts))
	names := make(map[string]string, len(accounts))
	for _, a := range accounts {
		live[a.ID] = true
		names[a.ID] = a.Name
	}
	return usage.FilterOrphans(events, live), names, nil
}
