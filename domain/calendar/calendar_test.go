package calendar_test

import (
	"testing"
	"time"

	"github.com/vaultmeter/vaultmeter/domain/calendar"
	"github.com/vaultmeter/vaultmeter/domain/usage"
)

func ev(id, accountID string, amount int64, ts time.Time) usage.Event {
	return usage.Event{ID: id, AccountID: accountID, Amount: amount, Timestamp: ts}
}

// -----------------------------------------------------------------------------
// GridLayout
// -----------------------------------------------------------------------------

func TestGridLayout(t *testing.T) {
	tests := []struct {
		name  string
		year  int
		month time.Month
		want  calendar.Layout
	}{
		// 1 Feb 2015 is a Sunday: exactly four rows.
		{"four rows", 2015, time.February, calendar.Layout{Offset: 0, DaysInMonth: 28, Trailing: 0, Total: 28}},
		// 1 Feb 2024 is a Thursday.
		{"leap february", 2024, time.February, calendar.Layout{Offset: 4, DaysInMonth: 29, Trailing: 2, Total: 35}},
		// 1 Mar 2025 is a Saturday: six rows.
		{"six rows", 2025, time.March, calendar.Layout{Offset: 6, DaysInMonth: 31, Trailing: 5, Total: 42}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := calendar.GridLayout(tt.year, tt.month, time.UTC)
			if got != tt.want {
				t.Errorf("GridLayout = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestGridLayout_AlwaysWholeWeeks(t *testing.T) {
	for year := 2020; year <= 2030; year++ {
		for m := time.January; m <= time.December; m++ {
			l := calendar.GridLayout(year, m, time.UTC)
			if l.Total%7 != 0 {
				t.Fatalf("%d-%02d: total %d not a multiple of 7", year, m, l.Total)
			}
			if l.Total != l.Offset+l.DaysInMonth+l.Trailing {
				t.Fatalf("%d-%02d: %d != %d+%d+%d", year, m, l.Total, l.Offset, l.DaysInMonth, l.Trailing)
			}
			if l.Trailing < 0 || l.Trailing > 6 {
				t.Fatalf("%d-%02d: trailing %d out of range", year, m, l.Trailing)
			}
		}
	}
}

// -----------------------------------------------------------------------------
// ProjectMonth
// -----------------------------------------------------------------------------

func TestProjectMonth_Cells(t *testing.T) {
	events := []usage.Event{
		ev("e1", "a", 2, time.Date(2024, 2, 1, 8, 0, 0, 0, time.UTC)),
		ev("e2", "b", 3, time.Date(2024, 2, 1, 21, 0, 0, 0, time.UTC)),
		ev("e3", "a", 5, time.Date(2024, 2, 29, 23, 59, 59, 0, time.UTC)),
		ev("e4", "a", 7, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),   // next month
		ev("e5", "a", 9, time.Date(2024, 1, 31, 12, 0, 0, 0, time.UTC)), // previous month
	}

	cells := calendar.ProjectMonth(2024, time.February, events, time.UTC)
	if len(cells) != 35 {
		t.Fatalf("len(cells) = %d, want 35", len(cells))
	}

	// Leading: 28-31 January, muted, empty.
	for i := 0; i < 4; i++ {
		c := cells[i]
		if c.Kind != calendar.Leading {
			t.Errorf("cell %d kind = %v, want leading", i, c.Kind)
		}
		if c.Day != 28+i {
			t.Errorf("cell %d day = %d, want %d", i, c.Day, 28+i)
		}
		if c.Selectable || len(c.Events) != 0 || c.TotalAmount != 0 {
			t.Errorf("leading cell %d must carry no aggregation", i)
		}
	}

	feb1 := cells[4]
	if feb1.Kind != calendar.InMonth || feb1.Day != 1 {
		t.Fatalf("cell 4 = %+v, want 1 Feb", feb1)
	}
	if feb1.TotalAmount != 5 || len(feb1.Events) != 2 || !feb1.Selectable {
		t.Errorf("1 Feb: total=%d events=%d selectable=%v", feb1.TotalAmount, len(feb1.Events), feb1.Selectable)
	}
	if feb1.Key() != "2024-02-01" {
		t.Errorf("Key = %s", feb1.Key())
	}

	feb2 := cells[5]
	if feb2.Selectable || feb2.TotalAmount != 0 {
		t.Error("empty day must not be selectable")
	}

	feb29 := cells[32]
	if feb29.Day != 29 || feb29.TotalAmount != 5 {
		t.Errorf("29 Feb: day=%d total=%d", feb29.Day, feb29.TotalAmount)
	}

	for i := 33; i < 35; i++ {
		c := cells[i]
		if c.Kind != calendar.Trailing || c.Selectable || c.TotalAmount != 0 {
			t.Errorf("cell %d should be trailing filler, got %+v", i, c)
		}
	}
	if cells[33].Day != 1 || cells[34].Day != 2 {
		t.Errorf("trailing days = %d, %d; want 1, 2", cells[33].Day, cells[34].Day)
	}
}

func TestProjectMonth_LocalDates(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	// 03:00 UTC on 2 Feb is 22:00 on 1 Feb at UTC-5.
	events := []usage.Event{ev("e1", "a", 4, time.Date(2024, 2, 2, 3, 0, 0, 0, time.UTC))}

	cells := calendar.ProjectMonth(2024, time.February, events, loc)
	layout := calendar.GridLayout(2024, time.February, loc)

	day1 := cells[layout.Offset]
	if day1.TotalAmount != 4 {
		t.Errorf("1 Feb local total = %d, want 4", day1.TotalAmount)
	}
	if cells[layout.Offset+1].TotalAmount != 0 {
		t.Error("2 Feb local should be empty")
	}
}

func TestProjectMonth_BucketSumsMatch(t *testing.T) {
	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	var events []usage.Event
	want := make(map[string]int64)
	for i := 0; i < 200; i++ {
		ts := base.Add(time.Duration(i*223) * time.Minute)
		amount := int64(i%5 + 1)
		events = append(events, ev("e", "a", amount, ts))
		if ts.Month() == time.May {
			want[ts.Format(calendar.DateKeyLayout)] += amount
		}
	}

	for _, c := range calendar.ProjectMonth(2024, time.May, events, time.UTC) {
		if c.Kind != calendar.InMonth {
			continue
		}
		if c.TotalAmount != want[c.Key()] {
			t.Errorf("%s: total = %d, want %d", c.Key(), c.TotalAmount, want[c.Key()])
		}
	}
}

func TestProjectMonth_EventsOrdered(t *testing.T) {
	day := time.Date(2024, 2, 10, 0, 0, 0, 0, time.UTC)
	events := []usage.Event{
		ev("late", "a", 1, day.Add(20*time.Hour)),
		ev("early", "a", 1, day.Add(2*time.Hour)),
	}

	cells := calendar.ProjectMonth(2024, time.February, events, time.UTC)
	c := cells[calendar.GridLayout(2024, time.February, time.UTC).Offset+9]
	if len(c.Events) != 2 || c.Events[0].ID != "early" {
		t.Errorf("events = %+v, want early first", c.Events)
	}
}

// -----------------------------------------------------------------------------
// Helpers
// -----------------------------------------------------------------------------

func TestDecorationIndex(t *testing.T) {
	seen := make(map[int]bool)
	for m := time.January; m <= time.December; m++ {
		for d := 1; d <= 31; d++ {
			idx := calendar.DecorationIndex(d, m)
			if idx < 0 || idx >= calendar.DecorationCount {
				t.Fatalf("DecorationIndex(%d, %v) = %d out of range", d, m, idx)
			}
			if idx != calendar.DecorationIndex(d, m) {
				t.Fatalf("DecorationIndex(%d, %v) not deterministic", d, m)
			}
			seen[idx] = true
		}
	}
	if len(seen) < 2 {
		t.Error("decoration index should vary across days")
	}
}

func TestEventsForDate(t *testing.T) {
	events := []usage.Event{
		ev("e1", "a", 1, time.Date(2024, 2, 1, 23, 0, 0, 0, time.UTC)),
		ev("e2", "a", 1, time.Date(2024, 2, 1, 1, 0, 0, 0, time.UTC)),
		ev("e3", "a", 1, time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)),
	}

	got := calendar.EventsForDate("2024-02-01", events, time.UTC)
	if len(got) != 2 {
		t.Fatalf("len = %d, want 2", len(got))
	}
	if got[0].ID != "e2" {
		t.Errorf("first = %s, want e2", got[0].ID)
	}

	if got := calendar.EventsForDate("2023-01-01", events, time.UTC); len(got) != 0 {
		t.Errorf("expected empty result, got %d", len(got))
	}
}

func TestParseDateKey(t *testing.T) {
	got, err := calendar.ParseDateKey("2024-02-29", time.UTC)
	if err != nil {
		t.Fatalf("ParseDateKey error = %v", err)
	}
	if !got.Equal(time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("ParseDateKey = %v", got)
	}
	if _, err := calendar.ParseDateKey("2024-13-01", time.UTC); err == nil {
		t.Error("expected error for invalid month")
	}
}

func TestValidateMonth(t *testing.T) {
	if err := calendar.ValidateMonth(0); err == nil {
		t.Error("0 should be invalid")
	}
	if err := calendar.ValidateMonth(12); err != nil {
		t.Errorf("12 should be valid: %v", err)
	}
}
