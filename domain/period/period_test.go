package period_test

import (
	"testing"
	"time"

	"github.com/vaultmeter/vaultmeter/domain/period"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("timezone %s unavailable: %v", name, err)
	}
	return loc
}

// -----------------------------------------------------------------------------
// ParsePolicy
// -----------------------------------------------------------------------------

func TestParsePolicy(t *testing.T) {
	tests := []struct {
		in      string
		want    period.Policy
		wantErr bool
	}{
		{"daily", period.Daily, false},
		{" Weekly ", period.Weekly, false},
		{"MONTHLY", period.Monthly, false},
		{"yearly", period.Yearly, false},
		{"never", period.Never, false},
		{"hourly", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := period.ParsePolicy(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParsePolicy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParsePolicy(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

// -----------------------------------------------------------------------------
// Resolve
// -----------------------------------------------------------------------------

func TestResolve_Never(t *testing.T) {
	_, ok := period.Resolve(period.Never, time.Now())
	if ok {
		t.Error("Never should resolve to an unbounded window")
	}
	_, ok = period.Resolve(period.Policy("bogus"), time.Now())
	if ok {
		t.Error("unknown policy should resolve to an unbounded window")
	}
}

func TestResolve_Alignment(t *testing.T) {
	loc := time.UTC
	// Wednesday
	now := time.Date(2024, 2, 14, 10, 30, 0, 0, loc)

	tests := []struct {
		policy    period.Policy
		wantStart time.Time
		wantEnd   time.Time
	}{
		{period.Daily, time.Date(2024, 2, 14, 0, 0, 0, 0, loc), time.Date(2024, 2, 15, 0, 0, 0, 0, loc)},
		{period.Weekly, time.Date(2024, 2, 11, 0, 0, 0, 0, loc), time.Date(2024, 2, 18, 0, 0, 0, 0, loc)},
		{period.Monthly, time.Date(2024, 2, 1, 0, 0, 0, 0, loc), time.Date(2024, 3, 1, 0, 0, 0, 0, loc)},
		{period.Yearly, time.Date(2024, 1, 1, 0, 0, 0, 0, loc), time.Date(2025, 1, 1, 0, 0, 0, 0, loc)},
	}

	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			w, ok := period.Resolve(tt.policy, now)
			if !ok {
				t.Fatal("expected bounded window")
			}
			if !w.Start.Equal(tt.wantStart) {
				t.Errorf("Start = %v, want %v", w.Start, tt.wantStart)
			}
			if !w.End.Equal(tt.wantEnd) {
				t.Errorf("End = %v, want %v", w.End, tt.wantEnd)
			}
		})
	}
}

func TestResolve_BoundaryStartsNewPeriod(t *testing.T) {
	boundary := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)

	w, _ := period.Resolve(period.Monthly, boundary)
	if !w.Start.Equal(boundary) {
		t.Errorf("Start = %v, want %v", w.Start, boundary)
	}
	if !w.Contains(boundary) {
		t.Error("boundary instant should belong to the new window")
	}

	prev, _ := period.Resolve(period.Monthly, boundary.Add(-time.Nanosecond))
	if prev.Contains(boundary) {
		t.Error("previous window must exclude its end instant")
	}
}

func TestResolve_WeeklyOnSunday(t *testing.T) {
	sunday := time.Date(2024, 6, 16, 0, 0, 0, 0, time.UTC)
	w, _ := period.Resolve(period.Weekly, sunday)
	if !w.Start.Equal(sunday) {
		t.Errorf("Start = %v, want %v", w.Start, sunday)
	}

	saturday := time.Date(2024, 6, 22, 23, 59, 59, 0, time.UTC)
	w, _ = period.Resolve(period.Weekly, saturday)
	if !w.Start.Equal(sunday) {
		t.Errorf("Saturday Start = %v, want %v", w.Start, sunday)
	}
}

func TestResolve_WeeklyAcrossMonthAndYear(t *testing.T) {
	// Thursday 2 Jan 2025; the week started Sunday 29 Dec 2024.
	now := time.Date(2025, 1, 2, 8, 0, 0, 0, time.UTC)
	w, _ := period.Resolve(period.Weekly, now)
	want := time.Date(2024, 12, 29, 0, 0, 0, 0, time.UTC)
	if !w.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", w.Start, want)
	}
}

func TestResolve_MonthlyYearRollover(t *testing.T) {
	now := time.Date(2023, 12, 31, 23, 0, 0, 0, time.UTC)
	w, _ := period.Resolve(period.Monthly, now)
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !w.End.Equal(want) {
		t.Errorf("End = %v, want %v", w.End, want)
	}
}

func TestResolve_LocalCalendar(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	// 02:00 UTC on the 15th is still the 14th in New York.
	now := time.Date(2024, 5, 15, 2, 0, 0, 0, time.UTC).In(ny)
	w, _ := period.Resolve(period.Daily, now)

	want := time.Date(2024, 5, 14, 0, 0, 0, 0, ny)
	if !w.Start.Equal(want) {
		t.Errorf("Start = %v, want %v", w.Start, want)
	}
	if w.Start.Location() != ny {
		t.Errorf("Start location = %v, want %v", w.Start.Location(), ny)
	}
}

func TestResolve_DSTDayIsStillOneDay(t *testing.T) {
	ny := mustLoad(t, "America/New_York")

	// Spring forward: 10 March 2024 is 23 hours long.
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, ny)
	w, _ := period.Resolve(period.Daily, now)

	if w.Duration() != 23*time.Hour {
		t.Errorf("Duration = %v, want 23h", w.Duration())
	}
	if !w.End.Equal(time.Date(2024, 3, 11, 0, 0, 0, 0, ny)) {
		t.Errorf("End = %v, want local midnight of the 11th", w.End)
	}
}

// Every bounded window spans exactly one period and contains now.
func TestResolve_Properties(t *testing.T) {
	base := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	policies := []period.Policy{period.Daily, period.Weekly, period.Monthly, period.Yearly}

	for i := 0; i < 800; i++ {
		now := base.Add(time.Duration(i) * 37 * time.Hour).Add(time.Duration(i%60) * time.Minute)

		for _, p := range policies {
			w, ok := period.Resolve(p, now)
			if !ok {
				t.Fatalf("%s: expected bounded window", p)
			}
			if w.Start.After(now) || !now.Before(w.End) {
				t.Fatalf("%s: now %v outside [%v, %v)", p, now, w.Start, w.End)
			}

			var want time.Time
			switch p {
			case period.Daily:
				want = w.Start.AddDate(0, 0, 1)
			case period.Weekly:
				want = w.Start.AddDate(0, 0, 7)
				if w.Start.Weekday() != time.Sunday {
					t.Fatalf("weekly start %v is a %v", w.Start, w.Start.Weekday())
				}
			case period.Monthly:
				want = w.Start.AddDate(0, 1, 0)
				if w.Start.Day() != 1 {
					t.Fatalf("monthly start %v not on the 1st", w.Start)
				}
			case period.Yearly:
				want = w.Start.AddDate(1, 0, 0)
			}
			if !w.End.Equal(want) {
				t.Fatalf("%s: End = %v, want %v", p, w.End, want)
			}
			if w.Duration() <= 0 {
				t.Fatalf("%s: non-positive duration", p)
			}
		}
	}
}

func TestNextReset(t *testing.T) {
	now := time.Date(2024, 2, 15, 10, 0, 0, 0, time.UTC)

	got, ok := period.NextReset(period.Monthly, now)
	if !ok {
		t.Fatal("expected reset time")
	}
	if want := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("NextReset = %v, want %v", got, want)
	}

	if _, ok := period.NextReset(period.Never, now); ok {
		t.Error("Never should not reset")
	}
}
