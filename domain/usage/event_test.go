package usage_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/vaultmeter/vaultmeter/domain/usage"
)

func TestNewEvent(t *testing.T) {
	ts := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)

	e, err := usage.NewEvent("e1", "owner-1", "acc-1", 3, "ride", ts)
	if err != nil {
		t.Fatalf("NewEvent() error = %v", err)
	}
	if e.Amount != 3 || e.AccountID != "acc-1" || !e.Timestamp.Equal(ts) {
		t.Errorf("unexpected event %+v", e)
	}
}

// Scenario C: non-positive and oversized amounts are rejected.
func TestNewEvent_RejectsInvalidAmount(t *testing.T) {
	for _, amount := range []int64{0, -5, usage.MaxAmount + 1, math.MaxInt64} {
		_, err := usage.NewEvent("e1", "owner-1", "acc-1", amount, "", time.Now())
		if !errors.Is(err, usage.ErrInvalidAmount) {
			t.Errorf("amount %d: error = %v, want ErrInvalidAmount", amount, err)
		}
	}
}

func TestValidateAmount_Bounds(t *testing.T) {
	if err := usage.ValidateAmount(usage.MaxAmount); err != nil {
		t.Errorf("MaxAmount rejected: %v", err)
	}
	if err := usage.ValidateAmount(1); err != nil {
		t.Errorf("1 rejected: %v", err)
	}
}

func TestEventApply(t *testing.T) {
	ts := time.Date(2024, 2, 1, 9, 0, 0, 0, time.UTC)
	e := usage.Event{ID: "e1", AccountID: "acc-1", Amount: 1, Description: "old", Timestamp: ts}

	amount := int64(4)
	desc := "new"
	got, err := e.Apply(usage.Patch{Amount: &amount, Description: &desc})
	if err != nil {
		t.Fatalf("Apply() error = %v", err)
	}
	if got.Amount != 4 || got.Description != "new" {
		t.Errorf("Apply() = %+v", got)
	}
	if !got.Timestamp.Equal(ts) || got.AccountID != "acc-1" {
		t.Error("Apply must not change timestamp or account")
	}

	bad := int64(0)
	if _, err := e.Apply(usage.Patch{Amount: &bad}); !errors.Is(err, usage.ErrInvalidAmount) {
		t.Errorf("Apply(0) error = %v, want ErrInvalidAmount", err)
	}
}

func TestWarningLevelString(t *testing.T) {
	tests := map[usage.WarningLevel]string{
		usage.WarningNone:        "none",
		usage.WarningApproaching: "approaching",
		usage.WarningCritical:    "critical",
		usage.WarningExceeded:    "exceeded",
	}
	for level, want := range tests {
		if got := level.String(); got != want {
			t.Errorf("%d.String() = %q, want %q", level, got, want)
		}
	}
}
