// Package usage provides usage event types and aggregation functions.
// All functions are pure - no side effects.
package usage

import (
	"errors"
	"fmt"
	"time"
)

// MaxAmount is the largest amount a single event may carry.
const MaxAmount int64 = 1_000_000_000_000

// ErrInvalidAmount is returned when a logged amount is not positive or
// exceeds MaxAmount.
var ErrInvalidAmount = errors.New("amount must be a positive integer")

// Event is one immutable record of consumption logged against an account.
// Only Amount and Description may change after creation.
type Event struct {
	ID          string
	OwnerID     string
	AccountID   string
	Amount      int64
	Description string
	Timestamp   time.Time // instant of occurrence
}

// NewEvent creates an event after validating the amount.
func NewEvent(id, ownerID, accountID string, amount int64, description string, timestamp time.Time) (Event, error) {
	if err := ValidateAmount(amount); err != nil {
		return Event{}, err
	}
	return Event{
		ID:          id,
		OwnerID:     ownerID,
		AccountID:   accountID,
		Amount:      amount,
		Description: description,
		Timestamp:   timestamp,
	}, nil
}

// ValidateAmount rejects zero, negative and oversized amounts.
func ValidateAmount(amount int64) error {
	if amount <= 0 {
		return ErrInvalidAmount
	}
	if amount > MaxAmount {
		return fmt.Errorf("%w no greater than %d", ErrInvalidAmount, MaxAmount)
	}
	return nil
}

// Patch holds the editable fields of an event.
type Patch struct {
	Amount      *int64
	Description *string
}

// Apply returns a copy of e with the patch applied.
// Timestamp and AccountID are never modified.
func (e Event) Apply(p Patch) (Event, error) {
	if p.Amount != nil {
		if err := ValidateAmount(*p.Amount); err != nil {
			return Event{}, err
		}
		e.Amount = *p.Amount
	}
	if p.Description != nil {
		e.Description = *p.Description
	}
	return e, nil
}

// WarningLevel indicates how close to or over its ceiling an account is.
// It is informational only; logging is never blocked.
type WarningLevel int

const (
	WarningNone        WarningLevel = iota // < 80%
	WarningApproaching                     // >= 80%
	WarningCritical                        // >= 95%
	WarningExceeded                        // > 100%
)

func (l WarningLevel) String() string {
	switch l {
	case WarningApproaching:
		return "approaching"
	case WarningCritical:
		return "critical"
	case WarningExceeded:
		return "exceeded"
	default:
		return "none"
	}
}
