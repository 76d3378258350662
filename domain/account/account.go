// Package account defines the tracked account entity.
// All functions are pure - no side effects.
package account

import (
	"fmt"
	"strings"
	"time"

	"github.com/vaultmeter/vaultmeter/domain/period"
)

// Account is an item whose usage is metered against a recurring budget (value type).
// CurrentUsage is a cache; the event log is the source of truth.
type Account struct {
	ID           string
	OwnerID      string
	FolderID     string
	Name         string
	Description  string
	Tags         []string
	ResetPolicy  period.Policy
	UsageLimit   *int64 // nil = no ceiling
	CurrentUsage int64
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidationError describes a rejected field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// New creates an account with zero usage.
func New(id, ownerID, name string, policy period.Policy, limit *int64, now time.Time) Account {
	return Account{
		ID:          id,
		OwnerID:     ownerID,
		Name:        strings.TrimSpace(name),
		ResetPolicy: policy,
		UsageLimit:  limit,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// Validate checks required fields.
func (a Account) Validate() error {
	if a.OwnerID == "" {
		return &ValidationError{Field: "owner_id", Message: "is required"}
	}
	if strings.TrimSpace(a.Name) == "" {
		return &ValidationError{Field: "name", Message: "is required"}
	}
	if !a.ResetPolicy.Valid() {
		return &ValidationError{Field: "reset_policy", Message: fmt.Sprintf("unknown policy %q", a.ResetPolicy)}
	}
	if a.UsageLimit != nil && *a.UsageLimit < 0 {
		return &ValidationError{Field: "usage_limit", Message: "must not be negative"}
	}
	return nil
}

// HasLimit reports whether a positive ceiling is configured.
func (a Account) HasLimit() bool {
	return a.UsageLimit != nil && *a.UsageLimit > 0
}

// WithUsage returns a copy carrying a recomputed usage value.
func (a Account) WithUsage(usage int64) Account {
	a.CurrentUsage = usage
	return a
}

// Patch holds optional field updates. Nil fields are left unchanged.
// ClearLimit removes the ceiling; it wins over UsageLimit.
type Patch struct {
	FolderID    *string
	Name        *string
	Description *string
	Tags        []string
	ResetPolicy *period.Policy
	UsageLimit  *int64
	ClearLimit  bool
	IsActive    *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p Patch) IsEmpty() bool {
	return p.FolderID == nil && p.Name == nil && p.Description == nil && p.Tags == nil &&
		p.ResetPolicy == nil && p.UsageLimit == nil && !p.ClearLimit && p.IsActive == nil
}

// Apply returns a copy of a with the patch applied and validated.
func (a Account) Apply(p Patch, now time.Time) (Account, error) {
	if p.FolderID != nil {
		a.FolderID = *p.FolderID
	}
	if p.Name != nil {
		a.Name = strings.TrimSpace(*p.Name)
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Tags != nil {
		a.Tags = append([]string(nil), p.Tags...)
	}
	if p.ResetPolicy != nil {
		a.ResetPolicy = *p.ResetPolicy
	}
	if p.UsageLimit != nil {
		v := *p.UsageLimit
		a.UsageLimit = &v
	}
	if p.ClearLimit {
		a.UsageLimit = nil
	}
	if p.IsActive != nil {
		a.IsActive = *p.IsActive
	}
	a.UpdatedAt = now

	if err := a.Validate(); err != nil {
		return Account{}, err
	}
	return a, nil
}

// Reactivated reports whether applying p flips an inactive account to active.
func (a Account) Reactivated(p Patch) bool {
	return !a.IsActive && p.IsActive != nil && *p.IsActive
}
