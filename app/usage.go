// Package app provides application services that orchestrate domain logic.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vaultmeter/vaultmeter/domain/account"
	"github.com/vaultmeter/vaultmeter/domain/usage"
	"github.com/vaultmeter/vaultmeter/ports"
)

const (
	triggerRead  = "read"
	triggerWrite = "write"
)

// UsageService logs usage events and keeps cached account usage in step
// with the event log.
type UsageService struct {
	accounts  ports.AccountStore
	events    ports.EventStore
	snapshots *Snapshots
	clock     ports.Clock
	idGen     ports.IDGenerator
	metrics   ports.Metrics
	logger    zerolog.Logger

	dynamicCfg atomic.Pointer[DynamicConfig]
}

// DynamicConfig contains hot-reloadable settings.
type DynamicConfig struct {
	Concurrency int // max accounts recomputed in parallel
}

// UsageDeps contains dependencies for UsageService.
type UsageDeps struct {
	Accounts  ports.AccountStore
	Events    ports.EventStore
	Snapshots *Snapshots
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Metrics   ports.Metrics
	Logger    zerolog.Logger
}

// UsageConfig contains configuration for UsageService.
type UsageConfig struct {
	Concurrency int
}

// NewUsageService creates a usage service.
func NewUsageService(deps UsageDeps, cfg UsageConfig) *UsageService {
	s := &UsageService{
		accounts:  deps.Accounts,
		events:    deps.Events,
		snapshots: deps.Snapshots,
		clock:     deps.Clock,
		idGen:     deps.IDGen,
		metrics:   deps.Metrics,
		logger:    deps.Logger.With().Str("service", "usage").Logger(),
	}
	s.UpdateConfig(DynamicConfig{Concurrency: cfg.Concurrency})
	return s
}

// UpdateConfig swaps the hot-reloadable settings.
func (s *UsageService) UpdateConfig(cfg DynamicConfig) {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	s.dynamicCfg.Store(&cfg)
}

func (s *UsageService) concurrency() int {
	return s.dynamicCfg.Load().Concurrency
}

// LogUsage records amount against an active account at the current instant
// and refreshes the account's cached usage.
//
// The ceiling is never enforced here; over-limit logging succeeds.
func (s *UsageService) LogUsage(ctx context.Context, ownerID, accountID string, amount int64, description string) (usage.Event, error) {
	if err := usage.ValidateAmount(amount); err != nil {
		return usage.Event{}, err
	}

	a, err := s.accounts.Get(ctx, ownerID, accountID)
	if err != nil {
		return usage.Event{}, fmt.Errorf("load account %s: %w", accountID, err)
	}
	if !a.IsActive {
		return usage.Event{}, ErrAccountInactive
	}

	e, err := usage.NewEvent(s.idGen.New(), ownerID, accountID, amount, strings.TrimSpace(description), s.clock.Now())
	if err != nil {
		return usage.Event{}, err
	}
	if err := s.events.Append(ctx, e); err != nil {
		return usage.Event{}, fmt.Errorf("append event: %w", err)
	}
	s.snapshots.Invalidate(ownerID)
	s.metrics.UsageLogged(amount)

	s.logger.Debug().
		Str("owner_id", ownerID).
		Str("account_id", accountID).
		Int64("amount", amount).
		Msg("usage logged")

	// The event is durable; a failed refresh only leaves the cache stale
	// until the next read.
	s.Refresh(ctx, a, triggerWrite)
	return e, nil
}

// ListEvents returns the events of one account, oldest first.
func (s *UsageService) ListEvents(ctx context.Context, ownerID, accountID string) ([]usage.Event, error) {
	if _, err := s.accounts.Get(ctx, ownerID, accountID); err != nil {
		return nil, fmt.Errorf("load account %s: %w", accountID, err)
	}
	events, err := s.events.ListForAccount(ctx, ownerID, accountID)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	return events, nil
}

// GetEvent returns one event.
func (s *UsageService) GetEvent(ctx context.Context, ownerID, eventID string) (usage.Event, error) {
	e, err := s.events.Get(ctx, ownerID, eventID)
	if err != nil {
		return usage.Event{}, fmt.Errorf("load event %s: %w", eventID, err)
	}
	return e, nil
}

// UpdateEvent edits an event's amount or description and refreshes the
// owning account.
func (s *UsageService) UpdateEvent(ctx context.Context, ownerID, eventID string, p usage.Patch) (usage.Event, error) {
	e, err := s.events.Update(ctx, ownerID, eventID, p)
	if err != nil {
		return usage.Event{}, fmt.Errorf("update event %s: %w", eventID, err)
	}
	s.snapshots.Invalidate(ownerID)
	s.refreshOwning(ctx, ownerID, e.AccountID)
	return e, nil
}

// DeleteEvent removes an event and refreshes the owning account.
func (s *UsageService) DeleteEvent(ctx context.Context, ownerID, eventID string) error {
	e, err := s.events.Get(ctx, ownerID, eventID)
	if err != nil {
		return fmt.Errorf("load event %s: %w", eventID, err)
	}
	if err := s.events.Delete(ctx, ownerID, eventID); err != nil {
		return fmt.Errorf("delete event %s: %w", eventID, err)
	}
	s.snapshots.Invalidate(ownerID)
	s.refreshOwning(ctx, ownerID, e.AccountID)
	return nil
}

func (s *UsageService) refreshOwning(ctx context.Context, ownerID, accountID string) {
	a, err := s.accounts.Get(ctx, ownerID, accountID)
	if errors.Is(err, ports.ErrNotFound) {
		return // orphaned event
	}
	if err != nil {
		s.logger.Warn().Err(err).Str("account_id", accountID).Msg("owning account not loaded")
		return
	}
	s.Refresh(ctx, a, triggerWrite)
}

// GetCurrentUsage recomputes one account's usage for the current instant.
// If events cannot be read the cached value is returned.
func (s *UsageService) GetCurrentUsage(ctx context.Context, ownerID, accountID string) (int64, error) {
	a, err := s.accounts.Get(ctx, ownerID, accountID)
	if err != nil {
		return 0, fmt.Errorf("load account %s: %w", accountID, err)
	}
	return s.Refresh(ctx, a, triggerRead).CurrentUsage, nil
}

// Status returns the refreshed account with its display status.
func (s *UsageService) Status(ctx context.Context, ownerID, accountID string) (account.Account, usage.Status, error) {
	a, err := s.accounts.Get(ctx, ownerID, accountID)
	if err != nil {
		return account.Account{}, usage.Status{}, fmt.Errorf("load account %s: %w", accountID, err)
	}
	a = s.Refresh(ctx, a, triggerRead)
	return a, usage.StatusOf(a, s.clock.Now()), nil
}

// GetUsagePercentage returns the account's usage as a percentage of its ceiling.
func (s *UsageService) GetUsagePercentage(a account.Account) float64 {
	return usage.Percentage(a.CurrentUsage, a.UsageLimit)
}

// Refresh recomputes a single account and persists a changed value.
// Failures degrade to the cached value and are logged, never returned.
func (s *UsageService) Refresh(ctx context.Context, a account.Account, trigger string) account.Account {
	if !a.IsActive {
		return a
	}
	start := time.Now()

	events, err := s.events.ListForAccount(ctx, a.OwnerID, a.ID)
	if err != nil {
		s.metrics.RecomputeFallback("events")
		s.logger.Warn().Err(err).
			Str("account_id", a.ID).
			Int64("cached", a.CurrentUsage).
			Msg("usage recompute failed, using cached value")
		return a
	}

	fresh := usage.CurrentUsage(a, events, s.clock.Now())
	s.persist(ctx, a, fresh)
	s.metrics.Recomputed(trigger, 1, time.Since(start))
	return a.WithUsage(fresh)
}

// RecomputeAll refreshes every account of an owner in parallel.
//
// Events are read once for the whole batch. If that read fails each account
// is retried on its own; an account that still cannot be computed keeps its
// cached value. Only a failure to list the accounts fails the batch.
func (s *UsageService) RecomputeAll(ctx context.Context, ownerID string) ([]account.Account, error) {
	start := time.Now()

	accounts, err := s.accounts.List(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	if len(accounts) == 0 {
		return accounts, nil
	}

	now := s.clock.Now()
	snapshot, snapErr := s.snapshots.Events(ctx, ownerID)
	if snapErr != nil {
		s.metrics.RecomputeFallback("snapshot")
		s.logger.Warn().Err(snapErr).
			Str("owner_id", ownerID).
			Msg("event snapshot unavailable, recomputing per account")
	}

	out := make([]account.Account, len(accounts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency())

	for i, a := range accounts {
		i, a := i, a
		g.Go(func() error {
			out[i] = s.recomputeOne(gctx, a, snapshot, snapErr == nil, now)
			return nil
		})
	}
	_ = g.Wait() // workers never fail

	s.metrics.Recomputed(triggerRead, len(accounts), time.Since(start))
	return out, nil
}

func (s *UsageService) recomputeOne(ctx context.Context, a account.Account, snapshot []usage.Event, haveSnapshot bool, now time.Time) account.Account {
	if !a.IsActive {
		return a
	}

	events := snapshot
	if !haveSnapshot {
		var err error
		events, err = s.events.ListForAccount(ctx, a.OwnerID, a.ID)
		if err != nil {
			s.metrics.RecomputeFallback("events")
			s.logger.Warn().Err(err).
				Str("account_id", a.ID).
				Int64("cached", a.CurrentUsage).
				Msg("usage recompute failed, using cached value")
			return a
		}
	}

	fresh := usage.CurrentUsage(a, events, now)
	s.persist(ctx, a, fresh)
	return a.WithUsage(fresh)
}

// persist writes back a changed usage value, best-effort.
func (s *UsageService) persist(ctx context.Context, a account.Account, fresh int64) {
	if fresh == a.CurrentUsage {
		return
	}
	if err := s.accounts.SetUsage(ctx, a.OwnerID, a.ID, fresh); err != nil {
		s.logger.Warn().Err(err).
			Str("account_id", a.ID).
			Int64("usage", fresh).
			Msg("persist recomputed usage failed")
	}
}
