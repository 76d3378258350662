package app

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/vaultmeter/vaultmeter/domain/account"
	"github.com/vaultmeter/vaultmeter/domain/period"
	"github.com/vaultmeter/vaultmeter/ports"
)

// AccountService manages tracked accounts. Reads always return
// freshly computed usage.
type AccountService struct {
	accounts  ports.AccountStore
	usage     *UsageService
	snapshots *Snapshots
	clock     ports.Clock
	idGen     ports.IDGenerator
	logger    zerolog.Logger
}

// NewAccountService creates an account service.
func NewAccountService(
	accounts ports.AccountStore,
	usage *UsageService,
	snapshots *Snapshots,
	clock ports.Clock,
	idGen ports.IDGenerator,
	logger zerolog.Logger,
) *AccountService {
	return &AccountService{
		accounts:  accounts,
		usage:     usage,
		snapshots: snapshots,
		clock:     clock,
		idGen:     idGen,
		logger:    logger.With().Str("service", "account").Logger(),
	}
}

// CreateInput holds the fields of a new account.
type CreateInput struct {
	FolderID    string
	Name        string
	Description string
	Tags        []string
	ResetPolicy string
	UsageLimit  *int64
}

// List returns the owner's accounts with usage recomputed for now.
func (s *AccountService) List(ctx context.Context, ownerID string) ([]account.Account, error) {
	return s.usage.RecomputeAll(ctx, ownerID)
}

// Get returns one account with usage recomputed for now.
func (s *AccountService) Get(ctx context.Context, ownerID, id string) (account.Account, error) {
	a, err := s.accounts.Get(ctx, ownerID, id)
	if err != nil {
		return account.Account{}, fmt.Errorf("load account %s: %w", id, err)
	}
	return s.usage.Refresh(ctx, a, triggerRead), nil
}

// Create validates and stores a new active account with zero usage.
func (s *AccountService) Create(ctx context.Context, ownerID string, in CreateInput) (account.Account, error) {
	policy, err := period.ParsePolicy(in.ResetPolicy)
	if err != nil {
		return account.Account{}, &account.ValidationError{Field: "reset_policy", Message: err.Error()}
	}

	a := account.New(s.idGen.New(), ownerID, in.Name, policy, in.UsageLimit, s.clock.Now())
	a.FolderID = in.FolderID
	a.Description = in.Description
	a.Tags = in.Tags
	if err := a.Validate(); err != nil {
		return account.Account{}, err
	}

	if err := s.accounts.Create(ctx, a); err != nil {
		return account.Account{}, fmt.Errorf("create account: %w", err)
	}

	s.logger.Info().
		Str("owner_id", ownerID).
		Str("account_id", a.ID).
		Str("reset_policy", string(policy)).
		Msg("account created")
	return a, nil
}

// Update applies a patch and returns the account with freshly computed usage.
// Reactivation and policy changes count as write-triggered recomputes.
func (s *AccountService) Update(ctx context.Context, ownerID, id string, p account.Patch) (account.Account, error) {
	before, err := s.accounts.Get(ctx, ownerID, id)
	if err != nil {
		return account.Account{}, fmt.Errorf("load account %s: %w", id, err)
	}
	if p.IsEmpty() {
		return s.usage.Refresh(ctx, before, triggerRead), nil
	}

	after, err := s.accounts.Update(ctx, ownerID, id, p, s.clock.Now())
	if err != nil {
		return account.Account{}, fmt.Errorf("update account %s: %w", id, err)
	}

	trigger := triggerRead
	if before.Reactivated(p) || after.ResetPolicy != before.ResetPolicy {
		trigger = triggerWrite
	}
	after = s.usage.Refresh(ctx, after, trigger)

	s.logger.Debug().
		Str("owner_id", ownerID).
		Str("account_id", id).
		Bool("active", after.IsActive).
		Msg("account updated")
	return after, nil
}

// Delete removes an account. Its events remain but no longer aggregate.
func (s *AccountService) Delete(ctx context.Context, ownerID, id string) error {
	if err := s.accounts.Delete(ctx, ownerID, id); err != nil {
		return fmt.Errorf("delete account %s: %w", id, err)
	}
	s.snapshots.Invalidate(ownerID)

	s.logger.Info().
		Str("owner_id", ownerID).
		Str("account_id", id).
		Msg("account deleted")
	return nil
}
