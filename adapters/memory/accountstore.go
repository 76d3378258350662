// Package memory provides in-memory store implementations for tests and
// the single-process "memory" storage driver.
package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/vaultmeter/vaultmeter/domain/account"
	"github.com/vaultmeter/vaultmeter/ports"
)

// ErrDuplicate is returned when creating a row whose ID already exists.
var ErrDuplicate = errors.New("duplicate id")

// AccountStore is an in-memory implementation of ports.AccountStore.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]account.Account // by ID
}

// NewAccountStore creates an empty store.
func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: make(map[string]account.Account)}
}

func (s *AccountStore) List(ctx context.Context, ownerID string) ([]account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]account.Account, 0)
	for _, a := range s.accounts {
		if a.OwnerID == ownerID {
			out = append(out, cloneAccount(a))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *AccountStore) Get(ctx context.Context, ownerID, id string) (account.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok || a.OwnerID != ownerID {
		return account.Account{}, ports.ErrNotFound
	}
	return cloneAccount(a), nil
}

func (s *AccountStore) Create(ctx context.Context, a account.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[a.ID]; exists {
		return ErrDuplicate
	}
	s.accounts[a.ID] = cloneAccount(a)
	return nil
}

func (s *AccountStore) Update(ctx context.Context, ownerID, id string, p account.Patch, at time.Time) (account.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok || a.OwnerID != ownerID {
		return account.Account{}, ports.ErrNotFound
	}
	updated, err := a.Apply(p, at)
	if err != nil {
		return account.Account{}, err
	}
	s.accounts[id] = updated
	return cloneAccount(updated), nil
}

func (s *AccountStore) SetUsage(ctx context.Context, ownerID, id string, usage int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok || a.OwnerID != ownerID {
		return ports.ErrNotFound
	}
	s.accounts[id] = a.WithUsage(usage)
	return nil
}

func (s *AccountStore) Delete(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok || a.OwnerID != ownerID {
		return ports.ErrNotFound
	}
	delete(s.accounts, id)
	return nil
}

// Len returns the number of stored accounts across all owners.
func (s *AccountStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

func cloneAccount(a account.Account) account.Account {
	if a.Tags != nil {
		a.Tags = append([]string(nil), a.Tags...)
	}
	if a.UsageLimit != nil {
		v := *a.UsageLimit
		a.UsageLimit = &v
	}
	return a
}

var _ ports.AccountStore = (*AccountStore)(nil)
