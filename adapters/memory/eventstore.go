package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/vaultmeter/vaultmeter/domain/usage"
	"github.com/vaultmeter/vaultmeter/ports"
)

// EventStore is an in-memory implementation of ports.EventStore.
type EventStore struct {
	mu     sync.RWMutex
	events map[string]usage.Event // by ID
}

// NewEventStore creates an empty store.
func NewEventStore() *EventStore {
	return &EventStore{events: make(map[string]usage.Event)}
}

func (s *EventStore) List(ctx context.Context, ownerID string) ([]usage.Event, error) {
	return s.filter(func(e usage.Event) bool { return e.OwnerID == ownerID }), nil
}

func (s *EventStore) ListForAccount(ctx context.Context, ownerID, accountID string) ([]usage.Event, error) {
	return s.filter(func(e usage.Event) bool {
		return e.OwnerID == ownerID && e.AccountID == accountID
	}), nil
}

func (s *EventStore) filter(keep func(usage.Event) bool) []usage.Event {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]usage.Event, 0)
	for _, e := range s.events {
		if keep(e) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Timestamp.Equal(out[j].Timestamp) {
			return out[i].ID < out[j].ID
		}
		return out[i].Timestamp.Before(out[j].Timestamp)
	})
	return out
}

func (s *EventStore) Append(ctx context.Context, e usage.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.events[e.ID]; exists {
		return ErrDuplicate
	}
	s.events[e.ID] = e
	return nil
}

func (s *EventStore) Get(ctx context.Context, ownerID, id string) (usage.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.events[id]
	if !ok || e.OwnerID != ownerID {
		return usage.Event{}, ports.ErrNotFound
	}
	return e, nil
}

func (s *EventStore) Update(ctx context.Context, ownerID, id string, p usage.Patch) (usage.Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok || e.OwnerID != ownerID {
		return usage.Event{}, ports.ErrNotFound
	}
	updated, err := e.Apply(p)
	if err != nil {
		return usage.Event{}, err
	}
	s.events[id] = updated
	return updated, nil
}

func (s *EventStore) Delete(ctx context.Context, ownerID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.events[id]
	if !ok || e.OwnerID != ownerID {
		return ports.ErrNotFound
	}
	delete(s.events, id)
	return nil
}

// Len returns the number of stored events across all owners.
func (s *EventStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

var _ ports.EventStore = (*EventStore)(nil)
