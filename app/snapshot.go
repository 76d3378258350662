package app

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/vaultmeter/vaultmeter/domain/usage"
	"github.com/vaultmeter/vaultmeter/ports"
)

// Snapshots caches each owner's full event list for a bounded time.
//
// Concurrent loads for the same owner share one store read. Invalidate bumps
// the owner's generation so a load that started earlier is never cached.
// Returned slices are shared and must be treated as read-only.
type Snapshots struct {
	events  ports.EventStore
	clock   ports.Clock
	metrics ports.Metrics
	ttl     atomic.Int64 // nanoseconds; 0 disables caching

	mu      sync.Mutex
	entries map[string]snapshot
	gens    map[string]uint64
	group   singleflight.Group
}

type snapshot struct {
	events   []usage.Event
	loadedAt time.Time
	gen      uint64
}

// NewSnapshots creates a snapshot cache.
func NewSnapshots(events ports.EventStore, clock ports.Clock, m ports.Metrics, ttl time.Duration) *Snapshots {
	s := &Snapshots{
		events:  events,
		clock:   clock,
		metrics: m,
		entries: make(map[string]snapshot),
		gens:    make(map[string]uint64),
	}
	s.SetTTL(ttl)
	return s
}

// SetTTL changes the staleness bound. Safe for concurrent use.
func (s *Snapshots) SetTTL(ttl time.Duration) {
	if ttl < 0 {
		ttl = 0
	}
	s.ttl.Store(int64(ttl))
}

// TTL returns the current staleness bound.
func (s *Snapshots) TTL() time.Duration {
	return time.Duration(s.ttl.Load())
}

// Events returns the owner's events, from cache when fresh.
func (s *Snapshots) Events(ctx context.Context, ownerID string) ([]usage.Event, error) {
	ttl := s.TTL()
	now := s.clock.Now()

	s.mu.Lock()
	gen := s.gens[ownerID]
	entry, ok := s.entries[ownerID]
	s.mu.Unlock()

	if ok && ttl > 0 && entry.gen == gen && now.Sub(entry.loadedAt) < ttl {
		s.metrics.Snapshot("hit")
		return entry.events, nil
	}
	s.metrics.Snapshot("miss")

	key := ownerID + "#" + strconv.FormatUint(gen, 10)
	// The shared load outlives any one caller; each caller still honours
	// its own ctx while waiting.
	loadCtx := context.WithoutCancel(ctx)
	ch := s.group.DoChan(key, func() (any, error) {
		events, err := s.events.List(loadCtx, ownerID)
		if err != nil {
			return nil, err
		}
		if ttl > 0 {
			s.mu.Lock()
			if s.gens[ownerID] == gen {
				s.entries[ownerID] = snapshot{events: events, loadedAt: now, gen: gen}
			}
			s.mu.Unlock()
		}
		return events, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]usage.Event), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops the owner's snapshot. Call after every mutation.
func (s *Snapshots) Invalidate(ownerID string) {
	s.mu.Lock()
	s.gens[ownerID]++
	delete(s.entries, ownerID)
	s.mu.Unlock()
}
