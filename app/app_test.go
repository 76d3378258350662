package app_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/vaultmeter/vaultmeter/adapters/clock"
	"github.com/vaultmeter/vaultmeter/adapters/idgen"
	"github.com/vaultmeter/vaultmeter/adapters/memory"
	"github.com/vaultmeter/vaultmeter/app"
	"github.com/vaultmeter/vaultmeter/domain/usage"
	"github.com/vaultmeter/vaultmeter/ports"
)

var errStoreDown = errors.New("store unavailable")

// flakyEvents wraps an EventStore and fails selected reads.
type flakyEvents struct {
	ports.EventStore

	failList       atomic.Bool
	failForAccount sync.Map // accountID -> true
	listCalls      atomic.Int32
}

func (f *flakyEvents) List(ctx context.Context, ownerID string) ([]usage.Event, error) {
	f.listCalls.Add(1)
	if f.failList.Load() {
		return nil, errStoreDown
	}
	return f.EventStore.List(ctx, ownerID)
}

func (f *flakyEvents) ListForAccount(ctx context.Context, ownerID, accountID string) ([]usage.Event, error) {
	if _, fail := f.failForAccount.Load(accountID); fail {
		return nil, errStoreDown
	}
	return f.EventStore.ListForAccount(ctx, ownerID, accountID)
}

// countingMetrics records calls for assertions.
type countingMetrics struct {
	mu        sync.Mutex
	logged    int
	fallbacks map[string]int
	snapshots map[string]int
	recomputs map[string]int
}

func newCountingMetrics() *countingMetrics {
	return &countingMetrics{
		fallbacks: make(map[string]int),
		snapshots: make(map[string]int),
		recomputs: make(map[string]int),
	}
}

func (m *countingMetrics) UsageLogged(int64) {
	m.mu.Lock()
	m.logged++
	m.mu.Unlock()
}

func (m *countingMetrics) Recomputed(trigger string, n int, _ time.Duration) {
	m.mu.Lock()
	m.recomputs[trigger] += n
	m.mu.Unlock()
}

func (m *countingMetrics) RecomputeFallback(stage string) {
	m.mu.Lock()
	m.fallbacks[stage]++
	m.mu.Unlock()
}

func (m *countingMetrics) Snapshot(result string) {
	m.mu.Lock()
	m.snapshots[result]++
	m.mu.Unlock()
}

func (m *countingMetrics) fallbackCount(stage string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.fallbacks[stage]
}

func (m *countingMetrics) snapshotCount(result string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshots[result]
}

type fixture struct {
	clock     *clock.Fake
	accounts  *memory.AccountStore
	events    *flakyEvents
	metrics   *countingMetrics
	snapshots *app.Snapshots
	usage     *app.UsageService
	account   *app.AccountService
	calendar  *app.CalendarService
}

// Wednesday 14 Feb 2024, 10:00 UTC.
var wednesday = time.Date(2024, 2, 14, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		clock:    clock.NewFake(wednesday),
		accounts: memory.NewAccountStore(),
		events:   &flakyEvents{EventStore: memory.NewEventStore()},
		metrics:  newCountingMetrics(),
	}
	logger := zerolog.Nop()

	f.snapshots = app.NewSnapshots(f.events, f.clock, f.metrics, 30*time.Second)
	f.usage = app.NewUsageService(app.UsageDeps{
		Accounts:  f.accounts,
		Events:    f.events,
		Snapshots: f.snapshots,
		Clock:     f.clock,
		IDGen:     idgen.NewSequential("evt-"),
		Metrics:   f.metrics,
		Logger:    logger,
	}, app.UsageConfig{Concurrency: 4})
	f.account = app.NewAccountService(f.accounts, f.usage, f.snapshots, f.clock, idgen.NewSequential("acc-"), logger)
	f.calendar = app.NewCalendarService(f.accounts, f.snapshots, time.UTC, logger)
	return f
}

func (f *fixture) create(t *testing.T, owner, name, policy string, limit *int64) string {
	t.Helper()
	a, err := f.account.Create(context.Background(), owner, app.CreateInput{
		Name:        name,
		ResetPolicy: policy,
		UsageLimit:  limit,
	})
	if err != nil {
		t.Fatalf("create %s: %v", name, err)
	}
	return a.ID
}

// seed appends an event at an arbitrary instant, bypassing the clock.
func (f *fixture) seed(t *testing.T, owner, accountID, id string, amount int64, ts time.Time) {
	t.Helper()
	err := f.events.Append(context.Background(), usage.Event{
		ID: id, OwnerID: owner, AccountID: accountID, Amount: amount, Timestamp: ts,
	})
	if err != nil {
		t.Fatalf("seed %s: %v", id, err)
	}
	f.snapshots.Invalidate(owner)
}

func int64Ptr(v int64) *int64 { return &v }
