// Package ports defines interfaces (contracts) between layers.
// Implementations live in adapters/.
package ports

import (
	"context"
	"errors"
	"time"

	"github.com/vaultmeter/vaultmeter/domain/account"
	"github.com/vaultmeter/vaultmeter/domain/usage"
)

// ErrNotFound is returned by stores for missing rows and for rows owned by
// another principal. Callers cannot tell the two apart.
var ErrNotFound = errors.New("not found")

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Hasher hashes and compares owner access tokens.
type Hasher interface {
	Hash(plaintext string) ([]byte, error)
	Compare(hash []byte, plaintext string) bool
}

// -----------------------------------------------------------------------------
// Data Store Ports
// -----------------------------------------------------------------------------

// AccountStore persists tracked accounts. Every call is owner-scoped.
type AccountStore interface {
	// List returns all accounts of an owner, oldest first.
	List(ctx context.Context, ownerID string) ([]account.Account, error)

	// Get returns one account.
	Get(ctx context.Context, ownerID, id string) (account.Account, error)

	// Create stores a new account.
	Create(ctx context.Context, a account.Account) error

	// Update applies a patch and returns the stored result.
	Update(ctx context.Context, ownerID, id string, p account.Patch, at time.Time) (account.Account, error)

	// SetUsage overwrites the cached current usage.
	SetUsage(ctx context.Context, ownerID, id string, usage int64) error

	// Delete removes an account. Its events are left in place.
	Delete(ctx context.Context, ownerID, id string) error
}

// EventStore persists usage events. Every call is owner-scoped.
type EventStore interface {
	// List returns all events of an owner ordered by timestamp.
	List(ctx context.Context, ownerID string) ([]usage.Event, error)

	// ListForAccount returns the events of one account ordered by timestamp.
	ListForAccount(ctx context.Context, ownerID, accountID string) ([]usage.Event, error)

	// Append stores a new event.
	Append(ctx context.Context, e usage.Event) error

	// Get returns one event.
	Get(ctx context.Context, ownerID, id string) (usage.Event, error)

	// Update applies a patch and returns the stored result.
	Update(ctx context.Context, ownerID, id string, p usage.Patch) (usage.Event, error)

	// Delete removes an event.
	Delete(ctx context.Context, ownerID, id string) error
}

// -----------------------------------------------------------------------------
// Observability Ports
// -----------------------------------------------------------------------------

// Metrics receives usage engine measurements.
type Metrics interface {
	// UsageLogged counts one logged event of the given amount.
	UsageLogged(amount int64)

	// Recomputed records a recompute of n accounts triggered by trigger
	// ("read" or "write").
	Recomputed(trigger string, n int, d time.Duration)

	// RecomputeFallback counts an account that fell back to its cached usage.
	RecomputeFallback(stage string)

	// Snapshot records an event snapshot lookup ("hit" or "miss").
	Snapshot(result string)
}
