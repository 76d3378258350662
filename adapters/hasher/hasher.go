// Package hasher hashes owner access tokens and resolves tokens to owners.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vaultmeter/vaultmeter/ports"
)

// Bcrypt uses bcrypt for hashing.
type Bcrypt struct {
	cost int
}

// NewBcrypt creates a bcrypt hasher. Out-of-range costs fall back to the default.
func NewBcrypt(cost int) *Bcrypt {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &Bcrypt{cost: cost}
}

func (h *Bcrypt) Hash(plaintext string) ([]byte, error) {
	return bcrypt.GenerateFromPassword([]byte(plaintext), h.cost)
}

func (h *Bcrypt) Compare(hash []byte, plaintext string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(plaintext)) == nil
}

var _ ports.Hasher = (*Bcrypt)(nil)

// Plain compares tokens verbatim. Tests only.
type Plain struct{}

func (Plain) Hash(plaintext string) ([]byte, error) { return []byte(plaintext), nil }

func (Plain) Compare(hash []byte, plaintext string) bool { return string(hash) == plaintext }

var _ ports.Hasher = Plain{}

// Grant binds a token hash to the owner it authenticates.
type Grant struct {
	OwnerID string
	Hash    []byte
}

const (
	rejectTTL  = time.Minute
	maxRejects = 4096
)

// Tokens resolves presented tokens to owners.
// Successful matches are remembered by digest so bcrypt runs once per token.
// Failed tokens are remembered for a minute so a repeated bad token costs a
// map lookup instead of one bcrypt comparison per grant.
type Tokens struct {
	hasher ports.Hasher
	grants []Grant
	now    func() time.Time

	mu       sync.RWMutex
	seen     map[string]string    // sha256(token) -> owner
	rejected map[string]time.Time // sha256(token) -> expiry
}

// NewTokens creates a resolver over grants.
func NewTokens(h ports.Hasher, grants []Grant) *Tokens {
	return &Tokens{
		hasher:   h,
		grants:   grants,
		now:      time.Now,
		seen:     make(map[string]string),
		rejected: make(map[string]time.Time),
	}
}

// SetClock replaces the time source used to expire rejections.
func (t *Tokens) SetClock(now func() time.Time) {
	t.mu.Lock()
	t.now = now
	t.mu.Unlock()
}

// Resolve returns the owner for token.
func (t *Tokens) Resolve(token string) (string, bool) {
	if token == "" {
		return "", false
	}
	sum := sha256.Sum256([]byte(token))
	digest := hex.EncodeToString(sum[:])

	t.mu.RLock()
	owner, ok := t.seen[digest]
	expiry, rejected := t.rejected[digest]
	now := t.now()
	t.mu.RUnlock()
	if ok {
		return owner, true
	}
	if rejected && now.Before(expiry) {
		return "", false
	}

	for _, g := range t.grants {
		if t.hasher.Compare(g.Hash, token) {
			t.mu.Lock()
			t.seen[digest] = g.OwnerID
			delete(t.rejected, digest)
			t.mu.Unlock()
			return g.OwnerID, true
		}
	}

	t.mu.Lock()
	t.reject(digest, now)
	t.mu.Unlock()
	return "", false
}

// reject records a failed digest. Caller holds mu.
func (t *Tokens) reject(digest string, now time.Time) {
	if len(t.rejected) >= maxRejects {
		for d, exp := range t.rejected {
			if !now.Before(exp) {
				delete(t.rejected, d)
			}
		}
		if len(t.rejected) >= maxRejects {
			clear(t.rejected)
		}
	}
	t.rejected[digest] = now.Add(rejectTTL)
}

// Len returns the number of configured grants.
func (t *Tokens) Len() int {
	return len(t.grants)
}
