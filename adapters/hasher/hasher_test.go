package hasher_test

import (
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/vaultmeter/vaultmeter/adapters/clock"
	"github.com/vaultmeter/vaultmeter/adapters/hasher"
)

// countingHasher counts comparisons.
type countingHasher struct {
	hasher.Plain
	compares atomic.Int32
}

func (h *countingHasher) Compare(hash []byte, plaintext string) bool {
	h.compares.Add(1)
	return h.Plain.Compare(hash, plaintext)
}

func TestTokens_RejectedTokenSkipsCompare(t *testing.T) {
	h := &countingHasher{}
	tokens := hasher.NewTokens(h, []hasher.Grant{
		{OwnerID: "alice", Hash: []byte("alice-token")},
		{OwnerID: "bob", Hash: []byte("bob-token")},
	})
	c := clock.NewFake(time.Date(2024, 3, 6, 12, 0, 0, 0, time.UTC))
	tokens.SetClock(c.Now)

	if _, ok := tokens.Resolve("mallory"); ok {
		t.Fatal("mallory resolved")
	}
	if n := h.compares.Load(); n != 2 {
		t.Fatalf("compares after first attempt = %d, want 2", n)
	}

	for i := 0; i < 10; i++ {
		if _, ok := tokens.Resolve("mallory"); ok {
			t.Fatal("mallory resolved")
		}
	}
	if n := h.compares.Load(); n != 2 {
		t.Errorf("compares after repeats = %d, want 2", n)
	}

	c.Advance(time.Minute)
	tokens.Resolve("mallory")
	if n := h.compares.Load(); n != 4 {
		t.Errorf("compares after expiry = %d, want 4", n)
	}

	if owner, ok := tokens.Resolve("alice-token"); !ok || owner != "alice" {
		t.Errorf("alice-token = (%q, %v)", owner, ok)
	}
}

func TestBcrypt_HashAndCompare(t *testing.T) {
	h := hasher.NewBcrypt(bcrypt.MinCost)

	hash, err := h.Hash("s3cret")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	if string(hash) == "s3cret" {
		t.Fatal("hash must not equal plaintext")
	}
	if !h.Compare(hash, "s3cret") {
		t.Error("Compare should accept the original token")
	}
	if h.Compare(hash, "wrong") {
		t.Error("Compare should reject a different token")
	}
}

func TestBcrypt_InvalidCostFallsBack(t *testing.T) {
	for _, cost := range []int{1, 100} {
		h := hasher.NewBcrypt(cost)
		hash, err := h.Hash("x")
		if err != nil {
			t.Fatalf("cost %d: Hash() error = %v", cost, err)
		}
		got, err := bcrypt.Cost(hash)
		if err != nil {
			t.Fatalf("bcrypt.Cost error = %v", err)
		}
		if got != bcrypt.DefaultCost {
			t.Errorf("cost %d: hashed with %d, want default %d", cost, got, bcrypt.DefaultCost)
		}
	}
}

func TestTokens_Resolve(t *testing.T) {
	h := hasher.NewBcrypt(bcrypt.MinCost)
	aliceHash, _ := h.Hash("alice-token")
	bobHash, _ := h.Hash("bob-token")

	tokens := hasher.NewTokens(h, []hasher.Grant{
		{OwnerID: "alice", Hash: aliceHash},
		{OwnerID: "bob", Hash: bobHash},
	})

	tests := []struct {
		token string
		owner string
		ok    bool
	}{
		{"alice-token", "alice", true},
		{"bob-token", "bob", true},
		{"alice-token", "alice", true}, // cached path
		{"mallory", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		owner, ok := tokens.Resolve(tt.token)
		if owner != tt.owner || ok != tt.ok {
			t.Errorf("Resolve(%q) = (%q, %v), want (%q, %v)", tt.token, owner, ok, tt.owner, tt.ok)
		}
	}
	if tokens.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tokens.Len())
	}
}

func TestPlain(t *testing.T) {
	h := hasher.Plain{}
	hash, _ := h.Hash("abc")
	if !h.Compare(hash, "abc") || h.Compare(hash, "abd") {
		t.Error("Plain compare mismatch")
	}
}
