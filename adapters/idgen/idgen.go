// Package idgen provides ID generation implementations.
package idgen

import (
	"strconv"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/vaultmeter/vaultmeter/ports"
)

// UUID generates random v4 UUIDs.
type UUID struct{}

func (UUID) New() string {
	return uuid.NewString()
}

var _ ports.IDGenerator = UUID{}

// Prefixed generates "<prefix>_<uuid>" identifiers, e.g. "acc_..." or "evt_...".
type Prefixed string

func (p Prefixed) New() string {
	return string(p) + "_" + uuid.NewString()
}

var _ ports.IDGenerator = Prefixed("")

// Sequential generates predictable IDs for tests.
type Sequential struct {
	prefix string
	n      atomic.Uint64
}

// NewSequential creates a sequential generator: prefix1, prefix2, ...
func NewSequential(prefix string) *Sequential {
	return &Sequential{prefix: prefix}
}

func (s *Sequential) New() string {
	return s.prefix + strconv.FormatUint(s.n.Add(1), 10)
}

var _ ports.IDGenerator = (*Sequential)(nil)
