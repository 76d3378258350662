// Package clock provides Clock implementations.
package clock

import (
	"sync"
	"time"

	"github.com/vaultmeter/vaultmeter/ports"
)

// Local reads the system clock and reports instants in a fixed location.
// Period windows and calendar days are aligned to that location.
type Local struct {
	loc *time.Location
}

// NewLocal creates a clock for loc. A nil loc means time.Local.
func NewLocal(loc *time.Location) Local {
	if loc == nil {
		loc = time.Local
	}
	return Local{loc: loc}
}

// Now returns the current time in the clock's location.
func (c Local) Now() time.Time {
	if c.loc == nil {
		return time.Now()
	}
	return time.Now().In(c.loc)
}

// Location returns the evaluation location.
func (c Local) Location() *time.Location {
	if c.loc == nil {
		return time.Local
	}
	return c.loc
}

var _ ports.Clock = Local{}

// Fake is a settable clock for tests.
type Fake struct {
	mu  sync.RWMutex
	now time.Time
}

// NewFake creates a fake clock frozen at t.
func NewFake(t time.Time) *Fake {
	return &Fake{now: t}
}

func (f *Fake) Now() time.Time {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.now
}

// Set jumps to t.
func (f *Fake) Set(t time.Time) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}

// Advance moves forward by d.
func (f *Fake) Advance(d time.Duration) {
	f.mu.Lock()
	f.now = f.now.Add(d)
	f.mu.Unlock()
}

var _ ports.Clock = (*Fake)(nil)
