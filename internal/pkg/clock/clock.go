// Package clock hides time.Now behind an interface so expiry logic can be
// driven by a controllable clock in tests.
package clock

import (
	"sync"
	"time"
)

// Clocker reports the current time.
type Clocker interface {
	Now() time.Time
}

// System reads the wall clock.
type System struct{}

// New returns the wall clock.
func New() *System {
	return &System{}
}

// Now returns time.Now in UTC.
func (*System) Now() time.Time {
	return time.Now().UTC()
}

// Manual is a Clocker that only moves when told to.
type Manual struct {
	mu  sync.RWMutex
	now time.Time
}

// NewManual returns a Manual clock stopped at t.
func NewManual(t time.Time) *Manual {
	return &Manual{now: t}
}

// Now returns the stored instant.
func (m *Manual) Now() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.now
}

// Set moves the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.now = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d.
func (m *Manual) Advance(d time.Duration) {
	m.mu.Lock()
	m.now = m.now.Add(d)
	m.mu.Unlock()
}
