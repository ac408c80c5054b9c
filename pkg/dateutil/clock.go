package dateutil

import (
	"sync"
	"time"
)

// Clock abstracts the current time so day-boundary logic can be tested
// deterministically. Production code uses SystemClock; tests use FixedClock.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Today returns the current calendar day at midnight UTC.
	Today() time.Time
}

// SystemClock reads the real wall clock.
type SystemClock struct{}

// NewSystemClock creates a Clock backed by time.Now.
func NewSystemClock() *SystemClock {
	return &SystemClock{}
}

// Now returns the current UTC time.
func (c *SystemClock) Now() time.Time {
	return time.Now().UTC()
}

// Today returns the current UTC calendar day.
func (c *SystemClock) Today() time.Time {
	return StartOfDay(time.Now())
}

// FixedClock is a controllable Clock for tests.
type FixedClock struct {
	mu      sync.Mutex
	current time.Time
}

// NewFixedClock creates a FixedClock pinned to the given time.
func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{current: t.UTC()}
}

// Now returns the pinned time.
func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Today returns the pinned calendar day.
func (c *FixedClock) Today() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return StartOfDay(c.current)
}

// Set pins the clock to a new time.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = t.UTC()
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
}

// AdvanceDays moves the clock forward by n calendar days.
func (c *FixedClock) AdvanceDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.AddDate(0, 0, n)
}
