package testfixtures

import (
	"sync"
	"time"
)

var referenceTime = time.Date(2018, time.October, 10, 8, 0, 0, 0, time.UTC)

// ReferenceTime is the instant fixtures and clocks start from: Wednesday
// 2018-10-10 08:00 UTC.
func ReferenceTime() time.Time {
	return referenceTime
}

// Clock is a settable time source.
type Clock struct {
	mu      sync.Mutex
	current time.Time
}

// NewClock returns a clock at start, or at ReferenceTime when start is zero.
func NewClock(start time.Time) *Clock {
	if start.IsZero() {
		start = referenceTime
	}
	return &Clock{current: start}
}

// Now returns the clock time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// Set moves the clock to t.
func (c *Clock) Set(t time.Time) {
	c.mu.Lock()
	c.current = t
	c.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new time.
func (c *Clock) Advance(d time.Duration) time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.current = c.current.Add(d)
	return c.current
}
