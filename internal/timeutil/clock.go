// Package timeutil provides a testable clock for timing pipeline runs.
package timeutil

import (
	"sync"
	"time"
)

// Clock provides the current time.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// Since returns the duration since t.
	Since(t time.Time) time.Duration
}

// RealClock implements Clock using the standard time package.
type RealClock struct{}

// Now returns the current time.
func (RealClock) Now() time.Time { return time.Now() }

// Since returns the time elapsed since t.
func (RealClock) Since(t time.Time) time.Duration { return time.Since(t) }

// MockClock is a manually controlled clock for testing.
type MockClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewMockClock creates a MockClock set to t.
func NewMockClock(t time.Time) *MockClock {
	return &MockClock{now: t}
}

// Now returns the mocked current time.
func (c *MockClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *MockClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Since returns the mocked duration since t.
func (c *MockClock) Since(t time.Time) time.Duration {
	return c.Now().Sub(t)
}

// EpochSeconds converts a header timestamp expressed in unit ("s", "ms",
// "us" or "ns") to floating point seconds since the epoch. Unknown units
// are treated as seconds.
func EpochSeconds(raw uint64, unit string) float64 {
	switch unit {
	case "ms":
		return float64(raw) / 1e3
	case "us":
		return float64(raw) / 1e6
	case "ns":
		return float64(raw) / 1e9
	default:
		return float64(raw)
	}
}

// ValidUnits lists the accepted header timestamp units.
var ValidUnits = []string{"s", "ms", "us", "ns"}

// IsValidUnit reports whether unit is one of ValidUnits.
func IsValidUnit(unit string) bool {
	for _, u := range ValidUnits {
		if u == unit {
			return true
		}
	}
	return false
}
