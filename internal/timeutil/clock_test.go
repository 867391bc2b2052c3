package timeutil

import (
	"testing"
	"time"
)

func TestRealClock(t *testing.T) {
	c := RealClock{}
	start := c.Now()
	if c.Since(start) < 0 {
		t.Error("Since returned a negative duration")
	}
}

func TestMockClock(t *testing.T) {
	base := time.Date(2019, 12, 19, 11, 34, 22, 0, time.UTC)
	c := NewMockClock(base)

	if !c.Now().Equal(base) {
		t.Fatalf("Now() = %v, want %v", c.Now(), base)
	}
	c.Advance(90 * time.Second)
	if got := c.Since(base); got != 90*time.Second {
		t.Errorf("Since() = %v, want 90s", got)
	}
}

func TestEpochSeconds(t *testing.T) {
	tests := []struct {
		raw  uint64
		unit string
		want float64
	}{
		{1576755262, "s", 1576755262},
		{1576755262500, "ms", 1576755262.5},
		{1576755262250000, "us", 1576755262.25},
		{1576755262000000000, "ns", 1576755262},
		{42, "fortnights", 42},
	}
	for _, tt := range tests {
		if got := EpochSeconds(tt.raw, tt.unit); got != tt.want {
			t.Errorf("EpochSeconds(%d, %q) = %v, want %v", tt.raw, tt.unit, got, tt.want)
		}
	}
}

func TestIsValidUnit(t *testing.T) {
	for _, u := range ValidUnits {
		if !IsValidUnit(u) {
			t.Errorf("expected %q to be valid", u)
		}
	}
	if IsValidUnit("min") || IsValidUnit("") {
		t.Error("unexpected valid unit")
	}
}
