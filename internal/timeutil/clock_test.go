package timeutil

import (
	"testing"
	"time"
)

func TestMockClock_Advance(t *testing.T) {
	start := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	c := NewMockClock(start)

	c.Advance(90 * time.Second)
	if got := c.Now(); !got.Equal(start.Add(90 * time.Second)) {
		t.Errorf("got %v", got)
	}
	if got := c.Since(start); got != 90*time.Second {
		t.Errorf("got since %v, want 90s", got)
	}
}

func TestRealClock_Monotonic(t *testing.T) {
	var c Clock = RealClock{}
	a := c.Now()
	if c.Since(a) < 0 {
		t.Error("negative elapsed time")
	}
}
