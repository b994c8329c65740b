package core

import (
	"sync/atomic"
	"testing"
	"time"
)

func TestBusyLoopCountsTicks(t *testing.T) {
	for _, ticks := range []int{0, 1, 7, 250} {
		before := atomic.LoadUint32(&spin)
		BusyLoop{}.Hold(ticks)
		if got := int(atomic.LoadUint32(&spin) - before); got != ticks {
			t.Errorf("Hold(%d): expected %d iterations, got %d", ticks, ticks, got)
		}
	}
}

func TestBusyLoopNegative(t *testing.T) {
	before := atomic.LoadUint32(&spin)
	BusyLoop{}.Hold(-3)
	if atomic.LoadUint32(&spin) != before {
		t.Error("Hold with negative ticks should not iterate")
	}
}

func TestSleepTicks(t *testing.T) {
	start := time.Now()
	SleepTicks{Unit: time.Millisecond}.Hold(3)
	if elapsed := time.Since(start); elapsed < 3*time.Millisecond {
		t.Errorf("expected at least 3ms, slept %v", elapsed)
	}

	// Zero unit and zero ticks return immediately
	SleepTicks{}.Hold(1000)
	SleepTicks{Unit: time.Hour}.Hold(0)
}
