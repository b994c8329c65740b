package core

import (
	"sync/atomic"
	"time"
)

// MinDelayTicks is the default and smallest accepted delay.
const MinDelayTicks = 1

// TickSource holds the line state for a number of abstract time units.
// The unit is not calibrated; targets tune the tick count empirically.
type TickSource interface {
	Hold(ticks int)
}

// spin is touched on every busy-loop iteration so the compiler cannot
// drop the loop.
var spin uint32

// BusyLoop burns one loop iteration per tick.
type BusyLoop struct{}

// Hold counts down from ticks to zero.
//
//go:noinline
func (BusyLoop) Hold(ticks int) {
	for n := ticks; n > 0; n-- {
		atomic.AddUint32(&spin, 1)
	}
}

// SleepTicks sleeps Unit per tick. Used by host backends where each
// register access is already slow and a scheduler sleep is acceptable.
type SleepTicks struct {
	Unit time.Duration
}

// Hold sleeps for ticks*Unit.
func (s SleepTicks) Hold(ticks int) {
	if ticks <= 0 || s.Unit <= 0 {
		return
	}
	time.Sleep(time.Duration(ticks) * s.Unit)
}
