//go:build tinygo

package core

import "runtime/interrupt"

// irqState is the interrupt mask saved on entry to a critical section
type irqState = interrupt.State

// disableInterrupts masks interrupts and returns the previous mask
func disableInterrupts() irqState {
	return interrupt.Disable()
}

// restoreInterrupts reinstates a mask saved by disableInterrupts
func restoreInterrupts(state irqState) {
	interrupt.Restore(state)
}
