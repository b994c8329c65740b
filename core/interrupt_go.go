//go:build !tinygo

package core

// irqState stands in for the saved interrupt mask on a hosted Go runtime,
// where there are no interrupts to mask.
type irqState struct{}

func disableInterrupts() irqState { return irqState{} }

func restoreInterrupts(irqState) {}
