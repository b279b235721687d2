//go:build tinygo

package core

import "runtime/interrupt"

// disableInterrupts masks interrupts for a short critical section around
// timer-list and flag-word mutation, returning the state to restore. The
// sections are a handful of instructions; keeping them short is what
// bounds step-pulse jitter.
func disableInterrupts() interrupt.State {
	return interrupt.Disable()
}

func restoreInterrupts(state interrupt.State) {
	interrupt.Restore(state)
}
