//go:build !tinygo

package core

// State stands in for saved interrupt state on hosted builds, where the
// "ISR" is just a test calling ProcessTimers and there is nothing to mask.
type State uintptr

func disableInterrupts() State { return 0 }

func restoreInterrupts(State) {}
