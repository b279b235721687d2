//go:build tinygo

package core

import "sync/atomic"

// On hardware the tick counter is written by the clock-sync path and read
// from both foreground code and the stepper IRQ, so accesses are atomic.
var systemTicksValue uint32

func getSystemTicks() uint32 {
	return atomic.LoadUint32(&systemTicksValue)
}

func setSystemTicks(ticks uint32) {
	atomic.StoreUint32(&systemTicksValue, ticks)
}
