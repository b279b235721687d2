//go:build !tinygo

package core

// Hosted builds keep the tick counter as a plain variable: tests own time
// entirely, stepping it with SetTime and then pumping ProcessTimers, so
// there is no concurrent writer to guard against.
var systemTicks uint32

func getSystemTicks() uint32 {
	return systemTicks
}

func setSystemTicks(ticks uint32) {
	systemTicks = ticks
}
