package core

// TimerFreq is the tick rate of the system timer in Hz. Segment
// cycles_per_tick values and step-pulse widths are all expressed in
// ticks of this clock; board clock code is responsible for feeding
// SetTime with a counter running at this rate.
const TimerFreq = 12000000

var bootTicks uint32

// GetTime returns the current system time in timer ticks.
func GetTime() uint32 {
	return getSystemTicks()
}

// SetTime advances the system tick counter. On hardware this is called
// from the board's clock-sync path each main-loop pass; hosted tests call
// it directly to step simulated time forward.
func SetTime(ticks uint32) {
	setSystemTicks(ticks)
}

// TimerFromUS converts microseconds to timer ticks.
func TimerFromUS(us uint32) uint32 {
	return (us * TimerFreq) / 1000000
}

// TimerToUS converts timer ticks to microseconds.
func TimerToUS(ticks uint32) uint32 {
	return (ticks * 1000000) / TimerFreq
}

// TimerInit records the boot tick so diagnostics can report uptime
// relative to it. Call once before scheduling any timers.
func TimerInit() {
	bootTicks = GetTime()
}

// UptimeTicks returns ticks elapsed since TimerInit.
func UptimeTicks() uint32 {
	return GetTime() - bootTicks
}

// ProcessTimers runs every timer whose wake time has passed. The main
// loop calls this each pass; on embedded targets the hardware timer IRQ
// drives it as well, which is what gives the stepper tick its cadence.
func ProcessTimers() {
	currentTime = GetTime()
	TimerDispatch()
}
