package protocol

// Realtime command bytes, matching grbl's assignments. These never
// reach LineBuffer: the RX path intercepts and acts on them
// immediately, buffered or not, exactly like grbl's serial.c ISR does.
const (
	RealtimeSoftReset          byte = 0x18
	RealtimeStatusReport       byte = '?'
	RealtimeCycleStart         byte = '~'
	RealtimeFeedHold           byte = '!'
	RealtimeJogCancel          byte = 0x85
	RealtimeFeedOvrReset       byte = 0x90
	RealtimeFeedOvrCoarsePlus  byte = 0x91
	RealtimeFeedOvrCoarseMinus byte = 0x92
	RealtimeFeedOvrFinePlus    byte = 0x93
	RealtimeFeedOvrFineMinus   byte = 0x94
	RealtimeRapidOvrReset      byte = 0x95
	RealtimeRapidOvrMedium     byte = 0x96
	RealtimeRapidOvrLow        byte = 0x97
)

// IsRealtimeByte reports whether b must be intercepted before reaching
// the line buffer or the g-code parser.
func IsRealtimeByte(b byte) bool {
	switch b {
	case RealtimeSoftReset, RealtimeStatusReport, RealtimeCycleStart, RealtimeFeedHold,
		RealtimeJogCancel, RealtimeFeedOvrReset, RealtimeFeedOvrCoarsePlus, RealtimeFeedOvrCoarseMinus,
		RealtimeFeedOvrFinePlus, RealtimeFeedOvrFineMinus, RealtimeRapidOvrReset,
		RealtimeRapidOvrMedium, RealtimeRapidOvrLow:
		return true
	}
	return false
}
