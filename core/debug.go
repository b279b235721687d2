package core

import "fmt"

// DebugWriter receives one fully-formatted trace line at a time. Platform
// code supplies the sink (UART, USB CDC, or a hosted io.Writer); nothing in
// core or the motion pipeline imports a logging framework, matching the
// firmware's plain fmt.Printf-to-a-writer idiom.
type DebugWriter func(string)

var (
	debugWriter  DebugWriter = func(string) {}
	debugEnabled bool
)

// SetDebugWriter registers the platform-specific sink for Debugf output.
func SetDebugWriter(w DebugWriter) {
	if w == nil {
		w = func(string) {}
	}
	debugWriter = w
}

// SetDebugEnabled gates Debugf output: disabled by default so TinyGo
// targets pay nothing for trace formatting on the hot path unless an
// operator turned it on.
func SetDebugEnabled(enabled bool) { debugEnabled = enabled }

// IsDebugEnabled reports the current verbosity gate.
func IsDebugEnabled() bool { return debugEnabled }

// Debugf formats and emits one trace line through the registered sink. A
// no-op unless debugging is enabled. Used by the executor, homing cycle,
// and settings loader for operator-visible trace output - never the ISR
// tick path, which must not allocate.
func Debugf(format string, args ...interface{}) {
	if !debugEnabled {
		return
	}
	debugWriter(fmt.Sprintf(format, args...))
}
