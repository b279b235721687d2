package core

// FlagWord is a bitset set concurrently by interrupt-level code (the
// stepper ISR, a limit-pin interrupt, a serial realtime-byte handler) and
// drained by the foreground executor loop - grbl's rt_exec_state,
// rt_exec_alarm, and rt_exec_motion_override words (grbl/system.h). The
// two platform files behind this type give it the same dual-implementation
// split as core/timer_go.go/core/timer_tinygo.go: a hosted build backs it
// with sync/atomic since "interrupt" there is just another goroutine, a
// TinyGo build backs it with a short interrupt-disable critical section
// since the real ISR runs with interrupts off already and atomics would be
// redundant.
type FlagWord struct {
	bits uint32
}

// Set ORs bits into the word. Safe to call from interrupt level.
func (f *FlagWord) Set(bits uint32) { flagWordSet(f, bits) }

// Clear ANDs bits out of the word.
func (f *FlagWord) Clear(bits uint32) { flagWordClear(f, bits) }

// Load returns the current bitset.
func (f *FlagWord) Load() uint32 { return flagWordLoad(f) }

// Has reports whether every bit in bits is currently set.
func (f *FlagWord) Has(bits uint32) bool { return f.Load()&bits == bits }

// TestAndClear returns the bits of the word currently set that intersect
// mask, and atomically clears just those bits - the executor's usual
// "take what's pending and reset it" read.
func (f *FlagWord) TestAndClear(mask uint32) uint32 {
	return flagWordTestAndClear(f, mask)
}
