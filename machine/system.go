// Package machine ties gcode.Parser, planner.Planner, and stepper.Prep/ISR
// into the real-time executor: a single owning Machine value carrying
// the run-state machine plus the state/suspend/step-control bitsets and
// realtime flag words grbl keeps as package-global sys/sys_rt_exec_* in
// grbl/system.h.
package machine

import "grblgo/core"

// State is grbl's sys.state: the mutually-exclusive (mostly) mode a
// Machine is in, transcribed from grbl/system.h's STATE_* bits. Grbl
// overlaps STATE_ALARM/STATE_CHECK_MODE with the others as bitflags;
// this module never needs more than one active at a time, so a State is
// kept as a single named value rather than a bitset.
type State uint8

const (
	StateIdle      State = 0
	StateAlarm     State = 1 << 0
	StateCheckMode State = 1 << 1
	StateCycle     State = 1 << 3
	StateHold      State = 1 << 4
	StateJog       State = 1 << 5
	StateSleep     State = 1 << 7
)

// Suspend holds grbl's sys.suspend bitflags, managing feed-hold/parking
// and jog-cancel sub-states while StateHold or StateJog is active.
type Suspend uint8

const (
	SuspendDisable         Suspend = 0
	SuspendHoldComplete    Suspend = 1 << 0
	SuspendRestartRetract  Suspend = 1 << 1
	SuspendRetractComplete Suspend = 1 << 2
	SuspendInitiateRestore Suspend = 1 << 3
	SuspendRestoreComplete Suspend = 1 << 4
	SuspendMotionCancel    Suspend = 1 << 6
	SuspendJogCancel       Suspend = 1 << 7
)

// StepControl holds grbl's sys.step_control bitflags, governing what the
// step-segment generator (stepper.Prep) should do independent of State.
type StepControl uint8

const (
	StepControlNormalOp         StepControl = 0
	StepControlEndMotion        StepControl = 1 << 0
	StepControlExecuteHold      StepControl = 1 << 1
	StepControlExecuteSysMotion StepControl = 1 << 2
)

// Realtime executor bitflags, transcribed from grbl/system.h's EXEC_*
// defines. ExecState is carried in a core.FlagWord so a limit-pin
// interrupt or the protocol's realtime-byte handler can raise a bit
// without taking a lock the foreground loop might be holding.
const (
	ExecStatusReport uint32 = 1 << 0
	ExecCycleStart   uint32 = 1 << 1
	ExecCycleStop    uint32 = 1 << 2
	ExecFeedHold     uint32 = 1 << 3
	ExecReset        uint32 = 1 << 4
	ExecMotionCancel uint32 = 1 << 6
	ExecSleep        uint32 = 1 << 7
)

// Feed/rapid override realtime bitflags (EXEC_FEED_OVR_*/EXEC_RAPID_OVR_*).
// Carried but not yet applied to nominal rates; the flag word gives the
// protocol layer somewhere to land the realtime override bytes.
const (
	ExecFeedOvrReset       uint32 = 1 << 0
	ExecFeedOvrCoarsePlus  uint32 = 1 << 1
	ExecFeedOvrCoarseMinus uint32 = 1 << 2
	ExecFeedOvrFinePlus    uint32 = 1 << 3
	ExecFeedOvrFineMinus   uint32 = 1 << 4
	ExecRapidOvrReset      uint32 = 1 << 5
	ExecRapidOvrMedium     uint32 = 1 << 6
	ExecRapidOvrLow        uint32 = 1 << 7
)

// System is grbl's sys_t plus its three companion realtime flag words,
// transcribed field-for-field from grbl/system.h. Machine embeds one.
type System struct {
	State       State
	Suspend     Suspend
	StepControl StepControl

	// ExecState, ExecAlarm, and ExecMotionOverride are the mailbox the
	// executor drains each pass of Service, per flag-word
	// strategy: interrupt-level code only ever sets bits here, the
	// foreground loop is the sole bit-clearer.
	ExecState          core.FlagWord
	ExecAlarm          core.FlagWord // low byte holds the pending status.Alarm, 0 = none
	ExecMotionOverride core.FlagWord
}

// SetExecState raises bits in the realtime execution-state flag word.
// Safe to call from interrupt/ISR context.
func (s *System) SetExecState(bits uint32) { s.ExecState.Set(bits) }

// SetAlarm latches a into the alarm flag word. A second alarm raised
// before the first is drained is simply ORed in; the executor reports
// whichever bit pattern it finds, matching grbl's single sys_rt_exec_alarm
// byte (one pending alarm reason is all grbl ever distinguishes).
func (s *System) SetAlarm(a uint8) { s.ExecAlarm.Set(uint32(a)) }

// TakeExecState atomically reads and clears every pending exec-state bit.
func (s *System) TakeExecState() uint32 { return s.ExecState.TestAndClear(0xff) }

// TakeAlarm atomically reads and clears the pending alarm code, or 0.
func (s *System) TakeAlarm() uint8 { return uint8(s.ExecAlarm.TestAndClear(0xff)) }
