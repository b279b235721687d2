package machine

import (
	"grblgo/core"
	"grblgo/gcode"
	"grblgo/planner"
	"grblgo/settings"
	"grblgo/status"
	"grblgo/stepper"
)

// Machine is the one owning value standing in for process globals:
// one instance wires a gcode.Parser, a planner.Planner, the
// stepper.Prep/stepper.ISR pair, the settings.Document, and the System
// bitset/flag-word mailbox together, and is the single entry point the
// protocol layer (protocol.Dispatcher) drives.
type Machine struct {
	System

	Doc      *settings.Document
	State    *gcode.State
	Parser   *gcode.Parser
	Planner  *planner.Planner
	Segments *stepper.SegmentRing
	Prep     *stepper.Prep
	ISR      *stepper.ISR

	// Yield is the executor's suspension-point hook: every blocking
	// wait inside the machine (buffer-sync, full-ring backpressure, the
	// homing cycle's switch polls, jog-cancel's decel drain) calls it once
	// per spin so whoever owns the timer dispatch can run it. Boards set
	// this to their clock-sync + core.ProcessTimers pass; hosted tests set
	// it to advance simulated time. Nil is a no-op, safe only for callers
	// that never block.
	Yield func()

	// Spindle, when non-nil, receives spindle state changes committed by
	// the parser (M3/M4/M5 and S words). Boards wire a PWM-backed output
	// here; hosted tests leave it nil.
	Spindle SpindleOutput

	// Limits are the per-axis limit-switch inputs: polled by the homing
	// cycle, and monitored every Service pass while motion is active
	// when hard limits are enabled.
	Limits LimitPins

	// holding is set by FeedHold and cleared by CycleStart and Reset.
	holding bool
}

// SpindleOutput is the board-side spindle contract: mode is the active
// spindle modal (30=M3 CW, 40=M4 CCW, 50=M5 stop), rpm the programmed S
// value. Implementations clamp rpm to their own output range.
type SpindleOutput interface {
	SetSpindle(mode int, rpm float64)
}

// New wires a complete Machine around doc, driving step/dir pins stepPins
// and dirPins through the currently-registered core.GPIODriver. Callers
// on a hosted build normally pass a settings.MemStore-loaded Document;
// embedded targets load one from their board's settings.Store.
func New(doc *settings.Document, stepPins, dirPins [3]core.GPIOPin) *Machine {
	st := &doc.Settings
	m := &Machine{
		Doc:      doc,
		State:    gcode.NewState(),
		Planner:  planner.New(st),
		Segments: &stepper.SegmentRing{},
	}
	m.State.CoordSystem = doc.CoordSystems
	m.Prep = stepper.NewPrep(&m.Planner.Ring, m.Segments, st)
	m.ISR = stepper.NewISR(m.Segments, st, stepPins, dirPins)

	m.Parser = gcode.NewParser(m.State, doc, m.Planner)
	m.Parser.Sync = m.sync
	m.Parser.Dwell = m.dwell
	m.Parser.OnProgramPause = m.FeedHold
	m.Parser.OnProgramEnd = m.onProgramEnd
	m.Parser.OnSpindle = m.spindleChanged

	m.Planner.WaitForSpace = m.pumpUntilSpace

	return m
}

// sync is gcode.Parser.Sync: drains the planner/prep/ISR pipeline until
// the ring is empty - the parser issues a buffer-synchronise before
// any NV-adjacent write (G10, G54-59, G92) and on M2/M30.
func (m *Machine) sync() {
	for !m.Planner.Ring.Empty() || !m.Segments.Empty() {
		m.Service()
		m.yield()
	}
}

func (m *Machine) yield() {
	if m.Yield != nil {
		m.Yield()
	}
}

// dwell is gcode.Parser.Dwell (G4 Pn): it drains the buffer and returns.
// The P duration itself is not waited out, on any build.
func (m *Machine) dwell(seconds float64) {
	m.sync()
}

// onProgramEnd is gcode.Parser.OnProgramEnd (M2/M30): State has already
// been reset to default modals by the parser; this drains the pipeline
// and clears step_control back to normal so a subsequent program starts
// clean.
func (m *Machine) onProgramEnd() {
	m.sync()
	m.StepControl = StepControlNormalOp
}

// spindleChanged is gcode.Parser.OnSpindle: a spindle state change must
// not outrun queued motion, so the pipeline drains before the output
// switches, the same buffer-sync rule the NV store gets.
func (m *Machine) spindleChanged(mode int, rpm float64) {
	if m.Spindle == nil {
		return
	}
	m.sync()
	core.Debugf("spindle: mode=%d rpm=%.0f", mode, rpm)
	m.Spindle.SetSpindle(mode, rpm)
}

// pumpUntilSpace is planner.Planner.WaitForSpace: services the pipeline
// until the ring has room, or gives up (returns false) if a reset arrived
// while blocked - planner.Line then returns ErrDrainAborted.
func (m *Machine) pumpUntilSpace() bool {
	for m.Planner.Ring.Full() {
		if m.ExecState.Load()&ExecReset != 0 {
			return false
		}
		m.Service()
		m.yield()
	}
	return true
}

// Service is the foreground loop's one-iteration pump: refill the segment
// ring from the planner, (re)start the ISR if it has gone idle with work
// queued, and drain any pending realtime flags. Embedded targets call this
// every main-loop pass; hosted tests call it directly to step the pipeline
// without a real timer ISR running concurrently.
func (m *Machine) Service() {
	m.checkHardLimits()
	m.drainExecState()
	if m.StepControl&StepControlExecuteHold == 0 {
		m.Prep.Fill()
	}
	if !m.ISR.Running() && !m.Segments.Empty() {
		m.ISR.Start()
	}
	if m.ISR.Running() {
		m.State.Position = m.reportedPosition()
		return
	}
	// Motion has fully drained: a Cycle or a (non-cancelled) Jog that ran
	// to completion returns to Idle on its own, matching grbl's automatic
	// STATE_CYCLE->STATE_IDLE transition once the buffer empties.
	if (m.RunState() == StateCycle || m.RunState() == StateJog) && m.Planner.Ring.Empty() && m.Segments.Empty() {
		m.State.Position = m.reportedPosition()
		m.System.State = StateIdle
	}
}

// checkHardLimits trips a hard-limit alarm if any limit switch reports
// triggered while motion is active. A board with a real pin-change
// interrupt raises the alarm from the IRQ instead; this poll is the
// fallback that also serves hosted tests, and it reuses the same
// flag-word path so the stop happens in drainExecState either way.
func (m *Machine) checkHardLimits() {
	if !m.Doc.Settings.HardLimitsEnabled {
		return
	}
	if m.RunState() != StateCycle && m.RunState() != StateJog {
		return
	}
	gp := core.MustGPIO()
	for axis := 0; axis < 3; axis++ {
		triggered := gp.ReadPin(m.Limits[axis])
		if m.Doc.Settings.LimitPinsInvert {
			triggered = !triggered
		}
		if triggered {
			m.RaiseAlarm(status.AlarmHardLimit)
			return
		}
	}
}

// reportedPosition converts the ISR's authoritative sys_position step
// counts back to millimetres, reconciling the parser's real-valued
// shadow with what the hardware actually did.
func (m *Machine) reportedPosition() [3]float64 {
	var pos [3]float64
	for axis := 0; axis < 3; axis++ {
		steps := float64(m.ISR.SysPosition[axis])
		perMM := m.Doc.Settings.StepsPerMM[axis]
		if perMM != 0 {
			pos[axis] = steps / perMM
		}
	}
	return pos
}

// Execute runs one line of input through the parser if the machine's
// State permits it. Idle/Cycle/Hold admit ordinary blocks; Alarm admits
// only $-prefixed system commands, handled upstream by protocol.Dispatcher
// before Execute is ever called - Execute itself is the g-code path only.
func (m *Machine) Execute(line string) error {
	if m.RunState() == StateAlarm || m.RunState() == StateSleep {
		return status.IdleError
	}
	if m.RunState() == StateCheckMode {
		// Check mode parses and validates but must not move steppers;
		// Planner.Line still enqueues into the ring, so check mode is
		// approximated by running the parse and then discarding the
		// queued blocks rather than servicing them.
		err := m.Parser.Execute(line)
		m.Planner.Reset()
		return err
	}
	err := m.Parser.Execute(line)
	if err != nil {
		return err
	}
	if m.RunState() == StateIdle && !m.Planner.Ring.Empty() {
		m.System.State = StateCycle
	}
	return nil
}

// RunState exposes the embedded System.State under a method name distinct
// from the field so callers reading m.State (the gcode.State pointer)
// and m.RunState() (the machine run-state) never collide syntactically.
func (m *Machine) RunState() State { return m.System.State }

// Jog parses and admits a single `$J=<gcode>` line as a one-shot
// motion, bypassing modal state. Only reachable from Idle or an
// already-running Jog.
func (m *Machine) Jog(line string) error {
	if m.RunState() != StateIdle && m.RunState() != StateJog {
		return status.IdleError
	}
	if err := m.Parser.ExecuteJog(line); err != nil {
		return err
	}
	m.System.State = StateJog
	return nil
}

// JogCancel implements the Jog+JogCancel->Idle transition:
// graceful deceleration followed by a full flush once motion has
// stopped, then a position resync. Without a physical decel ramp wired
// into stepper.Prep, "graceful" is approximated by letting the segment
// ring (already a few milliseconds of planned motion) finish draining
// instead of an abrupt ISR.Stop; the execute-hold bit keeps prep from
// producing more, so the ISR halts on its own once the ring runs dry.
func (m *Machine) JogCancel() {
	if m.RunState() != StateJog {
		return
	}
	m.Suspend |= SuspendJogCancel
	m.StepControl |= StepControlExecuteHold | StepControlEndMotion
	for m.ISR.Running() {
		m.Service()
		m.yield()
	}
	m.flushAndResync()
	m.Suspend &^= SuspendJogCancel
	m.StepControl = StepControlNormalOp
	m.System.State = StateIdle
}

// FeedHold implements the Cycle+FeedHold->Hold transition: it sets
// step_control's execute-hold bit, which stops Service from refilling the
// segment ring, and State becomes Hold at once. The segments already
// queued run out at their planned speeds and the ISR then halts; no
// deceleration ramp is cut into the active block.
func (m *Machine) FeedHold() {
	if m.RunState() != StateCycle {
		return
	}
	m.StepControl |= StepControlExecuteHold
	m.holding = true
	m.System.State = StateHold
}

// CycleStart implements Hold+CycleStart->Cycle: clears the hold request
// and re-plans the block the planner's tail was frozen on from rest,
// since its entry speed was clamped to whatever it had decelerated to.
func (m *Machine) CycleStart() {
	if m.RunState() != StateHold {
		return
	}
	m.StepControl &^= StepControlExecuteHold
	m.holding = false
	if blk := m.Planner.Ring.TailBlock(); blk != nil {
		blk.EntrySpeedSqr = 0
	}
	m.System.State = StateCycle
}

// Reset implements the Any+Reset->Idle/Alarm transition: the ISR is
// stopped outright (no deceleration), both rings are cleared, the parser is
// reinitialised to default state, and position is resynced from whatever
// step count the ISR had reached. A reset that interrupted an active
// cycle or jog leaves the machine in Alarm, matching grbl's
// abort-during-cycle behaviour; a reset from any other state returns to
// Idle.
func (m *Machine) Reset() {
	wasMoving := m.RunState() == StateCycle || m.RunState() == StateJog
	m.ExecState.Set(ExecReset)
	m.ISR.Stop()
	m.Planner.Reset()
	m.Segments.Reset()
	m.resyncPosition()
	*m.State = *gcode.NewState()
	m.State.CoordSystem = m.Doc.CoordSystems
	m.State.Position = m.reportedPosition()
	m.StepControl = StepControlNormalOp
	m.Suspend = SuspendDisable
	m.holding = false
	if m.Spindle != nil {
		m.Spindle.SetSpindle(50, 0)
	}
	m.ExecState.TestAndClear(0xff)

	if wasMoving {
		m.System.State = StateAlarm
	} else {
		m.System.State = StateIdle
	}
}

// RaiseAlarm is the interrupt-safe half of Cycle/Idle+AlarmTrigger->Alarm:
// a hard-limit ISR or homing failure calls this to latch the alarm code
// into the flag-word mailbox without touching the planner/stepper state
// directly from interrupt context. The foreground Service loop observes
// it via drainExecState and performs the actual stop-and-flush.
func (m *Machine) RaiseAlarm(code status.Alarm) { m.SetAlarm(uint8(code)) }

// enterAlarm performs the actual Cycle/Idle->Alarm transition once
// drainExecState has observed a pending alarm code: an immediate stop
// identical in mechanism to Reset's cancellation, but always lands in
// Alarm regardless of the state it was called from (a hard-limit hit
// while idle-but-homing, for instance, still alarms).
func (m *Machine) enterAlarm(code status.Alarm) {
	m.ISR.Stop()
	m.Planner.Reset()
	m.Segments.Reset()
	m.resyncPosition()
	m.StepControl = StepControlNormalOp
	if m.Spindle != nil {
		m.Spindle.SetSpindle(50, 0)
	}
	core.Debugf("alarm: %d (%s)", int(code), code.Error())
	m.System.State = StateAlarm
}

// Unlock implements `$X`: clears Alarm back to Idle without a reset,
// matching grbl's "the only recovery is $X unlock or reset" rule. Unlock
// only clears the alarm; neither it nor protocol.Dispatcher checks whether
// the machine has homed since boot.
func (m *Machine) Unlock() {
	if m.RunState() != StateAlarm {
		return
	}
	m.System.State = StateIdle
	m.TakeAlarm()
}

// flushAndResync clears both rings and reconciles the parser's position
// shadow to the ISR's authoritative step count - the shared tail of
// Reset and JogCancel's cancellation paths.
func (m *Machine) flushAndResync() {
	m.Planner.Reset()
	m.Segments.Reset()
	m.resyncPosition()
}

// resyncPosition reconciles on abort and homing:
// the planner's forward-looking shadow and the parser's real-valued
// position are both pulled back to whatever the ISR's sys_position
// actually reached, and prep drops the block it was carving from the
// flushed planner ring.
func (m *Machine) resyncPosition() {
	m.Prep.Reset()
	pos := m.reportedPosition()
	m.Planner.SetPosition(pos)
	m.State.Position = pos
}

// drainExecState applies any realtime flags raised since the last
// Service call. Bits not yet consumed here (status-report, overrides)
// are left for protocol.Dispatcher to read directly; this only applies
// the ones that change machine state.
func (m *Machine) drainExecState() {
	bits := m.ExecState.TestAndClear(ExecFeedHold | ExecCycleStart | ExecMotionCancel)
	if bits&ExecFeedHold != 0 {
		m.FeedHold()
	}
	if bits&ExecCycleStart != 0 {
		m.CycleStart()
	}
	if bits&ExecMotionCancel != 0 && m.RunState() == StateJog {
		m.JogCancel()
	}
	if alarm := m.TakeAlarm(); alarm != 0 {
		m.enterAlarm(status.Alarm(alarm))
	}
}
