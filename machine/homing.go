package machine

import (
	"grblgo/core"
	"grblgo/gcode"
	"grblgo/status"
)

// LimitPins are the per-axis limit-switch inputs Home polls through
// core.GPIODriver. Left zero-valued (pin 0) is a valid configuration on
// hosted tests that inject a core.GPIODriver stub reporting a fixed
// trigger pattern; board targets set these from targets/<board>'s pin
// table before the first $H.
type LimitPins = [3]core.GPIOPin

// Home runs the grbl-style homing cycle for every axis in
// axes, in order: seek toward the limit switch at HomingSeekMMMin,
// stop immediately on the first poll that reads the switch triggered
// (HomingDebounceMS is not applied), retract HomingPulloffMM, re-seek once
// more at HomingFeedMMMin for a higher-precision touch-off, and retract
// HomingPulloffMM again. On success,
// sys_position and the parser's shadow are both zeroed for every homed
// axis, matching grbl's "home position is the machine origin" rule. Home
// requires HomingEnabled and fails with status.SoftLimitError otherwise,
// the code grbl itself reuses for "homing not enabled".
func (m *Machine) Home(pins LimitPins, axes []int) error {
	if !m.Doc.Settings.HomingEnabled {
		return status.SoftLimitError
	}
	if m.RunState() == StateCycle || m.RunState() == StateJog {
		return status.IdleError
	}
	prevState := m.System.State
	m.System.State = StateHold // lock out ordinary motion admission during the cycle
	m.StepControl = StepControlExecuteSysMotion

	for _, axis := range axes {
		core.Debugf("homing: axis %d seek", axis)
		if err := m.homeAxis(pins, axis); err != nil {
			m.StepControl = StepControlNormalOp
			m.enterAlarm(status.AlarmHomingFailApproach)
			return err
		}
	}
	core.Debugf("homing: complete, origin reset")

	m.StepControl = StepControlNormalOp
	m.System.State = prevState
	if m.System.State != StateAlarm {
		m.System.State = StateIdle
	}
	return nil
}

func (m *Machine) homeAxis(pins LimitPins, axis int) error {
	dirInvert := m.Doc.Settings.HomingDirInvert&(1<<uint(axis)) != 0
	sign := 1.0
	if dirInvert {
		sign = -1.0
	}

	if err := m.seekToSwitch(pins[axis], axis, sign, m.Doc.Settings.HomingSeekMMMin); err != nil {
		return err
	}
	if err := m.retract(axis, -sign, m.Doc.Settings.HomingPulloffMM); err != nil {
		return err
	}
	if err := m.seekToSwitch(pins[axis], axis, sign, m.Doc.Settings.HomingFeedMMMin); err != nil {
		return err
	}
	if err := m.retract(axis, -sign, m.Doc.Settings.HomingPulloffMM); err != nil {
		return err
	}

	m.ISR.SysPosition[axis] = 0
	pos := m.reportedPosition()
	m.Planner.SetPosition(pos)
	m.State.Position = pos
	return nil
}

// seekToSwitch issues one long system-motion move toward the limit
// switch, polling pins[axis] every Service pass, and cuts the motion
// immediately (grbl's STEP_CONTROL_EXECUTE_HOLD-equivalent abrupt stop)
// the moment the switch reports triggered.
func (m *Machine) seekToSwitch(pin core.GPIOPin, axis int, sign, feedMMMin float64) error {
	target := m.State.Position
	target[axis] += sign * m.Doc.Settings.MaxTravelMM[axis] * 2 // run well past true travel; the switch stops it first
	data := gcode.PlanLineData{FeedRateMMPerMin: feedMMMin, Condition: gcode.ConditionSystemMotion}
	if err := m.Planner.Line(target, data); err != nil {
		return err
	}

	gp := core.MustGPIO()
	for {
		m.Prep.Fill()
		if !m.ISR.Running() && !m.Segments.Empty() {
			m.ISR.Start()
		}
		m.yield()
		if gp.ReadPin(pin) {
			m.ISR.Stop()
			m.Planner.Reset()
			m.Segments.Reset()
			m.resyncPosition()
			return nil
		}
		if !m.ISR.Running() && m.Segments.Empty() && m.Planner.Ring.Empty() {
			// Ran off the end of the synthetic seek travel without ever
			// seeing the switch trigger.
			return status.AlarmHomingFailApproach
		}
	}
}

// retract backs off the switch by distanceMM in the given signed
// direction and waits for the move to fully drain, the debounce-adjacent
// step between a homing touch-off and its confirming re-seek.
func (m *Machine) retract(axis int, sign, distanceMM float64) error {
	target := m.State.Position
	target[axis] += sign * distanceMM
	data := gcode.PlanLineData{FeedRateMMPerMin: m.Doc.Settings.HomingFeedMMMin, Condition: gcode.ConditionSystemMotion}
	if err := m.Planner.Line(target, data); err != nil {
		return err
	}
	for !m.Planner.Ring.Empty() || !m.Segments.Empty() {
		m.Prep.Fill()
		if !m.ISR.Running() && !m.Segments.Empty() {
			m.ISR.Start()
		}
		m.yield()
	}
	return nil
}
