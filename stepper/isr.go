package stepper

import (
	"grblgo/core"
	"grblgo/settings"
)

// ISR drains the segment ring at a periodic cadence, re-armed through
// core.Timer each tick, performing the multi-axis Bresenham walk. It
// owns sys_position, the one authoritative step-count vector the
// parser's mm shadow is reconciled against on abort and homing.
// Step/direction output goes through core.GPIODriver; it never
// allocates, blocks, or reads a planner.Block directly.
type ISR struct {
	Segments *SegmentRing
	Settings *settings.Table

	StepPins [3]core.GPIOPin
	DirPins  [3]core.GPIOPin

	SysPosition [3]int32

	counter        [3]int32
	activeBlock    int
	ticksRemaining uint16
	running        bool

	tickTimer  core.Timer
	pulseTimer core.Timer
	pulseBits  uint8
}

// NewISR wires a timer-driven ISR against segs, with step/dir pins per
// axis and the settings table it reads StepPulseMicroseconds from.
func NewISR(segs *SegmentRing, st *settings.Table, stepPins, dirPins [3]core.GPIOPin) *ISR {
	isr := &ISR{Segments: segs, Settings: st, StepPins: stepPins, DirPins: dirPins, activeBlock: -1}
	isr.tickTimer.Handler = isr.tick
	isr.pulseTimer.Handler = isr.lowerPulses
	return isr
}

// Start arms the ISR if it is idle and the segment ring already has a
// segment ready; a no-op otherwise (prep hasn't produced one yet, in
// which case the caller should call Start again after the next Fill).
func (isr *ISR) Start() {
	if isr.running || isr.Segments.Empty() {
		return
	}
	isr.running = true
	isr.loadSegment()
	isr.tickTimer.WakeTime = core.GetTime()
	core.ScheduleTimer(&isr.tickTimer)
}

// Running reports whether the ISR timer is currently armed.
func (isr *ISR) Running() bool { return isr.running }

// Stop halts the ISR immediately - the "step generator transitions to
// end-motion" half of an abort. Both timers are unlinked so
// a queued tick cannot fire after the halt, and so a later Start does not
// insert an already-linked timer node. The segment and planner rings are
// the caller's (machine.Machine's) responsibility to clear.
func (isr *ISR) Stop() {
	isr.running = false
	isr.activeBlock = -1
	isr.ticksRemaining = 0
	core.CancelTimer(&isr.tickTimer)
	core.CancelTimer(&isr.pulseTimer)
	isr.pulseBits = 0
}

func (isr *ISR) loadSegment() bool {
	seg, _, ok := isr.Segments.Front()
	if !ok {
		return false
	}
	if seg.StBlockIndex != isr.activeBlock {
		isr.activeBlock = seg.StBlockIndex
		_, blk, _ := isr.Segments.Front()
		for axis := 0; axis < 3; axis++ {
			isr.counter[axis] = blk.StepEventCount / 2
		}
	}
	isr.ticksRemaining = seg.NTick
	return true
}

// tick is the periodic timer handler: lower any pulse asserted last
// tick, walk one Bresenham step for every axis whose counter overflows,
// and re-arm for the next tick at the active segment's cadence.
func (isr *ISR) tick(t *core.Timer) uint8 {
	if isr.pulseBits != 0 {
		isr.lowerPulses(nil)
	}

	seg, blk, ok := isr.Segments.Front()
	if !ok {
		// Ring drained - motion complete, or prep starved mid-stream.
		// Either way the timer disarms; Machine.Service re-arms it via
		// Start once segments exist again.
		isr.running = false
		return core.SF_DONE
	}
	if isr.ticksRemaining == 0 {
		if !isr.loadSegment() {
			isr.running = false
			return core.SF_DONE
		}
		seg, blk, _ = isr.Segments.Front()
	}

	gp := core.MustGPIO()
	var pulse uint8
	for axis := 0; axis < 3; axis++ {
		if blk.Steps[axis] == 0 {
			continue
		}
		// Steps are pre-shifted by amassLevels; the segment's level
		// right-shifts them back down so oversampled ticks accumulate
		// proportionally smaller increments.
		isr.counter[axis] += blk.Steps[axis] >> seg.AMASSLevel
		if isr.counter[axis] > blk.StepEventCount {
			isr.counter[axis] -= blk.StepEventCount
			pulse |= 1 << uint(axis)
			dir := (blk.DirectionBits >> uint(axis)) & 1
			gp.SetPin(isr.DirPins[axis], dir != 0)
			gp.SetPin(isr.StepPins[axis], true)
			if dir != 0 {
				isr.SysPosition[axis]--
			} else {
				isr.SysPosition[axis]++
			}
		}
	}
	isr.pulseBits = pulse
	if pulse != 0 {
		isr.pulseTimer.WakeTime = t.WakeTime + core.TimerFromUS(uint32(isr.Settings.StepPulseMicroseconds))
		core.ScheduleTimer(&isr.pulseTimer)
	}

	isr.ticksRemaining--
	if isr.ticksRemaining == 0 {
		isr.Segments.Pop()
	}

	t.WakeTime += seg.CyclesPerTick
	return core.SF_RESCHEDULE
}

func (isr *ISR) lowerPulses(*core.Timer) uint8 {
	gp := core.MustGPIO()
	for axis := 0; axis < 3; axis++ {
		if isr.pulseBits&(1<<uint(axis)) != 0 {
			gp.SetPin(isr.StepPins[axis], false)
		}
	}
	isr.pulseBits = 0
	return core.SF_DONE
}
