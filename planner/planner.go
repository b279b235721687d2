package planner

import (
	"errors"
	"math"

	"grblgo/gcode"
	"grblgo/settings"
	"grblgo/status"
)

// ErrDrainAborted is returned by Line when the ring is full and
// WaitForSpace either is unset or reports the wait should give up (a
// reset fired while blocked, in machine.Machine's usage).
var ErrDrainAborted = errors.New("planner: buffer full, drain aborted")

// Planner implements gcode.Motion, converting resolved mm targets into
// Blocks and keeping every queued (not-yet-executing) block's entry speed
// optimised under the junction-deviation model.
type Planner struct {
	Settings *settings.Table
	Ring     Ring

	// WaitForSpace is invoked when Line finds the ring full. It should
	// pump the stepper/realtime loop until a slot frees and return true,
	// or return false to abort the enqueue (e.g. on a reset). Left nil
	// in tests exercising a ring that never fills.
	WaitForSpace func() bool

	position [numAxes]float64 // mm, the planner's own forward-looking shadow
	prevUnit [numAxes]float64
	havePrev bool
}

// New returns a planner with an empty ring, seeded at the origin.
func New(st *settings.Table) *Planner {
	return &Planner{Settings: st}
}

// SetPosition reseeds the planner's forward-looking position without
// enqueuing a move, used after homing or a reset re-syncs to the
// stepper's authoritative position.
func (pl *Planner) SetPosition(pos [numAxes]float64) {
	pl.position = pos
	pl.havePrev = false
}

// Reset drops every queued block and clears junction-continuity state,
// matching the abort path: the planner ring is emptied outright.
func (pl *Planner) Reset() {
	pl.Ring.Reset()
	pl.havePrev = false
}

// Line enqueues one straight-line segment from the planner's current
// position shadow to target, satisfying gcode.Motion. A zero-length
// delta (all axes unchanged) is the EMPTY case: no block is enqueued and
// nil is returned: the "step_event_count > 0" invariant holds by
// simply never materialising a block that would violate it.
func (pl *Planner) Line(target [numAxes]float64, data gcode.PlanLineData) error {
	// Soft limits bound every ordinary move to the configured travel
	// envelope. System motion (homing, parking) is exempt: it runs past
	// the envelope on purpose, the switches stop it.
	if pl.Settings.SoftLimitsEnabled && data.Condition&gcode.ConditionSystemMotion == 0 {
		for axis := 0; axis < numAxes; axis++ {
			if math.Abs(target[axis]) > pl.Settings.MaxTravelMM[axis] {
				return status.TravelExceeded
			}
		}
	}

	var delta [numAxes]float64
	for axis := 0; axis < numAxes; axis++ {
		delta[axis] = target[axis] - pl.position[axis]
	}

	for pl.Ring.Full() {
		if pl.WaitForSpace == nil || !pl.WaitForSpace() {
			return ErrDrainAborted
		}
	}

	block := pl.Ring.HeadBlock()
	*block = Block{}
	if !pl.fillBlock(block, delta, data) {
		return nil
	}

	pl.Ring.Commit()
	pl.position = target
	pl.prevUnit = block.unitVec
	pl.havePrev = true
	pl.recompute()
	return nil
}

// fillBlock performs the block-construction step:
// mm->step conversion, per-axis-clipped acceleration and nominal speed,
// and the junction-speed constraint against the previously enqueued
// block. Returns false for a zero-length move, which the caller must
// not enqueue.
func (pl *Planner) fillBlock(b *Block, delta [numAxes]float64, data gcode.PlanLineData) bool {
	st := pl.Settings

	var stepEventCount int32
	for axis := 0; axis < numAxes; axis++ {
		// Round absolute positions, not the delta, so per-block rounding
		// never accumulates across a run of short blocks.
		stepDelta := math.Round((pl.position[axis]+delta[axis])*st.StepsPerMM[axis]) -
			math.Round(pl.position[axis]*st.StepsPerMM[axis])
		steps := int32(math.Abs(stepDelta))
		b.Steps[axis] = steps
		if stepDelta < 0 {
			b.DirectionBits |= 1 << uint(axis)
		}
		if steps > stepEventCount {
			stepEventCount = steps
		}
	}
	if stepEventCount == 0 {
		return false
	}
	b.StepEventCount = stepEventCount

	sumSq := 0.0
	for axis := 0; axis < numAxes; axis++ {
		sumSq += delta[axis] * delta[axis]
	}
	b.Millimeters = math.Sqrt(sumSq)
	for axis := 0; axis < numAxes; axis++ {
		b.unitVec[axis] = delta[axis] / b.Millimeters
	}

	accel := math.Inf(1)
	maxRate := math.Inf(1)
	for axis := 0; axis < numAxes; axis++ {
		ratio := axisRatio(b.Steps[axis], stepEventCount)
		if ratio == 0 {
			continue
		}
		if c := st.MaxAccel[axis] / ratio; c < accel {
			accel = c
		}
		if c := st.MaxRateMMMin[axis] / ratio; c < maxRate {
			maxRate = c
		}
	}
	b.Acceleration = accel

	requestedRate := data.FeedRateMMPerMin
	if data.Condition&gcode.ConditionRapidMotion != 0 {
		requestedRate = math.Inf(1) // rapids run at the per-axis rate ceiling
	} else if data.Condition&gcode.ConditionInverseTime != 0 {
		requestedRate = b.Millimeters * data.FeedRateMMPerMin
	}
	nominalRate := math.Min(requestedRate, maxRate)
	b.NominalSpeedSqr = nominalRate * nominalRate
	b.ProgrammedRate = nominalRate
	b.Condition = data.Condition
	b.LineNumber = data.LineNumber

	b.MaxJunctionSpeedSqr = pl.junctionSpeedSqr(b.unitVec)
	b.MaxEntrySpeedSqr = math.Min(b.NominalSpeedSqr, b.MaxJunctionSpeedSqr)
	if b.MaxEntrySpeedSqr < minPlannerSpeedSqr {
		b.MaxEntrySpeedSqr = minPlannerSpeedSqr
	}
	b.EntrySpeedSqr = b.MaxEntrySpeedSqr

	minNominalLength := b.NominalSpeedSqr / b.Acceleration
	b.NominalLength = b.Millimeters >= minNominalLength

	return true
}

// junctionSpeedSqr is the junction-deviation cornering model:
// v^2 = a*delta*sin(theta/2) / (1 - sin(theta/2)), with
// sin(theta/2) derived from cos_theta = -u_prev . u_new via the
// half-angle identity so neither vector's absolute angle is ever needed.
// A collinear continuation drives sin(theta/2) to 1 and the formula to
// infinity (clamped to a sentinel); an exact reversal drives it to 0.
func (pl *Planner) junctionSpeedSqr(unit [numAxes]float64) float64 {
	if !pl.havePrev {
		return 0 // first move off an idle machine starts from rest
	}
	cosTheta := 0.0
	for axis := 0; axis < numAxes; axis++ {
		cosTheta -= pl.prevUnit[axis] * unit[axis]
	}
	if cosTheta > 1 {
		cosTheta = 1
	} else if cosTheta < -1 {
		cosTheta = -1
	}
	sinThetaD2 := math.Sqrt(0.5 * (1 - cosTheta))
	if sinThetaD2 > 0.999999 {
		return junctionSpeedSentinel
	}
	return pl.accelForJunction() * pl.Settings.JunctionDeviationMM * sinThetaD2 / (1 - sinThetaD2)
}

// accelForJunction uses the lowest per-axis acceleration limit as the
// scalar "a" in the junction formula, matching grbl's use of a single
// representative acceleration rather than the about-to-be-computed
// block's own (not yet known at junction-evaluation time).
func (pl *Planner) accelForJunction() float64 {
	accel := math.Inf(1)
	for axis := 0; axis < numAxes; axis++ {
		if pl.Settings.MaxAccel[axis] < accel {
			accel = pl.Settings.MaxAccel[axis]
		}
	}
	return accel
}

// recompute re-optimises every queued, not-yet-executing block's entry
// speed: a reverse pass caps each entry speed, from the newest block back
// toward (but never touching) the frozen tail block, by what the block can
// still decelerate from to reach its successor's entry, then a forward pass
// caps each entry speed by what the previous block's entry speed and
// acceleration can actually deliver over its length. Both passes only
// lower entry speeds; an entry lowered by an earlier recompute is not
// raised again when later blocks extend the plan.
// Nominal-length blocks are pinned: once a block can already decelerate
// to nominal speed and back within its own length, neighbours cannot
// constrain it further.
func (pl *Planner) recompute() {
	r := &pl.Ring

	// The newest block's downstream exit is rest: the queue may drain
	// behind the stepper at any moment, so every plan must end stopped.
	downstreamEntrySqr := 0.0
	r.forEachQueued(true, func(b *Block) {
		if !b.NominalLength {
			limit := downstreamEntrySqr + 2*b.Acceleration*b.Millimeters
			if limit < minPlannerSpeedSqr {
				limit = minPlannerSpeedSqr
			}
			if limit < b.EntrySpeedSqr {
				b.EntrySpeedSqr = limit
			}
		}
		downstreamEntrySqr = b.EntrySpeedSqr
	})

	prev := r.TailBlock()
	r.forEachQueued(false, func(b *Block) {
		if prev != nil && !prev.NominalLength {
			limit := prev.EntrySpeedSqr + 2*prev.Acceleration*prev.Millimeters
			if limit < b.EntrySpeedSqr {
				b.EntrySpeedSqr = limit
			}
		}
		prev = b
	})
}
