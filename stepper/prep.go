package stepper

import (
	"math"

	"grblgo/core"
	"grblgo/planner"
	"grblgo/settings"
)

// accelerationTicksPerSecond is the prep phase's target segment rate
// (grbl/config.h's ACCELERATION_TICKS_PER_SECOND=100, i.e. ~10ms/segment).
const accelerationTicksPerSecond = 100

// amassMinTicks is the floor below which further subdivision would leave
// too few timer ticks per ISR invocation to be worth recording.
const amassMinTicks = 400

// Prep keeps the segment ring non-empty whenever the stepper is active
// by carving the planner's head block into short, roughly fixed-duration
// segments. It tracks the running state of whichever
// block is currently being carved; once exhausted it advances the
// planner ring's tail and moves on.
type Prep struct {
	Ring     *planner.Ring
	Segments *SegmentRing
	Settings *settings.Table

	active          bool
	blockSeq        int
	stBlock         StepperBlock
	blockMM         float64
	consumedMM      float64
	entrySpeedSqr   float64
	currentSpeedSqr float64
	accel           float64
	nominalSpeedSqr float64
	stepsPerMM      float64
}

// NewPrep returns a prep phase reading from ring and writing into segs.
func NewPrep(ring *planner.Ring, segs *SegmentRing, st *settings.Table) *Prep {
	return &Prep{Ring: ring, Segments: segs, Settings: st}
}

// Fill tops up the segment ring from the planner's queued blocks until
// either the ring is full or the planner has nothing left to offer.
func (p *Prep) Fill() {
	for !p.Segments.Full() {
		if !p.active && !p.beginBlock() {
			return
		}
		if !p.emitSegment() {
			p.active = false
		}
	}
}

// Reset drops the block being carved, so the next Fill starts from the
// planner ring's current tail. Used whenever the planner ring is flushed.
func (p *Prep) Reset() {
	p.active = false
}

func (p *Prep) beginBlock() bool {
	blk := p.Ring.TailBlock()
	if blk == nil {
		return false
	}
	p.blockMM = blk.Millimeters
	p.consumedMM = 0
	p.entrySpeedSqr = blk.EntrySpeedSqr
	p.currentSpeedSqr = blk.EntrySpeedSqr
	p.accel = blk.Acceleration
	p.nominalSpeedSqr = blk.NominalSpeedSqr
	p.stepsPerMM = 0
	if p.blockMM > 0 {
		p.stepsPerMM = float64(blk.StepEventCount) / p.blockMM
	}
	p.blockSeq++
	p.stBlock = StepperBlock{
		StepEventCount: blk.StepEventCount << amassLevels,
		DirectionBits:  blk.DirectionBits,
	}
	for axis := 0; axis < 3; axis++ {
		p.stBlock.Steps[axis] = blk.Steps[axis] << amassLevels
	}
	p.active = true
	return true
}

// exitSpeedSqr reads the planner's *current* recomputed entry speed of
// the block following the one being prepped, every time it's needed -
// this, rather than a value frozen at beginBlock, is what makes a
// planner-side recompute take effect on the very next segment instead of
// requiring prep to discard and replan.
func (p *Prep) exitSpeedSqr() float64 {
	if next := p.Ring.PeekAfterTail(); next != nil {
		return next.EntrySpeedSqr
	}
	return 0
}

func clamp0(v float64) float64 {
	if v < 0 {
		return 0
	}
	return v
}

// emitSegment carves and pushes one segment from the active block.
// Returns false once the block has been fully consumed (having already
// advanced the planner ring's tail), true if more remains.
func (p *Prep) emitSegment() bool {
	remainingMM := p.blockMM - p.consumedMM
	if remainingMM <= 1e-9 {
		p.Ring.Advance()
		return false
	}

	exitSqr := p.exitSpeedSqr()
	accelDistMM := clamp0((p.nominalSpeedSqr - p.entrySpeedSqr) / (2 * p.accel))
	decelDistMM := clamp0((p.nominalSpeedSqr - exitSqr) / (2 * p.accel))
	if accelDistMM+decelDistMM > p.blockMM {
		// Triangle profile: solve for the single peak point the block
		// accelerates up to and immediately decelerates back down from.
		accelDistMM = clampRange(((exitSqr-p.entrySpeedSqr)+2*p.accel*p.blockMM)/(4*p.accel), 0, p.blockMM)
		decelDistMM = p.blockMM - accelDistMM
	}
	decelStartMM := p.blockMM - decelDistMM

	const segmentMinutes = 1.0 / (accelerationTicksPerSecond * 60.0)

	var deltaS, targetSqr float64
	switch {
	case p.consumedMM < accelDistMM:
		deltaS = math.Sqrt(p.currentSpeedSqr) * segmentMinutes
		if deltaS <= 0 {
			deltaS = accelDistMM - p.consumedMM
		}
		if p.consumedMM+deltaS > accelDistMM {
			deltaS = accelDistMM - p.consumedMM
		}
		targetSqr = math.Min(p.currentSpeedSqr+2*p.accel*deltaS, p.nominalSpeedSqr)
	case p.consumedMM >= decelStartMM:
		deltaS = math.Sqrt(p.currentSpeedSqr) * segmentMinutes
		if p.consumedMM+deltaS > p.blockMM {
			deltaS = p.blockMM - p.consumedMM
		}
		targetSqr = math.Max(p.currentSpeedSqr-2*p.accel*deltaS, exitSqr)
	default:
		deltaS = math.Sqrt(p.currentSpeedSqr) * segmentMinutes
		if p.consumedMM+deltaS > decelStartMM {
			deltaS = decelStartMM - p.consumedMM
		}
		targetSqr = p.currentSpeedSqr
	}
	if deltaS <= 0 {
		deltaS = remainingMM
	}
	if deltaS > remainingMM {
		deltaS = remainingMM
	}

	avgSpeed := (math.Sqrt(p.currentSpeedSqr) + math.Sqrt(targetSqr)) / 2
	stepRate := avgSpeed * p.stepsPerMM // steps/min

	// Steps follow the block's running distance: rounding the cumulative
	// step position, not each slice on its own, keeps slices shorter than
	// one step from each adding a whole extra step.
	nStep := uint16(math.Round((p.consumedMM+deltaS)*p.stepsPerMM) - math.Round(p.consumedMM*p.stepsPerMM))
	if nStep == 0 {
		// No step falls inside this slice: advance the profile and carve on.
		p.consumedMM += deltaS
		p.currentSpeedSqr = targetSqr
		if p.consumedMM >= p.blockMM-1e-9 {
			p.Ring.Advance()
			return false
		}
		return true
	}

	cyclesPerTick := uint32(math.MaxUint32 / 4) // effectively "stopped"
	if stepRate > 0.01 {
		ticks := float64(core.TimerFreq) * 60.0 / stepRate
		if ticks < float64(math.MaxUint32/4) {
			cyclesPerTick = uint32(ticks)
		}
	}
	if cyclesPerTick < 1 {
		cyclesPerTick = 1
	}

	// AMASS: slow tick rates are oversampled 2^level-fold, trading more
	// frequent ISR entries for smaller Bresenham increments. NTick
	// and the timer reload scale together so the
	// segment's wall-clock duration and total step count are unchanged.
	level := uint8(0)
	c := cyclesPerTick
	for level < amassLevels && c > amassMinTicks*2 {
		c /= 2
		level++
	}
	cyclesPerTick >>= level
	nTick := uint32(nStep) << level
	if nTick > math.MaxUint16 {
		nTick = math.MaxUint16
	}

	p.Segments.Push(Segment{
		NTick:         uint16(nTick),
		CyclesPerTick: cyclesPerTick,
		AMASSLevel:    level,
		StBlockIndex:  p.blockSeq,
	}, p.stBlock)

	p.consumedMM += deltaS
	p.currentSpeedSqr = targetSqr
	if p.consumedMM >= p.blockMM-1e-9 {
		p.Ring.Advance()
		return false
	}
	return true
}

func clampRange(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
