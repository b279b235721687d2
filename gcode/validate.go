package gcode

import "grblgo/status"

func scaleUnits(v float64, inches bool) float64 {
	if inches {
		return v * 25.4
	}
	return v
}

// resolveTarget computes the absolute machine-mm target for every axis
// word present in block, leaving axes without a word at the current
// position. suppressOffset implements G53's "this block only" WCO bypass.
func (p *Parser) resolveTarget(block *Block, suppressOffset bool) [3]float64 {
	cur := p.State.Position
	wco := p.State.WorkCoordinateOffset()
	absolute := block.Modal.Distance == 900
	inches := block.Modal.Units == 200

	target := cur
	for axis := 0; axis < 3; axis++ {
		if !block.hasAxisWord(axis) {
			continue
		}
		v := scaleUnits(block.Values.XYZ[axis], inches)
		switch {
		case suppressOffset:
			target[axis] = v
		case absolute:
			target[axis] = v + wco[axis]
		default:
			target[axis] = cur[axis] + v
		}
	}
	return target
}

func (p *Parser) validateAndResolve(block *Block) ([3]float64, PlanLineData, status.Code) {
	if block.IsJog {
		if code := validateJog(block); code != status.OK {
			return [3]float64{}, PlanLineData{}, code
		}
	}

	if block.Values.N != 0 {
		if block.Values.N > MaxLineNumber {
			return [3]float64{}, PlanLineData{}, status.GcodeInvalidLineNumber
		}
	}

	inches := block.Modal.Units == 200
	block.feedRate = p.State.FeedRate
	if block.hasWord(WordF) {
		block.feedRate = scaleUnits(block.Values.F, inches)
	}

	data := PlanLineData{LineNumber: block.Values.N}

	switch block.NonModal {
	case NonModalDwell:
		if !block.hasWord(WordP) {
			return [3]float64{}, data, status.GcodeValueWordMissing
		}
		if p.Dwell != nil {
			p.Dwell(block.Values.P)
		}
		return p.State.Position, data, status.OK

	case NonModalSetCoordData:
		return p.State.Position, data, p.applyCoordData(block)

	case NonModalResetCoordOffset:
		if block.hasAnyAxisWord() {
			return [3]float64{}, data, status.GcodeAxisWordsExist
		}
		p.State.CoordOffset = [3]float64{}
		return p.State.Position, data, status.OK

	case NonModalSetCoordOffset:
		return p.State.Position, data, p.applyCoordOffset(block)

	case NonModalGoHome0, NonModalGoHome1:
		return p.resolveTarget(block, false), PlanLineData{Condition: ConditionSystemMotion, LineNumber: block.Values.N}, status.OK
	}

	suppressOffset := false
	if block.NonModal == NonModalAbsoluteOverride {
		if block.Modal.Motion != 0 && block.Modal.Motion != 10 {
			return [3]float64{}, data, status.GcodeG53InvalidMotionMode
		}
		suppressOffset = true
	}

	return p.resolveMotion(block, suppressOffset, data)
}

func validateJog(block *Block) status.Code {
	allowed := modalGroupBit(ModalGroupDistance) | modalGroupBit(ModalGroupUnits) | modalGroupBit(ModalGroupNonModal)
	if block.groupSeen&^allowed != 0 {
		return status.InvalidJogCommand
	}
	if block.NonModal != NonModalNone && block.NonModal != NonModalAbsoluteOverride {
		return status.InvalidJogCommand
	}
	if !block.hasAnyAxisWord() {
		return status.InvalidJogCommand
	}
	if !block.hasWord(WordF) {
		return status.InvalidJogCommand
	}
	// Jog forces linear motion, units-per-minute feed mode for this block.
	block.Modal.Motion = 10
	block.Modal.FeedRateMode = 940
	return status.OK
}

func (p *Parser) applyCoordData(block *Block) status.Code {
	if !block.hasWord(WordP) || !block.hasWord(WordL) {
		return status.GcodeValueWordMissing
	}
	l := int(block.Values.L)
	if l != 2 && l != 20 {
		return status.GcodeUnsupportedCommand
	}
	if l == 2 && block.hasWord(WordR) {
		return status.GcodeUnsupportedCommand
	}

	idx := int(block.Values.P)
	if idx == 0 {
		idx = (block.Modal.CoordSystem-540)/10 + 1
	}
	if idx < 1 || idx > settingsNumCoordSystems {
		return status.GcodeUnsupportedCoordSys
	}
	idx--

	if p.Sync != nil {
		p.Sync()
	}

	inches := block.Modal.Units == 200
	for axis := 0; axis < 3; axis++ {
		if !block.hasAxisWord(axis) {
			continue
		}
		v := scaleUnits(block.Values.XYZ[axis], inches)
		if l == 2 {
			p.Doc.CoordSystems[idx][axis] = v
		} else {
			p.Doc.CoordSystems[idx][axis] = p.State.Position[axis] - v
		}
		// Keep the parser-side cache of the NV table in step with the
		// stored copy.
		p.State.CoordSystem[idx][axis] = p.Doc.CoordSystems[idx][axis]
	}
	return status.OK
}

const settingsNumCoordSystems = 6

func (p *Parser) applyCoordOffset(block *Block) status.Code {
	if p.Sync != nil {
		p.Sync()
	}
	inches := block.Modal.Units == 200
	coordIdx := (block.Modal.CoordSystem - 540) / 10
	for axis := 0; axis < 3; axis++ {
		if !block.hasAxisWord(axis) {
			continue
		}
		v := scaleUnits(block.Values.XYZ[axis], inches)
		p.State.CoordOffset[axis] = p.State.Position[axis] - p.State.CoordSystem[coordIdx][axis] - v
	}
	return status.OK
}

func (p *Parser) resolveMotion(block *Block, suppressOffset bool, data PlanLineData) ([3]float64, PlanLineData, status.Code) {
	inches := block.Modal.Units == 200
	cur := p.State.Position

	// Words that nothing in this block consumes are an error, not noise
	// to discard: R and I/J/K belong to arcs only, P and L to G4/G10,
	// both handled before this point.
	if block.Modal.Motion != 20 && block.Modal.Motion != 30 {
		if block.hasWord(WordR) || block.anyIJK() {
			return cur, data, status.GcodeUnusedWords
		}
	}
	if block.hasWord(WordP) || block.hasWord(WordL) {
		return cur, data, status.GcodeUnusedWords
	}

	// No axis words: nothing moves. An explicitly stated motion command
	// with nothing to move is an error; an inherited motion mode (the
	// block was really just M3/S/F/...) is not.
	if !block.hasAnyAxisWord() && block.Modal.Motion != 800 {
		if block.groupSeen&modalGroupBit(ModalGroupMotion) != 0 {
			return cur, data, status.GcodeNoAxisWords
		}
		return cur, data, status.OK
	}

	switch block.Modal.Motion {
	case 0: // G0 rapid
		data.Condition |= ConditionRapidMotion
		return p.resolveTarget(block, suppressOffset), data, status.OK

	case 10: // G1 linear feed
		if code := p.requireFeedRate(block); code != status.OK {
			return [3]float64{}, data, code
		}
		data = p.feedData(block, data)
		return p.resolveTarget(block, suppressOffset), data, status.OK

	case 20, 30: // G2/G3 arc
		return p.resolveArc(block, data)

	case 382: // G38.2 probe: runs as a plain feed move, probe input hardware is not modeled.
		if code := p.requireFeedRate(block); code != status.OK {
			return [3]float64{}, data, code
		}
		data = p.feedData(block, data)
		return p.resolveTarget(block, suppressOffset), data, status.OK

	case 800: // G80 cancel motion mode
		if block.hasAnyAxisWord() {
			return cur, data, status.GcodeAxisWordsExist
		}
		return cur, data, status.OK
	}

	_ = inches
	return cur, data, status.GcodeUnsupportedCommand
}

func (p *Parser) requireFeedRate(block *Block) status.Code {
	if block.Modal.FeedRateMode == 930 { // G93 inverse time
		if !block.hasWord(WordF) {
			return status.GcodeUndefinedFeedRate
		}
		return status.OK
	}
	if block.feedRate <= 0 {
		return status.GcodeUndefinedFeedRate
	}
	return status.OK
}

func (p *Parser) feedData(block *Block, data PlanLineData) PlanLineData {
	if block.Modal.FeedRateMode == 930 {
		data.Condition |= ConditionInverseTime
		data.FeedRateMMPerMin = block.feedRate // interpreted by the planner as 1/minutes
	} else {
		data.FeedRateMMPerMin = block.feedRate
	}
	return data
}

func (p *Parser) resolveArc(block *Block, data PlanLineData) ([3]float64, PlanLineData, status.Code) {
	if !block.hasAnyAxisWord() {
		return [3]float64{}, data, status.GcodeNoAxisWords
	}
	axis0, axis1, _ := planeAxes(block.Modal.Plane)
	if !block.hasAxisWord(axis0) && !block.hasAxisWord(axis1) {
		return [3]float64{}, data, status.GcodeNoAxisWordsInPlane
	}
	if code := p.requireFeedRate(block); code != status.OK {
		return [3]float64{}, data, code
	}
	data = p.feedData(block, data)

	clockwise := block.Modal.Motion == 20
	cur := p.State.Position
	target := p.resolveTarget(block, false)

	inches := block.Modal.Units == 200
	chordX := target[axis0] - cur[axis0]
	chordY := target[axis1] - cur[axis1]

	var centerOffset [2]float64
	var code status.Code
	if block.hasWord(WordR) {
		if cur == target {
			return [3]float64{}, data, status.GcodeInvalidTarget
		}
		radius := scaleUnits(block.Values.R, inches)
		centerOffset[0], centerOffset[1], code = arcCenterFromRadius(chordX, chordY, radius, clockwise)
	} else if block.anyIJK() {
		i := scaleUnits(block.Values.IJK[axis0], inches)
		j := scaleUnits(block.Values.IJK[axis1], inches)
		centerOffset = [2]float64{i, j}
		_, code = arcCenterFromOffset(chordX, chordY, i, j)
	} else {
		return [3]float64{}, data, status.GcodeNoOffsetsInPlane
	}
	if code != status.OK {
		return [3]float64{}, data, code
	}

	tol := 0.002
	if p.Doc != nil {
		tol = p.Doc.Settings.ArcToleranceMM
	}
	segs, code := interpolateArc(cur, target, block.Modal.Plane, centerOffset, clockwise, tol)
	if code != status.OK {
		return [3]float64{}, data, code
	}

	for idx, seg := range segs {
		if idx == len(segs)-1 && target != cur {
			// The final leg is emitted by commit; a full circle's final
			// leg must be emitted here instead, since commit skips a
			// target equal to the current position.
			break
		}
		if err := p.Motion.Line(seg.target, data); err != nil {
			return [3]float64{}, data, status.GcodeInvalidTarget
		}
	}
	return target, data, status.OK
}
