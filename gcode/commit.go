package gcode

// commit is Phase 4: update modal state, then enact the block in NIST
// order-of-execution. By this point validateAndResolve has
// already succeeded, so commit itself cannot fail on anything but the
// motion sink.
func (p *Parser) commit(block *Block, target [3]float64, data PlanLineData) error {
	hasProgramFlow := block.groupSeen&modalGroupBit(ModalGroupProgramFlow) != 0

	if block.IsJog {
		// Jog blocks bypass modal-state update entirely; only the position
		// shadow advances on a successful admission.
		if target != p.State.Position {
			if err := p.Motion.Line(target, data); err != nil {
				return err
			}
		}
		p.State.Position = target
		return nil
	}

	if block.groupSeen&modalGroupBit(ModalGroupCoordSystem) != 0 && p.Sync != nil {
		p.Sync()
	}
	p.State.Modal = block.Modal
	p.State.FeedRate = block.feedRate
	if block.hasS {
		p.State.SpindleRPM = block.Values.S
	}
	if p.OnSpindle != nil && (block.hasS || block.groupSeen&modalGroupBit(ModalGroupSpindle) != 0) {
		p.OnSpindle(p.State.Modal.Spindle, p.State.SpindleRPM)
	}

	motionActs := block.NonModal == NonModalNone ||
		block.NonModal == NonModalAbsoluteOverride ||
		block.NonModal == NonModalGoHome0 ||
		block.NonModal == NonModalGoHome1

	if motionActs && target != p.State.Position {
		if err := p.Motion.Line(target, data); err != nil {
			return err
		}
	}
	p.State.Position = target

	if hasProgramFlow {
		switch block.Modal.ProgramFlow {
		case 0, 10: // M0 pause, M1 optional stop
			if p.OnProgramPause != nil {
				p.OnProgramPause()
			}
		case 20, 300: // M2, M30
			p.State.Reset()
			if p.OnSpindle != nil {
				p.OnSpindle(p.State.Modal.Spindle, p.State.SpindleRPM)
			}
			if p.OnProgramEnd != nil {
				p.OnProgramEnd()
			}
		}
		p.State.Modal.ProgramFlow = 0
	}

	return nil
}
