package gcode

// Motion, distance, units, and the other modal selections a block can make.
// Each field holds the currently active member of its modal group,
// expressed as the integer*10+tenths encoding described in words.go.
type Modal struct {
	Motion       int // 0,10,20,30,382,800 (G0,G1,G2,G3,G38.2,G80)
	Plane        int // 170,180,190
	Distance     int // 900,910
	ArcDistance  int // 911 (G91.1 incremental IJK, default)
	FeedRateMode int // 930,940 (inverse-time, units-per-minute)
	Units        int // 200,210 (inches, mm)
	CutterComp   int // 400 (off, only supported value)
	ToolLength   int // 490 (off) or 431 (G43.1, dynamic, carried but unused)
	CoordSystem  int // 540..590 selects WCS 1..6 (G54..G59)
	ProgramFlow  int // 0 (none or M0), 10/20/300 for M1/M2/M30
	Spindle      int // 30,40,50 (M3,M4,M5) - carried, not actuated
	Coolant      int // 70,80,90 (M7,M8,M9) - carried, not actuated
}

// DefaultModal is the modal set restored on boot and by M2/M30:
// G1 G90 G94 G54 G17 G21 G91.1 G40 G49 M5 M9.
func DefaultModal() Modal {
	return Modal{
		Motion:       10,
		Plane:        170,
		Distance:     900,
		ArcDistance:  911,
		FeedRateMode: 940,
		Units:        210,
		CutterComp:   400,
		ToolLength:   490,
		CoordSystem:  540,
		ProgramFlow:  0,
		Spindle:      50,
		Coolant:      90,
	}
}

// NonModal selects the non-modal action (at most one per block) applying
// only to the block in which it appears.
type NonModal int

const (
	NonModalNone             NonModal = iota
	NonModalDwell                     // G4
	NonModalSetCoordData              // G10
	NonModalGoHome0                   // G28
	NonModalGoHome1                   // G30
	NonModalAbsoluteOverride          // G53
	NonModalSetCoordOffset            // G92
	NonModalResetCoordOffset          // G92.1
)

// State is the parser's process-lifetime state (parser_state_t): modal
// groups, the active feed rate, work coordinate offsets, the G92 offset,
// and the authoritative mm position. It is reconciled with the stepper's
// sys_position on abort and on homing by the owning machine.
type State struct {
	Modal Modal

	FeedRate   float64 // mm/min, active F word
	SpindleRPM float64 // S word, carried but not actuated
	LineNumber int32

	Position [3]float64 // gc_state.position, machine mm, absolute

	CoordSystem [6][3]float64 // work coordinate offsets for G54..G59
	CoordOffset [3]float64    // G92 offset

	ToolLengthOffset float64
}

// NewState returns a freshly reset parser state, as produced by startup and
// by M2/M30 program-flow termination.
func NewState() *State {
	return &State{Modal: DefaultModal()}
}

// WorkCoordinateOffset returns the current WCO: the sum of the active
// coordinate system's offset and the G92 offset, used both to resolve
// absolute-mode targets and to report work position.
func (s *State) WorkCoordinateOffset() [3]float64 {
	idx := (s.Modal.CoordSystem - 540) / 10
	if idx < 0 || idx > 5 {
		idx = 0
	}
	var wco [3]float64
	for i := 0; i < 3; i++ {
		wco[i] = s.CoordSystem[idx][i] + s.CoordOffset[i]
	}
	return wco
}

// Reset restores default modal state and zeroes the G92 offset,
// preserving the machine position and coordinate system table. Used on
// M2/M30 and on abort/reset.
func (s *State) Reset() {
	s.Modal = DefaultModal()
	s.CoordOffset = [3]float64{}
	s.FeedRate = 0
	s.SpindleRPM = 0
}
