package gcode

import (
	"math"
	"strconv"

	"grblgo/settings"
	"grblgo/status"
)

// MaxLineNumber caps the N word, matching grbl's MAX_LINE_NUMBER.
const MaxLineNumber = 9999999

// Parser runs the four-phase pipeline of against a shared
// *State. It never mutates State on a failing block: all work happens
// on a scratch Block, committed only once every validation has passed.
type Parser struct {
	State  *State
	Doc    *settings.Document
	Motion Motion

	// Sync is invoked before any command that must not race the stepper's
	// concurrent EEPROM-adjacent read (G10, G54-59, G92, buffer-sync for
	// M2/M30) - the parser issues a buffer-synchronise before any NV
	// write. Left nil in tests that don't care.
	Sync func()

	// Dwell is invoked for G4 P<seconds>. Left nil to no-op in tests.
	Dwell func(seconds float64)

	// OnProgramPause fires on M0/M1: raise the feed-hold flag and run
	// the realtime protocol until resumed - a machine.Machine concern,
	// wired here as a callback.
	OnProgramPause func()

	// OnProgramEnd fires on M2/M30, after State has already been reset to
	// default modals: buffer-sync and override-restore are machine.Machine
	// concerns, wired here as a callback.
	OnProgramEnd func()

	// OnSpindle fires whenever a committed block changed the spindle
	// modal (M3/M4/M5) or the programmed S value, with the new modal
	// state and RPM. The machine forwards this to whatever spindle
	// output the board wired (PWM, laser, or nothing).
	OnSpindle func(mode int, rpm float64)
}

// NewParser builds a parser sharing state, settings, and a motion sink.
func NewParser(state *State, doc *settings.Document, motion Motion) *Parser {
	return &Parser{State: state, Doc: doc, Motion: motion}
}

// Execute runs one non-jog block of G-code text through all four phases.
func (p *Parser) Execute(line string) error {
	return p.execute(line, false)
}

// ExecuteJog runs a `$J=` line, admitted only under a constrained modal
// set: distance and units groups plus G53, no other command words. Jog
// blocks
// bypass modal-state update; only the position shadow advances.
func (p *Parser) ExecuteJog(line string) error {
	return p.execute(line, true)
}

func (p *Parser) execute(line string, isJog bool) error {
	// Phase 1: block initialisation.
	block := newBlock(p.State.Modal)
	block.IsJog = isJog

	// Phase 2: word ingest.
	if err := p.ingest(line, block); err != nil {
		return err
	}

	// Phase 3: validation & pre-computation, Phase 4: commit. Both run
	// against the scratch block; a failure here leaves p.State untouched.
	target, data, code := p.validateAndResolve(block)
	if code != status.OK {
		return code
	}

	return p.commit(block, target, data)
}

type parsedWord struct {
	letter byte
	value  float64
}

func (p *Parser) ingest(line string, block *Block) error {
	i := 0
	n := len(line)
	for i < n {
		c := line[i]
		if c == ' ' || c == '\t' {
			i++
			continue
		}
		if c == ';' {
			break
		}
		if c == '(' {
			for i < n && line[i] != ')' {
				i++
			}
			if i < n {
				i++
			}
			continue
		}
		c = upper(c)
		if c < 'A' || c > 'Z' {
			return status.ExpectedCommandLetter
		}
		i++

		val, next, ok := scanFloat(line, i)
		if !ok {
			return status.BadNumberFormat
		}
		i = next

		if err := p.ingestWord(c, val, block); err != nil {
			return err
		}
	}
	return nil
}

func (p *Parser) ingestWord(letter byte, value float64, block *Block) error {
	switch letter {
	case 'G', 'M':
		return p.ingestCommand(letter, value, block)
	case 'F':
		if value < 0 {
			return status.NegativeValue
		}
		if block.hasWord(WordF) {
			return status.GcodeWordRepeated
		}
		block.setWord(WordF)
		block.Values.F = value
	case 'N':
		if value < 0 {
			return status.NegativeValue
		}
		if block.hasWord(WordN) {
			return status.GcodeWordRepeated
		}
		block.setWord(WordN)
		block.Values.N = int32(value)
	case 'P':
		if value < 0 {
			return status.NegativeValue
		}
		if block.hasWord(WordP) {
			return status.GcodeWordRepeated
		}
		block.setWord(WordP)
		block.Values.P = value
	case 'S':
		if value < 0 {
			return status.NegativeValue
		}
		if block.hasS {
			return status.GcodeWordRepeated
		}
		block.hasS = true
		block.Values.S = value
	case 'L':
		if block.hasWord(WordL) {
			return status.GcodeWordRepeated
		}
		block.setWord(WordL)
		block.Values.L = value
	case 'R':
		if block.hasWord(WordR) {
			return status.GcodeWordRepeated
		}
		block.setWord(WordR)
		block.Values.R = value
	case 'I', 'J', 'K':
		axis := int(letter - 'I')
		if block.hasIJK(axis) {
			return status.GcodeWordRepeated
		}
		block.setIJK(axis)
		block.Values.IJK[axis] = value
	case 'X', 'Y', 'Z':
		axis := int(letter - 'X')
		if block.hasAxisWord(axis) {
			return status.GcodeWordRepeated
		}
		block.setAxisWord(axis)
		block.Values.XYZ[axis] = value
	case 'T':
		// Tool number: accepted and carried, tool changers are not supported.
	default:
		return status.GcodeUnsupportedCommand
	}
	return nil
}

var nonIntegerWhitelist = map[[2]int]bool{
	{38, 2}: true,
	{92, 1}: true,
	{90, 1}: true,
	{91, 1}: true,
	{61, 1}: true,
	{59, 1}: true,
	{59, 2}: true,
	{59, 3}: true,
}

func (p *Parser) ingestCommand(letter byte, value float64, block *Block) error {
	intVal := int(math.Trunc(value + 1e-9))
	tenths := int(math.Round((value-float64(intVal))*10)) % 10
	if tenths != 0 && !nonIntegerWhitelist[[2]int{intVal, tenths}] {
		return status.GcodeCommandValueNotInteger
	}

	cmd := Command{Letter: letter, Int: intVal, Tenths: tenths}
	code := intVal*10 + tenths

	group, apply, err := classify(letter, cmd)
	if err != status.OK {
		return err
	}
	if !block.markGroup(group) {
		return status.GcodeModalGroupViolation
	}
	apply(block, code)
	return nil
}

// classify maps a G/M command to its modal group and the mutation it makes
// to the scratch block, following the modal-group table of NIST
// RS274-NGC §3.4.
func classify(letter byte, cmd Command) (ModalGroup, func(*Block, int), status.Code) {
	code := cmd.Int*10 + cmd.Tenths
	if letter == 'M' {
		switch cmd.Int {
		case 0, 1, 2, 30:
			return ModalGroupProgramFlow, func(b *Block, c int) { b.Modal.ProgramFlow = c }, status.OK
		case 3, 4, 5:
			return ModalGroupSpindle, func(b *Block, c int) { b.Modal.Spindle = c }, status.OK
		case 7, 8, 9:
			return ModalGroupCoolant, func(b *Block, c int) { b.Modal.Coolant = c }, status.OK
		default:
			return 0, nil, status.GcodeUnsupportedCommand
		}
	}

	switch {
	case cmd.Int == 4 || cmd.Int == 10 || cmd.Int == 28 || cmd.Int == 30 || cmd.Int == 53 || cmd.Int == 92:
		nm := map[int]NonModal{
			40:  NonModalDwell,
			100: NonModalSetCoordData,
			280: NonModalGoHome0,
			300: NonModalGoHome1,
			530: NonModalAbsoluteOverride,
			920: NonModalSetCoordOffset,
			921: NonModalResetCoordOffset,
		}[code]
		if nm == NonModalNone {
			return 0, nil, status.GcodeUnsupportedCommand
		}
		return ModalGroupNonModal, func(b *Block, c int) { b.NonModal = nm }, status.OK
	case cmd.Int == 0 || cmd.Int == 1 || cmd.Int == 2 || cmd.Int == 3 || cmd.Int == 38 || cmd.Int == 80:
		if cmd.Int == 38 && cmd.Tenths != 2 {
			return 0, nil, status.GcodeUnsupportedCommand
		}
		return ModalGroupMotion, func(b *Block, c int) { b.Modal.Motion = c }, status.OK
	case cmd.Int == 17 || cmd.Int == 18 || cmd.Int == 19:
		return ModalGroupPlane, func(b *Block, c int) { b.Modal.Plane = c }, status.OK
	case cmd.Int == 90 && cmd.Tenths == 0:
		return ModalGroupDistance, func(b *Block, c int) { b.Modal.Distance = c }, status.OK
	case cmd.Int == 91 && cmd.Tenths == 0:
		return ModalGroupDistance, func(b *Block, c int) { b.Modal.Distance = c }, status.OK
	case (cmd.Int == 90 || cmd.Int == 91) && cmd.Tenths == 1:
		return 0, nil, status.GcodeUnsupportedCommand // G90.1/G91.1 arc-distance override: unsupported.
	case cmd.Int == 93 || cmd.Int == 94:
		return ModalGroupFeedRateMode, func(b *Block, c int) { b.Modal.FeedRateMode = c }, status.OK
	case cmd.Int == 20 || cmd.Int == 21:
		return ModalGroupUnits, func(b *Block, c int) { b.Modal.Units = c }, status.OK
	case cmd.Int == 40:
		return ModalGroupCutterComp, func(b *Block, c int) { b.Modal.CutterComp = c }, status.OK
	case cmd.Int == 43 || cmd.Int == 49:
		return ModalGroupToolLength, func(b *Block, c int) { b.Modal.ToolLength = c }, status.OK
	case cmd.Int >= 54 && cmd.Int <= 59 && cmd.Tenths == 0:
		return ModalGroupCoordSystem, func(b *Block, c int) { b.Modal.CoordSystem = c }, status.OK
	case cmd.Int == 61:
		return ModalGroupNonModal, func(b *Block, c int) {}, status.OK // exact-stop mode: accepted, no-op.
	}
	return 0, nil, status.GcodeUnsupportedCommand
}

// scanFloat parses a signed decimal number starting at s[i], returning the
// value and the index just past it.
func scanFloat(s string, i int) (float64, int, bool) {
	start := i
	n := len(s)
	if i < n && (s[i] == '+' || s[i] == '-') {
		i++
	}
	digitsStart := i
	for i < n && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i < n && s[i] == '.' {
		i++
		for i < n && s[i] >= '0' && s[i] <= '9' {
			i++
		}
	}
	if i == digitsStart || (i == digitsStart+1 && s[digitsStart] == '.') {
		return 0, start, false
	}
	v, err := strconv.ParseFloat(s[start:i], 64)
	if err != nil {
		return 0, start, false
	}
	return v, i, true
}

func upper(c byte) byte {
	if c >= 'a' && c <= 'z' {
		return c - ('a' - 'A')
	}
	return c
}
