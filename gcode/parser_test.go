package gcode

import (
	"math"
	"testing"

	"grblgo/settings"
	"grblgo/status"
)

// fakeMotion records every line the parser commits, standing in for the
// planner.
type fakeMotion struct {
	lines []struct {
		target [3]float64
		data   PlanLineData
	}
}

func (f *fakeMotion) Line(target [3]float64, data PlanLineData) error {
	f.lines = append(f.lines, struct {
		target [3]float64
		data   PlanLineData
	}{target, data})
	return nil
}

func newTestParser() (*Parser, *fakeMotion) {
	motion := &fakeMotion{}
	p := NewParser(NewState(), settings.NewDocument(), motion)
	return p, motion
}

func TestLexicalErrors(t *testing.T) {
	cases := []struct {
		line string
		want status.Code
	}{
		{"1X", status.ExpectedCommandLetter},
		{"G", status.BadNumberFormat},
		{"G1 X", status.BadNumberFormat},
		{"G1 X1 X2 F100", status.GcodeWordRepeated},
		{"G1 X1 F100 F200", status.GcodeWordRepeated},
		{"G1 X1 F-100", status.NegativeValue},
		{"G4 P-1", status.NegativeValue},
		{"G0 G1 X1", status.GcodeModalGroupViolation},
		{"G90 G91 X1", status.GcodeModalGroupViolation},
		{"G38.3 X1 F100", status.GcodeCommandValueNotInteger},
		{"G2.5 X1", status.GcodeCommandValueNotInteger},
		{"M6", status.GcodeUnsupportedCommand},
	}
	for _, tc := range cases {
		p, _ := newTestParser()
		if err := p.Execute(tc.line); err != tc.want {
			t.Errorf("%q: got %v, want %v", tc.line, err, tc.want)
		}
	}
}

func TestFailingBlockLeavesStateUntouched(t *testing.T) {
	p, motion := newTestParser()
	if err := p.Execute("G1 X5 F300"); err != nil {
		t.Fatalf("setup move: %v", err)
	}
	before := *p.State

	failures := []string{
		"G0 G1 X1",        // modal group violation
		"G1 X1 X2",        // word repeated
		"G2 X10 Y0 R2",    // arc radius error
		"N99999999 G1 X1", // line number out of range
	}
	for _, line := range failures {
		if err := p.Execute(line); err == nil {
			t.Fatalf("%q: expected an error", line)
		}
		if *p.State != before {
			t.Fatalf("%q: parser state mutated by a failing block", line)
		}
	}
	if len(motion.lines) != 1 {
		t.Fatalf("failing blocks emitted motion: %d lines", len(motion.lines))
	}
}

func TestAbsoluteIncrementalRoundTrip(t *testing.T) {
	p, _ := newTestParser()
	if err := p.Execute("G90 G1 X10 F600"); err != nil {
		t.Fatalf("G90 move: %v", err)
	}
	if err := p.Execute("G91 G1 X0"); err != nil {
		t.Fatalf("G91 zero move: %v", err)
	}
	if p.State.Position[0] != 10 {
		t.Fatalf("X = %v, want 10", p.State.Position[0])
	}
}

func TestZeroLengthMoveEmitsNothing(t *testing.T) {
	p, motion := newTestParser()
	if err := p.Execute("G1 X0 Y0 F100"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if len(motion.lines) != 0 {
		t.Fatalf("zero-length move emitted %d lines", len(motion.lines))
	}
}

func TestLineNumberBoundary(t *testing.T) {
	p, _ := newTestParser()
	if err := p.Execute("N9999999 G1 X1 F100"); err != nil {
		t.Fatalf("max line number rejected: %v", err)
	}
	if err := p.Execute("N10000000 G1 X2"); err != status.GcodeInvalidLineNumber {
		t.Fatalf("got %v, want GcodeInvalidLineNumber", err)
	}
}

func TestInchUnitsScale(t *testing.T) {
	p, _ := newTestParser()
	if err := p.Execute("G20 G1 X1 F10"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if diff := math.Abs(p.State.Position[0] - 25.4); diff > 1e-9 {
		t.Fatalf("X = %v, want 25.4", p.State.Position[0])
	}
}

func TestUndefinedFeedRate(t *testing.T) {
	p, _ := newTestParser()
	if err := p.Execute("G1 X5"); err != status.GcodeUndefinedFeedRate {
		t.Fatalf("got %v, want GcodeUndefinedFeedRate", err)
	}
}

func TestInverseTimeRequiresFreshF(t *testing.T) {
	p, _ := newTestParser()
	if err := p.Execute("G93 G1 X5 F2"); err != nil {
		t.Fatalf("first inverse-time move: %v", err)
	}
	if err := p.Execute("G1 X10"); err != status.GcodeUndefinedFeedRate {
		t.Fatalf("got %v, want GcodeUndefinedFeedRate on F-less G93 block", err)
	}
}

func TestUnusedWordsRejected(t *testing.T) {
	p, _ := newTestParser()
	if err := p.Execute("G1 X1 R5 F100"); err != status.GcodeUnusedWords {
		t.Fatalf("R on a linear move: got %v, want GcodeUnusedWords", err)
	}
	if err := p.Execute("G0 X1 P2"); err != status.GcodeUnusedWords {
		t.Fatalf("P on a rapid: got %v, want GcodeUnusedWords", err)
	}
}

func TestG53RequiresG0OrG1(t *testing.T) {
	p, _ := newTestParser()
	if err := p.Execute("G53 G2 X5 Y0 I2.5 J0 F100"); err != status.GcodeG53InvalidMotionMode {
		t.Fatalf("got %v, want GcodeG53InvalidMotionMode", err)
	}
}

func TestG53SuppressesOffsetsForOneBlock(t *testing.T) {
	p, _ := newTestParser()
	p.State.CoordSystem[0] = [3]float64{5, 0, 0} // G54 offset, as cached from NV
	if err := p.Execute("G90 G1 X0 F100"); err != nil {
		t.Fatalf("offset move: %v", err)
	}
	if p.State.Position[0] != 5 {
		t.Fatalf("work X0 should land at machine 5, got %v", p.State.Position[0])
	}
	if err := p.Execute("G53 G1 X0"); err != nil {
		t.Fatalf("G53 move: %v", err)
	}
	if p.State.Position[0] != 0 {
		t.Fatalf("G53 X0 should land at machine 0, got %v", p.State.Position[0])
	}
	// Offset application resumes on the next block.
	if err := p.Execute("G1 X0"); err != nil {
		t.Fatalf("post-G53 move: %v", err)
	}
	if p.State.Position[0] != 5 {
		t.Fatalf("offsets should apply again after G53, got %v", p.State.Position[0])
	}
}

func TestCoordDataRoundTrip(t *testing.T) {
	p, _ := newTestParser()
	if err := p.Execute("G10 L2 P2 X1 Y2 Z3"); err != nil {
		t.Fatalf("G10: %v", err)
	}
	if err := p.Execute("G55"); err != nil {
		t.Fatalf("G55: %v", err)
	}
	wco := p.State.WorkCoordinateOffset()
	if wco != [3]float64{1, 2, 3} {
		t.Fatalf("WCO = %v, want {1 2 3}", wco)
	}
}

func TestG10RejectsRUnderL2(t *testing.T) {
	p, _ := newTestParser()
	if err := p.Execute("G10 L2 P1 X1 R5"); err != status.GcodeUnsupportedCommand {
		t.Fatalf("got %v, want GcodeUnsupportedCommand", err)
	}
	if err := p.Execute("G10 L3 P1 X1"); err != status.GcodeUnsupportedCommand {
		t.Fatalf("L3: got %v, want GcodeUnsupportedCommand", err)
	}
	if err := p.Execute("G10 L2 P7 X1"); err != status.GcodeUnsupportedCoordSys {
		t.Fatalf("P7: got %v, want GcodeUnsupportedCoordSys", err)
	}
}

func TestG92OffsetShiftsWork(t *testing.T) {
	p, _ := newTestParser()
	if err := p.Execute("G1 X5 F100"); err != nil {
		t.Fatalf("move: %v", err)
	}
	if err := p.Execute("G92 X0"); err != nil {
		t.Fatalf("G92: %v", err)
	}
	if err := p.Execute("G90 G1 X0"); err != nil {
		t.Fatalf("post-G92 move: %v", err)
	}
	if p.State.Position[0] != 5 {
		t.Fatalf("work X0 after G92 should stay at machine 5, got %v", p.State.Position[0])
	}
	if err := p.Execute("G92.1"); err != nil {
		t.Fatalf("G92.1: %v", err)
	}
	if p.State.CoordOffset != [3]float64{} {
		t.Fatalf("G92.1 should clear the offset, got %v", p.State.CoordOffset)
	}
}

func TestArcRadiusForm(t *testing.T) {
	p, motion := newTestParser()
	if err := p.Execute("G2 X10 Y0 R5 F100"); err != nil {
		t.Fatalf("radius-form arc: %v", err)
	}
	if p.State.Position[0] != 10 || p.State.Position[1] != 0 {
		t.Fatalf("arc ended at %v", p.State.Position)
	}
	if len(motion.lines) < 2 {
		t.Fatalf("half circle interpolated into %d segments", len(motion.lines))
	}
}

func TestArcRadiusTooSmall(t *testing.T) {
	p, _ := newTestParser()
	if err := p.Execute("G2 X10 Y0 R2 F100"); err != status.GcodeArcRadiusError {
		t.Fatalf("got %v, want GcodeArcRadiusError", err)
	}
}

func TestArcOffsetFormMismatch(t *testing.T) {
	p, _ := newTestParser()
	if err := p.Execute("G2 X10 Y0 I1 J0 F100"); err != status.GcodeInvalidTarget {
		t.Fatalf("got %v, want GcodeInvalidTarget", err)
	}
}

func TestArcChordErrorWithinTolerance(t *testing.T) {
	p, motion := newTestParser()
	if err := p.Execute("G2 X10 Y0 I5 J0 F100"); err != nil {
		t.Fatalf("half circle: %v", err)
	}
	// Every interpolated point must lie within arc tolerance of the true
	// radius around (5, 0).
	tol := p.Doc.Settings.ArcToleranceMM
	for _, l := range motion.lines {
		r := math.Hypot(l.target[0]-5, l.target[1])
		if math.Abs(r-5) > tol+1e-9 {
			t.Fatalf("segment at %v is %.5f off the arc", l.target, math.Abs(r-5))
		}
	}
}

func TestFullCircleViaOffsets(t *testing.T) {
	p, motion := newTestParser()
	if err := p.Execute("G2 X0 Y0 I5 J0 F100"); err != nil {
		t.Fatalf("full circle: %v", err)
	}
	if len(motion.lines) < 8 {
		t.Fatalf("full circle interpolated into only %d segments", len(motion.lines))
	}
	last := motion.lines[len(motion.lines)-1].target
	if last != [3]float64{} {
		t.Fatalf("full circle must close at the start point, ended at %v", last)
	}
	// The interpolation must actually leave the start point: a full
	// circle is not a zero-length move.
	mid := motion.lines[len(motion.lines)/2].target
	if math.Hypot(mid[0], mid[1]) < 1 {
		t.Fatalf("midpoint %v never left the origin neighbourhood", mid)
	}
}

func TestJogAdmission(t *testing.T) {
	p, motion := newTestParser()
	if err := p.ExecuteJog("G91 X5 F1000"); err != nil {
		t.Fatalf("jog: %v", err)
	}
	if p.State.Position[0] != 5 {
		t.Fatalf("jog should advance the position shadow, got %v", p.State.Position[0])
	}
	if len(motion.lines) != 1 {
		t.Fatalf("jog emitted %d lines", len(motion.lines))
	}
	// Jog bypasses modal-state update: the G91 above must not stick.
	if p.State.Modal.Distance != 900 {
		t.Fatalf("jog leaked distance mode %d into modal state", p.State.Modal.Distance)
	}
}

func TestJogRejections(t *testing.T) {
	cases := []string{
		"G91 X5",             // no feed rate
		"G91 F1000",          // no axis words
		"G2 X5 I2 J0 F1000",  // arc motion not admitted
		"G10 L2 P1 X1 F1000", // non-modal action not admitted
	}
	for _, line := range cases {
		p, _ := newTestParser()
		if err := p.ExecuteJog(line); err != status.InvalidJogCommand {
			t.Errorf("%q: got %v, want InvalidJogCommand", line, err)
		}
	}
}

func TestProgramEndResetsModals(t *testing.T) {
	p, _ := newTestParser()
	ended := false
	p.OnProgramEnd = func() { ended = true }
	if err := p.Execute("G91 G20 G1 X1 F10"); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := p.Execute("M2"); err != nil {
		t.Fatalf("M2: %v", err)
	}
	if !ended {
		t.Fatal("OnProgramEnd never fired")
	}
	if p.State.Modal != DefaultModal() {
		t.Fatalf("M2 left modal state %+v", p.State.Modal)
	}
}

func TestSpindleCallback(t *testing.T) {
	p, _ := newTestParser()
	var gotMode int
	var gotRPM float64
	p.OnSpindle = func(mode int, rpm float64) { gotMode, gotRPM = mode, rpm }

	if err := p.Execute("M3 S700"); err != nil {
		t.Fatalf("M3: %v", err)
	}
	if gotMode != 30 || gotRPM != 700 {
		t.Fatalf("spindle callback got mode=%d rpm=%v", gotMode, gotRPM)
	}
	if err := p.Execute("M5"); err != nil {
		t.Fatalf("M5: %v", err)
	}
	if gotMode != 50 {
		t.Fatalf("M5 callback got mode=%d", gotMode)
	}
}

func TestG80RejectsAxisWords(t *testing.T) {
	p, _ := newTestParser()
	if err := p.Execute("G80 X1"); err != status.GcodeAxisWordsExist {
		t.Fatalf("got %v, want GcodeAxisWordsExist", err)
	}
}

func TestCommentsAndWhitespaceIgnored(t *testing.T) {
	p, _ := newTestParser()
	if err := p.Execute("  g1 (move right) x5 f100 ; trailing"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if p.State.Position[0] != 5 {
		t.Fatalf("X = %v, want 5", p.State.Position[0])
	}
}
