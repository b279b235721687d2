package stepper

import (
	"testing"

	"grblgo/core"
	"grblgo/gcode"
	"grblgo/planner"
	"grblgo/settings"
)

type fakeGPIO struct {
	pins map[core.GPIOPin]bool
}

func newFakeGPIO() *fakeGPIO { return &fakeGPIO{pins: map[core.GPIOPin]bool{}} }

func (f *fakeGPIO) ConfigureOutput(core.GPIOPin) error        { return nil }
func (f *fakeGPIO) ConfigureInputPullUp(core.GPIOPin) error   { return nil }
func (f *fakeGPIO) ConfigureInputPullDown(core.GPIOPin) error { return nil }
func (f *fakeGPIO) SetPin(pin core.GPIOPin, v bool) error     { f.pins[pin] = v; return nil }
func (f *fakeGPIO) GetPin(pin core.GPIOPin) (bool, error)     { return f.pins[pin], nil }
func (f *fakeGPIO) ReadPin(pin core.GPIOPin) bool             { return f.pins[pin] }

func testSettings() *settings.Table {
	st := settings.Default()
	return &st
}

func TestSegmentRingPushFrontPop(t *testing.T) {
	var r SegmentRing
	if !r.Empty() {
		t.Fatal("new ring should be empty")
	}
	ok := r.Push(Segment{NTick: 4, CyclesPerTick: 100}, StepperBlock{StepEventCount: 10})
	if !ok {
		t.Fatal("push into empty ring should succeed")
	}
	seg, blk, ok := r.Front()
	if !ok || seg.NTick != 4 || blk.StepEventCount != 10 {
		t.Fatalf("unexpected front: seg=%+v blk=%+v ok=%v", seg, blk, ok)
	}
	r.Pop()
	if !r.Empty() {
		t.Fatal("ring should be empty after popping its only segment")
	}
}

func TestSegmentRingFull(t *testing.T) {
	var r SegmentRing
	for i := 0; i < segmentRingCapacity-1; i++ {
		if !r.Push(Segment{NTick: 1}, StepperBlock{}) {
			t.Fatalf("push %d should have succeeded", i)
		}
	}
	if !r.Full() {
		t.Fatal("expected ring to report full")
	}
	if r.Push(Segment{NTick: 1}, StepperBlock{}) {
		t.Fatal("push into a full ring should fail")
	}
}

func TestPrepFillsSegmentsForQueuedMove(t *testing.T) {
	st := testSettings()
	pl := planner.New(st)
	if err := pl.Line([3]float64{50, 0, 0}, gcode.PlanLineData{FeedRateMMPerMin: 300}); err != nil {
		t.Fatalf("Line: %v", err)
	}

	var segs SegmentRing
	prep := NewPrep(&pl.Ring, &segs, st)
	prep.Fill()

	if segs.Empty() {
		t.Fatal("expected prep to have produced at least one segment")
	}
	_, blk, ok := segs.Front()
	if !ok {
		t.Fatal("expected a front segment")
	}
	if blk.Steps[0] == 0 {
		t.Fatal("expected nonzero X steps in the stepper block mirror")
	}
}

func TestISRDrainsSegmentsAndAdvancesPosition(t *testing.T) {
	gpio := newFakeGPIO()
	core.SetGPIODriver(gpio)

	st := testSettings()
	pl := planner.New(st)
	if err := pl.Line([3]float64{1, 0, 0}, gcode.PlanLineData{FeedRateMMPerMin: 300}); err != nil {
		t.Fatalf("Line: %v", err)
	}

	var segs SegmentRing
	prep := NewPrep(&pl.Ring, &segs, st)
	prep.Fill()

	isr := NewISR(&segs, st, [3]core.GPIOPin{0, 1, 2}, [3]core.GPIOPin{3, 4, 5})

	core.SetTime(0)
	isr.Start()
	// Starting from rest at the default 10 mm/s^2, the queued segments take
	// roughly 700k timer ticks (12 MHz) to drain; allow ample headroom.
	for i := 0; i < 2_000_000 && isr.Running(); i++ {
		core.SetTime(core.GetTime() + 1)
		core.ProcessTimers()
	}
	if isr.Running() {
		t.Fatal("expected ISR to halt once the segment ring drained")
	}
	if isr.SysPosition[0] == 0 {
		t.Fatal("expected the X axis to have advanced at least one step")
	}
}
