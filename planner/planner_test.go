package planner

import (
	"testing"

	"grblgo/gcode"
	"grblgo/settings"
)

func testSettings() *settings.Table {
	st := settings.Default()
	return &st
}

func TestLineEnqueuesBlock(t *testing.T) {
	pl := New(testSettings())
	err := pl.Line([3]float64{10, 0, 0}, gcode.PlanLineData{FeedRateMMPerMin: 200})
	if err != nil {
		t.Fatalf("Line: %v", err)
	}
	if pl.Ring.Empty() {
		t.Fatal("expected one block enqueued")
	}
	b := pl.Ring.TailBlock()
	if b.Steps[0] == 0 {
		t.Fatal("expected nonzero X steps")
	}
	if b.EntrySpeedSqr <= 0 {
		t.Fatal("entry speed must be strictly positive")
	}
}

func TestLineZeroLengthMoveIsNotEnqueued(t *testing.T) {
	pl := New(testSettings())
	if err := pl.Line([3]float64{0, 0, 0}, gcode.PlanLineData{FeedRateMMPerMin: 200}); err != nil {
		t.Fatalf("Line: %v", err)
	}
	if !pl.Ring.Empty() {
		t.Fatal("zero-length move must not enqueue a block")
	}
}

func TestJunctionSpeedCollinearIsUnconstrained(t *testing.T) {
	pl := New(testSettings())
	if err := pl.Line([3]float64{10, 0, 0}, gcode.PlanLineData{FeedRateMMPerMin: 200}); err != nil {
		t.Fatal(err)
	}
	if err := pl.Line([3]float64{20, 0, 0}, gcode.PlanLineData{FeedRateMMPerMin: 200}); err != nil {
		t.Fatal(err)
	}
	// walk to the second (newest) block
	idx := prevIndex(pl.Ring.head)
	second := &pl.Ring.blocks[idx]
	if second.MaxJunctionSpeedSqr < junctionSpeedSentinel/2 {
		t.Fatalf("collinear junction should be unconstrained, got %v", second.MaxJunctionSpeedSqr)
	}
}

func TestJunctionSpeedReversalIsZero(t *testing.T) {
	pl := New(testSettings())
	if err := pl.Line([3]float64{10, 0, 0}, gcode.PlanLineData{FeedRateMMPerMin: 200}); err != nil {
		t.Fatal(err)
	}
	if err := pl.Line([3]float64{0, 0, 0}, gcode.PlanLineData{FeedRateMMPerMin: 200}); err != nil {
		t.Fatal(err)
	}
	idx := prevIndex(pl.Ring.head)
	second := &pl.Ring.blocks[idx]
	if second.MaxJunctionSpeedSqr > minPlannerSpeedSqr {
		t.Fatalf("full reversal should collapse the junction speed near zero, got %v", second.MaxJunctionSpeedSqr)
	}
}

func TestLineWaitsWhenRingFull(t *testing.T) {
	pl := New(testSettings())
	for i := 1; i <= ringCapacity-1; i++ {
		if err := pl.Line([3]float64{float64(i), 0, 0}, gcode.PlanLineData{FeedRateMMPerMin: 200}); err != nil {
			t.Fatalf("Line %d: %v", i, err)
		}
	}
	if !pl.Ring.Full() {
		t.Fatal("expected ring to be full after filling capacity")
	}

	drained := false
	pl.WaitForSpace = func() bool {
		if drained {
			return false
		}
		pl.Ring.Advance()
		drained = true
		return true
	}
	if err := pl.Line([3]float64{999, 0, 0}, gcode.PlanLineData{FeedRateMMPerMin: 200}); err != nil {
		t.Fatalf("Line after drain: %v", err)
	}
	if !drained {
		t.Fatal("expected WaitForSpace to be invoked")
	}
}

func TestLineAbortsWhenWaitForSpaceDeclines(t *testing.T) {
	pl := New(testSettings())
	for i := 1; i <= ringCapacity-1; i++ {
		if err := pl.Line([3]float64{float64(i), 0, 0}, gcode.PlanLineData{FeedRateMMPerMin: 200}); err != nil {
			t.Fatalf("Line %d: %v", i, err)
		}
	}
	pl.WaitForSpace = func() bool { return false }
	if err := pl.Line([3]float64{999, 0, 0}, gcode.PlanLineData{FeedRateMMPerMin: 200}); err != ErrDrainAborted {
		t.Fatalf("expected ErrDrainAborted, got %v", err)
	}
}
