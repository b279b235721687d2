package machine

import (
	"testing"

	"grblgo/core"
	"grblgo/settings"
	"grblgo/status"
)

// fakeGPIO is the same stub pattern stepper/stepper_test.go uses: a plain
// map-backed core.GPIODriver good enough to drive the ISR and poll a
// synthetic limit switch.
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

// newTestMachine wires a Machine around a fake GPIO driver, with a coarse
// steps/mm so the simulated timeline below needs only a modest number of
// ISR ticks to traverse the small moves these tests issue.
func newTestMachine(t *testing.T) *Machine {
	t.Helper()
	core.SetGPIODriver(newFakeGPIO())
	core.SetTime(0)
	doc := settings.NewDocument()
	doc.Settings.StepsPerMM = [3]float64{10, 10, 10}
	m := New(doc, [3]core.GPIOPin{0, 1, 2}, [3]core.GPIOPin{3, 4, 5})
	m.Yield = func() {
		core.SetTime(core.GetTime() + simJump)
		core.ProcessTimers()
	}
	return m
}

// simJump is the per-iteration simulated-clock advance used below. Timer
// wake times run at core.TimerFreq (12MHz); a few thousand jumps of this
// size comfortably cover the handful of ISR ticks the small test moves
// need without approaching uint32 wraparound.
const simJump = 4000

// pump advances the fake clock by n*simJump, servicing the machine once
// per jump - the same core.SetTime/core.ProcessTimers loop
// stepper/stepper_test.go drives the ISR with.
func pump(m *Machine, n int) {
	for i := 0; i < n; i++ {
		m.Service()
		core.SetTime(core.GetTime() + simJump)
		core.ProcessTimers()
	}
}

// runToIdle pumps until the cycle returns to Idle with both rings empty,
// or fails the test once maxIterations is exhausted.
func runToIdle(t *testing.T, m *Machine, maxIterations int) {
	t.Helper()
	for i := 0; i < maxIterations; i++ {
		m.Service()
		core.SetTime(core.GetTime() + simJump)
		core.ProcessTimers()
		if m.RunState() == StateIdle && m.Planner.Ring.Empty() && m.Segments.Empty() {
			return
		}
	}
	t.Fatalf("machine never returned to Idle (state=%v)", m.RunState())
}

func TestPlainMoveReachesTarget(t *testing.T) {
	m := newTestMachine(t)
	if err := m.Execute("G1 X10 F300"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if m.RunState() != StateCycle {
		t.Fatalf("expected Cycle after admitting a move, got %v", m.RunState())
	}
	runToIdle(t, m, 200_000)

	pos := m.reportedPosition()
	if diff := pos[0] - 10; diff > 0.11 || diff < -0.11 {
		t.Fatalf("X = %.4f, want ~10", pos[0])
	}
}

func TestBackToBackCollinearMoves(t *testing.T) {
	m := newTestMachine(t)
	if err := m.Execute("G1 X5 F300"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if err := m.Execute("G1 X10 F300"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	runToIdle(t, m, 200_000)

	pos := m.reportedPosition()
	if diff := pos[0] - 10; diff > 0.11 || diff < -0.11 {
		t.Fatalf("X = %.4f, want ~10", pos[0])
	}
}

func TestHalfCircleArc(t *testing.T) {
	m := newTestMachine(t)
	if err := m.Execute("G2 X20 Y0 I10 J0 F300"); err != nil {
		t.Fatalf("Execute arc: %v", err)
	}
	runToIdle(t, m, 200_000)

	pos := m.reportedPosition()
	if diff := pos[0] - 20; diff > 0.15 || diff < -0.15 {
		t.Fatalf("X = %.4f, want ~20", pos[0])
	}
	if diff := pos[1]; diff > 0.15 || diff < -0.15 {
		t.Fatalf("Y = %.4f, want ~0", pos[1])
	}
}

func TestFeedHoldThenCycleStartResumes(t *testing.T) {
	m := newTestMachine(t)
	if err := m.Execute("G1 X10 F60"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	pump(m, 5) // let the cycle get underway before holding

	m.ExecState.Set(ExecFeedHold)
	m.Service()
	if m.RunState() != StateHold {
		t.Fatalf("expected Hold after a feed hold request, got %v", m.RunState())
	}

	m.ExecState.Set(ExecCycleStart)
	m.Service()
	if m.RunState() != StateCycle {
		t.Fatalf("expected Cycle after cycle-start, got %v", m.RunState())
	}

	runToIdle(t, m, 200_000)
	pos := m.reportedPosition()
	if diff := pos[0] - 10; diff > 0.11 || diff < -0.11 {
		t.Fatalf("X = %.4f, want ~10 after resume", pos[0])
	}
}

func TestJogThenCancelStopsShortAndResyncs(t *testing.T) {
	m := newTestMachine(t)
	if err := m.Jog("X100 F300"); err != nil {
		t.Fatalf("Jog: %v", err)
	}
	if m.RunState() != StateJog {
		t.Fatalf("expected Jog, got %v", m.RunState())
	}
	pump(m, 5) // let the jog get underway before cancelling

	m.ExecState.Set(ExecMotionCancel)
	for i := 0; i < 200_000 && m.RunState() == StateJog; i++ {
		m.Service()
		core.SetTime(core.GetTime() + simJump)
		core.ProcessTimers()
	}
	if m.RunState() != StateIdle {
		t.Fatalf("expected Idle after jog cancel, got %v", m.RunState())
	}
	if !m.Planner.Ring.Empty() {
		t.Fatal("expected the planner ring to be flushed after a jog cancel")
	}
	if m.State.Position[0] >= 100 {
		t.Fatalf("expected the jog to stop short of its target, got X=%.2f", m.State.Position[0])
	}
}

func TestHardLimitRaisesAlarm(t *testing.T) {
	m := newTestMachine(t)
	if err := m.Execute("G1 X100 F60"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	pump(m, 5)
	m.RaiseAlarm(status.AlarmHardLimit)
	m.Service()

	if m.RunState() != StateAlarm {
		t.Fatalf("expected Alarm after a hard limit trip, got %v", m.RunState())
	}
	if err := m.Execute("G1 X0"); err != status.IdleError {
		t.Fatalf("Execute while alarmed: got %v, want status.IdleError", err)
	}
	m.Unlock()
	if m.RunState() != StateIdle {
		t.Fatalf("expected Idle after $X unlock, got %v", m.RunState())
	}
}

func TestHomingZeroesPosition(t *testing.T) {
	m := newTestMachine(t)
	m.Doc.Settings.HomingEnabled = true
	m.Doc.Settings.HomingSeekMMMin = 500
	m.Doc.Settings.HomingFeedMMMin = 50
	m.Doc.Settings.HomingPulloffMM = 1

	gp := core.MustGPIO().(*fakeGPIO)
	var pins LimitPins = [3]core.GPIOPin{10, 11, 12}

	// seekToSwitch polls synchronously inside Home; pre-triggering every
	// switch makes each seek stop on its very first poll, leaving only the
	// pull-off retracts to run against the simulated clock via Yield.
	gp.pins[pins[0]] = true
	gp.pins[pins[1]] = true
	gp.pins[pins[2]] = true

	if err := m.Home(pins, []int{2, 0, 1}); err != nil {
		t.Fatalf("Home: %v", err)
	}
	if m.RunState() != StateIdle {
		t.Fatalf("expected Idle after homing, got %v", m.RunState())
	}
	for axis := 0; axis < 3; axis++ {
		if m.ISR.SysPosition[axis] != 0 {
			t.Fatalf("axis %d sys_position = %d, want 0 after homing", axis, m.ISR.SysPosition[axis])
		}
	}
}

func TestHardLimitPollTripsAlarm(t *testing.T) {
	m := newTestMachine(t)
	m.Doc.Settings.HardLimitsEnabled = true
	m.Limits = LimitPins{10, 11, 12}
	if err := m.Execute("G1 X100 F60"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	pump(m, 5)

	core.MustGPIO().(*fakeGPIO).pins[m.Limits[0]] = true
	m.Service() // poll observes the pin, latches the alarm and applies it in the same pass
	m.Service() // a further pass leaves the alarm in place
	if m.RunState() != StateAlarm {
		t.Fatalf("expected Alarm after a limit pin tripped, got %v", m.RunState())
	}
}

func TestSoftLimitRejectsOutOfTravelMove(t *testing.T) {
	m := newTestMachine(t)
	m.Doc.Settings.SoftLimitsEnabled = true
	m.Doc.Settings.MaxTravelMM = [3]float64{50, 50, 50}
	if err := m.Execute("G1 X100 F300"); err != status.TravelExceeded {
		t.Fatalf("got %v, want status.TravelExceeded", err)
	}
	if err := m.Execute("G1 X40 F300"); err != nil {
		t.Fatalf("in-travel move rejected: %v", err)
	}
}

func TestResetFromCycleEntersAlarm(t *testing.T) {
	m := newTestMachine(t)
	if err := m.Execute("G1 X10 F60"); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	pump(m, 3)
	if m.RunState() != StateCycle {
		t.Fatalf("expected still Cycle before reset, got %v", m.RunState())
	}
	m.Reset()
	if m.RunState() != StateAlarm {
		t.Fatalf("expected Alarm after reset mid-cycle, got %v", m.RunState())
	}
}

func TestResetFromIdleStaysIdle(t *testing.T) {
	m := newTestMachine(t)
	m.Reset()
	if m.RunState() != StateIdle {
		t.Fatalf("expected Idle after reset from Idle, got %v", m.RunState())
	}
}

func TestSettingRoundTrip(t *testing.T) {
	m := newTestMachine(t)
	if err := m.Doc.Settings.Set(settings.SettingHomingPulloff, 3.5); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok := m.Doc.Settings.Get(settings.SettingHomingPulloff)
	if !ok || v != 3.5 {
		t.Fatalf("Get = %v, %v, want 3.5, true", v, ok)
	}
}
