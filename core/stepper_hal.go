package core

// StepperBackend is the per-axis pulse-output contract boards implement
// when step generation is offloaded from the software Bresenham walk:
// direct GPIO toggling, or a PIO state machine that produces the pulse
// train in hardware (targets/pio). The stepper ISR computes when a step
// happens; a backend only owns how the edge reaches the driver.
type StepperBackend interface {
	// Init claims the step and direction pins, with per-pin polarity
	// inversion matching the $2/$3 invert masks.
	Init(stepPin, dirPin uint8, invertStep, invertDir bool) error

	// Step emits one step pulse, pulse width handled internally. Called
	// from the timer tick with interrupts masked; must not allocate.
	Step()

	// SetDirection drives the direction output; implementations honor
	// the driver's dir-to-step setup time.
	SetDirection(dir bool)

	// Stop forces the step output to its idle level immediately.
	Stop()

	// GetName identifies the backend in build-info diagnostics.
	GetName() string
}

// StepperBackendInfo describes a backend's measured characteristics, for
// the `$I` build-info report and for choosing between backends at boot.
type StepperBackendInfo struct {
	Name          string
	MaxStepRate   uint32 // steps/second per axis
	MinPulseNs    uint32 // minimum step pulse width
	TypicalJitter uint32 // typical edge jitter, ns
	CPUOverhead   uint8  // percent of one core at MaxStepRate
}
