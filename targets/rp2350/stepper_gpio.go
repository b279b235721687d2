//go:build rp2350

package main

import (
	"grblgo/core"
	"machine"
)

// StepperGPIO is the plain-GPIO core.StepperBackend for boards that
// don't dedicate a PIO state machine to step generation: the timer tick
// toggles the step pin directly, with a short busy-wait for pulse width.
type StepperGPIO struct {
	stepPin    machine.Pin
	dirPin     machine.Pin
	invertStep bool
	invertDir  bool
	direction  bool
}

var _ core.StepperBackend = (*StepperGPIO)(nil)

// NewStepperGPIO returns an unconfigured backend; call Init before use.
func NewStepperGPIO() *StepperGPIO {
	return &StepperGPIO{}
}

// Init claims the step/dir pins and parks the step output at its idle
// level.
func (s *StepperGPIO) Init(stepPin, dirPin uint8, invertStep, invertDir bool) error {
	s.stepPin = machine.Pin(stepPin)
	s.dirPin = machine.Pin(dirPin)
	s.invertStep = invertStep
	s.invertDir = invertDir

	s.stepPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	s.dirPin.Configure(machine.PinConfig{Mode: machine.PinOutput})

	s.stepIdle()
	s.SetDirection(false)

	core.Debugf("stepper gpio: step=%d dir=%d", int(stepPin), int(dirPin))
	return nil
}

// Step emits one pulse. The busy loop holds the pulse high for roughly
// 2us at 150MHz, above the minimum most external drivers accept.
func (s *StepperGPIO) Step() {
	if s.invertStep {
		s.stepPin.Low()
	} else {
		s.stepPin.High()
	}

	for i := 0; i < 300; i++ {
	}

	s.stepIdle()
}

// SetDirection drives the direction pin, honoring the invert mask.
func (s *StepperGPIO) SetDirection(dir bool) {
	s.direction = dir
	if s.invertDir {
		dir = !dir
	}
	if dir {
		s.dirPin.High()
	} else {
		s.dirPin.Low()
	}
}

// Stop parks the step output at its idle level.
func (s *StepperGPIO) Stop() {
	s.stepIdle()
}

func (s *StepperGPIO) stepIdle() {
	if s.invertStep {
		s.stepPin.High()
	} else {
		s.stepPin.Low()
	}
}

// GetName identifies this backend in build-info output.
func (s *StepperGPIO) GetName() string {
	return "GPIO"
}
