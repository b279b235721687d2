//go:build rp2350

package main

import (
	"grblgo/core"
)

// cloneAxisDriver wraps a core.GPIODriver and decorates one axis's
// step/dir output with a GPIO-backend mirror: a second motor (a dual-Y
// gantry) that steps in lockstep with the primary axis without the
// stepper tick knowing anything about it. The tick still owns pulse
// timing and sys_position for the primary pin; the StepperGPIO backend
// fires the mirror's electrically-independent pulse on the primary
// pin's rising edge.
type cloneAxisDriver struct {
	core.GPIODriver

	clonedStepPin core.GPIOPin
	clonedDirPin  core.GPIOPin
	mirrorDirInv  bool

	backend   core.StepperBackend
	mirrorDir bool
}

// newCloneAxisDriver mirrors stepPin/dirPin onto mirrorStepPin/
// mirrorDirPin through a StepperGPIO backend, inverting direction if the
// mirrored motor is mounted reversed on the gantry.
func newCloneAxisDriver(base core.GPIODriver, stepPin, dirPin, mirrorStepPin, mirrorDirPin core.GPIOPin, invertMirrorDir bool) *cloneAxisDriver {
	backend := NewStepperGPIO()
	if err := backend.Init(uint8(mirrorStepPin), uint8(mirrorDirPin), false, false); err != nil {
		return nil
	}
	return &cloneAxisDriver{
		GPIODriver:    base,
		clonedStepPin: stepPin,
		clonedDirPin:  dirPin,
		mirrorDirInv:  invertMirrorDir,
		backend:       backend,
	}
}

// SetPin intercepts writes to the cloned axis's step/dir pins: the
// direction bit is latched and forwarded to the backend, and a rising
// step edge both drives the primary pin (through the embedded base
// driver) and fires one mirrored step.
func (d *cloneAxisDriver) SetPin(pin core.GPIOPin, value bool) error {
	switch pin {
	case d.clonedDirPin:
		d.mirrorDir = value != d.mirrorDirInv
		d.backend.SetDirection(d.mirrorDir)
	case d.clonedStepPin:
		if value {
			d.backend.Step()
		}
	}
	return d.GPIODriver.SetPin(pin, value)
}
