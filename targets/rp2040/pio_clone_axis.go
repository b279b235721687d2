//go:build rp2040

package main

import (
	"grblgo/core"
	"grblgo/targets/pio"
)

// cloneAxisDriver wraps a core.GPIODriver and decorates one axis's step/dir
// output with a PIO-offloaded mirror: a second motor (e.g. a dual-Y
// gantry) that
// steps in lockstep with the primary axis without the stepper ISR
// (stepper/isr.go) knowing anything about it. The ISR still owns pulse
// timing and sys_position for the primary pin; the PIO state machine
// (targets/pio/stepper_pio.go, github.com/tinygo-org/pio) generates the
// mirror's electrically-independent step pulse the instant the primary
// pin rises, so both motors see the same edge despite driving separate
// PIO-timed outputs.
type cloneAxisDriver struct {
	core.GPIODriver

	clonedStepPin core.GPIOPin
	clonedDirPin  core.GPIOPin
	mirrorDirInv  bool

	backend   *pio.PIOStepperBackend
	mirrorDir bool
}

// newCloneAxisDriver allocates a PIO state machine to mirror stepPin/dirPin
// onto mirrorStepPin/mirrorDirPin, inverting direction if the mirrored
// motor is mounted reversed on the gantry.
func newCloneAxisDriver(base core.GPIODriver, stepPin, dirPin, mirrorStepPin, mirrorDirPin core.GPIOPin, invertMirrorDir bool) *cloneAxisDriver {
	pioNum, smNum, ok := pio.AllocatePIO()
	if !ok {
		return nil
	}
	backend := pio.NewPIOStepperBackend(pioNum, smNum)
	_ = backend.Init(uint8(mirrorStepPin), uint8(mirrorDirPin), false, false)
	return &cloneAxisDriver{
		GPIODriver:    base,
		clonedStepPin: stepPin,
		clonedDirPin:  dirPin,
		mirrorDirInv:  invertMirrorDir,
		backend:       backend,
	}
}

// SetPin intercepts writes to the cloned axis's step/dir pins: the
// direction bit is latched and forwarded to the PIO backend, and a
// rising step edge both drives the primary pin (through the embedded
// base driver) and fires one PIO-timed step on the mirror.
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
