//go:build rp2350

package main

import (
	"grblgo/core"
	"machine"
)

// RPGPIODriver backs core.GPIODriver with the RP2350's GPIO bank. Pin
// numbers map one-to-one onto machine.Pin, so the driver's only real job
// is remembering which pins have been configured: SetPin runs inside the
// stepper tick with interrupts masked and must stay a bare register
// write, so all Configure calls happen up front and the hot path never
// reconfigures.
type RPGPIODriver struct {
	pins map[core.GPIOPin]machine.Pin
}

// NewRPGPIODriver returns a driver with no pins claimed yet.
func NewRPGPIODriver() *RPGPIODriver {
	return &RPGPIODriver{pins: make(map[core.GPIOPin]machine.Pin)}
}

// ConfigureOutput claims pin as a digital output. Reconfiguring an
// already-claimed pin is a no-op, so the clone-axis decorator and the
// board's own setup loop can both touch the same pin safely.
func (d *RPGPIODriver) ConfigureOutput(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinOutput)
}

// ConfigureInputPullUp claims pin as an input with pull-up, the
// normally-closed limit-switch wiring.
func (d *RPGPIODriver) ConfigureInputPullUp(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinInputPullup)
}

// ConfigureInputPullDown claims pin as an input with pull-down.
func (d *RPGPIODriver) ConfigureInputPullDown(pin core.GPIOPin) error {
	return d.configure(pin, machine.PinInputPulldown)
}

func (d *RPGPIODriver) configure(pin core.GPIOPin, mode machine.PinMode) error {
	if _, claimed := d.pins[pin]; claimed {
		return nil
	}
	mp := machine.Pin(pin)
	mp.Configure(machine.PinConfig{Mode: mode})
	d.pins[pin] = mp
	return nil
}

// SetPin drives an output. An unconfigured pin is claimed as an output
// on first write, which keeps a missed setup call from silently
// dropping edges.
func (d *RPGPIODriver) SetPin(pin core.GPIOPin, value bool) error {
	mp, claimed := d.pins[pin]
	if !claimed {
		if err := d.ConfigureOutput(pin); err != nil {
			return err
		}
		mp = d.pins[pin]
	}
	mp.Set(value)
	return nil
}

// GetPin reads pin's current level; an unclaimed pin reads low.
func (d *RPGPIODriver) GetPin(pin core.GPIOPin) (bool, error) {
	mp, claimed := d.pins[pin]
	if !claimed {
		return false, nil
	}
	return mp.Get(), nil
}

// ReadPin is the limit-poll convenience form of GetPin.
func (d *RPGPIODriver) ReadPin(pin core.GPIOPin) bool {
	v, _ := d.GetPin(pin)
	return v
}
