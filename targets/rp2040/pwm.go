//go:build rp2040

package main

import (
	"errors"

	"grblgo/core"
	"machine"
)

// pwmMax is the full-scale duty value the spindle output maps S words
// onto; the driver rescales it to each slice's hardware top internally.
const pwmMax = 255

// pwmSlice abstracts TinyGo's unexported *pwmGroup so the eight PWM
// slices can sit in one table.
type pwmSlice interface {
	Configure(config machine.PWMConfig) error
	Channel(pin machine.Pin) (uint8, error)
	Top() uint32
	Set(channel uint8, value uint32)
}

var pwmSlices = [8]pwmSlice{
	machine.PWM0, machine.PWM1, machine.PWM2, machine.PWM3,
	machine.PWM4, machine.PWM5, machine.PWM6, machine.PWM7,
}

// RP2040PWMDriver backs core.PWMDriver with the chip's eight PWM slices
// (two channels each; GPIO pin N lands on slice (N>>1)&7, channel N&1).
// Only the spindle claims a channel today, so slice-period conflicts
// between pins sharing a slice are not arbitrated: last Configure wins.
type RP2040PWMDriver struct {
	channels map[uint32]uint8 // pin -> hardware channel, set once configured
}

// NewRP2040PWMDriver returns a driver with no channels claimed yet.
func NewRP2040PWMDriver() *RP2040PWMDriver {
	return &RP2040PWMDriver{channels: make(map[uint32]uint8)}
}

// GetMaxValue returns the full-scale duty value.
func (d *RP2040PWMDriver) GetMaxValue() uint32 {
	return pwmMax
}

// ConfigureHardwarePWM claims pin for PWM output with the given period
// in core timer ticks, returning the period actually in effect.
func (d *RP2040PWMDriver) ConfigureHardwarePWM(pin core.PWMPin, cycleTicks uint32) (uint32, error) {
	pinNum := uint32(pin)
	slice := pwmSlices[(pinNum>>1)&7]

	periodNS := uint64(cycleTicks) * 1000000000 / core.TimerFreq
	if err := slice.Configure(machine.PWMConfig{Period: periodNS}); err != nil {
		return 0, err
	}

	channel, err := slice.Channel(machine.Pin(pinNum))
	if err != nil {
		return 0, err
	}
	d.channels[pinNum] = channel
	return cycleTicks, nil
}

// SetDutyCycle sets a configured pin's duty, 0..pwmMax rescaled to the
// slice's hardware top.
func (d *RP2040PWMDriver) SetDutyCycle(pin core.PWMPin, value core.PWMValue) error {
	pinNum := uint32(pin)
	channel, ok := d.channels[pinNum]
	if !ok {
		return errors.New("pwm pin not configured")
	}
	slice := pwmSlices[(pinNum>>1)&7]
	slice.Set(channel, uint32(value)*slice.Top()/pwmMax)
	return nil
}

// DisablePWM releases pin. TinyGo has no way to hand the pin back to
// plain GPIO, so the output is parked at zero duty instead.
func (d *RP2040PWMDriver) DisablePWM(pin core.PWMPin) error {
	pinNum := uint32(pin)
	if channel, ok := d.channels[pinNum]; ok {
		pwmSlices[(pinNum>>1)&7].Set(channel, 0)
		delete(d.channels, pinNum)
	}
	return nil
}
