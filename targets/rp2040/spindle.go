//go:build rp2040

package main

import (
	"grblgo/core"
	"grblgo/settings"
)

// spindlePWMPeriodTicks gives roughly a 5kHz carrier at core.TimerFreq,
// fast enough that a brushed spindle ESC reads it as an analog level.
const spindlePWMPeriodTicks = core.TimerFreq / 5000

// PWMSpindle maps committed spindle state (M3/M4/M5 plus the S word)
// onto a PWM duty pin, an enable pin, and a direction pin. It implements
// machine.SpindleOutput.
type PWMSpindle struct {
	pwmPin    core.PWMPin
	enablePin core.GPIOPin
	dirPin    core.GPIOPin
	settings  *settings.Table
	maxDuty   uint32
}

// NewPWMSpindle configures the three spindle pins and returns the output.
func NewPWMSpindle(pwmPin core.PWMPin, enablePin, dirPin core.GPIOPin, st *settings.Table) (*PWMSpindle, error) {
	pwm := core.MustPWM()
	if _, err := pwm.ConfigureHardwarePWM(pwmPin, spindlePWMPeriodTicks); err != nil {
		return nil, err
	}
	gp := core.MustGPIO()
	if err := gp.ConfigureOutput(enablePin); err != nil {
		return nil, err
	}
	if err := gp.ConfigureOutput(dirPin); err != nil {
		return nil, err
	}
	s := &PWMSpindle{
		pwmPin:    pwmPin,
		enablePin: enablePin,
		dirPin:    dirPin,
		settings:  st,
		maxDuty:   pwm.GetMaxValue(),
	}
	s.SetSpindle(50, 0) // M5: start with the spindle off
	return s, nil
}

// SetSpindle applies one committed spindle state: mode 30 runs clockwise,
// 40 counter-clockwise, 50 stops. rpm is clamped into the $30/$31 range
// before scaling to duty, so S0 under laser mode still produces zero
// output rather than the $31 floor.
func (s *PWMSpindle) SetSpindle(mode int, rpm float64) {
	gp := core.MustGPIO()
	pwm := core.MustPWM()

	if mode == 50 || rpm <= 0 {
		_ = pwm.SetDutyCycle(s.pwmPin, 0)
		_ = gp.SetPin(s.enablePin, false)
		return
	}

	maxRPM := s.settings.SpindleRPMMax
	minRPM := s.settings.SpindleRPMMin
	if maxRPM <= minRPM {
		maxRPM = minRPM + 1
	}
	if rpm > maxRPM {
		rpm = maxRPM
	}
	if rpm < minRPM {
		rpm = minRPM
	}
	duty := uint32(float64(s.maxDuty) * (rpm - minRPM) / (maxRPM - minRPM))

	_ = gp.SetPin(s.dirPin, mode == 40)
	_ = gp.SetPin(s.enablePin, true)
	_ = pwm.SetDutyCycle(s.pwmPin, core.PWMValue(duty))
}
