//go:build tinygo

package core

// PWMPin identifies a hardware pin capable of PWM output.
type PWMPin uint32

// PWMValue is a duty-cycle value, 0 to the driver's GetMaxValue.
type PWMValue uint32

// PWMDriver is the duty-cycle interface behind the spindle output: the
// machine maps programmed S words onto the 0..GetMaxValue range and a
// board-side spindle wires the result to one of these.
type PWMDriver interface {
	// ConfigureHardwarePWM configures a pin for PWM output with the
	// given period in timer ticks, returning the period actually
	// achieved after hardware clamping.
	ConfigureHardwarePWM(pin PWMPin, cycleTicks uint32) (uint32, error)

	// SetDutyCycle sets the duty cycle for a configured pin.
	SetDutyCycle(pin PWMPin, value PWMValue) error

	// GetMaxValue returns the full-scale duty value.
	GetMaxValue() uint32

	// DisablePWM releases a pin back to plain GPIO.
	DisablePWM(pin PWMPin) error
}

var pwmDriver PWMDriver

// SetPWMDriver registers the board's PWM driver at boot.
func SetPWMDriver(d PWMDriver) {
	pwmDriver = d
}

// MustPWM returns the registered driver, panicking if boot never wired one.
func MustPWM() PWMDriver {
	if pwmDriver == nil {
		panic("PWM driver not configured")
	}
	return pwmDriver
}
