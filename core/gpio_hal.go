package core

// GPIOPin identifies a hardware GPIO pin number.
type GPIOPin uint32

// GPIODriver is the pin interface the motion pipeline drives: step and
// direction outputs from the stepper ISR, limit inputs polled by the
// homing cycle and the hard-limit check. Pins are a shared resource
// (steppers, limits, probe, spindle); each caller touches only the pins
// it was wired with, which is what stands in for the bit-mask
// reservation discipline of a raw port register.
type GPIODriver interface {
	// ConfigureOutput configures a pin as a digital output.
	ConfigureOutput(pin GPIOPin) error

	// ConfigureInputPullUp configures a pin as an input with pull-up,
	// the normally-closed limit-switch wiring.
	ConfigureInputPullUp(pin GPIOPin) error

	// ConfigureInputPullDown configures a pin as an input with pull-down.
	ConfigureInputPullDown(pin GPIOPin) error

	// SetPin drives an output high (true) or low (false). Called from
	// the stepper tick with interrupts masked; implementations must be
	// a bare register write, no locking or allocation.
	SetPin(pin GPIOPin, value bool) error

	// GetPin reads the current pin state.
	GetPin(pin GPIOPin) (bool, error)

	// ReadPin reads the current pin state, discarding the error - the
	// limit-poll convenience form.
	ReadPin(pin GPIOPin) bool
}

var gpioDriver GPIODriver

// SetGPIODriver is called once by target code during boot, before the
// machine is constructed.
func SetGPIODriver(d GPIODriver) {
	gpioDriver = d
}

// MustGPIO returns the registered driver, panicking if boot never wired
// one - a board-bringup error, not a runtime condition to recover from.
func MustGPIO() GPIODriver {
	if gpioDriver == nil {
		panic("GPIO driver not configured")
	}
	return gpioDriver
}
