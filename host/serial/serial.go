package serial

import (
	"io"
)

// Port is the byte link to the controller. The abstraction exists so the
// sender works over:
// - a native serial device (github.com/tarm/serial)
// - a mock port in tests
type Port interface {
	io.ReadWriteCloser

	// Flush discards any buffered data.
	Flush() error
}

// Config holds serial port configuration.
type Config struct {
	// Device path (e.g. "/dev/ttyACM0", "COM3").
	Device string

	// Baud rate. The controller's line protocol is 115200 8N1; USB CDC
	// devices ignore the value but it is set anyway for real UARTs.
	Baud int

	// Read timeout in milliseconds (0 = blocking).
	ReadTimeout int
}

// DefaultConfig returns the standard 115200 configuration for device.
func DefaultConfig(device string) *Config {
	return &Config{
		Device:      device,
		Baud:        115200,
		ReadTimeout: 100,
	}
}
