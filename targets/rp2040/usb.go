//go:build rp2040

package main

import "machine"

// InitUSB configures machine.Serial, which TinyGo backs with USB CDC-ACM
// on RP2040; the descriptors themselves are set by TinyGo's runtime.
func InitUSB() {
	_ = machine.Serial.Configure(machine.UARTConfig{})
}

// USBAvailable returns the number of bytes buffered for read.
func USBAvailable() int {
	return machine.Serial.Buffered()
}

// USBRead reads a single byte.
func USBRead() (byte, error) {
	return machine.Serial.ReadByte()
}

// USBWriteBytes writes a buffer, returning the number of bytes written.
func USBWriteBytes(data []byte) (int, error) {
	return machine.Serial.Write(data)
}
