//go:build rp2350

package main

import (
	"machine"
)

// The sender link is USB CDC-ACM: machine.Serial on this board is the
// USB endpoint, not a hardware UART, and TinyGo's runtime owns the
// descriptors. Baud settings in the UARTConfig are ignored by CDC; the
// host-side 115200 8N1 convention is a formality.

// InitUSB brings up the CDC serial endpoint.
func InitUSB() {
	_ = machine.Serial.Configure(machine.UARTConfig{})
}

// USBAvailable returns the number of buffered RX bytes.
func USBAvailable() int {
	return machine.Serial.Buffered()
}

// USBRead pops one RX byte.
func USBRead() (byte, error) {
	return machine.Serial.ReadByte()
}

// USBWriteBytes writes as much of data as the endpoint accepts,
// returning the count written.
func USBWriteBytes(data []byte) (int, error) {
	return machine.Serial.Write(data)
}
