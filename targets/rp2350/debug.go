//go:build rp2350

package main

import (
	"grblgo/core"
	"machine"
)

var debugUART *machine.UART

// InitDebugUART brings up UART1 (TX=GPIO36, RX=GPIO37, 115200) as the
// core.Debugf sink, separate from the USB CDC link the sender owns so
// trace output never interleaves with ok/error responses.
func InitDebugUART() {
	debugUART = machine.UART1
	err := debugUART.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.GPIO36,
		RX:       machine.GPIO37,
	})
	if err != nil {
		debugUART = nil
		return
	}

	core.SetDebugWriter(func(line string) {
		debugUART.Write([]byte(line))
		debugUART.Write([]byte("\r\n"))
	})
	core.SetDebugEnabled(true)
	core.Debugf("debug uart up: 115200 tx=GPIO36 rx=GPIO37")
}
