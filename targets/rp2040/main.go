//go:build rp2040

package main

import (
	"time"

	"grblgo/core"
	"grblgo/machine"
	"grblgo/protocol"
	"grblgo/settings"
)

// Step/direction pin assignment for a 3-axis (X/Y/Z) machine. Pin
// mapping is board wiring, not firmware policy; change it by reflashing.
var (
	stepPins  = [3]core.GPIOPin{2, 4, 6}
	dirPins   = [3]core.GPIOPin{3, 5, 7}
	limitPins = machine.LimitPins{8, 9, 10}

	spindlePWMPin    = core.PWMPin(11)
	spindleEnablePin = core.GPIOPin(12)
	spindleDirPin    = core.GPIOPin(13)

	// Dual-Y gantry: the second Y motor mirrors axis 1's step/dir pins
	// through a PIO state machine, mounted reversed.
	mirrorStepPin = core.GPIOPin(14)
	mirrorDirPin  = core.GPIOPin(15)

	// TMC5240 drivers on hardware SPI0, one chip-select per axis.
	tmcCSPins = [3]core.GPIOPin{16, 17, 18}
)

func main() {
	InitUSB()
	InitClock()
	core.TimerInit()

	gpioDriver := NewRPGPIODriver()
	core.SetGPIODriver(gpioDriver)
	if clone := newCloneAxisDriver(gpioDriver, stepPins[1], dirPins[1], mirrorStepPin, mirrorDirPin, true); clone != nil {
		core.SetGPIODriver(clone)
	}
	core.SetPWMDriver(NewRP2040PWMDriver())
	core.SetSPIDriver(NewRP2040SPIDriver())

	configureTMCDrivers()

	doc := settings.NewDocument()
	doc.BuildInfo = "grblgo 1.0 rp2040"
	m := machine.New(doc, stepPins, dirPins)
	m.Yield = func() {
		UpdateSystemTime()
		core.ProcessTimers()
	}
	if spindle, err := NewPWMSpindle(spindlePWMPin, spindleEnablePin, spindleDirPin, &doc.Settings); err == nil {
		m.Spindle = spindle
	}
	disp := protocol.NewDispatcher(m)
	m.Limits = limitPins

	for axis := 0; axis < 3; axis++ {
		_ = gpioDriver.ConfigureOutput(stepPins[axis])
		_ = gpioDriver.ConfigureOutput(dirPins[axis])
		_ = gpioDriver.ConfigureInputPullUp(limitPins[axis])
	}

	rx := protocol.NewFifoBuffer(256)
	var one [1]byte

	for {
		for USBAvailable() > 0 && rx.Free() > 0 {
			b, err := USBRead()
			if err != nil {
				break
			}
			one[0] = b
			rx.Write(one[:])
		}
		for rx.Read(one[:]) == 1 {
			if resp, ok := disp.PushByte(one[0]); ok {
				writeAll([]byte(resp))
			}
		}

		UpdateSystemTime()
		core.ProcessTimers()
		m.Service()

		time.Sleep(100 * time.Microsecond)
	}
}

// configureTMCDrivers brings up one TMC5240 per axis on hardware SPI0,
// applying current and chopper defaults before the first step pulse. A
// missing or unresponsive driver is logged and skipped; the axis still
// steps, it just runs on the driver's power-on defaults.
func configureTMCDrivers() {
	spi := core.MustSPI()
	handle, err := spi.ConfigureBus(core.SPIConfig{BusID: 0, Mode: 3, Rate: 1000000})
	if err != nil {
		core.Debugf("tmc5240: spi bus: %v", err)
		return
	}
	transfer := func(tx, rx []byte) error {
		return spi.Transfer(handle, tx, rx)
	}
	for axis := 0; axis < 3; axis++ {
		drv, err := core.NewTMC5240Driver(transfer, tmcCSPins[axis])
		if err != nil {
			core.Debugf("tmc5240: axis %d cs: %v", axis, err)
			continue
		}
		if err := drv.Configure(); err != nil {
			core.Debugf("tmc5240: axis %d configure: %v", axis, err)
		}
	}
}

func writeAll(data []byte) {
	for len(data) > 0 {
		n, err := USBWriteBytes(data)
		if err != nil || n == 0 {
			return
		}
		data = data[n:]
	}
}
