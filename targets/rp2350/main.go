//go:build rp2350

package main

import (
	"time"

	"grblgo/core"
	"grblgo/machine"
	"grblgo/protocol"
	"grblgo/settings"
)

// Step/direction/limit pin assignment for a 3-axis (X/Y/Z) machine. Pin
// mapping is board wiring, not firmware policy; change it by reflashing.
var (
	stepPins  = [3]core.GPIOPin{2, 4, 6}
	dirPins   = [3]core.GPIOPin{3, 5, 7}
	limitPins = machine.LimitPins{8, 9, 10}

	// TMC5240 drivers share one bit-banged SPI bus, one chip-select per
	// axis.
	tmcSCLKPin = uint32(14)
	tmcMOSIPin = uint32(15)
	tmcMISOPin = uint32(16)
	tmcCSPins  = [3]core.GPIOPin{17, 18, 19}

	// Dual-Y gantry: the second Y motor mirrors axis 1's step/dir pins
	// through a GPIO stepper backend, mounted reversed.
	mirrorStepPin = core.GPIOPin(20)
	mirrorDirPin  = core.GPIOPin(21)
)

func main() {
	InitUSB()
	InitClock()
	InitDebugUART()
	core.TimerInit()

	gpioDriver := NewRPGPIODriver()
	core.SetGPIODriver(gpioDriver)
	if clone := newCloneAxisDriver(gpioDriver, stepPins[1], dirPins[1], mirrorStepPin, mirrorDirPin, true); clone != nil {
		core.SetGPIODriver(clone)
	}
	core.SetSoftwareSPIDriver(NewSoftSPIDriver())

	configureTMCDrivers()

	doc := settings.NewDocument()
	doc.BuildInfo = "grblgo 1.0 rp2350"
	m := machine.New(doc, stepPins, dirPins)
	m.Yield = func() {
		UpdateSystemTime()
		core.ProcessTimers()
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

// configureTMCDrivers brings up one TMC5240 per axis over the shared
// bit-banged SPI bus, applying current and chopper defaults before the
// first step pulse. A missing or unresponsive driver is logged and
// skipped; the axis still steps, it just runs on the driver's power-on
// defaults.
func configureTMCDrivers() {
	ssd := core.GetSoftwareSPI()
	if ssd == nil {
		return
	}
	handle, err := ssd.ConfigureSoftwareSPI(tmcSCLKPin, tmcMOSIPin, tmcMISOPin, 3, 1000000)
	if err != nil {
		core.Debugf("tmc5240: spi bus: %v", err)
		return
	}
	transfer := func(tx, rx []byte) error {
		return ssd.Transfer(handle, tx, rx)
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
