//go:build rp2350

package main

import (
	"errors"
	"time"

	"grblgo/core"
	"machine"
)

// SoftSPIDriver backs core.SoftwareSPIDriver with plain GPIO
// bit-banging. This board spends its hardware SPI pins on step/dir
// outputs, so the TMC5240 bus runs through here instead: the drivers
// are only written at boot and on setting changes, where a bit-banged
// megahertz is plenty.
type SoftSPIDriver struct {
	buses []*softSPIBus
}

// softSPIBus is one configured sclk/mosi/miso pin triple.
type softSPIBus struct {
	sclk machine.Pin
	mosi machine.Pin
	miso machine.Pin

	halfPeriod time.Duration
	cpol       bool // clock idle level
	cpha       bool // sample on second edge instead of first
}

// NewSoftSPIDriver returns a driver with no buses configured yet.
func NewSoftSPIDriver() *SoftSPIDriver {
	return &SoftSPIDriver{}
}

// ConfigureSoftwareSPI claims the three pins and returns a transfer
// handle. rate is a ceiling, not a promise: sleep granularity dominates
// the actual clock.
func (d *SoftSPIDriver) ConfigureSoftwareSPI(sclk, mosi, miso uint32, mode core.SPIMode, rate uint32) (interface{}, error) {
	if mode > 3 {
		return nil, errors.New("invalid SPI mode")
	}
	bus := &softSPIBus{
		sclk: machine.Pin(sclk),
		mosi: machine.Pin(mosi),
		miso: machine.Pin(miso),
		cpol: mode&2 != 0,
		cpha: mode&1 != 0,
	}
	if rate == 0 {
		rate = 100000
	}
	bus.halfPeriod = time.Duration(500000000/rate) * time.Nanosecond

	bus.sclk.Configure(machine.PinConfig{Mode: machine.PinOutput})
	bus.mosi.Configure(machine.PinConfig{Mode: machine.PinOutput})
	bus.miso.Configure(machine.PinConfig{Mode: machine.PinInput})
	bus.sclk.Set(bus.cpol) // park the clock at its idle level
	bus.mosi.Low()

	d.buses = append(d.buses, bus)
	return bus, nil
}

// Transfer clocks txData out while reading rxData, full duplex.
func (d *SoftSPIDriver) Transfer(handle interface{}, txData []byte, rxData []byte) error {
	bus, ok := handle.(*softSPIBus)
	if !ok {
		return errors.New("invalid software SPI handle")
	}
	if len(txData) != len(rxData) {
		return errors.New("tx and rx buffer lengths must match")
	}
	for i := range txData {
		rxData[i] = bus.transferByte(txData[i])
	}
	return nil
}

// transferByte shifts one byte out MSB-first while sampling MISO on the
// edge the bus mode calls for.
func (bus *softSPIBus) transferByte(txByte byte) byte {
	var rxByte byte
	for bit := 7; bit >= 0; bit-- {
		bus.mosi.Set(txByte&(1<<bit) != 0)

		if !bus.cpha {
			settle()
			if bus.miso.Get() {
				rxByte |= 1 << bit
			}
		}

		bus.sclk.Set(!bus.cpol) // leading edge
		time.Sleep(bus.halfPeriod)

		if bus.cpha {
			if bus.miso.Get() {
				rxByte |= 1 << bit
			}
		}

		bus.sclk.Set(bus.cpol) // trailing edge, back to idle
		time.Sleep(bus.halfPeriod)
	}
	return rxByte
}

// settle burns a few cycles so MOSI is stable before a leading-edge
// sample.
func settle() {
	for i := 0; i < 8; i++ {
	}
}
