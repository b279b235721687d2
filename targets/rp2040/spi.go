//go:build rp2040

package main

import (
	"errors"
	"sync"

	"grblgo/core"
	"machine"
)

// The board exposes two hardware SPI controllers. Only pinouts clear of
// the motion pins (step/dir on GPIO2-7, limits 8-10, spindle 11-13,
// mirror 14-15, TMC chip-selects 16-18) are offered; bus 0 is the one
// the TMC5240 bring-up uses.
type spiBusConfig struct {
	spi  *machine.SPI
	sck  machine.Pin
	mosi machine.Pin
	miso machine.Pin
	name string
}

var spiBuses = map[core.SPIBusID]spiBusConfig{
	0: {spi: machine.SPI0, sck: machine.GPIO22, mosi: machine.GPIO23, miso: machine.GPIO20, name: "spi0"},
	1: {spi: machine.SPI1, sck: machine.GPIO26, mosi: machine.GPIO27, miso: machine.GPIO24, name: "spi1"},
}

// RP2040SPIDriver backs core.SPIDriver with TinyGo's machine.SPI. A bus
// is configured once and the handle reused; asking again with the same
// mode and rate returns the existing instance.
type RP2040SPIDriver struct {
	mu    sync.Mutex
	buses map[core.SPIBusID]*spiInstance
}

type spiInstance struct {
	spi  *machine.SPI
	mode core.SPIMode
	rate uint32
}

// NewRP2040SPIDriver returns a driver with no buses configured yet.
func NewRP2040SPIDriver() *RP2040SPIDriver {
	return &RP2040SPIDriver{buses: make(map[core.SPIBusID]*spiInstance)}
}

// ConfigureBus brings up one hardware SPI bus and returns its transfer
// handle.
func (d *RP2040SPIDriver) ConfigureBus(config core.SPIConfig) (interface{}, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if inst, ok := d.buses[config.BusID]; ok && inst.mode == config.Mode && inst.rate == config.Rate {
		return inst, nil
	}

	busConfig, ok := spiBuses[config.BusID]
	if !ok {
		return nil, errors.New("invalid SPI bus ID")
	}
	if config.Mode > 3 {
		return nil, errors.New("invalid SPI mode")
	}

	err := busConfig.spi.Configure(machine.SPIConfig{
		Frequency: config.Rate,
		SCK:       busConfig.sck,
		SDO:       busConfig.mosi,
		SDI:       busConfig.miso,
		Mode:      uint8(config.Mode),
	})
	if err != nil {
		return nil, err
	}

	inst := &spiInstance{spi: busConfig.spi, mode: config.Mode, rate: config.Rate}
	d.buses[config.BusID] = inst
	return inst, nil
}

// Transfer clocks txData out while reading rxData, full duplex.
func (d *RP2040SPIDriver) Transfer(busHandle interface{}, txData []byte, rxData []byte) error {
	inst, ok := busHandle.(*spiInstance)
	if !ok {
		return errors.New("invalid SPI bus handle")
	}
	if len(txData) != len(rxData) {
		return errors.New("tx and rx buffer lengths must match")
	}
	return inst.spi.Tx(txData, rxData)
}

// GetBusInfo maps bus IDs to names for the build-info diagnostics path.
func (d *RP2040SPIDriver) GetBusInfo() map[core.SPIBusID]string {
	info := make(map[core.SPIBusID]string)
	for id, config := range spiBuses {
		info[id] = config.name
	}
	return info
}
