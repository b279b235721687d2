//go:build tinygo

package core

// SPIBusID identifies a hardware SPI bus.
type SPIBusID uint8

// SPIMode is SPI clock polarity/phase (0-3). The TMC5240 talks mode 3.
type SPIMode uint8

// SPIConfig holds the configuration for one SPI bus.
type SPIConfig struct {
	BusID SPIBusID
	Mode  SPIMode
	Rate  uint32 // clock rate in Hz
}

// SPIDriver is the bus interface behind SPI-driven stepper drivers
// (core/tmc5240.go). Boards with a free hardware SPI peripheral register
// one of these; boards that spent those pins register a
// SoftwareSPIDriver instead.
type SPIDriver interface {
	// ConfigureBus sets up a hardware SPI bus, returning an opaque
	// handle for subsequent transfers.
	ConfigureBus(config SPIConfig) (interface{}, error)

	// Transfer clocks txData out while reading rxData, full duplex.
	Transfer(busHandle interface{}, txData []byte, rxData []byte) error

	// GetBusInfo maps bus IDs to human-readable descriptions, for the
	// build-info diagnostics path.
	GetBusInfo() map[SPIBusID]string
}

// SoftwareSPIDriver bit-bangs SPI over plain GPIO, for boards whose
// hardware SPI pins are already claimed by step/dir outputs.
type SoftwareSPIDriver interface {
	ConfigureSoftwareSPI(sclk, mosi, miso uint32, mode SPIMode, rate uint32) (interface{}, error)
	Transfer(handle interface{}, txData []byte, rxData []byte) error
}

var (
	spiDriver         SPIDriver
	softwareSPIDriver SoftwareSPIDriver
)

// SetSPIDriver registers the board's hardware SPI driver at boot.
func SetSPIDriver(d SPIDriver) {
	spiDriver = d
}

// SetSoftwareSPIDriver registers the board's bit-banged SPI driver.
func SetSoftwareSPIDriver(d SoftwareSPIDriver) {
	softwareSPIDriver = d
}

// MustSPI returns the hardware SPI driver, panicking if the board never
// wired one.
func MustSPI() SPIDriver {
	if spiDriver == nil {
		panic("SPI driver not configured")
	}
	return spiDriver
}

// GetSoftwareSPI returns the software SPI driver, or nil if the board
// did not register one.
func GetSoftwareSPI() SoftwareSPIDriver {
	return softwareSPIDriver
}
