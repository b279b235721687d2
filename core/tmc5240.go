//go:build tinygo

package core

// TMC5240Driver drives a TMC5240 smart stepper driver over SPI - the
// domain stack's SPI-driven-axis path: register map in
// tmc5240_regs.go, transfers through whichever bus (hardware SPIDriver or
// bit-banged SoftwareSPIDriver) the board wired in, chip-select toggled
// through GPIODriver around each transfer since this wiring holds CS low
// only for the duration of one register access rather than for a whole
// burst.
type TMC5240Driver struct {
	transfer func(tx, rx []byte) error
	csPin    GPIOPin
}

// NewTMC5240Driver binds a driver to an already-open bus transfer function
// and the GPIO pin used as chip-select.
func NewTMC5240Driver(transfer func(tx, rx []byte) error, csPin GPIOPin) (*TMC5240Driver, error) {
	gp := MustGPIO()
	if err := gp.ConfigureOutput(csPin); err != nil {
		return nil, err
	}
	_ = gp.SetPin(csPin, true)
	return &TMC5240Driver{transfer: transfer, csPin: csPin}, nil
}

// WriteReg writes a 32-bit value to register addr.
func (d *TMC5240Driver) WriteReg(addr uint8, value uint32) error {
	tx := []byte{addr | TMC5240_WRITE_BIT, byte(value >> 24), byte(value >> 16), byte(value >> 8), byte(value)}
	rx := make([]byte, len(tx))
	return d.doTransfer(tx, rx)
}

// ReadReg reads register addr. The TMC5240's SPI datagram returns the
// previous access's result, so a read issues the transfer twice.
func (d *TMC5240Driver) ReadReg(addr uint8) (uint32, error) {
	tx := []byte{addr | TMC5240_READ_BIT, 0, 0, 0, 0}
	rx := make([]byte, len(tx))
	if err := d.doTransfer(tx, rx); err != nil {
		return 0, err
	}
	if err := d.doTransfer(tx, rx); err != nil {
		return 0, err
	}
	return uint32(rx[1])<<24 | uint32(rx[2])<<16 | uint32(rx[3])<<8 | uint32(rx[4]), nil
}

func (d *TMC5240Driver) doTransfer(tx, rx []byte) error {
	gp := MustGPIO()
	_ = gp.SetPin(d.csPin, false)
	err := d.transfer(tx, rx)
	_ = gp.SetPin(d.csPin, true)
	return err
}

// Configure applies StealthChop and current defaults, run once at boot
// before the stepper ISR starts driving this axis.
func (d *TMC5240Driver) Configure() error {
	ihold := uint32(TMC5240_IHOLD_DEFAULT) | uint32(TMC5240_IRUN_DEFAULT)<<8 | uint32(TMC5240_IHOLDDELAY_DEFAULT)<<16
	if err := d.WriteReg(TMC5240_IHOLD_IRUN, ihold); err != nil {
		return err
	}
	if err := d.WriteReg(TMC5240_CHOPCONF, TMC5240_CHOPCONF_DEFAULT); err != nil {
		return err
	}
	return d.WriteReg(TMC5240_PWMCONF, TMC5240_PWMCONF_DEFAULT)
}
