package core

// TMC5240 register map, the subset this firmware touches. The chip's
// internal ramp generator and encoder blocks are unused here - motion
// comes in over step/dir from the stepper ISR - so only the SPI access
// bits, current/chopper configuration, and the diagnostic status
// registers are carried. Addresses per the TMC5240 datasheet rev 1.09.
const (
	TMC5240_GCONF  = 0x00 // global configuration flags
	TMC5240_GSTAT  = 0x01 // global status flags
	TMC5240_IFCNT  = 0x02 // interface transmission counter
	TMC5240_IOIN   = 0x04 // input pin states
	TMC5240_OUTPUT = 0x05 // output pin control

	TMC5240_DRV_CONF      = 0x0A // driver configuration
	TMC5240_GLOBAL_SCALER = 0x0B // global current scaler

	TMC5240_IHOLD_IRUN = 0x10 // run/hold current control
	TMC5240_TPOWERDOWN = 0x11 // delay after standstill
	TMC5240_TSTEP      = 0x12 // measured time between steps (read only)
	TMC5240_TPWMTHRS   = 0x13 // upper velocity for StealthChop

	TMC5240_CHOPCONF   = 0x6C // chopper configuration
	TMC5240_DRV_STATUS = 0x6F // driver status flags, current read-back
	TMC5240_PWMCONF    = 0x70 // StealthChop PWM configuration
	TMC5240_PWM_SCALE  = 0x71 // PWM scale value (read only)
	TMC5240_SG4_THRS   = 0x74 // StallGuard4 threshold
	TMC5240_SG4_RESULT = 0x75 // StallGuard4 result (read only)
)

// GCONF bits.
const (
	TMC5240_GCONF_EN_PWM_MODE    = 1 << 2 // enable StealthChop PWM mode
	TMC5240_GCONF_MULTISTEP_FILT = 1 << 3 // step input filtering
	TMC5240_GCONF_SHAFT          = 1 << 4 // inverse motor direction
	TMC5240_GCONF_DIAG0_ERROR    = 1 << 5 // DIAG0 active on driver errors
	TMC5240_GCONF_DIAG0_OTPW     = 1 << 6 // DIAG0 active on overtemperature
	TMC5240_GCONF_DIAG0_STALL    = 1 << 7 // DIAG0 active on stall
)

// DRV_STATUS bits, the driver fault surface worth surfacing as trace
// output when an axis misbehaves.
const (
	TMC5240_DRV_STATUS_SG_RESULT  = 0x3FF      // StallGuard result mask
	TMC5240_DRV_STATUS_S2VSA      = 1 << 12    // short to supply, phase A
	TMC5240_DRV_STATUS_S2VSB      = 1 << 13    // short to supply, phase B
	TMC5240_DRV_STATUS_STEALTH    = 1 << 14    // StealthChop active
	TMC5240_DRV_STATUS_CS_ACTUAL  = 0x1F << 16 // actual current scaling
	TMC5240_DRV_STATUS_STALLGUARD = 1 << 24    // StallGuard status
	TMC5240_DRV_STATUS_OT         = 1 << 25    // overtemperature
	TMC5240_DRV_STATUS_OTPW       = 1 << 26    // overtemperature pre-warning
	TMC5240_DRV_STATUS_S2GA       = 1 << 27    // short to ground, phase A
	TMC5240_DRV_STATUS_S2GB       = 1 << 28    // short to ground, phase B
	TMC5240_DRV_STATUS_OLA        = 1 << 29    // open load, phase A
	TMC5240_DRV_STATUS_OLB        = 1 << 30    // open load, phase B
	TMC5240_DRV_STATUS_STST       = 1 << 31    // standstill
)

// SPI datagram access bits.
const (
	TMC5240_WRITE_BIT = 0x80
	TMC5240_READ_BIT  = 0x00
)

// Boot defaults applied by TMC5240Driver.Configure. Current values suit a
// NEMA17-class motor at the driver's full scale; installations with
// smaller motors lower IRUN first.
const (
	TMC5240_IHOLD_DEFAULT      = 10 // standstill current (0-31)
	TMC5240_IRUN_DEFAULT       = 31 // run current (0-31)
	TMC5240_IHOLDDELAY_DEFAULT = 10 // ramp-down delay to hold current

	TMC5240_CHOPCONF_DEFAULT = 0x000100C3 // TOFF=3, HSTRT=4, HEND=1, TBL=2
	TMC5240_PWMCONF_DEFAULT  = 0xC10D0024 // PWM_FREQ=1, autoscale+autograd
)
