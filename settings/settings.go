// Package settings holds the machine's non-volatile state: the
// `$`-settings table, work coordinate systems, startup lines, and
// build-info string, normally EEPROM-backed. Persistence sits behind a
// Store interface so the motion pipeline never assumes a particular
// medium.
package settings

import "errors"

const (
	NumAxes         = 3
	NumCoordSystems = 6 // G54..G59
	NumStartupLines = 2
	SettingsVersion = 10
)

// Table holds the typed, decoded view of the `$`-settings, keeping
// grbl's numbering (step pulse length, per-axis steps/mm, max rate, max
// acceleration, max travel, junction deviation, arc tolerance, homing and
// soft/hard limit configuration). A grbl reimplementation keeps these as a
// flat numbered array; this module keeps the numbering in Get() / Set()
// for `$$`/`$<n>=<v>` while storing the decoded values as named fields so
// the parser and planner never parse setting numbers themselves.
type Table struct {
	StepPulseMicroseconds float64
	StepIdleDelayMS       float64

	StepsPerMM   [NumAxes]float64
	MaxRateMMMin [NumAxes]float64
	MaxAccel     [NumAxes]float64 // mm/min^2
	MaxTravelMM  [NumAxes]float64

	JunctionDeviationMM float64
	ArcToleranceMM      float64

	SoftLimitsEnabled bool
	HardLimitsEnabled bool
	HomingEnabled     bool
	HomingDirInvert   uint8
	HomingFeedMMMin   float64
	HomingSeekMMMin   float64
	HomingDebounceMS  float64
	HomingPulloffMM   float64

	StepInvertMask   uint8
	DirInvertMask    uint8
	StepEnableInvert bool
	LimitPinsInvert  bool

	SpindleRPMMax float64
	SpindleRPMMin float64
	LaserMode     bool
}

// Default returns a table matching grbl's shipped defaults for a small
// 3-axis CNC (values taken from grbl/config.h's DEFAULT_* macros).
func Default() Table {
	return Table{
		StepPulseMicroseconds: 10,
		StepIdleDelayMS:       25,
		StepsPerMM:            [NumAxes]float64{250, 250, 250},
		MaxRateMMMin:          [NumAxes]float64{500, 500, 500},
		MaxAccel:              [NumAxes]float64{10 * 60 * 60, 10 * 60 * 60, 10 * 60 * 60},
		MaxTravelMM:           [NumAxes]float64{200, 200, 200},
		JunctionDeviationMM:   0.01,
		ArcToleranceMM:        0.002,
		SoftLimitsEnabled:     false,
		HardLimitsEnabled:     false,
		HomingEnabled:         false,
		HomingFeedMMMin:       25,
		HomingSeekMMMin:       500,
		HomingDebounceMS:      250,
		HomingPulloffMM:       1,
		SpindleRPMMax:         1000,
		SpindleRPMMin:         0,
	}
}

// settingIndex identifies one `$N` slot for Get/Set.
const (
	SettingStepPulse         = 0
	SettingStepIdleDelay     = 1
	SettingJunctionDeviation = 11
	SettingArcTolerance      = 12
	SettingSoftLimits        = 20
	SettingHardLimits        = 21
	SettingHomingEnable      = 22
	SettingHomingDirInvert   = 23
	SettingHomingFeed        = 24
	SettingHomingSeek        = 25
	SettingHomingDebounce    = 26
	SettingHomingPulloff     = 27
	SettingSpindleRPMMax     = 30
	SettingSpindleRPMMin     = 31
	SettingLaserMode         = 32
	// 100+axis, 110+axis, 120+axis, 130+axis: per-axis steps/mm, max rate,
	// accel, max travel, exactly as grbl numbers them.
	SettingStepsPerMMBase = 100
	SettingMaxRateBase    = 110
	SettingMaxAccelBase   = 120
	SettingMaxTravelBase  = 130
)

func boolToF(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Get reads setting number n, matching the `$$` dump and `$<n>` read forms.
func (t *Table) Get(n int) (float64, bool) {
	switch {
	case n == SettingStepPulse:
		return t.StepPulseMicroseconds, true
	case n == SettingStepIdleDelay:
		return t.StepIdleDelayMS, true
	case n == SettingJunctionDeviation:
		return t.JunctionDeviationMM, true
	case n == SettingArcTolerance:
		return t.ArcToleranceMM, true
	case n == SettingSoftLimits:
		return boolToF(t.SoftLimitsEnabled), true
	case n == SettingHardLimits:
		return boolToF(t.HardLimitsEnabled), true
	case n == SettingHomingEnable:
		return boolToF(t.HomingEnabled), true
	case n == SettingHomingDirInvert:
		return float64(t.HomingDirInvert), true
	case n == SettingHomingFeed:
		return t.HomingFeedMMMin, true
	case n == SettingHomingSeek:
		return t.HomingSeekMMMin, true
	case n == SettingHomingDebounce:
		return t.HomingDebounceMS, true
	case n == SettingHomingPulloff:
		return t.HomingPulloffMM, true
	case n == SettingSpindleRPMMax:
		return t.SpindleRPMMax, true
	case n == SettingSpindleRPMMin:
		return t.SpindleRPMMin, true
	case n == SettingLaserMode:
		return boolToF(t.LaserMode), true
	case n >= SettingStepsPerMMBase && n < SettingStepsPerMMBase+NumAxes:
		return t.StepsPerMM[n-SettingStepsPerMMBase], true
	case n >= SettingMaxRateBase && n < SettingMaxRateBase+NumAxes:
		return t.MaxRateMMMin[n-SettingMaxRateBase], true
	case n >= SettingMaxAccelBase && n < SettingMaxAccelBase+NumAxes:
		return t.MaxAccel[n-SettingMaxAccelBase], true
	case n >= SettingMaxTravelBase && n < SettingMaxTravelBase+NumAxes:
		return t.MaxTravelMM[n-SettingMaxTravelBase], true
	}
	return 0, false
}

// Set writes setting number n, matching `$<n>=<v>`. The round-trip property
// holds: Set(n,v) followed by Get(n) returns v for every n Get
// reports as valid.
func (t *Table) Set(n int, v float64) error {
	switch {
	case n == SettingStepPulse:
		t.StepPulseMicroseconds = v
	case n == SettingStepIdleDelay:
		t.StepIdleDelayMS = v
	case n == SettingJunctionDeviation:
		t.JunctionDeviationMM = v
	case n == SettingArcTolerance:
		t.ArcToleranceMM = v
	case n == SettingSoftLimits:
		t.SoftLimitsEnabled = v != 0
	case n == SettingHardLimits:
		t.HardLimitsEnabled = v != 0
	case n == SettingHomingEnable:
		t.HomingEnabled = v != 0
	case n == SettingHomingDirInvert:
		t.HomingDirInvert = uint8(v)
	case n == SettingHomingFeed:
		t.HomingFeedMMMin = v
	case n == SettingHomingSeek:
		t.HomingSeekMMMin = v
	case n == SettingHomingDebounce:
		t.HomingDebounceMS = v
	case n == SettingHomingPulloff:
		t.HomingPulloffMM = v
	case n == SettingSpindleRPMMax:
		t.SpindleRPMMax = v
	case n == SettingSpindleRPMMin:
		t.SpindleRPMMin = v
	case n == SettingLaserMode:
		t.LaserMode = v != 0
	case n >= SettingStepsPerMMBase && n < SettingStepsPerMMBase+NumAxes:
		t.StepsPerMM[n-SettingStepsPerMMBase] = v
	case n >= SettingMaxRateBase && n < SettingMaxRateBase+NumAxes:
		t.MaxRateMMMin[n-SettingMaxRateBase] = v
	case n >= SettingMaxAccelBase && n < SettingMaxAccelBase+NumAxes:
		t.MaxAccel[n-SettingMaxAccelBase] = v
	case n >= SettingMaxTravelBase && n < SettingMaxTravelBase+NumAxes:
		t.MaxTravelMM[n-SettingMaxTravelBase] = v
	default:
		return errors.New("setting disabled")
	}
	return nil
}

// Document is the full non-volatile record: settings table, coordinate
// systems, startup lines, and build info, mirroring NV layout
// (minus the per-record byte offsets and XOR checksums, which are a
// protocol.NVChecksum concern applied when a Store serializes this).
type Document struct {
	Version      int
	Settings     Table
	CoordSystems [NumCoordSystems][3]float64
	StartupLines [NumStartupLines]string
	BuildInfo    string
}

// NewDocument returns a document with default settings and empty tables.
func NewDocument() *Document {
	return &Document{Version: SettingsVersion, Settings: Default()}
}

// Store is the non-volatile persistence contract, deliberately outside
// the firmware's core scope. Neither Store implementations nor their
// callers check whether the stepper is active: the dispatcher saves on
// `$N=` and `$RST=` without first draining the motion buffers.
type Store interface {
	Load() (*Document, error)
	Save(doc *Document) error
}
