// Package status defines the numeric status and alarm code namespaces
// returned by the parser, planner, and executor. Codes and their terse
// wording are transcribed from grbl/gcode.c's FAIL(...) call sites and
// grbl/system.h's alarm numbering.
package status

import "strconv"

// Code is a g-code line status. Zero means success.
type Code int

const (
	OK Code = 0

	ExpectedCommandLetter Code = 1
	BadNumberFormat       Code = 2
	InvalidStatement      Code = 3
	NegativeValue         Code = 4
	SettingDisabled       Code = 5
	SettingStepPulseMin   Code = 6
	SettingReadFail       Code = 7
	IdleError             Code = 8
	SystemGCLock          Code = 9
	SoftLimitError        Code = 10
	Overflow              Code = 11
	MaxStepRateExceeded   Code = 12
	CheckDoor             Code = 13
	LineLengthExceeded    Code = 14
	TravelExceeded        Code = 15
	InvalidJogCommand     Code = 16
	SettingDisabledLaser  Code = 17

	GcodeUnsupportedCommand      Code = 20
	GcodeModalGroupViolation     Code = 21
	GcodeUndefinedFeedRate       Code = 22
	GcodeCommandValueNotInteger  Code = 23
	GcodeAxisCommandConflict     Code = 24
	GcodeWordRepeated            Code = 25
	GcodeNoAxisWords             Code = 26
	GcodeInvalidLineNumber       Code = 27
	GcodeValueWordMissing        Code = 28
	GcodeUnsupportedCoordSys     Code = 29
	GcodeG53InvalidMotionMode    Code = 30
	GcodeAxisWordsExist          Code = 31
	GcodeNoAxisWordsInPlane      Code = 32
	GcodeInvalidTarget           Code = 33
	GcodeArcRadiusError          Code = 34
	GcodeNoOffsetsInPlane        Code = 35
	GcodeUnusedWords             Code = 36
	GcodeUnsupportedCommandValue Code = 37
	GcodeMaxValueExceeded        Code = 38
)

var messages = map[Code]string{
	OK:                           "ok",
	ExpectedCommandLetter:        "Expected command letter",
	BadNumberFormat:              "Bad number format",
	InvalidStatement:             "Invalid statement",
	NegativeValue:                "Value < 0",
	SettingDisabled:              "Setting disabled",
	SettingStepPulseMin:          "Value < 3 usec",
	SettingReadFail:              "EEPROM read fail. Using defaults",
	IdleError:                    "Not idle",
	SystemGCLock:                 "G-code lock",
	SoftLimitError:               "Homing not enabled",
	Overflow:                     "Line overflow",
	MaxStepRateExceeded:          "Max step rate exceeded",
	CheckDoor:                    "Check door",
	LineLengthExceeded:           "Line length exceeded",
	TravelExceeded:               "Travel exceeded",
	InvalidJogCommand:            "Invalid jog command",
	SettingDisabledLaser:         "Setting disabled in laser mode",
	GcodeUnsupportedCommand:      "Unsupported command",
	GcodeModalGroupViolation:     "Modal group violation",
	GcodeUndefinedFeedRate:       "Undefined feed rate",
	GcodeCommandValueNotInteger:  "Invalid gcode ID:23",
	GcodeAxisCommandConflict:     "Axis word/command conflict",
	GcodeWordRepeated:            "Word repeated",
	GcodeNoAxisWords:             "No axis words",
	GcodeInvalidLineNumber:       "Invalid line number",
	GcodeValueWordMissing:        "Value word missing",
	GcodeUnsupportedCoordSys:     "Unsupported coordinate system",
	GcodeG53InvalidMotionMode:    "G53 invalid motion mode",
	GcodeAxisWordsExist:          "Axis words exist",
	GcodeNoAxisWordsInPlane:      "No axis words in plane",
	GcodeInvalidTarget:           "Invalid target",
	GcodeArcRadiusError:          "Arc radius error",
	GcodeNoOffsetsInPlane:        "No offsets in plane",
	GcodeUnusedWords:             "Unused words",
	GcodeUnsupportedCommandValue: "Unsupported command value",
	GcodeMaxValueExceeded:        "Max value exceeded",
}

func (c Code) Error() string {
	if c == OK {
		return "ok"
	}
	if msg, ok := messages[c]; ok {
		return "error:" + strconv.Itoa(int(c)) + " (" + msg + ")"
	}
	return "error:" + strconv.Itoa(int(c))
}

// Alarm is an executor alarm code. Unlike Code, zero is reserved and never
// raised; any non-zero value puts the machine in the Alarm state.
type Alarm int

const (
	AlarmHardLimit          Alarm = 1
	AlarmSoftLimit          Alarm = 2
	AlarmAbortCycle         Alarm = 3
	AlarmProbeFailInitial   Alarm = 4
	AlarmProbeFailContact   Alarm = 5
	AlarmHomingFailReset    Alarm = 6
	AlarmHomingFailDoor     Alarm = 7
	AlarmHomingFailPulloff  Alarm = 8
	AlarmHomingFailApproach Alarm = 9
)

var alarmMessages = map[Alarm]string{
	AlarmHardLimit:          "Hard limit triggered",
	AlarmSoftLimit:          "Soft limit alarm",
	AlarmAbortCycle:         "Abort during cycle",
	AlarmProbeFailInitial:   "Probe fail (initial)",
	AlarmProbeFailContact:   "Probe fail (contact)",
	AlarmHomingFailReset:    "Homing fail (reset)",
	AlarmHomingFailDoor:     "Homing fail (door)",
	AlarmHomingFailPulloff:  "Homing fail (pulloff)",
	AlarmHomingFailApproach: "Homing fail (approach)",
}

func (a Alarm) Error() string {
	if msg, ok := alarmMessages[a]; ok {
		return "ALARM:" + strconv.Itoa(int(a)) + " (" + msg + ")"
	}
	return "ALARM:" + strconv.Itoa(int(a))
}
