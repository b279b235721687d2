package protocol

import (
	"strconv"
	"strings"

	"grblgo/machine"
	"grblgo/settings"
	"grblgo/status"
)

// Dispatcher is the serial-facing front end: it classifies each
// incoming byte as realtime or line content, assembles lines with a
// LineBuffer, and routes completed lines to either the `$`-prefixed
// system command table or straight through to machine.Machine.Execute.
type Dispatcher struct {
	Machine *machine.Machine
	Store   settings.Store // optional; $RST=* persists through this if set

	line *LineBuffer
}

// NewDispatcher wires a Dispatcher around an already-constructed Machine.
func NewDispatcher(m *machine.Machine) *Dispatcher {
	return &Dispatcher{Machine: m, line: NewLineBuffer()}
}

// PushByte feeds one received byte. Realtime bytes act immediately and
// return a response only for '?' (a status report line); any other byte
// is accumulated until a line terminator completes it, at which point the
// line is dispatched and its response (always ending "\n") is returned.
func (d *Dispatcher) PushByte(b byte) (response string, hasResponse bool) {
	if IsRealtimeByte(b) {
		return d.handleRealtime(b)
	}
	text, complete, err := d.line.PushByte(b)
	if err != nil {
		return err.Error() + "\n", true
	}
	if !complete {
		return "", false
	}
	return d.handleLine(text) + "\n", true
}

func (d *Dispatcher) handleRealtime(b byte) (string, bool) {
	m := d.Machine
	switch b {
	case RealtimeSoftReset:
		m.Reset()
		d.line.Reset()
	case RealtimeStatusReport:
		return d.statusReport(), true
	case RealtimeCycleStart:
		m.ExecState.Set(machine.ExecCycleStart)
	case RealtimeFeedHold:
		m.ExecState.Set(machine.ExecFeedHold)
	case RealtimeJogCancel:
		m.ExecState.Set(machine.ExecMotionCancel)
	case RealtimeFeedOvrReset:
		m.ExecMotionOverride.Set(machine.ExecFeedOvrReset)
	case RealtimeFeedOvrCoarsePlus:
		m.ExecMotionOverride.Set(machine.ExecFeedOvrCoarsePlus)
	case RealtimeFeedOvrCoarseMinus:
		m.ExecMotionOverride.Set(machine.ExecFeedOvrCoarseMinus)
	case RealtimeFeedOvrFinePlus:
		m.ExecMotionOverride.Set(machine.ExecFeedOvrFinePlus)
	case RealtimeFeedOvrFineMinus:
		m.ExecMotionOverride.Set(machine.ExecFeedOvrFineMinus)
	case RealtimeRapidOvrReset:
		m.ExecMotionOverride.Set(machine.ExecRapidOvrReset)
	case RealtimeRapidOvrMedium:
		m.ExecMotionOverride.Set(machine.ExecRapidOvrMedium)
	case RealtimeRapidOvrLow:
		m.ExecMotionOverride.Set(machine.ExecRapidOvrLow)
	}
	return "", false
}

// statusReport renders a `<State|MPos:x,y,z|WCO:x,y,z>` frame. The
// override and buffer-state fields grbl also reports are left out:
// state and position are the two facts senders actually key on.
func (d *Dispatcher) statusReport() string {
	m := d.Machine
	pos := m.State.Position
	wco := m.State.WorkCoordinateOffset()
	var b strings.Builder
	b.WriteByte('<')
	b.WriteString(stateName(m.RunState()))
	b.WriteString("|MPos:")
	writeMM(&b, pos[0])
	b.WriteByte(',')
	writeMM(&b, pos[1])
	b.WriteByte(',')
	writeMM(&b, pos[2])
	b.WriteString("|WCO:")
	writeMM(&b, wco[0])
	b.WriteByte(',')
	writeMM(&b, wco[1])
	b.WriteByte(',')
	writeMM(&b, wco[2])
	b.WriteByte('>')
	return b.String()
}

func writeMM(b *strings.Builder, v float64) {
	b.WriteString(strconv.FormatFloat(v, 'f', 3, 64))
}

func stateName(s machine.State) string {
	switch s {
	case machine.StateIdle:
		return "Idle"
	case machine.StateAlarm:
		return "Alarm"
	case machine.StateCheckMode:
		return "Check"
	case machine.StateCycle:
		return "Run"
	case machine.StateHold:
		return "Hold"
	case machine.StateJog:
		return "Jog"
	case machine.StateSleep:
		return "Sleep"
	}
	return "Unknown"
}

// handleLine dispatches one complete, terminator-stripped line: `$`
// system commands, jog, or a bare g-code block. Returns "ok" or
// "error:<n>"/"ALARM:<n>".
func (d *Dispatcher) handleLine(raw string) string {
	line := strings.TrimSpace(raw)
	if line == "" {
		return "ok"
	}
	if line[0] == '$' {
		return d.handleSystemCommand(line)
	}
	if err := d.Machine.Execute(line); err != nil {
		return err.Error()
	}
	return "ok"
}

func (d *Dispatcher) handleSystemCommand(line string) string {
	m := d.Machine
	body := line[1:]

	switch {
	case body == "$": // `$$`: settings dump
		return d.dumpSettings()
	case body == "#": // `$#`: parameters (coordinate systems)
		return d.dumpParameters()
	case body == "G": // `$G`: parser state
		return d.dumpParserState()
	case body == "I": // `$I`: build info
		return "[VER:" + m.Doc.BuildInfo + "]\nok"
	case body == "N": // `$N`: startup lines
		return d.dumpStartupLines()
	case strings.HasPrefix(body, "N") && strings.ContainsRune(body, '='): // `$Nn=<line>`
		return d.writeStartupLine(body[1:])
	case body == "H": // `$H`: run homing cycle, Z first so the tool clears the work
		if err := m.Home(m.Limits, []int{2, 0, 1}); err != nil {
			return err.Error()
		}
		return "ok"
	case body == "C": // `$C`: toggle check mode
		return d.toggleCheckMode()
	case body == "X": // `$X`: unlock alarm
		m.Unlock()
		return "ok"
	case body == "SLP": // `$SLP`: sleep
		m.System.State = machine.StateSleep
		return "ok"
	case strings.HasPrefix(body, "J="): // `$J=<gcode>`: jog
		if err := m.Jog(body[2:]); err != nil {
			return err.Error()
		}
		return "ok"
	case strings.HasPrefix(body, "RST="):
		return d.handleRestore(body[4:])
	default:
		return d.handleSettingWrite(body)
	}
}

func (d *Dispatcher) handleSettingWrite(body string) string {
	eq := strings.IndexByte(body, '=')
	if eq < 0 {
		return status.InvalidStatement.Error()
	}
	n, err := strconv.Atoi(body[:eq])
	if err != nil {
		return status.InvalidStatement.Error()
	}
	v, err := strconv.ParseFloat(body[eq+1:], 64)
	if err != nil {
		return status.BadNumberFormat.Error()
	}
	if err := d.Machine.Doc.Settings.Set(n, v); err != nil {
		return status.SettingDisabled.Error()
	}
	return "ok"
}

// writeStartupLine handles `$Nn=<gcode>`, storing the line for replay at
// the next boot.
func (d *Dispatcher) writeStartupLine(body string) string {
	eq := strings.IndexByte(body, '=')
	n, err := strconv.Atoi(body[:eq])
	if err != nil || n < 0 || n >= settings.NumStartupLines {
		return status.InvalidStatement.Error()
	}
	d.Machine.Doc.StartupLines[n] = body[eq+1:]
	if d.Store != nil {
		if err := d.Store.Save(d.Machine.Doc); err != nil {
			return status.SettingReadFail.Error()
		}
	}
	return "ok"
}

func (d *Dispatcher) handleRestore(arg string) string {
	m := d.Machine
	switch arg {
	case "*":
		*m.Doc = *settings.NewDocument()
		m.State.CoordSystem = m.Doc.CoordSystems
	case "$":
		m.Doc.Settings = settings.Default()
	case "#":
		m.Doc.CoordSystems = [settings.NumCoordSystems][3]float64{}
		m.State.CoordSystem = m.Doc.CoordSystems
		m.State.CoordOffset = [3]float64{}
	default:
		return status.InvalidStatement.Error()
	}
	if d.Store != nil {
		if err := d.Store.Save(m.Doc); err != nil {
			return status.SettingReadFail.Error()
		}
	}
	return "ok"
}

func (d *Dispatcher) toggleCheckMode() string {
	m := d.Machine
	if m.RunState() == machine.StateCheckMode {
		m.System.State = machine.StateIdle
	} else if m.RunState() == machine.StateIdle {
		m.System.State = machine.StateCheckMode
	} else {
		return status.IdleError.Error()
	}
	return "ok"
}

func (d *Dispatcher) dumpSettings() string {
	var b strings.Builder
	for n := 0; n < 200; n++ {
		v, ok := d.Machine.Doc.Settings.Get(n)
		if !ok {
			continue
		}
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
		b.WriteByte('=')
		b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		b.WriteByte('\n')
	}
	b.WriteString("ok")
	return b.String()
}

func (d *Dispatcher) dumpParameters() string {
	var b strings.Builder
	for i, wcs := range d.Machine.Doc.CoordSystems {
		b.WriteString("[G")
		b.WriteString(strconv.Itoa(54 + i))
		b.WriteByte(':')
		writeMM(&b, wcs[0])
		b.WriteByte(',')
		writeMM(&b, wcs[1])
		b.WriteByte(',')
		writeMM(&b, wcs[2])
		b.WriteString("]\n")
	}
	b.WriteString("ok")
	return b.String()
}

func (d *Dispatcher) dumpParserState() string {
	modal := d.Machine.State.Modal
	var b strings.Builder
	b.WriteString("[GC:G")
	b.WriteString(strconv.Itoa(modal.Motion / 10))
	b.WriteString(" G")
	b.WriteString(strconv.Itoa(modal.CoordSystem / 10))
	b.WriteString(" G")
	b.WriteString(strconv.Itoa(modal.Plane / 10))
	b.WriteString(" G")
	b.WriteString(strconv.Itoa(modal.Distance / 10))
	b.WriteString(" G")
	b.WriteString(strconv.Itoa(modal.FeedRateMode / 10))
	b.WriteString(" G")
	b.WriteString(strconv.Itoa(modal.Units / 10))
	b.WriteString("]\nok")
	return b.String()
}

func (d *Dispatcher) dumpStartupLines() string {
	var b strings.Builder
	for i, l := range d.Machine.Doc.StartupLines {
		b.WriteByte('$')
		b.WriteString("N")
		b.WriteString(strconv.Itoa(i))
		b.WriteByte('=')
		b.WriteString(l)
		b.WriteByte('\n')
	}
	b.WriteString("ok")
	return b.String()
}
