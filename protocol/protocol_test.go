package protocol

import (
	"strings"
	"testing"

	"grblgo/core"
	"grblgo/machine"
	"grblgo/settings"
)

func TestLineBufferSplitsOnTerminators(t *testing.T) {
	lb := NewLineBuffer()
	var lines []string
	for _, b := range []byte("G1X1\r\nG1Y1\n") {
		line, complete, err := lb.PushByte(b)
		if err != nil {
			t.Fatalf("PushByte: %v", err)
		}
		if complete {
			lines = append(lines, line)
		}
	}
	want := []string{"G1X1", "G1Y1"}
	if len(lines) != len(want) {
		t.Fatalf("got %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Fatalf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestLineBufferOverflow(t *testing.T) {
	lb := NewLineBuffer()
	var gotErr error
	for i := 0; i < maxLineLength+1; i++ {
		_, _, err := lb.PushByte('X')
		if err != nil {
			gotErr = err
		}
	}
	if gotErr == nil {
		t.Fatal("expected overflow error, got nil")
	}
}

func TestIsRealtimeByte(t *testing.T) {
	for _, b := range []byte{RealtimeSoftReset, RealtimeStatusReport, RealtimeCycleStart, RealtimeFeedHold, RealtimeJogCancel} {
		if !IsRealtimeByte(b) {
			t.Errorf("byte %#x should be realtime", b)
		}
	}
	if IsRealtimeByte('G') {
		t.Error("'G' must not be classified as realtime")
	}
}

func TestNVChecksumRoundTrip(t *testing.T) {
	var codec NVChecksum
	payload := []byte{1, 2, 3, 4, 5}
	record := codec.Encode(payload)
	got, err := codec.Decode(record)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got) != len(payload) {
		t.Fatalf("got %v, want %v", got, payload)
	}
	for i := range payload {
		if got[i] != payload[i] {
			t.Fatalf("byte %d = %d, want %d", i, got[i], payload[i])
		}
	}
}

func TestNVChecksumDetectsCorruption(t *testing.T) {
	var codec NVChecksum
	record := codec.Encode([]byte{1, 2, 3})
	record[0] ^= 0xff
	if _, err := codec.Decode(record); err != ErrChecksumMismatch {
		t.Fatalf("Decode: got %v, want ErrChecksumMismatch", err)
	}
}

func TestFifoBufferWrapAround(t *testing.T) {
	f := NewFifoBuffer(8)
	if n := f.Write([]byte("abcdefgh")); n != 7 {
		t.Fatalf("wrote %d bytes into a capacity-8 fifo, want 7", n)
	}
	var out [4]byte
	if n := f.Read(out[:]); n != 4 || string(out[:]) != "abcd" {
		t.Fatalf("read %d %q", n, out[:])
	}
	// The freed slots are reusable: this write wraps past the end.
	if n := f.Write([]byte("1234")); n != 4 {
		t.Fatalf("wrap write stored %d bytes, want 4", n)
	}
	var rest [7]byte
	if n := f.Read(rest[:]); n != 7 || string(rest[:]) != "efg1234" {
		t.Fatalf("drained %d %q", n, rest[:n])
	}
	if !f.IsEmpty() {
		t.Fatal("fifo should be empty after draining")
	}
}

// dispGPIO satisfies core.GPIODriver for dispatcher tests; motion is
// admitted but never serviced, so pins are never actually toggled.
type dispGPIO struct{}

func (dispGPIO) ConfigureOutput(core.GPIOPin) error        { return nil }
func (dispGPIO) ConfigureInputPullUp(core.GPIOPin) error   { return nil }
func (dispGPIO) ConfigureInputPullDown(core.GPIOPin) error { return nil }
func (dispGPIO) SetPin(core.GPIOPin, bool) error           { return nil }
func (dispGPIO) GetPin(core.GPIOPin) (bool, error)         { return false, nil }
func (dispGPIO) ReadPin(core.GPIOPin) bool                 { return false }

func newTestDispatcher() *Dispatcher {
	core.SetGPIODriver(dispGPIO{})
	m := machine.New(settings.NewDocument(), [3]core.GPIOPin{0, 1, 2}, [3]core.GPIOPin{3, 4, 5})
	return NewDispatcher(m)
}

func push(t *testing.T, d *Dispatcher, input string) []string {
	t.Helper()
	var responses []string
	for _, b := range []byte(input) {
		if resp, ok := d.PushByte(b); ok {
			responses = append(responses, strings.TrimRight(resp, "\n"))
		}
	}
	return responses
}

func TestDispatcherAcknowledgesGcodeLine(t *testing.T) {
	d := newTestDispatcher()
	resps := push(t, d, "G1 X10 F600\n")
	if len(resps) != 1 || resps[0] != "ok" {
		t.Fatalf("responses = %v, want [ok]", resps)
	}
	if d.Machine.RunState() != machine.StateCycle {
		t.Fatalf("expected Cycle after admitting motion, got %v", d.Machine.RunState())
	}
}

func TestDispatcherReportsParserError(t *testing.T) {
	d := newTestDispatcher()
	resps := push(t, d, "G1 X1 X2 F100\n")
	if len(resps) != 1 || !strings.HasPrefix(resps[0], "error:25") {
		t.Fatalf("responses = %v, want an error:25 line", resps)
	}
}

func TestDispatcherStatusReportFrame(t *testing.T) {
	d := newTestDispatcher()
	resp, ok := d.PushByte(RealtimeStatusReport)
	if !ok {
		t.Fatal("'?' should return a status frame immediately")
	}
	if !strings.HasPrefix(resp, "<Idle|MPos:") || !strings.Contains(resp, "|WCO:") {
		t.Fatalf("status frame = %q", resp)
	}
}

func TestDispatcherSettingWriteAndDump(t *testing.T) {
	d := newTestDispatcher()
	if resps := push(t, d, "$11=0.02\n"); len(resps) != 1 || resps[0] != "ok" {
		t.Fatalf("write responses = %v", resps)
	}
	resps := push(t, d, "$$\n")
	if len(resps) != 1 || !strings.Contains(resps[0], "$11=0.02") {
		t.Fatalf("dump did not echo the written setting: %v", resps)
	}
}

func TestDispatcherAlarmLockRejectsGcode(t *testing.T) {
	d := newTestDispatcher()
	d.Machine.System.State = machine.StateAlarm
	resps := push(t, d, "G1 X1 F100\n")
	if len(resps) != 1 || !strings.HasPrefix(resps[0], "error:8") {
		t.Fatalf("alarmed machine accepted g-code: %v", resps)
	}
	// `$`-commands stay available: $X unlocks.
	if resps := push(t, d, "$X\n"); len(resps) != 1 || resps[0] != "ok" {
		t.Fatalf("$X responses = %v", resps)
	}
	if d.Machine.RunState() != machine.StateIdle {
		t.Fatalf("expected Idle after $X, got %v", d.Machine.RunState())
	}
}
