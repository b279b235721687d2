package send

import (
	"bufio"
	"bytes"
	"strings"
	"testing"
)

// fakePort feeds canned controller output to the Sender and records what
// the Sender wrote.
type fakePort struct {
	in  *bytes.Buffer
	out bytes.Buffer
}

func (p *fakePort) Read(b []byte) (int, error)  { return p.in.Read(b) }
func (p *fakePort) Write(b []byte) (int, error) { return p.out.Write(b) }
func (p *fakePort) Close() error                { return nil }
func (p *fakePort) Flush() error                { return nil }

func newTestSender(response string) (*Sender, *fakePort) {
	port := &fakePort{in: bytes.NewBufferString(response)}
	return &Sender{port: port, scanner: bufio.NewScanner(port)}, port
}

func TestSendLineOK(t *testing.T) {
	s, port := newTestSender("ok\n")
	resp, err := s.SendLine("G1 X10 F600")
	if err != nil {
		t.Fatalf("SendLine: %v", err)
	}
	if !resp.OK {
		t.Fatalf("expected ok, got %+v", resp)
	}
	if got := port.out.String(); got != "G1 X10 F600\n" {
		t.Fatalf("wrote %q", got)
	}
}

func TestSendLineError(t *testing.T) {
	s, _ := newTestSender("error:20\n")
	resp, err := s.SendLine("G99")
	if err != nil {
		t.Fatalf("SendLine: %v", err)
	}
	if resp.OK || resp.Error != 20 {
		t.Fatalf("expected error:20, got %+v", resp)
	}
}

func TestSendLineRoutesPushLines(t *testing.T) {
	s, _ := newTestSender("<Idle|MPos:0.000,0.000,0.000>\nok\n")
	var pushed []string
	s.OnPush = func(line string) { pushed = append(pushed, line) }

	resp, err := s.SendLine("G4 P0")
	if err != nil || !resp.OK {
		t.Fatalf("SendLine: %v %+v", err, resp)
	}
	if len(pushed) != 1 || !strings.HasPrefix(pushed[0], "<Idle") {
		t.Fatalf("pushed = %v", pushed)
	}
}

func TestStreamStopsAtAlarm(t *testing.T) {
	s, _ := newTestSender("ok\nALARM:1\n")
	prog := "G1 X1 F100\nG1 X2\nG1 X3\n"
	line, err := s.Stream(strings.NewReader(prog))
	if err == nil {
		t.Fatal("expected the stream to stop on an alarm")
	}
	if line != 2 {
		t.Fatalf("stopped at line %d, want 2", line)
	}
}

func TestStreamSkipsCommentsAndBlanks(t *testing.T) {
	s, port := newTestSender("ok\nok\n")
	prog := "; header comment\n\nG1 X1 F100\n(inline note)\nG1 X2\n"
	if _, err := s.Stream(strings.NewReader(prog)); err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if got := port.out.String(); got != "G1 X1 F100\nG1 X2\n" {
		t.Fatalf("wrote %q", got)
	}
}
