package protocol

import "grblgo/status"

// maxLineLength bounds a single buffered line, matching grbl's
// LINE_BUFFER_SIZE; a line exceeding it returns status.LineLengthExceeded
// instead of silently truncating or growing unbounded.
const maxLineLength = 256

// LineBuffer assembles incoming bytes into complete '\n'/'\r'-terminated
// ASCII lines. Realtime bytes never reach it - the RX path
// (Dispatcher.PushByte) intercepts those first via IsRealtimeByte, so
// LineBuffer only ever sees ordinary line content.
type LineBuffer struct {
	buf   []byte
	sawCR bool
}

// NewLineBuffer returns an empty line assembler.
func NewLineBuffer() *LineBuffer {
	return &LineBuffer{buf: make([]byte, 0, maxLineLength)}
}

// PushByte feeds one byte. complete is true when b terminated a line, in
// which case line holds its content (without the terminator). A '\r'
// immediately followed by '\n' is treated as a single terminator; the
// reverse order "\n\r" yields an extra empty line. err is status.LineLengthExceeded if the line exceeded
// maxLineLength before a terminator arrived; the partial line is dropped.
func (lb *LineBuffer) PushByte(b byte) (line string, complete bool, err error) {
	if b == '\n' || b == '\r' {
		if len(lb.buf) == 0 && lb.sawCR && b == '\n' {
			lb.sawCR = false
			return "", false, nil
		}
		line = string(lb.buf)
		lb.buf = lb.buf[:0]
		lb.sawCR = b == '\r'
		return line, true, nil
	}
	lb.sawCR = false
	if len(lb.buf) >= maxLineLength {
		lb.buf = lb.buf[:0]
		return "", false, status.LineLengthExceeded
	}
	lb.buf = append(lb.buf, b)
	return "", false, nil
}

// Reset discards any partially-accumulated line, used on a realtime soft
// reset.
func (lb *LineBuffer) Reset() {
	lb.buf = lb.buf[:0]
	lb.sawCR = false
}
