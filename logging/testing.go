package logging

import (
	"bytes"
	"testing"
)

// NewBufferedTestLogger returns an Info+ logger writing uncolored lines into the returned buffer.
// Tests use it to assert on the exact rendering of log lines.
func NewBufferedTestLogger(tb testing.TB) (Logger, *bytes.Buffer) {
	tb.Helper()
	var buf bytes.Buffer
	return newWriterLogger("", INFO, &buf, false), &buf
}
