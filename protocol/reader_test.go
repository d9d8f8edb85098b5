package protocol

import (
	"bytes"
	"strings"
	"testing"
)

func feed(s string) *FifoBuffer {
	fifo := NewFifoBuffer(512)
	fifo.Write([]byte(s))
	return fifo
}

func TestLineReaderStartup(t *testing.T) {
	r := NewLineReader(nil)
	src := feed("help\r")

	if r.State() != StateStartup {
		t.Fatalf("Expected startup state, got %s", r.State())
	}
	if r.Step(src) {
		t.Error("Startup step should not consume input")
	}
	if r.State() != StateAccumulating {
		t.Fatalf("Expected accumulating state, got %s", r.State())
	}
	if src.Buffered() != 5 {
		t.Errorf("Startup consumed input: %d bytes left", src.Buffered())
	}
}

func TestLineReaderLines(t *testing.T) {
	tests := []struct {
		input string
		line  string
	}{
		{input: "help\r", line: "help"},
		{input: "he\x08elp\r", line: "help"},
		{input: "hx\x7Fxelp\r", line: "hxelp"},
		{input: "\x08\x08help\r", line: "help"},
		{input: "conf\n\r", line: "conf"},
		{input: "ovp_mv 4200\r", line: "ovp_mv 4200"},
		{input: "\r", line: ""},
	}

	for _, test := range tests {
		r := NewLineReader(nil)
		src := feed(test.input)
		r.Step(src)
		r.Step(src)

		line, ok := r.Take()
		if !ok {
			t.Errorf("No line ready for %q", test.input)
			continue
		}
		if line != test.line {
			t.Errorf("Input %q: expected line %q, got %q", test.input, test.line, line)
		}
		if r.State() != StateAccumulating {
			t.Errorf("Take should re-arm the reader, state %s", r.State())
		}
	}
}

func TestLineReaderOverflowTruncates(t *testing.T) {
	r := NewLineReader(nil)
	src := feed(strings.Repeat("a", LineMax+50))
	r.Step(src)
	r.Step(src)

	line, ok := r.Take()
	if !ok {
		t.Fatal("Overflow should finalize the line")
	}
	if len(line) != LineMax-1 {
		t.Errorf("Expected truncated line of %d bytes, got %d", LineMax-1, len(line))
	}
	if src.Buffered() != 50 {
		t.Errorf("Bytes past the overflow should stay queued, %d left", src.Buffered())
	}
}

func TestLineReaderStopsAtLine(t *testing.T) {
	r := NewLineReader(nil)
	src := feed("conf\rstats\r")
	r.Step(src)
	r.Step(src)

	if !r.Ready() {
		t.Fatal("Expected a ready line")
	}
	if r.Step(src) {
		t.Error("Step in command state must not consume input")
	}

	first, _ := r.Take()
	r.Step(src)
	second, _ := r.Take()
	if first != "conf" || second != "stats" {
		t.Errorf("Expected conf/stats, got %q/%q", first, second)
	}
}

func TestLineReaderEcho(t *testing.T) {
	var echo bytes.Buffer
	r := NewLineReader(&echo)
	src := feed("ab\x08\r")
	r.Step(src)
	r.Step(src)

	if echo.String() != "ab\x08\r\n" {
		t.Errorf("Unexpected echo %q", echo.String())
	}
}

func TestLineReaderFeed(t *testing.T) {
	r := NewLineReader(nil)
	for _, ch := range []byte("save") {
		if r.Feed(ch) {
			t.Fatalf("Line completed early at %q", ch)
		}
	}
	if !r.Feed(CR) {
		t.Fatal("CR should complete the line")
	}
	line, _ := r.Take()
	if line != "save" {
		t.Errorf("Expected 'save', got %q", line)
	}
}
