package serial

import (
	"io"
	"strings"
	"testing"

	"bqconsole/protocol"
)

func drain(rx *Receiver) string {
	<-rx.Done()
	var sb strings.Builder
	for rx.Buffered() > 0 {
		b, err := rx.ReadByte()
		if err != nil {
			break
		}
		sb.WriteByte(b)
	}
	return sb.String()
}

func TestReceiverTranslatesNewline(t *testing.T) {
	rx := NewReceiver(strings.NewReader("help\nconf\n"), true)
	if got := drain(rx); got != "help\rconf\r" {
		t.Errorf("Expected CR line ends, got %q", got)
	}
	if rx.Err() != io.EOF {
		t.Errorf("Expected EOF, got %v", rx.Err())
	}
}

func TestReceiverRaw(t *testing.T) {
	rx := NewReceiver(strings.NewReader("a\nb\r"), false)
	if got := drain(rx); got != "a\nb\r" {
		t.Errorf("Expected raw bytes, got %q", got)
	}
	if _, err := rx.ReadByte(); err != protocol.ErrFifoEmpty {
		t.Errorf("Expected ErrFifoEmpty, got %v", err)
	}
}

func TestReceiverFeedsLineReader(t *testing.T) {
	rx := NewReceiver(strings.NewReader("stats\n"), true)
	<-rx.Done()

	r := protocol.NewLineReader(nil)
	r.Step(rx)
	r.Step(rx)
	line, ok := r.Take()
	if !ok || line != "stats" {
		t.Errorf("Expected line 'stats', got %q ok=%v", line, ok)
	}
}
