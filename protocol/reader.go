package protocol

// ReaderState is the state of the console input state machine
type ReaderState uint8

const (
	StateStartup ReaderState = iota
	StateAccumulating
	StateCommand
)

func (s ReaderState) String() string {
	switch s {
	case StateStartup:
		return "startup"
	case StateAccumulating:
		return "accumulating"
	case StateCommand:
		return "command"
	default:
		return "unknown"
	}
}

// LineReader turns a raw character stream into complete command lines.
// Every consumed byte is echoed; CR is echoed as CR LF.
type LineReader struct {
	state ReaderState
	line  LineBuffer
	echo  ByteSink
}

// NewLineReader creates a reader in the startup state. echo may be nil
func NewLineReader(echo ByteSink) *LineReader {
	return &LineReader{state: StateStartup, echo: echo}
}

// State returns the current state
func (r *LineReader) State() ReaderState {
	return r.state
}

// Ready reports whether a complete line is waiting to be taken
func (r *LineReader) Ready() bool {
	return r.state == StateCommand
}

// Step advances the state machine without blocking.
// In the accumulating state it drains src until it is empty or a line
// completes. Returns true when at least one byte was consumed.
func (r *LineReader) Step(src ByteSource) bool {
	switch r.state {
	case StateStartup:
		r.state = StateAccumulating
		return false
	case StateCommand:
		return false
	}

	consumed := false
	for src.Buffered() > 0 {
		ch, err := src.ReadByte()
		if err != nil {
			break
		}
		consumed = true
		r.echoByte(ch)

		switch ch {
		case BackSpace, Delete:
			r.line.RemoveLast()
			continue
		case LF:
			continue
		case CR:
			r.state = StateCommand
			return consumed
		}

		r.line.Append(ch)
		if r.line.Full() {
			// last slot becomes the terminator
			r.line.RemoveLast()
			r.state = StateCommand
			return consumed
		}
	}
	return consumed
}

// Feed pushes a single byte through the accumulating state.
// Returns true when the byte completed a line.
func (r *LineReader) Feed(ch byte) bool {
	if r.state == StateStartup {
		r.state = StateAccumulating
	}
	if r.state != StateAccumulating {
		return false
	}
	var one oneByte
	one.set(ch)
	r.Step(&one)
	return r.state == StateCommand
}

// Take returns the completed line and re-arms the reader.
// Returns false when no line is ready.
func (r *LineReader) Take() (string, bool) {
	if r.state != StateCommand {
		return "", false
	}
	s := r.line.String()
	r.line.Reset()
	r.state = StateAccumulating
	return s, true
}

func (r *LineReader) echoByte(ch byte) {
	if r.echo == nil {
		return
	}
	_ = r.echo.WriteByte(ch)
	if ch == CR {
		_ = r.echo.WriteByte(LF)
	}
}

// oneByte is a single-shot ByteSource
type oneByte struct {
	b    byte
	full bool
}

func (o *oneByte) set(b byte) { o.b, o.full = b, true }

func (o *oneByte) Buffered() int {
	if o.full {
		return 1
	}
	return 0
}

func (o *oneByte) ReadByte() (byte, error) {
	if !o.full {
		return 0, ErrFifoEmpty
	}
	o.full = false
	return o.b, nil
}
