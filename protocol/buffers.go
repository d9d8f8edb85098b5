package protocol

import "errors"

var ErrFifoEmpty = errors.New("fifo empty")

// ByteSource is a non-blocking character source (UART, USB CDC, FIFO)
type ByteSource interface {
	// Buffered returns the number of bytes ready to be read
	Buffered() int

	// ReadByte returns the next byte; only valid when Buffered() > 0
	ReadByte() (byte, error)
}

// ByteSink is a character sink used for echo and console output
type ByteSink interface {
	WriteByte(c byte) error
	Write(p []byte) (int, error)
}

// LineBuffer is a fixed-capacity line buffer with bounds-checked edits
type LineBuffer struct {
	buf [LineMax]byte
	n   int
}

// Append stores b at the end of the line; false when the buffer is full
func (l *LineBuffer) Append(b byte) bool {
	if l.n >= len(l.buf) {
		return false
	}
	l.buf[l.n] = b
	l.n++
	return true
}

// RemoveLast drops the last stored byte; false on an empty line
func (l *LineBuffer) RemoveLast() bool {
	if l.n == 0 {
		return false
	}
	l.n--
	l.buf[l.n] = 0
	return true
}

// Truncate shortens the line to n bytes. Larger n is a no-op
func (l *LineBuffer) Truncate(n int) {
	if n < 0 {
		n = 0
	}
	for l.n > n {
		l.n--
		l.buf[l.n] = 0
	}
}

// Full reports whether every slot is used
func (l *LineBuffer) Full() bool {
	return l.n == len(l.buf)
}

// Len returns the number of stored bytes
func (l *LineBuffer) Len() int {
	return l.n
}

// Cap returns the buffer capacity
func (l *LineBuffer) Cap() int {
	return len(l.buf)
}

// Bytes returns the stored bytes; valid until the next edit
func (l *LineBuffer) Bytes() []byte {
	return l.buf[:l.n]
}

// String returns a copy of the line
func (l *LineBuffer) String() string {
	return string(l.buf[:l.n])
}

// Reset clears the line
func (l *LineBuffer) Reset() {
	l.Truncate(0)
}

// FifoBuffer is a circular buffer for serial I/O
type FifoBuffer struct {
	buf   []byte
	read  int
	write int
	size  int
}

// NewFifoBuffer creates a new FifoBuffer with the specified capacity
func NewFifoBuffer(capacity int) *FifoBuffer {
	return &FifoBuffer{
		buf:  make([]byte, capacity),
		size: capacity,
	}
}

// Write appends data to the FIFO buffer
func (f *FifoBuffer) Write(data []byte) int {
	written := 0
	for _, b := range data {
		nextWrite := (f.write + 1) % f.size
		if nextWrite == f.read {
			// Buffer full
			break
		}
		f.buf[f.write] = b
		f.write = nextWrite
		written++
	}
	return written
}

// Read reads up to len(data) bytes from the FIFO buffer
func (f *FifoBuffer) Read(data []byte) int {
	read := 0
	for i := range data {
		if f.read == f.write {
			break
		}
		data[i] = f.buf[f.read]
		f.read = (f.read + 1) % f.size
		read++
	}
	return read
}

// ReadByte pops a single byte
func (f *FifoBuffer) ReadByte() (byte, error) {
	if f.read == f.write {
		return 0, ErrFifoEmpty
	}
	b := f.buf[f.read]
	f.read = (f.read + 1) % f.size
	return b, nil
}

// Available returns the number of bytes available for reading
func (f *FifoBuffer) Available() int {
	if f.write >= f.read {
		return f.write - f.read
	}
	return f.size - f.read + f.write
}

// Buffered is Available under the ByteSource name
func (f *FifoBuffer) Buffered() int {
	return f.Available()
}

// Free returns the number of bytes available for writing
func (f *FifoBuffer) Free() int {
	return f.size - f.Available() - 1
}

// IsEmpty returns true if the buffer is empty
func (f *FifoBuffer) IsEmpty() bool {
	return f.read == f.write
}

// Reset clears the buffer
func (f *FifoBuffer) Reset() {
	f.read = 0
	f.write = 0
}
