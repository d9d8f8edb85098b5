package store

import (
	"errors"
	"io"
	"sync"
)

// Erased is the value of an unwritten EEPROM cell
const Erased = 0xFF

var ErrOutOfRange = errors.New("eeprom access out of range")

// EEPROM is a byte-addressable non-volatile memory
type EEPROM interface {
	io.ReaderAt
	io.WriterAt

	// Size returns the capacity in bytes
	Size() int64
}

// MemEEPROM is an EEPROM held in RAM. It starts erased.
type MemEEPROM struct {
	mu     sync.Mutex
	data   []byte
	writes int
}

// NewMemEEPROM creates an erased memory EEPROM of size bytes
func NewMemEEPROM(size int) *MemEEPROM {
	data := make([]byte, size)
	for i := range data {
		data[i] = Erased
	}
	return &MemEEPROM{data: data}
}

func (m *MemEEPROM) Size() int64 {
	return int64(len(m.data))
}

func (m *MemEEPROM) ReadAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkRange(off, len(p), len(m.data)); err != nil {
		return 0, err
	}
	return copy(p, m.data[off:]), nil
}

func (m *MemEEPROM) WriteAt(p []byte, off int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := checkRange(off, len(p), len(m.data)); err != nil {
		return 0, err
	}
	m.writes++
	return copy(m.data[off:], p), nil
}

// Writes returns the number of WriteAt calls so far
func (m *MemEEPROM) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// Bytes returns the backing slice. Tests use it to corrupt records.
func (m *MemEEPROM) Bytes() []byte {
	return m.data
}

func checkRange(off int64, n, size int) error {
	if off < 0 || off+int64(n) > int64(size) {
		return ErrOutOfRange
	}
	return nil
}
