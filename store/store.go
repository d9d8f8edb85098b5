// Package store persists fixed-size checksummed records in an EEPROM.
//
// Every record ends with a CRC-8 byte computed over all preceding bytes.
// A record whose checksum does not match is replaced by its defaults and
// written back immediately, so storage and memory never disagree.
package store

import (
	"encoding"
	"fmt"

	"bqconsole/core"
	"bqconsole/protocol"
)

// Record is a fixed-size value with a save timestamp and a trailing checksum
type Record interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler

	// Size returns the encoded size, checksum byte included
	Size() int
	SetTimestamp(ts uint32)
	SetCRC(crc uint8)
}

// Status reports the outcome of a Load
type Status uint8

const (
	StatusOK Status = iota
	StatusRecovered
)

func (s Status) String() string {
	if s == StatusRecovered {
		return "recovered"
	}
	return "ok"
}

// Store reads and writes records at fixed EEPROM addresses
type Store struct {
	dev   EEPROM
	clock func() uint32
}

// New creates a store on dev. clock supplies save timestamps; nil uses core.Millis.
func New(dev EEPROM, clock func() uint32) *Store {
	if clock == nil {
		clock = core.Millis
	}
	return &Store{dev: dev, clock: clock}
}

// Device returns the underlying EEPROM
func (s *Store) Device() EEPROM {
	return s.dev
}

// Save stamps rec, recomputes its checksum and writes it at addr
func (s *Store) Save(addr int64, rec Record) error {
	rec.SetTimestamp(s.clock())
	data, err := rec.MarshalBinary()
	if err != nil {
		return fmt.Errorf("encode record: %w", err)
	}
	if len(data) != rec.Size() {
		return fmt.Errorf("encode record: %d bytes, expected %d", len(data), rec.Size())
	}

	crc := protocol.CRC8(data[:len(data)-1])
	data[len(data)-1] = crc
	rec.SetCRC(crc)

	if _, err := s.dev.WriteAt(data, addr); err != nil {
		return fmt.Errorf("write record at %d: %w", addr, err)
	}
	return nil
}

// Load reads rec from addr. On checksum mismatch defaults repopulates rec,
// the result is saved and StatusRecovered is returned with a nil error.
// Only storage failures are returned as errors.
func (s *Store) Load(addr int64, rec Record, defaults func()) (Status, error) {
	data := make([]byte, rec.Size())
	if _, err := s.dev.ReadAt(data, addr); err != nil {
		return StatusOK, fmt.Errorf("read record at %d: %w", addr, err)
	}

	n := len(data)
	if protocol.CRC8(data[:n-1]) == data[n-1] {
		if err := rec.UnmarshalBinary(data); err != nil {
			return StatusOK, fmt.Errorf("decode record: %w", err)
		}
		return StatusOK, nil
	}

	core.LogPrintln("store: bad crc at " + core.Itoa(addr) + ", restoring defaults")
	defaults()
	if err := s.Save(addr, rec); err != nil {
		return StatusRecovered, err
	}
	return StatusRecovered, nil
}

// Filler is implemented by devices that can fill their whole range in one
// operation, such as flash where every write costs an erase cycle
type Filler interface {
	Fill(b byte) error
}

// Format fills the whole device with fill. progress, if set, is called
// for every chunk of FormatChunk bytes.
func Format(dev EEPROM, fill byte, progress func(off int64)) error {
	if f, ok := dev.(Filler); ok {
		if err := f.Fill(fill); err != nil {
			return fmt.Errorf("format: %w", err)
		}
		if progress != nil {
			for off := int64(0); off < dev.Size(); off += FormatChunk {
				progress(off)
			}
		}
		return nil
	}

	chunk := make([]byte, FormatChunk)
	for i := range chunk {
		chunk[i] = fill
	}

	size := dev.Size()
	for off := int64(0); off < size; off += FormatChunk {
		n := int64(FormatChunk)
		if off+n > size {
			n = size - off
		}
		if _, err := dev.WriteAt(chunk[:n], off); err != nil {
			return fmt.Errorf("format at %d: %w", off, err)
		}
		if progress != nil {
			progress(off)
		}
	}
	return nil
}
