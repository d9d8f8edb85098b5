//go:build !tinygo

package store

import (
	"errors"
	"fmt"
	"io"
	"os"
)

// FileEEPROM is an EEPROM image kept in a host file
type FileEEPROM struct {
	f    *os.File
	size int64
}

// OpenFile opens or creates an EEPROM image of size bytes at path.
// A new or short image is extended with erased cells.
func OpenFile(path string, size int64) (*FileEEPROM, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open eeprom image: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat eeprom image: %w", err)
	}

	if have := info.Size(); have < size {
		pad := make([]byte, size-have)
		for i := range pad {
			pad[i] = Erased
		}
		if _, err := f.WriteAt(pad, have); err != nil {
			f.Close()
			return nil, fmt.Errorf("extend eeprom image: %w", err)
		}
	}
	return &FileEEPROM{f: f, size: size}, nil
}

func (e *FileEEPROM) Size() int64 {
	return e.size
}

func (e *FileEEPROM) ReadAt(p []byte, off int64) (int, error) {
	if err := checkRange(off, len(p), int(e.size)); err != nil {
		return 0, err
	}
	n, err := e.f.ReadAt(p, off)
	if errors.Is(err, io.EOF) && n == len(p) {
		err = nil
	}
	return n, err
}

func (e *FileEEPROM) WriteAt(p []byte, off int64) (int, error) {
	if err := checkRange(off, len(p), int(e.size)); err != nil {
		return 0, err
	}
	n, err := e.f.WriteAt(p, off)
	if err != nil {
		return n, err
	}
	return n, e.f.Sync()
}

func (e *FileEEPROM) Close() error {
	return e.f.Close()
}
