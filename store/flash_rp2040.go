//go:build rp2040

package store

import (
	"machine"
)

// FlashEEPROM emulates an EEPROM in the rp2040 flash data area.
// Reads are served from a RAM shadow; every write rewrites the erase
// blocks backing the image.
type FlashEEPROM struct {
	shadow []byte
	blocks int64
}

// OpenFlash maps an EEPROM of size bytes at the start of the flash data area
func OpenFlash(size int) (*FlashEEPROM, error) {
	blockSize := machine.Flash.EraseBlockSize()
	blocks := (int64(size) + blockSize - 1) / blockSize
	if blocks*blockSize > machine.Flash.Size() {
		return nil, ErrOutOfRange
	}

	shadow := make([]byte, size)
	if _, err := machine.Flash.ReadAt(shadow, 0); err != nil {
		return nil, err
	}
	return &FlashEEPROM{shadow: shadow, blocks: blocks}, nil
}

func (e *FlashEEPROM) Size() int64 {
	return int64(len(e.shadow))
}

func (e *FlashEEPROM) ReadAt(p []byte, off int64) (int, error) {
	if err := checkRange(off, len(p), len(e.shadow)); err != nil {
		return 0, err
	}
	return copy(p, e.shadow[off:]), nil
}

func (e *FlashEEPROM) WriteAt(p []byte, off int64) (int, error) {
	if err := checkRange(off, len(p), len(e.shadow)); err != nil {
		return 0, err
	}
	copy(e.shadow[off:], p)
	if err := e.flush(); err != nil {
		return 0, err
	}
	return len(p), nil
}

// Fill sets every byte to b with a single erase and rewrite
func (e *FlashEEPROM) Fill(b byte) error {
	for i := range e.shadow {
		e.shadow[i] = b
	}
	return e.flush()
}

// flush rewrites the erase blocks backing the image from the shadow
func (e *FlashEEPROM) flush() error {
	if err := machine.Flash.EraseBlocks(0, e.blocks); err != nil {
		return err
	}

	// pad to the write block size
	wbs := machine.Flash.WriteBlockSize()
	n := (int64(len(e.shadow)) + wbs - 1) / wbs * wbs
	image := make([]byte, n)
	copy(image, e.shadow)
	for i := len(e.shadow); i < len(image); i++ {
		image[i] = Erased
	}
	_, err := machine.Flash.WriteAt(image, 0)
	return err
}
