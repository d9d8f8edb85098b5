package bq769x0

import (
	"errors"

	"bqconsole/protocol"
)

// ErrCRC is returned when a CRC-mode read fails its checksum
var ErrCRC = errors.New("bq769x0: bus crc mismatch")

// maxBlock is the largest block read: 15 cells, two bytes each
const maxBlock = 2 * 15

func (d *Device) writeRegister(reg, val byte) error {
	d.w[0] = reg
	d.w[1] = val
	if !d.crc {
		return d.i2c.Tx(d.addr, d.w[:2], nil)
	}
	crc := protocol.CRC8Update(0, byte(d.addr<<1))
	crc = protocol.CRC8Update(crc, reg)
	crc = protocol.CRC8Update(crc, val)
	d.w[2] = crc
	return d.i2c.Tx(d.addr, d.w[:3], nil)
}

func (d *Device) readRegister(reg byte) (byte, error) {
	var b [1]byte
	if err := d.readBlock(reg, b[:]); err != nil {
		return 0, err
	}
	return b[0], nil
}

// readBlock reads len(dst) consecutive registers starting at reg.
// In CRC mode every data byte is followed by its CRC; the first CRC also
// covers the read address.
func (d *Device) readBlock(reg byte, dst []byte) error {
	if len(dst) > maxBlock {
		return errors.New("bq769x0: block too long")
	}
	d.w[0] = reg
	if !d.crc {
		return d.i2c.Tx(d.addr, d.w[:1], dst)
	}

	raw := d.r[:2*len(dst)]
	if err := d.i2c.Tx(d.addr, d.w[:1], raw); err != nil {
		return err
	}
	for i := range dst {
		var crc byte
		if i == 0 {
			crc = protocol.CRC8Update(0, byte(d.addr<<1)|1)
		}
		crc = protocol.CRC8Update(crc, raw[2*i])
		if crc != raw[2*i+1] {
			return ErrCRC
		}
		dst[i] = raw[2*i]
	}
	return nil
}

func (d *Device) readWord(reg byte) (uint16, error) {
	var b [2]byte
	if err := d.readBlock(reg, b[:]); err != nil {
		return 0, err
	}
	return uint16(b[0])<<8 | uint16(b[1]), nil
}
