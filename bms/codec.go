package bms

import (
	"encoding/binary"
	"errors"
)

// ErrShortRecord is returned when decoding from fewer bytes than a record needs
var ErrShortRecord = errors.New("record too short")

// encoder writes fixed-width little-endian fields into a preallocated buffer
type encoder struct {
	buf []byte
	off int
}

func (e *encoder) u8(v uint8) {
	e.buf[e.off] = v
	e.off++
}

func (e *encoder) i8(v int8) { e.u8(uint8(v)) }

func (e *encoder) flag(v bool) {
	if v {
		e.u8(1)
	} else {
		e.u8(0)
	}
}

func (e *encoder) u16(v uint16) {
	binary.LittleEndian.PutUint16(e.buf[e.off:], v)
	e.off += 2
}

func (e *encoder) i16(v int16) { e.u16(uint16(v)) }

func (e *encoder) u32(v uint32) {
	binary.LittleEndian.PutUint32(e.buf[e.off:], v)
	e.off += 4
}

func (e *encoder) i32(v int32) { e.u32(uint32(v)) }

// decoder mirrors encoder
type decoder struct {
	buf []byte
	off int
}

func (d *decoder) u8() uint8 {
	v := d.buf[d.off]
	d.off++
	return v
}

func (d *decoder) i8() int8 { return int8(d.u8()) }

func (d *decoder) flag() bool { return d.u8() != 0 }

func (d *decoder) u16() uint16 {
	v := binary.LittleEndian.Uint16(d.buf[d.off:])
	d.off += 2
	return v
}

func (d *decoder) i16() int16 { return int16(d.u16()) }

func (d *decoder) u32() uint32 {
	v := binary.LittleEndian.Uint32(d.buf[d.off:])
	d.off += 4
	return v
}

func (d *decoder) i32() int32 { return int32(d.u32()) }
