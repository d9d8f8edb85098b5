package bms

// StatsSize is the encoded size of Stats in bytes, checksum included
const StatsSize = 133

// Stats is the accumulated-history record
type Stats struct {
	ADCGain   uint16 // µV/LSB
	ADCOffset int8   // mV

	BatCycles    uint16
	ChargedTimes uint16

	IDCellMin uint8 // cell id holding the lowest voltage
	IDCellMax uint8

	ErrorCounter    [ErrorKindCount]uint16
	ErrorTimestamps [ErrorKindCount]uint32 // uptime seconds of last occurrence

	CellIDMap    [MaxCells]uint8 // physical position of each cell id
	CellVoltages [MaxCells]uint16
	Temperatures [MaxThermistors]int16 // 0.1 °C

	IdleTimestamp   uint32
	ChargeTimestamp uint32

	Timestamp uint32 // set on every save
	CRC       uint8
}

// Size returns StatsSize
func (s *Stats) Size() int { return StatsSize }

// SetTimestamp sets the save timestamp
func (s *Stats) SetTimestamp(ts uint32) { s.Timestamp = ts }

// SetCRC sets the stored checksum
func (s *Stats) SetCRC(crc uint8) { s.CRC = crc }

// Reset zeroes the record
func (s *Stats) Reset() { *s = Stats{} }

// Count records one occurrence of an error kind at uptime ts
func (s *Stats) Count(kind ErrorKind, ts uint32) {
	if kind >= ErrorKindCount {
		return
	}
	if s.ErrorCounter[kind] != 0xFFFF {
		s.ErrorCounter[kind]++
	}
	s.ErrorTimestamps[kind] = ts
}

// MarshalBinary encodes the record in its fixed little-endian layout
func (s *Stats) MarshalBinary() ([]byte, error) {
	e := encoder{buf: make([]byte, StatsSize)}
	e.u16(s.ADCGain)
	e.i8(s.ADCOffset)
	e.u16(s.BatCycles)
	e.u16(s.ChargedTimes)
	e.u8(s.IDCellMin)
	e.u8(s.IDCellMax)
	for _, v := range s.ErrorCounter {
		e.u16(v)
	}
	for _, v := range s.ErrorTimestamps {
		e.u32(v)
	}
	for _, v := range s.CellIDMap {
		e.u8(v)
	}
	for _, v := range s.CellVoltages {
		e.u16(v)
	}
	for _, v := range s.Temperatures {
		e.i16(v)
	}
	e.u32(s.IdleTimestamp)
	e.u32(s.ChargeTimestamp)
	e.u32(s.Timestamp)
	e.u8(s.CRC)
	return e.buf, nil
}

// UnmarshalBinary decodes a record produced by MarshalBinary
func (s *Stats) UnmarshalBinary(data []byte) error {
	if len(data) < StatsSize {
		return ErrShortRecord
	}
	d := decoder{buf: data}
	s.ADCGain = d.u16()
	s.ADCOffset = d.i8()
	s.BatCycles = d.u16()
	s.ChargedTimes = d.u16()
	s.IDCellMin = d.u8()
	s.IDCellMax = d.u8()
	for i := range s.ErrorCounter {
		s.ErrorCounter[i] = d.u16()
	}
	for i := range s.ErrorTimestamps {
		s.ErrorTimestamps[i] = d.u32()
	}
	for i := range s.CellIDMap {
		s.CellIDMap[i] = d.u8()
	}
	for i := range s.CellVoltages {
		s.CellVoltages[i] = d.u16()
	}
	for i := range s.Temperatures {
		s.Temperatures[i] = d.i16()
	}
	s.IdleTimestamp = d.u32()
	s.ChargeTimestamp = d.u32()
	s.Timestamp = d.u32()
	s.CRC = d.u8()
	return nil
}
