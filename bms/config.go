package bms

// ConfigSize is the encoded size of Config in bytes, checksum included
const ConfigSize = 83

// Config is the operating-parameter record.
// Temperatures are in 0.1 °C, currents in mA, voltages in mV.
type Config struct {
	Debug            bool
	AllowCharging    bool
	AllowDischarging bool

	ThermistorMask uint8 // bit i enables thermistor i
	ShuntMicroOhm  uint32
	ThermistorBeta [MaxThermistors]uint16

	CellNominalMV uint16
	CellFullMV    uint16
	CapacityMAsec int32 // nominal pack capacity, mA·s
	IdleCurrentMA uint16

	ChargeTempMin    int16
	ChargeTempMax    int16
	DischargeTempMin int16
	DischargeTempMax int16

	BalanceInCharge  bool
	BalanceEnable    bool
	BalanceCellMinMV uint16
	BalanceMaxDiffMV uint8
	BalanceIdleSec   uint16

	OCDMilliAmps  int32 // overcurrent in charge, checked in software
	OCDMillis     uint16
	SCDMilliAmps  uint32
	SCDMicros     uint16
	ODPMilliAmps  uint32
	ODPMillis     uint16
	OVPMilliVolts uint16
	OVPSeconds    uint8
	UVPMilliVolts uint16
	UVPSeconds    uint8

	CellOffsets [MaxCells]int8 // per-cell ADC offset, mV

	Timestamp uint32 // set on every save
	CRC       uint8
}

// DefaultConfig returns the factory configuration
func DefaultConfig() Config {
	return Config{
		Debug:            false,
		AllowCharging:    true,
		AllowDischarging: true,

		ThermistorMask: 1<<MaxThermistors - 1,
		ShuntMicroOhm:  1000,
		ThermistorBeta: [MaxThermistors]uint16{3435, 3435, 3435},

		CellNominalMV: 3600,
		CellFullMV:    4180,
		CapacityMAsec: 360000,
		IdleCurrentMA: 100,

		ChargeTempMin:    0,
		ChargeTempMax:    500,
		DischargeTempMin: -200,
		DischargeTempMax: 650,

		BalanceInCharge:  true,
		BalanceEnable:    true,
		BalanceCellMinMV: 3600,
		BalanceMaxDiffMV: 10,
		BalanceIdleSec:   1800,

		OCDMilliAmps:  5500,
		OCDMillis:     3000,
		SCDMilliAmps:  80000,
		SCDMicros:     200,
		ODPMilliAmps:  40000,
		ODPMillis:     2000,
		OVPMilliVolts: 4200,
		OVPSeconds:    2,
		UVPMilliVolts: 2850,
		UVPSeconds:    2,
	}
}

// Size returns ConfigSize
func (c *Config) Size() int { return ConfigSize }

// SetTimestamp sets the save timestamp
func (c *Config) SetTimestamp(ts uint32) { c.Timestamp = ts }

// SetCRC sets the stored checksum
func (c *Config) SetCRC(crc uint8) { c.CRC = crc }

// Reset restores the factory configuration
func (c *Config) Reset() { *c = DefaultConfig() }

// MarshalBinary encodes the record in its fixed little-endian layout.
// The last byte is the stored CRC field as is.
func (c *Config) MarshalBinary() ([]byte, error) {
	e := encoder{buf: make([]byte, ConfigSize)}
	e.flag(c.Debug)
	e.flag(c.AllowCharging)
	e.flag(c.AllowDischarging)
	e.u8(c.ThermistorMask)
	e.u32(c.ShuntMicroOhm)
	for _, b := range c.ThermistorBeta {
		e.u16(b)
	}
	e.u16(c.CellNominalMV)
	e.u16(c.CellFullMV)
	e.i32(c.CapacityMAsec)
	e.u16(c.IdleCurrentMA)
	e.i16(c.ChargeTempMin)
	e.i16(c.ChargeTempMax)
	e.i16(c.DischargeTempMin)
	e.i16(c.DischargeTempMax)
	e.flag(c.BalanceInCharge)
	e.flag(c.BalanceEnable)
	e.u16(c.BalanceCellMinMV)
	e.u8(c.BalanceMaxDiffMV)
	e.u16(c.BalanceIdleSec)
	e.i32(c.OCDMilliAmps)
	e.u16(c.OCDMillis)
	e.u32(c.SCDMilliAmps)
	e.u16(c.SCDMicros)
	e.u32(c.ODPMilliAmps)
	e.u16(c.ODPMillis)
	e.u16(c.OVPMilliVolts)
	e.u8(c.OVPSeconds)
	e.u16(c.UVPMilliVolts)
	e.u8(c.UVPSeconds)
	for _, o := range c.CellOffsets {
		e.i8(o)
	}
	e.u32(c.Timestamp)
	e.u8(c.CRC)
	return e.buf, nil
}

// UnmarshalBinary decodes a record produced by MarshalBinary.
// The checksum is not verified here.
func (c *Config) UnmarshalBinary(data []byte) error {
	if len(data) < ConfigSize {
		return ErrShortRecord
	}
	d := decoder{buf: data}
	c.Debug = d.flag()
	c.AllowCharging = d.flag()
	c.AllowDischarging = d.flag()
	c.ThermistorMask = d.u8()
	c.ShuntMicroOhm = d.u32()
	for i := range c.ThermistorBeta {
		c.ThermistorBeta[i] = d.u16()
	}
	c.CellNominalMV = d.u16()
	c.CellFullMV = d.u16()
	c.CapacityMAsec = d.i32()
	c.IdleCurrentMA = d.u16()
	c.ChargeTempMin = d.i16()
	c.ChargeTempMax = d.i16()
	c.DischargeTempMin = d.i16()
	c.DischargeTempMax = d.i16()
	c.BalanceInCharge = d.flag()
	c.BalanceEnable = d.flag()
	c.BalanceCellMinMV = d.u16()
	c.BalanceMaxDiffMV = d.u8()
	c.BalanceIdleSec = d.u16()
	c.OCDMilliAmps = d.i32()
	c.OCDMillis = d.u16()
	c.SCDMilliAmps = d.u32()
	c.SCDMicros = d.u16()
	c.ODPMilliAmps = d.u32()
	c.ODPMillis = d.u16()
	c.OVPMilliVolts = d.u16()
	c.OVPSeconds = d.u8()
	c.UVPMilliVolts = d.u16()
	c.UVPSeconds = d.u8()
	for i := range c.CellOffsets {
		c.CellOffsets[i] = d.i8()
	}
	c.Timestamp = d.u32()
	c.CRC = d.u8()
	return nil
}
