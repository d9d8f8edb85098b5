package bq769x0

import "bqconsole/core"

// largestAtMost returns the index of the largest table entry not above v,
// or 0 when v is below every entry
func largestAtMost(table []uint16, v uint64) int {
	for i := len(table) - 1; i > 0; i-- {
		if v >= uint64(table[i]) {
			return i
		}
	}
	return 0
}

// smallestAtLeast returns the index of the smallest entry not below v,
// or the last index when v exceeds every entry
func smallestAtLeast(table []uint8, v uint8) int {
	for i, t := range table {
		if t >= v {
			return i
		}
	}
	return len(table) - 1
}

// shuntMilliVolts converts a current to the voltage across the shunt
func (d *Device) shuntMilliVolts(mA uint32) uint64 {
	return uint64(mA) * uint64(d.set.shuntMicroOhm) / 1000000
}

func (d *Device) shuntMilliAmps(mV uint16) uint32 {
	return uint32(uint64(mV) * 1000000 / uint64(d.set.shuntMicroOhm))
}

// SetShortCircuitProtection programs PROTECT1 and returns the applied
// threshold in mA
func (d *Device) SetShortCircuitProtection(mA uint32, us uint16) uint32 {
	thresh := largestAtMost(scdThresholds[:], d.shuntMilliVolts(mA))
	delay := largestAtMost(scdDelays[:], uint64(us))

	if err := d.writeRegister(regProtect1, protect1RSNS|byte(delay)<<3|byte(thresh)); err != nil {
		core.DebugPrintln("bq769x0: PROTECT1 write failed: " + err.Error())
		return 0
	}
	return d.shuntMilliAmps(scdThresholds[thresh])
}

// SetOvercurrentDischargeProtection programs PROTECT2 and returns the
// applied threshold in mA
func (d *Device) SetOvercurrentDischargeProtection(mA uint32, ms uint16) uint32 {
	thresh := largestAtMost(ocdThresholds[:], d.shuntMilliVolts(mA))
	delay := largestAtMost(ocdDelays[:], uint64(ms))

	if err := d.writeRegister(regProtect2, byte(delay)<<4|byte(thresh)); err != nil {
		core.DebugPrintln("bq769x0: PROTECT2 write failed: " + err.Error())
		return 0
	}
	return d.shuntMilliAmps(ocdThresholds[thresh])
}

// SetOvercurrentChargeProtection sets the software charge current limit.
// The device has no charge overcurrent comparator.
func (d *Device) SetOvercurrentChargeProtection(mA int32, ms uint16) int32 {
	d.set.ocdMilliAmps = mA
	d.set.ocdMillis = ms
	return mA
}

// tripCode maps a cell voltage onto the 8 significant bits of the ADC code
// used by the UV_TRIP/OV_TRIP registers. base is the fixed upper part.
func (d *Device) tripCode(mV uint16, base int32) int32 {
	code := (int32(mV)-int32(d.offset))*1000/int32(d.gain)>>4 - base
	if code < 0 {
		return 0
	}
	if code > 0xFF {
		return 0xFF
	}
	return code
}

func (d *Device) tripMilliVolts(adc int32) uint16 {
	return uint16(adc*int32(d.gain)/1000 + int32(d.offset))
}

func (d *Device) setProtect3(mask, bits byte) error {
	v, err := d.readRegister(regProtect3)
	if err != nil {
		return err
	}
	return d.writeRegister(regProtect3, v&^mask|bits)
}

// SetCellUndervoltageProtection programs UV_TRIP and the UV delay and
// returns the applied threshold in mV. The delay is rounded up to the
// next supported value.
func (d *Device) SetCellUndervoltageProtection(mV uint16, sec uint8) uint16 {
	code := d.tripCode(mV, 0x100)
	if code < 0xFF {
		code++ // round up
	}
	if err := d.writeRegister(regUVTrip, byte(code)); err != nil {
		core.DebugPrintln("bq769x0: UV_TRIP write failed: " + err.Error())
		return 0
	}
	delay := smallestAtLeast(uvDelays[:], sec)
	if err := d.setProtect3(0xC0, byte(delay)<<6); err != nil {
		core.DebugPrintln("bq769x0: PROTECT3 write failed: " + err.Error())
		return 0
	}
	d.set.uvpMV = mV
	return d.tripMilliVolts(0x1000 | code<<4)
}

// SetCellOvervoltageProtection programs OV_TRIP and the OV delay and
// returns the applied threshold in mV
func (d *Device) SetCellOvervoltageProtection(mV uint16, sec uint8) uint16 {
	code := d.tripCode(mV, 0x200)
	if err := d.writeRegister(regOVTrip, byte(code)); err != nil {
		core.DebugPrintln("bq769x0: OV_TRIP write failed: " + err.Error())
		return 0
	}
	delay := smallestAtLeast(ovDelays[:], sec)
	if err := d.setProtect3(0x30, byte(delay)<<4); err != nil {
		core.DebugPrintln("bq769x0: PROTECT3 write failed: " + err.Error())
		return 0
	}
	d.set.ovpMV = mV
	return d.tripMilliVolts(0x2008 | code<<4)
}
