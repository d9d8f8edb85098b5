package bq769x0

import (
	"math"

	"bqconsole/bms"
)

// coulomb counter LSB, nV across the shunt
const ccLSBNanoVolt = 8440

// thermistor ADC LSB, µV; the divider is fed from 3.3 V over 10 kΩ
const (
	tsLSBMicroVolt = 382
	tsSupplyMV     = 3300
	tsPullupOhm    = 10000
	tsNominalOhm   = 10000
)

// currents below this are treated as offset noise
const currentDeadbandMA = 10

func (d *Device) updateCurrent(now uint32, st *bms.Stats) error {
	raw, err := d.readWord(regCCHi)
	if err != nil {
		return err
	}
	cc := int16(raw)
	mA := int32(int64(cc) * ccLSBNanoVolt / int64(d.set.shuntMicroOhm))
	if mA > -currentDeadbandMA && mA < currentDeadbandMA {
		mA = 0
	}
	d.currentMA = mA
	d.telemetry.Current = mA
	d.telemetry.CurrentRaw = cc

	delta := int64(mA) * pollMillis / 1000
	d.coulombs += delta
	if d.coulombs < 0 {
		d.coulombs = 0
	}
	if c := int64(d.set.capacityMAsec); d.coulombs > c {
		d.coulombs = c
	}

	if delta < 0 {
		d.discharged -= delta
		if capacity := int64(d.set.capacityMAsec); capacity > 0 && d.discharged >= capacity {
			d.discharged -= capacity
			st.BatCycles++
		}
	}

	idle := int32(d.set.idleCurrentMA)
	if mA > idle || mA < -idle {
		st.IdleTimestamp = now
	}
	if mA > idle {
		st.ChargeTimestamp = now
	}
	return nil
}

func (d *Device) updateVoltages(st *bms.Stats) error {
	var block [maxBlock]byte
	data := block[:2*d.cells]
	if err := d.readBlock(regVC1Hi, data); err != nil {
		return err
	}

	d.idMin, d.idMax = 0, 0
	for i := 0; i < d.cells; i++ {
		raw := uint16(data[2*i]&0x3F)<<8 | uint16(data[2*i+1])
		mv := int32(raw)*int32(d.gain)/1000 + int32(d.offset) + int32(d.set.cellOffsets[i])
		if mv < 0 {
			mv = 0
		}
		d.cellMV[i] = uint16(mv)
		d.telemetry.CellVoltagesRaw[i] = raw
		st.CellVoltages[i] = uint16(mv)
		st.CellIDMap[i] = uint8(i)

		if d.cellMV[i] < d.cellMV[d.idMin] {
			d.idMin = i
		}
		if d.cellMV[i] > d.cellMV[d.idMax] {
			d.idMax = i
		}
	}
	st.IDCellMin = uint8(d.idMin)
	st.IDCellMax = uint8(d.idMax)

	raw, err := d.readWord(regBatHi)
	if err != nil {
		return err
	}
	pack := 4*int64(d.gain)*int64(raw)/1000 + int64(d.cells)*int64(d.offset)
	if pack < 0 {
		pack = 0
	}
	d.packMV = uint32(pack)
	d.telemetry.PackVoltage = d.packMV
	d.telemetry.PackVoltageRaw = raw
	return nil
}

// thermistors returns the number of TS inputs on this device variant
func (d *Device) thermistors() int {
	return (d.cells + 4) / 5
}

func (d *Device) updateTemperatures(st *bms.Stats) error {
	for i := 0; i < d.thermistors(); i++ {
		if d.set.thermistorMask&(1<<i) == 0 {
			continue
		}
		raw, err := d.readWord(regTS1Hi + byte(2*i))
		if err != nil {
			return err
		}
		d.temps[i] = thermistorTenths(raw&0x3FFF, d.set.beta[i])
		st.Temperatures[i] = d.temps[i]
	}
	return nil
}

// thermistorTenths converts a TS ADC reading to 0.1 °C using the beta model
func thermistorTenths(raw uint16, beta uint16) int16 {
	vts := float64(raw) * tsLSBMicroVolt / 1000
	if vts <= 0 || vts >= tsSupplyMV || beta == 0 {
		return math.MinInt16
	}
	rts := tsPullupOhm * vts / (tsSupplyMV - vts)
	kelvin := 1 / (1/298.15 + math.Log(rts/tsNominalOhm)/float64(beta))
	return int16(math.Round((kelvin - 273.15) * 10))
}

func (d *Device) tempsWithin(min, max int16) bool {
	for i := 0; i < d.thermistors(); i++ {
		if d.set.thermistorMask&(1<<i) == 0 {
			continue
		}
		if d.temps[i] < min || d.temps[i] > max {
			return false
		}
	}
	return true
}

// checkUser enforces the limits the device has no register for:
// charge and discharge temperature windows and the charge overcurrent.
func (d *Device) checkUser(now uint32, st *bms.Stats) {
	idle := int32(d.set.idleCurrentMA)

	if d.currentMA > idle && !d.tempsWithin(d.set.chargeTempMin, d.set.chargeTempMax) {
		if d.userLatched&userChgTemp == 0 {
			st.Count(bms.ErrorUserChgTemp, now)
			d.userLatched |= userChgTemp
		}
		d.DisableCharging()
	}
	if d.currentMA < -idle && !d.tempsWithin(d.set.dischargeTempMin, d.set.dischargeTempMax) {
		if d.userLatched&userDischgTemp == 0 {
			st.Count(bms.ErrorUserDischgTemp, now)
			d.userLatched |= userDischgTemp
		}
		d.DisableDischarging()
	}

	if d.currentMA > d.set.ocdMilliAmps {
		d.ocdOverMs += pollMillis
		if d.ocdOverMs >= uint32(d.set.ocdMillis) {
			if d.userLatched&userChgOCD == 0 {
				st.Count(bms.ErrorUserChgOCD, now)
				d.userLatched |= userChgOCD
			}
			d.DisableCharging()
			d.ocdOverMs = 0
		}
	} else {
		d.ocdOverMs = 0
	}
}

// updateBalancing selects the cells to bleed. Adjacent cells in one group
// of five are never balanced together.
func (d *Device) updateBalancing(now uint32, st *bms.Stats) {
	var want uint16
	minMV, maxMV := d.MinCellVoltage(), d.MaxCellVoltage()

	idle := now-st.IdleTimestamp >= uint32(d.set.balanceIdleSec)
	charging := d.set.balanceInCharge && d.currentMA > int32(d.set.idleCurrentMA)
	if d.set.balanceEnable && (idle || charging) &&
		maxMV > d.set.balanceCellMinMV && maxMV-minMV > uint16(d.set.balanceMaxDiffMV) {
		for i := 0; i < d.cells; i++ {
			if d.cellMV[i] <= minMV+uint16(d.set.balanceMaxDiffMV) {
				continue
			}
			if i%5 != 0 && want&(1<<(i-1)) != 0 {
				continue
			}
			want |= 1 << i
		}
	}

	if want == d.balancing {
		return
	}
	for g := 0; g < 3; g++ {
		bits := byte(want>>(5*g)) & 0x1F
		if err := d.writeRegister(regCellBal1+byte(g), bits); err != nil {
			return
		}
	}
	d.balancing = want
	d.telemetry.BalancingStatus = want
}

// updateCycles counts every transition into the fully charged state
func (d *Device) updateCycles(st *bms.Stats) {
	maxMV := d.MaxCellVoltage()
	if !d.full && maxMV >= d.set.cellFullMV {
		d.full = true
		st.ChargedTimes++
		d.coulombs = int64(d.set.capacityMAsec)
	} else if d.full && maxMV < d.set.cellNominalMV {
		d.full = false
	}
}

// MinCellVoltage returns the lowest cell voltage, mV
func (d *Device) MinCellVoltage() uint16 {
	return d.cellMV[d.idMin]
}

// MaxCellVoltage returns the highest cell voltage, mV
func (d *Device) MaxCellVoltage() uint16 {
	return d.cellMV[d.idMax]
}

// AvgCellVoltage returns the mean cell voltage, mV
func (d *Device) AvgCellVoltage() uint16 {
	var sum uint32
	for i := 0; i < d.cells; i++ {
		sum += uint32(d.cellMV[i])
	}
	return uint16(sum / uint32(d.cells))
}

// Temperature returns thermistor ch in 0.1 °C
func (d *Device) Temperature(ch int) int16 {
	if ch < 0 || ch >= bms.MaxThermistors {
		return 0
	}
	return d.temps[ch]
}

// Current returns the last pack current, mA, positive while charging
func (d *Device) Current() int32 {
	return d.currentMA
}

// Telemetry returns the last measurement snapshot
func (d *Device) Telemetry() bms.Telemetry {
	return d.telemetry
}
