package bq769x0

import (
	"errors"
	"strings"
	"testing"

	"bqconsole/bms"
	"bqconsole/protocol"
)

// fakeBus emulates the register file of a bq769x0
type fakeBus struct {
	regs    [0x60]byte
	crc     bool
	absent  bool
	corrupt bool
	writes  [][2]byte
}

func (b *fakeBus) Tx(addr uint16, w, r []byte) error {
	if b.absent {
		return nil
	}
	if len(r) > 0 {
		reg := int(w[0])
		if !b.crc {
			copy(r, b.regs[reg:])
			return nil
		}
		for i := 0; i < len(r)/2; i++ {
			data := b.regs[reg+i]
			var crc byte
			if i == 0 {
				crc = protocol.CRC8Update(0, byte(addr<<1)|1)
			}
			crc = protocol.CRC8Update(crc, data)
			if b.corrupt {
				crc ^= 0xFF
			}
			r[2*i] = data
			r[2*i+1] = crc
		}
		return nil
	}

	if b.crc {
		if len(w) != 3 {
			return errors.New("crc write without checksum")
		}
		want := protocol.CRC8([]byte{byte(addr << 1), w[0], w[1]})
		if w[2] != want {
			return errors.New("bad write crc")
		}
	}
	reg, val := w[0], w[1]
	b.writes = append(b.writes, [2]byte{reg, val})
	if reg == regSysStat {
		b.regs[reg] &^= val
		return nil
	}
	b.regs[reg] = val
	return nil
}

// rawFor returns the cell ADC code that reads back as mV with gain 380, offset 0
func rawFor(mV uint16) uint16 {
	return uint16((uint32(mV)*1000 + 379) / 380)
}

func (b *fakeBus) setCell(i int, mV uint16) {
	raw := rawFor(mV)
	b.regs[regVC1Hi+2*i] = byte(raw >> 8)
	b.regs[regVC1Hi+2*i+1] = byte(raw)
}

func (b *fakeBus) setWord(reg int, v uint16) {
	b.regs[reg] = byte(v >> 8)
	b.regs[reg+1] = byte(v)
}

// newDevice returns a started 5-cell device with gain 380 µV/LSB and
// every cell at 3700 mV, TS1 near 25 °C
func newDevice(t *testing.T, crc bool) (*Device, *fakeBus, *bms.Stats) {
	t.Helper()
	bus := &fakeBus{crc: crc}
	bus.regs[regADCGain1] = 0x04
	bus.regs[regADCGain2] = 0xE0
	for i := 0; i < 5; i++ {
		bus.setCell(i, 3700)
	}
	bus.setWord(regTS1Hi, 4319)

	d := New(bus, Config{Address: AddressDefault, Cells: 5, CRC: crc})
	st := &bms.Stats{}
	if err := d.Begin(st); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	return d, bus, st
}

func TestBegin(t *testing.T) {
	bus := &fakeBus{}
	bus.regs[regADCGain1] = 0x04
	bus.regs[regADCGain2] = 0x60
	bus.regs[regADCOffset] = 0xFE

	d := New(bus, Config{Address: AddressDefault, Cells: 15})
	var st bms.Stats
	if err := d.Begin(&st); err != nil {
		t.Fatalf("Begin failed: %v", err)
	}
	if st.ADCGain != 376 || st.ADCOffset != -2 {
		t.Errorf("Expected gain 376 offset -2, got %d %d", st.ADCGain, st.ADCOffset)
	}
	if bus.regs[regSysCtrl1] != ctrl1ADCEn|ctrl1TempSel {
		t.Errorf("Unexpected SYS_CTRL1 %#x", bus.regs[regSysCtrl1])
	}
	if bus.regs[regSysCtrl2] != ctrl2CCEn {
		t.Errorf("Unexpected SYS_CTRL2 %#x", bus.regs[regSysCtrl2])
	}
}

func TestBeginNoDevice(t *testing.T) {
	d := New(&fakeBus{absent: true}, DefaultConfig())
	if err := d.Begin(&bms.Stats{}); err != ErrNotFound {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	if err := DefaultConfig().Validate(); err != nil {
		t.Errorf("Default config invalid: %v", err)
	}
	if err := (Config{Address: AddressDefault, Cells: 16}).Validate(); err == nil {
		t.Error("16 cells accepted")
	}
}

func TestUpdateMeasurements(t *testing.T) {
	d, bus, st := newDevice(t, false)
	bus.setCell(2, 3600)
	bus.setCell(4, 3800)
	bus.setWord(regCCHi, 118)
	bus.regs[regSysStat] = byte(bms.FaultCCReady)

	faults, err := d.Update(10, st)
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if !faults.Has(bms.FaultCCReady) {
		t.Errorf("Expected CC_READY in %#x", faults)
	}
	if bus.regs[regSysStat] != 0 {
		t.Errorf("CC_READY not cleared: %#x", bus.regs[regSysStat])
	}

	if d.MinCellVoltage() != 3600 || d.MaxCellVoltage() != 3800 {
		t.Errorf("Unexpected min/max %d/%d", d.MinCellVoltage(), d.MaxCellVoltage())
	}
	if d.AvgCellVoltage() != 3700 {
		t.Errorf("Unexpected average %d", d.AvgCellVoltage())
	}
	if st.IDCellMin != 2 || st.IDCellMax != 4 || st.CellVoltages[4] != 3800 {
		t.Errorf("Stats not updated: %+v", st)
	}
	if d.Current() != 995 {
		t.Errorf("Expected 995 mA, got %d", d.Current())
	}
	if st.ChargeTimestamp != 10 || st.IdleTimestamp != 10 {
		t.Errorf("Activity timestamps not set: idle=%d charge=%d", st.IdleTimestamp, st.ChargeTimestamp)
	}
	if temp := d.Temperature(0); temp < 249 || temp > 251 {
		t.Errorf("Expected about 25.0 C, got %d", temp)
	}
}

func TestProtectionRegisters(t *testing.T) {
	d, bus, _ := newDevice(t, false)

	if got := d.SetShortCircuitProtection(80000, 200); got != 67000 {
		t.Errorf("SCD applied %d mA, expected 67000", got)
	}
	if bus.regs[regProtect1] != 0x91 {
		t.Errorf("Unexpected PROTECT1 %#x", bus.regs[regProtect1])
	}

	if got := d.SetOvercurrentDischargeProtection(40000, 2000); got != 39000 {
		t.Errorf("OCD applied %d mA, expected 39000", got)
	}
	if bus.regs[regProtect2] != 0x74 {
		t.Errorf("Unexpected PROTECT2 %#x", bus.regs[regProtect2])
	}

	if got := d.SetCellUndervoltageProtection(2850, 2); got != 2851 {
		t.Errorf("UV applied %d mV, expected 2851", got)
	}
	if got := d.SetCellOvervoltageProtection(4200, 2); got != 4198 {
		t.Errorf("OV applied %d mV, expected 4198", got)
	}
	if bus.regs[regUVTrip] != 0xD5 || bus.regs[regOVTrip] != 0xB2 {
		t.Errorf("Unexpected trip codes UV=%#x OV=%#x", bus.regs[regUVTrip], bus.regs[regOVTrip])
	}
	if bus.regs[regProtect3] != 0x50 {
		t.Errorf("Unexpected PROTECT3 %#x", bus.regs[regProtect3])
	}

	if got := d.SetOvercurrentChargeProtection(5500, 3000); got != 5500 {
		t.Errorf("Charge OCD returned %d", got)
	}
}

func TestUndervoltageLatch(t *testing.T) {
	d, bus, st := newDevice(t, false)
	d.SetCellUndervoltageProtection(2850, 2)

	bus.setCell(1, 2700)
	for i := 0; i < 3; i++ {
		bus.regs[regSysStat] |= byte(bms.FaultUV)
		faults, err := d.Update(uint32(100+i), st)
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if !faults.Has(bms.FaultUV) {
			t.Fatalf("Tick %d: UV not reported", i)
		}
	}
	if st.ErrorCounter[bms.ErrorUVP] != 1 || st.ErrorTimestamps[bms.ErrorUVP] != 100 {
		t.Errorf("UV counted %d times at %d, expected once at 100",
			st.ErrorCounter[bms.ErrorUVP], st.ErrorTimestamps[bms.ErrorUVP])
	}
	if bus.regs[regSysStat]&byte(bms.FaultUV) == 0 {
		t.Error("UV cleared while a cell is still below the limit")
	}

	bus.setCell(1, 3000)
	d.Update(200, st)
	if bus.regs[regSysStat]&byte(bms.FaultUV) != 0 {
		t.Error("UV not cleared after recovery")
	}
	if bus.regs[regSysCtrl2]&ctrl2DsgOn == 0 {
		t.Error("Discharging not re-enabled after recovery")
	}
}

func TestChargeTemperatureLimit(t *testing.T) {
	d, bus, st := newDevice(t, false)
	c := bms.DefaultConfig()
	c.ChargeTempMax = 200 // 20.0 C, below the 25 C reading
	d.Configure(&c)

	bus.regs[regSysCtrl2] |= ctrl2ChgOn
	bus.setWord(regCCHi, 118)
	bus.regs[regSysStat] = byte(bms.FaultCCReady)
	d.Update(5, st)

	if st.ErrorCounter[bms.ErrorUserChgTemp] != 1 {
		t.Errorf("Expected one charge temperature error, got %d", st.ErrorCounter[bms.ErrorUserChgTemp])
	}
	if bus.regs[regSysCtrl2]&ctrl2ChgOn != 0 {
		t.Error("Charging still enabled above the temperature limit")
	}
	if d.EnableCharging() {
		t.Error("EnableCharging succeeded above the temperature limit")
	}
}

func TestBalancing(t *testing.T) {
	d, bus, st := newDevice(t, false)
	bus.setCell(0, 3900)
	bus.setCell(1, 3900)
	bus.setCell(3, 3900)

	d.Update(2000, st)

	// cell 1 is adjacent to cell 0 and skipped
	if bus.regs[regCellBal1] != 0x09 {
		t.Errorf("Unexpected CELLBAL1 %#x", bus.regs[regCellBal1])
	}
	if d.Telemetry().BalancingStatus != 0x09 {
		t.Errorf("Unexpected balancing status %#x", d.Telemetry().BalancingStatus)
	}

	// not idle long enough
	st.IdleTimestamp = 1900
	d.Update(2000, st)
	if bus.regs[regCellBal1] != 0 {
		t.Errorf("Balancing not stopped: %#x", bus.regs[regCellBal1])
	}
}

func TestChargedTimes(t *testing.T) {
	d, bus, st := newDevice(t, false)
	for i := 0; i < 5; i++ {
		bus.setCell(i, 4190)
	}
	d.Update(1, st)
	d.Update(2, st)
	if st.ChargedTimes != 1 {
		t.Errorf("Expected one full charge, got %d", st.ChargedTimes)
	}
	if soc := d.SOC(); soc != 100 {
		t.Errorf("Expected SOC 100, got %v", soc)
	}
}

func TestShutdownSequence(t *testing.T) {
	d, bus, _ := newDevice(t, false)
	bus.writes = nil

	if err := d.Shutdown(); err != nil {
		t.Fatalf("Shutdown failed: %v", err)
	}
	want := [][2]byte{{regSysCtrl1, 0}, {regSysCtrl1, ctrl1ShutB}, {regSysCtrl1, ctrl1ShutA}}
	if len(bus.writes) != len(want) {
		t.Fatalf("Expected %d writes, got %v", len(want), bus.writes)
	}
	for i := range want {
		if bus.writes[i] != want[i] {
			t.Errorf("Write %d is %v, expected %v", i, bus.writes[i], want[i])
		}
	}
}

func TestCRCMode(t *testing.T) {
	d, bus, st := newDevice(t, true)
	if _, err := d.Update(1, st); err != nil {
		t.Fatalf("Update in CRC mode failed: %v", err)
	}
	if d.MaxCellVoltage() != 3700 {
		t.Errorf("Unexpected cell voltage %d", d.MaxCellVoltage())
	}

	bus.corrupt = true
	if _, err := d.Update(2, st); err != ErrCRC {
		t.Errorf("Expected ErrCRC, got %v", err)
	}
	if st.ErrorCounter[bms.ErrorXReady] != 1 {
		t.Errorf("Bus failure not counted: %d", st.ErrorCounter[bms.ErrorXReady])
	}
}

func TestPrintRegisters(t *testing.T) {
	d, bus, _ := newDevice(t, false)
	bus.regs[regProtect1] = 0x91

	var out strings.Builder
	d.PrintRegisters(&out)
	if !strings.Contains(out.String(), "0x06 PROTECT1   0x91 10010001") {
		t.Errorf("Unexpected dump:\n%s", out.String())
	}
}

func TestResetSOC(t *testing.T) {
	d, _, _ := newDevice(t, false)
	d.ResetSOC(50)
	if d.SOC() != 50 {
		t.Errorf("Expected 50%%, got %v", d.SOC())
	}
	d.ResetSOC(150)
	if d.SOC() != 100 {
		t.Errorf("Expected clamp to 100%%, got %v", d.SOC())
	}
}
