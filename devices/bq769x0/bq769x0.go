// Package bq769x0 drives the TI bq76920/bq76930/bq76940 battery monitor
// over I2C.
//
// The driver keeps the live measurements (cell voltages, pack current,
// temperatures, coulomb count) and updates the statistics record on every
// poll. Protection thresholds are programmed into the device; charge
// temperature limits and the charge overcurrent limit are enforced in
// software.
package bq769x0

import (
	"errors"
	"fmt"
	"io"

	"tinygo.org/x/drivers"

	"bqconsole/bms"
	"bqconsole/core"
)

var ErrNotFound = errors.New("bq769x0: device not responding")

// Config describes the wiring of one device
type Config struct {
	Address uint16
	Cells   int  // 5, 10 or 15 cells connected
	CRC     bool // bus CRC variant
}

// DefaultConfig is a bq76940 at the default address without bus CRC
func DefaultConfig() Config {
	return Config{
		Address: AddressDefault,
		Cells:   bms.MaxCells,
	}
}

// Validate checks the wiring description
func (c Config) Validate() error {
	if c.Address == 0 {
		return errors.New("Address must be non-zero (use AddressDefault)")
	}
	if c.Cells < 1 || c.Cells > bms.MaxCells {
		return fmt.Errorf("Cells must be 1..%d", bms.MaxCells)
	}
	return nil
}

// settings are the configuration fields the driver acts on
type settings struct {
	shuntMicroOhm  uint32
	thermistorMask uint8
	beta           [bms.MaxThermistors]uint16
	cellNominalMV  uint16
	cellFullMV     uint16
	capacityMAsec  int32
	idleCurrentMA  uint16

	chargeTempMin, chargeTempMax       int16
	dischargeTempMin, dischargeTempMax int16

	balanceInCharge  bool
	balanceEnable    bool
	balanceCellMinMV uint16
	balanceMaxDiffMV uint8
	balanceIdleSec   uint16

	ocdMilliAmps int32
	ocdMillis    uint16
	ovpMV        uint16
	uvpMV        uint16

	allowCharging    bool
	allowDischarging bool

	cellOffsets [bms.MaxCells]int8
}

// Device represents a bq769x0 instance on an I²C bus
type Device struct {
	i2c   drivers.I2C
	addr  uint16
	cells int
	crc   bool

	set settings

	gain   uint16 // µV/LSB
	offset int8   // mV

	cellMV      [bms.MaxCells]uint16
	idMin       int
	idMax       int
	packMV      uint32
	currentMA   int32
	temps       [bms.MaxThermistors]int16
	telemetry   bms.Telemetry
	balancing   uint16
	coulombs    int64 // mA·s remaining
	discharged  int64 // mA·s since the last counted cycle
	full        bool
	latched     bms.Faults
	faultSince  uint32
	userLatched uint8
	ocdOverMs   uint32

	// Fixed buffers to avoid per-call heap allocations.
	w [3]byte
	r [2 * maxBlock]byte
}

const (
	userChgTemp = 1 << iota
	userDischgTemp
	userChgOCD
)

// pollMillis is the coulomb counter conversion period
const pollMillis = 250

// seconds a latched short circuit or overcurrent stays off before retry
const faultRetrySec = 60

// New constructs a Device with supplied config.
func New(i2c drivers.I2C, cfg Config) *Device {
	addr := cfg.Address
	if addr == 0 {
		addr = AddressDefault
	}
	cells := cfg.Cells
	if cells < 1 || cells > bms.MaxCells {
		cells = bms.MaxCells
	}
	d := &Device{
		i2c:   i2c,
		addr:  addr,
		cells: cells,
		crc:   cfg.CRC,
		gain:  380,
	}
	def := bms.DefaultConfig()
	d.Configure(&def)
	return d
}

// Configure takes the operating parameters the driver needs from c.
// Protection thresholds are not reprogrammed; use the Set*Protection calls.
func (d *Device) Configure(c *bms.Config) {
	d.set = settings{
		shuntMicroOhm:    c.ShuntMicroOhm,
		thermistorMask:   c.ThermistorMask,
		beta:             c.ThermistorBeta,
		cellNominalMV:    c.CellNominalMV,
		cellFullMV:       c.CellFullMV,
		capacityMAsec:    c.CapacityMAsec,
		idleCurrentMA:    c.IdleCurrentMA,
		chargeTempMin:    c.ChargeTempMin,
		chargeTempMax:    c.ChargeTempMax,
		dischargeTempMin: c.DischargeTempMin,
		dischargeTempMax: c.DischargeTempMax,
		balanceInCharge:  c.BalanceInCharge,
		balanceEnable:    c.BalanceEnable,
		balanceCellMinMV: c.BalanceCellMinMV,
		balanceMaxDiffMV: c.BalanceMaxDiffMV,
		balanceIdleSec:   c.BalanceIdleSec,
		ocdMilliAmps:     c.OCDMilliAmps,
		ocdMillis:        c.OCDMillis,
		ovpMV:            c.OVPMilliVolts,
		uvpMV:            c.UVPMilliVolts,
		allowCharging:    c.AllowCharging,
		allowDischarging: c.AllowDischarging,
		cellOffsets:      c.CellOffsets,
	}
	if d.set.shuntMicroOhm == 0 {
		d.set.shuntMicroOhm = 1
	}
}

// Begin wakes the ADC and coulomb counter and reads the factory ADC
// calibration into st.
func (d *Device) Begin(st *bms.Stats) error {
	if err := d.writeRegister(regCCCfg, ccCfgInit); err != nil {
		return fmt.Errorf("bq769x0: write CC_CFG: %w", err)
	}
	v, err := d.readRegister(regCCCfg)
	if err != nil {
		return fmt.Errorf("bq769x0: read CC_CFG: %w", err)
	}
	if v != ccCfgInit {
		return ErrNotFound
	}

	if err := d.writeRegister(regSysCtrl1, ctrl1ADCEn|ctrl1TempSel); err != nil {
		return err
	}
	if err := d.writeRegister(regSysCtrl2, ctrl2CCEn); err != nil {
		return err
	}

	g1, err := d.readRegister(regADCGain1)
	if err != nil {
		return err
	}
	g2, err := d.readRegister(regADCGain2)
	if err != nil {
		return err
	}
	off, err := d.readRegister(regADCOffset)
	if err != nil {
		return err
	}
	d.gain = 365 + uint16((g1&0x0C)<<1|(g2&0xE0)>>5)
	d.offset = int8(off)
	st.ADCGain = d.gain
	st.ADCOffset = d.offset

	core.DebugPrintln("bq769x0: gain " + core.Itoa(int64(d.gain)) + " uV/LSB, offset " + core.Itoa(int64(d.offset)) + " mV")
	return nil
}

// Update polls the device once. It must run at least every 250 ms.
// now is the uptime in seconds, used for the statistics timestamps.
func (d *Device) Update(now uint32, st *bms.Stats) (bms.Faults, error) {
	stat, err := d.readRegister(regSysStat)
	if err != nil {
		st.Count(bms.ErrorXReady, now)
		return 0, err
	}
	faults := bms.Faults(stat)

	if faults.Has(bms.FaultCCReady) {
		if err := d.updateCurrent(now, st); err != nil {
			return faults, err
		}
		if err := d.writeRegister(regSysStat, byte(bms.FaultCCReady)); err != nil {
			return faults, err
		}
	}
	if err := d.updateVoltages(st); err != nil {
		return faults, err
	}
	if err := d.updateTemperatures(st); err != nil {
		return faults, err
	}

	d.handleFaults(now, faults, st)
	d.checkUser(now, st)
	d.updateBalancing(now, st)
	d.updateCycles(st)
	return faults, nil
}

// handleFaults counts new protection events and clears the ones whose
// cause has gone away
func (d *Device) handleFaults(now uint32, faults bms.Faults, st *bms.Stats) {
	active := faults & bms.FaultMask
	if active == 0 {
		d.latched = 0
		return
	}

	fresh := active &^ d.latched
	if fresh != 0 {
		d.faultSince = now
	}
	counts := [...]struct {
		bit  bms.Faults
		kind bms.ErrorKind
	}{
		{bms.FaultXReady, bms.ErrorXReady},
		{bms.FaultOvrdAlert, bms.ErrorAlert},
		{bms.FaultUV, bms.ErrorUVP},
		{bms.FaultOV, bms.ErrorOVP},
		{bms.FaultSCD, bms.ErrorSCD},
		{bms.FaultOCD, bms.ErrorOCD},
	}
	for _, c := range counts {
		if fresh.Has(c.bit) {
			st.Count(c.kind, now)
		}
	}

	var clear bms.Faults
	if active.Has(bms.FaultXReady) && now-d.faultSince >= 3 {
		clear |= bms.FaultXReady
	}
	if active.Has(bms.FaultOvrdAlert) {
		clear |= bms.FaultOvrdAlert
	}
	if active.Has(bms.FaultUV) && d.MinCellVoltage() > d.set.uvpMV {
		clear |= bms.FaultUV
	}
	if active.Has(bms.FaultOV) && d.MaxCellVoltage() < d.set.ovpMV {
		clear |= bms.FaultOV
	}
	if active&(bms.FaultSCD|bms.FaultOCD) != 0 && now-d.faultSince >= faultRetrySec {
		clear |= active & (bms.FaultSCD | bms.FaultOCD)
	}

	d.latched = active
	if clear == 0 || d.writeRegister(regSysStat, byte(clear)) != nil {
		return
	}
	d.latched = active &^ clear
	core.DebugPrintln("bq769x0: cleared SYS_STAT " + core.Itoa(int64(clear)))

	if clear&(bms.FaultUV|bms.FaultSCD|bms.FaultOCD) != 0 && d.set.allowDischarging {
		d.EnableDischarging()
	}
	if clear.Has(bms.FaultOV) && d.set.allowCharging {
		d.EnableCharging()
	}
}

// ResetSOC sets the coulomb counter to percent of the nominal capacity
func (d *Device) ResetSOC(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	d.coulombs = int64(d.set.capacityMAsec) * int64(percent) / 100
}

// SOC returns the state of charge in percent
func (d *Device) SOC() float32 {
	if d.set.capacityMAsec <= 0 {
		return 0
	}
	return float32(d.coulombs) * 100 / float32(d.set.capacityMAsec)
}

func (d *Device) modifyCtrl2(set, clear byte) error {
	v, err := d.readRegister(regSysCtrl2)
	if err != nil {
		return err
	}
	return d.writeRegister(regSysCtrl2, (v&^clear)|set)
}

// EnableCharging switches the charge FET on if no fault or limit forbids it
func (d *Device) EnableCharging() bool {
	if d.latched&(bms.FaultOV|bms.FaultXReady) != 0 ||
		d.MaxCellVoltage() >= d.set.ovpMV ||
		!d.tempsWithin(d.set.chargeTempMin, d.set.chargeTempMax) {
		return false
	}
	if err := d.modifyCtrl2(ctrl2ChgOn, 0); err != nil {
		return false
	}
	d.userLatched &^= userChgTemp | userChgOCD
	return true
}

func (d *Device) DisableCharging() bool {
	return d.modifyCtrl2(0, ctrl2ChgOn) == nil
}

// EnableDischarging switches the discharge FET on if no fault or limit forbids it
func (d *Device) EnableDischarging() bool {
	if d.latched&(bms.FaultUV|bms.FaultSCD|bms.FaultOCD|bms.FaultXReady) != 0 ||
		d.MinCellVoltage() <= d.set.uvpMV ||
		!d.tempsWithin(d.set.dischargeTempMin, d.set.dischargeTempMax) {
		return false
	}
	if err := d.modifyCtrl2(ctrl2DsgOn, 0); err != nil {
		return false
	}
	d.userLatched &^= userDischgTemp
	return true
}

func (d *Device) DisableDischarging() bool {
	return d.modifyCtrl2(0, ctrl2DsgOn) == nil
}

// Shutdown puts the device into SHIP mode. Only a boot signal on TS1
// wakes it again.
func (d *Device) Shutdown() error {
	for _, v := range []byte{0, ctrl1ShutB, ctrl1ShutA} {
		if err := d.writeRegister(regSysCtrl1, v); err != nil {
			return fmt.Errorf("bq769x0: shutdown: %w", err)
		}
	}
	return nil
}

// PrintRegisters writes a dump of the control registers to w
func (d *Device) PrintRegisters(w io.Writer) {
	for _, r := range dumpRegs {
		v, err := d.readRegister(r.addr)
		if err != nil {
			fmt.Fprintf(w, "0x%02X %-10s read error: %v\r\n", r.addr, r.name, err)
			continue
		}
		fmt.Fprintf(w, "0x%02X %-10s 0x%02X %08b\r\n", r.addr, r.name, v, v)
	}
}
