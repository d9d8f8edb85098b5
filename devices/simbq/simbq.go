// Package simbq is an in-memory battery monitor. It behaves like a
// bq769x0 with ideal measurements and lets callers inject faults.
package simbq

import (
	"errors"
	"fmt"
	"io"

	"bqconsole/bms"
)

var ErrShutdown = errors.New("simbq: monitor is shut down")

// Config seeds the simulated pack
type Config struct {
	Cells     int
	CellMV    uint16
	CurrentMA int32
	TempTenth int16
}

// DefaultConfig is a 15-cell pack at rest
func DefaultConfig() Config {
	return Config{Cells: bms.MaxCells, CellMV: 3700, TempTenth: 250}
}

// Protection is the last value applied by a Set*Protection call
type Protection struct {
	Threshold int64
	Delay     int64
}

// Monitor is a simulated battery monitor
type Monitor struct {
	conf bms.Config

	cells       []uint16
	current     int32
	temps       [bms.MaxThermistors]int16
	faults      bms.Faults
	latched     bms.Faults
	coulombs    int64
	charging    bool
	discharging bool
	shutdown    bool
	updates     int

	SCD, OCD, ODP, OVP, UVP Protection
}

// New creates a monitor from cfg
func New(cfg Config) *Monitor {
	if cfg.Cells < 1 || cfg.Cells > bms.MaxCells {
		cfg.Cells = bms.MaxCells
	}
	m := &Monitor{
		cells:   make([]uint16, cfg.Cells),
		current: cfg.CurrentMA,
		conf:    bms.DefaultConfig(),
	}
	for i := range m.cells {
		m.cells[i] = cfg.CellMV
	}
	for i := range m.temps {
		m.temps[i] = cfg.TempTenth
	}
	return m
}

func (m *Monitor) Configure(c *bms.Config) { m.conf = *c }

func (m *Monitor) Begin(st *bms.Stats) error {
	if m.shutdown {
		return ErrShutdown
	}
	st.ADCGain = 380
	st.ADCOffset = 0
	return nil
}

// Update returns the injected faults and refreshes st like the real driver
func (m *Monitor) Update(now uint32, st *bms.Stats) (bms.Faults, error) {
	if m.shutdown {
		st.Count(bms.ErrorXReady, now)
		return 0, ErrShutdown
	}
	m.updates++

	m.coulombs += int64(m.current) / 4
	if m.coulombs < 0 {
		m.coulombs = 0
	}
	if c := int64(m.conf.CapacityMAsec); m.coulombs > c {
		m.coulombs = c
	}

	minID, maxID := 0, 0
	for i, v := range m.cells {
		st.CellVoltages[i] = v
		st.CellIDMap[i] = uint8(i)
		if v < m.cells[minID] {
			minID = i
		}
		if v > m.cells[maxID] {
			maxID = i
		}
	}
	st.IDCellMin = uint8(minID)
	st.IDCellMax = uint8(maxID)
	st.Temperatures = m.temps

	idle := int32(m.conf.IdleCurrentMA)
	if m.current > idle || m.current < -idle {
		st.IdleTimestamp = now
	}
	if m.current > idle {
		st.ChargeTimestamp = now
	}

	fresh := m.faults &^ m.latched
	kinds := [...]struct {
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
	for _, k := range kinds {
		if fresh.Has(k.bit) {
			st.Count(k.kind, now)
		}
	}
	m.latched = m.faults
	return m.faults, nil
}

// SetFaults sets the fault bits reported by every following Update
func (m *Monitor) SetFaults(f bms.Faults) { m.faults = f }

// SetCell sets the voltage of cell i, mV
func (m *Monitor) SetCell(i int, mV uint16) {
	if i >= 0 && i < len(m.cells) {
		m.cells[i] = mV
	}
}

// SetCurrent sets the pack current, mA, positive while charging
func (m *Monitor) SetCurrent(mA int32) { m.current = mA }

func (m *Monitor) ResetSOC(percent int) {
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}
	m.coulombs = int64(m.conf.CapacityMAsec) * int64(percent) / 100
}

func (m *Monitor) SOC() float32 {
	if m.conf.CapacityMAsec <= 0 {
		return 0
	}
	return float32(m.coulombs) * 100 / float32(m.conf.CapacityMAsec)
}

func (m *Monitor) EnableCharging() bool {
	if m.shutdown || m.MaxCellVoltage() >= m.conf.OVPMilliVolts {
		return false
	}
	m.charging = true
	return true
}

func (m *Monitor) DisableCharging() bool {
	m.charging = false
	return true
}

func (m *Monitor) EnableDischarging() bool {
	if m.shutdown || m.MinCellVoltage() <= m.conf.UVPMilliVolts {
		return false
	}
	m.discharging = true
	return true
}

func (m *Monitor) DisableDischarging() bool {
	m.discharging = false
	return true
}

func (m *Monitor) SetShortCircuitProtection(mA uint32, us uint16) uint32 {
	m.SCD = Protection{int64(mA), int64(us)}
	return mA
}

func (m *Monitor) SetOvercurrentChargeProtection(mA int32, ms uint16) int32 {
	m.OCD = Protection{int64(mA), int64(ms)}
	return mA
}

func (m *Monitor) SetOvercurrentDischargeProtection(mA uint32, ms uint16) uint32 {
	m.ODP = Protection{int64(mA), int64(ms)}
	return mA
}

func (m *Monitor) SetCellUndervoltageProtection(mV uint16, sec uint8) uint16 {
	m.UVP = Protection{int64(mV), int64(sec)}
	return mV
}

func (m *Monitor) SetCellOvervoltageProtection(mV uint16, sec uint8) uint16 {
	m.OVP = Protection{int64(mV), int64(sec)}
	return mV
}

func (m *Monitor) MinCellVoltage() uint16 {
	lo := m.cells[0]
	for _, v := range m.cells {
		if v < lo {
			lo = v
		}
	}
	return lo
}

func (m *Monitor) MaxCellVoltage() uint16 {
	hi := m.cells[0]
	for _, v := range m.cells {
		if v > hi {
			hi = v
		}
	}
	return hi
}

func (m *Monitor) AvgCellVoltage() uint16 {
	var sum uint32
	for _, v := range m.cells {
		sum += uint32(v)
	}
	return uint16(sum / uint32(len(m.cells)))
}

func (m *Monitor) Temperature(ch int) int16 {
	if ch < 0 || ch >= len(m.temps) {
		return 0
	}
	return m.temps[ch]
}

func (m *Monitor) Telemetry() bms.Telemetry {
	var t bms.Telemetry
	for i, v := range m.cells {
		t.PackVoltage += uint32(v)
		t.CellVoltagesRaw[i] = uint16(uint32(v) * 1000 / 380)
	}
	t.PackVoltageRaw = uint16(t.PackVoltage * 1000 / 4 / 380)
	t.Current = m.current
	t.CurrentRaw = int16(int64(m.current) * int64(m.conf.ShuntMicroOhm) / 8440)
	return t
}

// PrintRegisters writes the simulated control state
func (m *Monitor) PrintRegisters(w io.Writer) {
	fmt.Fprintf(w, "SIM cells=%d faults=0x%02X chg=%t dsg=%t shutdown=%t\r\n",
		len(m.cells), uint8(m.faults), m.charging, m.discharging, m.shutdown)
}

func (m *Monitor) Shutdown() error {
	m.shutdown = true
	m.charging = false
	m.discharging = false
	return nil
}

// Charging reports whether the charge path is on
func (m *Monitor) Charging() bool { return m.charging }

// Discharging reports whether the discharge path is on
func (m *Monitor) Discharging() bool { return m.discharging }

// IsShutdown reports whether Shutdown was called
func (m *Monitor) IsShutdown() bool { return m.shutdown }

// Updates returns the number of successful Update calls
func (m *Monitor) Updates() int { return m.updates }
