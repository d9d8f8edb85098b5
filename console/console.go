// Package console is the supervisory console of the battery management
// firmware. A Console owns the configuration and statistics records, reads
// command lines from a byte source, dispatches them and runs the periodic
// safety supervisor. It is driven from a single control loop.
package console

import (
	"errors"
	"io"

	"bqconsole/bms"
	"bqconsole/core"
	"bqconsole/protocol"
	"bqconsole/store"
)

const (
	Banner  = "BMS console for bq769x0"
	Warning = "WARNING: wrong settings can damage the battery"
)

// Monitor is the battery monitor IC as seen by the console
type Monitor interface {
	Configure(c *bms.Config)
	Begin(st *bms.Stats) error
	Update(now uint32, st *bms.Stats) (bms.Faults, error)

	ResetSOC(percent int)
	SOC() float32

	EnableCharging() bool
	DisableCharging() bool
	EnableDischarging() bool
	DisableDischarging() bool

	SetShortCircuitProtection(mA uint32, us uint16) uint32
	SetOvercurrentChargeProtection(mA int32, ms uint16) int32
	SetOvercurrentDischargeProtection(mA uint32, ms uint16) uint32
	SetCellUndervoltageProtection(mV uint16, sec uint8) uint16
	SetCellOvervoltageProtection(mV uint16, sec uint8) uint16

	MinCellVoltage() uint16
	MaxCellVoltage() uint16
	AvgCellVoltage() uint16
	Temperature(ch int) int16
	Telemetry() bms.Telemetry

	PrintRegisters(w io.Writer)
	Shutdown() error
}

// Platform performs the one-shot hardware actions
type Platform interface {
	// Reset restarts the MCU through the watchdog
	Reset()
	// EnterBootloader jumps to the firmware update entry point
	EnterBootloader()
}

// Options configures a Console
type Options struct {
	Out      io.Writer
	Monitor  Monitor
	Store    *store.Store
	Platform Platform
	Clock    func() uint32 // milliseconds; nil uses core.Millis
}

// Console is the console context shared by every command and the supervisor
type Console struct {
	out      io.Writer
	monitor  Monitor
	store    *store.Store
	platform Platform
	clock    func() uint32

	conf  bms.Config
	stats bms.Stats

	reader   *protocol.LineReader
	commands *core.CommandRegistry

	lastUpdate       uint32
	uptime           core.Uptime
	prevBatCycles    uint16
	prevChargedTimes uint16
	uvCountdown      uint8
	halted           bool
}

// New prints the banner, loads both records and registers the commands.
// Records failing their checksum are restored and reported, not returned
// as errors.
func New(opts Options) (*Console, error) {
	if opts.Out == nil || opts.Monitor == nil || opts.Store == nil {
		return nil, errors.New("console: Out, Monitor and Store are required")
	}
	c := &Console{
		out:         opts.Out,
		monitor:     opts.Monitor,
		store:       opts.Store,
		platform:    opts.Platform,
		clock:       opts.Clock,
		uvCountdown: uvDebounce,
	}
	if c.clock == nil {
		c.clock = core.Millis
	}
	if c.platform == nil {
		c.platform = nopPlatform{}
	}
	c.reader = protocol.NewLineReader(sink{c.out})

	c.println(Banner)
	c.println(Warning)
	c.println("Version " + protocol.Version)

	if err := c.loadConf(); err != nil {
		return nil, err
	}
	if err := c.loadStats(); err != nil {
		return nil, err
	}
	c.prevBatCycles = c.stats.BatCycles
	c.prevChargedTimes = c.stats.ChargedTimes

	c.monitor.Configure(&c.conf)
	core.SetDebugEnabled(c.conf.Debug)

	c.commands = core.NewCommandRegistry()
	if err := c.registerCommands(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Console) loadConf() error {
	c.print("Conf load ")
	status, err := c.store.Load(store.ConfigAddr, &c.conf, c.conf.Reset)
	if err != nil {
		c.println("failed")
		return err
	}
	if status == store.StatusRecovered {
		c.println("bad crc, restore defs")
		core.LogPrintln("console: configuration restored to defaults")
	} else {
		c.println("OK")
	}
	return nil
}

func (c *Console) loadStats() error {
	c.print("Stats load ")
	status, err := c.store.Load(store.StatsAddr, &c.stats, c.stats.Reset)
	if err != nil {
		c.println("failed")
		return err
	}
	if status == store.StatusRecovered {
		c.println("bad crc, restore zero")
		core.LogPrintln("console: statistics reset")
	} else {
		c.println("OK")
	}
	return nil
}

// Begin starts the monitor and applies the stored configuration to it
func (c *Console) Begin() {
	if err := c.monitor.Begin(&c.stats); err != nil {
		c.println("Monitor begin failed: " + err.Error())
	}
	now := c.clock()
	c.uptime.Observe(now)
	if _, err := c.monitor.Update(c.uptimeSeconds(now), &c.stats); err != nil {
		core.DebugPrintln("console: first update: " + err.Error())
	}
	c.monitor.ResetSOC(100)
	c.monitor.EnableCharging()
	c.applyProtections()

	if c.conf.AllowDischarging {
		c.monitor.EnableDischarging()
	} else {
		c.monitor.DisableDischarging()
	}

	c.monitor.PrintRegisters(c.out)
	c.printTelemetry()
	c.printAllConf()
	c.printAllStats()
	c.print(protocol.Prompt)
}

// Recv advances the input state machine. When a complete line is waiting
// it is dispatched and the prompt printed; otherwise available bytes are
// consumed. Returns true when input bytes were consumed.
func (c *Console) Recv(src protocol.ByteSource) bool {
	if c.reader.Ready() {
		line, _ := c.reader.Take()
		c.Handle(line)
		c.print(protocol.Prompt)
		return false
	}
	return c.reader.Step(src)
}

// Handle dispatches one command line. An empty line does nothing; an
// unknown keyword prints a notice. Returns true when a command ran.
func (c *Console) Handle(line string) bool {
	if line == "" {
		return false
	}
	if !c.commands.Dispatch(line) {
		c.println("Unknown command. Try 'help'")
		return false
	}
	return true
}

// Config returns a copy of the configuration record
func (c *Console) Config() bms.Config {
	return c.conf
}

// Stats returns a copy of the statistics record
func (c *Console) Stats() bms.Stats {
	return c.stats
}

// Halted reports whether the pack was shut down
func (c *Console) Halted() bool {
	return c.halted
}

func (c *Console) saveConf() {
	if err := c.store.Save(store.ConfigAddr, &c.conf); err != nil {
		c.println("Conf save failed: " + err.Error())
	}
}

func (c *Console) saveStats() {
	if err := c.store.Save(store.StatsAddr, &c.stats); err != nil {
		c.println("Stats save failed: " + err.Error())
	}
}

func (c *Console) uptimeSeconds(now uint32) uint32 {
	return uint32(c.uptime.Seconds(now))
}

func (c *Console) print(s string) {
	io.WriteString(c.out, s)
}

func (c *Console) println(s string) {
	io.WriteString(c.out, s+protocol.EOL)
}

// sink adapts an io.Writer for the line reader echo
type sink struct {
	w io.Writer
}

func (s sink) WriteByte(b byte) error {
	_, err := s.w.Write([]byte{b})
	return err
}

func (s sink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

type nopPlatform struct{}

func (nopPlatform) Reset()           {}
func (nopPlatform) EnterBootloader() {}
