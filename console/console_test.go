package console

import (
	"bytes"
	"strings"
	"testing"

	"bqconsole/bms"
	"bqconsole/core"
	"bqconsole/devices/bq769x0"
	"bqconsole/devices/simbq"
	"bqconsole/protocol"
	"bqconsole/store"
)

var (
	_ Monitor = (*bq769x0.Device)(nil)
	_ Monitor = (*simbq.Monitor)(nil)
)

type fakePlatform struct {
	resets      int
	bootloaders int
}

func (p *fakePlatform) Reset()           { p.resets++ }
func (p *fakePlatform) EnterBootloader() { p.bootloaders++ }

type testRig struct {
	c        *Console
	mon      *simbq.Monitor
	dev      *store.MemEEPROM
	out      *bytes.Buffer
	platform *fakePlatform
	now      uint32
}

func newRig(t *testing.T, dev *store.MemEEPROM) *testRig {
	t.Helper()
	if dev == nil {
		dev = store.NewMemEEPROM(1024)
	}
	r := &testRig{
		mon:      simbq.New(simbq.DefaultConfig()),
		dev:      dev,
		out:      &bytes.Buffer{},
		platform: &fakePlatform{},
	}
	clock := func() uint32 { return r.now }
	c, err := New(Options{
		Out:      r.out,
		Monitor:  r.mon,
		Store:    store.New(dev, clock),
		Platform: r.platform,
		Clock:    clock,
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	r.c = c
	return r
}

// run dispatches line and returns what it printed
func (r *testRig) run(line string) string {
	r.out.Reset()
	r.c.Handle(line)
	return r.out.String()
}

func TestLoadReport(t *testing.T) {
	dev := store.NewMemEEPROM(1024)

	r := newRig(t, dev)
	out := r.out.String()
	if !strings.Contains(out, "Conf load bad crc, restore defs\r\n") {
		t.Errorf("Erased config not reported:\n%s", out)
	}
	if !strings.Contains(out, "Stats load bad crc, restore zero\r\n") {
		t.Errorf("Erased stats not reported:\n%s", out)
	}
	if !strings.HasPrefix(out, Banner+protocol.EOL) {
		t.Errorf("Expected banner first, got %q", out)
	}

	r = newRig(t, dev)
	out = r.out.String()
	if !strings.Contains(out, "Conf load OK\r\n") || !strings.Contains(out, "Stats load OK\r\n") {
		t.Errorf("Restored records should load cleanly:\n%s", out)
	}
}

func TestCorruptConfigRestoresDefaults(t *testing.T) {
	dev := store.NewMemEEPROM(1024)
	r := newRig(t, dev)
	r.run("capacity 10")
	if r.c.Config().CapacityMAsec != 36000 {
		t.Fatalf("capacity not applied: %d", r.c.Config().CapacityMAsec)
	}

	b := make([]byte, 1)
	dev.ReadAt(b, store.ConfigAddr+10)
	b[0] ^= 0x5A
	dev.WriteAt(b, store.ConfigAddr+10)

	r = newRig(t, dev)
	if !strings.Contains(r.out.String(), "Conf load bad crc, restore defs") {
		t.Errorf("Corruption not reported:\n%s", r.out.String())
	}
	if got, want := r.c.Config().CapacityMAsec, bms.DefaultConfig().CapacityMAsec; got != want {
		t.Errorf("Expected default capacity %d, got %d", want, got)
	}
}

func TestCapacityCommand(t *testing.T) {
	r := newRig(t, nil)

	out := r.run("capacity 10")
	if r.c.Config().CapacityMAsec != 36000 {
		t.Errorf("Expected 36000 mAs, got %d", r.c.Config().CapacityMAsec)
	}
	if !strings.Contains(out, "capacity=36000 mAs (10 mAh)") {
		t.Errorf("Unexpected reply %q", out)
	}

	out = r.run("capacity 0")
	if r.c.Config().CapacityMAsec != 36000 {
		t.Errorf("Rejected value changed capacity to %d", r.c.Config().CapacityMAsec)
	}
	if !strings.Contains(out, " "+core.PadRight("capacity", helpWidth)) {
		t.Errorf("Expected usage line, got %q", out)
	}
}

func TestVoltageOrdering(t *testing.T) {
	r := newRig(t, nil)

	r.run("uvp_mv 4200")
	if r.c.Config().UVPMilliVolts != 2850 {
		t.Errorf("UV at OV accepted: %d", r.c.Config().UVPMilliVolts)
	}
	r.run("ovp_mv 2800")
	if r.c.Config().OVPMilliVolts != 4200 {
		t.Errorf("OV below UV accepted: %d", r.c.Config().OVPMilliVolts)
	}

	r.run("uvp_mv 3000")
	if r.c.Config().UVPMilliVolts != 3000 {
		t.Errorf("Valid UV rejected: %d", r.c.Config().UVPMilliVolts)
	}
	if r.mon.UVP.Threshold != 3000 {
		t.Errorf("UV not pushed to the monitor: %+v", r.mon.UVP)
	}
}

func TestSetterPersists(t *testing.T) {
	r := newRig(t, nil)
	before := r.dev.Writes()

	r.run("bal_idle 600")
	if r.dev.Writes() != before+1 {
		t.Errorf("Expected one EEPROM write, got %d", r.dev.Writes()-before)
	}

	out := r.run("bal_idle")
	if r.dev.Writes() != before+1 {
		t.Error("Printing a parameter must not write")
	}
	if out != "bal_idle=600  min idle time before balancing, s" {
		t.Errorf("Unexpected print %q", out)
	}
}

func TestChargeSwitch(t *testing.T) {
	r := newRig(t, nil)

	r.run("charge 1")
	if !r.mon.Charging() {
		t.Error("Expected charging on")
	}
	r.run("charge 0")
	if r.mon.Charging() {
		t.Error("Expected charging off")
	}
	if r.c.Config().AllowCharging {
		t.Error("Flag not stored")
	}

	r.run("charge 2")
	if r.c.Config().AllowCharging {
		t.Error("Invalid flag accepted")
	}
}

func TestUnknownAndEmpty(t *testing.T) {
	r := newRig(t, nil)

	r.out.Reset()
	if r.c.Handle("") {
		t.Error("Empty line reported as handled")
	}
	if r.out.Len() != 0 {
		t.Errorf("Empty line printed %q", r.out.String())
	}

	if out := r.run("saved"); out != "Unknown command. Try 'help'\r\n" {
		t.Errorf("Unexpected reply %q", out)
	}
	if out := r.run("stats_save"); !strings.Contains(out, "stats saved") {
		t.Errorf("stats_save reply %q", out)
	}
}

func TestBuiltinRejectsArgument(t *testing.T) {
	r := newRig(t, nil)

	out := r.run("conf now")
	want := " " + core.PadRight("conf", helpWidth) + "print all configuration\r\n"
	if out != want {
		t.Errorf("Expected usage %q, got %q", want, out)
	}
}

func TestHelp(t *testing.T) {
	r := newRig(t, nil)
	out := r.run("help")

	if !strings.HasPrefix(out, "Available commands:\r\n") {
		t.Errorf("Unexpected header %q", out)
	}
	lines := strings.Split(strings.TrimSuffix(out, protocol.EOL), protocol.EOL)
	if want := 1 + len(builtins) + len(bms.Params()); len(lines) != want {
		t.Errorf("Expected %d lines, got %d", want, len(lines))
	}
	if lines[1] != " "+core.PadRight("conf", helpWidth)+"print all configuration" {
		t.Errorf("Unexpected first entry %q", lines[1])
	}
	if !strings.HasPrefix(lines[len(lines)-1], " uvp_sec") {
		t.Errorf("Expected uvp_sec last, got %q", lines[len(lines)-1])
	}
}

func TestRecvDispatchesAndPrompts(t *testing.T) {
	r := newRig(t, nil)
	src := protocol.NewFifoBuffer(64)
	src.Write([]byte("stats_save\r"))

	r.out.Reset()
	r.c.Recv(src) // startup
	if !r.c.Recv(src) {
		t.Fatal("Expected input to be consumed")
	}
	r.c.Recv(src)

	out := r.out.String()
	if !strings.HasPrefix(out, "stats_save\r\n") {
		t.Errorf("Expected echo first, got %q", out)
	}
	if !strings.HasSuffix(out, "stats saved\r\n"+protocol.Prompt) {
		t.Errorf("Expected reply and prompt, got %q", out)
	}
}

func TestPlatformCommands(t *testing.T) {
	r := newRig(t, nil)
	before := r.dev.Writes()

	r.run("wdreset")
	if r.platform.resets != 1 {
		t.Errorf("Expected one reset, got %d", r.platform.resets)
	}
	if r.dev.Writes() != before+1 {
		t.Error("wdreset should save the statistics")
	}

	r.run("bootloader")
	if r.platform.bootloaders != 1 {
		t.Errorf("Expected bootloader entry, got %d", r.platform.bootloaders)
	}
}

func TestRestore(t *testing.T) {
	r := newRig(t, nil)
	r.run("scd_ma 50000")
	r.run("restore")

	if r.c.Config().SCDMilliAmps != bms.DefaultConfig().SCDMilliAmps {
		t.Errorf("restore kept scd_ma=%d", r.c.Config().SCDMilliAmps)
	}
	if r.mon.SCD.Threshold != int64(bms.DefaultConfig().SCDMilliAmps) {
		t.Errorf("restore did not reapply protections: %+v", r.mon.SCD)
	}
}

func TestFormat(t *testing.T) {
	r := newRig(t, nil)
	out := r.run("epformat")

	if got := strings.Count(out, "."); got != 1024/store.FormatChunk {
		t.Errorf("Expected %d progress dots, got %d", 1024/store.FormatChunk, got)
	}
	for i, b := range r.dev.Bytes() {
		if b != store.Erased {
			t.Fatalf("Byte %d not erased: 0x%02X", i, b)
		}
	}
}

func TestBeginAppliesConfig(t *testing.T) {
	r := newRig(t, nil)
	r.out.Reset()
	r.c.Begin()

	if !r.mon.Charging() || !r.mon.Discharging() {
		t.Error("Expected both paths enabled")
	}
	if r.mon.OVP.Threshold != 4200 || r.mon.UVP.Threshold != 2850 {
		t.Errorf("Protections not applied: OVP %+v UVP %+v", r.mon.OVP, r.mon.UVP)
	}
	if r.mon.SOC() != 100 {
		t.Errorf("Expected SOC 100, got %v", r.mon.SOC())
	}
	out := r.out.String()
	for _, want := range []string{"BMS uptime:", "capacity=", "ADC Gain: 380", protocol.Prompt} {
		if !strings.Contains(out, want) {
			t.Errorf("Begin output lacks %q", want)
		}
	}
}

func TestTelemetryRowsFollowCellMap(t *testing.T) {
	r := newRig(t, nil)
	r.mon.SetCell(2, 3123)
	r.c.stats.CellIDMap[0] = 2
	r.c.stats.CellVoltages[2] = 3123

	out := r.run("print")
	if !strings.Contains(out, "Cell voltages:\r\n3123 mV (8218 raw)\t") {
		t.Errorf("First row should show cell 3 in both columns:\n%s", out)
	}
}

func TestTelemetryUptimeAfterWrap(t *testing.T) {
	r := newRig(t, nil)
	r.now = 0xFFFFFF00
	r.c.Update(r.now, true)

	r.now = 1000
	out := r.run("print")
	if !strings.Contains(out, "BMS uptime: 4294968 s\r\n") {
		t.Errorf("Expected uptime past the wrap:\n%s", out)
	}
}
