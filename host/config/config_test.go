package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"bqconsole/store"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bms.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadAndNormalize(t *testing.T) {
	path := writeFile(t, `
console:
  device: /dev/ttyUSB0
  translate_newline: true
eeprom:
  path: bms-eeprom.bin
simulator:
  cells: 4
  current_ma: -500
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := Validate(cfg); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}
	Normalize(cfg)

	if cfg.Console.Device != "/dev/ttyUSB0" || !cfg.Console.TranslateNewline {
		t.Errorf("Console section not decoded: %+v", cfg.Console)
	}
	if cfg.Console.Baud != DefaultBaud || cfg.Console.ReadTimeoutMs != DefaultReadTimeoutMs {
		t.Errorf("Console defaults not applied: %+v", cfg.Console)
	}
	if cfg.EEPROM.Size != DefaultEEPROMSize {
		t.Errorf("Expected default size, got %d", cfg.EEPROM.Size)
	}
	if cfg.Simulator.Cells != 4 || cfg.Simulator.CellMV != DefaultCellMV || cfg.Simulator.CurrentMA != -500 {
		t.Errorf("Simulator section wrong: %+v", cfg.Simulator)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeFile(t, "eeprom:\n  path: x.bin\n  sise: 10\n")
	if _, err := Load(path); err == nil {
		t.Error("Expected unknown key error")
	}
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{EEPROM: EEPROMConfig{Path: "e.bin"}}
	}

	tests := []struct {
		name   string
		mutate func(c *Config)
		errSub string
	}{
		{"defaults", func(c *Config) {}, ""},
		{"no path", func(c *Config) { c.EEPROM.Path = "" }, "path"},
		{"negative size", func(c *Config) { c.EEPROM.Size = -1 }, "size"},
		{"too small", func(c *Config) { c.EEPROM.Size = store.MinSize - 1 }, "both records"},
		{"exact fit", func(c *Config) { c.EEPROM.Size = store.MinSize }, ""},
		{"too many cells", func(c *Config) { c.Simulator.Cells = 16 }, "cells"},
		{"negative baud", func(c *Config) { c.Console.Baud = -9600 }, "baud"},
	}

	for _, test := range tests {
		cfg := base()
		test.mutate(cfg)
		err := Validate(cfg)
		if test.errSub == "" {
			if err != nil {
				t.Errorf("%s: unexpected error %v", test.name, err)
			}
			continue
		}
		if err == nil || !strings.Contains(err.Error(), test.errSub) {
			t.Errorf("%s: expected error containing %q, got %v", test.name, test.errSub, err)
		}
	}
}
