package config

import "bqconsole/bms"

const (
	DefaultBaud          = 115200
	DefaultReadTimeoutMs = 50
	DefaultEEPROMSize    = 1024
	DefaultCellMV        = 3700
)

// Normalize fills defaults. It must be called only after Validate.
func Normalize(cfg *Config) {
	if cfg == nil {
		return
	}
	if cfg.Console.Baud == 0 {
		cfg.Console.Baud = DefaultBaud
	}
	if cfg.Console.ReadTimeoutMs == 0 {
		cfg.Console.ReadTimeoutMs = DefaultReadTimeoutMs
	}
	if cfg.EEPROM.Size == 0 {
		cfg.EEPROM.Size = DefaultEEPROMSize
	}
	if cfg.Simulator.Cells == 0 {
		cfg.Simulator.Cells = bms.MaxCells
	}
	if cfg.Simulator.CellMV == 0 {
		cfg.Simulator.CellMV = DefaultCellMV
	}
}
