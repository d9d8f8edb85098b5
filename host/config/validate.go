package config

import (
	"fmt"

	"bqconsole/bms"
	"bqconsole/store"
)

// Validate checks configuration correctness.
// Zero values are left for Normalize; only explicit bad values fail.
// It does not mutate the configuration.
func Validate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	// ---- console ----
	if cfg.Console.Baud < 0 {
		return fmt.Errorf("console: baud must be positive, got %d", cfg.Console.Baud)
	}
	if cfg.Console.ReadTimeoutMs < 0 {
		return fmt.Errorf("console: read_timeout_ms must be positive, got %d", cfg.Console.ReadTimeoutMs)
	}

	// ---- eeprom ----
	if cfg.EEPROM.Path == "" {
		return fmt.Errorf("eeprom: path is required")
	}
	if cfg.EEPROM.Size < 0 {
		return fmt.Errorf("eeprom: size must be positive, got %d", cfg.EEPROM.Size)
	}
	if cfg.EEPROM.Size != 0 && cfg.EEPROM.Size < store.MinSize {
		return fmt.Errorf("eeprom: size %d cannot hold both records (need %d)", cfg.EEPROM.Size, store.MinSize)
	}

	// ---- simulator ----
	if cfg.Simulator.Cells < 0 || cfg.Simulator.Cells > bms.MaxCells {
		return fmt.Errorf("simulator: cells must be 1..%d, got %d", bms.MaxCells, cfg.Simulator.Cells)
	}
	if cfg.Simulator.CellMV < 0 || cfg.Simulator.CellMV > 5000 {
		return fmt.Errorf("simulator: cell_mv %d out of range", cfg.Simulator.CellMV)
	}
	return nil
}
