// Package config holds the YAML configuration of the host console runner
package config

type Config struct {
	Console   ConsoleConfig   `yaml:"console"`
	EEPROM    EEPROMConfig    `yaml:"eeprom"`
	Simulator SimulatorConfig `yaml:"simulator"`
}

// ---- CONSOLE ----

type ConsoleConfig struct {
	Device           string `yaml:"device"` // empty: stdin/stdout
	Baud             int    `yaml:"baud"`
	ReadTimeoutMs    int    `yaml:"read_timeout_ms"`
	TranslateNewline bool   `yaml:"translate_newline"` // LF becomes CR
}

// ---- EEPROM IMAGE ----

type EEPROMConfig struct {
	Path string `yaml:"path"`
	Size int    `yaml:"size"`
}

// ---- SIMULATED MONITOR ----

type SimulatorConfig struct {
	Cells     int   `yaml:"cells"`
	CellMV    int   `yaml:"cell_mv"`
	CurrentMA int32 `yaml:"current_ma"`
}
