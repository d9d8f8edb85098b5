package store

import "bqconsole/bms"

// Record placement in the EEPROM. The two ranges never overlap.
const (
	ConfigAddr = 0
	StatsAddr  = 128

	// MinSize is the smallest EEPROM that holds both records
	MinSize = StatsAddr + bms.StatsSize

	FormatChunk = 16
)

// compile-time check that the config record fits below the stats record
var _ [StatsAddr - ConfigAddr - bms.ConfigSize]struct{}
