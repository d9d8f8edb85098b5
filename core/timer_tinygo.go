//go:build tinygo

package core

import "time"

var (
	bootTime     = time.Now()
	overrideSet  bool
	overrideTime uint32
)

// getSystemMillis returns milliseconds since boot, truncated to 32 bits
func getSystemMillis() uint32 {
	if overrideSet {
		return overrideTime
	}
	return uint32(time.Since(bootTime).Milliseconds())
}

// setSystemMillis pins the clock to a fixed value
func setSystemMillis(ms uint32) {
	overrideSet = true
	overrideTime = ms
}
