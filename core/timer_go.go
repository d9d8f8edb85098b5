//go:build !tinygo

package core

import "sync/atomic"

var systemMillis atomic.Uint32

// getSystemMillis returns the current system time (regular Go implementation)
func getSystemMillis() uint32 {
	return systemMillis.Load()
}

// setSystemMillis sets the system time (regular Go implementation)
func setSystemMillis(ms uint32) {
	systemMillis.Store(ms)
}
