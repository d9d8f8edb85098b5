//go:build rp2040

package main

import (
	"machine"
	"time"
)

// rp2040Platform performs the MCU-level console actions
type rp2040Platform struct{}

// Reset uses a watchdog reset instead of ARM SYSRESETREQ; it is more
// reliable on RP2040 and handles USB re-enumeration better
func (rp2040Platform) Reset() {
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 1})
	if err != nil {
		return
	}
	err = machine.Watchdog.Start()
	if err != nil {
		return
	}
	for {
		time.Sleep(1 * time.Millisecond)
	}
}

// EnterBootloader reboots into the ROM USB mass storage bootloader
func (rp2040Platform) EnterBootloader() {
	machine.EnterBootloader()
}
