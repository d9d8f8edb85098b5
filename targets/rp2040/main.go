//go:build rp2040

package main

import (
	"machine"
	"time"

	"bqconsole/console"
	"bqconsole/core"
	"bqconsole/devices/bq769x0"
	"bqconsole/store"
)

// eepromSize is the flash-emulated EEPROM image size
const eepromSize = 1024

var msgerrors uint32

func main() {
	// Disable watchdog on boot to clear any previous state
	err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0})
	if err != nil {
		return
	}

	InitUSB()
	InitDebugUART()
	UpdateSystemTime()

	i2c, err := InitMonitorBus()
	if err != nil {
		core.LogPrintln("i2c: " + err.Error())
		halt()
	}
	monitor := bq769x0.New(i2c, bq769x0.DefaultConfig())

	eeprom, err := store.OpenFlash(eepromSize)
	if err != nil {
		core.LogPrintln("eeprom: " + err.Error())
		halt()
	}

	c, err := console.New(console.Options{
		Out:      machine.Serial,
		Monitor:  monitor,
		Store:    store.New(eeprom, nil),
		Platform: rp2040Platform{},
	})
	if err != nil {
		core.LogPrintln("console: " + err.Error())
		halt()
	}
	c.Begin()

	for {
		// Recover from panics in the main loop to prevent a firmware crash
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					core.LogPrintln("main loop: recovered panic #" + core.Itoa(int64(msgerrors)))
				}
			}()

			UpdateSystemTime()
			c.Recv(machine.Serial)
			c.Update(core.Millis(), false)
		}()

		// Yield to other goroutines
		time.Sleep(100 * time.Microsecond)
	}
}

func halt() {
	for {
		time.Sleep(time.Second)
	}
}
