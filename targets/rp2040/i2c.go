//go:build rp2040

package main

import (
	"machine"
)

// bq769x0 bus pins. The monitor supports standard mode only.
const (
	monitorSDA  = machine.GP4
	monitorSCL  = machine.GP5
	monitorFreq = 100 * machine.KHz
)

// InitMonitorBus configures I2C0 for the battery monitor
func InitMonitorBus() (*machine.I2C, error) {
	i2c := machine.I2C0
	err := i2c.Configure(machine.I2CConfig{
		Frequency: monitorFreq,
		SDA:       monitorSDA,
		SCL:       monitorSCL,
	})
	if err != nil {
		return nil, err
	}
	return i2c, nil
}
