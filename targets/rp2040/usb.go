//go:build rp2040

package main

import (
	"machine"
)

// InitUSB initializes the USB CDC console.
// On RP2040 machine.Serial is USB CDC, not a UART.
func InitUSB() {
	err := machine.Serial.Configure(machine.UARTConfig{})
	if err != nil {
		return
	}
}
