//go:build rp2040

package main

import (
	"machine"

	"bqconsole/core"
)

var debugUART *machine.UART

// InitDebugUART routes core debug output to UART0 (TX=GP0, RX=GP1) at
// 115200 baud, keeping the USB console clean
func InitDebugUART() {
	uart := machine.UART0
	err := uart.Configure(machine.UARTConfig{
		BaudRate: 115200,
		TX:       machine.UART0_TX_PIN,
		RX:       machine.UART0_RX_PIN,
	})
	if err != nil {
		return
	}
	debugUART = uart
	core.SetDebugWriter(DebugPrintln)
}

// DebugPrintln writes a line to the debug UART
func DebugPrintln(s string) {
	if debugUART == nil {
		return
	}
	debugUART.Write([]byte(s))
	debugUART.Write([]byte("\r\n"))
}
