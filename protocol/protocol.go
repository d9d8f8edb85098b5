// Package protocol implements the console line protocol of the BMS firmware
package protocol

// Version represents the console firmware version
const Version = "0.3.0"

// Console line constants
const (
	LineMax = 100 // Line buffer capacity including the terminator slot

	BackSpace = 0x08
	Delete    = 0x7F
	CR        = '\r'
	LF        = '\n'

	Prompt = "\r\nBMS>"
	EOL    = "\r\n"
)
