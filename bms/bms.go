// Package bms holds the persistent records of the battery management
// console: the operating configuration, the accumulated statistics and the
// closed set of console parameters that edit the configuration.
package bms

import "errors"

const (
	MaxCells       = 15
	MaxThermistors = 3
)

// ErrUsage is returned by a parameter setter when the argument is rejected.
// The record is left unchanged.
var ErrUsage = errors.New("invalid argument")

// ErrorKind enumerates the error kinds tracked in Stats
type ErrorKind uint8

const (
	ErrorXReady ErrorKind = iota
	ErrorAlert
	ErrorUVP
	ErrorOVP
	ErrorSCD
	ErrorOCD
	ErrorUserSwitch
	ErrorUserDischgTemp
	ErrorUserChgTemp
	ErrorUserChgOCD

	ErrorKindCount = 10
)

var errorKindNames = [ErrorKindCount]string{
	"XREADY",
	"ALERT",
	"UVP",
	"OVP",
	"SCD",
	"OCD",
	"USR_SWITCH",
	"USR_DISCHG_TEMP",
	"USR_CHG_TEMP",
	"USR_CHG_OCD",
}

func (k ErrorKind) String() string {
	if int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return "UNKNOWN"
}

// Faults is the protection-fault bitset reported by a monitor poll.
// Bit positions follow the bq769x0 SYS_STAT register.
type Faults uint8

const (
	FaultOCD       Faults = 1 << 0
	FaultSCD       Faults = 1 << 1
	FaultOV        Faults = 1 << 2
	FaultUV        Faults = 1 << 3
	FaultOvrdAlert Faults = 1 << 4
	FaultXReady    Faults = 1 << 5
	FaultCCReady   Faults = 1 << 7

	// FaultMask selects the bits that latch a protection event
	FaultMask = FaultOCD | FaultSCD | FaultOV | FaultUV | FaultOvrdAlert | FaultXReady
)

// Has reports whether every bit of f is set
func (x Faults) Has(f Faults) bool {
	return x&f == f
}

// Telemetry is the live measurement snapshot kept by a monitor
type Telemetry struct {
	PackVoltage     uint32 // mV
	PackVoltageRaw  uint16
	Current         int32 // mA, positive while charging
	CurrentRaw      int16
	BalancingStatus uint16 // one bit per cell
	CellVoltagesRaw [MaxCells]uint16
}
