package core

// DebugWriter is a function type for writing debug messages
type DebugWriter func(string)

var (
	// debugPrintln is the global debug print function (can be set by platform code)
	debugPrintln DebugWriter = func(s string) {} // No-op by default

	// debugEnabled controls whether debug output is active.
	// Follows the bq_dbg configuration flag once the console is up.
	debugEnabled bool = false
)

// SetDebugWriter sets the platform-specific debug output function
func SetDebugWriter(writer DebugWriter) {
	if writer == nil {
		writer = func(string) {}
	}
	debugPrintln = writer
}

// SetDebugEnabled enables or disables debug output
func SetDebugEnabled(enabled bool) {
	debugEnabled = enabled
}

// IsDebugEnabled returns whether debug output is enabled
func IsDebugEnabled() bool {
	return debugEnabled
}

// DebugPrintln writes a debug message when debug output is enabled
func DebugPrintln(msg string) {
	if debugEnabled {
		debugPrintln(msg)
	}
}

// LogPrintln writes a message regardless of the debug flag.
// Used for events that must always reach the platform log (record recovery,
// shutdown).
func LogPrintln(msg string) {
	debugPrintln(msg)
}
