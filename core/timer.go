package core

// Millisecond ticks per uptime epoch. The raw clock is a 32-bit
// millisecond counter that wraps every 2^32 ms.
const epochSeconds = 0xFFFFFFFF / 1000

// Millis returns the current system time in milliseconds
func Millis() uint32 {
	return getSystemMillis()
}

// SetMillis sets the current system time (for testing/hardware integration)
func SetMillis(ms uint32) {
	setSystemMillis(ms)
}

// Elapsed returns now - since, correct across a single counter wrap
func Elapsed(now, since uint32) uint32 {
	return now - since
}

// Uptime tracks a monotonic seconds count across counter wraparound
type Uptime struct {
	epochs uint32
	last   uint32
}

// Observe records a raw clock sample. A sample numerically smaller than
// the previous one starts a new epoch.
func (u *Uptime) Observe(now uint32) {
	if u.last > now {
		u.epochs++
	}
	u.last = now
}

// Epochs returns the number of observed counter wraps
func (u *Uptime) Epochs() uint32 {
	return u.epochs
}

// Seconds returns the uptime in seconds at raw time now
func (u *Uptime) Seconds(now uint32) uint64 {
	return uint64(u.epochs)*epochSeconds + uint64(now/1000)
}
