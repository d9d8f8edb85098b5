package console

import (
	"bqconsole/bms"
	"bqconsole/core"
	"bqconsole/protocol"
)

const (
	// UpdateInterval is the supervisor period, ms
	UpdateInterval = 250

	// uvDebounce is the number of consecutive undervoltage ticks that
	// trigger a pack shutdown
	uvDebounce = 255

	// maxCellDelta is the cell spread above which a warning is printed, mV
	maxCellDelta = 100
)

const (
	msgOvervoltage  = "Overvoltage!" + protocol.EOL
	msgUndervoltage = "Undervoltage!" + protocol.EOL
	msgShortCircuit = "Short Circuit Protection!" + protocol.EOL
	msgOvercurrent  = "Overcurrent Charge Protection!" + protocol.EOL
	msgDelta        = "Difference too big!" + protocol.EOL
)

// Update runs one supervisor tick. Unless forced, nothing happens until
// UpdateInterval has elapsed since the previous tick. Returns whether a
// tick ran. After a shutdown Update does nothing.
func (c *Console) Update(now uint32, forced bool) bool {
	if c.halted {
		return false
	}
	if !forced && core.Elapsed(now, c.lastUpdate) < UpdateInterval {
		return false
	}
	c.lastUpdate = now
	c.uptime.Observe(now)

	faults, err := c.monitor.Update(c.uptimeSeconds(now), &c.stats)
	if err != nil {
		core.DebugPrintln("console: monitor update: " + err.Error())
	}

	// A failed poll that returns no fault bits is no reading at all; it
	// must neither advance nor re-arm the undervoltage countdown.
	if err == nil || faults != 0 {
		if c.handleFaults(faults) {
			return true
		}
	}

	if c.stats.BatCycles != c.prevBatCycles || c.stats.ChargedTimes != c.prevChargedTimes {
		c.prevBatCycles = c.stats.BatCycles
		c.prevChargedTimes = c.stats.ChargedTimes
		c.saveStats()
	}

	if c.monitor.MaxCellVoltage()-c.monitor.MinCellVoltage() > maxCellDelta {
		c.print(msgDelta)
	}
	return true
}

// handleFaults reports the fault bits of one poll and runs the
// undervoltage countdown. Returns true when the pack was shut down.
func (c *Console) handleFaults(faults bms.Faults) bool {
	if faults.Has(bms.FaultOV) {
		c.print(msgOvervoltage)
	}
	if faults.Has(bms.FaultUV) {
		c.print(msgUndervoltage)
		c.uvCountdown--
		if c.uvCountdown == 0 {
			c.shutdown("undervoltage shutdown")
			return true
		}
	} else {
		c.uvCountdown = uvDebounce
	}
	if faults.Has(bms.FaultSCD) {
		c.print(msgShortCircuit)
	}
	if faults.Has(bms.FaultOCD) {
		c.print(msgOvercurrent)
	}
	return false
}

// shutdown saves the statistics and powers the pack down. The console
// stays halted afterwards.
func (c *Console) shutdown(reason string) {
	c.saveStats()
	c.println("Shutting down: " + reason)
	core.LogPrintln("console: " + reason)
	if err := c.monitor.Shutdown(); err != nil {
		c.println("shutdown failed: " + err.Error())
	}
	c.halted = true
}
