package console

import (
	"fmt"

	"bqconsole/bms"
	"bqconsole/protocol"
)

const cellsPerRow = 3

func (c *Console) printAllConf() {
	params := bms.Params()
	for i := range params {
		c.println(params[i].Format(&c.conf))
	}
	c.print("offsets=")
	for i, o := range c.conf.CellOffsets {
		if i > 0 {
			c.print(" ")
		}
		fmt.Fprintf(c.out, "%d", o)
	}
	c.print(protocol.EOL)
	fmt.Fprintf(c.out, "TS: %d%s", c.conf.Timestamp, protocol.EOL)
	fmt.Fprintf(c.out, "CRC8: 0x%02X%s", c.conf.CRC, protocol.EOL)
}

func (c *Console) printAllStats() {
	st := &c.stats
	fmt.Fprintf(c.out, "ADC Gain: %d%s", st.ADCGain, protocol.EOL)
	fmt.Fprintf(c.out, "ADC Offset: %d%s", st.ADCOffset, protocol.EOL)
	fmt.Fprintf(c.out, "BAT Cycles: %d%s", st.BatCycles, protocol.EOL)
	fmt.Fprintf(c.out, "Charged times: %d%s", st.ChargedTimes, protocol.EOL)
	for k := bms.ErrorKind(0); k < bms.ErrorKindCount; k++ {
		fmt.Fprintf(c.out, "%s: %d timestamp = %d%s",
			k, st.ErrorCounter[k], st.ErrorTimestamps[k], protocol.EOL)
	}

	c.print("Cell ID map:")
	for _, id := range st.CellIDMap {
		fmt.Fprintf(c.out, " %d", id)
	}
	c.print(protocol.EOL)

	c.print("Cell voltages:" + protocol.EOL)
	for i, v := range st.CellVoltages {
		fmt.Fprintf(c.out, "%2d: %d mV\t", i+1, v)
		if (i+1)%cellsPerRow == 0 {
			c.print(protocol.EOL)
		}
	}

	c.print("Temperatures:")
	for _, t := range st.Temperatures {
		c.print(" " + tenths(int32(t)))
	}
	c.print(protocol.EOL)
	fmt.Fprintf(c.out, "Cell min: %d max: %d%s", st.IDCellMin+1, st.IDCellMax+1, protocol.EOL)
	fmt.Fprintf(c.out, "Idle TS: %d Charge TS: %d%s", st.IdleTimestamp, st.ChargeTimestamp, protocol.EOL)
	fmt.Fprintf(c.out, "TS: %d CRC8: 0x%02X%s", st.Timestamp, st.CRC, protocol.EOL)
}

// printTelemetry prints the live battery status
func (c *Console) printTelemetry() {
	t := c.monitor.Telemetry()
	now := c.clock()
	c.uptime.Observe(now)

	fmt.Fprintf(c.out, "BMS uptime: %d s%s", c.uptime.Seconds(now), protocol.EOL)
	c.print("BAT Temp:")
	for i := 0; i < bms.MaxThermistors; i++ {
		c.print(" " + tenths(int32(c.monitor.Temperature(i))))
	}
	c.print(" C" + protocol.EOL)

	fmt.Fprintf(c.out, "BAT Voltage: %d mV (%d raw), current: %d mA (%d raw)%s",
		t.PackVoltage, t.PackVoltageRaw, t.Current, t.CurrentRaw, protocol.EOL)
	fmt.Fprintf(c.out, "SOC: %.1f %%%s", c.monitor.SOC(), protocol.EOL)
	fmt.Fprintf(c.out, "Balancing status: 0x%04X%s", t.BalancingStatus, protocol.EOL)

	c.print("Cell voltages:" + protocol.EOL)
	for i := 0; i < bms.MaxCells; i++ {
		id := c.stats.CellIDMap[i]
		if int(id) >= bms.MaxCells {
			id = uint8(i)
		}
		fmt.Fprintf(c.out, "%d mV (%d raw)\t", c.stats.CellVoltages[id], t.CellVoltagesRaw[id])
		if (i+1)%cellsPerRow == 0 {
			c.print(protocol.EOL)
		}
	}

	lo, hi := c.monitor.MinCellVoltage(), c.monitor.MaxCellVoltage()
	fmt.Fprintf(c.out, "Cell mV: Min: %d | Avg: %d | Max: %d | Delta: %d%s",
		lo, c.monitor.AvgCellVoltage(), hi, hi-lo, protocol.EOL)

	for k := bms.ErrorKind(0); k < bms.ErrorKindCount; k++ {
		fmt.Fprintf(c.out, "%s: %d%s", k, c.stats.ErrorCounter[k], protocol.EOL)
	}
}

// tenths renders a value in 0.1 units as a decimal, e.g. -25 as "-2.5"
func tenths(v int32) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%d", sign, v/10, v%10)
}
