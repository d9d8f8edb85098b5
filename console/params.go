package console

import (
	"errors"

	"bqconsole/bms"
	"bqconsole/core"
)

// setParam is the handler shared by every parameter command. The current
// value is always printed; an empty argument only prints it.
func (c *Console) setParam(p *bms.Param, arg string) {
	if arg != "" {
		err := p.Set(&c.conf, arg)
		switch {
		case errors.Is(err, bms.ErrUsage):
			c.writeHelp(p.Name, p.Usage)
		case err != nil:
			c.println(p.Name + ": " + err.Error())
		default:
			c.monitor.Configure(&c.conf)
			c.applyEffect(p.Effect)
			c.saveConf()
		}
	}
	c.print(p.Format(&c.conf) + "  " + p.Usage)
}

func (c *Console) applyEffect(e bms.Effect) {
	switch e {
	case bms.EffectCharging:
		if c.conf.AllowCharging {
			c.reportSwitch("charging", c.monitor.EnableCharging())
		} else {
			c.monitor.DisableCharging()
		}
	case bms.EffectDischarging:
		if c.conf.AllowDischarging {
			c.reportSwitch("discharging", c.monitor.EnableDischarging())
		} else {
			c.monitor.DisableDischarging()
		}
	case bms.EffectDebug:
		core.SetDebugEnabled(c.conf.Debug)
	case bms.EffectShortCircuit:
		c.applyShortCircuit()
	case bms.EffectOvercurrentCharge:
		c.applyOvercurrentCharge()
	case bms.EffectOvercurrentDischarge:
		c.applyOvercurrentDischarge()
	case bms.EffectOvervoltage:
		c.applyOvervoltage()
	case bms.EffectUndervoltage:
		c.applyUndervoltage()
	}
}

func (c *Console) reportSwitch(what string, ok bool) {
	if ok {
		c.println(what + " enabled")
	} else {
		c.println(what + " refused")
	}
}

// applyProtections pushes all five protection settings to the monitor
func (c *Console) applyProtections() {
	c.applyShortCircuit()
	c.applyOvercurrentCharge()
	c.applyOvercurrentDischarge()
	c.applyOvervoltage()
	c.applyUndervoltage()
}

func (c *Console) applyShortCircuit() {
	v := c.monitor.SetShortCircuitProtection(c.conf.SCDMilliAmps, c.conf.SCDMicros)
	c.println("SCD applied: " + core.Itoa(int64(v)) + " mA")
}

func (c *Console) applyOvercurrentCharge() {
	v := c.monitor.SetOvercurrentChargeProtection(c.conf.OCDMilliAmps, c.conf.OCDMillis)
	c.println("OCD applied: " + core.Itoa(int64(v)) + " mA")
}

func (c *Console) applyOvercurrentDischarge() {
	v := c.monitor.SetOvercurrentDischargeProtection(c.conf.ODPMilliAmps, c.conf.ODPMillis)
	c.println("ODP applied: " + core.Itoa(int64(v)) + " mA")
}

func (c *Console) applyOvervoltage() {
	v := c.monitor.SetCellOvervoltageProtection(c.conf.OVPMilliVolts, c.conf.OVPSeconds)
	c.println("OVP applied: " + core.Itoa(int64(v)) + " mV")
}

func (c *Console) applyUndervoltage() {
	v := c.monitor.SetCellUndervoltageProtection(c.conf.UVPMilliVolts, c.conf.UVPSeconds)
	c.println("UVP applied: " + core.Itoa(int64(v)) + " mV")
}
