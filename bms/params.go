package bms

import (
	"math"

	"bqconsole/core"
)

// Kind selects how a parameter argument is parsed and printed
type Kind uint8

const (
	KindFlag     Kind = iota // "0" or "1"
	KindNumber               // decimal integer in [Min, Max]
	KindFixed4               // decimal integer written with exactly four characters
	KindCapacity             // mAh on the wire, stored as mA·s
	KindMask                 // thermistor enables, "a b c"
	KindBeta                 // thermistor betas, "aaaa bbbb cccc"
)

// Effect names the live action a console must take after a parameter changed
type Effect uint8

const (
	EffectNone Effect = iota
	EffectCharging
	EffectDischarging
	EffectDebug
	EffectShortCircuit
	EffectOvercurrentCharge
	EffectOvercurrentDischarge
	EffectOvervoltage
	EffectUndervoltage
)

const (
	maskArgLen = 5
	betaArgLen = 14
)

// Param is one editable configuration field
type Param struct {
	Name   string
	Usage  string
	Kind   Kind
	Effect Effect
	Min    int64
	Max    int64

	get func(c *Config) int64
	set func(c *Config, v int64) error
}

func flag(name, usage string, effect Effect, field func(c *Config) *bool) Param {
	return Param{
		Name: name, Usage: usage, Kind: KindFlag, Effect: effect, Min: 0, Max: 1,
		get: func(c *Config) int64 {
			if *field(c) {
				return 1
			}
			return 0
		},
		set: func(c *Config, v int64) error {
			*field(c) = v != 0
			return nil
		},
	}
}

func below(limit func(c *Config) int64) func(c *Config, v int64) bool {
	return func(c *Config, v int64) bool { return v < limit(c) }
}

func above(limit func(c *Config) int64) func(c *Config, v int64) bool {
	return func(c *Config, v int64) bool { return v > limit(c) }
}

func chargeTempMin(c *Config) int64    { return int64(c.ChargeTempMin) }
func chargeTempMax(c *Config) int64    { return int64(c.ChargeTempMax) }
func dischargeTempMin(c *Config) int64 { return int64(c.DischargeTempMin) }
func dischargeTempMax(c *Config) int64 { return int64(c.DischargeTempMax) }
func ovpMilliVolts(c *Config) int64    { return int64(c.OVPMilliVolts) }
func uvpMilliVolts(c *Config) int64    { return int64(c.UVPMilliVolts) }

// number builds a numeric parameter. check, when set, is the cross-field
// rule evaluated against the current record.
func number[T ~int8 | ~uint8 | ~int16 | ~uint16 | ~int32 | ~uint32](
	name, usage string, effect Effect, min, max int64,
	field func(c *Config) *T, check func(c *Config, v int64) bool,
) Param {
	return Param{
		Name: name, Usage: usage, Kind: KindNumber, Effect: effect, Min: min, Max: max,
		get: func(c *Config) int64 { return int64(*field(c)) },
		set: func(c *Config, v int64) error {
			if check != nil && !check(c, v) {
				return ErrUsage
			}
			*field(c) = T(v)
			return nil
		},
	}
}

var params = []Param{
	flag("charge", "0|1 enable charging", EffectCharging, func(c *Config) *bool { return &c.AllowCharging }),
	flag("discharge", "0|1 enable discharging", EffectDischarging, func(c *Config) *bool { return &c.AllowDischarging }),
	flag("bqdbg", "0|1 monitor debug output", EffectDebug, func(c *Config) *bool { return &c.Debug }),
	{Name: "rtbits", Usage: "\"a b c\" thermistor enables, 0|1 each", Kind: KindMask},
	number("rshunt", "shunt resistance, uOhm", EffectNone, 1, math.MaxUint32,
		func(c *Config) *uint32 { return &c.ShuntMicroOhm }, nil),
	{Name: "rtbeta", Usage: "\"bbbb bbbb bbbb\" thermistor beta, K", Kind: KindBeta},
	func() Param {
		p := number("cellnom", "nominal cell voltage, mV (4 digits)", EffectNone, 1, 9999,
			func(c *Config) *uint16 { return &c.CellNominalMV }, nil)
		p.Kind = KindFixed4
		return p
	}(),
	func() Param {
		p := number("cellfull", "full cell voltage, mV (4 digits)", EffectNone, 1, 9999,
			func(c *Config) *uint16 { return &c.CellFullMV }, nil)
		p.Kind = KindFixed4
		return p
	}(),
	{
		Name: "capacity", Usage: "nominal pack capacity, mAh", Kind: KindCapacity,
		Min: 1, Max: math.MaxInt32 / 3600,
		get: func(c *Config) int64 { return int64(c.CapacityMAsec) },
		set: func(c *Config, v int64) error {
			c.CapacityMAsec = int32(v * 3600)
			return nil
		},
	},
	number("idle_current", "idle current threshold, mA", EffectNone, 1, math.MaxUint16,
		func(c *Config) *uint16 { return &c.IdleCurrentMA }, nil),
	number("tchg_min", "min charge temperature, 0.1 C", EffectNone, math.MinInt16, math.MaxInt16,
		func(c *Config) *int16 { return &c.ChargeTempMin }, below(chargeTempMax)),
	number("tchg_max", "max charge temperature, 0.1 C", EffectNone, math.MinInt16, math.MaxInt16,
		func(c *Config) *int16 { return &c.ChargeTempMax }, above(chargeTempMin)),
	number("tdsg_min", "min discharge temperature, 0.1 C", EffectNone, math.MinInt16, math.MaxInt16,
		func(c *Config) *int16 { return &c.DischargeTempMin }, below(dischargeTempMax)),
	number("tdsg_max", "max discharge temperature, 0.1 C", EffectNone, math.MinInt16, math.MaxInt16,
		func(c *Config) *int16 { return &c.DischargeTempMax }, above(dischargeTempMin)),
	flag("bal_charge", "0|1 balance while charging", EffectNone, func(c *Config) *bool { return &c.BalanceInCharge }),
	flag("bal_enable", "0|1 enable balancing", EffectNone, func(c *Config) *bool { return &c.BalanceEnable }),
	number("bal_cellmin", "min cell voltage to balance, mV", EffectNone, 1, math.MaxUint16,
		func(c *Config) *uint16 { return &c.BalanceCellMinMV }, nil),
	number("bal_maxdiff", "max cell difference, mV", EffectNone, 1, math.MaxUint8,
		func(c *Config) *uint8 { return &c.BalanceMaxDiffMV }, nil),
	number("bal_idle", "min idle time before balancing, s", EffectNone, 1, math.MaxUint16,
		func(c *Config) *uint16 { return &c.BalanceIdleSec }, nil),
	number("ocd_ma", "overcurrent charge limit, mA", EffectOvercurrentCharge, 1, math.MaxInt32,
		func(c *Config) *int32 { return &c.OCDMilliAmps }, nil),
	number("ocd_ms", "overcurrent charge delay, ms", EffectOvercurrentCharge, 1, math.MaxUint16,
		func(c *Config) *uint16 { return &c.OCDMillis }, nil),
	number("scd_ma", "short circuit limit, mA", EffectShortCircuit, 1, math.MaxUint32,
		func(c *Config) *uint32 { return &c.SCDMilliAmps }, nil),
	number("scd_us", "short circuit delay, us", EffectShortCircuit, 1, math.MaxUint16,
		func(c *Config) *uint16 { return &c.SCDMicros }, nil),
	number("odp_ma", "overcurrent discharge limit, mA", EffectOvercurrentDischarge, 1, math.MaxUint32,
		func(c *Config) *uint32 { return &c.ODPMilliAmps }, nil),
	number("odp_ms", "overcurrent discharge delay, ms", EffectOvercurrentDischarge, 1, math.MaxUint16,
		func(c *Config) *uint16 { return &c.ODPMillis }, nil),
	number("ovp_mv", "cell overvoltage limit, mV", EffectOvervoltage, 1, math.MaxUint16,
		func(c *Config) *uint16 { return &c.OVPMilliVolts }, above(uvpMilliVolts)),
	number("ovp_sec", "cell overvoltage delay, s", EffectOvervoltage, 0, math.MaxUint8,
		func(c *Config) *uint8 { return &c.OVPSeconds }, nil),
	number("uvp_mv", "cell undervoltage limit, mV", EffectUndervoltage, 1, math.MaxUint16,
		func(c *Config) *uint16 { return &c.UVPMilliVolts }, below(ovpMilliVolts)),
	number("uvp_sec", "cell undervoltage delay, s", EffectUndervoltage, 0, math.MaxUint8,
		func(c *Config) *uint8 { return &c.UVPSeconds }, nil),
}

// Params returns the editable parameters in console order
func Params() []Param {
	return params
}

// LookupParam finds a parameter by console name
func LookupParam(name string) (*Param, bool) {
	for i := range params {
		if params[i].Name == name {
			return &params[i], true
		}
	}
	return nil, false
}

// Set parses arg and applies it to c. The record is untouched unless the
// whole argument is accepted.
func (p *Param) Set(c *Config, arg string) error {
	switch p.Kind {
	case KindMask:
		return setMask(c, arg)
	case KindBeta:
		return setBeta(c, arg)
	case KindFlag:
		if arg != "0" && arg != "1" {
			return ErrUsage
		}
	case KindFixed4:
		if len(arg) != 4 {
			return ErrUsage
		}
	}

	v := core.Atoi(arg)
	if v < p.Min || v > p.Max {
		return ErrUsage
	}
	return p.set(c, v)
}

// Format renders "name=value"
func (p *Param) Format(c *Config) string {
	return p.Name + "=" + p.formatValue(c)
}

func (p *Param) formatValue(c *Config) string {
	switch p.Kind {
	case KindMask:
		buf := make([]byte, 0, maskArgLen)
		for i := 0; i < MaxThermistors; i++ {
			if i > 0 {
				buf = append(buf, ' ')
			}
			if c.ThermistorMask&(1<<i) != 0 {
				buf = append(buf, '1')
			} else {
				buf = append(buf, '0')
			}
		}
		return string(buf)
	case KindBeta:
		s := ""
		for i, b := range c.ThermistorBeta {
			if i > 0 {
				s += " "
			}
			s += core.Itoa(int64(b))
		}
		return s
	case KindCapacity:
		mAs := p.get(c)
		return core.Itoa(mAs) + " mAs (" + core.Itoa(mAs/3600) + " mAh)"
	}
	return core.Itoa(p.get(c))
}

func setMask(c *Config, arg string) error {
	if len(arg) != maskArgLen {
		return ErrUsage
	}
	var mask uint8
	for i := 0; i < MaxThermistors; i++ {
		if core.Atoi(arg[2*i:]) != 0 {
			mask |= 1 << i
		}
	}
	c.ThermistorMask = mask
	return nil
}

func setBeta(c *Config, arg string) error {
	if len(arg) != betaArgLen {
		return ErrUsage
	}
	var beta [MaxThermistors]uint16
	for i := range beta {
		v := core.Atoi(arg[5*i:])
		if v <= 0 || v > math.MaxUint16 {
			return ErrUsage
		}
		beta[i] = uint16(v)
	}
	c.ThermistorBeta = beta
	return nil
}
