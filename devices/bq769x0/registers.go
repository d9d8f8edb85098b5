package bq769x0

// I2C addresses
const (
	AddressDefault   uint16 = 0x08
	AddressAlternate uint16 = 0x18
)

// Register map
const (
	regSysStat   = 0x00
	regCellBal1  = 0x01
	regCellBal2  = 0x02
	regCellBal3  = 0x03
	regSysCtrl1  = 0x04
	regSysCtrl2  = 0x05
	regProtect1  = 0x06
	regProtect2  = 0x07
	regProtect3  = 0x08
	regOVTrip    = 0x09
	regUVTrip    = 0x0A
	regCCCfg     = 0x0B
	regVC1Hi     = 0x0C
	regBatHi     = 0x2A
	regTS1Hi     = 0x2C
	regCCHi      = 0x32
	regADCGain1  = 0x50
	regADCOffset = 0x51
	regADCGain2  = 0x59
)

// SYS_CTRL1 / SYS_CTRL2 bits
const (
	ctrl1ShutB   = 0x01
	ctrl1ShutA   = 0x02
	ctrl1TempSel = 0x08
	ctrl1ADCEn   = 0x10

	ctrl2ChgOn = 0x01
	ctrl2DsgOn = 0x02
	ctrl2CCEn  = 0x40
)

// PROTECT1 RSNS bit selects the upper threshold range
const protect1RSNS = 0x80

// CC_CFG must be written with this value after power up
const ccCfgInit = 0x19

var (
	// short circuit delay, µs
	scdDelays = [...]uint16{70, 100, 200, 400}
	// short circuit threshold with RSNS=1, mV across the shunt
	scdThresholds = [...]uint16{44, 67, 89, 111, 133, 155, 178, 200}
	// overcurrent in discharge delay, ms
	ocdDelays = [...]uint16{8, 20, 40, 80, 160, 320, 640, 1280}
	// overcurrent in discharge threshold with RSNS=1, mV
	ocdThresholds = [...]uint16{17, 22, 28, 33, 39, 44, 50, 56, 61, 67, 72, 78, 83, 89, 94, 100}
	// cell undervoltage delay, s
	uvDelays = [...]uint8{1, 4, 8, 16}
	// cell overvoltage delay, s
	ovDelays = [...]uint8{1, 2, 4, 8}
)

type namedReg struct {
	name string
	addr byte
}

// printable registers, in dump order
var dumpRegs = [...]namedReg{
	{"SYS_STAT", regSysStat},
	{"CELLBAL1", regCellBal1},
	{"CELLBAL2", regCellBal2},
	{"CELLBAL3", regCellBal3},
	{"SYS_CTRL1", regSysCtrl1},
	{"SYS_CTRL2", regSysCtrl2},
	{"PROTECT1", regProtect1},
	{"PROTECT2", regProtect2},
	{"PROTECT3", regProtect3},
	{"OV_TRIP", regOVTrip},
	{"UV_TRIP", regUVTrip},
	{"CC_CFG", regCCCfg},
	{"ADCGAIN1", regADCGain1},
	{"ADCOFFSET", regADCOffset},
	{"ADCGAIN2", regADCGain2},
}
