package protocol

// CRC8Update folds one byte into a CRC-8/CCITT accumulator (polynomial 0x07)
// This matches avr-libc _crc8_ccitt_update and the bq769x0 bus CRC
func CRC8Update(crc uint8, b byte) uint8 {
	crc ^= b
	for i := 0; i < 8; i++ {
		if crc&0x80 != 0 {
			crc = crc<<1 ^ 0x07
		} else {
			crc <<= 1
		}
	}
	return crc
}

// CRC8 calculates the CRC-8 checksum of data with a zero seed
func CRC8(data []byte) uint8 {
	crc := uint8(0)
	for _, b := range data {
		crc = CRC8Update(crc, b)
	}
	return crc
}
