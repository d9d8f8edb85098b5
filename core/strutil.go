package core

// Atoi parses a decimal integer the way the console always has:
// leading spaces are skipped, an optional sign is accepted, and parsing
// stops at the first non-digit. Text with no leading digits yields 0.
func Atoi(s string) int64 {
	i := 0
	for i < len(s) && (s[i] == ' ' || s[i] == '\t') {
		i++
	}

	negative := false
	if i < len(s) && (s[i] == '-' || s[i] == '+') {
		negative = s[i] == '-'
		i++
	}

	var n int64
	for ; i < len(s); i++ {
		c := s[i]
		if c < '0' || c > '9' {
			break
		}
		n = n*10 + int64(c-'0')
		if n > 1<<40 {
			// clamp; every console field is far narrower
			break
		}
	}

	if negative {
		return -n
	}
	return n
}

// PadRight pads s with spaces up to width. Longer strings are returned as is.
func PadRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	buf := make([]byte, width)
	copy(buf, s)
	for i := len(s); i < width; i++ {
		buf[i] = ' '
	}
	return string(buf)
}

// Itoa converts an integer to a string without using fmt package
// This is a lightweight alternative for embedded systems
func Itoa(n int64) string {
	if n == 0 {
		return "0"
	}

	negative := n < 0
	u := uint64(n)
	if negative {
		u = uint64(-n)
	}

	var buf [21]byte
	pos := len(buf)
	for u > 0 {
		pos--
		buf[pos] = byte('0' + u%10)
		u /= 10
	}

	if negative {
		pos--
		buf[pos] = '-'
	}

	return string(buf[pos:])
}
