package bms

import "testing"

func TestConfigEncodedSize(t *testing.T) {
	c := DefaultConfig()
	data, err := c.MarshalBinary()
	if err != nil {
		t.Fatalf("MarshalBinary failed: %v", err)
	}
	if len(data) != ConfigSize {
		t.Fatalf("Encoded %d bytes, expected %d", len(data), ConfigSize)
	}
	if err := new(Config).UnmarshalBinary(data[:ConfigSize-1]); err != ErrShortRecord {
		t.Errorf("Expected ErrShortRecord, got %v", err)
	}
}

func TestConfigRoundTrip(t *testing.T) {
	c := DefaultConfig()
	c.Debug = true
	c.DischargeTempMin = -150
	c.CellOffsets[3] = -4
	c.CellOffsets[14] = 7
	c.Timestamp = 0xDEADBEEF
	c.CRC = 0x5A

	data, _ := c.MarshalBinary()
	var got Config
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	if got != c {
		t.Errorf("Round trip mismatch:\n got %+v\nwant %+v", got, c)
	}
}

func TestStatsRoundTrip(t *testing.T) {
	var s Stats
	s.ADCGain = 380
	s.ADCOffset = -12
	s.BatCycles = 17
	s.Count(ErrorUVP, 1234)
	s.Count(ErrorUVP, 5678)
	s.CellIDMap[2] = 9
	s.CellVoltages[14] = 4150
	s.Temperatures[1] = -55
	s.Timestamp = 42

	data, _ := s.MarshalBinary()
	if len(data) != StatsSize {
		t.Fatalf("Encoded %d bytes, expected %d", len(data), StatsSize)
	}
	var got Stats
	if err := got.UnmarshalBinary(data); err != nil {
		t.Fatalf("UnmarshalBinary failed: %v", err)
	}
	if got != s {
		t.Errorf("Round trip mismatch:\n got %+v\nwant %+v", got, s)
	}
	if got.ErrorCounter[ErrorUVP] != 2 || got.ErrorTimestamps[ErrorUVP] != 5678 {
		t.Errorf("Unexpected UVP counter %d at %d", got.ErrorCounter[ErrorUVP], got.ErrorTimestamps[ErrorUVP])
	}
}

func TestStatsCountSaturates(t *testing.T) {
	var s Stats
	s.ErrorCounter[ErrorAlert] = 0xFFFF
	s.Count(ErrorAlert, 1)
	if s.ErrorCounter[ErrorAlert] != 0xFFFF {
		t.Errorf("Counter wrapped to %d", s.ErrorCounter[ErrorAlert])
	}
	s.Count(ErrorKindCount, 1) // ignored
}

func TestErrorKindNames(t *testing.T) {
	if ErrorXReady.String() != "XREADY" || ErrorUserChgOCD.String() != "USR_CHG_OCD" {
		t.Errorf("Unexpected names %s %s", ErrorXReady, ErrorUserChgOCD)
	}
}
