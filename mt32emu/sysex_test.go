package mt32emu

import (
	"testing"

	"pgregory.net/rapid"
)

func TestSysexAddress_RoundTripsThroughEncodeDecode(t *testing.T) {
	addr := uint32(0x100016)
	enc := EncodeSysexAddress(addr)
	back := DecodeSysexAddress(enc)
	if back != addr {
		t.Fatalf("round trip mismatch: got 0x%06X, want 0x%06X", back, addr)
	}
}

func TestMemAddr_RoundTripsForPaddedAddresses(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		lo := rapid.Uint32Range(0, 0x7F).Draw(rt, "lo")
		mid := rapid.Uint32Range(0, 0x7F).Draw(rt, "mid")
		hi := rapid.Uint32Range(0, 0x7F).Draw(rt, "hi")
		addr := (hi << 14) | (mid << 7) | lo
		if got := MemAddr(addr); got != addr {
			rt.Fatalf("MemAddr(%06X) = %06X, want %06X", addr, got, addr)
		}
	})
}

func TestSystemArea_WriteThenReadMasterVolRoundTrips(t *testing.T) {
	var sys systemArea
	sys.WriteSystemArea(masterVolOffset, []byte{80})
	got := sys.ReadSystemArea(masterVolOffset, 1)
	if got[0] != 80 {
		t.Fatalf("masterVol round trip: got %d, want 80", got[0])
	}
	if sys.masterVol != 80 {
		t.Fatalf("masterVol field not updated: got %d", sys.masterVol)
	}
}

func TestSystemArea_WriteClampsToDocumentedMaximum(t *testing.T) {
	var sys systemArea
	sys.WriteSystemArea(masterVolOffset, []byte{255})
	got := sys.ReadSystemArea(masterVolOffset, 1)
	if got[0] != 100 {
		t.Fatalf("masterVol write should clamp to 100, got %d", got[0])
	}
}

func TestSystemArea_OutOfRangeOffsetIsIgnored(t *testing.T) {
	var sys systemArea
	sys.WriteSystemArea(1000, []byte{1, 2, 3})
	if sys.masterTune != 0 || sys.masterVol != 0 {
		t.Fatal("writes past the system area's field table should be silently dropped")
	}
}

func TestSynth_SysexMasterVolRoundTrip(t *testing.T) {
	s := NewSynth()
	if err := s.Open(OpenConfig{
		PCMROM:    []int16{0, 1, 2, 3},
		ModelKind: ModelMT32,
		Quirks:    DefaultQuirks(),
	}); err != nil {
		t.Fatalf("Open: %v", err)
	}

	addrBytes := EncodeSysexAddress(AddrSystemArea + masterVolOffset)
	payload := []byte{0xF0, 0x41, 0x10, 0x16, 0x12, addrBytes[0], addrBytes[1], addrBytes[2], 64}
	checksum := rolandChecksumFor(payload[5:])
	payload = append(payload, checksum, 0xF7)

	if err := s.PlaySysex(0, payload); err != nil {
		t.Fatalf("PlaySysex: %v", err)
	}
	s.Render(make([]int16, 2), 1)

	if s.sys.masterVol != 64 {
		t.Fatalf("system area masterVol after sysex write: got %d, want 64", s.sys.masterVol)
	}
}

func rolandChecksumFor(data []byte) byte {
	var sum int
	for _, b := range data {
		sum += int(b)
	}
	return byte((128 - (sum % 128)) % 128)
}
