package mt32emu

// Sysex memory-map region base addresses, in the padded (SysEx) address
// space where every byte carries only 7 significant bits.
const (
	AddrPatchTemp   uint32 = 0x030000
	AddrRhythmTemp  uint32 = 0x030110
	AddrTimbreTemp  uint32 = 0x040000
	AddrPatchBank   uint32 = 0x050000
	AddrTimbreBank  uint32 = 0x080000
	AddrSystemArea  uint32 = 0x100000
	AddrDisplayArea uint32 = 0x200000
	AddrReset       uint32 = 0x7F0000
)

// EncodeSysexAddress packs a plain memory address's nibbles into the
// padded 21-bit-into-three-7-bit-bytes SysEx form.
func EncodeSysexAddress(addr uint32) [3]byte {
	return [3]byte{
		byte((addr >> 14) & 0x7F),
		byte((addr >> 7) & 0x7F),
		byte(addr & 0x7F),
	}
}

// DecodeSysexAddress is the inverse of EncodeSysexAddress.
func DecodeSysexAddress(b [3]byte) uint32 {
	return (uint32(b[0]&0x7F) << 14) | (uint32(b[1]&0x7F) << 7) | uint32(b[2]&0x7F)
}

// MemAddr converts a padded SysEx address into its plain linear form
// (MT32EMU_MEMADDR in the original naming). Round-tripping
// MemAddr(SysexMemAddr(x)) == x holds for any x whose nibbles already
// respect the 7-bit padding, since the two are literal inverses of the
// same base-128 encoding.
func MemAddr(sysexAddr uint32) uint32 {
	return DecodeSysexAddress(EncodeSysexAddress(sysexAddr))
}

// SysexMemAddr is the forward padding operation, re-exposed at the plain-
// address granularity for callers that already have a uint32.
func SysexMemAddr(addr uint32) uint32 {
	return MemAddr(addr)
}

// systemArea holds the SysEx-addressable system region: master tune,
// reverb mode/time/level, per-part reserve settings, per-part channel
// assignments and master volume.
type systemArea struct {
	masterTune   uint8
	reverbMode   uint8
	reverbTime   uint8
	reverbLevel  uint8
	reserve      [numParts]uint8
	chanAssign   [numParts]uint8
	masterVol    uint8
}

// systemAreaMax clamps a raw SysEx byte against the system area's documented
// maximum for the given offset; values above the maximum are clamped
// rather than rejected, matching a SysEx write-then-read round trip.
var systemAreaMax = [1 + 1 + 1 + 1 + numParts + numParts + 1]uint8{
	127, 3, 7, 7,
	9, 9, 9, 9, 9, 9, 9, 9, 9, // reserve: per-part maximum only; the sum is not checked
	16, 16, 16, 16, 16, 16, 16, 16, 16, // chanAssign: 0..15 or 16=off
	100,
}

// WriteSystemArea applies a SysEx write to the system area starting at
// relative offset off, clamping every byte to its documented maximum.
func (s *systemArea) WriteSystemArea(off int, data []byte) {
	fields := s.fieldPointers()
	for i, b := range data {
		idx := off + i
		if idx < 0 || idx >= len(fields) {
			continue
		}
		if b > systemAreaMax[idx] {
			b = systemAreaMax[idx]
		}
		*fields[idx] = b
	}
}

// ReadSystemArea returns n bytes starting at relative offset off.
func (s *systemArea) ReadSystemArea(off, n int) []byte {
	fields := s.fieldPointers()
	out := make([]byte, n)
	for i := 0; i < n; i++ {
		idx := off + i
		if idx < 0 || idx >= len(fields) {
			out[i] = 0
			continue
		}
		out[i] = *fields[idx]
	}
	return out
}

func (s *systemArea) fieldPointers() []*uint8 {
	fields := make([]*uint8, 0, len(systemAreaMax))
	fields = append(fields, &s.masterTune, &s.reverbMode, &s.reverbTime, &s.reverbLevel)
	for i := range s.reserve {
		fields = append(fields, &s.reserve[i])
	}
	for i := range s.chanAssign {
		fields = append(fields, &s.chanAssign[i])
	}
	fields = append(fields, &s.masterVol)
	return fields
}

// masterVolOffset is the relative offset of masterVol within the system
// area, matching the documented absolute address 0x100016 (22 decimal =
// 4 + 9 + 9 bytes in).
const masterVolOffset = 4 + numParts + numParts
