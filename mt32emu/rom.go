package mt32emu

// bitPermutation is the non-standard bit order the PCM ROM stores each
// 16-bit word in: result[i] = input bit permute[i].
var bitPermutation = [16]int{0, 9, 1, 2, 3, 4, 5, 6, 7, 10, 11, 12, 13, 14, 15, 8}

// DecodePCMWord unpermutes one raw little-endian 16-bit PCM ROM word and
// interprets the result as a sign-magnitude logarithmic sample (sign is
// bit 15 of the unpermuted word, magnitude the low 15 bits). A positive
// word decodes to its magnitude; a negative word decodes to
// -(magnitude+1), so a set sign bit always yields a negative value and
// every raw word decodes to a distinct int16.
func DecodePCMWord(raw uint16) int16 {
	var out uint16
	for i, srcBit := range bitPermutation {
		if raw&(1<<uint(srcBit)) != 0 {
			out |= 1 << uint(i)
		}
	}
	mag := int16(out & 0x7FFF)
	if out&0x8000 != 0 {
		mag = -mag - 1
	}
	return mag
}

// DecodePCMROM decodes a raw PCM ROM image (512KiB for MT-32, 1024KiB for
// CM-32L) of little-endian 16-bit words into logarithmic samples. Loading
// the bytes from disk, verifying size/SHA-1 and identifying the model are
// all caller responsibilities; this function only decodes the bit format.
func DecodePCMROM(raw []byte) []int16 {
	n := len(raw) / 2
	out := make([]int16, n)
	for i := 0; i < n; i++ {
		word := uint16(raw[2*i]) | uint16(raw[2*i+1])<<8
		out[i] = DecodePCMWord(word)
	}
	return out
}

// PCMSampleTable describes one named waveform's span within the decoded
// PCM ROM, plus its loop metadata. The control ROM's partial-parameter
// tables carry these entries; parsing the control ROM's own layout is a
// caller/loader responsibility, this struct is merely the shape
// patchParams.PCM is built from.
type PCMSampleTable struct {
	Start   uint32
	Len     uint32
	LoopLen uint32
	Loop    bool
}

// NewPCMWave slices the decoded PCM sample array per a PCMSampleTable
// entry into the pcmWave shape la32Generator consumes.
func NewPCMWave(decoded []int16, t PCMSampleTable) *pcmWave {
	end := t.Start + t.Len
	if end > uint32(len(decoded)) {
		end = uint32(len(decoded))
	}
	return &pcmWave{
		Samples: decoded[t.Start:end],
		Loop:    t.Loop,
		LoopLen: t.LoopLen,
	}
}
