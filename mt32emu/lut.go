package mt32emu

import "math"

// Fixed table sizes for the log/exp domain arithmetic the LA32 wave
// generator runs in. Grounded on the interpolated lookup-table approach
// in the source tree's audio_lut.go (fastSin/fastTanh): a precomputed
// table plus linear interpolation between adjacent entries, built once in
// init rather than calling math functions per sample.
const (
	expTableSize  = 512
	expTableMask  = expTableSize - 1
	logSineSize   = 512 // 9-bit index
	sineSegmentLen = 1 << 18
)

// expTable holds a 14-bit linear value per 9-bit logarithmic index; see
// interpExp. logSineTable holds the 13-bit log-sine value per 9-bit
// phase index used within a cosine corner segment.
var expTable [expTableSize]int32
var logSineTable [logSineSize]int32

func init() {
	for i := 0; i < expTableSize; i++ {
		// 2^(i/512) scaled into 14-bit linear range, matching the
		// chip's log-domain-to-linear unlogger.
		x := math.Pow(2, float64(i)/float64(expTableSize))
		expTable[i] = int32((x - 1.0) * (1 << 13))
	}
	for i := 0; i < logSineSize; i++ {
		phase := (float64(i) + 0.5) * math.Pi / float64(2*logSineSize)
		s := math.Sin(phase)
		if s < 1e-9 {
			s = 1e-9
		}
		logSineTable[i] = int32(-math.Log2(s) * (1 << 8))
	}
}

// interpExp converts a 12-bit logarithmic value (bits 3-11 select the
// table entry, bits 0-2 are the fraction) into its 14-bit linear
// equivalent, interpolating between adjacent table entries, matching the
// chip's unlogger.
func interpExp(logValue uint32) int32 {
	index := (logValue >> 3) & expTableMask
	frac := int32(logValue & 7)
	next := (index + 1) & expTableMask
	a, b := expTable[index], expTable[next]
	return (1 << 13) + a + ((b-a)*frac)>>3
}

// logSine returns the 13-bit logarithmic sine value for a 9-bit phase
// index within one quarter-cosine corner segment.
func logSine(index uint32) int32 {
	return logSineTable[index&(logSineSize-1)]
}

// resonanceDecayFactor is an 8-entry table of attenuation divisors for the
// resonance sine, indexed by resonance>>2.
var resonanceDecayFactor = [8]int32{31, 16, 12, 8, 5, 3, 2, 1}

// minCosineSegment is the minimum cosine-corner length of the
// phase-distortion segmentation used by synth-mode waveforms: rising-sine,
// high-linear, falling-sine per half period. The segment lengths are
// derived per-sample from cutoff/pulse-width in la32.go.
const minCosineSegment = 1 << 10
