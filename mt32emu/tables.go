package mt32emu

import "math"

// keyToPitch maps |key-60| to a base pitch offset; negated when key < 60.
// 68 entries cover the full usable key range either side of middle C.
var keyToPitch [68]int16

// pitchKeyfollow is the 17-entry keyfollow multiplier table, indexed 0..16,
// in 1/256 units: -1.0 at index 0 rising in steps of 0.25 to +3.0 at
// index 16 (index 4 == no keyfollow, index 8 == keyfollow 1.0, unity).
var pitchKeyfollow = [17]int16{
	-256, -192, -128, -64, 0, 64, 128, 192, 256, 320, 384, 448, 512, 576, 640, 704, 768,
}

// lowerDurationToDivisor converts an envelope time code 0..112 (in steps
// of 16) into an integer divisor driving exponential time shaping.
var lowerDurationToDivisor = [8]int32{1, 2, 4, 8, 16, 24, 32, 48}

// tvfKeyfollow is the 17-entry TVF keyfollow LUT.
var tvfKeyfollow = [17]int32{-21, -10, -5, 0, 2, 5, 8, 10, 13, 16, 18, 21, 26, 32, 42, 21, 21}

// biasLevelToBiasMult maps a 0..14 bias-level code to a signed multiplier.
var biasLevelToBiasMult = [15]int32{85, 42, 21, 16, 10, 5, 2, 0, -2, -5, -10, -16, -21, -74, -85}

// tvfBaseCutoffLimited caps the TVF base cutoff under Quirks.TVFBaseCutoffLimit,
// reproducing ROMs that never let the filter fully open even at raw cutoff 255.
const tvfBaseCutoffLimited = 240

// masterPanNumerator / slavePanNumerator implement mixType 3 (stereo-pan
// pair) panning: master and slave widen symmetrically from the pair's
// base pan position.
var masterPanNumerator = [15]int32{0, 0, 0, 0, 0, 0, 0, 0, 1, 2, 3, 4, 5, 6, 7}
var slavePanNumerator = [15]int32{0, 1, 2, 3, 4, 5, 6, 7, 7, 7, 7, 7, 7, 7, 7}

// panFactors is the 15-entry integer pan LUT: round(i * 8192 / 14).
var panFactors [15]int32

// levelToAmpSubtraction: round(128*(2-log10(n+1))), saturated to 255.
var levelToAmpSubtraction [101]uint8

// masterVolToAmpSubtraction: 106.31 - 16*log2(n), entry 0 forced to 255.
var masterVolToAmpSubtraction [101]uint8

// envLogarithmicTime: ceil(64 + 8*log2(x)) for x in 1..100, clamped at 0.
var envLogarithmicTime [101]int32

func init() {
	for i := range keyToPitch {
		keyToPitch[i] = int16(i * 16)
	}
	for i := range panFactors {
		panFactors[i] = int32(math.Round(float64(i) * 8192.0 / 14.0))
	}
	for n := 0; n <= 100; n++ {
		v := 128.0 * (2.0 - math.Log10(float64(n)+1.0))
		if v > 255 {
			v = 255
		}
		if v < 0 {
			v = 0
		}
		levelToAmpSubtraction[n] = uint8(math.Round(v))
	}
	masterVolToAmpSubtraction[0] = 255
	for n := 1; n <= 100; n++ {
		v := 106.31 - 16.0*math.Log2(float64(n))
		if v > 255 {
			v = 255
		}
		if v < 0 {
			v = 0
		}
		masterVolToAmpSubtraction[n] = uint8(math.Round(v))
	}
	for n := 0; n <= 100; n++ {
		x := n
		if x < 1 {
			x = 1
		}
		t := math.Ceil(64.0 + 8.0*math.Log2(float64(x)))
		if t < 0 {
			t = 0
		}
		envLogarithmicTime[n] = int32(t)
	}
}
