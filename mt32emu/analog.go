package mt32emu

import "math"

// coarseTapsMT32 / coarseTapsCM32L are the two model-specific 9-tap FIR
// coefficient sets for AnalogOutputCoarse, in Q14.
var coarseTapsMT32 = [9]int32{-16, 382, 2043, 5824, 8192, 5824, 2043, 382, -16}
var coarseTapsCM32L = [9]int32{16, -318, 1773, 6004, 8192, 6004, 1773, -318, 16}

// polyphaseTaps is a representative 48-tap, 3-phase polyphase FIR kernel
// (16 taps per phase) shared by AnalogOutputAccurate and
// AnalogOutputOversampled; the two modes differ only in their
// phase-advance increment (2 vs 1).
var polyphaseTaps [3][16]float32

func init() {
	for phase := 0; phase < 3; phase++ {
		for i := 0; i < 16; i++ {
			x := float64(i-8) + float64(phase)/3.0
			polyphaseTaps[phase][i] = float32(sinc(x) * hamming(i, 16))
		}
	}
}

func sinc(x float64) float64 {
	if x == 0 {
		return 1
	}
	pix := math.Pi * x
	return math.Sin(pix) / pix
}

func hamming(i, n int) float64 {
	return 0.54 - 0.46*math.Cos(2*math.Pi*float64(i)/float64(n-1))
}

// AnalogStage is the final polyphase/FIR output stage shared across all
// three AnalogOutputMode variants.
type AnalogStage struct {
	mode  AnalogOutputMode
	model ModelKind

	synthGain  float32
	reverbGain float32

	historyL, historyR [16]float32
	histPos            int

	phaseAccum int // polyphase position, advances by 1 or 2 per output sample
	phaseIncr  int

	// oldLPF enables an extra one-pole lowpass ahead of the FIR history,
	// reproducing the noticeably duller output of the original MT-32's
	// analogue output stage versus the CM-32L's brighter one.
	oldLPF    bool
	lpfStateL float32
	lpfStateR float32
}

const oldMT32AnalogLPFCoeff = 0.35

// NewAnalogStage configures the stage for a given mode/model. For non-
// MT-32-compatible models, reverbGain is pre-multiplied by 0.68 to
// compensate for the CM-32L's reverb-channel LPF DC attenuation. When
// quirks.OldMT32AnalogLPF is set, an extra one-pole lowpass is applied
// ahead of the FIR history stage.
func NewAnalogStage(mode AnalogOutputMode, model ModelKind, quirks *Quirks) *AnalogStage {
	a := &AnalogStage{mode: mode, model: model, synthGain: 1.0, reverbGain: 1.0}
	if model != ModelMT32 {
		a.reverbGain *= 0.68
	}
	a.oldLPF = quirks != nil && quirks.OldMT32AnalogLPF
	switch mode {
	case AnalogOutputAccurate:
		a.phaseIncr = 2
	case AnalogOutputOversampled:
		a.phaseIncr = 1
	}
	return a
}

// PushFrame mixes the six streams for one input frame and pushes the
// result into the FIR history ring, forming
// (nonReverb+reverbDry)*synthGain + reverbWet*reverbGain.
func (a *AnalogStage) PushFrame(nonReverbL, nonReverbR, reverbDryL, reverbDryR, reverbWetL, reverbWetR float32) {
	left := (nonReverbL+reverbDryL)*a.synthGain + reverbWetL*a.reverbGain
	right := (nonReverbR+reverbDryR)*a.synthGain + reverbWetR*a.reverbGain

	if a.oldLPF {
		a.lpfStateL += oldMT32AnalogLPFCoeff * (left - a.lpfStateL)
		a.lpfStateR += oldMT32AnalogLPFCoeff * (right - a.lpfStateR)
		left, right = a.lpfStateL, a.lpfStateR
	}

	a.historyL[a.histPos] = left
	a.historyR[a.histPos] = right
	a.histPos = (a.histPos + 1) % len(a.historyL)
}

// HasNextSample reports whether the accurate/oversampled filter has
// accumulated enough phase to emit another output frame without being
// fed a new input frame first.
func (a *AnalogStage) HasNextSample() bool {
	if a.mode == AnalogOutputCoarse || a.mode == AnalogOutputDisabled {
		return true
	}
	return a.phaseAccum < 3
}

// NextSample emits one filtered output frame and advances the phase
// accumulator by phaseIncr for the polyphase modes.
func (a *AnalogStage) NextSample() (left, right float32) {
	switch a.mode {
	case AnalogOutputDisabled:
		idx := (a.histPos - 1 + len(a.historyL)) % len(a.historyL)
		return clampF32(a.historyL[idx]), clampF32(a.historyR[idx])
	case AnalogOutputCoarse:
		taps := coarseTapsMT32
		if a.model != ModelMT32 {
			taps = coarseTapsCM32L
		}
		left = a.firCoarse(&a.historyL, taps)
		right = a.firCoarse(&a.historyR, taps)
		return clampF32(left), clampF32(right)
	default:
		phase := a.phaseAccum % 3
		left = a.firPoly(&a.historyL, phase)
		right = a.firPoly(&a.historyR, phase)
		a.phaseAccum = (a.phaseAccum + a.phaseIncr) % 3
		return clampF32(left), clampF32(right)
	}
}

func (a *AnalogStage) firCoarse(history *[16]float32, taps [9]int32) float32 {
	var acc float32
	n := len(history)
	for i := 0; i < 9; i++ {
		idx := (a.histPos - 1 - i + n*2) % n
		acc += history[idx] * (float32(taps[i]) / 16384.0)
	}
	return acc
}

func (a *AnalogStage) firPoly(history *[16]float32, phase int) float32 {
	var acc float32
	n := len(history)
	taps := polyphaseTaps[phase]
	for i := 0; i < 16; i++ {
		idx := (a.histPos - 1 - i + n*2) % n
		acc += history[idx] * taps[i]
	}
	return acc
}

func clampF32(v float32) float32 {
	if v > 1.0 {
		return 1.0
	}
	if v < -1.0 {
		return -1.0
	}
	return v
}

// OutputSampleRate returns the effective output sample rate for mode
// given the synth's fixed 32000Hz internal rate.
func OutputSampleRate(mode AnalogOutputMode) int {
	switch mode {
	case AnalogOutputAccurate:
		return 32000 * 3 / 2
	case AnalogOutputOversampled:
		return 32000 * 3
	default:
		return 32000
	}
}
