package mt32emu

// patchParams is the resolved, per-partial set of patch-cache values a
// Partial needs to run its envelopes and wave generator for one note.
// The memory-region dispatcher (out of core scope) produces these from
// raw SysEx timbre/patch bytes; Partial only ever reads them.
type patchParams struct {
	WaveForm     WaveForm
	Resonance    int32
	PulseWidth   int32
	Sawtooth     bool
	Reverb       bool
	PanSetting   int32 // 0..14
	PairMixType  MixType
	KeyfollowTVP int
	KeyfollowTVF int
	BiasLevel    int
	BiasPoint    int32
	RawCutoff    int32
	PitchCoarse  int32
	PitchFine    int32
	ModSens      int32
	TimbreLevel  int32
	NiceAmpRamp  bool

	TVPTargets [4]int32
	TVPTimes   [4]int32
	TVFTargets [5]int32
	TVFTimes   [5]int32
	TVATargets [5]int32
	TVATimes   [5]int32

	PCM *pcmWave
}

// Partial is one of the pool's physical voice generators. A ring-
// modulated or stereo-pan pair is two Partials linked by pairIdx/pairPos
// rather than one Partial owning two generators; both halves keep their
// own independent envelopes and wave generator, matching the original
// allocator's one-partial-per-LA32-voice model.
type Partial struct {
	index int

	ownerPart int // -1 when free
	poly      *Poly
	pairIdx   int // index of the sibling Partial within the shared pool, -1 if unpaired
	pairPos   int // 0 (master) or 1 (slave) within the pair
	mixType   MixType
	quirks    *Quirks

	la  la32Generator
	tvp tvp
	tvf tvf
	tva tva

	panSetting          int32 // 0..14, post nice-panning adjustment
	panLeft, panRight   int32
	panLeftF, panRightF float32
	renderedThisTick    bool
	reverb              bool

	active bool
}

func newPartialPool(n int) []Partial {
	pool := make([]Partial, n)
	for i := range pool {
		pool[i].index = i
		pool[i].ownerPart = -1
		pool[i].pairIdx = -1
	}
	return pool
}

func (p *Partial) isFree() bool { return p.ownerPart == -1 }

// activate binds this partial to a part/poly and resets its wave
// generator and envelopes from the patch parameters. Pairing (pairIdx/
// pairPos) is established afterward by the caller, once all of a note's
// partials have been activated; see Synth.noteOn and pairWith.
func (p *Partial) activate(part int, poly *Poly, params *patchParams, key int, velocity int, masterVol int32, quirks *Quirks, prng *prngState) {
	p.ownerPart = part
	p.poly = poly
	p.mixType = params.PairMixType
	p.pairIdx = -1
	p.pairPos = 0
	p.quirks = quirks
	p.active = true
	p.renderedThisTick = false
	p.reverb = params.Reverb

	pan := params.PanSetting
	if !quirks.NicePanning {
		pan &^= 1
	}
	p.panSetting = pan
	left := panFactors[clampPan(pan)]
	right := panFactors[clampPan(14-pan)]
	if !quirks.NicePartialMixing && p.index&4 != 0 {
		left, right = -left, -right
	}
	p.panLeft, p.panRight = left, right
	p.panLeftF, p.panRightF = float32(left)/8192, float32(right)/8192

	p.la = la32Generator{pcm: params.PCM}

	p.tvp.reset(key, params.PitchCoarse, params.PitchFine, params.KeyfollowTVP, params.TVPTargets, params.TVPTimes, params.ModSens, quirks, prng)
	p.tvf.reset(key, params.KeyfollowTVF, params.BiasLevel, params.BiasPoint, params.RawCutoff, params.TVFTargets, params.TVFTimes, quirks)
	velAmp := int32(velocity) << 1
	p.tva.reset(params.TimbreLevel, velAmp, masterVol, params.TVATargets, params.TVATimes, params.NiceAmpRamp, quirks)
}

func clampPan(p int32) int32 {
	if p < 0 {
		return 0
	}
	if p > 14 {
		return 14
	}
	return p
}

// pairWith links this partial to its sibling sibIdx (an index into the
// same partial pool), forcing both halves of the pair to agree on
// mixType. pos is 0 for the master half, 1 for the slave half. mixType 3
// (stereo-pan) recomputes this partial's pan factors from the "master
// pan numerator"/"slave pan numerator" tables instead of the ordinary
// panFactors lookup.
func (p *Partial) pairWith(sibIdx, pos int, mixType MixType) {
	p.pairIdx = sibIdx
	p.pairPos = pos
	p.mixType = mixType
	if mixType == MixStereoPan {
		p.applyPairPan(pos)
	}
}

func (p *Partial) applyPairPan(pos int) {
	numerator := &masterPanNumerator
	if pos == 1 {
		numerator = &slavePanNumerator
	}
	idx := clampPan(p.panSetting)
	left := panFactors[clampPan(numerator[idx])]
	right := panFactors[clampPan(14-numerator[idx])]
	p.panLeft, p.panRight = left, right
	p.panLeftF, p.panRightF = float32(left)/8192, float32(right)/8192
}

// deactivate returns the partial to the free pool.
func (p *Partial) deactivate() {
	p.ownerPart = -1
	p.poly = nil
	p.pairIdx = -1
	p.pairPos = 0
	p.mixType = MixIndependent
	p.quirks = nil
	p.active = false
}

func (p *Partial) startAbort() {
	p.tvp.startAbort()
	p.tvf.startAbort()
	p.tva.startAbort()
}

func (p *Partial) startDecay() {
	p.tvp.startDecay()
	p.tvf.startDecay()
	p.tva.startDecay()
}

func (p *Partial) isFinished() bool {
	return p.tva.isTerminal() && p.tva.baseAmp == 0
}

func (p *Partial) isRingPaired() bool {
	return p.pairIdx >= 0 && (p.mixType == MixRingPlusMaster || p.mixType == MixRingOnly)
}

// render produces one sample and accumulates it, panned, into the six
// integer stream accumulators. For a ring-modulated pair only the master
// half (pairPos 0) calls in; it renders its own sample, drives the
// slave's envelopes and generator as a side effect, and emits the
// combined result. The slave's own later call in the render loop then
// finds renderedThisTick already set and returns immediately.
func (p *Partial) render(pool []Partial, streams *streamAccumulator, reverbGain float32, useReverb bool) {
	if p.renderedThisTick {
		return
	}
	p.renderedThisTick = true

	if p.isRingPaired() {
		if p.pairPos == 1 {
			return
		}
		slave := &pool[p.pairIdx]
		slave.renderedThisTick = true

		master := p.sampleOnlyInt()
		slaveSample := slave.sampleOnlyInt()
		ring := ringModulateInt(master, slaveSample)

		noMix := p.quirks != nil && p.quirks.RingModNoMix
		out := ring
		if p.mixType == MixRingPlusMaster && !noMix {
			out = clampInt16(int32(master) + int32(ring))
		}
		p.emit(streams, out, reverbGain, useReverb)
		return
	}

	p.emit(streams, p.sampleOnlyInt(), reverbGain, useReverb)
}

// renderFloat is the float-pipeline equivalent of render, driving the
// same envelopes but the float32 wave-generator and mixing arithmetic
// instead of the int16 path.
func (p *Partial) renderFloat(pool []Partial, streams *streamAccumulatorFloat, reverbGain float32, useReverb bool) {
	if p.renderedThisTick {
		return
	}
	p.renderedThisTick = true

	if p.isRingPaired() {
		if p.pairPos == 1 {
			return
		}
		slave := &pool[p.pairIdx]
		slave.renderedThisTick = true

		master := p.sampleOnlyFloat()
		slaveSample := slave.sampleOnlyFloat()
		ring := ringModulateFloat(master, slaveSample)

		noMix := p.quirks != nil && p.quirks.RingModNoMix
		out := ring
		if p.mixType == MixRingPlusMaster && !noMix {
			out = master + ring
		}
		p.emitFloat(streams, out, reverbGain, useReverb)
		return
	}

	p.emitFloat(streams, p.sampleOnlyFloat(), reverbGain, useReverb)
}

// sampleOnlyInt advances this partial's envelopes by one tick and
// returns its integer-pipeline sample, without panning or mixing it into
// any stream. Used directly by render for an unpaired or non-ring
// partial, and by render's pair handling to read the slave's sample.
// Synth-mode partials (here and in sampleOnlyFloat) are rendered with a
// fixed resonance of 16, pulse width 128 and no sawtooth; the patch's
// Resonance, PulseWidth and Sawtooth values are not read.
func (p *Partial) sampleOnlyInt() int16 {
	pitch := p.tvp.nextPitch()
	cutoff := (p.tvf.base() << 18) + p.tvf.nextCutoffModifier()
	amp := p.tva.nextAmp()

	if p.la.pcm != nil {
		s, active := p.la.pcmSampleInt(pitch, p.pcmInterpolates())
		if !active {
			p.tva.terminal = true
		}
		return s
	}
	return p.la.synthSampleInt(pitch, cutoff, amp, 16, 128, false)
}

func (p *Partial) sampleOnlyFloat() float32 {
	pitch := float32(p.tvp.nextPitch()) / 256
	cutoff := float32((p.tvf.base()<<18)+p.tvf.nextCutoffModifier()) / float32(256*sineSegmentLen)
	amp := float32(p.tva.nextAmp()) / 256

	if p.la.pcm != nil {
		s, active := p.la.pcmSampleFloat(pitch, p.pcmInterpolates())
		if !active {
			p.tva.terminal = true
		}
		return s
	}
	return p.la.synthSampleFloat(pitch, cutoff, amp, 16.0/127, 128.0/255, false)
}

// pcmInterpolates reports whether this partial's PCM read position
// should be linearly interpolated; the non-interpolated case is the
// slave half of a ring-modulated pair.
func (p *Partial) pcmInterpolates() bool {
	return !(p.pairPos == 1 && p.isRingPaired())
}

func (p *Partial) emit(streams *streamAccumulator, sample int16, reverbGain float32, useReverb bool) {
	left := (int32(sample) * p.panLeft) >> 13
	right := (int32(sample) * p.panRight) >> 13

	streams.addNonReverb(left, right)
	if useReverb {
		streams.addReverbDry(left, right)
		streams.addReverbWet(int32(float32(left)*reverbGain), int32(float32(right)*reverbGain))
	}
}

func (p *Partial) emitFloat(streams *streamAccumulatorFloat, sample float32, reverbGain float32, useReverb bool) {
	left := sample * p.panLeftF
	right := sample * p.panRightF

	streams.addNonReverb(left, right)
	if useReverb {
		streams.addReverbDry(left, right)
		streams.addReverbWet(left*reverbGain, right*reverbGain)
	}
}

func (p *Partial) resetRenderFlag() { p.renderedThisTick = false }
