package mt32emu

// allpassFilter is a single serial all-pass stage: stores input-out/2 and
// emits out+stored/2, ring-buffered over a fixed delay size.
type allpassFilter struct {
	buf  []int32
	pos  int
}

func newAllpassFilter(size int) allpassFilter {
	return allpassFilter{buf: make([]int32, size)}
}

func (f *allpassFilter) process(input int32) int32 {
	stored := f.buf[f.pos]
	out := stored + (input >> 1)
	f.buf[f.pos] = input - (out >> 1)
	f.pos = (f.pos + 1) % len(f.buf)
	return out
}

// combFilter is a parallel comb stage with feedback; the first comb in a
// reverb model is instead used as an entrance delay with low-pass
// feedback (no feedback path, see entranceDelay below).
type combFilter struct {
	buf          []int32
	pos          int
	feedback     int32 // Q16
	tapPositions []int
}

func newCombFilter(size int, feedback int32, taps []int) combFilter {
	return combFilter{buf: make([]int32, size), feedback: feedback, tapPositions: taps}
}

func (c *combFilter) process(input int32) int32 {
	out := c.buf[c.pos]
	c.buf[c.pos] = input + ((out * c.feedback) >> 16)
	c.pos = (c.pos + 1) % len(c.buf)
	return out
}

func (c *combFilter) tap(offset int) int32 {
	idx := (c.pos + len(c.buf) - offset) % len(c.buf)
	return c.buf[idx]
}

// entranceDelay is the pre-delay-with-LPF stage: last <- filterFactor*last
// + input, writes lpfAmp*last into the ring, no feedback tap read back.
type entranceDelay struct {
	buf          []int32
	pos          int
	last         int32
	filterFactor int32 // Q16
	lpfAmp       int32 // Q16
}

func newEntranceDelay(size int, filterFactor, lpfAmp int32) entranceDelay {
	return entranceDelay{buf: make([]int32, size), filterFactor: filterFactor, lpfAmp: lpfAmp}
}

func (e *entranceDelay) process(input int32) int32 {
	e.last = (e.filterFactor*e.last)>>16 + input
	out := e.buf[e.pos]
	e.buf[e.pos] = (e.lpfAmp * e.last) >> 16
	e.pos = (e.pos + 1) % len(e.buf)
	return out
}

// reverbModeAllpassSizes / reverbModeCombSizes give per-mode allpass and
// comb buffer sizes; these scale with the 32kHz internal rate and are
// representative of the original ROOM/HALL/PLATE topologies (tap-delay
// uses the single tapDelaySize buffer instead).
var reverbModeAllpassSizes = [3][3]int{
	{78, 144, 278},   // ROOM
	{118, 233, 389},  // HALL
	{156, 256, 344},  // PLATE
}

var reverbModeCombSizes = [3][4]int{
	{246, 1173, 1567, 2248},
	{389, 1499, 1999, 2578},
	{334, 1301, 1789, 2398},
}

const tapDelaySize = 16384

// reverbDryAmps / reverbWetLevels are the 8-entry per-mode gain tables
// selected by setParameters(time, level).
var reverbDryAmps = [4][8]int32{
	{0, 9362, 11744, 13145, 14124, 14868, 15464, 15965},
	{0, 8607, 10994, 12432, 13451, 14228, 14848, 15356},
	{0, 8607, 10994, 12432, 13451, 14228, 14848, 15356},
	{0, 0, 0, 0, 0, 0, 0, 0},
}
var reverbWetLevels = [4][8]int32{
	{16384, 14860, 13493, 12255, 11130, 10103, 9165, 8305},
	{16384, 14695, 13188, 11841, 10634, 9551, 8578, 7702},
	{16384, 14695, 13188, 11841, 10634, 9551, 8578, 7702},
	{16384, 14860, 13493, 12255, 11130, 10103, 9165, 8305},
}

// reverbTapDryAmps16 is the extended 16-entry tap-delay dryAmp table used
// when time==0 or (time==1 and level==1).
var reverbTapDryAmps16 = [16]int32{
	16384, 15500, 14664, 13872, 13123, 12415, 11744, 11109,
	10507, 9937, 9397, 8886, 8401, 7942, 7507, 7094,
}

// reverbCombFeedback is the per-mode, per-comb (index 0..2 maps to
// combs[1..3]), per-time (0..7) feedback-factor table (Q16) that gives the
// "time" SysEx parameter control over decay length, independent of the
// dryAmp/wetLevel mix-level tables above.
var reverbCombFeedback = [3][3][8]int32{
	{ // ROOM
		{6000, 8000, 9800, 11200, 12400, 13400, 14200, 14900},
		{5200, 7200, 9000, 10400, 11600, 12600, 13500, 14300},
		{4400, 6400, 8200, 9600, 10800, 11900, 12800, 13700},
	},
	{ // HALL
		{8000, 9800, 11200, 12400, 13400, 14200, 14900, 15500},
		{7200, 9000, 10400, 11600, 12600, 13500, 14300, 15000},
		{6400, 8200, 9600, 10800, 11900, 12800, 13700, 14500},
	},
	{ // PLATE
		{9000, 10700, 12000, 13000, 13800, 14500, 15100, 15600},
		{8200, 9900, 11200, 12200, 13100, 13800, 14400, 15000},
		{7400, 9100, 10400, 11500, 12400, 13100, 13800, 14400},
	},
}

// reverbEntranceParams gives the entrance delay's filterFactor/lpfAmp pair
// (Q16) per model; an MT32CompatibleReverb-quirked CM-32L synth substitutes
// MT-32's values for a closer match to the boards it was validated against.
var reverbEntranceParams = [2][2]int32{
	ModelMT32: {1 << 15, 1 << 14},
	ModelCM32L: {28000, 15000},
}

// reverbTapPairs is the tap-delay mode's eight time-selected tap-position
// pairs, shared between the int and float processing paths.
var reverbTapPairs = [8][2]int{
	{200, 400}, {600, 900}, {1200, 1800}, {2400, 3600},
	{4000, 6000}, {6500, 9000}, {9500, 12500}, {12800, 16000},
}

// Reverb is the Boss reverb signal chain.
type Reverb struct {
	mode  ReverbMode
	model ModelKind
	quirks *Quirks

	entrance  entranceDelay
	allpasses [3]allpassFilter
	combs     [4]combFilter

	tapComb   combFilter
	tapPair   int // index 0..7 selecting the tap-position pair

	time       int
	dryAmp     int32
	wetLevel   int32
	addMask    int32 // "weird mul" multiplier

	silenceThreshold int32
}

// NewReverb allocates every buffer for the given mode only; the other
// three modes' buffers are not allocated, and a Reverb cannot switch mode
// after construction. When
// quirks.MT32CompatibleReverb is set, a CM-32L synth uses MT-32's entrance
// delay parameters instead of its own.
func NewReverb(mode ReverbMode, model ModelKind, quirks *Quirks) *Reverb {
	r := &Reverb{mode: mode, model: model, quirks: quirks, silenceThreshold: 8, addMask: 1 << 8}
	if mode == ReverbTapDelay {
		r.tapComb = newCombFilter(tapDelaySize, 0, nil)
		return r
	}
	sizes := reverbModeAllpassSizes[mode]
	for i, s := range sizes {
		r.allpasses[i] = newAllpassFilter(s)
	}
	combSizes := reverbModeCombSizes[mode]
	entranceModel := model
	if quirks != nil && quirks.MT32CompatibleReverb {
		entranceModel = ModelMT32
	}
	entrance := reverbEntranceParams[entranceModel]
	r.entrance = newEntranceDelay(combSizes[0], entrance[0], entrance[1])
	for i := 1; i < 4; i++ {
		r.combs[i] = newCombFilter(combSizes[i], 1<<14, nil)
	}
	return r
}

// SetParameters masks time/level to three bits each and selects dryAmp,
// wetLevel and per-comb feedback from the mode's tables; (time=0,level=0)
// silences reverb.
func (r *Reverb) SetParameters(time, level int) {
	time &= 7
	level &= 7
	r.time = time
	if time == 0 && level == 0 {
		r.dryAmp = 0
		r.wetLevel = 0
		return
	}
	if r.mode == ReverbTapDelay {
		if time == 0 || (time == 1 && level == 1) {
			r.dryAmp = reverbTapDryAmps16[level*2]
		} else {
			r.dryAmp = reverbDryAmps[r.mode][level]
		}
		r.tapPair = time
	} else {
		r.dryAmp = reverbDryAmps[r.mode][level]
		for i := 1; i < 4; i++ {
			r.combs[i].feedback = reverbCombFeedback[r.mode][i-1][time]
		}
	}
	r.wetLevel = reverbWetLevels[r.mode][level]
}

// weirdMul approximates the Boss chip's non-standard multiplier. This
// approximation is the only variant; no bit-exact replay is implemented.
func (r *Reverb) weirdMul(sample int32) int32 {
	return (sample * r.addMask) >> 8
}

// weirdMulFloat is the float pipeline's independent rendition of weirdMul:
// the source documents a different rounding rule here (plain division
// rather than a shift) plus a tiny DC bias added to keep denormal float
// values from stalling the FPU on prolonged near-silence.
func (r *Reverb) weirdMulFloat(sample float32) float32 {
	const denormalBias = 1e-20
	return sample*float32(r.addMask)/256 + denormalBias
}

// ProcessInt runs one stereo sample pair through the reverb graph and
// returns the wet output. Outside tap-delay mode the two inputs are
// averaged to mono before entering the graph.
func (r *Reverb) ProcessInt(inL, inR int32) (outL, outR int32) {
	if r.mode == ReverbTapDelay {
		return r.processTapDelay(inL, inR)
	}
	mono := (inL + inR) >> 1
	afterEntrance := r.entrance.process(mono)

	x := afterEntrance
	for i := range r.allpasses {
		x = r.allpasses[i].process(x)
	}

	var out1, out2, out3 int32
	for i := 1; i < 4; i++ {
		tapOut := r.combs[i].process(x)
		switch i {
		case 1:
			out1 = tapOut
		case 2:
			out2 = tapOut
		case 3:
			out3 = tapOut
		}
	}

	mix := out1 + out1/2 + out2 + out2/2 + out3
	mix = r.weirdMul(mix)
	outL = clampI32ToInt16Range(mix)
	outR = outL
	return
}

func (r *Reverb) processTapDelay(inL, inR int32) (int32, int32) {
	taps := reverbTapPairs[r.tapPair&7]
	left := r.tapComb.tap(taps[0])
	right := r.tapComb.tap(taps[1])
	feedback := r.tapComb.tap(taps[1] + 1)
	mono := (inL + inR) >> 1
	r.tapComb.process(mono + r.weirdMul(feedback))
	return clampI32ToInt16Range(left), clampI32ToInt16Range(right)
}

// ProcessFloat is the float pipeline's equivalent of ProcessInt. It shares
// the same int32 ring-buffer storage (only one pipeline ever runs against
// a given Reverb instance) but applies the documented float-path mix
// formula (1.5*(out1+out2)+out3, vs the int path's out1+out1/2+out2+out2/2+out3)
// and weirdMulFloat instead of weirdMul.
func (r *Reverb) ProcessFloat(inL, inR float32) (outL, outR float32) {
	if r.mode == ReverbTapDelay {
		return r.processTapDelayFloat(inL, inR)
	}
	mono := int32((inL + inR) / 2 * 32768)
	afterEntrance := r.entrance.process(mono)

	x := afterEntrance
	for i := range r.allpasses {
		x = r.allpasses[i].process(x)
	}

	var out1, out2, out3 int32
	for i := 1; i < 4; i++ {
		tapOut := r.combs[i].process(x)
		switch i {
		case 1:
			out1 = tapOut
		case 2:
			out2 = tapOut
		case 3:
			out3 = tapOut
		}
	}

	out1f, out2f, out3f := float32(out1)/32768, float32(out2)/32768, float32(out3)/32768
	mix := 1.5*(out1f+out2f) + out3f
	mix = r.weirdMulFloat(mix)
	outL = clampF32ToUnitRange(mix)
	outR = outL
	return
}

func (r *Reverb) processTapDelayFloat(inL, inR float32) (float32, float32) {
	taps := reverbTapPairs[r.tapPair&7]
	left := float32(r.tapComb.tap(taps[0])) / 32768
	right := float32(r.tapComb.tap(taps[1])) / 32768
	feedback := float32(r.tapComb.tap(taps[1] + 1)) / 32768
	mono := (inL + inR) / 2
	r.tapComb.process(int32((mono + r.weirdMulFloat(feedback)) * 32768))
	return clampF32ToUnitRange(left), clampF32ToUnitRange(right)
}

func clampF32ToUnitRange(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

func clampI32ToInt16Range(v int32) int32 {
	if v > 32767 {
		return 32767
	}
	if v < -32768 {
		return -32768
	}
	return v
}

// IsEmpty reports whether every sample in every ring buffer is below the
// silence threshold, allowing the caller to skip processing when idle.
func (r *Reverb) IsEmpty() bool {
	below := func(buf []int32) bool {
		for _, v := range buf {
			if v > r.silenceThreshold || v < -r.silenceThreshold {
				return false
			}
		}
		return true
	}
	if r.mode == ReverbTapDelay {
		return below(r.tapComb.buf)
	}
	if !below(r.entrance.buf) {
		return false
	}
	for i := range r.allpasses {
		if !below(r.allpasses[i].buf) {
			return false
		}
	}
	for i := 1; i < 4; i++ {
		if !below(r.combs[i].buf) {
			return false
		}
	}
	return true
}
