package mt32emu

// streamAccumulator holds the six pre-analogue per-sample accumulators
// described in the system overview: non-reverb L/R, reverb-dry L/R,
// reverb-wet L/R. Partial.render writes into it once per sample per
// active partial; Synth.renderFrame resets it at the start of each frame
// and then feeds it to the reverb and analogue stages.
type streamAccumulator struct {
	nonReverbL, nonReverbR int32
	reverbDryL, reverbDryR int32
	reverbWetL, reverbWetR int32
}

func (s *streamAccumulator) addNonReverb(l, r int32) {
	s.nonReverbL += l
	s.nonReverbR += r
}

func (s *streamAccumulator) addReverbDry(l, r int32) {
	s.reverbDryL += l
	s.reverbDryR += r
}

func (s *streamAccumulator) addReverbWet(l, r int32) {
	s.reverbWetL += l
	s.reverbWetR += r
}

func (s *streamAccumulator) reset() {
	*s = streamAccumulator{}
}

// streamAccumulatorFloat is the float-pipeline equivalent of
// streamAccumulator, used by Synth.RenderFloat's independent arithmetic
// path.
type streamAccumulatorFloat struct {
	nonReverbL, nonReverbR float32
	reverbDryL, reverbDryR float32
	reverbWetL, reverbWetR float32
}

func (s *streamAccumulatorFloat) addNonReverb(l, r float32) {
	s.nonReverbL += l
	s.nonReverbR += r
}

func (s *streamAccumulatorFloat) addReverbDry(l, r float32) {
	s.reverbDryL += l
	s.reverbDryR += r
}

func (s *streamAccumulatorFloat) addReverbWet(l, r float32) {
	s.reverbWetL += l
	s.reverbWetR += r
}

func (s *streamAccumulatorFloat) reset() {
	*s = streamAccumulatorFloat{}
}
