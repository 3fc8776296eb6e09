package mt32emu

import "sync/atomic"

const (
	defaultPartialCount = 32
	sampleRate          = 32000
	samplesPerRun       = 32 // matches the MIDI-event due-time window (frame + SAMPLES_PER_RUN - 1)
)

// OpenConfig carries everything Open needs: already-loaded and decoded
// ROM data, quirk flags derived from ROM identity, and renderer/analogue/
// reverb selections. Loading the raw ROM bytes, identifying the model via
// SHA-1 and populating Quirks are all caller responsibilities.
type OpenConfig struct {
	PCMROM      []int16
	PartialCount int // 0 selects defaultPartialCount
	Quirks      Quirks
	ModelKind   ModelKind
	Renderer    RendererType
	AnalogMode  AnalogOutputMode
	Reverb      ReverbMode
	Logger      DebugLogger
	// PitchJitterSeed seeds the TVP pitch-jitter PRNG. Zero selects a
	// fixed default seed, making replay of the same MIDI stream against
	// a freshly opened Synth reproduce the same jitter sequence; set it
	// explicitly only when multiple instances must not share a sequence.
	PitchJitterSeed uint64
}

// Synth is the top-level pull-driven rendering pipeline: MIDI intake,
// partial rendering, reverb and the analogue stage, in that order, once
// per render call.
type Synth struct {
	opened bool

	quirks    Quirks
	modelKind ModelKind
	renderer  RendererType
	logger    DebugLogger

	partials []Partial
	polys    []Poly
	parts    [numParts]Part
	alloc    *partialAllocator

	reverb *Reverb
	analog *AnalogStage

	midi *midiQueue

	renderedSampleCount atomic.Uint32

	pcmROM []int16
	sys    systemArea
	prng   *prngState

	stream  streamAccumulator
	streamF streamAccumulatorFloat
}

// NewSynth constructs an unopened instance. Open must succeed before any
// rendering or MIDI call is valid.
func NewSynth() *Synth {
	return &Synth{}
}

// Open allocates every pool, buffer and delay line up front. Render and
// RenderFloat do not allocate afterwards; RenderStreams allocates its six
// result slices on each call, and system-area SysEx writes and reads
// allocate small temporary slices. Open
// either fully succeeds and the instance becomes usable, or it fully
// rolls back and leaves the instance closed -- Configuration is the only
// fatal error class.
func (s *Synth) Open(cfg OpenConfig) error {
	if s.opened {
		return newConfigError("synth already open")
	}
	if len(cfg.PCMROM) == 0 {
		return newConfigError("PCM ROM is empty")
	}

	partialCount := cfg.PartialCount
	if partialCount <= 0 {
		partialCount = defaultPartialCount
	}

	s.quirks = cfg.Quirks
	s.modelKind = cfg.ModelKind
	s.renderer = cfg.Renderer
	s.logger = cfg.Logger
	if s.logger == nil {
		s.logger = discardLogger{}
	}
	s.pcmROM = cfg.PCMROM

	s.partials = newPartialPool(partialCount)
	s.polys = newPolyPool(partialCount)
	s.parts = newParts()
	s.alloc = newPartialAllocator(s.partials, s.polys, &s.parts)

	s.reverb = NewReverb(cfg.Reverb, cfg.ModelKind, &s.quirks)
	s.analog = NewAnalogStage(cfg.AnalogMode, cfg.ModelKind, &s.quirks)

	s.midi = newMIDIQueue(1024, 32*1024)

	s.prng = newPRNG(cfg.PitchJitterSeed)
	s.sys.masterVol = 100
	s.renderedSampleCount.Store(0)
	s.opened = true
	return nil
}

// Close releases the instance's buffers, returning it to the unopened
// state.
func (s *Synth) Close() {
	s.partials = nil
	s.polys = nil
	s.alloc = nil
	s.reverb = nil
	s.analog = nil
	s.midi = nil
	s.opened = false
}

func (s *Synth) IsOpen() bool { return s.opened }

// RenderedSampleCount returns the running, 32-bit-wrapping count of
// rendered samples since Open. Safe to call from a goroutine other than
// the renderer's, unlike every other Synth method.
func (s *Synth) RenderedSampleCount() uint32 { return s.renderedSampleCount.Load() }

// PlayMsg enqueues a short MIDI message (1-3 status+data bytes packed
// into msg) at the given timestamp. Returns a queue-saturation error if
// the ring is full; the caller controls retry.
func (s *Synth) PlayMsg(ts uint32, msg uint32) error {
	if !s.opened {
		return newConfigError("synth not open")
	}
	return s.midi.PushShortMessage(ts, msg)
}

// PlaySysex enqueues a complete SysEx payload (including F0/F7 framing)
// at the given timestamp.
func (s *Synth) PlaySysex(ts uint32, payload []byte) error {
	if !s.opened {
		return newConfigError("synth not open")
	}
	return s.midi.PushSysex(ts, payload)
}

// Render drives all four pipeline stages to completion for frames stereo
// frames and writes interleaved int16 samples into out (len(out) must be
// >= frames*2).
func (s *Synth) Render(out []int16, frames int) {
	for i := 0; i < frames; i++ {
		l, r := s.renderFrame()
		out[2*i] = l
		out[2*i+1] = r
	}
	s.renderedSampleCount.Add(uint32(frames))
}

// RenderFloat is the float32-pipeline equivalent of Render.
func (s *Synth) RenderFloat(out []float32, frames int) {
	for i := 0; i < frames; i++ {
		l, r := s.renderFrameFloat()
		out[2*i] = l
		out[2*i+1] = r
	}
	s.renderedSampleCount.Add(uint32(frames))
}

// RenderStreams exposes the six pre-analogue streams directly, bypassing
// the analogue stage; used by callers that want to apply their own
// downstream processing.
func (s *Synth) RenderStreams(frames int) (nonReverbL, nonReverbR, reverbDryL, reverbDryR, reverbWetL, reverbWetR []int32) {
	nonReverbL = make([]int32, frames)
	nonReverbR = make([]int32, frames)
	reverbDryL = make([]int32, frames)
	reverbDryR = make([]int32, frames)
	reverbWetL = make([]int32, frames)
	reverbWetR = make([]int32, frames)

	for i := 0; i < frames; i++ {
		s.dispatchDueMIDI()
		s.stream.reset()
		s.renderActivePartials()
		wetL, wetR := s.reverb.ProcessInt(s.stream.reverbWetL, s.stream.reverbWetR)

		nonReverbL[i] = s.stream.nonReverbL
		nonReverbR[i] = s.stream.nonReverbR
		reverbDryL[i] = s.stream.reverbDryL
		reverbDryR[i] = s.stream.reverbDryR
		reverbWetL[i] = wetL
		reverbWetR[i] = wetR

		s.alloc.reap()
		s.renderedSampleCount.Add(1)
	}
	return
}

func (s *Synth) renderFrame() (int16, int16) {
	s.dispatchDueMIDI()
	s.stream.reset()
	s.renderActivePartials()

	wetL, wetR := s.reverb.ProcessInt(s.stream.reverbWetL, s.stream.reverbWetR)

	s.analog.PushFrame(
		float32(s.stream.nonReverbL)/32768, float32(s.stream.nonReverbR)/32768,
		float32(s.stream.reverbDryL)/32768, float32(s.stream.reverbDryR)/32768,
		float32(wetL)/32768, float32(wetR)/32768,
	)
	left, right := s.analog.NextSample()

	s.alloc.reap()
	return int16(left * 32767), int16(right * 32767)
}

// renderFrameFloat runs the float32 pipeline: Partial.renderFloat (float
// ring-modulation/mixing), Reverb.ProcessFloat and the shared
// AnalogStage. Synth-mode partial samples come from synthSampleInt and
// are rescaled to float; PCM partials are read as floats directly.
func (s *Synth) renderFrameFloat() (float32, float32) {
	s.dispatchDueMIDI()
	s.streamF.reset()
	s.renderActivePartialsFloat()

	wetL, wetR := s.reverb.ProcessFloat(s.streamF.reverbWetL, s.streamF.reverbWetR)

	s.analog.PushFrame(
		s.streamF.nonReverbL, s.streamF.nonReverbR,
		s.streamF.reverbDryL, s.streamF.reverbDryR,
		wetL, wetR,
	)
	left, right := s.analog.NextSample()

	s.alloc.reap()
	return left, right
}

func (s *Synth) renderActivePartials() {
	for i := range s.partials {
		p := &s.partials[i]
		if p.isFree() {
			continue
		}
		p.resetRenderFlag()
	}
	for i := range s.partials {
		p := &s.partials[i]
		if p.isFree() {
			continue
		}
		p.render(s.partials, &s.stream, 1.0, p.reverb)
	}
}

func (s *Synth) renderActivePartialsFloat() {
	for i := range s.partials {
		p := &s.partials[i]
		if p.isFree() {
			continue
		}
		p.resetRenderFlag()
	}
	for i := range s.partials {
		p := &s.partials[i]
		if p.isFree() {
			continue
		}
		p.renderFloat(s.partials, &s.streamF, 1.0, p.reverb)
	}
}

// dispatchDueMIDI pops and dispatches every event due at or before the
// current frame plus the render window, matching the "rendered no
// earlier than frame t and no later than t+SAMPLES_PER_RUN-1" guarantee.
func (s *Synth) dispatchDueMIDI() {
	deadline := s.renderedSampleCount.Load() + samplesPerRun
	for {
		ev, ok := s.midi.Pop(deadline)
		if !ok {
			return
		}
		if ev.isSysex {
			s.handleSysex(s.midi.SysexPayload(ev))
		} else {
			s.handleShortMessage(ev.shortMsg)
		}
	}
}
