//go:build !headless

package audiosink

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/oto/v3"
)

// OtoSink drives an ebitengine/oto/v3 player from a Synth's float32
// render path. The synth pointer is read lock-free on the Read hot
// path; Start/Stop/Close only ever touch player setup.
type OtoSink struct {
	ctx    *oto.Context
	player *oto.Player

	synth     atomic.Pointer[SynthSource]
	frameBuf  []float32
	started   bool
	mutex     sync.Mutex
}

// NewOtoSink opens a stereo float32 oto context at sampleRate. The
// caller picks sampleRate from mt32emu.OutputSampleRate for the
// configured AnalogOutputMode.
func NewOtoSink(sampleRate int) (*OtoSink, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: 2,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	sink := &OtoSink{ctx: ctx}
	sink.player = ctx.NewPlayer(sink)
	sink.frameBuf = make([]float32, 4096)
	return sink, nil
}

func (s *OtoSink) SetSynth(synth SynthSource) {
	s.synth.Store(&synth)
}

// Read implements io.Reader for oto's pull model: p is interleaved
// stereo float32LE bytes, synthesized directly from the stored Synth
// with no intermediate lock.
func (s *OtoSink) Read(p []byte) (int, error) {
	synthPtr := s.synth.Load()
	if synthPtr == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	synth := *synthPtr

	numSamples := len(p) / 4 // 4 bytes per float32
	frames := numSamples / 2
	if len(s.frameBuf) < numSamples {
		s.frameBuf = make([]float32, numSamples)
	}
	buf := s.frameBuf[:frames*2]
	synth.RenderFloat(buf, frames)

	copy(p, (*[1 << 30]byte)(unsafe.Pointer(&buf[0]))[:frames*8])
	return frames * 8, nil
}

func (s *OtoSink) Start() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if !s.started && s.player != nil {
		s.player.Play()
		s.started = true
	}
}

func (s *OtoSink) Stop() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.started && s.player != nil {
		s.player.Pause()
		s.started = false
	}
}

func (s *OtoSink) Close() {
	s.Stop()
	s.mutex.Lock()
	defer s.mutex.Unlock()
	if s.player != nil {
		s.player.Close()
		s.player = nil
	}
}

func (s *OtoSink) IsStarted() bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.started
}
