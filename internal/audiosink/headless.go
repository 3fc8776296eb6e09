//go:build headless

package audiosink

// OtoSink is a no-op stand-in used by headless builds (CI, render-to-file
// tooling) where no live audio device is available.
type OtoSink struct {
	started bool
}

func NewOtoSink(sampleRate int) (*OtoSink, error) {
	return &OtoSink{}, nil
}

func (s *OtoSink) SetSynth(SynthSource) {}
func (s *OtoSink) Start()               { s.started = true }
func (s *OtoSink) Stop()                { s.started = false }
func (s *OtoSink) Close()               { s.started = false }
func (s *OtoSink) IsStarted() bool      { return s.started }
