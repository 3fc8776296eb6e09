// Package audiosink wires a mt32emu.Synth to a live output device or to
// a headless no-op sink, selected at build time by the headless tag.
package audiosink

// Sink pulls interleaved stereo float32 frames from a Synth and plays
// them. Start/Stop toggle the underlying device; Close releases it.
type Sink interface {
	SetSynth(s SynthSource)
	Start()
	Stop()
	Close()
	IsStarted() bool
}

// SynthSource is the subset of mt32emu.Synth the sink pulls samples
// from. Defined here rather than imported directly so the headless
// build keeps no import on mt32emu's renderer internals.
type SynthSource interface {
	RenderFloat(out []float32, frames int)
}
