package mt32emu

// AnalogOutputMode selects the emulated analogue output stage topology.
type AnalogOutputMode int

const (
	AnalogOutputDisabled AnalogOutputMode = iota
	AnalogOutputCoarse
	AnalogOutputAccurate
	AnalogOutputOversampled
)

func (m AnalogOutputMode) String() string {
	switch m {
	case AnalogOutputDisabled:
		return "disabled"
	case AnalogOutputCoarse:
		return "coarse"
	case AnalogOutputAccurate:
		return "accurate"
	case AnalogOutputOversampled:
		return "oversampled"
	default:
		return "unknown"
	}
}

// ReverbMode selects the Boss reverb topology.
type ReverbMode int

const (
	ReverbRoom ReverbMode = iota
	ReverbHall
	ReverbPlate
	ReverbTapDelay
)

func (m ReverbMode) String() string {
	switch m {
	case ReverbRoom:
		return "room"
	case ReverbHall:
		return "hall"
	case ReverbPlate:
		return "plate"
	case ReverbTapDelay:
		return "tap-delay"
	default:
		return "unknown"
	}
}

// RendererType names the two sample-arithmetic pipelines. Synth records
// the value at Open but does not act on it: Render and RenderFloat are
// both callable on any open instance. The two pipelines share every
// state machine, and synth-mode (non-PCM) float samples are computed by
// the integer generator and rescaled.
type RendererType int

const (
	RendererInt16 RendererType = iota
	RendererFloat
)

// DACInputMode names the historical DAC input emulation variants. No
// part of the package takes or reads a DACInputMode; the analogue stage
// handles its input the same way in every case.
type DACInputMode int

const (
	DACNice DACInputMode = iota
	DACPure
	DACGeneration1
	DACGeneration2
)

// MIDIDelayMode names the ways short MIDI messages can be timestamped
// relative to SysEx messages on the same queue. No part of the package
// takes or reads a MIDIDelayMode; the queue uses each event's own
// timestamp in every case.
type MIDIDelayMode int

const (
	MIDIDelayImmediate MIDIDelayMode = iota
	MIDIDelayShortMessagesOnly
	MIDIDelayAll
)

// ModelKind distinguishes the two supported chip families; a number of
// reverb and analogue-stage constants are keyed off this rather than off
// any user-facing option, since the original hardware determines it.
type ModelKind int

const (
	ModelMT32 ModelKind = iota
	ModelCM32L
)

// PartialState is the lifecycle state of a Poly as seen by the partial
// allocator.
type PartialState int

const (
	PolyInactive PartialState = iota
	PolyPlaying
	PolyHeld
	PolyReleasing
)

func (s PartialState) String() string {
	switch s {
	case PolyInactive:
		return "inactive"
	case PolyPlaying:
		return "playing"
	case PolyHeld:
		return "held"
	case PolyReleasing:
		return "releasing"
	default:
		return "unknown"
	}
}

// MixType controls how a pair of Partials combine their output.
type MixType int

const (
	MixIndependent MixType = iota
	MixRingPlusMaster
	MixRingOnly
	MixStereoPan
)

// WaveForm selects the LA32 synth-mode waveform family.
type WaveForm int

const (
	WaveFormSquare WaveForm = iota
	WaveFormSawtooth
	WaveFormPCM
)

// Quirks is the set of ROM-identity-determined historical behaviours
// described in the design notes. These are never user-facing; a loader
// sets them once from ROM identification and Synth treats them as
// read-only for the session.
type Quirks struct {
	BasePitchOverflow     bool
	PitchEnvelopeOverflow bool
	RingModNoMix          bool
	TVAZeroEnvLevels      bool
	NicePanning           bool
	NicePartialMixing     bool
	KeyShiftApply         bool
	TVFBaseCutoffLimit    bool
	FastPitchChanges      bool
	OldMT32AnalogLPF      bool
	MT32CompatibleReverb  bool
}

// DefaultQuirks returns the quirk set matching an unmodified second-
// generation MT-32/CM-32L control ROM.
func DefaultQuirks() Quirks {
	return Quirks{
		NicePanning:          true,
		NicePartialMixing:    true,
		KeyShiftApply:        true,
		TVFBaseCutoffLimit:   true,
		MT32CompatibleReverb: true,
	}
}
