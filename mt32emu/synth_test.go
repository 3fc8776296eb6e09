package mt32emu

import "testing"

func newTestSynth(t *testing.T) *Synth {
	t.Helper()
	s := NewSynth()
	err := s.Open(OpenConfig{
		PCMROM:    make([]int16, 256),
		ModelKind: ModelMT32,
		Quirks:    DefaultQuirks(),
		Reverb:    ReverbRoom,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	return s
}

// Scenario 1: silence in, silence and an exact sample count out.
func TestSynth_SilenceRenderProducesZeroedSamplesAndExactCount(t *testing.T) {
	s := newTestSynth(t)
	out := make([]int16, 64)
	s.Render(out, 32)

	for i, v := range out {
		if v != 0 {
			t.Fatalf("expected silence, got non-zero sample %d at index %d", v, i)
		}
	}
	if s.RenderedSampleCount() != 32 {
		t.Fatalf("rendered_sample_count = %d, want 32", s.RenderedSampleCount())
	}
}

// Scenario 2: a NoteOn should reserve 4 partials and begin producing
// non-zero output within 64 frames (2 ms at 32kHz).
func TestSynth_NoteOnReservesFourPartialsAndSoundsQuickly(t *testing.T) {
	s := newTestSynth(t)
	s.parts[0].patchCache[0].params = patchParams{
		WaveForm:    WaveFormSquare,
		TVATargets:  [5]int32{100, 100, 100, 100, 100},
		TVATimes:    [5]int32{0, 0, 0, 0, 0},
		TVFTargets:  [5]int32{255, 255, 255, 255, 255},
		TVFTimes:    [5]int32{0, 0, 0, 0, 0},
		TVPTargets:  [4]int32{0, 0, 0, 0},
		TVPTimes:    [4]int32{0, 0, 0, 0},
	}
	for i := 1; i < len(s.parts[0].patchCache); i++ {
		s.parts[0].patchCache[i].params = s.parts[0].patchCache[0].params
	}

	s.noteOn(0, 60, 100)

	active := 0
	for i := range s.partials {
		if !s.partials[i].isFree() {
			active++
		}
	}
	if active != partialsPerNote {
		t.Fatalf("NoteOn should reserve %d partials, got %d", partialsPerNote, active)
	}

	out := make([]int16, 128)
	s.Render(out, 64)
	sounded := false
	for _, v := range out {
		if v != 0 {
			sounded = true
			break
		}
	}
	if !sounded {
		t.Fatal("expected a non-zero sample within 64 frames (2ms at 32kHz) of NoteOn")
	}
}

// Scenario 3: pushing past the 1024-deep ring overflows at the 1025th
// push, and the first 1024 remain dispatchable.
func TestSynth_MIDIQueueOverflowsAtPush1025(t *testing.T) {
	s := newTestSynth(t)
	for i := 0; i < 1024; i++ {
		if err := s.PlayMsg(0, 0x90); err != nil {
			t.Fatalf("push %d should have succeeded: %v", i, err)
		}
	}
	if err := s.PlayMsg(0, 0x90); err == nil {
		t.Fatal("push 1025 should overflow")
	}
	if s.midi.pending() != 1024 {
		t.Fatalf("expected 1024 pending events after overflow, got %d", s.midi.pending())
	}
}

// Scenario 4: a reverb impulse decays to silence well before 32000 frames
// but is still audible past frame 2000.
func TestSynth_ReverbImpulseDecaysWithinRenderWindow(t *testing.T) {
	s := newTestSynth(t)
	s.reverb.SetParameters(4, 4)

	nonZeroPast2000 := false
	for frame := 0; frame < 32000; frame++ {
		var inL, inR int32
		if frame == 0 {
			inL = 32767
		}
		wetL, _ := s.reverb.ProcessInt(inL, inR)
		if frame > 2000 && (wetL > 8 || wetL < -8) {
			nonZeroPast2000 = true
		}
	}
	if !nonZeroPast2000 {
		t.Fatal("expected audible reverb tail past frame 2000")
	}
	if !s.reverb.IsEmpty() {
		t.Fatal("reverb should have decayed to silence by frame 32000")
	}
}

// Scenario 5: SysEx write to 0x100016 (masterVol) then read returns 0x64.
func TestSynth_SysexWriteThenReadMasterVol(t *testing.T) {
	s := newTestSynth(t)

	addrBytes := EncodeSysexAddress(AddrSystemArea + masterVolOffset)
	header := []byte{0x41, 0x10, 0x16, 0x12, addrBytes[0], addrBytes[1], addrBytes[2], 0x64}
	checksum := rolandChecksumFor(header[4:])
	payload := append([]byte{0xF0}, header...)
	payload = append(payload, checksum, 0xF7)

	if err := s.PlaySysex(0, payload); err != nil {
		t.Fatalf("PlaySysex: %v", err)
	}
	s.Render(make([]int16, 2), 1)

	got := s.readMemory(AddrSystemArea+masterVolOffset, 1)
	if got[0] != 0x64 {
		t.Fatalf("read back masterVol: got 0x%02X, want 0x64", got[0])
	}
}

// Scenario 6: in ACCURATE analogue mode, filter phase advances
// deterministically across renders.
func TestSynth_AccurateModePhaseAdvancesDeterministically(t *testing.T) {
	s := NewSynth()
	err := s.Open(OpenConfig{
		PCMROM:     make([]int16, 256),
		ModelKind:  ModelMT32,
		Quirks:     DefaultQuirks(),
		AnalogMode: AnalogOutputAccurate,
		Reverb:     ReverbRoom,
	})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	startPhase := s.analog.phaseAccum
	out := make([]int16, 96)
	s.Render(out, 48)
	endPhase := s.analog.phaseAccum

	diff := (endPhase - startPhase + 3) % 3
	if diff != (48*s.analog.phaseIncr)%3 {
		t.Fatalf("phase did not advance deterministically: start=%d end=%d", startPhase, endPhase)
	}
}

func TestSynth_OpenRejectsEmptyPCMROM(t *testing.T) {
	s := NewSynth()
	err := s.Open(OpenConfig{ModelKind: ModelMT32})
	if err == nil {
		t.Fatal("Open should reject an empty PCM ROM")
	}
	merr, ok := err.(*Error)
	if !ok || merr.Kind != ErrConfiguration {
		t.Fatalf("expected ErrConfiguration, got %v", err)
	}
}

func TestSynth_DoubleOpenFails(t *testing.T) {
	s := newTestSynth(t)
	err := s.Open(OpenConfig{PCMROM: make([]int16, 16), ModelKind: ModelMT32})
	if err == nil {
		t.Fatal("opening an already-open synth should fail")
	}
}
