package mt32emu

// tvp is the time-variant pitch envelope. It drives the LA32 pitch input
// once per sample through a shared ramp and four envelope phases (0..3),
// followed by a sustaining "LFO" phase that mixes a triangle wave driven
// by modulation depth.
type tvp struct {
	ramp ramp

	basePitch int32 // Q16, derived once per note from key + patch offsets
	phase     int   // 0..3 envelope phases; 6 is the sustaining LFO phase, 7 is abort
	terminal  bool

	targets    [4]int32 // pitch-envelope level targets, Q16
	times      [4]int32 // envelope time codes 0..112

	lfoPhase   int32 // Q16 triangle phase accumulator
	lfoStep    int32
	modSens    int32 // modulation sensitivity, scales LFO depth
	modulation int32 // current MIDI modulation wheel value, 0..127

	pitchBend int32 // Q16, added last

	quirks *Quirks
	prng   *prngState
}

// reset derives basePitch from the MIDI key and patch offsets and starts
// the attack phase. key is the internal 12..108 range after key-shift;
// coarse/fine are patch offsets in semitones/cents already combined into
// Q16; keyfollow selects the pitchKeyfollow table entry.
func (e *tvp) reset(key int, coarse, fine int32, keyfollowIdx int, targets, times [4]int32, modSens int32, quirks *Quirks, prng *prngState) {
	idx := key - 60
	sign := int32(1)
	if idx < 0 {
		idx = -idx
		sign = -1
	}
	if idx >= len(keyToPitch) {
		idx = len(keyToPitch) - 1
	}
	base := sign * int32(keyToPitch[idx])

	kf := int32(0)
	if keyfollowIdx >= 0 && keyfollowIdx < len(pitchKeyfollow) {
		kf = int32(pitchKeyfollow[keyfollowIdx])
	}
	base += (int32(key) - 60) * kf / 256

	base += coarse + fine

	if !e.quirksOverflow(quirks) {
		if base < 0 {
			base = 0
		}
		if base > 59392 {
			base = 59392
		}
	} else {
		base &= 0xFFFF
	}

	e.basePitch = base
	e.targets = targets
	e.times = times
	e.modSens = modSens
	e.phase = 0
	e.terminal = false
	e.quirks = quirks
	e.prng = prng
	e.ramp.reset(base)
	e.startPhase(0)
}

func (e *tvp) quirksOverflow(q *Quirks) bool {
	return q != nil && q.BasePitchOverflow
}

func (e *tvp) startPhase(phase int) {
	if phase >= 4 {
		e.phase = 6
		e.lfoStep = 1024 // fixed LFO rate once sustaining; depth comes from modSens*modulation
		return
	}
	divisorIdx := (e.times[phase] >> 4) & 7
	divisor := lowerDurationToDivisor[divisorIdx]
	if e.quirks != nil && e.quirks.FastPitchChanges {
		divisor = divisor/2 + 1
	}
	target := e.basePitch + e.targets[phase]
	if e.quirks != nil && e.quirks.PitchEnvelopeOverflow {
		target &= 0xFFFF
	} else {
		if target < 0 {
			target = 0
		}
		if target > 59392 {
			target = 59392
		}
	}
	delta := target - (e.ramp.current >> 18)
	inc := int32(0)
	if divisor != 0 {
		inc = (delta << 18) / divisor
	}
	e.ramp.startRamp(target<<18, inc)
	e.phase = phase
}

// startDecay forces an immediate transition toward the release target,
// used on note-off of a non-sustained poly and when a released hold
// pedal lets go of held polys.
func (e *tvp) startDecay() {
	e.startPhase(3)
}

// startAbort forces the fastest possible decay to silence, used by voice
// stealing. It bypasses timing and snaps the ramp toward zero quickly.
func (e *tvp) startAbort() {
	e.ramp.startRamp(0, -(1 << 20))
	e.phase = 7
	e.terminal = true
}

// handleInterrupt is invoked by nextPitch when the ramp reaches its
// current target; it advances to the next phase.
func (e *tvp) handleInterrupt() {
	if e.phase >= 3 || e.phase == 7 {
		e.terminal = true
		return
	}
	e.startPhase(e.phase + 1)
}

// nextPitch advances the envelope by one sample and returns the current
// 16-bit pitch value including pitch-bend and, in the sustaining LFO
// phase, the modulation-driven triangle vibrato.
func (e *tvp) nextPitch() int32 {
	v := e.ramp.nextValue()
	if e.ramp.checkInterrupt() {
		e.handleInterrupt()
	}
	if e.phase == 6 {
		v += e.lfoValue()
	}
	return v + e.pitchBend
}

// lfoValue advances the sustaining-phase triangle LFO by one tick and
// returns its current contribution to pitch. The phase counter's
// increment carries a small uniform(0..3) jitter, matching the
// documented analogue pitch instability of the sustaining phase.
func (e *tvp) lfoValue() int32 {
	step := e.lfoStep
	if e.prng != nil {
		step += int32(e.prng.next() & 3)
	}
	e.lfoPhase += step
	e.lfoPhase &= 0xFFFFF
	// Triangle wave in [-1,1) scaled by Q20 phase, then by modSens*modulation.
	tri := e.lfoPhase
	if tri >= 0x80000 {
		tri = 0x100000 - tri
		tri = -tri
	}
	depth := (e.modSens * e.modulation) >> 7
	return (tri * depth) >> 19
}

func (e *tvp) setPitchBend(bend int32) { e.pitchBend = bend }
func (e *tvp) setModulation(m int32)   { e.modulation = m }
func (e *tvp) currentPhase() int       { return e.phase }
func (e *tvp) isTerminal() bool        { return e.terminal }
