package mt32emu

import "testing"

func TestTVP_BasePitchClampedToDocumentedRange(t *testing.T) {
	var e tvp
	q := DefaultQuirks()
	targets := [4]int32{0, 0, 0, 0}
	times := [4]int32{10, 10, 10, 10}

	e.reset(12, -40000, 0, 8, targets, times, 0, &q, nil)
	if e.basePitch < 0 || e.basePitch > 59392 {
		t.Fatalf("base pitch %d outside documented [0, 59392] range", e.basePitch)
	}

	e.reset(108, 40000, 0, 8, targets, times, 0, &q, nil)
	if e.basePitch < 0 || e.basePitch > 59392 {
		t.Fatalf("base pitch %d outside documented [0, 59392] range", e.basePitch)
	}
}

func TestTVP_GEN0OverflowQuirkWraps(t *testing.T) {
	var e tvp
	q := Quirks{BasePitchOverflow: true}
	targets := [4]int32{0, 0, 0, 0}
	times := [4]int32{10, 10, 10, 10}

	e.reset(108, 1<<20, 0, 8, targets, times, 0, &q, nil)
	if e.basePitch < 0 || e.basePitch > 0xFFFF {
		t.Fatalf("GEN0 quirk should wrap base pitch modulo 2^16, got %d", e.basePitch)
	}
}

func TestTVP_FastPitchChangesQuirkShortensRampTime(t *testing.T) {
	targets := [4]int32{2000, 2000, 2000, 2000}
	times := [4]int32{80, 80, 80, 80}

	var normal tvp
	qn := DefaultQuirks()
	normal.reset(60, 0, 0, 8, targets, times, 0, &qn, nil)
	normalTicks := 0
	for ; normalTicks < 100000 && normal.currentPhase() == 0; normalTicks++ {
		normal.nextPitch()
	}

	var fast tvp
	qf := Quirks{FastPitchChanges: true}
	fast.reset(60, 0, 0, 8, targets, times, 0, &qf, nil)
	fastTicks := 0
	for ; fastTicks < 100000 && fast.currentPhase() == 0; fastTicks++ {
		fast.nextPitch()
	}

	if fastTicks >= normalTicks {
		t.Fatalf("FastPitchChanges should shorten the attack ramp, got normal=%d fast=%d ticks", normalTicks, fastTicks)
	}
}

func TestTVP_PitchEnvelopeOverflowQuirkWrapsPerPhaseTarget(t *testing.T) {
	var e tvp
	q := Quirks{PitchEnvelopeOverflow: true}
	targets := [4]int32{1 << 20, 0, 0, 0}
	times := [4]int32{10, 10, 10, 10}

	e.reset(60, 0, 0, 8, targets, times, 0, &q, nil)
	if e.ramp.target>>18 < 0 || e.ramp.target>>18 > 0xFFFF {
		t.Fatalf("PitchEnvelopeOverflow should wrap the attack-phase target modulo 2^16, got %d", e.ramp.target>>18)
	}
}

func TestTVP_EnvelopeReachesTerminalPhase(t *testing.T) {
	var e tvp
	q := DefaultQuirks()
	targets := [4]int32{1000, 500, 200, 0}
	times := [4]int32{0, 0, 0, 0}

	e.reset(60, 0, 0, 8, targets, times, 0, &q, nil)
	for i := 0; i < 10000 && !e.isTerminal(); i++ {
		e.nextPitch()
	}
	if !e.isTerminal() {
		t.Fatal("envelope never reached terminal phase")
	}
}

func TestTVP_AbortForcesTerminal(t *testing.T) {
	var e tvp
	q := DefaultQuirks()
	targets := [4]int32{1000, 500, 200, 0}
	times := [4]int32{100, 100, 100, 100}
	e.reset(60, 0, 0, 8, targets, times, 0, &q, nil)

	e.startAbort()
	if !e.isTerminal() {
		t.Fatal("startAbort should force the envelope terminal immediately")
	}
}

func TestTVF_BaseCutoffClampedToByteRange(t *testing.T) {
	var e tvf
	targets := [5]int32{0, 0, 0, 0, 0}
	times := [5]int32{10, 10, 10, 10, 10}
	e.reset(127, 16, 14, 0, 1<<20, targets, times, nil)
	if e.base() < 0 || e.base() > 255 {
		t.Fatalf("TVF base cutoff %d outside documented 8-bit range", e.base())
	}
}

func TestTVF_BaseCutoffLimitQuirkLowersCeiling(t *testing.T) {
	var e tvf
	targets := [5]int32{0, 0, 0, 0, 0}
	times := [5]int32{10, 10, 10, 10, 10}

	e.reset(127, 16, 14, 0, 1<<20, targets, times, nil)
	unlimited := e.base()

	q := Quirks{TVFBaseCutoffLimit: true}
	e.reset(127, 16, 14, 0, 1<<20, targets, times, &q)
	limited := e.base()

	if limited >= unlimited {
		t.Fatalf("TVFBaseCutoffLimit should lower the base cutoff ceiling, got unlimited=%d limited=%d", unlimited, limited)
	}
}

func TestTVA_ZeroEnvLevelsQuirkSnapsToSilenceImmediately(t *testing.T) {
	var e tva
	targets := [5]int32{0, 1000, 0, 0, 0}
	times := [5]int32{100, 100, 100, 100, 100}

	q := Quirks{TVAZeroEnvLevels: true}
	e.reset(0, 0, 100, targets, times, false, &q)
	if v := e.nextAmp(); v != 0 {
		t.Fatalf("TVAZeroEnvLevels should snap a zero-target attack phase to 0 immediately, got %d", v)
	}
}

func TestTVA_NeverNegative(t *testing.T) {
	var e tva
	targets := [5]int32{0, 0, 0, 0, 0}
	times := [5]int32{0, 0, 0, 0, 0}
	e.reset(0, 0, 100, targets, times, false, nil)
	for i := 0; i < 1000; i++ {
		if v := e.nextAmp(); v < 0 {
			t.Fatalf("TVA amplitude went negative: %d", v)
		}
	}
}
