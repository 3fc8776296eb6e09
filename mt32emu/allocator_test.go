package mt32emu

import (
	"testing"

	"pgregory.net/rapid"
)

func newTestSynthForAllocator(t *testing.T, partialCount int) *Synth {
	t.Helper()
	s := NewSynth()
	err := s.Open(OpenConfig{
		PCMROM:       []int16{0, 1, 2, 3},
		PartialCount: partialCount,
		Quirks:       DefaultQuirks(),
		ModelKind:    ModelMT32,
		AnalogMode:   AnalogOutputDisabled,
		Reverb:       ReverbRoom,
	})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	return s
}

func TestAllocator_FreePartialInvariant(t *testing.T) {
	s := newTestSynthForAllocator(t, 32)

	s.noteOn(0, 60, 100)
	s.noteOn(0, 64, 100)

	free := s.alloc.freePartialCount()
	active := 0
	for i := range s.partials {
		if !s.partials[i].isFree() {
			active++
		}
	}
	if free+active != len(s.partials) {
		t.Fatalf("free+active partials (%d+%d) != pool size %d", free, active, len(s.partials))
	}
}

func TestAllocator_OwnerNegativeOneIffFree(t *testing.T) {
	s := newTestSynthForAllocator(t, 32)
	s.noteOn(0, 60, 100)

	for i := range s.partials {
		p := &s.partials[i]
		if p.isFree() != (p.ownerPart == -1) {
			t.Fatalf("partial %d: isFree()=%v but ownerPart=%d", i, p.isFree(), p.ownerPart)
		}
	}
}

// TestAllocator_ReservationGuaranteesNotesSound checks the quantified
// invariant: for a part p with reservation R_p, as long as the requested
// partials stay within P - sum(R) + R_p, note-ons succeed.
func TestAllocator_ReservationGuaranteesNotesSound(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		partialCount := rapid.IntRange(8, 32).Draw(rt, "partialCount")
		s := newTestSynthForAllocator(t, partialCount)

		reservation := rapid.IntRange(0, partialCount/partialsPerNote).Draw(rt, "reservation") * partialsPerNote
		s.parts[0].reservation = reservation

		maxNotes := reservation / partialsPerNote
		if maxNotes == 0 {
			return
		}
		notes := rapid.IntRange(1, maxNotes).Draw(rt, "notes")

		key := 24
		for i := 0; i < notes; i++ {
			polyIdx := s.alloc.noteOn(0, key+i, 100, partialsPerNote, true)
			if polyIdx < 0 {
				rt.Fatalf("note-on %d failed despite staying within reservation %d", i, reservation)
			}
			for j := 0; j < partialsPerNote; j++ {
				pi := s.findFreePartial()
				if pi < 0 {
					break
				}
				s.partials[pi].ownerPart = 0
				s.partials[pi].active = true
				s.polys[polyIdx].partials[j] = pi
			}
		}
	})
}

func TestAllocator_ExhaustionIsNonFatal(t *testing.T) {
	s := newTestSynthForAllocator(t, 4)
	for i := range s.partials {
		s.partials[i].ownerPart = 0
		s.partials[i].active = true
	}
	polyIdx := s.alloc.noteOn(0, 60, 100, partialsPerNote, true)
	if polyIdx != -1 {
		t.Fatal("note-on should fail silently (return -1) when no partials are free")
	}
}

func TestAllocator_SingleAssignAbortsExistingKey(t *testing.T) {
	s := newTestSynthForAllocator(t, 32)
	s.parts[0].assignMode = 0 // single-assign

	firstPoly := s.alloc.noteOn(0, 60, 100, partialsPerNote, true)
	if firstPoly < 0 {
		t.Fatal("first note-on should succeed")
	}
	for j := 0; j < partialsPerNote; j++ {
		pi := s.findFreePartial()
		s.partials[pi].ownerPart = 0
		s.partials[pi].active = true
		s.polys[firstPoly].partials[j] = pi
	}

	// The retrigger aborts the existing poly but its partials don't free
	// instantly -- they decay over later render ticks -- so this note-on
	// must return early and be retried rather than allocate immediately.
	secondPoly := s.alloc.noteOn(0, 60, 100, partialsPerNote, true)
	if secondPoly != -1 {
		t.Fatal("note-on should return early while the aborted poly is still draining")
	}
	if s.polys[firstPoly].state != PolyReleasing {
		t.Fatalf("single-assign note-on should abort the existing poly on the same key, got state %v", s.polys[firstPoly].state)
	}
	if !s.alloc.isAbortingPoly() {
		t.Fatal("allocator should report an in-flight abort until the drained poly is reaped")
	}

	// Still draining: a retry before the partials finish should also bail.
	if p := s.alloc.noteOn(0, 61, 100, partialsPerNote, true); p != -1 {
		t.Fatal("any note-on should be refused while a poly is still aborting")
	}

	for _, pi := range s.polys[firstPoly].partials {
		if pi >= 0 {
			s.partials[pi].tva.baseAmp = 0
			s.partials[pi].tva.terminal = true
		}
	}
	s.alloc.reap()
	if s.alloc.isAbortingPoly() {
		t.Fatal("reap should clear the in-flight abort once the old poly's partials finish")
	}

	thirdPoly := s.alloc.noteOn(0, 60, 100, partialsPerNote, true)
	if thirdPoly < 0 {
		t.Fatal("note-on should succeed once the aborted poly has fully drained")
	}
}
