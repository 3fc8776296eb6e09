package mt32emu

// partialAllocator multiplexes the fixed partial pool onto the nine
// parts, applying reservation, priority-ordered stealing and single-
// assign rules on every note-on.
type partialAllocator struct {
	partials []Partial
	polys    []Poly
	parts    *[numParts]Part

	freePolyHead int // free list of Poly indices, singly linked via .next

	// abortingPoly is the index of a poly a single-assign retrigger just
	// aborted on the same key, or -1 once it has fully drained. Its
	// partials decay over several render ticks (startAbort is a fast ramp,
	// not instant release) and are only freed later by reap; until then
	// noteOn must not allocate against this part and bails out early,
	// to be retried by a later note-on once reap clears it.
	abortingPoly int
}

// priorityOrder lists part indices from lowest to highest priority:
// parts 7..0 (voice parts, descending) then rhythm (part 8) last, i.e.
// highest priority.
var priorityOrder = [numParts]int{7, 6, 5, 4, 3, 2, 1, 0, rhythmPart}

func newPartialAllocator(partials []Partial, polys []Poly, parts *[numParts]Part) *partialAllocator {
	a := &partialAllocator{partials: partials, polys: polys, parts: parts, abortingPoly: -1}
	a.freePolyHead = 0
	for i := range polys {
		if i == len(polys)-1 {
			polys[i].next = -1
		} else {
			polys[i].next = i + 1
		}
	}
	return a
}

func (a *partialAllocator) freePartialCount() int {
	n := 0
	for i := range a.partials {
		if a.partials[i].isFree() {
			n++
		}
	}
	return n
}

func (a *partialAllocator) popFreePoly() int {
	if a.freePolyHead == -1 {
		return -1
	}
	idx := a.freePolyHead
	a.freePolyHead = a.polys[idx].next
	return idx
}

func (a *partialAllocator) pushFreePoly(idx int) {
	a.polys[idx].next = a.freePolyHead
	a.freePolyHead = idx
}

// isAbortingPoly reports whether an abort is still draining; allocate
// should return early and be retried by the caller on this condition.
func (a *partialAllocator) isAbortingPoly() bool { return a.abortingPoly != -1 }

// noteOn attempts to sound key/velocity on the given part, returning the
// new Poly index, or -1 if no partials could be freed for it (a normal,
// non-fatal outcome per the error-handling design).
func (a *partialAllocator) noteOn(part int, key, velocity, need int, singleAssign bool) int {
	if a.isAbortingPoly() {
		return -1
	}

	pt := &a.parts[part]

	if singleAssign {
		if existing := pt.findPolyByKey(a.polys, key); existing != -1 {
			a.abortPoly(existing)
			a.abortingPoly = existing
			return -1
		}
	}

	if !a.makeRoom(part, need) {
		return -1
	}

	polyIdx := a.popFreePoly()
	if polyIdx == -1 {
		return -1
	}
	a.polys[polyIdx].activate(part, key, velocity)
	pt.pushPoly(a.polys, polyIdx)
	return polyIdx
}

// makeRoom runs the multi-pass priority stealing algorithm (passes 1-4
// below) until at least
// need partials are free, or returns false if it cannot make enough room
// even after aborting every eligible poly.
func (a *partialAllocator) makeRoom(target int, need int) bool {
	if a.freePartialCount() >= need {
		return true
	}

	// Pass 1: abort releasing polys on parts over their reservation,
	// lowest priority first.
	for _, p := range priorityOrder {
		if a.freePartialCount() >= need {
			return true
		}
		if p == target {
			continue
		}
		a.abortOverReserved(p, PolyReleasing)
	}

	if a.freePartialCount() >= need {
		return true
	}

	exceedsAfter := a.parts[target].activePartialCount(a.polys)+need > a.parts[target].reservation
	priorityToEarliest := a.parts[target].assignMode&1 != 0

	// Pass 2/3: abort held-then-any polys on over-reservation parts.
	if exceedsAfter && !priorityToEarliest {
		for _, p := range priorityOrder {
			if a.freePartialCount() >= need {
				return true
			}
			a.abortOverReservedAny(p, target)
			if p == target {
				break
			}
		}
	} else {
		for _, p := range priorityOrder {
			if a.freePartialCount() >= need {
				return true
			}
			a.abortOverReservedAny(p, -1)
		}
	}

	if a.freePartialCount() >= need {
		return true
	}

	// Pass 4: abort polys on the target part itself, regardless of
	// reservation.
	a.abortAllOnPart(target)

	return a.freePartialCount() >= need
}

func (a *partialAllocator) abortOverReserved(part int, preferState PartialState) {
	pt := &a.parts[part]
	for pt.activePartialCount(a.polys) > pt.reservation {
		idx := a.findPolyInState(pt, preferState)
		if idx == -1 {
			return
		}
		a.abortPoly(idx)
	}
}

func (a *partialAllocator) abortOverReservedAny(part int, stopBefore int) {
	pt := &a.parts[part]
	for pt.activePartialCount(a.polys) > pt.reservation {
		idx := a.findPolyInState(pt, PolyHeld)
		if idx == -1 {
			idx = pt.activeHead
		}
		if idx == -1 {
			return
		}
		a.abortPoly(idx)
	}
}

func (a *partialAllocator) abortAllOnPart(part int) {
	pt := &a.parts[part]
	for pt.activeHead != -1 {
		a.abortPoly(pt.activeHead)
	}
}

func (a *partialAllocator) findPolyInState(pt *Part, state PartialState) int {
	for idx := pt.activeHead; idx != -1; idx = a.polys[idx].next {
		if a.polys[idx].state == state {
			return idx
		}
	}
	return -1
}

// abortPoly immediately forces every partial the poly owns into its
// fastest decay; the poly remains counted as active until its partials
// fully deactivate on a later render pass (partialAllocator.reap).
func (a *partialAllocator) abortPoly(polyIdx int) {
	poly := &a.polys[polyIdx]
	for _, pIdx := range poly.partials {
		if pIdx >= 0 {
			a.partials[pIdx].startAbort()
		}
	}
	poly.state = PolyReleasing
}

// reap scans for polys whose partials have all finished and returns them
// to the free list, unlinking them from their part.
func (a *partialAllocator) reap() {
	for i := range a.polys {
		poly := &a.polys[i]
		if poly.state == PolyInactive || poly.part < 0 {
			continue
		}
		allDone := true
		for _, pIdx := range poly.partials {
			if pIdx >= 0 && !a.partials[pIdx].isFinished() {
				allDone = false
				break
			}
		}
		if !allDone {
			continue
		}
		for _, pIdx := range poly.partials {
			if pIdx >= 0 {
				a.partials[pIdx].deactivate()
			}
		}
		a.parts[poly.part].removePoly(a.polys, i)
		poly.state = PolyInactive
		poly.part = -1
		a.pushFreePoly(i)
		if a.abortingPoly == i {
			a.abortingPoly = -1
		}
	}
}
