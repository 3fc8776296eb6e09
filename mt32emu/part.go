package mt32emu

const (
	numParts     = 9
	rhythmPart   = 8
	partialsPerNote = 4
)

// patchCacheSlot is a preprocessed combination of a timbre's partial
// parameters with the patch's per-partial flags, one per partial slot.
// It is marked dirty when timbre RAM changes and reparsed lazily at the
// next note-on; it is never heap-allocated per note.
type patchCacheSlot struct {
	dirty  bool
	params patchParams
	inUse  bool
}

// Part is one of the nine MIDI logical parts.
type Part struct {
	index int

	patchCache [4]patchCacheSlot

	activeHead int // index of first active Poly in this part's list, -1 if none
	assignMode int // bit0: priority-to-earliest list order, bit1: multi-assign

	reservation int // partials reserved for this part via SysEx system area

	modulation   int32
	expression   int32
	pitchBend    int32
	holdPedal    bool
	rpnLSB       int32
	rpnMSB       int32

	masterVol int32
	keyShift  int32
}

func newParts() [numParts]Part {
	var parts [numParts]Part
	for i := range parts {
		parts[i].index = i
		parts[i].activeHead = -1
		parts[i].masterVol = 100
		parts[i].expression = 127
	}
	return parts
}

func (pt *Part) activePartialCount(polys []Poly) int {
	n := 0
	for idx := pt.activeHead; idx != -1; idx = polys[idx].next {
		n += polys[idx].needCount()
	}
	return n
}

// pushPoly inserts polyIdx per assignMode&1: bit set prepends (priority-
// to-earliest, newest poly appears first), clear appends.
func (pt *Part) pushPoly(polys []Poly, polyIdx int) {
	if pt.assignMode&1 != 0 {
		polys[polyIdx].next = pt.activeHead
		pt.activeHead = polyIdx
		return
	}
	if pt.activeHead == -1 {
		pt.activeHead = polyIdx
		polys[polyIdx].next = -1
		return
	}
	idx := pt.activeHead
	for polys[idx].next != -1 {
		idx = polys[idx].next
	}
	polys[idx].next = polyIdx
	polys[polyIdx].next = -1
}

// removePoly unlinks polyIdx from the active list.
func (pt *Part) removePoly(polys []Poly, polyIdx int) {
	if pt.activeHead == polyIdx {
		pt.activeHead = polys[polyIdx].next
		polys[polyIdx].next = -1
		return
	}
	idx := pt.activeHead
	for idx != -1 {
		if polys[idx].next == polyIdx {
			polys[idx].next = polys[polyIdx].next
			polys[polyIdx].next = -1
			return
		}
		idx = polys[idx].next
	}
}

// findPolyByKey returns the active poly on this part sounding key, or -1.
func (pt *Part) findPolyByKey(polys []Poly, key int) int {
	for idx := pt.activeHead; idx != -1; idx = polys[idx].next {
		if polys[idx].key == key && polys[idx].state != PolyInactive {
			return idx
		}
	}
	return -1
}
