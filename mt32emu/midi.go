package mt32emu

import "sync/atomic"

// midiEvent is one queued event: either a short message (packed into
// shortMsg) or a SysEx blob (sysexOff/sysexLen indexing into the shared
// scratch buffer).
type midiEvent struct {
	timestamp uint32
	shortMsg  uint32 // 0 when this event is a SysEx entry
	isSysex   bool
	sysexOff  int
	sysexLen  int
}

// midiQueue is a single-producer single-consumer ring buffer of
// midiEvent, synchronised purely with atomic acquire/release loads and
// stores on head/tail -- no locks, matching the concurrency model's
// producer/consumer split. Exactly one producer goroutine may call Push
// while exactly one consumer goroutine (the renderer) calls Pop; any
// other usage pattern requires external serialisation by the caller.
type midiQueue struct {
	events []midiEvent
	head   atomic.Uint32 // next slot to write
	tail   atomic.Uint32 // next slot to read

	scratch    []byte
	scratchLen atomic.Uint32 // bytes currently committed
}

func newMIDIQueue(capacity int, scratchSize int) *midiQueue {
	return &midiQueue{
		events:  make([]midiEvent, capacity),
		scratch: make([]byte, scratchSize),
	}
}

func (q *midiQueue) cap() uint32 { return uint32(len(q.events)) }

// PushShortMessage enqueues a 1-3 byte short message packed into a single
// uint32, timestamped ts. Returns a queue-saturation error if the ring is
// full.
func (q *midiQueue) PushShortMessage(ts uint32, msg uint32) error {
	head := q.head.Load()
	tail := q.tail.Load()
	if head-tail >= q.cap() {
		return newQueueSaturationError("MIDI ring full (capacity %d)", q.cap())
	}
	q.events[head%q.cap()] = midiEvent{timestamp: ts, shortMsg: msg}
	q.head.Store(head + 1)
	return nil
}

// PushSysex copies payload into the scratch buffer and enqueues a SysEx
// entry referencing it. Returns a queue-saturation error if either the
// ring or the scratch buffer lacks room; the scratch buffer is only
// reclaimed in bulk by Reset, never incrementally.
func (q *midiQueue) PushSysex(ts uint32, payload []byte) error {
	head := q.head.Load()
	tail := q.tail.Load()
	if head-tail >= q.cap() {
		return newQueueSaturationError("MIDI ring full (capacity %d)", q.cap())
	}
	committed := q.scratchLen.Load()
	if int(committed)+len(payload) > len(q.scratch) {
		return newQueueSaturationError("SysEx scratch buffer full (%d/%d bytes used)", committed, len(q.scratch))
	}
	off := int(committed)
	copy(q.scratch[off:], payload)
	q.scratchLen.Store(committed + uint32(len(payload)))

	q.events[head%q.cap()] = midiEvent{timestamp: ts, isSysex: true, sysexOff: off, sysexLen: len(payload)}
	q.head.Store(head + 1)
	return nil
}

// Pop removes and returns the oldest event if its timestamp is <= deadline,
// and reports ok=true. Returns ok=false if the queue is empty or the head
// event is not yet due.
func (q *midiQueue) Pop(deadline uint32) (midiEvent, bool) {
	tail := q.tail.Load()
	head := q.head.Load()
	if tail == head {
		return midiEvent{}, false
	}
	ev := q.events[tail%q.cap()]
	if int32(deadline-ev.timestamp) < 0 {
		return midiEvent{}, false
	}
	q.tail.Store(tail + 1)
	return ev, true
}

// SysexPayload returns the bytes for a SysEx event previously returned by
// Pop. Valid only until the next Reset.
func (q *midiQueue) SysexPayload(ev midiEvent) []byte {
	if !ev.isSysex {
		return nil
	}
	return q.scratch[ev.sysexOff : ev.sysexOff+ev.sysexLen]
}

// Reset clears the queue and frees the entire scratch buffer at once;
// there is no incremental reclamation.
func (q *midiQueue) Reset() {
	q.head.Store(0)
	q.tail.Store(0)
	q.scratchLen.Store(0)
}

func (q *midiQueue) pending() uint32 {
	return q.head.Load() - q.tail.Load()
}
