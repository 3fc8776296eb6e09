package mt32emu

import (
	"testing"

	"pgregory.net/rapid"
)

func TestMIDIQueue_PushPopPreservesOrder(t *testing.T) {
	q := newMIDIQueue(8, 256)
	for i := uint32(0); i < 5; i++ {
		if err := q.PushShortMessage(i, 0x90|i<<8); err != nil {
			t.Fatalf("push %d: %v", i, err)
		}
	}
	for i := uint32(0); i < 5; i++ {
		ev, ok := q.Pop(1000)
		if !ok {
			t.Fatalf("pop %d: expected an event", i)
		}
		if ev.timestamp != i {
			t.Fatalf("pop %d: got timestamp %d, want %d", i, ev.timestamp, i)
		}
	}
}

func TestMIDIQueue_PopRespectsDeadline(t *testing.T) {
	q := newMIDIQueue(8, 256)
	if err := q.PushShortMessage(100, 0x90); err != nil {
		t.Fatalf("push: %v", err)
	}
	if _, ok := q.Pop(50); ok {
		t.Fatal("Pop should not return an event timestamped after the deadline")
	}
	if _, ok := q.Pop(100); !ok {
		t.Fatal("Pop should return the event once the deadline reaches its timestamp")
	}
}

func TestMIDIQueue_FullRingReturnsQueueSaturationError(t *testing.T) {
	q := newMIDIQueue(4, 256)
	for i := 0; i < 4; i++ {
		if err := q.PushShortMessage(0, 0x90); err != nil {
			t.Fatalf("push %d should have succeeded: %v", i, err)
		}
	}
	err := q.PushShortMessage(0, 0x90)
	if err == nil {
		t.Fatal("expected queue-saturation error when pushing past capacity")
	}
	merr, ok := err.(*Error)
	if !ok || merr.Kind != ErrQueueSaturation {
		t.Fatalf("expected ErrQueueSaturation, got %v", err)
	}
}

func TestMIDIQueue_SysexPayloadRoundTrips(t *testing.T) {
	q := newMIDIQueue(8, 256)
	payload := []byte{0xF0, 0x41, 0x10, 0x16, 0x12, 0x00, 0x00, 0x00, 0x00, 0xF7}
	if err := q.PushSysex(0, payload); err != nil {
		t.Fatalf("push sysex: %v", err)
	}
	ev, ok := q.Pop(0)
	if !ok {
		t.Fatal("expected sysex event")
	}
	got := q.SysexPayload(ev)
	if len(got) != len(payload) {
		t.Fatalf("sysex payload length mismatch: got %d, want %d", len(got), len(payload))
	}
	for i := range payload {
		if got[i] != payload[i] {
			t.Fatalf("sysex payload byte %d mismatch: got 0x%02X, want 0x%02X", i, got[i], payload[i])
		}
	}
}

func TestMIDIQueue_ResetClearsPendingAndScratch(t *testing.T) {
	q := newMIDIQueue(8, 256)
	q.PushShortMessage(0, 0x90)
	q.PushSysex(0, []byte{0xF0, 0xF7})
	q.Reset()
	if q.pending() != 0 {
		t.Fatalf("pending after Reset should be 0, got %d", q.pending())
	}
	if err := q.PushSysex(0, make([]byte, 256)); err != nil {
		t.Fatalf("scratch buffer should be fully reclaimed after Reset: %v", err)
	}
}

// TestMIDIQueue_OverflowBoundary checks the 1024-capacity ring's documented
// overflow point: exactly 1024 pushes succeed, the 1025th fails.
func TestMIDIQueue_OverflowBoundary(t *testing.T) {
	q := newMIDIQueue(1024, 64*1024)
	for i := 0; i < 1024; i++ {
		if err := q.PushShortMessage(0, 0x90); err != nil {
			t.Fatalf("push %d should have succeeded within capacity: %v", i, err)
		}
	}
	if err := q.PushShortMessage(0, 0x90); err == nil {
		t.Fatal("push 1025 should fail with queue saturation")
	}
}

// TestMIDIQueue_PushPopNeverDesyncs is a property test over interleaved
// push/pop sequences: pending() always equals head-tail and never exceeds
// capacity, and popped events come out in FIFO timestamp order.
func TestMIDIQueue_PushPopNeverDesyncs(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		capacity := rapid.IntRange(1, 32).Draw(rt, "capacity")
		q := newMIDIQueue(capacity, 4096)

		var nextTS uint32
		var expected []uint32

		ops := rapid.IntRange(1, 200).Draw(rt, "ops")
		for i := 0; i < ops; i++ {
			if rapid.Bool().Draw(rt, "doPush") {
				err := q.PushShortMessage(nextTS, 0x90)
				if err == nil {
					expected = append(expected, nextTS)
					nextTS++
				} else if int(q.pending()) != capacity {
					rt.Fatalf("push failed but pending (%d) != capacity (%d)", q.pending(), capacity)
				}
			} else if len(expected) > 0 {
				ev, ok := q.Pop(^uint32(0) >> 1)
				if !ok {
					rt.Fatal("pop failed despite non-empty expected queue")
				}
				if ev.timestamp != expected[0] {
					rt.Fatalf("pop order mismatch: got %d, want %d", ev.timestamp, expected[0])
				}
				expected = expected[1:]
			}
			if int(q.pending()) != len(expected) {
				rt.Fatalf("pending() = %d, want %d", q.pending(), len(expected))
			}
		}
	})
}
