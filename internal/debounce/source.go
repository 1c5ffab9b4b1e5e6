package debounce

import (
	"sync"
	"time"
)

// Source debounces one monitored signal into a single-slot mailbox.
//
// OnSignalTransition runs on the GPIO library's event goroutine and
// PollAndConsume on the polling loop; the mutex is the critical section
// between the two. Both hold it only for the read-modify-write of the
// mailbox fields and never block inside it.
type Source struct {
	mu sync.Mutex

	// minInterval is the debounce window in milliseconds. Transitions
	// closer than this to the last accepted one are dropped.
	minInterval uint32

	lastAccepted uint32
	primed       bool // a transition has been accepted; the first always is

	pending   bool
	pendingEv Event
	seq       uint64
}

// NewSource creates a Source with the given debounce window.
// The window is a configured constant, chosen per the bounce characteristics
// of the physical switch.
func NewSource(minInterval time.Duration) *Source {
	return &Source{minInterval: uint32(minInterval / time.Millisecond)}
}

// OnSignalTransition records a raw edge observed at nowMillis.
//
// The transition is accepted when at least the debounce window has elapsed
// since the last accepted one; otherwise it is dropped. The comparison uses
// uint32 subtraction so it stays correct across clock wraparound. An
// accepted transition overwrites any unconsumed event (last-write-wins).
// Never blocks and performs no I/O; safe to call from the edge-handler
// goroutine.
func (s *Source) OnSignalTransition(nowMillis uint32) {
	s.mu.Lock()
	if s.primed && nowMillis-s.lastAccepted < s.minInterval {
		s.mu.Unlock()
		return
	}
	s.primed = true
	s.lastAccepted = nowMillis
	s.seq++
	s.pending = true
	s.pendingEv = Event{Millis: nowMillis, Seq: s.seq}
	s.mu.Unlock()
}

// PollAndConsume atomically takes the pending event, if any.
// Each accepted transition is returned exactly once; suppressed or
// overwritten transitions are never returned.
func (s *Source) PollAndConsume() (Event, bool) {
	s.mu.Lock()
	ev, ok := s.pendingEv, s.pending
	s.pending = false
	s.mu.Unlock()
	return ev, ok
}

// Millis converts a monotonic since-boot timestamp, as delivered with kernel
// edge events, to the wrapping millisecond clock used by Source. The uint32
// truncation wraps roughly every 49.7 days; OnSignalTransition's interval
// arithmetic tolerates the wrap.
func Millis(sinceBoot time.Duration) uint32 {
	return uint32(sinceBoot / time.Millisecond)
}
