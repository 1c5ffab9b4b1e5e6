// Package debounce converts noisy GPIO edge callbacks into clean,
// rate-limited logical events. This package has NO hardware dependencies
// (no GPIO, MQTT, OS, or time.Sleep); timestamps are plain millisecond
// values so the logic is testable without a clock.
//
// Each Source is a single-slot mailbox shared between two contexts: the
// edge-handler goroutine owned by the GPIO library (producer) and the
// daemon's polling loop (consumer). Edges arriving faster than the consumer
// polls are coalesced, never queued.
package debounce

// Event is one accepted signal transition.
type Event struct {
	// Millis is the wrapping millisecond timestamp at which the edge was
	// accepted.
	Millis uint32

	// Seq counts accepted transitions since startup, starting at 1.
	Seq uint64
}
