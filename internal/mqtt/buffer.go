package mqtt

// message is a serialized MQTT publish held for replay after reconnection.
type message struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

// ring is a fixed-capacity FIFO that stores messages while the broker is
// unreachable. Oldest messages are dropped on overflow.
// Not safe for concurrent use — RealPublisher synchronizes around it.
type ring struct {
	buf     []message
	head    int // next write position
	count   int
	dropped int // messages dropped since the last drain
}

func newRing(capacity int) *ring {
	return &ring{buf: make([]message, capacity)}
}

func (r *ring) push(m message) {
	if r.count == len(r.buf) {
		// Overwrite oldest: head is already pointing at it.
		r.buf[r.head] = m
		r.head = (r.head + 1) % len(r.buf)
		r.dropped++
		return
	}
	r.buf[r.head] = m
	r.head = (r.head + 1) % len(r.buf)
	r.count++
}

// drain returns buffered messages oldest-first plus the number of messages
// dropped to overflow, and resets the ring.
func (r *ring) drain() ([]message, int) {
	dropped := r.dropped
	r.dropped = 0

	if r.count == 0 {
		return nil, dropped
	}

	out := make([]message, r.count)
	// Oldest item is at (head - count) mod capacity.
	start := (r.head - r.count + len(r.buf)) % len(r.buf)
	for i := range out {
		out[i] = r.buf[(start+i)%len(r.buf)]
	}

	r.head = 0
	r.count = 0
	return out, dropped
}

func (r *ring) len() int {
	return r.count
}
