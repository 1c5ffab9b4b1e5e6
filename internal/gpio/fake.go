package gpio

import (
	"fmt"
	"sync"
	"time"
)

// FakeChip is a test double. Tests inject edges with InjectEdge and inspect
// output lines with OutputState. Safe for concurrent use so tests can
// deliver edges from a separate goroutine, like the real event handler does.
type FakeChip struct {
	mu        sync.Mutex
	handlers  map[int]EdgeHandler
	outputs   map[int]bool
	requested map[int]bool
	closed    bool

	// WatchError, if set, is returned by Watch.
	WatchError error

	// OutputError, if set, is returned by RequestOutput, SetOutput and Toggle.
	OutputError error
}

// NewFakeChip creates an empty FakeChip.
func NewFakeChip() *FakeChip {
	return &FakeChip{
		handlers:  make(map[int]EdgeHandler),
		outputs:   make(map[int]bool),
		requested: make(map[int]bool),
	}
}

// Watch records the handler for pin.
func (f *FakeChip) Watch(pin int, handler EdgeHandler) error {
	if f.WatchError != nil {
		return f.WatchError
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, dup := f.handlers[pin]; dup {
		return fmt.Errorf("pin %d already watched", pin)
	}
	f.handlers[pin] = handler
	return nil
}

// InjectEdge delivers a falling edge on pin, as the kernel would.
// Panics if the pin is not watched so tests fail loudly on wiring mistakes.
func (f *FakeChip) InjectEdge(pin int, sinceBoot time.Duration) {
	f.mu.Lock()
	handler, ok := f.handlers[pin]
	f.mu.Unlock()
	if !ok {
		panic(fmt.Sprintf("gpio: InjectEdge on unwatched pin %d", pin))
	}
	handler(sinceBoot)
}

// RequestOutput claims pin as an output, initially off.
func (f *FakeChip) RequestOutput(pin int) error {
	if f.OutputError != nil {
		return f.OutputError
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requested[pin] = true
	f.outputs[pin] = false
	return nil
}

// SetOutput records the state of a requested output pin.
func (f *FakeChip) SetOutput(pin int, on bool) error {
	if f.OutputError != nil {
		return f.OutputError
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.requested[pin] {
		return fmt.Errorf("output pin %d not requested", pin)
	}
	f.outputs[pin] = on
	return nil
}

// Toggle flips a requested output pin and returns the new state.
func (f *FakeChip) Toggle(pin int) (bool, error) {
	if f.OutputError != nil {
		return false, f.OutputError
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.requested[pin] {
		return false, fmt.Errorf("output pin %d not requested", pin)
	}
	f.outputs[pin] = !f.outputs[pin]
	return f.outputs[pin], nil
}

// OutputState reports the current state of an output pin.
func (f *FakeChip) OutputState(pin int) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.outputs[pin]
}

// Close marks the chip as closed.
func (f *FakeChip) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// Closed reports whether Close was called.
func (f *FakeChip) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}
