// Package status provides a thread-safe status tracker for the button-sensor
// daemon. It is read by HTTP handlers and serialized into MQTT system events.
package status

import (
	"sync"
	"time"
)

// NetworkInfo contains network state as reported by pi-helper env vars.
type NetworkInfo struct {
	Type       string
	IP         string
	Status     string
	Gateway    string
	WifiStatus string
	SSID       string
}

// Config contains daemon configuration for display.
type Config struct {
	PollMs      int64
	DebounceMs  int64
	HeartbeatMs int64
	Broker      string
	HTTPAddr    string
	Chip        string
}

// Button is the per-button view of daemon state. Presses counts events the
// polling loop has consumed; suppressed or coalesced edges are not counted.
type Button struct {
	Name      string
	Pin       int
	LEDPin    int // 0 = no linked LED
	Presses   int
	LastSeq   uint64
	LastPress time.Time // zero until the first press
	LED       bool
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Buttons       []Button
	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Network       *NetworkInfo
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// TotalPresses sums consumed presses across all buttons.
func (s Snapshot) TotalPresses() int {
	total := 0
	for _, b := range s.Buttons {
		total += b.Presses
	}
	return total
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu    sync.RWMutex
	snap  Snapshot
	index map[string]int
}

// NewTracker creates a Tracker with the given start time, config, and the
// buttons the daemon watches.
func NewTracker(startTime time.Time, cfg Config, buttons []Button) *Tracker {
	t := &Tracker{index: make(map[string]int, len(buttons))}
	t.snap = Snapshot{
		StartTime: startTime,
		Config:    cfg,
		Buttons:   append([]Button(nil), buttons...),
	}
	for i, b := range buttons {
		t.index[b.Name] = i
	}
	return t
}

// RecordPress updates the named button after the polling loop has consumed
// an event. Unknown names are ignored.
func (t *Tracker) RecordPress(name string, seq uint64, at time.Time, led bool) {
	t.mu.Lock()
	if i, ok := t.index[name]; ok {
		b := &t.snap.Buttons[i]
		b.Presses++
		b.LastSeq = seq
		b.LastPress = at
		b.LED = led
	}
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// SetNetwork sets the network info.
func (t *Tracker) SetNetwork(info *NetworkInfo) {
	t.mu.Lock()
	t.snap.Network = info
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Buttons = append([]Button(nil), t.snap.Buttons...)
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
