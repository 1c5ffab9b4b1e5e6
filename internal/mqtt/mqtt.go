// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"
)

// Topic is the MQTT topic for button press events.
const Topic = "panel/buttons/events"

// TopicSystem is the MQTT topic for system lifecycle events.
const TopicSystem = "panel/buttons/system"

// ButtonEvent is one consumed button press, ready to publish.
type ButtonEvent struct {
	Timestamp  time.Time
	Name       string
	Pin        int
	Seq        uint64 // sequence number assigned by the debounce source
	EdgeMillis uint32 // wrapping millisecond timestamp of the accepted edge
	Presses    int    // cumulative presses consumed for this button
}

// Publisher publishes events to MQTT.
type Publisher interface {
	// Publish sends a button press event to the broker.
	// Returns error if publishing fails (should not crash the process).
	Publish(event ButtonEvent) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// Payload represents the MQTT message payload structure.
type Payload struct {
	Button ButtonPayload `json:"button"`
}

// ButtonPayload contains the button press details.
type ButtonPayload struct {
	Timestamp  string `json:"timestamp"`
	Name       string `json:"name"`
	Pin        int    `json:"pin"`
	Seq        uint64 `json:"seq"`
	EdgeMillis uint32 `json:"edge_millis"`
	Presses    int    `json:"presses"`
}

// FormatPayload creates the JSON payload for a button press event.
func FormatPayload(event ButtonEvent) ([]byte, error) {
	payload := Payload{
		Button: ButtonPayload{
			Timestamp:  event.Timestamp.UTC().Format(time.RFC3339),
			Name:       event.Name,
			Pin:        event.Pin,
			Seq:        event.Seq,
			EdgeMillis: event.EdgeMillis,
			Presses:    event.Presses,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
