// Package gpio provides GPIO access with hardware abstraction.
// The real implementation uses the Linux GPIO character device and delivers
// input edges through kernel event handlers. The fake implementation allows
// testing without hardware.
package gpio

import "time"

// EdgeHandler is called for each falling edge on a watched input line.
// sinceBoot is the kernel's monotonic timestamp for the edge.
//
// Handlers run on the GPIO library's event goroutine, not the daemon's
// polling loop, and must not block.
type EdgeHandler func(sinceBoot time.Duration)

// Inputs registers edge handlers on input lines.
type Inputs interface {
	// Watch requests pin as a pulled-up input and calls handler on every
	// falling edge until Close. A button wired to ground pulls the line
	// low when pressed.
	Watch(pin int, handler EdgeHandler) error

	// Close releases all lines.
	Close() error
}

// Outputs drives LED output lines.
type Outputs interface {
	// RequestOutput claims pin as an output, initially off.
	RequestOutput(pin int) error

	// SetOutput drives pin high (on) or low (off).
	SetOutput(pin int, on bool) error

	// Toggle flips pin and returns the new state.
	Toggle(pin int) (bool, error)

	// Close turns outputs off and releases all lines.
	Close() error
}

// Chip combines input watching and output driving on one GPIO chip.
type Chip interface {
	Inputs
	Outputs
}

// DefaultChip is the GPIO character device on Raspberry Pi class boards.
const DefaultChip = "gpiochip0"

// DefaultButtonPin is the BCM pin watched when no -button flag is given.
const DefaultButtonPin = 26
