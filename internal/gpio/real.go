//go:build linux

package gpio

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealChip accesses GPIO through the Linux character device.
//
// Watch and RequestOutput are called during startup only; SetOutput and
// Toggle only from the polling loop. No internal locking is needed.
type RealChip struct {
	chip    *gpiocdev.Chip
	inputs  []*gpiocdev.Line
	outputs map[int]*outputLine
}

type outputLine struct {
	line *gpiocdev.Line
	on   bool
}

// NewRealChip opens the named GPIO chip (e.g. "gpiochip0").
func NewRealChip(name string) (*RealChip, error) {
	chip, err := gpiocdev.NewChip(name)
	if err != nil {
		return nil, fmt.Errorf("open gpio chip %s: %w", name, err)
	}
	return &RealChip{chip: chip, outputs: make(map[int]*outputLine)}, nil
}

// Watch requests pin as a pulled-up input and forwards every falling edge
// (button press pulling the line to ground) to handler with the kernel's
// monotonic event timestamp. The handler runs on gpiocdev's event goroutine.
func (c *RealChip) Watch(pin int, handler EdgeHandler) error {
	line, err := c.chip.RequestLine(pin,
		gpiocdev.AsInput,
		gpiocdev.WithPullUp,
		gpiocdev.WithFallingEdge,
		gpiocdev.WithEventHandler(func(evt gpiocdev.LineEvent) {
			handler(evt.Timestamp)
		}),
	)
	if err != nil {
		return fmt.Errorf("request input pin %d: %w", pin, err)
	}
	c.inputs = append(c.inputs, line)
	return nil
}

// RequestOutput claims pin as an output, initially low.
func (c *RealChip) RequestOutput(pin int) error {
	line, err := c.chip.RequestLine(pin, gpiocdev.AsOutput(0))
	if err != nil {
		return fmt.Errorf("request output pin %d: %w", pin, err)
	}
	c.outputs[pin] = &outputLine{line: line}
	return nil
}

// SetOutput drives pin high (on) or low (off).
func (c *RealChip) SetOutput(pin int, on bool) error {
	out, ok := c.outputs[pin]
	if !ok {
		return fmt.Errorf("output pin %d not requested", pin)
	}
	v := 0
	if on {
		v = 1
	}
	if err := out.line.SetValue(v); err != nil {
		return fmt.Errorf("set output pin %d: %w", pin, err)
	}
	out.on = on
	return nil
}

// Toggle flips pin and returns the new state.
func (c *RealChip) Toggle(pin int) (bool, error) {
	out, ok := c.outputs[pin]
	if !ok {
		return false, fmt.Errorf("output pin %d not requested", pin)
	}
	if err := c.SetOutput(pin, !out.on); err != nil {
		return false, err
	}
	return out.on, nil
}

// Close releases all lines and the chip. Outputs are driven low first so no
// LED stays lit after shutdown, then reconfigured to input to match Pi boot
// defaults.
func (c *RealChip) Close() error {
	var errs []error
	for _, line := range c.inputs {
		if err := line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close input: %w", err))
		}
	}
	for pin, out := range c.outputs {
		if err := out.line.SetValue(0); err != nil {
			errs = append(errs, fmt.Errorf("clear output pin %d: %w", pin, err))
		}
		if err := out.line.Reconfigure(gpiocdev.AsInput); err != nil {
			errs = append(errs, fmt.Errorf("reconfigure output pin %d: %w", pin, err))
		}
		if err := out.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close output pin %d: %w", pin, err))
		}
	}
	if c.chip != nil {
		if err := c.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
