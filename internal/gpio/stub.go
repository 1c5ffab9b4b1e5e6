//go:build !linux

package gpio

import "errors"

// RealChip is not available on non-Linux platforms.
type RealChip struct{}

// NewRealChip returns an error on non-Linux platforms.
func NewRealChip(name string) (*RealChip, error) {
	return nil, errors.New("gpio: not supported on this platform (requires Linux)")
}

// Watch is not implemented on non-Linux platforms.
func (c *RealChip) Watch(pin int, handler EdgeHandler) error {
	return errors.New("gpio: not supported")
}

// RequestOutput is not implemented on non-Linux platforms.
func (c *RealChip) RequestOutput(pin int) error {
	return errors.New("gpio: not supported")
}

// SetOutput is not implemented on non-Linux platforms.
func (c *RealChip) SetOutput(pin int, on bool) error {
	return errors.New("gpio: not supported")
}

// Toggle is not implemented on non-Linux platforms.
func (c *RealChip) Toggle(pin int) (bool, error) {
	return false, errors.New("gpio: not supported")
}

// Close is not implemented on non-Linux platforms.
func (c *RealChip) Close() error {
	return nil
}
