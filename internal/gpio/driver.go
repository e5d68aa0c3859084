package gpio

import (
	"errors"
	"fmt"
)

// Driver names accepted by New.
const (
	DriverPeriph = "periph"
	DriverMemory = "memory"
)

var (
	// ErrUnknownPin is returned when a pin name cannot be resolved.
	ErrUnknownPin = errors.New("unknown pin")
	// ErrPinNotInitialized is returned when a level is set on a pin that
	// was never initialized as an output.
	ErrPinNotInitialized = errors.New("pin not initialized as output")
)

// Driver pushes levels onto output pins.
type Driver interface {
	// InitializeOutputPin configures pin as an output driven low.
	InitializeOutputPin(pin string) error
	// SetPinLevel drives pin high (true) or low (false).
	SetPinLevel(pin string, high bool) error
}

// New returns the driver registered under name.
func New(name string) (Driver, error) {
	switch name {
	case DriverPeriph:
		return NewPeriph(), nil
	case DriverMemory, "":
		return NewMemory(), nil
	default:
		return nil, fmt.Errorf("unsupported gpio driver %q (expected %s or %s)", name, DriverPeriph, DriverMemory)
	}
}
