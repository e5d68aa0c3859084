package gpio

import (
	"fmt"
	"sync"
)

// Memory is an in-process Driver. Levels are kept per pin name.
type Memory struct {
	mu     sync.Mutex
	levels map[string]bool
	writes int
	fail   error
}

// NewMemory creates an empty in-memory driver.
func NewMemory() *Memory {
	return &Memory{levels: make(map[string]bool)}
}

// InitializeOutputPin registers pin and drives it low.
func (m *Memory) InitializeOutputPin(pin string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if pin == "" {
		return fmt.Errorf("%w: empty name", ErrUnknownPin)
	}
	m.levels[pin] = false
	return nil
}

// SetPinLevel records the level for pin.
func (m *Memory) SetPinLevel(pin string, high bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	if _, ok := m.levels[pin]; !ok {
		return fmt.Errorf("%w: %s", ErrPinNotInitialized, pin)
	}
	m.levels[pin] = high
	m.writes++
	return nil
}

// Level returns the last level written to pin.
func (m *Memory) Level(pin string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.levels[pin]
}

// Writes returns how many successful SetPinLevel calls were made.
func (m *Memory) Writes() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

// FailWith makes subsequent SetPinLevel calls return err. Pass nil to clear.
func (m *Memory) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}
