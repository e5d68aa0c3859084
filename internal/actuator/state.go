package actuator

import (
	"fmt"
	"sync"

	"github.com/muurk/apled/internal/gpio"
	"github.com/muurk/apled/internal/logging"
	"go.uber.org/zap"
)

// Source identifies which operation produced a Change.
type Source string

const (
	SourceEngage    Source = "engage"
	SourceDisengage Source = "disengage"
	SourceToggle    Source = "toggle"
)

// Change describes one completed mutation.
type Change struct {
	Seq      uint64
	Source   Source
	Previous bool
	Engaged  bool
}

// Observer is notified after each mutation.
type Observer func(Change)

// FaultHandler receives pin driver errors. It is expected not to return.
type FaultHandler func(err error)

// State is the lock-guarded actuator flag.
type State struct {
	mu      sync.Mutex
	engaged bool
	seq     uint64

	driver gpio.Driver
	pin    string
	fault  FaultHandler

	obsMu     sync.RWMutex
	observers []Observer
}

// Option configures a State.
type Option func(*State)

// WithFaultHandler overrides the default fatal fault handler.
func WithFaultHandler(h FaultHandler) Option {
	return func(s *State) {
		s.fault = h
	}
}

// New initializes pin on driver as an output and returns a disengaged State.
func New(driver gpio.Driver, pin string, opts ...Option) (*State, error) {
	s := &State{
		driver: driver,
		pin:    pin,
		fault:  fatalFault,
	}
	for _, opt := range opts {
		opt(s)
	}

	if err := driver.InitializeOutputPin(pin); err != nil {
		return nil, fmt.Errorf("failed to initialize actuator pin %s: %w", pin, err)
	}
	return s, nil
}

func fatalFault(err error) {
	logging.Fatal("Actuator pin write failed", zap.Error(err))
}

// Pin returns the driver pin name backing the State.
func (s *State) Pin() string {
	return s.pin
}

// Engaged reports the current value of the flag.
func (s *State) Engaged() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engaged
}

// Snapshot returns the flag together with the sequence number of the
// mutation that produced it. Seq is 0 before the first mutation.
func (s *State) Snapshot() (engaged bool, seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engaged, s.seq
}

// Set forces the flag to v and returns the resulting value.
func (s *State) Set(v bool) bool {
	src := SourceDisengage
	if v {
		src = SourceEngage
	}
	return s.mutate(src, func(bool) bool { return v })
}

// Toggle inverts the flag as one step and returns the new value.
func (s *State) Toggle() bool {
	return s.mutate(SourceToggle, func(cur bool) bool { return !cur })
}

// Subscribe registers fn for change notifications.
func (s *State) Subscribe(fn Observer) {
	s.obsMu.Lock()
	defer s.obsMu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *State) mutate(src Source, next func(bool) bool) bool {
	s.mu.Lock()
	prev := s.engaged
	want := next(prev)
	if err := s.driver.SetPinLevel(s.pin, want); err != nil {
		s.mu.Unlock()
		s.fault(fmt.Errorf("%s: %w", src, err))
		return prev
	}
	s.engaged = want
	s.seq++
	change := Change{Seq: s.seq, Source: src, Previous: prev, Engaged: want}
	s.mu.Unlock()

	s.notify(change)
	return want
}

func (s *State) notify(c Change) {
	s.obsMu.RLock()
	observers := make([]Observer, len(s.observers))
	copy(observers, s.observers)
	s.obsMu.RUnlock()

	for _, fn := range observers {
		fn(c)
	}
}
