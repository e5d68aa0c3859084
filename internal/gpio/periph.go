package gpio

import (
	"fmt"
	"sync"

	pgpio "periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"

	"github.com/muurk/apled/internal/logging"
	"go.uber.org/zap"
)

// Periph drives pins through the periph.io host drivers.
type Periph struct {
	initOnce sync.Once
	initErr  error

	mu   sync.Mutex
	pins map[string]pgpio.PinIO
}

// NewPeriph creates a periph-backed driver. Host drivers are loaded lazily on
// the first InitializeOutputPin call.
func NewPeriph() *Periph {
	return &Periph{pins: make(map[string]pgpio.PinIO)}
}

func (p *Periph) hostInit() error {
	p.initOnce.Do(func() {
		state, err := host.Init()
		if err != nil {
			p.initErr = fmt.Errorf("failed to initialize periph host: %w", err)
			return
		}
		logging.Debug("periph host initialized",
			zap.Int("loaded_drivers", len(state.Loaded)),
			zap.Int("failed_drivers", len(state.Failed)),
		)
	})
	return p.initErr
}

// InitializeOutputPin resolves pin through gpioreg and drives it low.
func (p *Periph) InitializeOutputPin(pin string) error {
	if err := p.hostInit(); err != nil {
		return err
	}

	line := gpioreg.ByName(pin)
	if line == nil {
		return fmt.Errorf("%w: %s", ErrUnknownPin, pin)
	}
	if err := line.Out(pgpio.Low); err != nil {
		return fmt.Errorf("failed to configure %s as output: %w", pin, err)
	}

	p.mu.Lock()
	p.pins[pin] = line
	p.mu.Unlock()

	logging.Info("GPIO output pin initialized",
		zap.String("pin", pin),
		zap.Int("number", line.Number()),
	)
	return nil
}

// SetPinLevel drives an initialized pin.
func (p *Periph) SetPinLevel(pin string, high bool) error {
	p.mu.Lock()
	line, ok := p.pins[pin]
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrPinNotInitialized, pin)
	}

	level := pgpio.Low
	if high {
		level = pgpio.High
	}
	if err := line.Out(level); err != nil {
		return fmt.Errorf("failed to drive %s %s: %w", pin, level, err)
	}
	return nil
}
