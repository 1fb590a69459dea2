package hal

import (
	"sync"

	"github.com/pkg/errors"
)

// PinCount bounds the legal pin identifier space, pins 0..PinCount-1.
const PinCount = 255

// Level is a digital pin logic level.
type Level uint8

const (
	Low Level = iota
	High
)

func (l Level) String() string {
	if l == High {
		return "HIGH"
	}
	return "LOW"
}

type PinMode uint8

const (
	ModeOutput PinMode = iota
	ModeInput
)

type pinRecord struct {
	mode   PinMode
	level  Level
	active bool
}

// GpioController owns a bounded table of digital pins on top of a
// PinBackend. Every operation validates the pin identifier first; failed
// validation never touches pin state. Operations other than Init fail on
// pins that were not initialized.
type GpioController struct {
	mu      sync.Mutex
	backend PinBackend
	pins    [PinCount]pinRecord
}

// NewGpioController wires a controller to the given backend, falling back
// to the simulated backend when backend is nil.
func NewGpioController(backend PinBackend) *GpioController {
	if backend == nil {
		backend = &SimIO{}
	}
	return &GpioController{backend: backend}
}

// Init claims a pin and configures its mode. The pin comes up at Low.
// Reinitialization overwrites the previous record.
func (gc *GpioController) Init(pin uint8, mode PinMode) error {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	if err := checkPin(pin); err != nil {
		return err
	}

	var err error
	if mode == ModeInput {
		err = gc.backend.ConfigureInput(pin)
	} else {
		err = gc.backend.ConfigureOutput(pin)
	}
	if err != nil {
		return errors.Wrapf(err, "gpio: backend failed to configure pin %d", pin)
	}
	if mode == ModeOutput {
		if err := gc.backend.Set(pin, false); err != nil {
			return errors.Wrapf(err, "gpio: backend failed to reset pin %d", pin)
		}
	}

	gc.pins[pin] = pinRecord{mode: mode, level: Low, active: true}
	return nil
}

func (gc *GpioController) Write(pin uint8, level Level) error {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	if err := gc.checkActive(pin); err != nil {
		return err
	}
	if err := gc.backend.Set(pin, level == High); err != nil {
		return errors.Wrapf(err, "gpio: backend write to pin %d failed", pin)
	}
	gc.pins[pin].level = level
	return nil
}

// Read returns the current level of the pin, asking the backend so input
// pins reflect the outside world.
func (gc *GpioController) Read(pin uint8) (Level, error) {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	if err := gc.checkActive(pin); err != nil {
		return Low, err
	}
	high, err := gc.backend.Get(pin)
	if err != nil {
		return Low, errors.Wrapf(err, "gpio: backend read of pin %d failed", pin)
	}
	level := Low
	if high {
		level = High
	}
	gc.pins[pin].level = level
	return level, nil
}

// Toggle flips the pin between High and Low.
func (gc *GpioController) Toggle(pin uint8) error {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	if err := gc.checkActive(pin); err != nil {
		return err
	}
	next := High
	if gc.pins[pin].level == High {
		next = Low
	}
	if err := gc.backend.Set(pin, next == High); err != nil {
		return errors.Wrapf(err, "gpio: backend write to pin %d failed", pin)
	}
	gc.pins[pin].level = next
	return nil
}

// Deinit releases the pin, parking outputs at Low. Releasing a pin that was
// never initialized is not an error.
func (gc *GpioController) Deinit(pin uint8) error {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	if err := checkPin(pin); err != nil {
		return err
	}
	if !gc.pins[pin].active {
		return nil
	}
	if gc.pins[pin].mode == ModeOutput {
		if err := gc.backend.Set(pin, false); err != nil {
			return errors.Wrapf(err, "gpio: backend failed to park pin %d", pin)
		}
	}
	gc.pins[pin] = pinRecord{}
	return nil
}

// ActivePins lists the initialized pin identifiers in ascending order.
func (gc *GpioController) ActivePins() (pins []uint8) {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	for no, record := range gc.pins {
		if record.active {
			pins = append(pins, uint8(no))
		}
	}
	return
}

// Close releases every active pin and shuts the backend down.
func (gc *GpioController) Close() error {
	gc.mu.Lock()
	defer gc.mu.Unlock()

	for no, record := range gc.pins {
		if record.active && record.mode == ModeOutput {
			_ = gc.backend.Set(uint8(no), false)
		}
		gc.pins[no] = pinRecord{}
	}
	return gc.backend.Close()
}

func (gc *GpioController) checkActive(pin uint8) error {
	if err := checkPin(pin); err != nil {
		return err
	}
	if !gc.pins[pin].active {
		return errors.Wrapf(ErrNotInitialized, "gpio: pin %d", pin)
	}
	return nil
}

func checkPin(pin uint8) error {
	if int(pin) >= PinCount {
		return errors.Wrapf(ErrInvalidArgument, "gpio: pin %d out of range", pin)
	}
	return nil
}
