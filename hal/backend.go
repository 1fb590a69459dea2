package hal

import (
	"fmt"
	"io"

	"github.com/pkg/errors"
)

// PinBackend carries pin mode and level changes to an IO implementation.
// SimIO keeps everything in memory, RpioIO drives real Raspberry Pi pins.
type PinBackend interface {
	ConfigureInput(pin uint8) error
	ConfigureOutput(pin uint8) error
	Set(pin uint8, high bool) error
	Get(pin uint8) (bool, error)
	Close() error
}

// SimIO is the in-memory pin backend used when no hardware is present.
type SimIO struct {
	levels [PinCount]bool

	writeTo          io.Writer
	writeStateChange bool
}

func (sim *SimIO) ConfigureInput(pin uint8) error {
	return checkBackendPin(pin)
}

func (sim *SimIO) ConfigureOutput(pin uint8) error {
	return checkBackendPin(pin)
}

func (sim *SimIO) Set(pin uint8, high bool) error {
	if err := checkBackendPin(pin); err != nil {
		return err
	}
	if sim.writeStateChange && high != sim.levels[pin] {
		fmt.Fprintf(sim.writeTo, "[pin %d] level changed to %v\n", pin, high)
	}
	sim.levels[pin] = high
	return nil
}

func (sim *SimIO) Get(pin uint8) (bool, error) {
	if err := checkBackendPin(pin); err != nil {
		return false, err
	}
	return sim.levels[pin], nil
}

func (sim *SimIO) Close() error {
	return nil
}

// SetInput forces a pin level from the outside, the way a wire would. Meant
// for tests and demos driving simulated input pins.
func (sim *SimIO) SetInput(pin uint8, high bool) {
	if int(pin) >= PinCount {
		return
	}
	sim.levels[pin] = high
}

func (sim *SimIO) MonitorStateChanges(writer io.Writer) {
	sim.writeTo = writer
	sim.writeStateChange = true
}

func checkBackendPin(pin uint8) error {
	if int(pin) >= PinCount {
		return errors.Wrapf(ErrInvalidArgument, "pin %d out of backend range", pin)
	}
	return nil
}
