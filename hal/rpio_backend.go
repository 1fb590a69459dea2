package hal

import (
	"github.com/pkg/errors"
	"github.com/stianeikeland/go-rpio/v4"
)

// RpioIO drives real Raspberry Pi pins through the bcm283x registers. The
// gpio memory is opened lazily on the first configured pin.
type RpioIO struct {
	opened bool
}

func (rp *RpioIO) open() error {
	if rp.opened {
		return nil
	}
	if err := rpio.Open(); err != nil {
		return errors.Wrap(err, "rpio: failed to open gpio memory")
	}
	rp.opened = true
	return nil
}

func (rp *RpioIO) ConfigureInput(pin uint8) error {
	if err := rp.open(); err != nil {
		return err
	}
	p := rpio.Pin(pin)
	p.Input()
	p.PullUp()
	return nil
}

func (rp *RpioIO) ConfigureOutput(pin uint8) error {
	if err := rp.open(); err != nil {
		return err
	}
	rpio.Pin(pin).Output()
	return nil
}

func (rp *RpioIO) Set(pin uint8, high bool) error {
	if !rp.opened {
		return errors.Wrap(ErrNotInitialized, "rpio")
	}
	if high {
		rpio.Pin(pin).High()
	} else {
		rpio.Pin(pin).Low()
	}
	return nil
}

func (rp *RpioIO) Get(pin uint8) (bool, error) {
	if !rp.opened {
		return false, errors.Wrap(ErrNotInitialized, "rpio")
	}
	return rpio.Pin(pin).Read() == rpio.High, nil
}

func (rp *RpioIO) Close() error {
	if !rp.opened {
		return nil
	}
	rp.opened = false
	return rpio.Close()
}
