package halkit

import (
	"fmt"
	"sync"
	"time"

	"github.com/brutella/hap/accessory"
	"github.com/pkg/errors"

	"github.com/hubertat/halkit/hal"
)

// DefaultLedPin is the board's indicator LED.
const DefaultLedPin uint8 = 13

type LedState uint8

const (
	LedOff LedState = iota
	LedOn
)

func (ls LedState) String() string {
	if ls == LedOn {
		return "ON"
	}
	return "OFF"
}

// Led layers on/off semantics over a single GPIO output pin.
type Led struct {
	Name            string `json:"name,omitempty"`
	Pin             uint8  `json:"pin"`
	BlinkIntervalMs int    `json:"blink_interval_ms,omitempty"`

	mu    sync.Mutex
	gpio  *hal.GpioController
	state LedState

	hk *accessory.Lightbulb
}

// Init claims the configured pin as an output on the given controller. The
// LED comes up off.
func (li *Led) Init(gpio *hal.GpioController) error {
	li.mu.Lock()
	defer li.mu.Unlock()

	if gpio == nil {
		return errors.Wrap(hal.ErrInvalidArgument, "led: nil gpio controller")
	}
	if err := gpio.Init(li.Pin, hal.ModeOutput); err != nil {
		return errors.Wrapf(err, "led: failed to claim pin %d", li.Pin)
	}
	li.gpio = gpio
	li.state = LedOff
	return nil
}

func (li *Led) SetState(state LedState) error {
	li.mu.Lock()
	defer li.mu.Unlock()

	return li.setState(state)
}

// GetState returns the cached state, it does not re-read the pin.
func (li *Led) GetState() LedState {
	li.mu.Lock()
	defer li.mu.Unlock()

	return li.state
}

func (li *Led) Toggle() error {
	li.mu.Lock()
	defer li.mu.Unlock()

	next := LedOn
	if li.state == LedOn {
		next = LedOff
	}
	return li.setState(next)
}

// Blink runs count full on/off cycles, pausing BlinkIntervalMs between
// transitions, and always leaves the LED off.
func (li *Led) Blink(count int) error {
	li.mu.Lock()
	defer li.mu.Unlock()

	if li.gpio == nil {
		return errors.Wrap(hal.ErrNotInitialized, "led")
	}
	if count < 0 {
		return errors.Wrap(hal.ErrInvalidArgument, "led: negative blink count")
	}

	interval := time.Duration(li.BlinkIntervalMs) * time.Millisecond
	for i := 0; i < count; i++ {
		if err := li.setState(LedOn); err != nil {
			return err
		}
		time.Sleep(interval)
		if err := li.setState(LedOff); err != nil {
			return err
		}
		time.Sleep(interval)
	}
	return li.setState(LedOff)
}

// Deinit releases the underlying pin. Safe to call on an uninitialized LED.
func (li *Led) Deinit() error {
	li.mu.Lock()
	defer li.mu.Unlock()

	if li.gpio == nil {
		return nil
	}
	if err := li.gpio.Deinit(li.Pin); err != nil {
		return errors.Wrapf(err, "led: failed to release pin %d", li.Pin)
	}
	li.gpio = nil
	li.state = LedOff
	return nil
}

func (li *Led) GetHk() *accessory.A {
	name := li.Name
	if len(name) == 0 {
		name = "led"
	}
	info := accessory.Info{
		Name:         name,
		SerialNumber: fmt.Sprintf("led:gpio:%02d", li.Pin),
	}
	li.hk = accessory.NewLightbulb(info)
	li.hk.Lightbulb.On.OnValueRemoteUpdate(func(on bool) {
		state := LedOff
		if on {
			state = LedOn
		}
		_ = li.SetState(state)
	})

	return li.hk.A
}

func (li *Led) GetUniqueId() uint64 {
	baseId := uint64(0xABCDEF00)
	return baseId + uint64(li.Pin)
}

func (li *Led) setState(state LedState) error {
	if li.gpio == nil {
		return errors.Wrap(hal.ErrNotInitialized, "led")
	}
	level := hal.Low
	if state == LedOn {
		level = hal.High
	}
	if err := li.gpio.Write(li.Pin, level); err != nil {
		return errors.Wrapf(err, "led: gpio write to pin %d failed", li.Pin)
	}
	li.state = state
	if li.hk != nil {
		li.hk.Lightbulb.On.SetValue(state == LedOn)
	}
	return nil
}
