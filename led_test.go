package halkit

import (
	"errors"
	"testing"

	"github.com/hubertat/halkit/hal"
)

func assertNoErr(t testing.TB, err error) {
	t.Helper()

	if err != nil {
		t.Fatalf("got error: %v", err)
	}
}

func assertErrIs(t testing.TB, err, want error) {
	t.Helper()

	if !errors.Is(err, want) {
		t.Errorf("got error %v want %v", err, want)
	}
}

func assertLedState(t testing.TB, led *Led, want LedState) {
	t.Helper()

	if got := led.GetState(); got != want {
		t.Errorf("led state got %s want %s", got, want)
	}
}

func assertPinLevel(t testing.TB, gpio *hal.GpioController, pin uint8, want hal.Level) {
	t.Helper()

	got, err := gpio.Read(pin)
	if err != nil {
		t.Fatalf("read of pin %d returned err: %v", pin, err)
	}
	if got != want {
		t.Errorf("pin %d level got %v want %v", pin, got, want)
	}
}

func TestLedStateAndToggle(t *testing.T) {
	gpio := hal.NewGpioController(nil)
	led := &Led{Pin: DefaultLedPin}

	assertNoErr(t, led.Init(gpio))
	assertLedState(t, led, LedOff)

	assertNoErr(t, led.SetState(LedOn))
	assertLedState(t, led, LedOn)
	assertPinLevel(t, gpio, DefaultLedPin, hal.High)

	assertNoErr(t, led.Toggle())
	assertLedState(t, led, LedOff)
	assertPinLevel(t, gpio, DefaultLedPin, hal.Low)

	assertNoErr(t, led.Toggle())
	assertLedState(t, led, LedOn)
}

func TestLedBlink(t *testing.T) {
	gpio := hal.NewGpioController(nil)
	led := &Led{Pin: 6}
	assertNoErr(t, led.Init(gpio))

	assertNoErr(t, led.SetState(LedOn))
	assertNoErr(t, led.Blink(10))

	// blink always terminates with the led off
	assertLedState(t, led, LedOff)
	assertPinLevel(t, gpio, 6, hal.Low)

	assertErrIs(t, led.Blink(-1), hal.ErrInvalidArgument)
}

func TestLedUninitialized(t *testing.T) {
	led := &Led{Pin: 6}

	assertErrIs(t, led.SetState(LedOn), hal.ErrNotInitialized)
	assertErrIs(t, led.Toggle(), hal.ErrNotInitialized)
	assertErrIs(t, led.Blink(2), hal.ErrNotInitialized)
	assertLedState(t, led, LedOff)
}

func TestLedInitNilController(t *testing.T) {
	led := &Led{Pin: 6}

	assertErrIs(t, led.Init(nil), hal.ErrInvalidArgument)
}

func TestLedDeinit(t *testing.T) {
	gpio := hal.NewGpioController(nil)
	led := &Led{Pin: 6}
	assertNoErr(t, led.Init(gpio))
	assertNoErr(t, led.SetState(LedOn))

	assertNoErr(t, led.Deinit())
	assertLedState(t, led, LedOff)
	assertErrIs(t, led.Toggle(), hal.ErrNotInitialized)

	// the underlying pin was released too
	assertErrIs(t, gpio.Write(6, hal.High), hal.ErrNotInitialized)

	// idempotent, and the led can come back
	assertNoErr(t, led.Deinit())
	assertNoErr(t, led.Init(gpio))
	assertLedState(t, led, LedOff)
}
