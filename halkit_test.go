package halkit

import (
	"context"
	"strings"
	"testing"

	"github.com/hubertat/halkit/hal"
)

func demoKit() *HalKit {
	return &HalKit{
		Name: "test",
		Uart: &UartSettings{
			Config: hal.Config{
				Baudrate: hal.Baud115200,
				Parity:   hal.ParityNone,
				DataBits: 8,
				StopBits: 1,
			},
		},
		Led:    &Led{Pin: DefaultLedPin},
		Sensor: &Sensor{Seed: 42},
	}
}

func TestHalKitIntegration(t *testing.T) {
	kit := demoKit()

	assertNoErr(t, kit.InitPeripherals(context.Background()))

	if kit.UartPort() == nil || !kit.UartPort().IsReady() {
		t.Fatal("uart not ready after init")
	}

	assertNoErr(t, kit.Sensor.Start(SensorModeContinuous))

	for i := 0; i < 3; i++ {
		var reading Reading
		assertNoErr(t, kit.Sensor.Read(&reading))
		assertReadingInRange(t, reading)

		n, err := kit.UartPort().Printf("Reading %d: %.2f C, %.1f%% RH\n",
			i+1, reading.TemperatureCelsius, reading.HumidityPercent)
		assertNoErr(t, err)
		if n <= 0 {
			t.Error("uart printf wrote nothing")
		}

		assertNoErr(t, kit.Led.Toggle())
	}

	// the loopback carries everything the loop printed
	buffer := make([]byte, 512)
	n, err := kit.UartPort().Read(buffer)
	assertNoErr(t, err)
	if !strings.Contains(string(buffer[:n]), "Reading 1:") {
		t.Errorf("uart loopback missing report, got: %q", buffer[:n])
	}

	kit.Sensor.Stop()
	assertNoErr(t, kit.Close())

	assertErrIs(t, kit.Led.Toggle(), hal.ErrNotInitialized)
	_, err = kit.UartPort().Write([]byte{0x01})
	assertErrIs(t, err, hal.ErrNotInitialized)
}

func TestHalKitSyncTogglesLed(t *testing.T) {
	kit := demoKit()
	assertNoErr(t, kit.InitPeripherals(context.Background()))
	defer kit.Close()

	assertNoErr(t, kit.Sensor.Start(SensorModeContinuous))

	before := kit.Led.GetState()
	kit.syncPeripherals()
	if kit.Led.GetState() == before {
		t.Error("sync did not toggle the heartbeat led")
	}
}

func TestHalKitSyncWithoutSensor(t *testing.T) {
	kit := demoKit()
	kit.Sensor = nil
	assertNoErr(t, kit.InitPeripherals(context.Background()))
	defer kit.Close()

	// nothing armed, sync must be a no-op
	kit.syncPeripherals()
	if kit.Led.GetState() != LedOff {
		t.Error("sync touched the led with no sensor present")
	}
}

func TestHalKitPrintStatus(t *testing.T) {
	kit := demoKit()
	assertNoErr(t, kit.InitPeripherals(context.Background()))
	defer kit.Close()

	buf := &strings.Builder{}
	kit.PrintStatus(buf)

	for _, want := range []string{"uart: 115200 baud", "led: pin 13", "sensor: ready false"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("status output missing %q, got:\n%s", want, buf.String())
		}
	}
}

func TestHalKitCloseWithoutInit(t *testing.T) {
	kit := &HalKit{}

	assertNoErr(t, kit.Close())
}
