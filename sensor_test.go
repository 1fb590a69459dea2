package halkit

import (
	"testing"

	"github.com/hubertat/halkit/hal"
)

func assertReadingInRange(t testing.TB, reading Reading) {
	t.Helper()

	if !reading.Valid {
		t.Error("reading not valid")
	}
	if reading.TemperatureCelsius < MinTempCelsius || reading.TemperatureCelsius > MaxTempCelsius {
		t.Errorf("temperature %f out of [%f, %f]", reading.TemperatureCelsius, MinTempCelsius, MaxTempCelsius)
	}
	if reading.HumidityPercent < 0 || reading.HumidityPercent > 100 {
		t.Errorf("humidity %f out of [0, 100]", reading.HumidityPercent)
	}
}

func TestSensorSingleShot(t *testing.T) {
	sensor := &Sensor{Seed: 1}

	assertNoErr(t, sensor.Init())
	if sensor.IsReady() {
		t.Error("sensor ready before start")
	}

	assertNoErr(t, sensor.Start(SensorModeSingle))
	if !sensor.IsReady() {
		t.Error("sensor not ready after start")
	}

	var reading Reading
	assertNoErr(t, sensor.Read(&reading))
	assertReadingInRange(t, reading)

	// single mode stops after one successful read
	if sensor.IsReady() {
		t.Error("sensor still ready after single shot read")
	}
	assertErrIs(t, sensor.Read(&reading), hal.ErrNotReady)
}

func TestSensorContinuousRanges(t *testing.T) {
	sensor := &Sensor{Seed: 7}
	assertNoErr(t, sensor.Init())
	assertNoErr(t, sensor.Start(SensorModeContinuous))

	for i := 0; i < 1000; i++ {
		var reading Reading
		assertNoErr(t, sensor.Read(&reading))
		assertReadingInRange(t, reading)
	}

	if !sensor.IsReady() {
		t.Error("continuous sensor stopped by reads")
	}
}

func TestSensorReadBeforeStart(t *testing.T) {
	sensor := &Sensor{Seed: 1}
	assertNoErr(t, sensor.Init())

	var reading Reading
	assertErrIs(t, sensor.Read(&reading), hal.ErrNotReady)
	if reading.Valid {
		t.Error("failed read produced a valid reading")
	}
}

func TestSensorNilReading(t *testing.T) {
	sensor := &Sensor{Seed: 1}
	assertNoErr(t, sensor.Init())
	assertNoErr(t, sensor.Start(SensorModeContinuous))

	assertErrIs(t, sensor.Read(nil), hal.ErrInvalidArgument)

	sensor.Deinit()
	assertErrIs(t, sensor.Read(nil), hal.ErrInvalidArgument)
}

func TestSensorStartRearms(t *testing.T) {
	sensor := &Sensor{Seed: 1}
	assertNoErr(t, sensor.Init())
	assertNoErr(t, sensor.Start(SensorModeSingle))

	// re-arm with a new mode without stopping first
	assertNoErr(t, sensor.Start(SensorModeContinuous))

	var reading Reading
	assertNoErr(t, sensor.Read(&reading))
	assertNoErr(t, sensor.Read(&reading))
	if !sensor.IsReady() {
		t.Error("re-armed continuous sensor stopped by reads")
	}
}

func TestSensorCalibrate(t *testing.T) {
	sensor := &Sensor{Seed: 1}

	assertErrIs(t, sensor.Calibrate(), hal.ErrNotInitialized)

	assertNoErr(t, sensor.Init())
	assertNoErr(t, sensor.Calibrate())
	if !sensor.Calibrated() {
		t.Error("sensor not calibrated after Calibrate")
	}

	// permitted while ready as well
	assertNoErr(t, sensor.Start(SensorModeContinuous))
	assertNoErr(t, sensor.Calibrate())

	sensor.Deinit()
	assertErrIs(t, sensor.Calibrate(), hal.ErrNotInitialized)
}

func TestSensorStopAndDeinit(t *testing.T) {
	sensor := &Sensor{Seed: 1}
	assertNoErr(t, sensor.Init())
	assertNoErr(t, sensor.Start(SensorModeContinuous))

	sensor.Stop()
	if sensor.IsReady() {
		t.Error("sensor ready after stop")
	}

	// stop is safe when already stopped
	sensor.Stop()

	sensor.Deinit()
	assertErrIs(t, sensor.Start(SensorModeSingle), hal.ErrNotInitialized)

	// reinitialization brings it back
	assertNoErr(t, sensor.Init())
	if sensor.Calibrated() {
		t.Error("calibration survived deinit")
	}
	assertNoErr(t, sensor.Start(SensorModeSingle))
}
