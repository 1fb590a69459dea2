package halkit

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/brutella/hap/accessory"
	"github.com/brutella/hap/characteristic"
	"github.com/pkg/errors"

	"github.com/hubertat/halkit/hal"
)

// Bounds for the synthetic environmental readings.
const (
	MinTempCelsius = -40.0
	MaxTempCelsius = 85.0
)

type SensorMode uint8

const (
	SensorModeSingle SensorMode = iota
	SensorModeContinuous
)

// Reading is one environmental sample.
type Reading struct {
	TemperatureCelsius float64 `json:"temperature_celsius"`
	HumidityPercent    float64 `json:"humidity_percent"`
	Valid              bool    `json:"valid"`
}

type sensorState uint8

const (
	sensorUninitialized sensorState = iota
	sensorStopped
	sensorReady
)

// Sensor simulates an environmental sensor. Readings are synthetic, drawn
// from [MinTempCelsius, MaxTempCelsius] and [0, 100] RH; set Seed for
// reproducible sequences.
type Sensor struct {
	Name string `json:"name,omitempty"`
	Seed int64  `json:"seed,omitempty"`

	mu         sync.Mutex
	state      sensorState
	mode       SensorMode
	calibrated bool
	rng        *rand.Rand

	hkA           *accessory.Thermometer
	hkStatusFault *characteristic.StatusFault
}

// Init brings the sensor from any state to stopped and resets calibration.
func (se *Sensor) Init() error {
	se.mu.Lock()
	defer se.mu.Unlock()

	seed := se.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	se.rng = rand.New(rand.NewSource(seed))
	se.state = sensorStopped
	se.mode = SensorModeSingle
	se.calibrated = false
	return nil
}

func (se *Sensor) IsReady() bool {
	se.mu.Lock()
	defer se.mu.Unlock()

	return se.state == sensorReady
}

// Start arms the sensor in the given mode. Starting an already armed sensor
// re-arms it: the new mode is recorded and the sensor stays ready.
func (se *Sensor) Start(mode SensorMode) error {
	se.mu.Lock()
	defer se.mu.Unlock()

	if se.state == sensorUninitialized {
		return errors.Wrap(hal.ErrNotInitialized, "sensor")
	}
	se.mode = mode
	se.state = sensorReady
	return nil
}

// Read fills reading with a fresh sample. In single mode one successful
// read stops the sensor again; in continuous mode it stays ready.
func (se *Sensor) Read(reading *Reading) error {
	se.mu.Lock()
	defer se.mu.Unlock()

	if reading == nil {
		return errors.Wrap(hal.ErrInvalidArgument, "sensor: nil reading")
	}
	if se.state != sensorReady {
		return errors.Wrap(hal.ErrNotReady, "sensor")
	}

	reading.TemperatureCelsius = MinTempCelsius + se.rng.Float64()*(MaxTempCelsius-MinTempCelsius)
	reading.HumidityPercent = se.rng.Float64() * 100
	reading.Valid = true

	if se.mode == SensorModeSingle {
		se.state = sensorStopped
	}

	if se.hkA != nil {
		se.hkA.TempSensor.CurrentTemperature.SetValue(reading.TemperatureCelsius)
		se.hkStatusFault.SetValue(characteristic.StatusFaultNoFault)
	}
	return nil
}

// Calibrate succeeds in any initialized state; the mock adjusts nothing
// observable.
func (se *Sensor) Calibrate() error {
	se.mu.Lock()
	defer se.mu.Unlock()

	if se.state == sensorUninitialized {
		return errors.Wrap(hal.ErrNotInitialized, "sensor")
	}
	se.calibrated = true
	return nil
}

func (se *Sensor) Calibrated() bool {
	se.mu.Lock()
	defer se.mu.Unlock()

	return se.calibrated
}

// Stop disarms the sensor. Safe to call when already stopped.
func (se *Sensor) Stop() {
	se.mu.Lock()
	defer se.mu.Unlock()

	if se.state == sensorReady {
		se.state = sensorStopped
	}
	if se.hkStatusFault != nil {
		se.hkStatusFault.SetValue(characteristic.StatusFaultGeneralFault)
	}
}

// Deinit tears the sensor down from any state.
func (se *Sensor) Deinit() {
	se.mu.Lock()
	defer se.mu.Unlock()

	se.state = sensorUninitialized
	se.mode = SensorModeSingle
	se.calibrated = false
	se.rng = nil
}

func (se *Sensor) GetHk() *accessory.A {
	name := se.Name
	if len(name) == 0 {
		name = "environmental sensor"
	}
	info := accessory.Info{
		Name:         name,
		SerialNumber: fmt.Sprintf("sensor:env:%s", name),
	}
	se.hkA = accessory.NewTemperatureSensor(info)
	se.hkStatusFault = characteristic.NewStatusFault()
	se.hkStatusFault.SetValue(characteristic.StatusFaultGeneralFault)
	se.hkA.TempSensor.AddC(se.hkStatusFault.C)

	return se.hkA.A
}

func (se *Sensor) GetUniqueId() uint64 {
	return uint64(0xABCDEE01)
}
