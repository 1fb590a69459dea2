package halkit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	dnslog "github.com/brutella/dnssd/log"
	"github.com/brutella/hap"
	"github.com/brutella/hap/accessory"
	hklog "github.com/brutella/hap/log"
	"github.com/eclipse/paho.golang/paho"
	"github.com/pkg/errors"

	"github.com/hubertat/halkit/hal"
	"github.com/hubertat/halkit/mqtt"
)

const defaultHomeKitDirectory = "./homekit"
const homeKitBridgeName = "halkit"
const homeKitBridgeAuthor = "github.com/hubertat"

// UartSettings selects the serial channel parameters and transport: an
// empty Device runs the simulated loopback port.
type UartSettings struct {
	hal.Config
	Device string `json:"device,omitempty"`
}

// HalKit composes the simulated peripherals and owns their lifecycle: it
// brings modules up from configuration, drives the periodic sensor sync and
// tears everything down on Close.
type HalKit struct {
	Name string

	Uart   *UartSettings
	Led    *Led
	Sensor *Sensor

	// Rpio switches the pin backend from the simulated one to real
	// Raspberry Pi pins.
	Rpio bool

	SlaveAddr  string
	SlaveToken string
	MqttBroker string
	Influx     *InfluxRecorder

	HkPin       string
	HkDirectory string
	HkAddress   string
	HkDebug     bool

	gpio       *hal.GpioController
	uart       *hal.Uart
	slave      *HalSlave
	mqttClient *mqtt.MqttClient
	ticker     *time.Ticker
	logger     *log.Logger
}

// InitPeripherals builds the GPIO controller and initializes every
// configured peripheral, in dependency order (LED needs the controller).
func (kit *HalKit) InitPeripherals(ctx context.Context) error {
	kit.logger = log.NewWithOptions(os.Stderr, log.Options{
		Prefix: kit.prefix(),
		Level:  log.GetLevel(),
	})

	var backend hal.PinBackend
	if kit.Rpio {
		backend = &hal.RpioIO{}
	}
	kit.gpio = hal.NewGpioController(backend)

	if kit.Uart != nil {
		var transport hal.Transport
		if len(kit.Uart.Device) > 0 {
			transport = &hal.SerialPort{Device: kit.Uart.Device}
		}
		kit.uart = hal.NewUart(transport)
		if err := kit.uart.Init(&kit.Uart.Config); err != nil {
			return errors.Wrap(err, "failed to init uart")
		}
	}

	if kit.Led != nil {
		if err := kit.Led.Init(kit.gpio); err != nil {
			return errors.Wrap(err, "failed to init led")
		}
	}

	if kit.Sensor != nil {
		if err := kit.Sensor.Init(); err != nil {
			return errors.Wrap(err, "failed to init sensor")
		}
	}

	if kit.Influx != nil {
		if err := kit.Influx.Setup(); err != nil {
			return errors.Wrap(err, "failed to setup influx recorder")
		}
	}

	return nil
}

// Gpio exposes the pin controller for callers composing their own devices.
func (kit *HalKit) Gpio() *hal.GpioController {
	return kit.gpio
}

// UartPort exposes the serial channel, nil when not configured.
func (kit *HalKit) UartPort() *hal.Uart {
	return kit.uart
}

// StartTicker runs the periodic peripheral sync until the ticker is
// stopped. Each tick reads the sensor when armed, reports the sample and
// toggles the LED as a heartbeat.
func (kit *HalKit) StartTicker(interval time.Duration) {
	kit.ticker = time.NewTicker(interval)

	for range kit.ticker.C {
		kit.syncPeripherals()
	}
}

func (kit *HalKit) syncPeripherals() {
	if kit.Sensor == nil || !kit.Sensor.IsReady() {
		return
	}

	var reading Reading
	if err := kit.Sensor.Read(&reading); err != nil {
		kit.logger.Error("sensor read failed", "err", err)
		return
	}
	kit.logger.Info("sensor reading",
		"temperature", fmt.Sprintf("%.2f", reading.TemperatureCelsius),
		"humidity", fmt.Sprintf("%.1f", reading.HumidityPercent))

	if kit.uart != nil {
		_, err := kit.uart.Printf("%.2f C, %.1f%% RH\n", reading.TemperatureCelsius, reading.HumidityPercent)
		if err != nil {
			kit.logger.Error("uart report failed", "err", err)
		}
	}

	if kit.mqttClient != nil {
		payload, err := json.Marshal(reading)
		if err == nil {
			err = kit.mqttClient.Publish(kit.prefix()+"/sensor/reading", payload)
		}
		if err != nil {
			kit.logger.Error("mqtt publish failed", "err", err)
		}
	}

	if kit.Influx != nil && kit.Influx.IsReady() {
		if err := kit.Influx.Record(reading); err != nil {
			kit.logger.Error("influx record failed", "err", err)
		}
	}

	if kit.Led != nil {
		if err := kit.Led.Toggle(); err != nil {
			kit.logger.Error("led heartbeat failed", "err", err)
		}
	}
}

// PrintStatus writes a human readable peripheral summary.
func (kit *HalKit) PrintStatus(writer io.Writer) {
	fmt.Fprintln(writer)
	fmt.Fprintln(writer, "=== peripheral status ===")
	fmt.Fprintln(writer, "________")

	if kit.uart != nil {
		if cfg := kit.uart.Config(); cfg != nil {
			fmt.Fprintf(writer, "| uart: %d baud, parity %d, %d data bits, %d stop bits\n",
				cfg.Baudrate, cfg.Parity, cfg.DataBits, cfg.StopBits)
		} else {
			fmt.Fprintln(writer, "| uart: not initialized")
		}
	}
	if kit.Led != nil {
		fmt.Fprintf(writer, "| led: pin %d, state %s\n", kit.Led.Pin, kit.Led.GetState())
	}
	if kit.Sensor != nil {
		fmt.Fprintf(writer, "| sensor: ready %v, calibrated %v\n", kit.Sensor.IsReady(), kit.Sensor.Calibrated())
	}
	if kit.gpio != nil {
		fmt.Fprintf(writer, "| gpio pins: ")
		for _, pin := range kit.gpio.ActivePins() {
			fmt.Fprintf(writer, "%d, ", pin)
		}
		fmt.Fprintln(writer)
	}

	fmt.Fprintln(writer, "--------")
	fmt.Fprintln(writer)
}

// Close tears every peripheral down. It keeps going after individual
// failures and reports the first error encountered.
func (kit *HalKit) Close() (err error) {
	if kit.ticker != nil {
		kit.ticker.Stop()
	}

	if kit.Led != nil {
		err = collectErr(err, kit.Led.Deinit())
	}
	if kit.Sensor != nil {
		kit.Sensor.Stop()
		kit.Sensor.Deinit()
	}
	if kit.uart != nil {
		err = collectErr(err, kit.uart.Deinit())
	}
	if kit.gpio != nil {
		err = collectErr(err, kit.gpio.Close())
	}
	if kit.slave != nil {
		err = collectErr(err, kit.slave.Close())
	}

	return
}

// StartSlave exposes status and LED control over HTTP.
func (kit *HalKit) StartSlave() error {
	if len(kit.SlaveAddr) == 0 {
		return errors.New("slave address not set")
	}

	kit.slave = &HalSlave{
		Token:    kit.SlaveToken,
		HttpAddr: kit.SlaveAddr,
		kit:      kit,
	}
	return kit.slave.Setup()
}

// InitMqtt connects to the configured broker; the LED subscribes to its
// control topic, sensor readings go out from the ticker.
func (kit *HalKit) InitMqtt() (err error) {
	if len(kit.MqttBroker) == 0 {
		err = errors.New("mqtt broker not set")
		return
	}

	mc, err := mqtt.NewMqttClient(kit.MqttBroker, kit.prefix())
	if err != nil {
		err = errors.Wrap(err, "failed to create mqtt client")
		return
	}

	kit.mqttClient = mc

	mqttHandlers := []mqtt.MqttHandler{}
	if kit.Led != nil {
		mqttHandlers = append(mqttHandlers, &ledMqttHandler{
			led:   kit.Led,
			topic: kit.prefix() + "/led/set",
		})
	}

	err = mc.Connect(mqttHandlers)
	if err != nil {
		err = errors.Wrap(err, "failed to connect to mqtt broker")
	}

	return
}

// StartHomeKit bridges the LED and sensor as HomeKit accessories.
func (kit *HalKit) StartHomeKit(ctx context.Context, firmwareVersion string) error {
	hkName := kit.Name
	if len(hkName) < 1 {
		hkName = homeKitBridgeName
	}
	bridge := accessory.NewBridge(accessory.Info{
		Name:         hkName,
		Manufacturer: homeKitBridgeAuthor,
		Firmware:     firmwareVersion,
	})

	accs := []*accessory.A{}
	if kit.Led != nil {
		a := kit.Led.GetHk()
		a.Id = kit.Led.GetUniqueId()
		accs = append(accs, a)
	}
	if kit.Sensor != nil {
		a := kit.Sensor.GetHk()
		a.Id = kit.Sensor.GetUniqueId()
		accs = append(accs, a)
	}

	var store hap.Store
	if len(kit.HkDirectory) > 1 {
		store = hap.NewFsStore(kit.HkDirectory)
	} else {
		store = hap.NewFsStore(defaultHomeKitDirectory)
	}
	hkServer, err := hap.NewServer(store, bridge.A, accs...)
	if err != nil {
		return errors.Wrap(err, "failed to create HomeKit server")
	}
	hkServer.Pin = kit.HkPin
	if len(kit.HkAddress) > 0 {
		hkServer.Addr = kit.HkAddress
	}

	if kit.HkDebug {
		hklog.Debug.Enable()
		dnslog.Debug.Enable()
	}

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)
	signal.Notify(c, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(ctx)
	go func() {
		<-c
		// Stop delivering signals.
		signal.Stop(c)
		// Cancel the context to stop the server.
		cancel()
	}()

	return hkServer.ListenAndServe(ctx)
}

func (kit *HalKit) prefix() string {
	if len(kit.Name) > 0 {
		return kit.Name
	}
	return "halkit"
}

func collectErr(err, next error) error {
	if next == nil {
		return err
	}
	if err == nil {
		return next
	}
	return errors.Wrap(err, next.Error())
}

type ledMqttHandler struct {
	led   *Led
	topic string
}

func (lh *ledMqttHandler) MqttSubscribeTopic() string {
	return lh.topic
}

func (lh *ledMqttHandler) MqttHandle(pub *paho.Publish) {
	switch string(pub.Payload) {
	case "on":
		_ = lh.led.SetState(LedOn)
	case "off":
		_ = lh.led.SetState(LedOff)
	case "toggle":
		_ = lh.led.Toggle()
	}
}
