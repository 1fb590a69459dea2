package main

import (
	"context"
	"log"
	"os"

	"github.com/hubertat/halkit"
	"github.com/hubertat/halkit/hal"
)

var (
	Version string
	Build   string
)

func main() {
	log.Println("halkit demo started")
	log.Println("simulated instance for host runs, no hardware required")

	kit := &halkit.HalKit{
		Name: "demo",
		Uart: &halkit.UartSettings{
			Config: hal.Config{
				Baudrate: hal.Baud115200,
				Parity:   hal.ParityNone,
				DataBits: 8,
				StopBits: 1,
			},
		},
		Led:    &halkit.Led{Name: "demo led", Pin: halkit.DefaultLedPin, BlinkIntervalMs: 50},
		Sensor: &halkit.Sensor{Name: "env", Seed: 42},
	}

	log.Println("will init halkit peripherals...")
	err := kit.InitPeripherals(context.Background())
	defer kit.Close()
	if err != nil {
		panic(err)
	}

	kit.PrintStatus(os.Stdout)

	err = kit.Sensor.Start(halkit.SensorModeContinuous)
	if err != nil {
		panic(err)
	}

	for i := 0; i < 3; i++ {
		var reading halkit.Reading
		err = kit.Sensor.Read(&reading)
		if err != nil {
			log.Printf("sensor read returned error: %v\n", err)
			continue
		}
		_, err = kit.UartPort().Printf("Reading %d: %.2f C, %.1f%% RH\n",
			i+1, reading.TemperatureCelsius, reading.HumidityPercent)
		if err != nil {
			log.Printf("uart printf returned error: %v\n", err)
		}
		err = kit.Led.Toggle()
		if err != nil {
			log.Printf("led toggle returned error: %v\n", err)
		}
	}

	// the simulated port loops writes back, show what the firmware printed
	buffer := make([]byte, 256)
	n, err := kit.UartPort().Read(buffer)
	if err == nil {
		log.Printf("uart captured %d bytes:\n%s", n, buffer[:n])
	}

	err = kit.Led.Blink(3)
	if err != nil {
		panic(err)
	}

	kit.Sensor.Stop()
	kit.PrintStatus(os.Stdout)
}
