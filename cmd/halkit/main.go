package main

import (
	"context"
	"encoding/json"
	"flag"
	"io"
	"log"
	"os"
	"time"

	"github.com/hubertat/servicemaker"

	"github.com/hubertat/halkit"
)

const defaultSyncInterval = "2s"

var (
	Version string
	Build   string

	config       = flag.String("config", "config.json", "path of the configuration file")
	flagInstall  = flag.Bool("install", false, "Install service in os")
	syncInterval = flag.String("sync", defaultSyncInterval, "sync interval (time.Duration)")

	halService = servicemaker.ServiceMaker{
		User:               "halkit",
		UserGroups:         []string{"gpio", "dialout"},
		ServicePath:        "/etc/systemd/system/halkit.service",
		ServiceDescription: "halkit service: simulated hardware abstraction layer. github.com/hubertat/halkit",
		ExecDir:            "/srv/halkit",
		ExecName:           "halkit",
	}
)

func main() {
	log.Printf("halkit %s started\n", Version)
	flag.Parse()

	if *flagInstall {
		err := halService.InstallService()
		if err != nil {
			panic(err)
		} else {
			log.Println("service installed!")
			return
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	syncDuration, err := time.ParseDuration(*syncInterval)
	if err != nil {
		panic(err)
	}

	kit := &halkit.HalKit{}
	configFile, err := os.Open(*config)
	if err == nil {
		cBuff, err := io.ReadAll(configFile)
		if err != nil {
			log.Fatalf("failed reading config file: %v\n", err)
		}

		err = json.Unmarshal(cBuff, kit)
		if err != nil {
			log.Fatalf("failed unmarshalling json config: %v", err)
		}
	} else {
		log.Fatalf("can't find/open config file (%s), will terminate. Reason: \n%v\n", *config, err)
	}

	log.Println("will init halkit peripherals...")
	err = kit.InitPeripherals(ctx)
	defer kit.Close()
	if err != nil {
		panic(err)
	}

	if kit.Sensor != nil {
		err = kit.Sensor.Start(halkit.SensorModeContinuous)
		if err != nil {
			panic(err)
		}
	}

	if len(kit.MqttBroker) > 0 {
		log.Println("will connect mqtt...")
		err = kit.InitMqtt()
		if err != nil {
			log.Printf("mqtt init returned error: %v\n we will proceed...", err)
		}
	}

	if len(kit.SlaveAddr) > 0 {
		log.Println("starting http slave on", kit.SlaveAddr)
		err = kit.StartSlave()
		if err != nil {
			panic(err)
		}
	}

	kit.PrintStatus(os.Stdout)

	if len(kit.HkPin) == 8 {
		log.Println("Starting with HomeKit server")

		go kit.StartTicker(syncDuration)
		log.Fatal(kit.StartHomeKit(ctx, Version))
	} else {
		log.Println("HomeKit not configured, disabled")
		kit.StartTicker(syncDuration)
	}

}
