package halkit

import (
	"context"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api"
	"github.com/pkg/errors"
)

const influxWriteTimeout = 2 * time.Second
const defaultInfluxMeasurement = "hal_sensor"

// InfluxRecorder pushes sensor readings into an Influx bucket.
type InfluxRecorder struct {
	Host         string
	Organization string
	Bucket       string
	Measurement  string
	Token        string

	Tags map[string]string

	writeApi api.WriteAPIBlocking
	ready    bool
}

func (ir *InfluxRecorder) Setup() error {
	if len(ir.Host) == 0 {
		return errors.New("influx recorder: host not set")
	}

	client := influxdb2.NewClient(ir.Host, ir.Token)
	ir.writeApi = client.WriteAPIBlocking(ir.Organization, ir.Bucket)
	ir.ready = true
	return nil
}

func (ir *InfluxRecorder) IsReady() bool {
	return ir.ready
}

func (ir *InfluxRecorder) Record(reading Reading) error {
	if !ir.ready {
		return errors.New("influx recorder not ready")
	}

	measurement := ir.Measurement
	if len(measurement) == 0 {
		measurement = defaultInfluxMeasurement
	}

	point := influxdb2.NewPoint(measurement, ir.Tags, map[string]interface{}{
		"temperature": reading.TemperatureCelsius,
		"humidity":    reading.HumidityPercent,
	}, time.Now())

	ctx, cancel := context.WithTimeout(context.Background(), influxWriteTimeout)
	defer cancel()

	if err := ir.writeApi.WritePoint(ctx, point); err != nil {
		return errors.Wrap(err, "influx recorder failed to write point")
	}
	return nil
}
