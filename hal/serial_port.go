package hal

import (
	"github.com/pkg/errors"
	"github.com/tarm/serial"
)

// SerialPort is a Transport over a real host serial device, for running the
// HAL against actual wiring instead of the loopback mock.
type SerialPort struct {
	Device string

	port *serial.Port
}

func (sp *SerialPort) Open(config Config) error {
	if len(sp.Device) == 0 {
		return errors.Wrap(ErrInvalidArgument, "serial: no device set")
	}

	cfg := &serial.Config{
		Name: sp.Device,
		Baud: int(config.Baudrate),
		Size: byte(config.DataBits),
	}
	switch config.Parity {
	case ParityEven:
		cfg.Parity = serial.ParityEven
	case ParityOdd:
		cfg.Parity = serial.ParityOdd
	default:
		cfg.Parity = serial.ParityNone
	}
	if config.StopBits == 2 {
		cfg.StopBits = serial.Stop2
	} else {
		cfg.StopBits = serial.Stop1
	}

	port, err := serial.OpenPort(cfg)
	if err != nil {
		return errors.Wrapf(err, "serial: failed to open %s", sp.Device)
	}
	sp.port = port
	return nil
}

func (sp *SerialPort) Write(p []byte) (int, error) {
	if sp.port == nil {
		return 0, errors.Wrap(ErrNotInitialized, "serial")
	}
	return sp.port.Write(p)
}

func (sp *SerialPort) Read(p []byte) (int, error) {
	if sp.port == nil {
		return 0, errors.Wrap(ErrNotInitialized, "serial")
	}
	return sp.port.Read(p)
}

func (sp *SerialPort) Close() error {
	if sp.port == nil {
		return nil
	}
	err := sp.port.Close()
	sp.port = nil
	return err
}
