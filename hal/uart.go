package hal

import (
	"fmt"
	"io"
	"sync"

	"github.com/pkg/errors"
)

type Baudrate uint32

const (
	Baud9600   Baudrate = 9600
	Baud19200  Baudrate = 19200
	Baud38400  Baudrate = 38400
	Baud57600  Baudrate = 57600
	Baud115200 Baudrate = 115200
)

type Parity uint8

const (
	ParityNone Parity = iota
	ParityEven
	ParityOdd
)

// Config carries the serial channel parameters.
type Config struct {
	Baudrate Baudrate `json:"baudrate"`
	Parity   Parity   `json:"parity"`
	DataBits uint8    `json:"data_bits"`
	StopBits uint8    `json:"stop_bits"`
}

// Transport moves bytes for a Uart. SimPort is the in-memory default,
// SerialPort opens a real host device.
type Transport interface {
	Open(config Config) error
	Write(p []byte) (int, error)
	Read(p []byte) (int, error)
	Close() error
}

// Uart is a single serial channel over a Transport. It is unusable before
// Init and again after Deinit; Init with a fresh config reopens it.
type Uart struct {
	mu        sync.Mutex
	transport Transport
	config    *Config
}

// NewUart wires a channel to the given transport, falling back to the
// simulated port when transport is nil.
func NewUart(transport Transport) *Uart {
	if transport == nil {
		transport = &SimPort{}
	}
	return &Uart{transport: transport}
}

func (u *Uart) Init(config *Config) error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if config == nil {
		return errors.Wrap(ErrInvalidArgument, "uart: nil config")
	}
	if err := u.transport.Open(*config); err != nil {
		return errors.Wrap(err, "uart: transport failed to open")
	}
	cfg := *config
	u.config = &cfg
	return nil
}

// Write pushes data through the transport and reports how many bytes were
// consumed. The simulated port always consumes the whole buffer.
func (u *Uart) Write(data []byte) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.write(data)
}

// Read fills buffer with incoming bytes, at most cap(buffer) of them.
func (u *Uart) Read(buffer []byte) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.config == nil {
		return 0, errors.Wrap(ErrNotInitialized, "uart")
	}
	if buffer == nil {
		return 0, errors.Wrap(ErrInvalidArgument, "uart: nil buffer")
	}
	n, err := u.transport.Read(buffer)
	if err != nil {
		return n, errors.Wrap(err, "uart: transport read failed")
	}
	return n, nil
}

// Printf formats on the caller side and forwards the bytes through Write.
// It reports the number of characters written.
func (u *Uart) Printf(format string, args ...interface{}) (int, error) {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.write([]byte(fmt.Sprintf(format, args...)))
}

// Deinit closes the transport and drops the configuration. Safe to call on
// an uninitialized channel.
func (u *Uart) Deinit() error {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.config == nil {
		return nil
	}
	u.config = nil
	if err := u.transport.Close(); err != nil {
		return errors.Wrap(err, "uart: transport close failed")
	}
	return nil
}

// Config returns a copy of the active configuration, nil when the channel
// is not initialized.
func (u *Uart) Config() *Config {
	u.mu.Lock()
	defer u.mu.Unlock()

	if u.config == nil {
		return nil
	}
	cfg := *u.config
	return &cfg
}

func (u *Uart) IsReady() bool {
	u.mu.Lock()
	defer u.mu.Unlock()

	return u.config != nil
}

func (u *Uart) write(data []byte) (int, error) {
	if u.config == nil {
		return 0, errors.Wrap(ErrNotInitialized, "uart")
	}
	if data == nil {
		return 0, errors.Wrap(ErrInvalidArgument, "uart: nil data")
	}
	n, err := u.transport.Write(data)
	if err != nil {
		return n, errors.Wrap(err, "uart: transport write failed")
	}
	return n, nil
}

const simPortSynthChunk = 16

// SimPort is the mock serial transport. Writes land in a loopback queue
// that subsequent reads drain; when the queue is empty a read synthesizes
// up to simPortSynthChunk counter bytes, so reads into a non-empty buffer
// always return data and stay deterministic.
type SimPort struct {
	mu      sync.Mutex
	pending []byte
	counter byte
	trace   io.Writer
}

func (sp *SimPort) Open(config Config) error {
	return nil
}

func (sp *SimPort) Write(p []byte) (int, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if sp.trace != nil {
		sp.trace.Write(p)
	}
	sp.pending = append(sp.pending, p...)
	return len(p), nil
}

func (sp *SimPort) Read(p []byte) (int, error) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	if len(p) == 0 {
		return 0, nil
	}
	if len(sp.pending) > 0 {
		n := copy(p, sp.pending)
		sp.pending = sp.pending[n:]
		return n, nil
	}
	n := simPortSynthChunk
	if n > len(p) {
		n = len(p)
	}
	for i := 0; i < n; i++ {
		p[i] = sp.counter
		sp.counter++
	}
	return n, nil
}

func (sp *SimPort) Close() error {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	sp.pending = nil
	return nil
}

// MonitorTraffic copies every outbound byte to writer.
func (sp *SimPort) MonitorTraffic(writer io.Writer) {
	sp.mu.Lock()
	defer sp.mu.Unlock()

	sp.trace = writer
}
