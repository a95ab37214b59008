package serialport

import (
	"errors"
	"fmt"
	"strings"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// DefaultBaudRate is the command base line speed.
const DefaultBaudRate = 9600

// Errors returned by this package.
var (
	// ErrNoPortName indicates Open was called without a device path.
	ErrNoPortName = errors.New("serialport: no port name")

	// ErrInvalidMode indicates an unsupported line setting.
	ErrInvalidMode = errors.New("serialport: invalid mode")

	// ErrClosed indicates the port was already closed.
	ErrClosed = errors.New("serialport: port closed")
)

// Config describes the serial line.
type Config struct {
	// Name is the device path, e.g. /dev/ttyUSB0 or COM3.
	Name string `yaml:"name"`

	// BaudRate defaults to 9600.
	BaudRate int `yaml:"baud"`

	// DataBits defaults to 8.
	DataBits int `yaml:"data_bits"`

	// Parity is "none", "odd" or "even". Empty means none.
	Parity string `yaml:"parity"`

	// StopBits is 1 or 2. Zero means 1.
	StopBits int `yaml:"stop_bits"`
}

// DefaultConfig returns 9600 8N1 for the named device.
func DefaultConfig(name string) Config {
	return Config{
		Name:     name,
		BaudRate: DefaultBaudRate,
		DataBits: 8,
		Parity:   "none",
		StopBits: 1,
	}
}

// Mode converts the config to a driver mode, filling defaults.
func (c Config) Mode() (*serial.Mode, error) {
	mode := &serial.Mode{
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if mode.BaudRate == 0 {
		mode.BaudRate = DefaultBaudRate
	}
	if mode.BaudRate < 0 {
		return nil, fmt.Errorf("%w: baud rate %d", ErrInvalidMode, c.BaudRate)
	}
	if mode.DataBits == 0 {
		mode.DataBits = 8
	}
	if mode.DataBits < 5 || mode.DataBits > 8 {
		return nil, fmt.Errorf("%w: data bits %d", ErrInvalidMode, c.DataBits)
	}

	switch strings.ToLower(c.Parity) {
	case "", "none", "n":
	case "odd", "o":
		mode.Parity = serial.OddParity
	case "even", "e":
		mode.Parity = serial.EvenParity
	default:
		return nil, fmt.Errorf("%w: parity %q", ErrInvalidMode, c.Parity)
	}

	switch c.StopBits {
	case 0, 1:
	case 2:
		mode.StopBits = serial.TwoStopBits
	default:
		return nil, fmt.Errorf("%w: stop bits %d", ErrInvalidMode, c.StopBits)
	}
	return mode, nil
}

// port is the subset of serial.Port a Port uses.
type port interface {
	Write(p []byte) (int, error)
	Drain() error
	Close() error
}

// Port is an open serial line.
type Port struct {
	name   string
	mode   serial.Mode
	p      port
	closed bool
}

// openFunc opens the OS device. Replaced in tests.
var openFunc = func(name string, mode *serial.Mode) (port, error) {
	return serial.Open(name, mode)
}

// Open opens the device described by cfg.
func Open(cfg Config) (*Port, error) {
	if cfg.Name == "" {
		return nil, ErrNoPortName
	}
	mode, err := cfg.Mode()
	if err != nil {
		return nil, err
	}
	p, err := openFunc(cfg.Name, mode)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.Name, err)
	}
	return &Port{name: cfg.Name, mode: *mode, p: p}, nil
}

// Write writes p to the driver.
func (p *Port) Write(b []byte) (int, error) {
	if p.closed {
		return 0, ErrClosed
	}
	return p.p.Write(b)
}

// Flush waits until every written byte has left the UART.
func (p *Port) Flush() error {
	if p.closed {
		return ErrClosed
	}
	return p.p.Drain()
}

// Close closes the device. Safe to call more than once.
func (p *Port) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	return p.p.Close()
}

// Name returns the device path.
func (p *Port) Name() string {
	return p.name
}

// String describes the port, e.g. "/dev/ttyUSB0@9600".
func (p *Port) String() string {
	return fmt.Sprintf("%s@%d", p.name, p.mode.BaudRate)
}

// Info describes a serial device found on the host.
type Info struct {
	Name         string
	USB          bool
	VID          string
	PID          string
	SerialNumber string
	Product      string
}

// String formats the device for listings.
func (i Info) String() string {
	if !i.USB {
		return i.Name
	}
	s := fmt.Sprintf("%s  usb %s:%s", i.Name, i.VID, i.PID)
	if i.Product != "" {
		s += "  " + i.Product
	}
	if i.SerialNumber != "" {
		s += "  sn=" + i.SerialNumber
	}
	return s
}

// ListPorts returns the serial devices present on the host. USB details
// are filled in where the platform can report them.
func ListPorts() ([]Info, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err == nil {
		infos := make([]Info, 0, len(details))
		for _, d := range details {
			infos = append(infos, Info{
				Name:         d.Name,
				USB:          d.IsUSB,
				VID:          d.VID,
				PID:          d.PID,
				SerialNumber: d.SerialNumber,
				Product:      d.Product,
			})
		}
		return infos, nil
	}

	names, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("list ports: %w", err)
	}
	infos := make([]Info, 0, len(names))
	for _, n := range names {
		infos = append(infos, Info{Name: n})
	}
	return infos, nil
}
