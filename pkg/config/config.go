// Package config loads the tmcc-cab YAML configuration.
//
// A minimal file names the serial device and one engine:
//
//	port: /dev/ttyUSB0
//	engines:
//	  - name: Hudson
//	    address: 1
//	    max_speed: 18
//
// Unlike the codec, which masks out-of-range values, the loader rejects
// them: a typo in a config file should fail loudly.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/lcasale/esp-lionel/pkg/engine"
	"github.com/lcasale/esp-lionel/pkg/serialport"
	"github.com/lcasale/esp-lionel/pkg/wire"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every validation error.
var ErrInvalidConfig = errors.New("invalid config")

// Config is the top-level configuration.
type Config struct {
	// Port is the serial device of the command base.
	Port string `yaml:"port"`

	// Baud is the serial line speed.
	Baud int `yaml:"baud"`

	// Bridge is a host:port of a TCP serial bridge, used instead of Port.
	Bridge string `yaml:"bridge"`

	// Discover finds a bridge over mDNS when neither Port nor Bridge is set.
	Discover bool `yaml:"discover"`

	// Flush drains the sink after every command.
	Flush bool `yaml:"flush"`

	// ProtocolLog is a .tlog capture file. Empty disables capture.
	ProtocolLog string `yaml:"protocol_log"`

	// MetricsAddr serves Prometheus metrics when set, e.g. ":2112".
	MetricsAddr string `yaml:"metrics_addr"`

	// LogLevel is debug, info, warn or error.
	LogLevel string `yaml:"log_level"`

	// Engines lists the locomotives on the layout.
	Engines []EngineConfig `yaml:"engines"`
}

// EngineConfig describes one locomotive.
type EngineConfig struct {
	Name     string `yaml:"name"`
	Address  uint   `yaml:"address"`
	MaxSpeed uint   `yaml:"max_speed"`
}

// UnmarshalYAML fills engine defaults for omitted keys.
func (e *EngineConfig) UnmarshalYAML(value *yaml.Node) error {
	type plain EngineConfig
	p := plain{Address: engine.DefaultAddress, MaxSpeed: engine.DefaultMaxSpeed}
	if err := value.Decode(&p); err != nil {
		return err
	}
	*e = EngineConfig(p)
	return nil
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		Baud:     serialport.DefaultBaudRate,
		Flush:    true,
		LogLevel: "info",
	}
}

// Load reads and validates a YAML file.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over Default and validates the result. Unknown keys
// are an error.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks ranges and mutually exclusive settings.
func (c Config) Validate() error {
	sinks := 0
	for _, set := range []bool{c.Port != "", c.Bridge != "", c.Discover} {
		if set {
			sinks++
		}
	}
	if sinks > 1 {
		return fmt.Errorf("%w: port, bridge and discover are mutually exclusive", ErrInvalidConfig)
	}
	if c.Baud <= 0 {
		return fmt.Errorf("%w: baud must be positive, got %d", ErrInvalidConfig, c.Baud)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	seen := make(map[string]bool, len(c.Engines))
	for i, e := range c.Engines {
		if e.Address > 0x7F {
			return fmt.Errorf("%w: engines[%d]: address %d out of range 0..127", ErrInvalidConfig, i, e.Address)
		}
		if e.MaxSpeed < 1 || e.MaxSpeed > wire.MaxSpeed {
			return fmt.Errorf("%w: engines[%d]: max_speed %d out of range 1..%d", ErrInvalidConfig, i, e.MaxSpeed, wire.MaxSpeed)
		}
		if e.Name != "" {
			key := strings.ToLower(e.Name)
			if seen[key] {
				return fmt.Errorf("%w: duplicate engine name %q", ErrInvalidConfig, e.Name)
			}
			seen[key] = true
		}
	}
	return nil
}

// Serial returns the serial line settings.
func (c Config) Serial() serialport.Config {
	sc := serialport.DefaultConfig(c.Port)
	sc.BaudRate = c.Baud
	return sc
}

// Engine finds an engine by name (case-insensitive).
func (c Config) Engine(name string) (EngineConfig, bool) {
	for _, e := range c.Engines {
		if strings.EqualFold(e.Name, name) {
			return e, true
		}
	}
	return EngineConfig{}, false
}

// Engine converts to engine settings.
func (e EngineConfig) Engine() engine.Config {
	cfg := engine.DefaultConfig()
	cfg.Name = e.Name
	cfg.Address = e.Address
	cfg.MaxSpeed = e.MaxSpeed
	return cfg
}
