package main

import (
	"flag"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/lcasale/esp-lionel/pkg/config"
	"github.com/lcasale/esp-lionel/pkg/engine"
	"github.com/lcasale/esp-lionel/pkg/serialport"
)

const usage = `tmcc-cab - TMCC1 command cab

Usage:
  tmcc-cab [flags] <command> [args]
  tmcc-cab [flags] -interactive

Commands:
  speed <n>, horn, bell, halt, test-pattern, raw <hex>, momentum <m>, ...
  ports      List serial ports
  bridges    List serial bridges on the network

Run with -interactive and type 'help' for the full command list.

Flags:
`

// Flags holds the command line. Flags left unset do not override the
// config file.
type Flags struct {
	ConfigFile  string
	Port        string
	Baud        int
	Bridge      string
	Discover    bool
	Engine      string
	Address     uint
	MaxSpeed    uint
	NoFlush     bool
	ProtocolLog string
	MetricsAddr string
	LogLevel    string
	Interactive bool

	// Args are the positional arguments: the one-shot command.
	Args []string

	set map[string]bool
}

func parseFlags(fs *flag.FlagSet, args []string) (*Flags, error) {
	f := &Flags{}
	fs.StringVar(&f.ConfigFile, "config", "", "Configuration file path")
	fs.StringVar(&f.Port, "port", "", "Serial device of the command base")
	fs.IntVar(&f.Baud, "baud", serialport.DefaultBaudRate, "Serial line speed")
	fs.StringVar(&f.Bridge, "bridge", "", "host:port of a TCP serial bridge")
	fs.BoolVar(&f.Discover, "discover", false, "Find a serial bridge over mDNS")
	fs.StringVar(&f.Engine, "engine", "", "Configured engine to drive")
	fs.UintVar(&f.Address, "address", engine.DefaultAddress, "Engine address (0-127)")
	fs.UintVar(&f.MaxSpeed, "max-speed", engine.DefaultMaxSpeed, "Engine speed limit (1-31)")
	fs.BoolVar(&f.NoFlush, "no-flush", false, "Do not flush the sink after each command")
	fs.StringVar(&f.ProtocolLog, "protocol-log", "", "Write a .tlog capture file")
	fs.StringVar(&f.MetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address")
	fs.StringVar(&f.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	fs.BoolVar(&f.Interactive, "interactive", false, "Start the interactive shell")
	fs.Usage = func() {
		fmt.Fprint(fs.Output(), usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	f.Args = fs.Args()
	f.set = make(map[string]bool)
	fs.Visit(func(fl *flag.Flag) { f.set[fl.Name] = true })
	return f, nil
}

// Apply overlays explicitly set flags on cfg. A sink flag replaces any sink
// chosen by the file. -address and -max-speed apply to the driven engine.
func (f *Flags) Apply(cfg config.Config) config.Config {
	if f.set["port"] || f.set["bridge"] || f.set["discover"] {
		cfg.Port, cfg.Bridge, cfg.Discover = "", "", false
	}
	if f.set["port"] {
		cfg.Port = f.Port
	}
	if f.set["bridge"] {
		cfg.Bridge = f.Bridge
	}
	if f.set["discover"] {
		cfg.Discover = f.Discover
	}
	if f.set["baud"] {
		cfg.Baud = f.Baud
	}
	if f.set["no-flush"] {
		cfg.Flush = !f.NoFlush
	}
	if f.set["protocol-log"] {
		cfg.ProtocolLog = f.ProtocolLog
	}
	if f.set["metrics-addr"] {
		cfg.MetricsAddr = f.MetricsAddr
	}
	if f.set["log-level"] {
		cfg.LogLevel = f.LogLevel
	}

	if !f.set["address"] && !f.set["max-speed"] {
		return cfg
	}

	engines := append([]config.EngineConfig(nil), cfg.Engines...)
	idx := 0
	if len(engines) == 0 {
		engines = []config.EngineConfig{{Address: engine.DefaultAddress, MaxSpeed: engine.DefaultMaxSpeed}}
	} else if f.Engine != "" {
		for i, e := range engines {
			if e.Name != "" && strings.EqualFold(e.Name, f.Engine) {
				idx = i
				break
			}
		}
	}
	if f.set["address"] {
		engines[idx].Address = f.Address
	}
	if f.set["max-speed"] {
		engines[idx].MaxSpeed = f.MaxSpeed
	}
	cfg.Engines = engines
	return cfg
}

// logOutput lets the shell take over stderr logging once the prompt is up.
type logOutput struct {
	mu sync.Mutex
	w  io.Writer
}

func (o *logOutput) Write(p []byte) (int, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.w.Write(p)
}

// Set swaps the destination.
func (o *logOutput) Set(w io.Writer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.w = w
}

var _ io.Writer = (*logOutput)(nil)
