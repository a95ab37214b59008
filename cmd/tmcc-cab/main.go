// Command tmcc-cab drives Lionel TMCC1 locomotives through a command base.
//
// The command base is reached either over a local serial port or through a
// TCP serial bridge (ser2net, ESP-Link), which can be found over mDNS.
//
// Usage:
//
//	tmcc-cab [flags] <command> [args]
//	tmcc-cab [flags] -interactive
//
// Flags:
//
//	-config string        Configuration file path
//	-port string          Serial device of the command base
//	-baud int             Serial line speed (default 9600)
//	-bridge string        host:port of a TCP serial bridge
//	-discover             Find a bridge over mDNS
//	-engine string        Configured engine to drive
//	-address uint         Engine address (0-127)
//	-max-speed uint       Engine speed limit (1-31)
//	-no-flush             Do not flush the sink after each command
//	-protocol-log string  Write a .tlog capture file
//	-metrics-addr string  Serve Prometheus metrics, e.g. :2112
//	-log-level string     Log level: debug, info, warn, error (default "info")
//	-interactive          Start the interactive shell
//
// Examples:
//
//	# Set engine 5 to speed 10
//	tmcc-cab -port /dev/ttyUSB0 -address 5 speed 10
//
//	# Blow the horn through a bridge found on the network
//	tmcc-cab -discover horn
//
//	# Stop everything
//	tmcc-cab -config layout.yaml halt
//
//	# Interactive cab with a capture file
//	tmcc-cab -config layout.yaml -protocol-log session.tlog -interactive
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/lcasale/esp-lionel/cmd/tmcc-cab/interactive"
	"github.com/lcasale/esp-lionel/pkg/config"
	"github.com/lcasale/esp-lionel/pkg/discovery"
	"github.com/lcasale/esp-lionel/pkg/engine"
	"github.com/lcasale/esp-lionel/pkg/log"
	"github.com/lcasale/esp-lionel/pkg/serialport"
	"github.com/lcasale/esp-lionel/pkg/transport"
)

func main() {
	flags, err := parseFlags(flag.CommandLine, os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if err := run(flags); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(flags *Flags) error {
	cfg := config.Default()
	if flags.ConfigFile != "" {
		loaded, err := config.Load(flags.ConfigFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	cfg = flags.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	level, _ := config.ParseLevel(cfg.LogLevel)
	out := &logOutput{w: os.Stderr}
	logger := slog.New(slog.NewTextHandler(out, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	args := flags.Args
	if !flags.Interactive && len(args) == 0 {
		flag.Usage()
		return errors.New("no command given")
	}

	// Commands that need no command base.
	if len(args) > 0 {
		switch args[0] {
		case "ports":
			return listPorts(os.Stdout)
		case "bridges":
			return listBridges(os.Stdout)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events, err := newCapture(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer events.Close()

	txCfg := transport.DefaultConfig()
	txCfg.Flush = cfg.Flush
	txCfg.ProtocolLogger = events.Logger()
	txCfg.Logger = logger
	tx := transport.NewTransmitter(txCfg)

	sink, closeSink, err := openSink(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeSink()
	if sink != nil {
		if err := tx.SetSink(sink); err != nil {
			return err
		}
	} else {
		logger.Warn("no port, bridge or discovery configured; commands will not be sent")
	}

	engines, err := buildEngines(tx, cfg, flags.Engine, events.Logger(), logger)
	if err != nil {
		return err
	}
	cab := interactive.New(tx, engines, os.Stdout)

	if !flags.Interactive {
		return cab.Exec(args)
	}

	shell, err := interactive.NewShell(cab)
	if err != nil {
		return err
	}
	// Keep log lines from tearing the prompt.
	out.Set(shell.Stdout())
	go shell.Run(ctx, cancel)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("received signal", "signal", sig)
	case <-ctx.Done():
	}

	s := tx.Stats()
	logger.Info("session finished", "session", tx.SessionID(), "writes", s.Writes, "frames", s.Frames, "bytes", s.Bytes, "errors", s.Errors)
	return nil
}

// openSink opens the configured command base connection. It returns a nil
// sink when none is configured.
func openSink(ctx context.Context, cfg config.Config, logger *slog.Logger) (transport.Sink, func(), error) {
	noop := func() {}

	switch {
	case cfg.Port != "":
		p, err := serialport.Open(cfg.Serial())
		if err != nil {
			return nil, noop, err
		}
		logger.Info("serial port open", "port", p)
		return p, func() { _ = p.Close() }, nil

	case cfg.Bridge != "":
		return dialBridge(ctx, cfg.Bridge, logger)

	case cfg.Discover:
		logger.Info("browsing for bridges", "service", discovery.ServiceType)
		b, err := discovery.FindBridge(ctx, discovery.BrowseTimeout)
		if err != nil {
			return nil, noop, err
		}
		logger.Info("bridge found", "bridge", b)
		return dialBridge(ctx, b.Addr(), logger)
	}

	return nil, noop, nil
}

func dialBridge(ctx context.Context, addr string, logger *slog.Logger) (transport.Sink, func(), error) {
	dialCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	s, err := transport.DialNetSink(dialCtx, addr)
	if err != nil {
		return nil, func() {}, err
	}
	logger.Info("bridge connected", "bridge", s)
	return s, func() { _ = s.Close() }, nil
}

// buildEngines creates the configured engines, with the one named by
// selected first. Without configured engines a single default engine is
// created.
func buildEngines(tx *transport.Transmitter, cfg config.Config, selected string, capture log.Logger, logger *slog.Logger) ([]*engine.Engine, error) {
	configs := cfg.Engines
	if len(configs) == 0 {
		configs = []config.EngineConfig{{Address: engine.DefaultAddress, MaxSpeed: engine.DefaultMaxSpeed}}
	}

	if selected != "" {
		idx := slices.IndexFunc(configs, func(e config.EngineConfig) bool {
			return strings.EqualFold(e.Name, selected)
		})
		if idx < 0 {
			return nil, fmt.Errorf("no engine named %q in config", selected)
		}
		ordered := make([]config.EngineConfig, 0, len(configs))
		ordered = append(ordered, configs[idx])
		ordered = append(ordered, configs[:idx]...)
		configs = append(ordered, configs[idx+1:]...)
	}

	engines := make([]*engine.Engine, 0, len(configs))
	for _, ec := range configs {
		ecfg := ec.Engine()
		ecfg.ProtocolLogger = capture
		ecfg.Logger = logger
		ecfg.SessionID = tx.SessionID()
		engines = append(engines, engine.New(tx, ecfg))
	}
	return engines, nil
}

func listPorts(w io.Writer) error {
	ports, err := serialport.ListPorts()
	if err != nil {
		return err
	}
	if len(ports) == 0 {
		fmt.Fprintln(w, "No serial ports found")
		return nil
	}
	for _, p := range ports {
		fmt.Fprintln(w, p)
	}
	return nil
}

func listBridges(w io.Writer) error {
	ctx, cancel := context.WithTimeout(context.Background(), discovery.BrowseTimeout)
	defer cancel()

	bridges := discovery.NewMDNSBrowser(discovery.DefaultBrowserConfig()).FindAll(ctx)
	if len(bridges) == 0 {
		fmt.Fprintln(w, "No bridges found")
		return nil
	}
	for _, b := range bridges {
		fmt.Fprintln(w, b)
	}
	return nil
}
