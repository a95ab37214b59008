// Command tmcc-bridge shares a command base's serial port over TCP and
// announces itself over mDNS, so tmcc-cab -discover can find it.
//
// Usage:
//
//	tmcc-bridge -port /dev/ttyUSB0 [flags]
//
// Flags:
//
//	-config string     Configuration file path (port and baud are read from it)
//	-port string       Serial device of the command base
//	-baud int          Serial line speed (default 9600)
//	-listen string     TCP listen address (default ":2000")
//	-name string       mDNS instance name (default "tmcc-<hostname>")
//	-interface string  Network interface to advertise on (default all)
//	-no-advertise      Do not announce over mDNS
//	-log-level string  Log level: debug, info, warn, error (default "info")
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/lcasale/esp-lionel/pkg/config"
	"github.com/lcasale/esp-lionel/pkg/discovery"
	"github.com/lcasale/esp-lionel/pkg/serialport"
)

var version = "dev"

// Config holds the bridge configuration.
type Config struct {
	ConfigFile  string
	Port        string
	Baud        int
	Listen      string
	Name        string
	Interface   string
	NoAdvertise bool
	LogLevel    string
}

func main() {
	var cfg Config
	flag.StringVar(&cfg.ConfigFile, "config", "", "Configuration file path")
	flag.StringVar(&cfg.Port, "port", "", "Serial device of the command base")
	flag.IntVar(&cfg.Baud, "baud", serialport.DefaultBaudRate, "Serial line speed")
	flag.StringVar(&cfg.Listen, "listen", fmt.Sprintf(":%d", discovery.DefaultPort), "TCP listen address")
	flag.StringVar(&cfg.Name, "name", "", "mDNS instance name (default tmcc-<hostname>)")
	flag.StringVar(&cfg.Interface, "interface", "", "Network interface to advertise on")
	flag.BoolVar(&cfg.NoAdvertise, "no-advertise", false, "Do not announce over mDNS")
	flag.StringVar(&cfg.LogLevel, "log-level", "info", "Log level: debug, info, warn, error")
	flag.Parse()

	if err := run(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(cfg Config) error {
	if cfg.ConfigFile != "" {
		file, err := config.Load(cfg.ConfigFile)
		if err != nil {
			return err
		}
		if cfg.Port == "" {
			cfg.Port = file.Port
		}
		if !isFlagSet("baud") {
			cfg.Baud = file.Baud
		}
	}
	if cfg.Port == "" {
		return serialport.ErrNoPortName
	}

	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	sc := serialport.DefaultConfig(cfg.Port)
	sc.BaudRate = cfg.Baud
	port, err := serialport.Open(sc)
	if err != nil {
		return err
	}
	defer port.Close()

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", cfg.Listen, err)
	}
	logger.Info("bridge listening", "addr", ln.Addr(), "port", port)

	if !cfg.NoAdvertise {
		adv := discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{
			Interface: cfg.Interface,
			TTL:       discovery.DefaultTTL,
		})
		info, err := bridgeInfo(cfg, ln.Addr())
		if err != nil {
			return err
		}
		if err := adv.Advertise(info); err != nil {
			return err
		}
		defer adv.Stop()
		logger.Info("advertising", "instance", info.Instance, "service", discovery.ServiceType)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return NewRelay(port, logger).Serve(ctx, ln)
}

// bridgeInfo builds the mDNS announcement for the listener.
func bridgeInfo(cfg Config, addr net.Addr) (*discovery.BridgeInfo, error) {
	name := cfg.Name
	if name == "" {
		host, err := os.Hostname()
		if err != nil {
			return nil, err
		}
		name = "tmcc-" + host
	}

	port := discovery.DefaultPort
	if tcp, ok := addr.(*net.TCPAddr); ok && tcp.Port != 0 {
		port = tcp.Port
	}

	return &discovery.BridgeInfo{
		Instance: name,
		Port:     uint16(port),
		Baud:     cfg.Baud,
		Model:    "tmcc-bridge",
		Firmware: version,
	}, nil
}

func isFlagSet(name string) bool {
	set := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == name {
			set = true
		}
	})
	return set
}

