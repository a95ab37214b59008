package discovery

import (
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// AdvertiserConfig configures advertiser behavior.
type AdvertiserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// TTL is the DNS record TTL.
	TTL time.Duration
}

// DefaultAdvertiserConfig returns the default advertiser configuration.
func DefaultAdvertiserConfig() AdvertiserConfig {
	return AdvertiserConfig{
		TTL: DefaultTTL,
	}
}

// registerFunc publishes a service and returns its shutdown.
type registerFunc func(instance string, port int, txt []string, ifaces []net.Interface, ttl time.Duration) (func(), error)

// MDNSAdvertiser announces a bridge with zeroconf.
type MDNSAdvertiser struct {
	config   AdvertiserConfig
	register registerFunc

	mu   sync.Mutex
	stop func()
}

// NewMDNSAdvertiser creates a new mDNS advertiser.
func NewMDNSAdvertiser(config AdvertiserConfig) *MDNSAdvertiser {
	return &MDNSAdvertiser{
		config:   config,
		register: zeroconfRegister,
	}
}

// Advertise starts announcing the bridge, replacing any earlier
// announcement.
func (a *MDNSAdvertiser) Advertise(info *BridgeInfo) error {
	if err := ValidateInstanceName(info.Instance); err != nil {
		return err
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	// Stop existing if any
	if a.stop != nil {
		a.stop()
		a.stop = nil
	}

	port := int(info.Port)
	if port == 0 {
		port = DefaultPort
	}

	txt := TXTRecordsToStrings(EncodeBridgeTXT(info))
	stop, err := a.register(info.Instance, port, txt, a.getInterfaces(), a.config.TTL)
	if err != nil {
		return fmt.Errorf("failed to register bridge service: %w", err)
	}
	a.stop = stop
	return nil
}

// Stop withdraws the announcement. Safe to call when not advertising.
func (a *MDNSAdvertiser) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stop != nil {
		a.stop()
		a.stop = nil
	}
}

// getInterfaces returns the network interfaces to use for advertising.
// Returns nil to use all interfaces.
func (a *MDNSAdvertiser) getInterfaces() []net.Interface {
	if a.config.Interface == "" {
		return nil
	}

	iface, err := net.InterfaceByName(a.config.Interface)
	if err != nil {
		return nil
	}
	return []net.Interface{*iface}
}

func zeroconfRegister(instance string, port int, txt []string, ifaces []net.Interface, ttl time.Duration) (func(), error) {
	var opts []zeroconf.ServerOption
	if ttl > 0 {
		opts = append(opts, zeroconf.TTL(uint32(ttl.Seconds())))
	}

	server, err := zeroconf.Register(instance, ServiceType, Domain, port, txt, ifaces, opts...)
	if err != nil {
		return nil, err
	}
	return func() { server.Shutdown() }, nil
}
