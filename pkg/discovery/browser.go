package discovery

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/enbility/zeroconf/v3"
)

// BrowserConfig configures browser behavior.
type BrowserConfig struct {
	// Interface specifies which network interface to use.
	// Empty string means all interfaces.
	Interface string

	// Timeout bounds FindBridge when the context has no deadline.
	// Default: 5 seconds.
	Timeout time.Duration
}

// DefaultBrowserConfig returns the default browser configuration.
func DefaultBrowserConfig() BrowserConfig {
	return BrowserConfig{
		Timeout: BrowseTimeout,
	}
}

// sighting is one mDNS answer, reduced to what a Bridge needs.
type sighting struct {
	Instance string
	Host     string
	Port     int
	Text     []string
	IPs      []net.IP
}

func sightingFromEntry(entry *zeroconf.ServiceEntry) sighting {
	ips := make([]net.IP, 0, len(entry.AddrIPv4)+len(entry.AddrIPv6))
	ips = append(ips, entry.AddrIPv4...)
	ips = append(ips, entry.AddrIPv6...)
	return sighting{
		Instance: entry.Instance,
		Host:     entry.HostName,
		Port:     entry.Port,
		Text:     entry.Text,
		IPs:      ips,
	}
}

// browseFunc streams sightings until ctx is done.
type browseFunc func(ctx context.Context, added, removed chan<- sighting) error

// MDNSBrowser finds bridges with zeroconf.
type MDNSBrowser struct {
	config BrowserConfig
	browse browseFunc
}

// NewMDNSBrowser creates a new mDNS browser.
func NewMDNSBrowser(config BrowserConfig) *MDNSBrowser {
	b := &MDNSBrowser{config: config}
	b.browse = b.zeroconfBrowse
	return b
}

// Browse reports each bridge once, when it is first seen. Addresses from
// several interfaces are merged by instance name. The channel is closed
// when ctx is done.
func (b *MDNSBrowser) Browse(ctx context.Context) <-chan Bridge {
	out := make(chan Bridge)
	added := make(chan sighting)
	removed := make(chan sighting)

	go func() {
		defer close(out)
		aggregate(ctx, added, removed, out)
	}()

	go func() {
		_ = b.browse(ctx, added, removed)
	}()

	return out
}

// FindBridge returns the first bridge that answers. Without a deadline on
// ctx it waits at most the configured timeout.
func (b *MDNSBrowser) FindBridge(ctx context.Context) (Bridge, error) {
	if _, ok := ctx.Deadline(); !ok && b.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.config.Timeout)
		defer cancel()
	}

	// Stop browsing once we have an answer.
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	select {
	case br, ok := <-b.Browse(ctx):
		if ok {
			return br, nil
		}
	case <-ctx.Done():
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return Bridge{}, ctx.Err()
	}
	return Bridge{}, ErrNotFound
}

// FindAll collects every bridge seen until ctx is done.
// Returns an empty slice, not an error, when none answered.
func (b *MDNSBrowser) FindAll(ctx context.Context) []Bridge {
	var bridges []Bridge
	for br := range b.Browse(ctx) {
		bridges = append(bridges, br)
	}
	if bridges == nil {
		bridges = []Bridge{}
	}
	return bridges
}

// FindBridge browses all interfaces for up to timeout and returns the
// first bridge found.
func FindBridge(ctx context.Context, timeout time.Duration) (Bridge, error) {
	cfg := DefaultBrowserConfig()
	cfg.Timeout = timeout
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return NewMDNSBrowser(cfg).FindBridge(ctx)
}

func (b *MDNSBrowser) zeroconfBrowse(ctx context.Context, added, removed chan<- sighting) error {
	entries := make(chan *zeroconf.ServiceEntry)
	gone := make(chan *zeroconf.ServiceEntry)

	go func() {
		for {
			select {
			case entry, ok := <-entries:
				if !ok {
					return
				}
				select {
				case added <- sightingFromEntry(entry):
				case <-ctx.Done():
					return
				}
			case entry, ok := <-gone:
				if !ok {
					gone = nil
					continue
				}
				select {
				case removed <- sightingFromEntry(entry):
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return zeroconf.Browse(ctx, ServiceType, Domain, entries, gone, b.browserOptions()...)
}

// browserOptions returns zeroconf client options based on config.
func (b *MDNSBrowser) browserOptions() []zeroconf.ClientOption {
	var opts []zeroconf.ClientOption

	// Select specific interface if configured
	if b.config.Interface != "" {
		iface, err := net.InterfaceByName(b.config.Interface)
		if err == nil {
			opts = append(opts, zeroconf.SelectIfaces([]net.Interface{*iface}))
		}
	}

	return opts
}

// aggregate merges sightings by instance name and emits new bridges.
func aggregate(ctx context.Context, added, removed <-chan sighting, out chan<- Bridge) {
	bridges := make(map[string]*Bridge)

	for {
		select {
		case s := <-added:
			br, ok := bridgeFromSighting(s)
			if !ok {
				continue
			}
			if existing, found := bridges[br.Instance]; found {
				existing.Addresses = mergeAddresses(existing.Addresses, br.Addresses)
				continue
			}
			bridges[br.Instance] = &br
			emit := br
			emit.Addresses = append([]string(nil), br.Addresses...)
			select {
			case out <- emit:
			case <-ctx.Done():
				return
			}

		case s := <-removed:
			if existing, found := bridges[s.Instance]; found {
				existing.Addresses = removeAddresses(existing.Addresses, s.IPs)
				if len(existing.Addresses) == 0 {
					delete(bridges, s.Instance)
				}
			}

		case <-ctx.Done():
			return
		}
	}
}

// bridgeFromSighting converts an answer, rejecting other protocols.
func bridgeFromSighting(s sighting) (Bridge, bool) {
	br := Bridge{
		Instance:  s.Instance,
		Host:      s.Host,
		Port:      uint16(s.Port),
		Addresses: make([]string, 0, len(s.IPs)),
	}
	if err := DecodeBridgeTXT(StringsToTXTRecords(s.Text), &br); err != nil {
		return Bridge{}, false
	}
	for _, ip := range s.IPs {
		br.Addresses = append(br.Addresses, ip.String())
	}
	return br, true
}

// mergeAddresses adds new addresses to existing list, avoiding duplicates.
func mergeAddresses(existing, new []string) []string {
	seen := make(map[string]bool, len(existing))
	for _, addr := range existing {
		seen[addr] = true
	}

	for _, addr := range new {
		if !seen[addr] {
			existing = append(existing, addr)
			seen[addr] = true
		}
	}
	return existing
}

// removeAddresses drops the given IPs from the list.
func removeAddresses(addresses []string, ips []net.IP) []string {
	toRemove := make(map[string]bool, len(ips))
	for _, ip := range ips {
		toRemove[ip.String()] = true
	}

	result := make([]string, 0, len(addresses))
	for _, addr := range addresses {
		if !toRemove[addr] {
			result = append(result, addr)
		}
	}
	return result
}
