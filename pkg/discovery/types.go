package discovery

import (
	"errors"
	"net"
	"strconv"
	"time"
)

// Service type constants for mDNS.
const (
	// ServiceType is the DNS-SD service type of a serial bridge.
	ServiceType = "_tmcc._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the bridge port when none is configured.
	DefaultPort = 2000

	// Protocol is the proto TXT value for TMCC1 bridges.
	Protocol = "tmcc1"
)

// TXT record key constants.
const (
	TXTKeyProtocol = "proto" // Command protocol, "tmcc1"
	TXTKeyBaud     = "baud"  // Serial speed to the base (optional)
	TXTKeyModel    = "model" // Bridge hardware or software (optional)
	TXTKeyFirmware = "fw"    // Bridge firmware version (optional)
)

// Timing constants.
const (
	// BrowseTimeout is the default timeout for FindBridge.
	BrowseTimeout = 5 * time.Second

	// DefaultTTL is the advertised record TTL.
	DefaultTTL = 120 * time.Second
)

// MaxInstanceNameLen is the DNS label limit.
const MaxInstanceNameLen = 63

// Errors.
var (
	// ErrNotFound indicates no bridge answered before the deadline.
	ErrNotFound = errors.New("discovery: no bridge found")

	// ErrInstanceNameTooLong indicates an instance name over 63 bytes.
	ErrInstanceNameTooLong = errors.New("discovery: instance name too long")

	// ErrMissingRequired indicates a required TXT key is absent.
	ErrMissingRequired = errors.New("discovery: missing required TXT record")

	// ErrWrongProtocol indicates a bridge for another command protocol.
	ErrWrongProtocol = errors.New("discovery: unsupported protocol")
)

// BridgeInfo is what a bridge advertises about itself.
type BridgeInfo struct {
	Instance string
	Port     uint16
	Baud     int
	Model    string
	Firmware string
}

// Bridge is a bridge seen on the network.
type Bridge struct {
	Instance  string
	Host      string
	Port      uint16
	Addresses []string
	Baud      int
	Model     string
	Firmware  string
}

// Addr returns a dialable host:port, preferring the first resolved address
// over the host name.
func (b Bridge) Addr() string {
	host := b.Host
	if len(b.Addresses) > 0 {
		host = b.Addresses[0]
	}
	return net.JoinHostPort(host, strconv.Itoa(int(b.Port)))
}

// String describes the bridge for listings.
func (b Bridge) String() string {
	s := b.Instance + " (" + b.Addr() + ")"
	if b.Model != "" {
		s += " " + b.Model
	}
	return s
}
