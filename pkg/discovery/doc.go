// Package discovery finds network serial bridges over mDNS/DNS-SD.
//
// A bridge is a small host (ser2net on a Raspberry Pi, an ESP8266 running
// ESP-Link, or tmcc-bridge) that accepts TCP connections and forwards the
// bytes to a command base's serial port. Bridges advertise:
//
// # Service (_tmcc._tcp)
//
// Instance name is user-chosen, e.g. "Basement Layout".
// TXT records include: proto (always "tmcc1"), and optionally baud, model
// and fw.
//
// A browser that sees the same instance on several interfaces merges the
// addresses into one Bridge.
package discovery
