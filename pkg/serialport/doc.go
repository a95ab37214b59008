// Package serialport opens the serial line to a Lionel command base.
//
// The command base listens at 9600 baud, 8 data bits, no parity, one stop
// bit. A Port satisfies transport.Sink: Write hands bytes to the driver and
// Flush blocks until the driver has shifted them out (tcdrain on POSIX).
package serialport
