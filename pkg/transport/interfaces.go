package transport

import "github.com/lcasale/esp-lionel/pkg/wire"

// Sink is the byte destination a Transmitter writes to.
// Implemented by WriterSink, NetSink, SyncSink and serialport.Port.
type Sink interface {
	// Write hands p to the sink in order. Implementations must not split
	// or reorder bytes within one call.
	Write(p []byte) (int, error)

	// Flush blocks until buffered bytes have been handed to the hardware.
	Flush() error
}

// FrameSender is the send surface the engine facade and CLIs depend on.
// Implemented by Transmitter.
type FrameSender interface {
	// SendFrame writes one frame for w.
	SendFrame(w wire.Word) error

	// SendFrameRepeated writes the frame for w n times in a single write.
	SendFrameRepeated(w wire.Word, n int) error
}

// Diagnostics is the bench-test surface of a transmitter.
// Implemented by Transmitter.
type Diagnostics interface {
	// SendRawBytes writes p unframed.
	SendRawBytes(p []byte) error

	// SendTestPattern writes the fixed scope pattern and a horn frame.
	SendTestPattern() error

	// SystemHalt broadcasts the halt word.
	SystemHalt() error
}

// Compile-time interface satisfaction checks.
var (
	_ FrameSender = (*Transmitter)(nil)
	_ Diagnostics = (*Transmitter)(nil)
	_ Sink        = (*WriterSink)(nil)
	_ Sink        = (*NetSink)(nil)
	_ Sink        = (*SyncSink)(nil)
)
