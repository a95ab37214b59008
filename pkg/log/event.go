package log

import (
	"time"
)

// Event is one protocol capture record.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID identifies the transmitter session (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Sink describes where the bytes went (port name or bridge address).
	Sink string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"`
	StateChange *StateChangeEvent `cbor:"11,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"12,keyasint,omitempty"`
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerTransport is the frame transmitter (raw bytes).
	LayerTransport Layer = 0
	// LayerEngine is the engine facade.
	LayerEngine Layer = 1
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerTransport:
		return "TRANSPORT"
	case LayerEngine:
		return "ENGINE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryFrame is a framed command write (single or repeated).
	CategoryFrame Category = 0
	// CategoryRaw is an unframed diagnostic write.
	CategoryRaw Category = 1
	// CategoryState is an engine state change.
	CategoryState Category = 2
	// CategoryError is a failed or suppressed send.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryFrame:
		return "FRAME"
	case CategoryRaw:
		return "RAW"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// FrameEvent captures one physical write.
type FrameEvent struct {
	// Size is the number of bytes handed to the sink.
	Size int `cbor:"1,keyasint"`

	// Data is the written bytes (truncated for very large raw bursts).
	Data []byte `cbor:"2,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"3,keyasint,omitempty"`

	// Word is the command word for framed writes.
	Word uint16 `cbor:"4,keyasint,omitempty"`

	// Repetitions is how many frames the write carried (0 for raw writes).
	Repetitions int `cbor:"5,keyasint,omitempty"`

	// Flushed reports whether a flush followed the write.
	Flushed bool `cbor:"6,keyasint,omitempty"`
}

// StateChangeEvent captures an engine facade state change.
type StateChangeEvent struct {
	// Address is the engine address after the change.
	Address uint8 `cbor:"1,keyasint"`

	// Field names what changed: address, max_speed, speed, direction.
	Field string `cbor:"2,keyasint"`

	// OldValue is the previous value (may be empty).
	OldValue string `cbor:"3,keyasint,omitempty"`

	// NewValue is the new value.
	NewValue string `cbor:"4,keyasint"`

	// Reason explains clamping or masking, if any was applied.
	Reason string `cbor:"5,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
