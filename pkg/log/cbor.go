package log

import (
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
)

var (
	captureEnc cbor.EncMode
	captureDec cbor.DecMode
)

func init() {
	var err error

	// Canonical key order keeps captures byte-comparable across runs.
	captureEnc, err = cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
		Time:          cbor.TimeRFC3339Nano,
	}.EncMode()
	if err != nil {
		panic(fmt.Sprintf("log: capture encoder mode: %v", err))
	}

	captureDec, err = cbor.DecOptions{
		DupMapKey:         cbor.DupMapKeyQuiet,
		IndefLength:       cbor.IndefLengthAllowed,
		ExtraReturnErrors: cbor.ExtraDecErrorNone,
	}.DecMode()
	if err != nil {
		panic(fmt.Sprintf("log: capture decoder mode: %v", err))
	}
}

// EncodeEvent encodes an Event to CBOR.
func EncodeEvent(event Event) ([]byte, error) {
	return captureEnc.Marshal(event)
}

// DecodeEvent decodes one CBOR-encoded Event.
func DecodeEvent(data []byte) (Event, error) {
	var event Event
	if err := captureDec.Unmarshal(data, &event); err != nil {
		return Event{}, fmt.Errorf("decode event: %w", err)
	}
	return event, nil
}

// NewEncoder returns a streaming event encoder writing to w.
func NewEncoder(w io.Writer) *cbor.Encoder {
	return captureEnc.NewEncoder(w)
}

// NewDecoder returns a streaming event decoder reading from r.
func NewDecoder(r io.Reader) *cbor.Decoder {
	return captureDec.NewDecoder(r)
}
