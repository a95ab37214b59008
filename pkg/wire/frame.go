package wire

import "encoding/hex"

// Frame constants.
const (
	// FrameHeader is the TMCC1 frame start byte.
	FrameHeader byte = 0xFE

	// FrameSize is the size of one frame in bytes.
	FrameSize = 3

	// MaxRepetitions bounds back-to-back repeats of one frame. The base's
	// reception window for stateless commands is bounded, and an unbounded
	// repeat count would starve the link.
	MaxRepetitions = 30

	// HaltRepetitions is the repeat count for the system halt broadcast.
	HaltRepetitions = 10

	// StatelessRepetitions is the repeat count for horn and bell commands.
	StatelessRepetitions = 30
)

// Frame is one 3-byte TMCC1 frame: header, word high byte, word low byte.
type Frame [FrameSize]byte

// NewFrame wraps w in a frame.
func NewFrame(w Word) Frame {
	return Frame{FrameHeader, w.High(), w.Low()}
}

// Word returns the command word carried by the frame.
func (f Frame) Word() Word {
	return Word(f[1])<<8 | Word(f[2])
}

// Valid reports whether the frame starts with the TMCC1 header.
func (f Frame) Valid() bool {
	return f[0] == FrameHeader
}

// Bytes returns the frame as a slice.
func (f Frame) Bytes() []byte {
	return f[:]
}

// String returns the frame as spaced hex, e.g. "fe 00 9c".
func (f Frame) String() string {
	return hex.EncodeToString(f[:1]) + " " + hex.EncodeToString(f[1:2]) + " " + hex.EncodeToString(f[2:])
}

// ClampRepetitions bounds n to [1, MaxRepetitions]. Zero and negative
// counts are promoted to a single frame.
func ClampRepetitions(n int) int {
	return max(1, min(MaxRepetitions, n))
}

// AppendFrames appends n copies of the frame for w to dst. n is used as
// given; callers clamp with ClampRepetitions where a bound applies.
func AppendFrames(dst []byte, w Word, n int) []byte {
	f := NewFrame(w)
	for range n {
		dst = append(dst, f[:]...)
	}
	return dst
}

// SplitFrames splits a buffer of concatenated frames. It returns the frames
// found and any trailing bytes that do not form a complete frame. Bytes
// that are not frame aligned (raw diagnostic bursts) are returned as rest.
func SplitFrames(p []byte) (frames []Frame, rest []byte) {
	for len(p) >= FrameSize && p[0] == FrameHeader {
		frames = append(frames, Frame{p[0], p[1], p[2]})
		p = p[FrameSize:]
	}
	return frames, p
}
