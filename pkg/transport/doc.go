// Package transport sends TMCC1 frames to a command base.
//
// The transport layer handles:
//   - Framing a command word as 0xFE, high byte, low byte
//   - Repeating stateless commands (horn, bell, halt) in one contiguous write
//   - Flushing the sink after each command
//   - Raw diagnostic bursts for oscilloscope and logic analyzer work
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│     Engine facade (pkg/engine) │
//	├────────────────────────────────┤
//	│  16-bit command word (wire)    │
//	├────────────────────────────────┤
//	│  3-byte frame, xN repetitions  │
//	├────────────────────────────────┤
//	│  Sink: serial 9600 8N1 / TCP   │
//	└────────────────────────────────┘
//
// # Delivery
//
// The command base never acknowledges. A successful send means the bytes
// left the local buffer, nothing more. The only mitigation is the fixed
// repetition count on stateless commands: 30 for horn and bell, 10 for the
// halt broadcast. The transmitter never retries on its own.
//
// Each send is exactly one Write call on the sink followed by Flush, with no
// artificial inter-byte or post-frame delay. Repeated frames are concatenated
// into a single buffer so no other producer can interleave mid-burst.
//
// # Concurrency
//
// Transmitter has no internal lock: it assumes a single caller. Hosts with
// several command producers must serialize access, for example by wrapping
// the sink with NewSyncSink or funnelling commands through one goroutine.
package transport
