// Package wire defines the Lionel TMCC1 command word and frame format.
//
// A TMCC1 command is a 16-bit word carried in a 3-byte frame:
//
//	0xFE  <word high byte>  <word low byte>
//
// The word packs an object type prefix, an address, a 2-bit command class
// and a 5-bit data field, most significant bit first:
//
//	Engine     0 0 A A A A A A A C C D D D D D
//	Switch     0 1 A A A A A A A C C D D D D D
//	Accessory  1 0 A A A A A A A C C D D D D D
//	Train      1 1 0 0 1 A A A A C C D D D D D
//	Route      1 1 0 1 A A A A A C C D D D D D
//
// # Masking, not validation
//
// Word construction never fails. Addresses are masked to the width of the
// object type and data is masked to 5 bits, so an out-of-range input is
// silently truncated rather than rejected: MakeWord(ObjectEngine, 129, ...)
// addresses engine 1. Absolute speeds are saturated at 31. Callers that need
// strict range checking must validate before building a word.
//
// # No receive path
//
// The command base never answers. DecodeWord exists only to render captured
// frames in diagnostics; nothing in this module reads from the serial line.
package wire
