// Package engine is the per-locomotive command facade.
//
// An Engine remembers what the operator last asked for (address, speed
// limit, speed, direction) and turns named actions into command words for a
// Sender. The remembered state is what was sent, not what the locomotive is
// doing: TMCC1 has no return channel.
//
// Range handling follows the codec: the address is masked to 7 bits, the
// speed limit is clamped to 31, and a requested speed is clamped to the
// limit. Nothing is rejected.
//
// Horn and bell are momentary, so they are sent 30 times in one burst.
// Every other action sets state on the locomotive and is sent once.
//
// An Engine is not safe for concurrent use.
package engine
