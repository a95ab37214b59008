// Package log provides structured protocol capture for the TMCC transmitter.
//
// This package defines the Logger interface and Event types that record
// exactly what left the process: every frame burst, raw diagnostic write,
// engine state change and failed send. It is separate from operational
// logging (slog); a capture is a machine-readable trace that can be
// replayed on a bench and compared with a logic analyzer recording.
//
// # Basic Usage
//
//	// For development: log to console via slog
//	tx := transport.NewTransmitter(transport.WithLogger(log.NewSlogAdapter(slog.Default())))
//
//	// For a session capture: write to a binary file
//	fl, _ := log.NewFileLogger("layout.tlog")
//
//	// Both: use MultiLogger
//	logger := log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fl)
//
// # Event Types
//
// Events are captured at two layers:
//   - Transport: frame bursts and raw byte writes (FrameEvent)
//   - Engine: facade state changes (StateChangeEvent)
//
// Errors at either layer have a dedicated event type.
//
// # File Format
//
// Capture files are a stream of CBOR-encoded events with the .tlog
// extension. The tmcc-log tool views, filters, and exports them.
package log
