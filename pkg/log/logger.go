package log

// Logger receives protocol capture events.
// Pass nil or NoopLogger to disable capture.
type Logger interface {
	// Log records an event. It is called in-line on the send path, so
	// implementations must return quickly and must not block.
	Log(event Event)
}

// NoopLogger discards all events. It is usable as a zero value.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

var _ Logger = NoopLogger{}
