package log

// MultiLogger fans events out to several loggers, e.g. an SlogAdapter for
// the console and a FileLogger for the session capture.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a MultiLogger. Nil loggers are skipped.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	m := &MultiLogger{}
	for _, l := range loggers {
		if l != nil {
			m.loggers = append(m.loggers, l)
		}
	}
	return m
}

// Log sends the event to every logger in order.
func (m *MultiLogger) Log(event Event) {
	for _, l := range m.loggers {
		l.Log(event)
	}
}

// Len returns the number of attached loggers.
func (m *MultiLogger) Len() int {
	return len(m.loggers)
}

var _ Logger = (*MultiLogger)(nil)

// FilterLogger forwards only events matching Filter.
type FilterLogger struct {
	next   Logger
	filter Filter
}

// NewFilterLogger wraps next.
func NewFilterLogger(next Logger, filter Filter) *FilterLogger {
	return &FilterLogger{next: next, filter: filter}
}

// Log forwards the event if it matches.
func (f *FilterLogger) Log(event Event) {
	if f.filter.Matches(event) {
		f.next.Log(event)
	}
}

var _ Logger = (*FilterLogger)(nil)
