package log

import (
	"io"
	"os"
	"sync"

	"github.com/fxamacker/cbor/v2"
)

// FileLogger appends capture events to a .tlog file in CBOR format.
// It is safe for concurrent use.
type FileLogger struct {
	path string

	mu      sync.Mutex
	w       io.WriteCloser
	encoder *cbor.Encoder
	dropped int
	closed  bool
}

// NewFileLogger opens (or creates with mode 0644) the capture file at path.
// New events are appended to any existing content.
func NewFileLogger(path string) (*FileLogger, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileLogger{
		path:    path,
		w:       f,
		encoder: NewEncoder(f),
	}, nil
}

// Path returns the capture file path.
func (l *FileLogger) Path() string {
	return l.path
}

// Log appends the event. Encoding failures are counted, not returned;
// a broken capture must never stop the layout.
func (l *FileLogger) Log(event Event) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return
	}
	if err := l.encoder.Encode(event); err != nil {
		l.dropped++
	}
}

// Dropped returns the number of events that failed to encode.
func (l *FileLogger) Dropped() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.dropped
}

// Close closes the file. Further Log calls are ignored. Close is idempotent.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	return l.w.Close()
}

var _ Logger = (*FileLogger)(nil)
