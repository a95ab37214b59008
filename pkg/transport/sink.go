package transport

import (
	"context"
	"fmt"
	"io"
	"net"
	"sync"
	"time"
)

// flusher is implemented by buffered writers such as *bufio.Writer.
type flusher interface {
	Flush() error
}

// WriterSink adapts an io.Writer. Flush forwards to the writer's own
// Flush method when it has one and is a no-op otherwise.
type WriterSink struct {
	w    io.Writer
	name string
}

// NewWriterSink wraps w. name is used in diagnostics.
func NewWriterSink(w io.Writer, name string) *WriterSink {
	return &WriterSink{w: w, name: name}
}

// Write writes p to the underlying writer.
func (s *WriterSink) Write(p []byte) (int, error) {
	return s.w.Write(p)
}

// Flush flushes the underlying writer if it buffers.
func (s *WriterSink) Flush() error {
	if f, ok := s.w.(flusher); ok {
		return f.Flush()
	}
	return nil
}

// String returns the sink name.
func (s *WriterSink) String() string {
	if s.name == "" {
		return "writer"
	}
	return s.name
}

// DefaultNetWriteTimeout bounds a single write to a network bridge.
const DefaultNetWriteTimeout = 2 * time.Second

// NetSink writes to a TCP serial bridge (ser2net, ESP-Link and similar)
// that forwards bytes verbatim to the command base's serial port.
type NetSink struct {
	conn         net.Conn
	addr         string
	writeTimeout time.Duration
}

// DialNetSink connects to a serial bridge at addr (host:port).
func DialNetSink(ctx context.Context, addr string) (*NetSink, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("dial bridge %s: %w", addr, err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		// Frames are tiny; do not let Nagle hold them back.
		_ = tcp.SetNoDelay(true)
	}
	return NewNetSink(conn), nil
}

// NewNetSink wraps an established connection.
func NewNetSink(conn net.Conn) *NetSink {
	return &NetSink{
		conn:         conn,
		addr:         conn.RemoteAddr().String(),
		writeTimeout: DefaultNetWriteTimeout,
	}
}

// SetWriteTimeout changes the per-write deadline. Zero disables it.
func (s *NetSink) SetWriteTimeout(d time.Duration) {
	s.writeTimeout = d
}

// Write writes p to the bridge within the write timeout.
func (s *NetSink) Write(p []byte) (int, error) {
	if s.writeTimeout > 0 {
		if err := s.conn.SetWriteDeadline(time.Now().Add(s.writeTimeout)); err != nil {
			return 0, err
		}
	}
	return s.conn.Write(p)
}

// Flush is a no-op: TCP hands bytes to the kernel on Write.
func (s *NetSink) Flush() error {
	return nil
}

// Close closes the connection.
func (s *NetSink) Close() error {
	return s.conn.Close()
}

// String returns the bridge address.
func (s *NetSink) String() string {
	return "tcp://" + s.addr
}

// SyncSink serializes access to a shared sink for hosts with several
// command producers. Each Write stays one contiguous call on the inner
// sink, so frames from different producers never interleave.
type SyncSink struct {
	mu    sync.Mutex
	inner Sink
}

// NewSyncSink wraps inner.
func NewSyncSink(inner Sink) *SyncSink {
	return &SyncSink{inner: inner}
}

// Write writes p while holding the lock.
func (s *SyncSink) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Write(p)
}

// Flush flushes while holding the lock.
func (s *SyncSink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inner.Flush()
}

// String describes the wrapped sink.
func (s *SyncSink) String() string {
	return describeSink(s.inner)
}
