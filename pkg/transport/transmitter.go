package transport

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/lcasale/esp-lionel/pkg/log"
	"github.com/lcasale/esp-lionel/pkg/wire"
)

// MaxLogDataSize is the largest write copied verbatim into a capture event.
// The longest framed burst is 90 bytes, so only raw writes are ever cut.
const MaxLogDataSize = 4096

// TestPatternAddress is the engine that receives the horn frame at the end
// of the scope test pattern.
const TestPatternAddress = 1

// TestPattern is the raw burst sent before the horn frame by
// SendTestPattern. Alternating bits make it easy to find on a scope.
var TestPattern = []byte{0x55, 0xAA, 0x00, 0xFF, 0x55, 0xAA}

// Transmitter errors.
var (
	// ErrNoSink indicates no sink is attached; nothing was written.
	ErrNoSink = errors.New("transport: no sink attached")

	// ErrSinkAlreadySet indicates SetSink was called twice.
	ErrSinkAlreadySet = errors.New("transport: sink already set")

	// ErrNilSink indicates SetSink was called with nil.
	ErrNilSink = errors.New("transport: nil sink")

	// ErrShortWrite indicates the sink accepted fewer bytes than offered.
	ErrShortWrite = errors.New("transport: short write")
)

// Config configures a Transmitter.
type Config struct {
	// Flush requests a sink flush after every framed write. Whether every
	// serial stack needs it is unverified; it is cheap, so it defaults on.
	Flush bool

	// ProtocolLogger receives a capture event for every write and every
	// suppressed send. Nil disables capture.
	ProtocolLogger log.Logger

	// Logger receives operational diagnostics. Nil uses slog.Default().
	Logger *slog.Logger

	// SessionID tags capture events. Empty generates a random UUID.
	SessionID string
}

// DefaultConfig returns the recommended configuration: single write,
// explicit flush, no capture.
func DefaultConfig() Config {
	return Config{Flush: true}
}

// Stats are cumulative transmitter counters.
type Stats struct {
	// Writes is the number of Write calls made on the sink.
	Writes uint64
	// Frames is the number of frames written, counting each repetition.
	Frames uint64
	// Bytes is the number of bytes the sink accepted.
	Bytes uint64
	// Errors is the number of sends that failed or were suppressed.
	Errors uint64
}

// Transmitter turns command words into frames and writes them to a Sink.
//
// It is stateless apart from the sink reference and counters: every call is
// independent and may be issued in any order. It performs no locking.
type Transmitter struct {
	sink     Sink
	sinkName string

	flush     bool
	capture   log.Logger
	logger    *slog.Logger
	sessionID string

	writes atomic.Uint64
	frames atomic.Uint64
	bytes  atomic.Uint64
	errs   atomic.Uint64
}

// NewTransmitter creates a transmitter with no sink attached.
func NewTransmitter(cfg Config) *Transmitter {
	t := &Transmitter{
		flush:     cfg.Flush,
		capture:   cfg.ProtocolLogger,
		logger:    cfg.Logger,
		sessionID: cfg.SessionID,
	}
	if t.capture == nil {
		t.capture = log.NoopLogger{}
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	if t.sessionID == "" {
		t.sessionID = uuid.New().String()
	}
	return t
}

// SetSink attaches the sink. It may be called once; later calls return
// ErrSinkAlreadySet and leave the first sink in place.
func (t *Transmitter) SetSink(s Sink) error {
	if s == nil {
		return ErrNilSink
	}
	if t.sink != nil {
		return ErrSinkAlreadySet
	}
	t.sink = s
	t.sinkName = describeSink(s)
	t.logger.Info("sink attached", "sink", t.sinkName, "flush", t.flush)
	return nil
}

// HasSink reports whether a sink is attached.
func (t *Transmitter) HasSink() bool {
	return t.sink != nil
}

// SessionID returns the ID stamped on capture events.
func (t *Transmitter) SessionID() string {
	return t.sessionID
}

// Stats returns a snapshot of the counters. Safe to call from any goroutine.
func (t *Transmitter) Stats() Stats {
	return Stats{
		Writes: t.writes.Load(),
		Frames: t.frames.Load(),
		Bytes:  t.bytes.Load(),
		Errors: t.errs.Load(),
	}
}

// SendFrame writes the 3-byte frame for w in one Write call, then flushes.
func (t *Transmitter) SendFrame(w wire.Word) error {
	f := wire.NewFrame(w)
	return t.send("send frame", f[:], w, 1, true)
}

// SendFrameRepeated writes the frame for w repeated n times as one
// contiguous buffer, then flushes. n is clamped to [1, wire.MaxRepetitions].
func (t *Transmitter) SendFrameRepeated(w wire.Word, n int) error {
	n = wire.ClampRepetitions(n)
	buf := wire.AppendFrames(make([]byte, 0, n*wire.FrameSize), w, n)
	return t.send("send frame repeated", buf, w, n, true)
}

// SendRawBytes writes p unframed and without a flush. It is a bench tool
// for scope work, not part of the command protocol. Empty input writes
// nothing.
func (t *Transmitter) SendRawBytes(p []byte) error {
	if t.sink != nil && len(p) == 0 {
		return nil
	}
	return t.send("send raw bytes", p, 0, 0, false)
}

// SystemHalt broadcasts the all-ones halt word wire.HaltRepetitions times
// in one write.
func (t *Transmitter) SystemHalt() error {
	buf := wire.AppendFrames(make([]byte, 0, wire.HaltRepetitions*wire.FrameSize), wire.HaltWord, wire.HaltRepetitions)
	t.logger.Warn("system halt")
	return t.send("system halt", buf, wire.HaltWord, wire.HaltRepetitions, true)
}

// SendTestPattern writes TestPattern raw, then a single horn frame for
// engine TestPatternAddress.
func (t *Transmitter) SendTestPattern() error {
	t.logger.Warn("sending test pattern", "pattern", fmt.Sprintf("% X", TestPattern))
	if err := t.SendRawBytes(TestPattern); err != nil {
		return err
	}
	return t.SendFrame(wire.EngineActionWord(TestPatternAddress, wire.ActionBlowHorn1))
}

// SendEngineAction sends a single-shot engine action.
func (t *Transmitter) SendEngineAction(address uint, action wire.EngineAction) error {
	return t.SendFrame(wire.EngineActionWord(address, action))
}

// SendEngineActionRepeated sends an engine action n times in one burst.
func (t *Transmitter) SendEngineActionRepeated(address uint, action wire.EngineAction, n int) error {
	return t.SendFrameRepeated(wire.EngineActionWord(address, action), n)
}

// SendEngineSpeed sends an absolute speed command. Speeds above 31 saturate.
func (t *Transmitter) SendEngineSpeed(address uint, speed uint) error {
	return t.SendFrame(wire.EngineSpeedWord(address, speed))
}

// send performs one Write of buf and an optional flush. reps is the number
// of frames in buf, 0 for raw writes.
func (t *Transmitter) send(op string, buf []byte, w wire.Word, reps int, flush bool) error {
	if t.sink == nil {
		t.fail(op, ErrNoSink)
		return ErrNoSink
	}

	n, err := t.sink.Write(buf)
	t.writes.Add(1)
	if n > 0 {
		t.bytes.Add(uint64(n))
	}
	if err != nil {
		err = fmt.Errorf("%s: write: %w", op, err)
		t.fail(op, err)
		return err
	}
	if n != len(buf) {
		err = fmt.Errorf("%s: %w: %d of %d bytes", op, ErrShortWrite, n, len(buf))
		t.fail(op, err)
		return err
	}

	flushed := false
	if flush && t.flush {
		if err := t.sink.Flush(); err != nil {
			err = fmt.Errorf("%s: flush: %w", op, err)
			t.fail(op, err)
			return err
		}
		flushed = true
	}

	t.frames.Add(uint64(reps))
	t.capture.Log(t.writeEvent(buf, w, reps, flushed))
	if t.logger.Enabled(context.Background(), slog.LevelDebug) {
		t.logger.Debug("frame sent", "op", op, "word", w, "repetitions", reps, "bits", formatBinary(buf, wire.FrameSize))
	}
	return nil
}

// fail counts and reports a failed or suppressed send.
func (t *Transmitter) fail(op string, err error) {
	t.errs.Add(1)
	t.logger.Error("send failed", "op", op, "sink", t.sinkName, "error", err)
	t.capture.Log(log.Event{
		Timestamp: time.Now(),
		SessionID: t.sessionID,
		Layer:     log.LayerTransport,
		Category:  log.CategoryError,
		Sink:      t.sinkName,
		Error: &log.ErrorEventData{
			Layer:   log.LayerTransport,
			Message: err.Error(),
			Context: op,
		},
	})
}

func (t *Transmitter) writeEvent(buf []byte, w wire.Word, reps int, flushed bool) log.Event {
	data := buf
	truncated := false
	if len(data) > MaxLogDataSize {
		data = data[:MaxLogDataSize]
		truncated = true
	}

	category := log.CategoryFrame
	if reps == 0 {
		category = log.CategoryRaw
	}

	return log.Event{
		Timestamp: time.Now(),
		SessionID: t.sessionID,
		Layer:     log.LayerTransport,
		Category:  category,
		Sink:      t.sinkName,
		Frame: &log.FrameEvent{
			Size:        len(buf),
			Data:        append([]byte(nil), data...),
			Truncated:   truncated,
			Word:        uint16(w),
			Repetitions: reps,
			Flushed:     flushed,
		},
	}
}

// formatBinary renders at most limit bytes of p as space-separated bit
// strings, e.g. "11111110 00000000 10011100".
func formatBinary(p []byte, limit int) string {
	if len(p) > limit {
		p = p[:limit]
	}
	parts := make([]string, len(p))
	for i, b := range p {
		parts[i] = fmt.Sprintf("%08b", b)
	}
	return strings.Join(parts, " ")
}

func describeSink(s Sink) string {
	if named, ok := s.(fmt.Stringer); ok {
		return named.String()
	}
	return fmt.Sprintf("%T", s)
}
