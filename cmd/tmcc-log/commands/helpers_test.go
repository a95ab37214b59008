package commands

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/lcasale/esp-lionel/pkg/log"
)

var baseTime = time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)

// sampleEvents is a short session: speed, horn burst, state change, error.
func sampleEvents() []log.Event {
	return []log.Event{
		{
			Timestamp: baseTime,
			SessionID: "abc12345-6789-0123-4567-890abcdef012",
			Layer:     log.LayerTransport,
			Category:  log.CategoryFrame,
			Sink:      "/dev/ttyUSB0@9600",
			Frame: &log.FrameEvent{
				Size: 3, Data: []byte{0xFE, 0x00, 0xF2}, Word: 0x00F2, Repetitions: 1, Flushed: true,
			},
		},
		{
			Timestamp: baseTime.Add(time.Second),
			SessionID: "abc12345-6789-0123-4567-890abcdef012",
			Layer:     log.LayerTransport,
			Category:  log.CategoryFrame,
			Sink:      "/dev/ttyUSB0@9600",
			Frame: &log.FrameEvent{
				Size: 90, Data: repeatFrame(0xFE, 0x00, 0x9C, 30), Word: 0x009C, Repetitions: 30, Flushed: true,
			},
		},
		{
			Timestamp: baseTime.Add(2 * time.Second),
			SessionID: "abc12345-6789-0123-4567-890abcdef012",
			Layer:     log.LayerEngine,
			Category:  log.CategoryState,
			StateChange: &log.StateChangeEvent{
				Address: 1, Field: "speed", OldValue: "0", NewValue: "18", Reason: "clamped from 200 to max speed 18",
			},
		},
		{
			Timestamp: baseTime.Add(3 * time.Second),
			SessionID: "def67890-0000-0000-0000-000000000000",
			Layer:     log.LayerTransport,
			Category:  log.CategoryError,
			Error: &log.ErrorEventData{
				Layer: log.LayerTransport, Message: "transport: no sink attached", Context: "system halt",
			},
		},
	}
}

func repeatFrame(a, b, c byte, n int) []byte {
	out := make([]byte, 0, 3*n)
	for range n {
		out = append(out, a, b, c)
	}
	return out
}

// writeTestLog writes events to a capture file and returns its path.
func writeTestLog(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.tlog")
	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger() error = %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	return path
}
