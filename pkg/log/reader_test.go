package log

import (
	"path/filepath"
	"testing"
	"time"
)

func writeCapture(t *testing.T, events ...Event) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "capture.tlog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	return path
}

func TestReaderFilters(t *testing.T) {
	base := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	horn := frameEvent("a", 0x009C, 30)
	horn.Timestamp = base
	speed := frameEvent("a", 0x00F2, 1)
	speed.Timestamp = base.Add(time.Second)
	other := frameEvent("b", 0x009C, 1)
	other.Timestamp = base.Add(2 * time.Second)
	state := Event{
		Timestamp:   base.Add(3 * time.Second),
		SessionID:   "a",
		Layer:       LayerEngine,
		Category:    CategoryState,
		StateChange: &StateChangeEvent{Address: 1, Field: "speed", NewValue: "18"},
	}

	path := writeCapture(t, horn, speed, other, state)

	engine := LayerEngine
	frames := CategoryFrame
	hornWord := uint16(0x009C)
	start := base.Add(time.Second)
	end := base.Add(3 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"session", Filter{SessionID: "a"}, 3},
		{"layer", Filter{Layer: &engine}, 1},
		{"category", Filter{Category: &frames}, 3},
		{"word", Filter{Word: &hornWord}, 2},
		{"time window", Filter{TimeStart: &start, TimeEnd: &end}, 2},
		{"combined", Filter{SessionID: "a", Word: &hornWord}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewFilteredReader(path, tt.filter)
			if err != nil {
				t.Fatalf("NewFilteredReader failed: %v", err)
			}
			defer r.Close()

			events, err := r.ReadAll()
			if err != nil {
				t.Fatalf("ReadAll failed: %v", err)
			}
			if len(events) != tt.want {
				t.Errorf("got %d events, want %d", len(events), tt.want)
			}
		})
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "nope.tlog")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestEncodeDecodeEvent(t *testing.T) {
	in := Event{
		Timestamp: time.Date(2026, 5, 6, 7, 8, 9, 123456789, time.UTC),
		SessionID: "s",
		Layer:     LayerTransport,
		Category:  CategoryError,
		Sink:      "/dev/ttyUSB0",
		Error:     &ErrorEventData{Layer: LayerTransport, Message: "boom", Context: "halt"},
	}

	data, err := EncodeEvent(in)
	if err != nil {
		t.Fatalf("EncodeEvent failed: %v", err)
	}
	out, err := DecodeEvent(data)
	if err != nil {
		t.Fatalf("DecodeEvent failed: %v", err)
	}

	if !out.Timestamp.Equal(in.Timestamp) {
		t.Errorf("Timestamp = %v", out.Timestamp)
	}
	if out.Sink != in.Sink || out.Error == nil || out.Error.Message != "boom" {
		t.Errorf("decoded = %+v", out)
	}
}

func TestDecodeEventGarbage(t *testing.T) {
	if _, err := DecodeEvent([]byte{0xFF, 0x00}); err == nil {
		t.Error("expected error decoding garbage")
	}
}
