package log

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"
	"time"
)

func captureSlog(t *testing.T, event Event) map[string]any {
	t.Helper()

	var buf bytes.Buffer
	handler := slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})
	NewSlogAdapter(slog.New(handler)).Log(event)

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("failed to parse log output %q: %v", buf.String(), err)
	}
	return entry
}

func TestSlogAdapterLogsFrameEvent(t *testing.T) {
	entry := captureSlog(t, frameEvent("sess-1", 0x009C, 2))

	if entry["msg"] != "tmcc" {
		t.Errorf("msg = %v", entry["msg"])
	}
	if entry["level"] != "DEBUG" {
		t.Errorf("level = %v", entry["level"])
	}
	if entry["session"] != "sess-1" {
		t.Errorf("session = %v", entry["session"])
	}
	if entry["bytes"] != "fe009cfe009c" {
		t.Errorf("bytes = %v", entry["bytes"])
	}
	if entry["word"] != "0x009C" {
		t.Errorf("word = %v", entry["word"])
	}
	if entry["repetitions"] != float64(2) {
		t.Errorf("repetitions = %v", entry["repetitions"])
	}
}

func TestSlogAdapterLogsRawWriteWithoutWord(t *testing.T) {
	entry := captureSlog(t, Event{
		Timestamp: time.Now(),
		Layer:     LayerTransport,
		Category:  CategoryRaw,
		Frame:     &FrameEvent{Size: 2, Data: []byte{0x55, 0xAA}},
	})

	if _, ok := entry["word"]; ok {
		t.Error("raw write should not carry a word attribute")
	}
	if entry["category"] != "RAW" {
		t.Errorf("category = %v", entry["category"])
	}
}

func TestSlogAdapterLogsStateChange(t *testing.T) {
	entry := captureSlog(t, Event{
		Timestamp: time.Now(),
		Layer:     LayerEngine,
		Category:  CategoryState,
		StateChange: &StateChangeEvent{
			Address:  3,
			Field:    "speed",
			OldValue: "0",
			NewValue: "18",
			Reason:   "clamped from 200",
		},
	})

	if entry["engine"] != float64(3) {
		t.Errorf("engine = %v", entry["engine"])
	}
	if entry["new"] != "18" || entry["reason"] != "clamped from 200" {
		t.Errorf("entry = %v", entry)
	}
}

func TestSlogAdapterLogsErrorAtErrorLevel(t *testing.T) {
	entry := captureSlog(t, Event{
		Timestamp: time.Now(),
		Layer:     LayerTransport,
		Category:  CategoryError,
		Error: &ErrorEventData{
			Layer:   LayerTransport,
			Message: "no sink attached",
			Context: "send frame",
		},
	})

	if entry["level"] != "ERROR" {
		t.Errorf("level = %v", entry["level"])
	}
	if entry["error_msg"] != "no sink attached" {
		t.Errorf("error_msg = %v", entry["error_msg"])
	}
}
