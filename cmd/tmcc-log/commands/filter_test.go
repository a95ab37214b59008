package commands

import (
	"path/filepath"
	"testing"

	"github.com/lcasale/esp-lionel/pkg/log"
)

func readAll(t *testing.T, path string) []log.Event {
	t.Helper()
	r, err := log.NewReader(path)
	if err != nil {
		t.Fatalf("NewReader() error = %v", err)
	}
	defer r.Close()
	events, err := r.ReadAll()
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	return events
}

func TestRunFilter(t *testing.T) {
	path := writeTestLog(t, sampleEvents())

	tests := []struct {
		name string
		opts FilterOptions
		want int
	}{
		{"everything", FilterOptions{}, 4},
		{"by session", FilterOptions{SessionID: "def67890-0000-0000-0000-000000000000"}, 1},
		{"by layer", FilterOptions{Layer: "engine"}, 1},
		{"by category", FilterOptions{Category: "frame"}, 2},
		{"by word", FilterOptions{Word: "0x00F2"}, 1},
		{"by time", FilterOptions{TimeStart: "2026-01-28T10:15:34Z"}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.Output = filepath.Join(t.TempDir(), "out.tlog")
			n, err := RunFilter(path, tt.opts)
			if err != nil {
				t.Fatalf("RunFilter() error = %v", err)
			}
			if n != tt.want {
				t.Errorf("RunFilter() = %d, want %d", n, tt.want)
			}
			if got := len(readAll(t, tt.opts.Output)); got != tt.want {
				t.Errorf("output has %d events, want %d", got, tt.want)
			}
		})
	}
}

func TestRunFilterInvalidOptions(t *testing.T) {
	path := writeTestLog(t, sampleEvents())
	out := filepath.Join(t.TempDir(), "out.tlog")

	for _, opts := range []FilterOptions{
		{Output: out, Layer: "wire"},
		{Output: out, Category: "message"},
		{Output: out, Word: "zz"},
		{Output: out, TimeStart: "yesterday"},
		{Output: out, TimeEnd: "tomorrow"},
	} {
		if _, err := RunFilter(path, opts); err == nil {
			t.Errorf("RunFilter(%+v) should fail", opts)
		}
	}
}
