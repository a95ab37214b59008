package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFull(t *testing.T) {
	data := []byte(`
port: /dev/ttyUSB0
baud: 9600
flush: false
protocol_log: tmcc.tlog
metrics_addr: ":2112"
log_level: debug
engines:
  - name: Hudson
    address: 5
    max_speed: 25
  - name: Switcher
`)
	cfg, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", cfg.Port)
	assert.False(t, cfg.Flush)
	assert.Equal(t, "tmcc.tlog", cfg.ProtocolLog)
	assert.Equal(t, ":2112", cfg.MetricsAddr)
	require.Len(t, cfg.Engines, 2)
	assert.Equal(t, EngineConfig{Name: "Hudson", Address: 5, MaxSpeed: 25}, cfg.Engines[0])
	assert.Equal(t, EngineConfig{Name: "Switcher", Address: 1, MaxSpeed: 18}, cfg.Engines[1], "omitted keys take engine defaults")
}

func TestParseDefaults(t *testing.T) {
	for _, data := range []string{"", "bridge: 10.0.0.5:2000\n"} {
		cfg, err := Parse([]byte(data))
		require.NoError(t, err)
		assert.True(t, cfg.Flush)
		assert.Equal(t, 9600, cfg.Baud)
		assert.Equal(t, "info", cfg.LogLevel)
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"unknown key", "prot: /dev/ttyUSB0\n"},
		{"malformed", "port: [\n"},
		{"port and bridge", "port: /dev/ttyUSB0\nbridge: host:2000\n"},
		{"bridge and discover", "bridge: host:2000\ndiscover: true\n"},
		{"zero baud", "baud: 0\n"},
		{"bad level", "log_level: loud\n"},
		{"address too high", "engines:\n  - address: 128\n"},
		{"max speed zero", "engines:\n  - max_speed: 0\n"},
		{"max speed too high", "engines:\n  - max_speed: 32\n"},
		{"duplicate names", "engines:\n  - name: A\n  - name: a\n    address: 2\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tmcc.yaml")
	require.NoError(t, os.WriteFile(path, []byte("port: COM3\nengines:\n  - name: Big Boy\n    address: 40\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	sc := cfg.Serial()
	assert.Equal(t, "COM3", sc.Name)
	assert.Equal(t, 9600, sc.BaudRate)

	e, ok := cfg.Engine("big boy")
	require.True(t, ok)
	ec := e.Engine()
	assert.Equal(t, "Big Boy", ec.Name)
	assert.Equal(t, uint(40), ec.Address)
	assert.Equal(t, uint(18), ec.MaxSpeed)

	_, ok = cfg.Engine("missing")
	assert.False(t, ok)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("baud: -1\n"), 0o644))
	_, err = Load(path)
	assert.ErrorIs(t, err, ErrInvalidConfig)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for in, want := range tests {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}
