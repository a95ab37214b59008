package main

import (
	"bytes"
	"context"
	"flag"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcasale/esp-lionel/pkg/config"
	"github.com/lcasale/esp-lionel/pkg/log"
	"github.com/lcasale/esp-lionel/pkg/transport"
	"github.com/lcasale/esp-lionel/pkg/wire"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func parse(t *testing.T, args ...string) *Flags {
	t.Helper()
	fs := flag.NewFlagSet("tmcc-cab", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	f, err := parseFlags(fs, args)
	require.NoError(t, err)
	return f
}

func TestParseFlagsPositional(t *testing.T) {
	f := parse(t, "-port", "/dev/ttyUSB0", "speed", "10")
	assert.Equal(t, "/dev/ttyUSB0", f.Port)
	assert.Equal(t, []string{"speed", "10"}, f.Args)
	assert.False(t, f.Interactive)
}

func TestApplyUnsetFlagsKeepFile(t *testing.T) {
	cfg := config.Default()
	cfg.Bridge = "bridge.local:2000"
	cfg.LogLevel = "debug"
	cfg.Engines = []config.EngineConfig{{Name: "Hudson", Address: 3, MaxSpeed: 20}}

	got := parse(t, "horn").Apply(cfg)
	assert.Equal(t, cfg, got)
}

func TestApplySinkFlagReplacesFile(t *testing.T) {
	cfg := config.Default()
	cfg.Bridge = "bridge.local:2000"

	got := parse(t, "-port", "/dev/ttyACM0", "-baud", "19200", "-no-flush").Apply(cfg)
	assert.Equal(t, "/dev/ttyACM0", got.Port)
	assert.Empty(t, got.Bridge)
	assert.Equal(t, 19200, got.Baud)
	assert.False(t, got.Flush)
	require.NoError(t, got.Validate())
}

func TestApplyEngineOverrides(t *testing.T) {
	t.Run("no engines configured", func(t *testing.T) {
		got := parse(t, "-address", "7").Apply(config.Default())
		require.Len(t, got.Engines, 1)
		assert.Equal(t, uint(7), got.Engines[0].Address)
		assert.Equal(t, uint(18), got.Engines[0].MaxSpeed)
	})

	t.Run("selected engine", func(t *testing.T) {
		cfg := config.Default()
		cfg.Engines = []config.EngineConfig{
			{Name: "Hudson", Address: 3, MaxSpeed: 20},
			{Name: "GG1", Address: 12, MaxSpeed: 31},
		}
		got := parse(t, "-engine", "gg1", "-max-speed", "10").Apply(cfg)
		assert.Equal(t, uint(20), got.Engines[0].MaxSpeed)
		assert.Equal(t, uint(10), got.Engines[1].MaxSpeed)
		assert.Equal(t, uint(31), cfg.Engines[1].MaxSpeed, "input config must not change")
	})
}

func TestBuildEngines(t *testing.T) {
	tx := transport.NewTransmitter(transport.Config{Logger: quietLogger()})

	engines, err := buildEngines(tx, config.Default(), "", nil, quietLogger())
	require.NoError(t, err)
	require.Len(t, engines, 1)
	assert.Equal(t, uint8(1), engines[0].Address())
	assert.Equal(t, uint8(18), engines[0].MaxSpeed())

	cfg := config.Default()
	cfg.Engines = []config.EngineConfig{
		{Name: "Hudson", Address: 3, MaxSpeed: 20},
		{Name: "GG1", Address: 12, MaxSpeed: 31},
		{Name: "Mogul", Address: 40, MaxSpeed: 12},
	}
	engines, err = buildEngines(tx, cfg, "GG1", nil, quietLogger())
	require.NoError(t, err)
	names := []string{engines[0].Name(), engines[1].Name(), engines[2].Name()}
	assert.Equal(t, []string{"GG1", "Hudson", "Mogul"}, names)

	_, err = buildEngines(tx, cfg, "Big Boy", nil, quietLogger())
	assert.ErrorContains(t, err, "Big Boy")
}

func TestOpenSinkNone(t *testing.T) {
	sink, closeSink, err := openSink(context.Background(), config.Default(), quietLogger())
	require.NoError(t, err)
	assert.Nil(t, sink)
	closeSink()
}

func TestOpenSinkBridge(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	received := make(chan []byte, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, wire.FrameSize)
		_, _ = io.ReadFull(conn, buf)
		received <- buf
	}()

	cfg := config.Default()
	cfg.Bridge = ln.Addr().String()
	sink, closeSink, err := openSink(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer closeSink()

	tx := transport.NewTransmitter(transport.Config{Flush: true, Logger: quietLogger()})
	require.NoError(t, tx.SetSink(sink))
	require.NoError(t, tx.SendFrame(0x009C))
	assert.Equal(t, []byte{0xFE, 0x00, 0x9C}, <-received)
}

func TestCaptureFile(t *testing.T) {
	cfg := config.Default()
	cfg.ProtocolLog = filepath.Join(t.TempDir(), "cab.tlog")

	c, err := newCapture(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	require.NotNil(t, c.Logger())

	tx := transport.NewTransmitter(transport.Config{Flush: true, ProtocolLogger: c.Logger(), Logger: quietLogger()})
	require.NoError(t, tx.SetSink(transport.NewWriterSink(io.Discard, "discard")))
	require.NoError(t, tx.SystemHalt())
	c.Close()

	r, err := log.NewReader(cfg.ProtocolLog)
	require.NoError(t, err)
	defer r.Close()
	events, err := r.ReadAll()
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, uint16(wire.HaltWord), events[0].Frame.Word)
	assert.Equal(t, 10, events[0].Frame.Repetitions)
}

func TestCaptureDisabled(t *testing.T) {
	c, err := newCapture(context.Background(), config.Default(), quietLogger())
	require.NoError(t, err)
	assert.Nil(t, c.Logger())
	c.Close()
}

func TestCaptureDebugLogsEachFrameOnce(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&out, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c, err := newCapture(context.Background(), config.Default(), logger)
	require.NoError(t, err)
	require.NotNil(t, c.Logger())

	tx := transport.NewTransmitter(transport.Config{Flush: true, ProtocolLogger: c.Logger(), Logger: logger})
	require.NoError(t, tx.SetSink(transport.NewWriterSink(io.Discard, "discard")))
	out.Reset()
	require.NoError(t, tx.SendFrame(0x009C))
	c.Close()

	assert.Equal(t, 1, strings.Count(out.String(), "msg=\"frame sent\""))
	assert.NotContains(t, out.String(), "msg=tmcc")
}

func TestLogOutputSwap(t *testing.T) {
	var first, second bytes.Buffer
	out := &logOutput{w: &first}
	logger := slog.New(slog.NewTextHandler(out, nil))

	logger.Info("before")
	out.Set(&second)
	logger.Info("after")

	assert.Contains(t, first.String(), "before")
	assert.NotContains(t, first.String(), "after")
	assert.Contains(t, second.String(), "after")
}
