package metrics

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/lcasale/esp-lionel/pkg/engine"
	"github.com/lcasale/esp-lionel/pkg/log"
	"github.com/lcasale/esp-lionel/pkg/transport"
	"github.com/lcasale/esp-lionel/pkg/wire"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	return rec.Body.String()
}

func TestCollectorCountsTransmitterActivity(t *testing.T) {
	c := NewCollector()
	tx := transport.NewTransmitter(transport.Config{Flush: true, ProtocolLogger: c})
	require.NoError(t, tx.SetSink(transport.NewWriterSink(io.Discard, "discard")))

	require.NoError(t, tx.SendEngineActionRepeated(1, wire.ActionBlowHorn1, 30))
	require.NoError(t, tx.SendEngineSpeed(1, 10))
	require.NoError(t, tx.SystemHalt())
	require.NoError(t, tx.SendRawBytes([]byte{0x55, 0xAA}))

	body := scrape(t, c)
	assert.Contains(t, body, `tmcc_transport_frames_total{command="horn",object="engine"} 30`)
	assert.Contains(t, body, `tmcc_transport_frames_total{command="absolute-speed",object="engine"} 1`)
	assert.Contains(t, body, `tmcc_transport_frames_total{command="halt",object="halt"} 10`)
	assert.Contains(t, body, `tmcc_transport_writes_total{kind="frame"} 3`)
	assert.Contains(t, body, `tmcc_transport_writes_total{kind="raw"} 1`)
	assert.Contains(t, body, "tmcc_transport_bytes_total 125")
}

func TestCollectorCountsErrors(t *testing.T) {
	c := NewCollector()
	tx := transport.NewTransmitter(transport.Config{ProtocolLogger: c})

	assert.ErrorIs(t, tx.SendFrame(0x009C), transport.ErrNoSink)
	assert.ErrorIs(t, tx.SystemHalt(), transport.ErrNoSink)

	assert.Contains(t, scrape(t, c), `tmcc_send_errors_total{layer="transport"} 2`)
}

func TestCollectorEngineState(t *testing.T) {
	c := NewCollector()
	tx := transport.NewTransmitter(transport.Config{ProtocolLogger: c})
	require.NoError(t, tx.SetSink(transport.NewWriterSink(io.Discard, "discard")))

	cfg := engine.DefaultConfig()
	cfg.Address = 7
	cfg.ProtocolLogger = c
	e := engine.New(tx, cfg)
	require.NoError(t, e.SetSpeed(200))
	require.NoError(t, e.SetMomentum(engine.MomentumHigh))

	body := scrape(t, c)
	assert.Contains(t, body, `tmcc_engine_speed{address="7"} 18`)
	assert.Contains(t, body, `tmcc_engine_state_changes_total{field="speed"} 1`)
	assert.Contains(t, body, `tmcc_transport_frames_total{command="momentum-high",object="engine"} 1`)
}

func TestCommandLabel(t *testing.T) {
	tests := []struct {
		w      wire.Word
		object string
		cmd    string
	}{
		{wire.EngineActionWord(1, wire.ActionRingBell), "engine", "bell"},
		{wire.RelativeSpeedWord(1, -2), "engine", "relative-speed"},
		{wire.MakeWord(wire.ObjectTrain, 3, wire.ClassAction, uint(wire.ActionBoost)), "train", "boost"},
		{wire.MakeWord(wire.ObjectSwitch, 4, wire.ClassAction, 1), "switch", "action"},
		{wire.HaltWord, "halt", "halt"},
	}

	for _, tt := range tests {
		f := wire.DecodeWord(tt.w)
		assert.Equal(t, tt.object, objectLabel(f), tt.w.String())
		assert.Equal(t, tt.cmd, commandLabel(f), tt.w.String())
	}
}

func TestCollectorIgnoresEmptyPayloads(t *testing.T) {
	c := NewCollector()
	assert.NotPanics(t, func() {
		c.Log(log.Event{Category: log.CategoryFrame})
		c.Log(log.Event{Category: log.CategoryState})
		c.Log(log.Event{Category: log.CategoryError})
	})
}

func TestServe(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	ln.Close()

	c := NewCollector()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Serve(ctx, addr) }()

	var resp *http.Response
	require.Eventually(t, func() bool {
		resp, err = http.Get("http://" + addr + "/metrics")
		return err == nil
	}, 2*time.Second, 20*time.Millisecond)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(3 * time.Second):
		t.Fatal("server did not stop")
	}
}
