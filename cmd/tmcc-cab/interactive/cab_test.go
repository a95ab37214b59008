package interactive

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcasale/esp-lionel/pkg/engine"
	"github.com/lcasale/esp-lionel/pkg/transport"
	"github.com/lcasale/esp-lionel/pkg/wire"
)

type testCab struct {
	cab  *Cab
	wire *bytes.Buffer
	out  *bytes.Buffer
}

func newTestCab(t *testing.T) *testCab {
	t.Helper()
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))

	cfg := transport.DefaultConfig()
	cfg.Logger = quiet
	tx := transport.NewTransmitter(cfg)

	var sent bytes.Buffer
	require.NoError(t, tx.SetSink(transport.NewWriterSink(&sent, "buffer")))

	hudson := engine.DefaultConfig()
	hudson.Name = "Hudson"
	hudson.Logger = quiet
	gg1 := engine.DefaultConfig()
	gg1.Name = "GG1"
	gg1.Address = 12
	gg1.MaxSpeed = 31
	gg1.Logger = quiet

	var out bytes.Buffer
	cab := New(tx, []*engine.Engine{engine.New(tx, hudson), engine.New(tx, gg1)}, &out)
	return &testCab{cab: cab, wire: &sent, out: &out}
}

func frames(w wire.Word, n int) []byte {
	return wire.AppendFrames(nil, w, n)
}

func TestExecSendsWords(t *testing.T) {
	tests := []struct {
		line string
		want []byte
	}{
		{"speed 10", frames(wire.EngineSpeedWord(1, 10), 1)},
		{"s 40", frames(wire.EngineSpeedWord(1, 18), 1)},
		{"stop", frames(wire.EngineSpeedWord(1, 0), 1)},
		{"faster", frames(wire.RelativeSpeedWord(1, 1), 1)},
		{"faster 2", frames(wire.RelativeSpeedWord(1, 2), 1)},
		{"faster 9", frames(wire.RelativeSpeedWord(1, 5), 1)},
		{"horn", frames(wire.EngineActionWord(1, wire.ActionBlowHorn1), 30)},
		{"bell", frames(wire.EngineActionWord(1, wire.ActionRingBell), 30)},
		{"letoff", frames(wire.EngineActionWord(1, wire.ActionLetOffSound), 1)},
		{"front", frames(wire.EngineActionWord(1, wire.ActionFrontCoupler), 1)},
		{"REV", frames(wire.EngineActionWord(1, wire.ActionReverse), 1)},
		{"aux1-on", frames(wire.EngineActionWord(1, wire.ActionAux1On), 1)},
		{"momentum high", frames(wire.EngineExtendedWord(1, wire.ExtMomentumHigh), 1)},
		{"program", frames(wire.EngineExtendedWord(1, wire.ExtSetAddress), 1)},
		{"halt", frames(wire.HaltWord, 10)},
		{"raw 55 aa 0x00 FF", []byte{0x55, 0xAA, 0x00, 0xFF}},
		{"word 0x009C", []byte{0xFE, 0x00, 0x9C}},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			tc := newTestCab(t)
			require.NoError(t, tc.cab.ExecLine(tt.line))
			assert.Equal(t, tt.want, tc.wire.Bytes())
		})
	}
}

func TestExecRelativeSpeedStaysWithinLimit(t *testing.T) {
	tc := newTestCab(t)

	require.NoError(t, tc.cab.ExecLine("slower"))
	assert.Empty(t, tc.wire.Bytes(), "already at rest")

	require.NoError(t, tc.cab.ExecLine("speed 16"))
	tc.wire.Reset()
	require.NoError(t, tc.cab.ExecLine("faster 5"))
	assert.Equal(t, frames(wire.RelativeSpeedWord(1, 2), 1), tc.wire.Bytes())
	assert.Equal(t, uint8(18), tc.cab.Current().CurrentSpeed())

	tc.wire.Reset()
	require.NoError(t, tc.cab.ExecLine("faster"))
	assert.Empty(t, tc.wire.Bytes(), "already at max speed")
}

func TestExecTestPattern(t *testing.T) {
	tc := newTestCab(t)
	require.NoError(t, tc.cab.ExecLine("test"))

	want := append(append([]byte(nil), transport.TestPattern...), 0xFE, 0x00, 0x9C)
	assert.Equal(t, want, tc.wire.Bytes())
}

func TestExecSelectEngine(t *testing.T) {
	tc := newTestCab(t)

	require.NoError(t, tc.cab.ExecLine("engine gg1"))
	assert.Equal(t, "GG1", tc.cab.Current().Name())
	assert.Contains(t, tc.out.String(), "GG1 #12")

	require.NoError(t, tc.cab.ExecLine("speed 25"))
	assert.Equal(t, frames(wire.EngineSpeedWord(12, 25), 1), tc.wire.Bytes())

	require.NoError(t, tc.cab.ExecLine("e #1"))
	assert.Equal(t, "Hudson", tc.cab.Current().Name())

	err := tc.cab.ExecLine("engine Big Boy")
	assert.ErrorContains(t, err, `no engine "Big Boy"`)
}

func TestExecStateCommands(t *testing.T) {
	tc := newTestCab(t)

	require.NoError(t, tc.cab.ExecLine("max 5"))
	require.NoError(t, tc.cab.ExecLine("speed 20"))
	assert.Equal(t, uint8(5), tc.cab.Current().CurrentSpeed())

	require.NoError(t, tc.cab.ExecLine("address 200"))
	assert.Equal(t, uint8(200&0x7F), tc.cab.Current().Address())

	tc.out.Reset()
	require.NoError(t, tc.cab.ExecLine("status"))
	assert.Equal(t, "Hudson #72: speed 5/5 forward, momentum low\n", tc.out.String())

	tc.out.Reset()
	require.NoError(t, tc.cab.ExecLine("engines"))
	lines := strings.Split(strings.TrimSpace(tc.out.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "* Hudson"))
	assert.True(t, strings.HasPrefix(lines[1], "  GG1"))
}

func TestExecStats(t *testing.T) {
	tc := newTestCab(t)
	require.NoError(t, tc.cab.ExecLine("horn"))
	require.NoError(t, tc.cab.ExecLine("stats"))
	assert.Contains(t, tc.out.String(), "writes 1, frames 30, bytes 90, errors 0")
}

func TestExecErrors(t *testing.T) {
	tests := []struct {
		line  string
		usage bool
	}{
		{"speed", true},
		{"speed fast", true},
		{"faster -2", true},
		{"momentum", true},
		{"raw zz", true},
		{"word 0x10000", true},
		{"momentum ludicrous", false},
		{"whistle", false},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			tc := newTestCab(t)
			err := tc.cab.ExecLine(tt.line)
			require.Error(t, err)
			assert.Equal(t, tt.usage, errors.Is(err, ErrUsage), "err = %v", err)
			assert.Empty(t, tc.wire.Bytes())
		})
	}
}

func TestExecQuitAndBlank(t *testing.T) {
	tc := newTestCab(t)
	assert.NoError(t, tc.cab.ExecLine("   "))
	for _, cmd := range []string{"quit", "exit", "q"} {
		assert.ErrorIs(t, tc.cab.ExecLine(cmd), ErrQuit)
	}
}

func TestExecNoSink(t *testing.T) {
	cfg := transport.DefaultConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	tx := transport.NewTransmitter(cfg)
	ecfg := engine.DefaultConfig()
	ecfg.Logger = cfg.Logger
	cab := New(tx, []*engine.Engine{engine.New(tx, ecfg)}, io.Discard)

	for _, line := range []string{"speed 3", "horn", "halt", "test", "raw 55"} {
		assert.ErrorIs(t, cab.ExecLine(line), transport.ErrNoSink, line)
	}
	assert.Equal(t, uint8(3), cab.Current().CurrentSpeed())
}

func TestHelpListsCommands(t *testing.T) {
	tc := newTestCab(t)
	require.NoError(t, tc.cab.ExecLine("help"))
	for _, cmd := range []string{"speed", "horn", "momentum", "engine", "halt", "raw", "quit"} {
		assert.Contains(t, tc.out.String(), cmd)
	}
}
