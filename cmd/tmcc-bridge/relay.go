package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/lcasale/esp-lionel/pkg/transport"
	"github.com/lcasale/esp-lionel/pkg/wire"
)

// Relay forwards bytes from TCP clients to one sink. Complete frames are
// written whole, so frames from concurrent clients never interleave.
type Relay struct {
	sink   transport.Sink
	logger *slog.Logger

	wg sync.WaitGroup
}

// NewRelay serializes access to sink.
func NewRelay(sink transport.Sink, logger *slog.Logger) *Relay {
	return &Relay{
		sink:   transport.NewSyncSink(sink),
		logger: logger,
	}
}

// Serve accepts clients until ctx is cancelled or ln fails. When Accept
// fails, open clients are disconnected before Serve returns.
func (r *Relay) Serve(ctx context.Context, ln net.Listener) error {
	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() {
		<-connCtx.Done()
		_ = ln.Close()
	}()

	for {
		conn, err := ln.Accept()
		if err != nil {
			cancel()
			r.wg.Wait()
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			r.handle(connCtx, conn)
		}()
	}
}

func (r *Relay) handle(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	remote := conn.RemoteAddr().String()
	r.logger.Info("client connected", "remote", remote)

	if err := r.Forward(conn); err != nil && ctx.Err() == nil {
		r.logger.Warn("client dropped", "remote", remote, "error", err)
		return
	}
	r.logger.Info("client disconnected", "remote", remote)
}

// burstIdle is how long a held run of frames waits for more repeats.
const burstIdle = 20 * time.Millisecond

type deadliner interface {
	SetReadDeadline(t time.Time) error
}

// Forward copies src to the sink until EOF. A trailing run of identical
// frames is held until a different word or raw bytes follow, the run
// reaches wire.MaxRepetitions, or src stays idle for burstIdle. A trailing
// partial frame is held until the rest arrives; at EOF it is discarded.
func (r *Relay) Forward(src io.Reader) error {
	buf := make([]byte, 512)
	dl, _ := src.(deadliner)
	var pending []byte

	for {
		if dl != nil {
			var deadline time.Time
			if len(pending) >= wire.FrameSize && pending[0] == wire.FrameHeader {
				deadline = time.Now().Add(burstIdle)
			}
			if err := dl.SetReadDeadline(deadline); err != nil {
				return err
			}
		}

		n, err := src.Read(buf)
		if n > 0 {
			var werr error
			pending, werr = r.write(append(pending, buf[:n]...), false)
			if werr != nil {
				return werr
			}
		}
		switch {
		case errors.Is(err, os.ErrDeadlineExceeded):
			var werr error
			if pending, werr = r.write(pending, true); werr != nil {
				return werr
			}
		case errors.Is(err, io.EOF):
			rest, werr := r.write(pending, true)
			if len(rest) > 0 {
				r.logger.Warn("discarding partial frame", "bytes", len(rest))
			}
			return werr
		case err != nil:
			return err
		}
	}
}

// write sends complete frames in as few writes as possible and passes
// unframed bytes through verbatim. Unless final is set, a trailing run of
// identical frames shorter than wire.MaxRepetitions is returned with any
// incomplete frame so a burst split across reads still goes out whole.
func (r *Relay) write(p []byte, final bool) ([]byte, error) {
	for len(p) > 0 {
		frames, rest := wire.SplitFrames(p)
		if len(frames) > 0 {
			end := len(frames)
			if !final && (len(rest) == 0 || rest[0] == wire.FrameHeader) {
				if start := runStart(frames); end-start < wire.MaxRepetitions {
					end = start
				}
			}
			if end == 0 {
				return p, nil
			}
			if err := r.send(p[:end*wire.FrameSize]); err != nil {
				return nil, err
			}
			r.logger.Debug("frames relayed", "word", frames[0].Word(), "count", end)
			p = p[end*wire.FrameSize:]
			continue
		}
		if p[0] == wire.FrameHeader {
			return p, nil
		}

		i := bytes.IndexByte(p, wire.FrameHeader)
		if i < 0 {
			i = len(p)
		}
		if err := r.send(p[:i]); err != nil {
			return nil, err
		}
		r.logger.Debug("raw bytes relayed", "bytes", i)
		p = p[i:]
	}
	return nil, nil
}

// runStart returns the index where the trailing run of equal frames begins.
func runStart(frames []wire.Frame) int {
	i := len(frames) - 1
	for i > 0 && frames[i-1] == frames[i] {
		i--
	}
	return i
}

func (r *Relay) send(p []byte) error {
	n, err := r.sink.Write(p)
	if err != nil {
		return err
	}
	if n != len(p) {
		return transport.ErrShortWrite
	}
	return r.sink.Flush()
}
