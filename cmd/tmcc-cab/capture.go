package main

import (
	"context"
	"log/slog"

	"github.com/lcasale/esp-lionel/pkg/config"
	"github.com/lcasale/esp-lionel/pkg/log"
	"github.com/lcasale/esp-lionel/pkg/metrics"
)

// capture fans protocol events out to the capture file, the metrics
// collector and, at debug level, the console.
type capture struct {
	file    *log.FileLogger
	multi   *log.MultiLogger
	logger  *slog.Logger
	metrics *metrics.Collector
}

func newCapture(ctx context.Context, cfg config.Config, logger *slog.Logger) (*capture, error) {
	c := &capture{logger: logger}
	var sinks []log.Logger

	if cfg.ProtocolLog != "" {
		f, err := log.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			return nil, err
		}
		c.file = f
		sinks = append(sinks, f)
		logger.Info("protocol capture enabled", "path", cfg.ProtocolLog)
	}

	if cfg.MetricsAddr != "" {
		c.metrics = metrics.NewCollector()
		sinks = append(sinks, c.metrics)
		go func() {
			if err := c.metrics.Serve(ctx, cfg.MetricsAddr); err != nil {
				logger.Error("metrics server stopped", "addr", cfg.MetricsAddr, "error", err)
			}
		}()
		logger.Info("serving metrics", "addr", cfg.MetricsAddr)
	}

	// Frames already reach the console through the transmitter's own
	// debug line, so only engine events are echoed here.
	if logger.Enabled(ctx, slog.LevelDebug) {
		engine := log.LayerEngine
		sinks = append(sinks, log.NewFilterLogger(log.NewSlogAdapter(logger), log.Filter{Layer: &engine}))
	}

	c.multi = log.NewMultiLogger(sinks...)
	return c, nil
}

// Logger returns the fan-out logger, or nil when nothing is attached.
func (c *capture) Logger() log.Logger {
	if c.multi.Len() == 0 {
		return nil
	}
	return c.multi
}

// Close closes the capture file and reports dropped events.
func (c *capture) Close() {
	if c.file == nil {
		return
	}
	if n := c.file.Dropped(); n > 0 {
		c.logger.Warn("capture events dropped", "count", n)
	}
	if err := c.file.Close(); err != nil {
		c.logger.Error("closing capture file", "path", c.file.Path(), "error", err)
	}
}
