// Package metrics exports transmitter activity to Prometheus.
//
// A Collector is a log.Logger: attach it to the transmitter and the engine
// facades (directly or through log.MultiLogger) and it counts what they
// report. Frame words are decoded so counters carry the object type and
// command name.
package metrics

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lcasale/esp-lionel/pkg/log"
	"github.com/lcasale/esp-lionel/pkg/wire"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "tmcc"

// Collector counts capture events.
type Collector struct {
	registry *prometheus.Registry

	writes       *prometheus.CounterVec
	frames       *prometheus.CounterVec
	bytes        prometheus.Counter
	errors       *prometheus.CounterVec
	stateChanges *prometheus.CounterVec
	engineSpeed  *prometheus.GaugeVec
	lastWrite    prometheus.Gauge
}

// NewCollector creates a collector with its own registry. Go runtime and
// process collectors are registered alongside.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		writes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "transport",
				Name:      "writes_total",
				Help:      "Sink writes by kind (frame or raw).",
			},
			[]string{"kind"},
		),
		frames: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "transport",
				Name:      "frames_total",
				Help:      "Frames written, counting each repetition.",
			},
			[]string{"object", "command"},
		),
		bytes: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "transport",
				Name:      "bytes_total",
				Help:      "Bytes accepted by the sink.",
			},
		),
		errors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "send_errors_total",
				Help:      "Failed or suppressed sends by layer.",
			},
			[]string{"layer"},
		),
		stateChanges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "state_changes_total",
				Help:      "Engine facade state changes by field.",
			},
			[]string{"field"},
		),
		engineSpeed: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "engine",
				Name:      "speed",
				Help:      "Last speed step sent to each engine address.",
			},
			[]string{"address"},
		),
		lastWrite: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "transport",
				Name:      "last_write_timestamp_seconds",
				Help:      "Unix time of the last successful write.",
			},
		),
	}

	c.registry.MustRegister(
		c.writes, c.frames, c.bytes, c.errors, c.stateChanges, c.engineSpeed, c.lastWrite,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return c
}

// Log implements log.Logger.
func (c *Collector) Log(e log.Event) {
	switch e.Category {
	case log.CategoryFrame, log.CategoryRaw:
		if e.Frame == nil {
			return
		}
		c.bytes.Add(float64(e.Frame.Size))
		c.lastWrite.Set(float64(e.Timestamp.UnixNano()) / float64(time.Second))
		if e.Category == log.CategoryRaw {
			c.writes.WithLabelValues("raw").Inc()
			return
		}
		c.writes.WithLabelValues("frame").Inc()
		f := wire.DecodeWord(wire.Word(e.Frame.Word))
		c.frames.WithLabelValues(objectLabel(f), commandLabel(f)).Add(float64(e.Frame.Repetitions))

	case log.CategoryError:
		layer := e.Layer
		if e.Error != nil {
			layer = e.Error.Layer
		}
		c.errors.WithLabelValues(strings.ToLower(layer.String())).Inc()

	case log.CategoryState:
		if e.StateChange == nil {
			return
		}
		sc := e.StateChange
		c.stateChanges.WithLabelValues(sc.Field).Inc()
		if sc.Field == "speed" {
			if v, err := strconv.ParseFloat(sc.NewValue, 64); err == nil {
				c.engineSpeed.WithLabelValues(strconv.Itoa(int(sc.Address))).Set(v)
			}
		}
	}
}

// Registry returns the collector's registry.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is cancelled.
func (c *Collector) Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func objectLabel(f wire.Fields) string {
	switch {
	case f.Halt:
		return "halt"
	case f.Unknown:
		return "unknown"
	default:
		return strings.ToLower(f.Object.String())
	}
}

func commandLabel(f wire.Fields) string {
	if f.Halt {
		return "halt"
	}
	if !f.Unknown && (f.Object == wire.ObjectEngine || f.Object == wire.ObjectTrain) {
		switch f.Class {
		case wire.ClassAction:
			return wire.EngineAction(f.Data).String()
		case wire.ClassExtended:
			return wire.ExtendedCommand(f.Data).String()
		}
	}
	return strings.ToLower(strings.ReplaceAll(f.Class.String(), "_", "-"))
}

var _ log.Logger = (*Collector)(nil)
