package log

import (
	"context"
	"encoding/hex"
	"log/slog"
)

// SlogAdapter writes capture events to an slog.Logger.
// Useful on the bench when you want to see every burst in the console.
type SlogAdapter struct {
	logger *slog.Logger
	level  slog.Level
}

// NewSlogAdapter creates an adapter that logs at Debug level.
func NewSlogAdapter(logger *slog.Logger) *SlogAdapter {
	return &SlogAdapter{logger: logger, level: slog.LevelDebug}
}

// WithLevel returns a copy of the adapter logging at level.
func (a *SlogAdapter) WithLevel(level slog.Level) *SlogAdapter {
	return &SlogAdapter{logger: a.logger, level: level}
}

// Log writes the event as a single "tmcc" record.
func (a *SlogAdapter) Log(event Event) {
	attrs := []slog.Attr{
		slog.String("session", event.SessionID),
		slog.String("layer", event.Layer.String()),
		slog.String("category", event.Category.String()),
	}
	if event.Sink != "" {
		attrs = append(attrs, slog.String("sink", event.Sink))
	}

	level := a.level
	switch {
	case event.Frame != nil:
		attrs = append(attrs,
			slog.Int("size", event.Frame.Size),
			slog.String("bytes", hex.EncodeToString(event.Frame.Data)),
		)
		if event.Frame.Repetitions > 0 {
			attrs = append(attrs,
				slog.String("word", formatWord(event.Frame.Word)),
				slog.Int("repetitions", event.Frame.Repetitions),
				slog.Bool("flushed", event.Frame.Flushed),
			)
		}
		if event.Frame.Truncated {
			attrs = append(attrs, slog.Bool("truncated", true))
		}
	case event.StateChange != nil:
		attrs = append(attrs,
			slog.Uint64("engine", uint64(event.StateChange.Address)),
			slog.String("field", event.StateChange.Field),
			slog.String("old", event.StateChange.OldValue),
			slog.String("new", event.StateChange.NewValue),
		)
		if event.StateChange.Reason != "" {
			attrs = append(attrs, slog.String("reason", event.StateChange.Reason))
		}
	case event.Error != nil:
		level = slog.LevelError
		attrs = append(attrs,
			slog.String("error_layer", event.Error.Layer.String()),
			slog.String("error_msg", event.Error.Message),
			slog.String("error_context", event.Error.Context),
		)
	}

	a.logger.LogAttrs(context.Background(), level, "tmcc", attrs...)
}

var _ Logger = (*SlogAdapter)(nil)
