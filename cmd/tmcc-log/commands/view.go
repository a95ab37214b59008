// Package commands implements the tmcc-log CLI commands.
package commands

import (
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/lcasale/esp-lionel/pkg/log"
	"github.com/lcasale/esp-lionel/pkg/wire"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Layer    *log.Layer
	Category *log.Category
	Word     *uint16
}

func (f ViewFilter) logFilter() log.Filter {
	return log.Filter{Layer: f.Layer, Category: f.Category, Word: f.Word}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [sess:id] LAYER Type sink
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	sessionID := shortenID(event.SessionID)

	var typeLabel string
	switch {
	case event.Frame != nil && event.Category == log.CategoryRaw:
		typeLabel = "Raw"
	case event.Frame != nil:
		typeLabel = "Frame"
	case event.StateChange != nil:
		typeLabel = "State"
	case event.Error != nil:
		typeLabel = "Error"
	default:
		typeLabel = "Unknown"
	}

	fmt.Fprintf(w, "%s [sess:%s] %s %s", ts, sessionID, event.Layer.String(), typeLabel)
	if event.Sink != "" {
		fmt.Fprintf(w, " -> %s", event.Sink)
	}
	fmt.Fprintln(w)

	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame, event.Category == log.CategoryRaw)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenID returns the first 8 characters of a session ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

// describeWord decodes a command word, e.g. "ENGINE 1 ACTION horn".
func describeWord(word uint16) string {
	return wire.DecodeWord(wire.Word(word)).String()
}

// formatFrameDetails writes frame-specific details.
func formatFrameDetails(w io.Writer, frame *log.FrameEvent, raw bool) {
	if !raw {
		fmt.Fprintf(w, "  Word: %s  %s", wire.Word(frame.Word), describeWord(frame.Word))
		if frame.Repetitions > 1 {
			fmt.Fprintf(w, "  x%d", frame.Repetitions)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "  Size: %d bytes", frame.Size)
	if frame.Flushed {
		fmt.Fprint(w, " (flushed)")
	}
	fmt.Fprintln(w)

	if len(frame.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", hex.EncodeToString(frame.Data))
		if frame.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

// formatStateChangeDetails writes state change details.
func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Engine %d %s", sc.Address, sc.Field)
	if sc.OldValue != "" {
		fmt.Fprintf(w, ": %s -> %s\n", sc.OldValue, sc.NewValue)
	} else {
		fmt.Fprintf(w, ": -> %s\n", sc.NewValue)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

// formatErrorDetails writes error details.
func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer.String())
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// ParseLayerFlag parses a layer string from command-line flag (case-insensitive).
func ParseLayerFlag(s string) (log.Layer, error) {
	return parseLayer(s)
}

// parseLayer parses a layer string (case-insensitive).
func parseLayer(s string) (log.Layer, error) {
	switch strings.ToLower(s) {
	case "transport":
		return log.LayerTransport, nil
	case "engine":
		return log.LayerEngine, nil
	default:
		return 0, fmt.Errorf("invalid layer: %s (must be transport or engine)", s)
	}
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	return parseCategory(s)
}

// parseCategory parses a category string (case-insensitive).
func parseCategory(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "frame":
		return log.CategoryFrame, nil
	case "raw":
		return log.CategoryRaw, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be frame, raw, state, or error)", s)
	}
}

// ParseWordFlag parses a command word in hex, with or without 0x.
func ParseWordFlag(s string) (uint16, error) {
	s = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(s)), "0x")
	v, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, fmt.Errorf("invalid word: %q (want hex, e.g. 0x009C)", s)
	}
	return uint16(v), nil
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter.logFilter())
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		formatEvent(output, event)
	}

	return nil
}
