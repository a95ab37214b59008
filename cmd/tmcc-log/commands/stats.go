package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/lcasale/esp-lionel/pkg/log"
	"github.com/lcasale/esp-lionel/pkg/wire"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsByLayer    map[log.Layer]int
	EventsByCategory map[log.Category]int
	Sessions         map[string]*SessionStats
	FramesByCommand  map[string]int
	Bytes            int
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for a single transmitter session.
type SessionStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Writes    int
	Sink      string
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := newStats()
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		stats.add(event)
	}

	printStats(w, stats)
	return nil
}

func newStats() *Stats {
	return &Stats{
		EventsByLayer:    make(map[log.Layer]int),
		EventsByCategory: make(map[log.Category]int),
		Sessions:         make(map[string]*SessionStats),
		FramesByCommand:  make(map[string]int),
	}
}

func (s *Stats) add(event log.Event) {
	s.TotalEvents++
	s.EventsByLayer[event.Layer]++
	s.EventsByCategory[event.Category]++

	// Track time range
	if s.TimeRange.Start.IsZero() || event.Timestamp.Before(s.TimeRange.Start) {
		s.TimeRange.Start = event.Timestamp
	}
	if event.Timestamp.After(s.TimeRange.End) {
		s.TimeRange.End = event.Timestamp
	}

	sess, ok := s.Sessions[event.SessionID]
	if !ok {
		sess = &SessionStats{
			FirstSeen: event.Timestamp,
			LastSeen:  event.Timestamp,
		}
		s.Sessions[event.SessionID] = sess
	}
	sess.Events++
	if event.Timestamp.After(sess.LastSeen) {
		sess.LastSeen = event.Timestamp
	}
	if event.Sink != "" && sess.Sink == "" {
		sess.Sink = event.Sink
	}

	if event.Frame != nil {
		sess.Writes++
		s.Bytes += event.Frame.Size
		if event.Category == log.CategoryFrame {
			fields := wire.DecodeWord(wire.Word(event.Frame.Word))
			s.FramesByCommand[commandName(fields)] += event.Frame.Repetitions
		}
	}

	if event.Error != nil {
		s.Errors++
	}
}

// commandName drops the address from a decoded word.
func commandName(f wire.Fields) string {
	switch {
	case f.Halt:
		return "HALT"
	case f.Unknown:
		return "UNKNOWN"
	}
	if f.Object == wire.ObjectEngine || f.Object == wire.ObjectTrain {
		switch f.Class {
		case wire.ClassAction:
			return f.Object.String() + " " + wire.EngineAction(f.Data).String()
		case wire.ClassExtended:
			return f.Object.String() + " " + wire.ExtendedCommand(f.Data).String()
		}
	}
	return f.Object.String() + " " + f.Class.String()
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== TMCC Capture Statistics ===")
	fmt.Fprintln(w)

	// Time range
	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintf(w, "Bytes Sent:   %d\n", stats.Bytes)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Layer:")
	for _, layer := range []log.Layer{log.LayerTransport, log.LayerEngine} {
		if count := stats.EventsByLayer[layer]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", layer.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryFrame, log.CategoryRaw, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.FramesByCommand) > 0 {
		fmt.Fprintln(w, "Frames by Command:")
		names := make([]string, 0, len(stats.FramesByCommand))
		for name := range stats.FramesByCommand {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %-28s %d\n", name+":", stats.FramesByCommand[name])
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Sessions: %d\n", len(stats.Sessions))
	if len(stats.Sessions) > 0 {
		type sessInfo struct {
			id    string
			stats *SessionStats
		}
		sessions := make([]sessInfo, 0, len(stats.Sessions))
		for id, ss := range stats.Sessions {
			sessions = append(sessions, sessInfo{id, ss})
		}
		sort.Slice(sessions, func(i, j int) bool {
			return sessions[i].stats.FirstSeen.Before(sessions[j].stats.FirstSeen)
		})

		fmt.Fprintln(w, "")
		for _, s := range sessions {
			duration := s.stats.LastSeen.Sub(s.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, %d writes, duration %s\n", shortenID(s.id), s.stats.Events, s.stats.Writes, duration)
			if s.stats.Sink != "" {
				fmt.Fprintf(w, "           Sink: %s\n", s.stats.Sink)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
