package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/lcasale/esp-lionel/pkg/log"
)

// FilterOptions specifies filtering criteria for the filter command.
type FilterOptions struct {
	Output    string
	SessionID string
	TimeStart string
	TimeEnd   string
	Layer     string
	Category  string
	Word      string
}

// RunFilter filters the log file, writes matching events to a new file and
// returns how many were written.
func RunFilter(path string, opts FilterOptions) (int, error) {
	filter := log.Filter{
		SessionID: opts.SessionID,
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return 0, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return 0, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	if opts.Layer != "" {
		l, err := parseLayer(opts.Layer)
		if err != nil {
			return 0, err
		}
		filter.Layer = &l
	}

	if opts.Category != "" {
		c, err := parseCategory(opts.Category)
		if err != nil {
			return 0, err
		}
		filter.Category = &c
	}

	if opts.Word != "" {
		w, err := ParseWordFlag(opts.Word)
		if err != nil {
			return 0, err
		}
		filter.Word = &w
	}

	// Open input
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return 0, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	// Create file logger to write filtered events
	logger, err := log.NewFileLogger(opts.Output)
	if err != nil {
		return 0, fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, fmt.Errorf("failed to read event: %w", err)
		}

		logger.Log(event)
		count++
	}

	return count, nil
}
