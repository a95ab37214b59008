package commands

import (
	"encoding/csv"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/lcasale/esp-lionel/pkg/log"
	"github.com/lcasale/esp-lionel/pkg/wire"
)

// exportRecord is the flat JSON shape of one event.
type exportRecord struct {
	Timestamp   string `json:"timestamp"`
	SessionID   string `json:"session_id"`
	Layer       string `json:"layer"`
	Category    string `json:"category"`
	Sink        string `json:"sink,omitempty"`
	Word        string `json:"word,omitempty"`
	Command     string `json:"command,omitempty"`
	Repetitions int    `json:"repetitions,omitempty"`
	Size        int    `json:"size,omitempty"`
	Data        string `json:"data,omitempty"`
	Flushed     bool   `json:"flushed,omitempty"`
	Engine      *uint8 `json:"engine,omitempty"`
	Field       string `json:"field,omitempty"`
	OldValue    string `json:"old_value,omitempty"`
	NewValue    string `json:"new_value,omitempty"`
	Reason      string `json:"reason,omitempty"`
	Error       string `json:"error,omitempty"`
	Context     string `json:"context,omitempty"`
}

func toRecord(event log.Event) exportRecord {
	rec := exportRecord{
		Timestamp: event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z"),
		SessionID: event.SessionID,
		Layer:     event.Layer.String(),
		Category:  event.Category.String(),
		Sink:      event.Sink,
	}
	if f := event.Frame; f != nil {
		if event.Category == log.CategoryFrame {
			rec.Word = wire.Word(f.Word).String()
			rec.Command = describeWord(f.Word)
			rec.Repetitions = f.Repetitions
		}
		rec.Size = f.Size
		rec.Data = hex.EncodeToString(f.Data)
		rec.Flushed = f.Flushed
	}
	if sc := event.StateChange; sc != nil {
		addr := sc.Address
		rec.Engine = &addr
		rec.Field = sc.Field
		rec.OldValue = sc.OldValue
		rec.NewValue = sc.NewValue
		rec.Reason = sc.Reason
	}
	if e := event.Error; e != nil {
		rec.Error = e.Message
		rec.Context = e.Context
	}
	return rec
}

// RunExport exports the log file to the specified format.
func RunExport(path, format, output string) error {
	reader, err := log.NewReader(path)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	// Determine output writer
	var w io.Writer = os.Stdout
	if output != "" {
		f, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		w = f
	}

	switch format {
	case "jsonl":
		return exportJSONL(reader, w)
	case "csv":
		return exportCSV(reader, w)
	default:
		return fmt.Errorf("unknown format: %s (supported: jsonl, csv)", format)
	}
}

func exportJSONL(reader *log.Reader, w io.Writer) error {
	encoder := json.NewEncoder(w)
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		if err := encoder.Encode(toRecord(event)); err != nil {
			return fmt.Errorf("failed to encode event: %w", err)
		}
	}
	return nil
}

func exportCSV(reader *log.Reader, w io.Writer) error {
	cw := csv.NewWriter(w)
	defer cw.Flush()

	header := []string{"timestamp", "session_id", "layer", "category", "sink", "word", "command", "repetitions", "size", "detail"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		rec := toRecord(event)
		detail := rec.Data
		switch {
		case event.StateChange != nil:
			detail = fmt.Sprintf("engine %d %s %s->%s", *rec.Engine, rec.Field, rec.OldValue, rec.NewValue)
		case event.Error != nil:
			detail = rec.Error
		}

		reps, size := "", ""
		if rec.Repetitions > 0 {
			reps = strconv.Itoa(rec.Repetitions)
		}
		if rec.Size > 0 {
			size = strconv.Itoa(rec.Size)
		}

		row := []string{
			rec.Timestamp,
			rec.SessionID,
			rec.Layer,
			rec.Category,
			rec.Sink,
			rec.Word,
			rec.Command,
			reps,
			size,
			detail,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("failed to write row: %w", err)
		}
	}
	return nil
}
