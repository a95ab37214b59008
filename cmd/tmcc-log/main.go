// Command tmcc-log views and analyzes TMCC capture files.
//
// Capture files are written by tmcc-cab when run with -protocol-log.
//
// Usage:
//
//	tmcc-log <command> [flags] <file.tlog>
//
// Commands:
//
//	view     View capture in human-readable format
//	export   Export capture to JSONL or CSV
//	filter   Filter capture and write to new file
//	stats    Show statistics about the capture
//
// Examples:
//
//	# View all events
//	tmcc-log view cab.tlog
//
//	# View only horn bursts
//	tmcc-log view -word 0x009C cab.tlog
//
//	# Export to CSV
//	tmcc-log export -format csv -o cab.csv cab.tlog
//
//	# Keep one session
//	tmcc-log filter -session abc12345-... -o session.tlog cab.tlog
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/lcasale/esp-lionel/cmd/tmcc-log/commands"
)

const usage = `tmcc-log - TMCC Capture Log Analyzer

Usage:
  tmcc-log <command> [flags] <file.tlog>

Commands:
  view     View capture in human-readable format
  export   Export capture to JSONL or CSV
  filter   Filter capture and write to new file
  stats    Show statistics about the capture

Use "tmcc-log <command> -help" for more information about a command.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "view":
		runView(args)
	case "export":
		runExport(args)
	case "filter":
		runFilter(args)
	case "stats":
		runStats(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		fmt.Fprint(os.Stderr, usage)
		os.Exit(1)
	}
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func requirePath(fs *flag.FlagSet) string {
	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Error: log file path required")
		fs.Usage()
		os.Exit(1)
	}
	return fs.Arg(0)
}

func runView(args []string) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `tmcc-log view - View capture in human-readable format

Usage:
  tmcc-log view [flags] <file.tlog>

Flags:
`)
		fs.PrintDefaults()
	}

	layer := fs.String("layer", "", "Filter by layer (transport, engine)")
	category := fs.String("category", "", "Filter by category (frame, raw, state, error)")
	word := fs.String("word", "", "Filter by command word in hex (e.g. 0x009C)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	var filter commands.ViewFilter

	if *layer != "" {
		l, err := commands.ParseLayerFlag(*layer)
		if err != nil {
			fatal(err)
		}
		filter.Layer = &l
	}

	if *category != "" {
		c, err := commands.ParseCategoryFlag(*category)
		if err != nil {
			fatal(err)
		}
		filter.Category = &c
	}

	if *word != "" {
		w, err := commands.ParseWordFlag(*word)
		if err != nil {
			fatal(err)
		}
		filter.Word = &w
	}

	if err := commands.RunView(path, filter, os.Stdout); err != nil {
		fatal(err)
	}
}

func runExport(args []string) {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `tmcc-log export - Export capture to JSONL or CSV

Usage:
  tmcc-log export [flags] <file.tlog>

Flags:
`)
		fs.PrintDefaults()
	}

	format := fs.String("format", "jsonl", "Output format (jsonl, csv)")
	output := fs.String("o", "", "Output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunExport(path, *format, *output); err != nil {
		fatal(err)
	}
}

func runFilter(args []string) {
	fs := flag.NewFlagSet("filter", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `tmcc-log filter - Filter capture and write to new file

Usage:
  tmcc-log filter [flags] <file.tlog>

Flags:
`)
		fs.PrintDefaults()
	}

	output := fs.String("o", "", "Output file (required)")
	session := fs.String("session", "", "Filter by session ID")
	timeStart := fs.String("time-start", "", "Filter by start time (RFC3339)")
	timeEnd := fs.String("time-end", "", "Filter by end time (RFC3339)")
	layer := fs.String("layer", "", "Filter by layer (transport, engine)")
	category := fs.String("category", "", "Filter by category (frame, raw, state, error)")
	word := fs.String("word", "", "Filter by command word in hex")

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if *output == "" {
		fmt.Fprintln(os.Stderr, "Error: output file (-o) required")
		fs.Usage()
		os.Exit(1)
	}

	opts := commands.FilterOptions{
		Output:    *output,
		SessionID: *session,
		TimeStart: *timeStart,
		TimeEnd:   *timeEnd,
		Layer:     *layer,
		Category:  *category,
		Word:      *word,
	}

	n, err := commands.RunFilter(path, opts)
	if err != nil {
		fatal(err)
	}
	fmt.Printf("Filtered %d events to %s\n", n, *output)
}

func runStats(args []string) {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, `tmcc-log stats - Show statistics about the capture

Usage:
  tmcc-log stats <file.tlog>

`)
	}

	if err := fs.Parse(args); err != nil {
		os.Exit(1)
	}
	path := requirePath(fs)

	if err := commands.RunStats(path, os.Stdout); err != nil {
		fatal(err)
	}
}
