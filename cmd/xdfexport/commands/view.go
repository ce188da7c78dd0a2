// Package commands implements the xdfexport run log commands.
package commands

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/xdfexport/xdfexport-go/pkg/runlog"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	RunID    string
	Stage    *runlog.Stage
	MinLevel *runlog.Level
}

func (f ViewFilter) filter() runlog.Filter {
	return runlog.Filter{RunID: f.RunID, Stage: f.Stage, MinLevel: f.MinLevel}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event runlog.Event) {
	// Header line: timestamp [run:id] LEVEL stage message
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	fmt.Fprintf(w, "%s [run:%s] %-5s %-7s %s\n", ts, shortenRunID(event.RunID), event.Level, event.Stage, event.Message)

	switch {
	case event.Stage == runlog.StageStart:
		if event.Definition != "" {
			fmt.Fprintf(w, "  Definition: %s\n", event.Definition)
		}
		if event.Firmware != "" {
			fmt.Fprintf(w, "  Firmware: %s\n", event.Firmware)
		}
	case event.Counts != nil:
		fmt.Fprintf(w, "  Constants: %d  Flags: %d  Tables: %d\n", event.Counts.Constants, event.Counts.Flags, event.Counts.Tables)
	case event.Element != nil:
		formatElementDetails(w, event.Element)
	case event.Format != nil:
		formatFormatDetails(w, event.Format)
	case event.Result != nil:
		formatResultDetails(w, event.Result)
	}
}

// shortenRunID returns the first 8 characters of the run ID.
func shortenRunID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatElementDetails(w io.Writer, e *runlog.ElementEvent) {
	fmt.Fprintf(w, "  %s %q @ 0x%X", e.Kind, e.Title, e.Address)
	if e.Part != "" {
		fmt.Fprintf(w, " (%s)", e.Part)
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Reason: %s\n", e.Reason)
}

func formatFormatDetails(w io.Writer, f *runlog.FormatEvent) {
	if f.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", f.Error)
		return
	}
	if f.Bytes > 0 {
		fmt.Fprintf(w, "  Size: %d bytes\n", f.Bytes)
	}
}

func formatResultDetails(w io.Writer, r *runlog.ResultEvent) {
	fmt.Fprintf(w, "  Success: %t  Resolved: %d  Unresolved: %d  Duration: %s\n",
		r.Success, r.Resolved, r.Unresolved, formatDuration(r.Duration))
	for _, f := range r.Files {
		fmt.Fprintf(w, "  File: %s\n", f)
	}
	if r.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", r.Error)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseStageFlag parses a stage string from command-line flag (case-insensitive).
func ParseStageFlag(s string) (runlog.Stage, error) {
	st, err := runlog.ParseStage(s)
	if err != nil {
		return 0, fmt.Errorf("invalid stage: %s (must be start, parse, load, counts, resolve, format, or done)", s)
	}
	return st, nil
}

// ParseLevelFlag parses a level string from command-line flag (case-insensitive).
func ParseLevelFlag(s string) (runlog.Level, error) {
	l, err := runlog.ParseLevel(s)
	if err != nil {
		return 0, fmt.Errorf("invalid level: %s (must be info, warn, or error)", strings.ToLower(s))
	}
	return l, nil
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := runlog.NewFilteredReader(path, filter.filter())
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	first := true
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		// Blank line between runs
		if event.Stage == runlog.StageStart && !first {
			fmt.Fprintln(output)
		}
		first = false
		formatEvent(output, event)
	}

	return nil
}
