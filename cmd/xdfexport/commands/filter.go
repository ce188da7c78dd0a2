package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/xdfexport/xdfexport-go/pkg/runlog"
)

// FilterOptions specifies filtering criteria for the filter command.
type FilterOptions struct {
	Output     string
	RunID      string
	Definition string
	TimeStart  string
	TimeEnd    string
	Stage      string
	MinLevel   string
}

// RunFilter filters the log file and writes matching events to a new file.
func RunFilter(path string, opts FilterOptions, w io.Writer) error {
	// Build filter
	filter := runlog.Filter{
		RunID:      opts.RunID,
		Definition: opts.Definition,
	}

	if opts.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeStart)
		if err != nil {
			return fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}

	if opts.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, opts.TimeEnd)
		if err != nil {
			return fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}

	if opts.Stage != "" {
		s, err := ParseStageFlag(opts.Stage)
		if err != nil {
			return err
		}
		filter.Stage = &s
	}

	if opts.MinLevel != "" {
		l, err := ParseLevelFlag(opts.MinLevel)
		if err != nil {
			return err
		}
		filter.MinLevel = &l
	}

	// Open input
	reader, err := runlog.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	// Create file logger to write filtered events
	logger, err := runlog.NewFileLogger(opts.Output)
	if err != nil {
		return fmt.Errorf("failed to create output logger: %w", err)
	}
	defer logger.Close()

	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		logger.Log(event)
		count++
	}

	fmt.Fprintf(w, "Filtered %d events to %s\n", count, opts.Output)
	return nil
}
