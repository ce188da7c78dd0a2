package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/xdfexport/xdfexport-go/pkg/runlog"
)

// Stats holds aggregate statistics about a run log.
type Stats struct {
	TotalEvents   int
	EventsByStage map[runlog.Stage]int
	EventsByLevel map[runlog.Level]int
	Runs          map[string]*RunStats
	TimeRange     struct {
		Start time.Time
		End   time.Time
	}
}

// RunStats holds statistics for a single export run.
type RunStats struct {
	FirstSeen  time.Time
	LastSeen   time.Time
	Events     int
	Definition string
	Firmware   string
	Finished   bool
	Success    bool
	Files      int
	Unresolved int
}

// RunStatsCommand analyzes the log file and prints statistics.
func RunStatsCommand(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

// CollectStats reads every event of a log file.
func CollectStats(path string) (*Stats, error) {
	reader, err := runlog.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByStage: make(map[runlog.Stage]int),
		EventsByLevel: make(map[runlog.Level]int),
		Runs:          make(map[string]*RunStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByStage[event.Stage]++
		stats.EventsByLevel[event.Level]++

		// Track time range
		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		// Track run stats
		run, ok := stats.Runs[event.RunID]
		if !ok {
			run = &RunStats{
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
			}
			stats.Runs[event.RunID] = run
		}
		run.Events++
		if event.Timestamp.After(run.LastSeen) {
			run.LastSeen = event.Timestamp
		}
		if event.Definition != "" && run.Definition == "" {
			run.Definition = event.Definition
		}
		if event.Firmware != "" && run.Firmware == "" {
			run.Firmware = event.Firmware
		}
		if event.Result != nil {
			run.Finished = true
			run.Success = event.Result.Success
			run.Files = len(event.Result.Files)
			run.Unresolved = event.Result.Unresolved
		}
	}
	return stats, nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== Export Run Log Statistics ===")
	fmt.Fprintln(w)

	// Time range
	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	// Total events
	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	// Events by stage
	fmt.Fprintln(w, "Events by Stage:")
	for st := runlog.StageStart; st <= runlog.StageDone; st++ {
		if count := stats.EventsByStage[st]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", st.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	// Events by level
	fmt.Fprintln(w, "Events by Level:")
	for _, l := range []runlog.Level{runlog.LevelInfo, runlog.LevelWarn, runlog.LevelError} {
		if count := stats.EventsByLevel[l]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", l.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	// Runs
	fmt.Fprintf(w, "Runs: %d\n", len(stats.Runs))
	if len(stats.Runs) == 0 {
		return
	}

	// Sort by first seen time
	type runInfo struct {
		id    string
		stats *RunStats
	}
	runs := make([]runInfo, 0, len(stats.Runs))
	for id, rs := range stats.Runs {
		runs = append(runs, runInfo{id, rs})
	}
	sort.Slice(runs, func(i, j int) bool {
		return runs[i].stats.FirstSeen.Before(runs[j].stats.FirstSeen)
	})

	fmt.Fprintln(w)
	for _, r := range runs {
		status := "incomplete"
		if r.stats.Finished {
			status = "failed"
			if r.stats.Success {
				status = "ok"
			}
		}
		duration := r.stats.LastSeen.Sub(r.stats.FirstSeen).Round(time.Millisecond)
		fmt.Fprintf(w, "  [%s] %s, %d events, duration %s\n", shortenRunID(r.id), status, r.stats.Events, duration)
		if r.stats.Definition != "" {
			fmt.Fprintf(w, "           Definition: %s\n", r.stats.Definition)
		}
		if r.stats.Firmware != "" {
			fmt.Fprintf(w, "           Firmware: %s\n", r.stats.Firmware)
		}
		if r.stats.Finished {
			fmt.Fprintf(w, "           Files: %d, Unresolved: %d\n", r.stats.Files, r.stats.Unresolved)
		}
	}
}
