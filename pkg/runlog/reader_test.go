package runlog

import (
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"
)

func writeEvents(t *testing.T, events []Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "runs.xlog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFilteredReader(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	path := writeEvents(t, []Event{
		{Timestamp: base, RunID: "a", Stage: StageStart, Definition: "one.xdf"},
		{Timestamp: base.Add(time.Second), RunID: "a", Stage: StageResolve, Level: LevelWarn, Definition: "one.xdf"},
		{Timestamp: base.Add(2 * time.Second), RunID: "b", Stage: StageStart, Definition: "two.xdf"},
		{Timestamp: base.Add(3 * time.Second), RunID: "b", Stage: StageDone, Level: LevelError, Definition: "two.xdf"},
	})

	start := StageStart
	warn := LevelWarn
	from := base.Add(time.Second)
	until := base.Add(3 * time.Second)

	tests := []struct {
		name   string
		filter Filter
		want   int
	}{
		{"all", Filter{}, 4},
		{"run", Filter{RunID: "b"}, 2},
		{"stage", Filter{Stage: &start}, 2},
		{"min level", Filter{MinLevel: &warn}, 2},
		{"definition", Filter{Definition: "one.xdf"}, 2},
		{"time window", Filter{TimeStart: &from, TimeEnd: &until}, 2},
		{"combined", Filter{RunID: "a", Stage: &start}, 1},
		{"none", Filter{RunID: "zzz"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewFilteredReader(path, tt.filter)
			if err != nil {
				t.Fatal(err)
			}
			defer r.Close()

			n := 0
			for {
				_, err := r.Next()
				if errors.Is(err, io.EOF) {
					break
				}
				if err != nil {
					t.Fatal(err)
				}
				n++
			}
			if n != tt.want {
				t.Errorf("matched %d events, want %d", n, tt.want)
			}
		})
	}
}

func TestReaderMissingFile(t *testing.T) {
	if _, err := NewReader(filepath.Join(t.TempDir(), "nope.xlog")); err == nil {
		t.Error("expected error for missing file")
	}
}
