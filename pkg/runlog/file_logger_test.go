package runlog

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func TestFileLoggerWritesAndReads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.xlog")

	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	logger.Log(Event{Timestamp: time.Now(), RunID: "r1", Stage: StageStart, Message: "start"})
	logger.Log(Event{Timestamp: time.Now(), RunID: "r1", Stage: StageDone, Message: "done"})
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Appends on reopen.
	logger, err = NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}
	logger.Log(Event{Timestamp: time.Now(), RunID: "r2", Stage: StageStart, Message: "again"})
	logger.Close()

	reader, err := NewReader(path)
	if err != nil {
		t.Fatalf("NewReader failed: %v", err)
	}
	defer reader.Close()

	var runs []string
	for {
		ev, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next failed: %v", err)
		}
		runs = append(runs, ev.RunID+"/"+ev.Stage.String())
	}
	want := []string{"r1/start", "r1/done", "r2/start"}
	if len(runs) != len(want) {
		t.Fatalf("read %v, want %v", runs, want)
	}
	for i := range want {
		if runs[i] != want[i] {
			t.Errorf("event %d = %q, want %q", i, runs[i], want[i])
		}
	}
}

func TestFileLoggerCloseIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.xlog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := logger.Close(); err != nil {
		t.Fatal(err)
	}
	if err := logger.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	logger.Log(Event{Message: "after close"})

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Size() != 0 {
		t.Errorf("file size = %d, want 0", info.Size())
	}
}

func TestFileLoggerConcurrent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs.xlog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 25; j++ {
				logger.Log(Event{Timestamp: time.Now(), RunID: "r", Message: "tick"})
			}
		}()
	}
	wg.Wait()
	logger.Close()

	reader, err := NewReader(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()

	n := 0
	for {
		_, err := reader.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			t.Fatalf("Next failed after %d events: %v", n, err)
		}
		n++
	}
	if n != 200 {
		t.Errorf("read %d events, want 200", n)
	}
}

func TestFileLoggerCountsEvents(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "2026", "runs.xlog")
	logger, err := NewFileLogger(path)
	if err != nil {
		t.Fatalf("NewFileLogger failed: %v", err)
	}

	for i := 0; i < 3; i++ {
		logger.Log(Event{Timestamp: time.Now(), RunID: "r", Stage: StageResolve})
	}
	if got := logger.Events(); got != 3 {
		t.Errorf("Events() = %d, want 3", got)
	}
	if err := logger.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	logger.Log(Event{Timestamp: time.Now(), RunID: "r", Stage: StageDone})
	if got := logger.Events(); got != 3 {
		t.Errorf("Events() after Close = %d, want 3", got)
	}
}
