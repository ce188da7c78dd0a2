package runlog

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// FileLogger appends run events to a CBOR log file. Each event is encoded
// before the lock is taken and written with a single call, so concurrent
// runs never interleave records.
//
// Log cannot fail an export. The first write error is kept and returned by
// Close instead.
type FileLogger struct {
	path string

	mu     sync.Mutex
	file   *os.File
	err    error
	events int
}

// NewFileLogger opens path for appending. Missing parent directories are
// created.
func NewFileLogger(path string) (*FileLogger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, err
	}
	return &FileLogger{path: path, file: f}, nil
}

// Log appends one event. Events logged after Close are dropped.
func (l *FileLogger) Log(event Event) {
	record, encErr := EncodeEvent(event)

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil || l.err != nil {
		return
	}
	if encErr != nil {
		l.err = fmt.Errorf("run log %s: encode %s event: %w", l.path, event.Stage, encErr)
		return
	}
	if _, err := l.file.Write(record); err != nil {
		l.err = fmt.Errorf("run log %s: %w", l.path, err)
		return
	}
	l.events++
}

// Events returns the number of events written so far.
func (l *FileLogger) Events() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.events
}

// Close flushes and closes the file. It returns the first error seen by Log,
// if any. Closing twice is a no-op.
func (l *FileLogger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil

	err := l.err
	if serr := f.Sync(); err == nil {
		err = serr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

var _ Logger = (*FileLogger)(nil)
