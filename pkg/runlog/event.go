package runlog

import (
	"fmt"
	"strings"
	"time"
)

// Event is one step of an export run.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint" json:"timestamp"`

	// RunID identifies the run (UUID).
	RunID string `cbor:"2,keyasint" json:"run_id"`

	// Stage of the pipeline that emitted the event.
	Stage Stage `cbor:"3,keyasint" json:"stage"`

	// Level is the severity.
	Level Level `cbor:"4,keyasint" json:"level"`

	// Message is the human-readable progress line.
	Message string `cbor:"5,keyasint" json:"message"`

	Definition string `cbor:"6,keyasint,omitempty" json:"definition,omitempty"`
	Firmware   string `cbor:"7,keyasint,omitempty" json:"firmware,omitempty"`

	// Stage-specific payload (at most one is set).
	Counts  *CountsEvent  `cbor:"8,keyasint,omitempty" json:"counts,omitempty"`
	Format  *FormatEvent  `cbor:"9,keyasint,omitempty" json:"format,omitempty"`
	Element *ElementEvent `cbor:"10,keyasint,omitempty" json:"element,omitempty"`
	Result  *ResultEvent  `cbor:"11,keyasint,omitempty" json:"result,omitempty"`
}

// Stage identifies a pipeline step.
type Stage uint8

const (
	// StageStart is emitted once when a run begins.
	StageStart Stage = 0
	// StageParse covers reading the definition document.
	StageParse Stage = 1
	// StageLoad covers reading the firmware image.
	StageLoad Stage = 2
	// StageCounts carries the element count triple.
	StageCounts Stage = 3
	// StageResolve covers decoding element values.
	StageResolve Stage = 4
	// StageFormat covers writing one output format.
	StageFormat Stage = 5
	// StageDone is emitted once when a run ends, successfully or not.
	StageDone Stage = 6
)

var stageNames = []string{"start", "parse", "load", "counts", "resolve", "format", "done"}

// String returns the stage name.
func (s Stage) String() string {
	if int(s) < len(stageNames) {
		return stageNames[s]
	}
	return "unknown"
}

// ParseStage converts a stage name to a Stage.
func ParseStage(name string) (Stage, error) {
	for i, n := range stageNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return Stage(i), nil
		}
	}
	return 0, fmt.Errorf("unknown stage: %s", name)
}

// Level is the severity of an event.
type Level uint8

const (
	// LevelInfo is normal progress.
	LevelInfo Level = 0
	// LevelWarn marks recoverable failures (unresolved elements, failed formats).
	LevelWarn Level = 1
	// LevelError marks a failed run.
	LevelError Level = 2
)

// String returns the level name.
func (l Level) String() string {
	switch l {
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a level name to a Level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "INFO":
		return LevelInfo, nil
	case "WARN", "WARNING":
		return LevelWarn, nil
	case "ERROR":
		return LevelError, nil
	default:
		return 0, fmt.Errorf("unknown level: %s", name)
	}
}

// CountsEvent carries the number of elements found in the definition.
type CountsEvent struct {
	Constants int `cbor:"1,keyasint" json:"constants"`
	Flags     int `cbor:"2,keyasint" json:"flags"`
	Tables    int `cbor:"3,keyasint" json:"tables"`
}

// FormatEvent describes one output format.
type FormatEvent struct {
	Format string `cbor:"1,keyasint" json:"format"`
	Path   string `cbor:"2,keyasint,omitempty" json:"path,omitempty"`
	Bytes  int64  `cbor:"3,keyasint,omitempty" json:"bytes,omitempty"`
	Error  string `cbor:"4,keyasint,omitempty" json:"error,omitempty"`
}

// ElementEvent describes an element that failed to resolve.
type ElementEvent struct {
	Kind    string `cbor:"1,keyasint" json:"kind"`
	Title   string `cbor:"2,keyasint" json:"title"`
	Address uint32 `cbor:"3,keyasint" json:"address"`
	Part    string `cbor:"4,keyasint,omitempty" json:"part,omitempty"`
	Reason  string `cbor:"5,keyasint" json:"reason"`
}

// ResultEvent summarizes a finished run.
type ResultEvent struct {
	Success    bool          `cbor:"1,keyasint" json:"success"`
	Files      []string      `cbor:"2,keyasint,omitempty" json:"files,omitempty"`
	Resolved   int           `cbor:"3,keyasint" json:"resolved"`
	Unresolved int           `cbor:"4,keyasint" json:"unresolved"`
	Duration   time.Duration `cbor:"5,keyasint" json:"duration_ns"`
	Error      string        `cbor:"6,keyasint,omitempty" json:"error,omitempty"`
}
