package pipeline

import (
	"errors"
	"fmt"
	"time"

	"github.com/xdfexport/xdfexport-go/pkg/resolve"
)

// Request describes one export.
type Request struct {
	// Definition is the definition document path.
	Definition string

	// Firmware is the firmware image path.
	Firmware string

	// OutputBase is the output path without extension. Empty uses
	// DefaultOutputBase(Firmware).
	OutputBase string

	// Formats lists format ids in the order they are written.
	Formats []string

	// Categories restricts the export to these categories. Empty exports all.
	Categories []string
}

// Counts is the element count triple of a catalog.
type Counts struct {
	Constants int
	Flags     int
	Tables    int
}

func (c Counts) String() string {
	return fmt.Sprintf("%d constants, %d flags, %d tables", c.Constants, c.Flags, c.Tables)
}

// FormatError is a failure to write one output format.
type FormatError struct {
	Format string
	Path   string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("format %s: %v", e.Format, e.Err)
	}
	return fmt.Sprintf("format %s (%s): %v", e.Format, e.Path, e.Err)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

// Result is the outcome of a run that got as far as writing formats.
type Result struct {
	RunID string

	// Files lists the written output files in format order.
	Files []string

	Counts Counts

	// Report lists elements that could not be resolved.
	Report *resolve.Report

	// FormatErrors lists formats that could not be written.
	FormatErrors []*FormatError

	Duration time.Duration
}

// Err joins the per-format failures, or returns nil when every format was written.
func (r *Result) Err() error {
	errs := make([]error, 0, len(r.FormatErrors))
	for _, fe := range r.FormatErrors {
		errs = append(errs, fe)
	}
	return errors.Join(errs...)
}

// OK reports whether every format was written.
func (r *Result) OK() bool {
	return len(r.FormatErrors) == 0
}
