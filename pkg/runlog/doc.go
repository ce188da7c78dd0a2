// Package runlog records export runs as a machine-readable event trace.
//
// It is separate from operational logging (slog): every pipeline run emits an
// ordered sequence of Events (start, parse, load, counts, per-element failures,
// per-format results, done) that can be shown live, stored, and read back later.
//
// # Basic Usage
//
//	// Console: events as slog records
//	logger := runlog.NewSlogAdapter(slog.Default())
//
//	// File: append-only CBOR trace
//	fl, _ := runlog.NewFileLogger("exports.xlog")
//	defer fl.Close()
//
//	// Both
//	logger := runlog.NewMultiLogger(runlog.NewSlogAdapter(slog.Default()), fl)
//
// # File Format
//
// Log files are a stream of CBOR-encoded events with integer keys, by convention
// with the .xlog extension. `xdfexport log view` and `xdfexport log export` read
// them back through Reader.
package runlog
