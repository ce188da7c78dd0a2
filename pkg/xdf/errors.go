package xdf

import (
	"errors"
	"fmt"
)

// Validation failures reported inside a DocumentError.
var (
	ErrNotDefinition  = errors.New("not an XDF definition")
	ErrMissingAddress = errors.New("missing address")
	ErrAxisMismatch   = errors.New("axis length does not match table dimension")
	ErrBadDimension   = errors.New("table dimension must be positive")
)

// DocumentError reports a definition document that cannot be turned into a catalog.
// It is fatal to an export run.
type DocumentError struct {
	// Path is the document path, empty when parsed from a reader.
	Path string

	// Element identifies the offending declaration, e.g. `XDFTABLE #2 "Spark"`.
	Element string

	Err error
}

func (e *DocumentError) Error() string {
	msg := "definition"
	if e.Path != "" {
		msg += " " + e.Path
	}
	if e.Element != "" {
		msg += ": " + e.Element
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *DocumentError) Unwrap() error {
	return e.Err
}
