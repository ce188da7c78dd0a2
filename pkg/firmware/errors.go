package firmware

import (
	"errors"
	"fmt"
)

// ErrEmpty is returned when a firmware image has no bytes.
var ErrEmpty = errors.New("firmware image is empty")

// Error is a fatal failure to obtain the firmware image.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("firmware %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// OutOfBoundsError indicates a read past the end of the image.
type OutOfBoundsError struct {
	Address uint32
	Width   int
	Length  int
}

func (e *OutOfBoundsError) Error() string {
	return fmt.Sprintf("address 0x%X+%d is out of bounds: image is %d bytes",
		e.Address, e.Width, e.Length)
}

// UnsupportedWidthError indicates an element size other than 8, 16 or 32 bits.
type UnsupportedWidthError struct {
	Bits  int
	Float bool
}

func (e *UnsupportedWidthError) Error() string {
	if e.Float {
		return fmt.Sprintf("unsupported float width: %d bits", e.Bits)
	}
	return fmt.Sprintf("unsupported element width: %d bits", e.Bits)
}

// InvalidBitError indicates a flag bit position outside 0-7.
type InvalidBitError struct {
	Bit int
}

func (e *InvalidBitError) Error() string {
	return fmt.Sprintf("invalid bit position %d: must be 0-7", e.Bit)
}
