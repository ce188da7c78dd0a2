package xdf

import (
	"fmt"
	"strconv"
	"strings"
)

// Placeholders used when a definition leaves a field out.
const (
	DefaultTitle      = "Unknown"
	DefaultCategory   = "Uncategorized"
	DefaultExpression = "X"
)

// Kind identifies the element variant.
type Kind uint8

const (
	// KindConstant is a single scalar value.
	KindConstant Kind = 0
	// KindFlag is a single bit of one byte.
	KindFlag Kind = 1
	// KindTable is a two-dimensional grid of scalars.
	KindTable Kind = 2
)

// String returns the kind name as used in tabular output.
func (k Kind) String() string {
	switch k {
	case KindConstant:
		return "Constant"
	case KindFlag:
		return "Flag"
	case KindTable:
		return "Table"
	default:
		return "Unknown"
	}
}

// Status is the resolution state of an element or axis.
type Status uint8

const (
	// StatusPending means the element has not been resolved yet.
	StatusPending Status = 0
	// StatusResolved means the value fields hold decoded data.
	StatusResolved Status = 1
	// StatusUnresolved means decoding failed; Reason says why.
	StatusUnresolved Status = 2
)

// String returns the status name.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusResolved:
		return "resolved"
	case StatusUnresolved:
		return "unresolved"
	default:
		return "unknown"
	}
}

// ParseStatus converts a status name back to a Status.
func ParseStatus(s string) (Status, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "pending", "":
		return StatusPending, nil
	case "resolved":
		return StatusResolved, nil
	case "unresolved":
		return StatusUnresolved, nil
	default:
		return StatusPending, fmt.Errorf("unknown status: %s", s)
	}
}

// DataType describes how raw bytes are turned into a number.
type DataType struct {
	// Bits is the element size: 8, 16 or 32.
	Bits int

	// Signed selects two's complement interpretation.
	Signed bool

	// LittleEndian selects LSB-first byte order. Big-endian is the default.
	LittleEndian bool

	// Float selects IEEE 754 single precision (Bits must be 32).
	Float bool
}

// Width returns the element size in bytes.
func (d DataType) Width() int {
	return d.Bits / 8
}

// String returns a short notation such as "u8", "s16le" or "f32be".
// Byte order is omitted for big-endian single bytes.
func (d DataType) String() string {
	prefix := "u"
	switch {
	case d.Float:
		prefix = "f"
	case d.Signed:
		prefix = "s"
	}
	s := fmt.Sprintf("%s%d", prefix, d.Bits)
	switch {
	case d.LittleEndian:
		s += "le"
	case d.Bits > 8:
		s += "be"
	}
	return s
}

// ParseDataType parses the notation produced by DataType.String.
// The empty string yields the zero DataType.
func ParseDataType(s string) (DataType, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DataType{}, nil
	}
	var dt DataType
	switch s[0] {
	case 'u':
	case 's':
		dt.Signed = true
	case 'f':
		dt.Float = true
	default:
		return DataType{}, fmt.Errorf("invalid data type %q", s)
	}
	rest := s[1:]
	switch {
	case strings.HasSuffix(rest, "le"):
		dt.LittleEndian = true
		rest = strings.TrimSuffix(rest, "le")
	case strings.HasSuffix(rest, "be"):
		rest = strings.TrimSuffix(rest, "be")
	}
	bits, err := strconv.Atoi(rest)
	if err != nil || bits < 0 {
		return DataType{}, fmt.Errorf("invalid data type %q", s)
	}
	dt.Bits = bits
	return dt, nil
}

// Byte is the data type used for flag reads.
var Byte = DataType{Bits: 8}

// Scaling is the raw-to-engineering-unit transform of an element.
type Scaling struct {
	// Expression is the formula text; X stands for the raw value.
	Expression string
}

// IsIdentity reports whether the scaling leaves raw values unchanged.
func (s Scaling) IsIdentity() bool {
	e := strings.TrimSpace(s.Expression)
	return e == "" || strings.EqualFold(e, "X")
}

// Axis describes the labels of one table dimension.
//
// An axis is either a fixed list of labels or bound to a range of the firmware
// image, in which case it is decoded like a one-dimensional table.
type Axis struct {
	Labels []string

	Bound    bool
	Address  uint32
	Count    int
	DataType DataType
	Scaling  Scaling
	Units    string
	Decimals int

	// Resolved part (bound axes only).
	Values []float64
	Status Status
	Reason string
}

// Len returns the number of axis entries.
func (a *Axis) Len() int {
	if a == nil {
		return 0
	}
	if a.Bound {
		return a.Count
	}
	return len(a.Labels)
}

// Element is a constant, flag or table descriptor.
//
// The variant is selected by Kind. Fields that do not apply to a kind stay zero.
type Element struct {
	Kind        Kind
	ID          string
	Title       string
	Category    string
	Description string
	Address     uint32
	Units       string

	// Constants and tables.
	DataType DataType
	Scaling  Scaling
	// Decimals is the display precision; -1 means unspecified.
	Decimals int

	// Flags. BitPosition is -1 when the definition gave no usable bit.
	BitPosition int
	Mask        uint32

	// Tables.
	Rows  int
	Cols  int
	XAxis *Axis
	YAxis *Axis

	// Resolved part.
	Value  float64
	Set    bool
	Grid   [][]float64
	Status Status
	Reason string
}

// Resolved reports whether the element holds decoded data.
func (e *Element) Resolved() bool {
	return e.Status == StatusResolved
}

// Size returns the number of firmware bytes the element covers.
func (e *Element) Size() int {
	switch e.Kind {
	case KindFlag:
		return 1
	case KindTable:
		return e.Rows * e.Cols * e.DataType.Width()
	default:
		return e.DataType.Width()
	}
}

// Label returns a short identification for messages.
func (e *Element) Label() string {
	return fmt.Sprintf("%s %q @ 0x%X", strings.ToLower(e.Kind.String()), e.Title, e.Address)
}

// Reset clears the resolved part so the element can be resolved again.
func (e *Element) Reset() {
	e.Value = 0
	e.Set = false
	e.Grid = nil
	e.Status = StatusPending
	e.Reason = ""
	for _, a := range []*Axis{e.XAxis, e.YAxis} {
		if a != nil {
			a.Values = nil
			a.Status = StatusPending
			a.Reason = ""
		}
	}
}

// MarkUnresolved records a resolution failure.
func (e *Element) MarkUnresolved(err error) {
	e.Value = 0
	e.Set = false
	e.Grid = nil
	e.Status = StatusUnresolved
	e.Reason = err.Error()
}

// Clone returns a deep copy of the element.
func (e *Element) Clone() *Element {
	c := *e
	c.XAxis = e.XAxis.clone()
	c.YAxis = e.YAxis.clone()
	if e.Grid != nil {
		c.Grid = make([][]float64, len(e.Grid))
		for i, row := range e.Grid {
			c.Grid[i] = append([]float64(nil), row...)
		}
	}
	return &c
}

func (a *Axis) clone() *Axis {
	if a == nil {
		return nil
	}
	c := *a
	c.Labels = append([]string(nil), a.Labels...)
	c.Values = append([]float64(nil), a.Values...)
	if a.Labels == nil {
		c.Labels = nil
	}
	if a.Values == nil {
		c.Values = nil
	}
	return &c
}
