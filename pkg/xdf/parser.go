package xdf

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"math"
	"math/bits"
	"os"
	"slices"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// Type flag bits of EMBEDDEDDATA mmedtypeflags.
const (
	TypeFlagSigned   = 0x01
	TypeFlagLSBFirst = 0x02
	TypeFlagFloat    = 0x10000
)

// rawDocument mirrors the XML layout of a definition document.
type rawDocument struct {
	XMLName   xml.Name      `xml:"XDFFORMAT"`
	Header    rawHeader     `xml:"XDFHEADER"`
	Constants []rawConstant `xml:"XDFCONSTANT"`
	Flags     []rawFlag     `xml:"XDFFLAG"`
	Tables    []rawTable    `xml:"XDFTABLE"`
}

type rawHeader struct {
	Title       string         `xml:"deftitle"`
	Description string         `xml:"description"`
	BaseOffset  *rawBaseOffset `xml:"BASEOFFSET"`
	Defaults    *rawDefaults   `xml:"DEFAULTS"`
	Categories  []rawCategory  `xml:"CATEGORY"`
}

type rawBaseOffset struct {
	Offset   string `xml:"offset,attr"`
	Subtract string `xml:"subtract,attr"`
}

type rawDefaults struct {
	DataSizeInBits string `xml:"datasizeinbits,attr"`
	Signed         string `xml:"signed,attr"`
	LSBFirst       string `xml:"lsbfirst,attr"`
	Float          string `xml:"float,attr"`
}

type rawCategory struct {
	Index string `xml:"index,attr"`
	Name  string `xml:"name,attr"`
}

type rawCategoryMem struct {
	Index    string `xml:"index,attr"`
	Category string `xml:"category,attr"`
}

type rawEmbedded struct {
	Address   string `xml:"mmedaddress,attr"`
	SizeBits  string `xml:"mmedelementsizebits,attr"`
	TypeFlags string `xml:"mmedtypeflags,attr"`
	RowCount  string `xml:"mmedrowcount,attr"`
	ColCount  string `xml:"mmedcolcount,attr"`
}

type rawMath struct {
	Equation string `xml:"equation,attr"`
}

type rawCommon struct {
	UniqueID    string           `xml:"uniqueid,attr"`
	Title       string           `xml:"title"`
	Description string           `xml:"description"`
	Units       string           `xml:"units"`
	DecimalPl   string           `xml:"decimalpl"`
	CategoryMem []rawCategoryMem `xml:"CATEGORYMEM"`
	Data        *rawEmbedded     `xml:"EMBEDDEDDATA"`
	Math        *rawMath         `xml:"MATH"`
}

type rawConstant struct {
	rawCommon
}

type rawFlag struct {
	rawCommon
	Mask string `xml:"mask"`
	Bit  string `xml:"bit"`
}

type rawTable struct {
	rawCommon
	Axes []rawAxis `xml:"XDFAXIS"`
}

type rawAxis struct {
	ID         string       `xml:"id,attr"`
	Data       *rawEmbedded `xml:"EMBEDDEDDATA"`
	IndexCount string       `xml:"indexcount"`
	Units      string       `xml:"units"`
	DecimalPl  string       `xml:"decimalpl"`
	Labels     []rawLabel   `xml:"LABEL"`
	Math       *rawMath     `xml:"MATH"`
}

type rawLabel struct {
	Index string `xml:"index,attr"`
	Value string `xml:"value,attr"`
}

// Load reads and parses a definition document from disk.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &DocumentError{Path: path, Err: err}
	}
	cat, err := ParseBytes(data)
	if err != nil {
		var de *DocumentError
		if errors.As(err, &de) {
			de.Path = path
			return nil, de
		}
		return nil, &DocumentError{Path: path, Err: err}
	}
	return cat, nil
}

// ParseBytes parses a definition document held in memory.
func ParseBytes(data []byte) (*Catalog, error) {
	return Parse(bytes.NewReader(data))
}

// Parse parses a definition document from any io.Reader.
// Every failure is returned as a *DocumentError.
func Parse(r io.Reader) (*Catalog, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charsetReader

	var doc rawDocument
	if err := dec.Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, &DocumentError{Err: fmt.Errorf("%w: no XDFFORMAT element", ErrNotDefinition)}
		}
		var ue xml.UnmarshalError
		if errors.As(err, &ue) {
			return nil, &DocumentError{Err: fmt.Errorf("%w: %v", ErrNotDefinition, err)}
		}
		return nil, &DocumentError{Err: fmt.Errorf("malformed document: %w", err)}
	}

	p, err := newParser(&doc.Header)
	if err != nil {
		return nil, &DocumentError{Element: "XDFHEADER", Err: err}
	}

	cat := &Catalog{
		Title:       strings.TrimSpace(doc.Header.Title),
		Description: strings.TrimSpace(doc.Header.Description),
	}

	for i := range doc.Constants {
		raw := &doc.Constants[i]
		e, err := p.constant(raw)
		if err != nil {
			return nil, &DocumentError{Element: declName("XDFCONSTANT", i, raw.Title), Err: err}
		}
		cat.Constants = append(cat.Constants, e)
	}
	for i := range doc.Flags {
		raw := &doc.Flags[i]
		e, err := p.flag(raw)
		if err != nil {
			return nil, &DocumentError{Element: declName("XDFFLAG", i, raw.Title), Err: err}
		}
		cat.Flags = append(cat.Flags, e)
	}
	for i := range doc.Tables {
		raw := &doc.Tables[i]
		e, err := p.table(raw)
		if err != nil {
			return nil, &DocumentError{Element: declName("XDFTABLE", i, raw.Title), Err: err}
		}
		cat.Tables = append(cat.Tables, e)
	}

	return cat, nil
}

func declName(tag string, i int, title string) string {
	title = strings.TrimSpace(title)
	if title == "" {
		return fmt.Sprintf("%s #%d", tag, i+1)
	}
	return fmt.Sprintf("%s #%d %q", tag, i+1, title)
}

// parser carries header state needed while converting declarations.
type parser struct {
	base       uint64
	subtract   bool
	defaults   DataType
	categories map[uint64]string
}

func newParser(h *rawHeader) (*parser, error) {
	p := &parser{
		defaults:   DataType{Bits: 8},
		categories: make(map[uint64]string),
	}

	if h.BaseOffset != nil {
		base, err := parseOptional(h.BaseOffset.Offset, 0)
		if err != nil {
			return nil, fmt.Errorf("BASEOFFSET: %w", err)
		}
		p.base = base
		p.subtract = parseBool(h.BaseOffset.Subtract)
	}

	if d := h.Defaults; d != nil {
		size, err := parseOptional(d.DataSizeInBits, 8)
		if err != nil {
			return nil, fmt.Errorf("DEFAULTS: %w", err)
		}
		p.defaults = DataType{
			Bits:         int(size),
			Signed:       parseBool(d.Signed),
			LittleEndian: parseBool(d.LSBFirst),
			Float:        parseBool(d.Float),
		}
	}

	for _, c := range h.Categories {
		idx, err := ParseNumber(c.Index)
		if err != nil {
			return nil, fmt.Errorf("CATEGORY %q: %w", c.Name, err)
		}
		p.categories[idx] = strings.TrimSpace(c.Name)
	}

	return p, nil
}

// common fills the fields shared by every element kind.
func (p *parser) common(kind Kind, raw *rawCommon) (*Element, error) {
	e := &Element{
		Kind:        kind,
		ID:          strings.TrimSpace(raw.UniqueID),
		Title:       strings.TrimSpace(raw.Title),
		Category:    p.category(raw.CategoryMem),
		Description: strings.TrimSpace(raw.Description),
		Units:       strings.TrimSpace(raw.Units),
		Decimals:    parseDecimals(raw.DecimalPl),
		BitPosition: -1,
		Scaling:     scalingOf(raw.Math),
	}
	if e.Title == "" {
		e.Title = DefaultTitle
	}

	if raw.Data == nil || strings.TrimSpace(raw.Data.Address) == "" {
		return nil, ErrMissingAddress
	}
	addr, err := p.address(raw.Data.Address)
	if err != nil {
		return nil, err
	}
	e.Address = addr

	dt, err := p.dataType(raw.Data)
	if err != nil {
		return nil, err
	}
	e.DataType = dt
	return e, nil
}

func (p *parser) constant(raw *rawConstant) (*Element, error) {
	return p.common(KindConstant, &raw.rawCommon)
}

func (p *parser) flag(raw *rawFlag) (*Element, error) {
	e, err := p.common(KindFlag, &raw.rawCommon)
	if err != nil {
		return nil, err
	}
	e.DataType = Byte
	e.Scaling = Scaling{}

	switch {
	case strings.TrimSpace(raw.Bit) != "":
		bit, err := ParseNumber(raw.Bit)
		if err != nil {
			return nil, fmt.Errorf("bit: %w", err)
		}
		e.BitPosition = int(min(bit, 0xFF))
		if bit <= 7 {
			e.Mask = 1 << bit
		}
	case strings.TrimSpace(raw.Mask) != "":
		mask, err := ParseNumber(raw.Mask)
		if err != nil {
			return nil, fmt.Errorf("mask: %w", err)
		}
		e.Mask = uint32(mask)
		if mask != 0 && mask <= 0x80 && bits.OnesCount64(mask) == 1 {
			e.BitPosition = bits.TrailingZeros64(mask)
		}
	}
	return e, nil
}

func (p *parser) table(raw *rawTable) (*Element, error) {
	var x, y, z *rawAxis
	for i := range raw.Axes {
		a := &raw.Axes[i]
		switch strings.ToLower(strings.TrimSpace(a.ID)) {
		case "x":
			x = a
		case "y":
			y = a
		case "z":
			z = a
		}
	}

	// The z axis carries the cell data; fall back to table-level fields.
	common := raw.rawCommon
	if z != nil {
		if z.Data != nil {
			common.Data = z.Data
		}
		if z.Math != nil {
			common.Math = z.Math
		}
		if strings.TrimSpace(z.Units) != "" {
			common.Units = z.Units
		}
		if strings.TrimSpace(z.DecimalPl) != "" {
			common.DecimalPl = z.DecimalPl
		}
	}

	e, err := p.common(KindTable, &common)
	if err != nil {
		return nil, err
	}

	xLen, err := declaredLength(x)
	if err != nil {
		return nil, fmt.Errorf("x axis: %w", err)
	}
	yLen, err := declaredLength(y)
	if err != nil {
		return nil, fmt.Errorf("y axis: %w", err)
	}

	e.Rows, err = dimension(common.Data.RowCount, yLen)
	if err != nil {
		return nil, fmt.Errorf("rows: %w", err)
	}
	e.Cols, err = dimension(common.Data.ColCount, xLen)
	if err != nil {
		return nil, fmt.Errorf("cols: %w", err)
	}

	if xLen > 0 && xLen != e.Cols {
		return nil, fmt.Errorf("%w: x axis has %d entries, table has %d cols", ErrAxisMismatch, xLen, e.Cols)
	}
	if yLen > 0 && yLen != e.Rows {
		return nil, fmt.Errorf("%w: y axis has %d entries, table has %d rows", ErrAxisMismatch, yLen, e.Rows)
	}
	if cells := uint64(e.Rows) * uint64(e.Cols); cells > math.MaxUint32 {
		return nil, fmt.Errorf("%w: %dx%d cells exceed the 32-bit address space", ErrBadDimension, e.Rows, e.Cols)
	}

	if e.XAxis, err = p.axis(x, e.Cols); err != nil {
		return nil, fmt.Errorf("x axis: %w", err)
	}
	if e.YAxis, err = p.axis(y, e.Rows); err != nil {
		return nil, fmt.Errorf("y axis: %w", err)
	}
	return e, nil
}

// axis converts an XDFAXIS into an Axis. It returns nil when the axis
// declares neither labels nor a firmware range.
func (p *parser) axis(raw *rawAxis, length int) (*Axis, error) {
	if raw == nil {
		return nil, nil
	}

	if raw.Data != nil && strings.TrimSpace(raw.Data.Address) != "" {
		addr, err := p.address(raw.Data.Address)
		if err != nil {
			return nil, err
		}
		dt, err := p.dataType(raw.Data)
		if err != nil {
			return nil, err
		}
		return &Axis{
			Bound:    true,
			Address:  addr,
			Count:    length,
			DataType: dt,
			Scaling:  scalingOf(raw.Math),
			Units:    strings.TrimSpace(raw.Units),
			Decimals: parseDecimals(raw.DecimalPl),
		}, nil
	}

	if len(raw.Labels) == 0 {
		return nil, nil
	}

	labels := slices.Clone(raw.Labels)
	slices.SortStableFunc(labels, func(a, b rawLabel) int {
		ai, aerr := ParseNumber(a.Index)
		bi, berr := ParseNumber(b.Index)
		if aerr != nil || berr != nil {
			return 0
		}
		switch {
		case ai < bi:
			return -1
		case ai > bi:
			return 1
		}
		return 0
	})
	out := &Axis{
		Units:    strings.TrimSpace(raw.Units),
		Decimals: parseDecimals(raw.DecimalPl),
	}
	for _, l := range labels {
		out.Labels = append(out.Labels, strings.TrimSpace(l.Value))
	}
	return out, nil
}

// declaredLength returns the number of entries an axis declares: its label
// count when labels are present, otherwise its indexcount.
func declaredLength(raw *rawAxis) (int, error) {
	if raw == nil {
		return 0, nil
	}
	bound := raw.Data != nil && strings.TrimSpace(raw.Data.Address) != ""
	if len(raw.Labels) > 0 && !bound {
		return len(raw.Labels), nil
	}
	n, err := parseOptional(raw.IndexCount, 0)
	if err != nil {
		return 0, fmt.Errorf("indexcount: %w", err)
	}
	if n > math.MaxInt32 {
		return 0, fmt.Errorf("indexcount: %w: got %d", ErrBadDimension, n)
	}
	return int(n), nil
}

// dimension picks a table dimension from an explicit count or an axis length.
func dimension(explicit string, axisLen int) (int, error) {
	if strings.TrimSpace(explicit) != "" {
		n, err := ParseNumber(explicit)
		if err != nil {
			return 0, err
		}
		if n == 0 || n > math.MaxInt32 {
			return 0, fmt.Errorf("%w: got %d", ErrBadDimension, n)
		}
		return int(n), nil
	}
	if axisLen > 0 {
		return axisLen, nil
	}
	return 1, nil
}

func (p *parser) address(s string) (uint32, error) {
	v, err := ParseNumber(s)
	if err != nil {
		return 0, fmt.Errorf("address: %w", err)
	}
	if p.subtract {
		if v < p.base {
			return 0, fmt.Errorf("address 0x%X is below base offset 0x%X", v, p.base)
		}
		v -= p.base
	} else {
		v += p.base
	}
	if v > math.MaxUint32 {
		return 0, fmt.Errorf("address 0x%X exceeds 32 bits", v)
	}
	return uint32(v), nil
}

func (p *parser) dataType(raw *rawEmbedded) (DataType, error) {
	dt := p.defaults
	if strings.TrimSpace(raw.SizeBits) != "" {
		size, err := ParseNumber(raw.SizeBits)
		if err != nil {
			return DataType{}, fmt.Errorf("element size: %w", err)
		}
		dt.Bits = int(size)
	}
	if strings.TrimSpace(raw.TypeFlags) != "" {
		flags, err := ParseNumber(raw.TypeFlags)
		if err != nil {
			return DataType{}, fmt.Errorf("type flags: %w", err)
		}
		dt.Signed = flags&TypeFlagSigned != 0
		dt.LittleEndian = flags&TypeFlagLSBFirst != 0
		dt.Float = flags&TypeFlagFloat != 0
	}
	return dt, nil
}

// category maps the first usable CATEGORYMEM to a header category name.
func (p *parser) category(mems []rawCategoryMem) string {
	for _, m := range mems {
		n, err := ParseNumber(m.Category)
		if err != nil || n == 0 {
			continue
		}
		if name, ok := p.categories[n-1]; ok && name != "" {
			return name
		}
	}
	return DefaultCategory
}

func scalingOf(m *rawMath) Scaling {
	if m == nil || strings.TrimSpace(m.Equation) == "" {
		return Scaling{Expression: DefaultExpression}
	}
	return Scaling{Expression: strings.TrimSpace(m.Equation)}
}

func parseDecimals(s string) int {
	v, err := ParseNumber(s)
	if err != nil || v > 15 {
		return -1
	}
	return int(v)
}

// charsetReader lets documents declare a legacy single-byte encoding.
func charsetReader(label string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "utf-8", "utf8", "us-ascii", "ascii":
		return input, nil
	case "iso-8859-1", "latin1", "latin-1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	default:
		return nil, fmt.Errorf("unsupported charset %q", label)
	}
}
