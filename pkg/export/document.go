package export

import (
	"fmt"

	"github.com/xdfexport/xdfexport-go/pkg/xdf"
)

// DocumentVersion identifies the Document layout.
const DocumentVersion = 1

// Document is the structured form of a catalog shared by the json, yaml and cbor
// formats. It carries every descriptor field and the resolution status, so
// Catalog reproduces the exported catalog exactly.
type Document struct {
	Version     int       `json:"version" yaml:"version" cbor:"1,keyasint"`
	Title       string    `json:"title" yaml:"title" cbor:"2,keyasint"`
	Description string    `json:"description,omitempty" yaml:"description,omitempty" cbor:"3,keyasint,omitempty"`
	Firmware    *Firmware `json:"firmware,omitempty" yaml:"firmware,omitempty" cbor:"4,keyasint,omitempty"`
	Counts      Counts    `json:"counts" yaml:"counts" cbor:"5,keyasint"`
	Constants   []Element `json:"constants" yaml:"constants" cbor:"6,keyasint"`
	Flags       []Element `json:"flags" yaml:"flags" cbor:"7,keyasint"`
	Tables      []Element `json:"tables" yaml:"tables" cbor:"8,keyasint"`
}

// Firmware identifies the image the values were decoded from.
type Firmware struct {
	Path   string `json:"path" yaml:"path" cbor:"1,keyasint"`
	Size   int    `json:"size" yaml:"size" cbor:"2,keyasint"`
	Digest string `json:"blake2b,omitempty" yaml:"blake2b,omitempty" cbor:"3,keyasint,omitempty"`
}

// Counts is the element count triple.
type Counts struct {
	Constants int `json:"constants" yaml:"constants" cbor:"1,keyasint"`
	Flags     int `json:"flags" yaml:"flags" cbor:"2,keyasint"`
	Tables    int `json:"tables" yaml:"tables" cbor:"3,keyasint"`
}

// Element is one descriptor with its resolved part.
type Element struct {
	ID          string `json:"id,omitempty" yaml:"id,omitempty" cbor:"1,keyasint,omitempty"`
	Title       string `json:"title" yaml:"title" cbor:"2,keyasint"`
	Category    string `json:"category" yaml:"category" cbor:"3,keyasint"`
	Description string `json:"description,omitempty" yaml:"description,omitempty" cbor:"4,keyasint,omitempty"`
	Address     string `json:"address" yaml:"address" cbor:"5,keyasint"`
	Units       string `json:"units,omitempty" yaml:"units,omitempty" cbor:"6,keyasint,omitempty"`
	Type        string `json:"type" yaml:"type" cbor:"7,keyasint"`
	Scaling     string `json:"scaling,omitempty" yaml:"scaling,omitempty" cbor:"8,keyasint,omitempty"`
	Decimals    int    `json:"decimals" yaml:"decimals" cbor:"9,keyasint"`

	Bit  *int   `json:"bit,omitempty" yaml:"bit,omitempty" cbor:"10,keyasint,omitempty"`
	Mask uint32 `json:"mask,omitempty" yaml:"mask,omitempty" cbor:"11,keyasint,omitempty"`

	Rows  int   `json:"rows,omitempty" yaml:"rows,omitempty" cbor:"12,keyasint,omitempty"`
	Cols  int   `json:"cols,omitempty" yaml:"cols,omitempty" cbor:"13,keyasint,omitempty"`
	XAxis *Axis `json:"x_axis,omitempty" yaml:"x_axis,omitempty" cbor:"14,keyasint,omitempty"`
	YAxis *Axis `json:"y_axis,omitempty" yaml:"y_axis,omitempty" cbor:"15,keyasint,omitempty"`

	Status string      `json:"status" yaml:"status" cbor:"16,keyasint"`
	Reason string      `json:"reason,omitempty" yaml:"reason,omitempty" cbor:"17,keyasint,omitempty"`
	Value  *float64    `json:"value,omitempty" yaml:"value,omitempty" cbor:"18,keyasint,omitempty"`
	Set    *bool       `json:"set,omitempty" yaml:"set,omitempty" cbor:"19,keyasint,omitempty"`
	Grid   [][]float64 `json:"grid,omitempty" yaml:"grid,omitempty" cbor:"20,keyasint,omitempty"`
}

// Axis is a table axis.
type Axis struct {
	Labels   []string  `json:"labels,omitempty" yaml:"labels,omitempty" cbor:"1,keyasint,omitempty"`
	Bound    bool      `json:"bound,omitempty" yaml:"bound,omitempty" cbor:"2,keyasint,omitempty"`
	Address  string    `json:"address,omitempty" yaml:"address,omitempty" cbor:"3,keyasint,omitempty"`
	Count    int       `json:"count,omitempty" yaml:"count,omitempty" cbor:"4,keyasint,omitempty"`
	Type     string    `json:"type,omitempty" yaml:"type,omitempty" cbor:"5,keyasint,omitempty"`
	Scaling  string    `json:"scaling,omitempty" yaml:"scaling,omitempty" cbor:"6,keyasint,omitempty"`
	Units    string    `json:"units,omitempty" yaml:"units,omitempty" cbor:"7,keyasint,omitempty"`
	Decimals int       `json:"decimals" yaml:"decimals" cbor:"8,keyasint"`
	Values   []float64 `json:"values,omitempty" yaml:"values,omitempty" cbor:"9,keyasint,omitempty"`
	Status   string    `json:"status" yaml:"status" cbor:"10,keyasint"`
	Reason   string    `json:"reason,omitempty" yaml:"reason,omitempty" cbor:"11,keyasint,omitempty"`
}

// NewDocument converts a catalog into its structured form.
func NewDocument(c *xdf.Catalog) *Document {
	n, f, tb := c.Counts()
	doc := &Document{
		Version:     DocumentVersion,
		Title:       c.Title,
		Description: c.Description,
		Counts:      Counts{Constants: n, Flags: f, Tables: tb},
		Constants:   documentElements(c.Constants),
		Flags:       documentElements(c.Flags),
		Tables:      documentElements(c.Tables),
	}
	if s := c.Source; s != nil {
		doc.Firmware = &Firmware{Path: s.Path, Size: s.Size, Digest: s.Digest}
	}
	return doc
}

func documentElements(in []*xdf.Element) []Element {
	out := make([]Element, 0, len(in))
	for _, e := range in {
		out = append(out, documentElement(e))
	}
	return out
}

func documentElement(e *xdf.Element) Element {
	d := Element{
		ID:          e.ID,
		Title:       e.Title,
		Category:    e.Category,
		Description: e.Description,
		Address:     address(e.Address),
		Units:       e.Units,
		Type:        e.DataType.String(),
		Scaling:     e.Scaling.Expression,
		Decimals:    e.Decimals,
		Status:      e.Status.String(),
		Reason:      e.Reason,
	}

	switch e.Kind {
	case xdf.KindConstant:
		if e.Status == xdf.StatusResolved {
			v := e.Value
			d.Value = &v
		}
	case xdf.KindFlag:
		bit := e.BitPosition
		d.Bit = &bit
		d.Mask = e.Mask
		if e.Status == xdf.StatusResolved {
			set := e.Set
			d.Set = &set
		}
	case xdf.KindTable:
		d.Rows, d.Cols = e.Rows, e.Cols
		d.XAxis = documentAxis(e.XAxis)
		d.YAxis = documentAxis(e.YAxis)
		d.Grid = e.Grid
	}
	return d
}

func documentAxis(a *xdf.Axis) *Axis {
	if a == nil {
		return nil
	}
	d := &Axis{
		Labels:   a.Labels,
		Bound:    a.Bound,
		Units:    a.Units,
		Decimals: a.Decimals,
		Values:   a.Values,
		Status:   a.Status.String(),
		Reason:   a.Reason,
		Scaling:  a.Scaling.Expression,
	}
	if a.Bound {
		d.Address = address(a.Address)
		d.Count = a.Count
	}
	if a.DataType != (xdf.DataType{}) {
		d.Type = a.DataType.String()
	}
	return d
}

// Catalog rebuilds the catalog a document was produced from.
func (d *Document) Catalog() (*xdf.Catalog, error) {
	c := &xdf.Catalog{Title: d.Title, Description: d.Description}
	if f := d.Firmware; f != nil {
		c.Source = &xdf.Source{Path: f.Path, Size: f.Size, Digest: f.Digest}
	}

	var err error
	if c.Constants, err = catalogElements(xdf.KindConstant, d.Constants); err != nil {
		return nil, err
	}
	if c.Flags, err = catalogElements(xdf.KindFlag, d.Flags); err != nil {
		return nil, err
	}
	if c.Tables, err = catalogElements(xdf.KindTable, d.Tables); err != nil {
		return nil, err
	}
	return c, nil
}

func catalogElements(kind xdf.Kind, in []Element) ([]*xdf.Element, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]*xdf.Element, 0, len(in))
	for i := range in {
		e, err := in[i].element(kind)
		if err != nil {
			return nil, fmt.Errorf("%s #%d %q: %w", kind, i+1, in[i].Title, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (d *Element) element(kind xdf.Kind) (*xdf.Element, error) {
	addr, err := parseAddress(d.Address)
	if err != nil {
		return nil, err
	}
	dt, err := xdf.ParseDataType(d.Type)
	if err != nil {
		return nil, err
	}
	status, err := xdf.ParseStatus(d.Status)
	if err != nil {
		return nil, err
	}

	e := &xdf.Element{
		Kind:        kind,
		ID:          d.ID,
		Title:       d.Title,
		Category:    d.Category,
		Description: d.Description,
		Address:     addr,
		Units:       d.Units,
		DataType:    dt,
		Scaling:     xdf.Scaling{Expression: d.Scaling},
		Decimals:    d.Decimals,
		BitPosition: -1,
		Mask:        d.Mask,
		Rows:        d.Rows,
		Cols:        d.Cols,
		Grid:        d.Grid,
		Status:      status,
		Reason:      d.Reason,
	}
	if d.Bit != nil {
		e.BitPosition = *d.Bit
	}
	if d.Value != nil {
		e.Value = *d.Value
	}
	if d.Set != nil {
		e.Set = *d.Set
	}
	if e.XAxis, err = d.XAxis.axis(); err != nil {
		return nil, fmt.Errorf("x axis: %w", err)
	}
	if e.YAxis, err = d.YAxis.axis(); err != nil {
		return nil, fmt.Errorf("y axis: %w", err)
	}
	return e, nil
}

func (d *Axis) axis() (*xdf.Axis, error) {
	if d == nil {
		return nil, nil
	}
	a := &xdf.Axis{
		Labels:   d.Labels,
		Bound:    d.Bound,
		Count:    d.Count,
		Scaling:  xdf.Scaling{Expression: d.Scaling},
		Units:    d.Units,
		Decimals: d.Decimals,
		Values:   d.Values,
		Reason:   d.Reason,
	}
	var err error
	if d.Address != "" {
		if a.Address, err = parseAddress(d.Address); err != nil {
			return nil, err
		}
	}
	if a.DataType, err = xdf.ParseDataType(d.Type); err != nil {
		return nil, err
	}
	if a.Status, err = xdf.ParseStatus(d.Status); err != nil {
		return nil, err
	}
	return a, nil
}

func parseAddress(s string) (uint32, error) {
	v, err := xdf.ParseNumber(s)
	if err != nil {
		return 0, fmt.Errorf("address: %w", err)
	}
	if v > 0xFFFFFFFF {
		return 0, fmt.Errorf("address %s exceeds 32 bits", s)
	}
	return uint32(v), nil
}
