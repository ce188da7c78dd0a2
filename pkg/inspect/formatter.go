package inspect

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/xdfexport/xdfexport-go/pkg/export"
	"github.com/xdfexport/xdfexport-go/pkg/xdf"
)

// Formatter formats inspection output.
type Formatter struct {
	// ShowMetadata includes data type, scaling and status lines
	ShowMetadata bool

	// ShowAddress includes element addresses in listings
	ShowAddress bool

	// IndentWidth is the number of spaces per indent level
	IndentWidth int
}

// NewFormatter creates a new Formatter with default settings.
func NewFormatter() *Formatter {
	return &Formatter{
		ShowMetadata: true,
		ShowAddress:  true,
		IndentWidth:  2,
	}
}

// Indent returns the content with indentation.
func (f *Formatter) Indent(depth int, content string) string {
	width := f.IndentWidth
	if width == 0 {
		width = 2
	}
	return strings.Repeat(" ", depth*width) + content
}

// FormatValue formats an element value with its units.
func (f *Formatter) FormatValue(e *xdf.Element) string {
	switch e.Status {
	case xdf.StatusPending:
		return "(not resolved)"
	case xdf.StatusUnresolved:
		return export.Value(e)
	}
	v := export.Value(e)
	if e.Kind == xdf.KindConstant && e.Units != "" {
		v += " " + e.Units
	}
	return v
}

// FormatList formats one line per element.
func (f *Formatter) FormatList(elems []*xdf.Element) string {
	if len(elems) == 0 {
		return f.Indent(1, "(no elements)") + "\n"
	}

	var sb strings.Builder
	for _, e := range elems {
		line := fmt.Sprintf("[%s] %s", e.Kind, e.Title)
		if f.ShowAddress {
			line += " @ " + formatAddress(e.Address)
		}
		line += " = " + f.FormatValue(e)
		sb.WriteString(f.Indent(1, line))
		sb.WriteString("\n")
	}
	return sb.String()
}

// FormatElement formats every detail of one element.
func (f *Formatter) FormatElement(e *xdf.Element) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s: %s\n", e.Kind, e.Title)
	field := func(name, value string) {
		if value != "" {
			sb.WriteString(f.Indent(1, fmt.Sprintf("%-12s %s\n", name+":", value)))
		}
	}

	field("Category", e.Category)
	field("Address", formatAddress(e.Address))
	switch e.Kind {
	case xdf.KindFlag:
		if e.BitPosition >= 0 {
			field("Bit", fmt.Sprintf("%d (mask 0x%02X)", e.BitPosition, e.Mask))
		}
		field("State", f.FormatValue(e))
	case xdf.KindTable:
		field("Size", fmt.Sprintf("%dx%d", e.Rows, e.Cols))
		field("Units", e.Units)
	default:
		field("Value", f.FormatValue(e))
	}
	if f.ShowMetadata {
		if e.Kind != xdf.KindFlag {
			field("Type", e.DataType.String())
			if !e.Scaling.IsIdentity() {
				field("Scaling", e.Scaling.Expression)
			}
		}
		field("Status", e.Status.String())
		if e.Status == xdf.StatusUnresolved {
			field("Reason", e.Reason)
		}
	}
	field("Description", strings.Join(strings.Fields(e.Description), " "))

	if e.Kind == xdf.KindTable && e.Resolved() {
		sb.WriteString("\n")
		sb.WriteString(f.FormatGrid(e))
	}
	return sb.String()
}

// FormatGrid formats a resolved table with axis labels as column and row headers.
func (f *Formatter) FormatGrid(e *xdf.Element) string {
	if e.Kind != xdf.KindTable || len(e.Grid) == 0 {
		return ""
	}

	var sb strings.Builder
	tw := tabwriter.NewWriter(&sb, 0, 0, 2, ' ', tabwriter.AlignRight)
	cols := export.AxisLabels(e.XAxis, e.Cols)
	rows := export.AxisLabels(e.YAxis, e.Rows)

	indent := f.Indent(1, "")
	fmt.Fprint(tw, indent+"\t")
	for _, c := range cols {
		fmt.Fprintf(tw, "%s\t", c)
	}
	fmt.Fprintln(tw)
	for r, row := range e.Grid {
		fmt.Fprintf(tw, "%s%s\t", indent, rows[r])
		for _, v := range row {
			fmt.Fprintf(tw, "%s\t", export.Number(v, e.Decimals))
		}
		fmt.Fprintln(tw)
	}
	_ = tw.Flush()
	return sb.String()
}

// FormatSummary formats a catalog summary.
func (f *Formatter) FormatSummary(s *Summary) string {
	var sb strings.Builder
	title := s.Title
	if title == "" {
		title = "(untitled definition)"
	}
	sb.WriteString(title + "\n")
	if s.Description != "" {
		sb.WriteString(f.Indent(1, strings.Join(strings.Fields(s.Description), " ")) + "\n")
	}
	if s.Source != nil {
		sb.WriteString(f.Indent(1, fmt.Sprintf("Firmware: %s (%d bytes)", s.Source.Path, s.Source.Size)) + "\n")
	}
	sb.WriteString(f.Indent(1, fmt.Sprintf("Found: %d constants, %d flags, %d tables", s.Constants, s.Flags, s.Tables)) + "\n")
	if f.ShowMetadata {
		sb.WriteString(f.Indent(1, fmt.Sprintf("Resolved: %d, Unresolved: %d, Pending: %d", s.Resolved, s.Unresolved, s.Pending)) + "\n")
	}
	if len(s.Categories) > 0 {
		sb.WriteString(f.Indent(1, "Categories:") + "\n")
		for _, c := range s.Categories {
			sb.WriteString(f.Indent(2, fmt.Sprintf("%s (%d)", c.Name, c.Count)) + "\n")
		}
	}
	return sb.String()
}
