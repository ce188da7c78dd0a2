package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/xdfexport/xdfexport-go/pkg/xdf"
)

// Markdown writes a review document with one section per category.
type Markdown struct{}

// Extension implements Formatter.
func (Markdown) Extension() string { return "md" }

// Format implements Formatter.
func (Markdown) Format(w io.Writer, c *xdf.Catalog) error {
	_, err := io.WriteString(w, RenderMarkdown(c))
	return err
}

// RenderMarkdown returns the Markdown document for c.
func RenderMarkdown(c *xdf.Catalog) string {
	var b strings.Builder

	writeMarkdownHeader(&b, c)
	for _, cat := range c.Categories() {
		fmt.Fprintf(&b, "## %s\n\n", mdEscape(cat))
		elems := c.InCategory(cat)
		writeMarkdownConstants(&b, elems)
		writeMarkdownFlags(&b, elems)
		writeMarkdownTables(&b, elems)
	}
	return b.String()
}

func writeMarkdownHeader(b *strings.Builder, c *xdf.Catalog) {
	title := c.Title
	if title == "" {
		title = "Definition Export"
	}
	fmt.Fprintf(b, "# %s\n\n", mdEscape(title))

	if c.Description != "" {
		fmt.Fprintf(b, "> %s\n\n", mdEscape(singleLine(c.Description)))
	}

	n, f, tb := c.Counts()
	b.WriteString("| | |\n|---|---|\n")
	if s := c.Source; s != nil {
		fmt.Fprintf(b, "| **Firmware** | `%s` |\n", s.Path)
		fmt.Fprintf(b, "| **Size** | %d bytes |\n", s.Size)
		fmt.Fprintf(b, "| **Digest** | `%s` |\n", s.Digest)
	}
	fmt.Fprintf(b, "| **Constants** | %d |\n", n)
	fmt.Fprintf(b, "| **Flags** | %d |\n", f)
	fmt.Fprintf(b, "| **Tables** | %d |\n", tb)
	b.WriteString("\n")
}

func writeMarkdownConstants(b *strings.Builder, elems []*xdf.Element) {
	consts := ofKind(elems, xdf.KindConstant)
	if len(consts) == 0 {
		return
	}

	b.WriteString("### Constants\n\n")
	b.WriteString("| Title | Address | Value | Units | Type | Scaling | Description |\n")
	b.WriteString("|-------|--------:|------:|-------|------|---------|-------------|\n")
	for _, e := range consts {
		fmt.Fprintf(b, "| %s | `%s` | %s | %s | `%s` | `%s` | %s |\n",
			mdEscape(e.Title),
			address(e.Address),
			mdValue(e),
			mdEscape(e.Units),
			e.DataType,
			e.Scaling.Expression,
			mdEscape(singleLine(e.Description)),
		)
	}
	b.WriteString("\n")
}

func writeMarkdownFlags(b *strings.Builder, elems []*xdf.Element) {
	flags := ofKind(elems, xdf.KindFlag)
	if len(flags) == 0 {
		return
	}

	b.WriteString("### Flags\n\n")
	b.WriteString("| Title | Address | Bit | State | Description |\n")
	b.WriteString("|-------|--------:|----:|-------|-------------|\n")
	for _, e := range flags {
		fmt.Fprintf(b, "| %s | `%s` | %d | %s | %s |\n",
			mdEscape(e.Title),
			address(e.Address),
			e.BitPosition,
			mdValue(e),
			mdEscape(singleLine(e.Description)),
		)
	}
	b.WriteString("\n")
}

func writeMarkdownTables(b *strings.Builder, elems []*xdf.Element) {
	tables := ofKind(elems, xdf.KindTable)
	if len(tables) == 0 {
		return
	}

	b.WriteString("### Tables\n\n")
	for _, e := range tables {
		fmt.Fprintf(b, "#### %s\n\n", mdEscape(e.Title))
		if e.Description != "" {
			fmt.Fprintf(b, "%s\n\n", mdEscape(singleLine(e.Description)))
		}
		fmt.Fprintf(b, "- **Address**: `%s`\n", address(e.Address))
		fmt.Fprintf(b, "- **Size**: %s\n", size(e))
		fmt.Fprintf(b, "- **Type**: `%s`\n", e.DataType)
		if e.Units != "" {
			fmt.Fprintf(b, "- **Units**: %s\n", mdEscape(e.Units))
		}
		b.WriteString("\n")

		if e.Status != xdf.StatusResolved {
			fmt.Fprintf(b, "%s\n\n", mdValue(e))
			continue
		}
		writeMarkdownGrid(b, e)
	}
}

func writeMarkdownGrid(b *strings.Builder, e *xdf.Element) {
	cols := axisLabels(e.XAxis, e.Cols)
	rows := axisLabels(e.YAxis, e.Rows)

	corner := ""
	if e.YAxis != nil || e.XAxis != nil {
		corner = mdEscape(axisUnits(e.YAxis) + " \\ " + axisUnits(e.XAxis))
	}
	fmt.Fprintf(b, "| %s | %s |\n", corner, strings.Join(cols, " | "))
	b.WriteString("|---:" + strings.Repeat("|---:", len(cols)) + "|\n")
	for r, row := range e.Grid {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = number(v, e.Decimals)
		}
		fmt.Fprintf(b, "| **%s** | %s |\n", rows[r], strings.Join(cells, " | "))
	}
	b.WriteString("\n")

	for _, a := range []struct {
		name string
		axis *xdf.Axis
	}{{"X", e.XAxis}, {"Y", e.YAxis}} {
		if a.axis != nil && a.axis.Status == xdf.StatusUnresolved {
			fmt.Fprintf(b, "> %s axis %s: %s\n\n", a.name, Unresolved, mdEscape(a.axis.Reason))
		}
	}
}

func axisUnits(a *xdf.Axis) string {
	if a == nil {
		return ""
	}
	return a.Units
}

func mdValue(e *xdf.Element) string {
	if e.Status == xdf.StatusUnresolved {
		return "**" + mdEscape(unresolved(e)) + "**"
	}
	return mdEscape(summary(e))
}

func ofKind(elems []*xdf.Element, k xdf.Kind) []*xdf.Element {
	var out []*xdf.Element
	for _, e := range elems {
		if e.Kind == k {
			out = append(out, e)
		}
	}
	return out
}

// mdEscape escapes characters that would break a table cell.
func mdEscape(s string) string {
	return strings.NewReplacer("|", "\\|", "\n", " ").Replace(s)
}
