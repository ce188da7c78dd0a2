package export

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/xdfexport/xdfexport-go/pkg/xdf"
)

// Text writes a plain-text listing grouped by category. The same layout is
// registered as txt, text and test; only the file extension differs.
type Text struct {
	ext string
}

// Extension implements Formatter.
func (t Text) Extension() string {
	if t.ext == "" {
		return "txt"
	}
	return t.ext
}

// Format implements Formatter.
func (t Text) Format(w io.Writer, c *xdf.Catalog) error {
	bw := bufio.NewWriter(w)

	writeTextHeader(bw, c)
	for _, cat := range c.Categories() {
		fmt.Fprintf(bw, "\n[%s]\n", cat)
		for _, e := range c.InCategory(cat) {
			writeTextElement(bw, e)
		}
	}
	return bw.Flush()
}

func writeTextHeader(w io.Writer, c *xdf.Catalog) {
	title := c.Title
	if title == "" {
		title = "Definition Export"
	}
	fmt.Fprintf(w, "%s\n%s\n", title, strings.Repeat("=", len([]rune(title))))
	if c.Description != "" {
		fmt.Fprintf(w, "%s\n", singleLine(c.Description))
	}
	if s := c.Source; s != nil {
		fmt.Fprintf(w, "Firmware: %s (%d bytes)\n", s.Path, s.Size)
		fmt.Fprintf(w, "Digest: %s\n", s.Digest)
	}
	n, f, tb := c.Counts()
	fmt.Fprintf(w, "Constants: %d, Flags: %d, Tables: %d\n", n, f, tb)
}

func writeTextElement(w io.Writer, e *xdf.Element) {
	line := fmt.Sprintf("%s: %s @ %s = %s", e.Kind, e.Title, address(e.Address), summary(e))
	if e.Units != "" && e.Status != xdf.StatusUnresolved {
		line += " " + e.Units
	}
	fmt.Fprintln(w, line)
	if e.Description != "" {
		fmt.Fprintf(w, "    %s\n", singleLine(e.Description))
	}
	if e.Kind == xdf.KindTable && e.Status == xdf.StatusResolved {
		writeTextGrid(w, e)
	}
}

func writeTextGrid(w io.Writer, e *xdf.Element) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	cols := axisLabels(e.XAxis, e.Cols)
	rows := axisLabels(e.YAxis, e.Rows)

	fmt.Fprintf(tw, "    \t%s\t\n", strings.Join(cols, "\t"))
	for r, row := range e.Grid {
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = number(v, e.Decimals)
		}
		fmt.Fprintf(tw, "    %s\t%s\t\n", rows[r], strings.Join(cells, "\t"))
	}
	tw.Flush()
}
