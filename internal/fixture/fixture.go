// Package fixture builds definition documents and firmware images for tests.
package fixture

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
)

// Constant describes an XDFCONSTANT.
type Constant struct {
	Title       string
	Category    string
	Description string
	Units       string
	Address     uint32
	Bits        int
	TypeFlags   uint32
	Equation    string
}

// Flag describes an XDFFLAG.
type Flag struct {
	Title       string
	Category    string
	Description string
	Address     uint32
	Mask        uint32
}

// Axis describes an XDFAXIS. Either Labels or a bound range (Address with Bound set).
type Axis struct {
	Labels   []string
	Bound    bool
	Address  uint32
	Count    int
	Bits     int
	Equation string
	Units    string
}

// Table describes an XDFTABLE.
type Table struct {
	Title       string
	Category    string
	Description string
	Units       string
	Address     uint32
	Rows, Cols  int
	Bits        int
	TypeFlags   uint32
	Equation    string
	X, Y        *Axis
}

// Doc describes a definition document.
type Doc struct {
	Title       string
	Description string
	Categories  []string
	Constants   []Constant
	Flags       []Flag
	Tables      []Table
}

// Bytes renders the document as XDF XML.
func (d Doc) Bytes() []byte {
	var b bytes.Buffer
	b.WriteString("<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	b.WriteString("<XDFFORMAT version=\"1.60\">\n  <XDFHEADER>\n")
	writeText(&b, "    ", "deftitle", d.Title)
	writeText(&b, "    ", "description", d.Description)
	for i, c := range d.Categories {
		fmt.Fprintf(&b, "    <CATEGORY index=\"0x%X\" name=\"%s\"/>\n", i, escape(c))
	}
	b.WriteString("  </XDFHEADER>\n")

	for _, c := range d.Constants {
		b.WriteString("  <XDFCONSTANT>\n")
		d.writeCommon(&b, c.Title, c.Category, c.Description, c.Units)
		fmt.Fprintf(&b, "    <EMBEDDEDDATA mmedaddress=\"0x%X\" mmedelementsizebits=\"%d\" mmedtypeflags=\"0x%X\"/>\n",
			c.Address, bitsOr8(c.Bits), c.TypeFlags)
		writeMath(&b, "    ", c.Equation)
		b.WriteString("  </XDFCONSTANT>\n")
	}

	for _, f := range d.Flags {
		b.WriteString("  <XDFFLAG>\n")
		d.writeCommon(&b, f.Title, f.Category, f.Description, "")
		fmt.Fprintf(&b, "    <EMBEDDEDDATA mmedaddress=\"0x%X\"/>\n", f.Address)
		fmt.Fprintf(&b, "    <mask>0x%X</mask>\n", f.Mask)
		b.WriteString("  </XDFFLAG>\n")
	}

	for _, t := range d.Tables {
		b.WriteString("  <XDFTABLE>\n")
		d.writeCommon(&b, t.Title, t.Category, t.Description, "")
		writeAxis(&b, "x", t.X)
		writeAxis(&b, "y", t.Y)
		b.WriteString("    <XDFAXIS id=\"z\">\n")
		fmt.Fprintf(&b, "      <EMBEDDEDDATA mmedaddress=\"0x%X\" mmedelementsizebits=\"%d\" mmedtypeflags=\"0x%X\" mmedrowcount=\"%d\" mmedcolcount=\"%d\"/>\n",
			t.Address, bitsOr8(t.Bits), t.TypeFlags, t.Rows, t.Cols)
		writeText(&b, "      ", "units", t.Units)
		writeMath(&b, "      ", t.Equation)
		b.WriteString("    </XDFAXIS>\n")
		b.WriteString("  </XDFTABLE>\n")
	}

	b.WriteString("</XDFFORMAT>\n")
	return b.Bytes()
}

func (d Doc) writeCommon(b *bytes.Buffer, title, category, description, units string) {
	writeText(b, "    ", "title", title)
	writeText(b, "    ", "description", description)
	writeText(b, "    ", "units", units)
	if i := slices.Index(d.Categories, category); i >= 0 {
		fmt.Fprintf(b, "    <CATEGORYMEM index=\"0\" category=\"%d\"/>\n", i+1)
	}
}

func writeAxis(b *bytes.Buffer, id string, a *Axis) {
	if a == nil {
		return
	}
	fmt.Fprintf(b, "    <XDFAXIS id=\"%s\">\n", id)
	if a.Bound {
		fmt.Fprintf(b, "      <EMBEDDEDDATA mmedaddress=\"0x%X\" mmedelementsizebits=\"%d\"/>\n", a.Address, bitsOr8(a.Bits))
		fmt.Fprintf(b, "      <indexcount>%d</indexcount>\n", a.Count)
	} else {
		fmt.Fprintf(b, "      <indexcount>%d</indexcount>\n", len(a.Labels))
		for i, l := range a.Labels {
			fmt.Fprintf(b, "      <LABEL index=\"%d\" value=\"%s\"/>\n", i, escape(l))
		}
	}
	writeText(b, "      ", "units", a.Units)
	writeMath(b, "      ", a.Equation)
	b.WriteString("    </XDFAXIS>\n")
}

func writeText(b *bytes.Buffer, indent, tag, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s<%s>%s</%s>\n", indent, tag, escape(value), tag)
}

func writeMath(b *bytes.Buffer, indent, eq string) {
	if eq == "" {
		return
	}
	fmt.Fprintf(b, "%s<MATH equation=\"%s\"><VAR id=\"X\"/></MATH>\n", indent, escape(eq))
}

func escape(s string) string {
	var sb strings.Builder
	_ = xml.EscapeText(&sb, []byte(s))
	return sb.String()
}

func bitsOr8(bits int) int {
	if bits == 0 {
		return 8
	}
	return bits
}

// Image returns a zero-filled image of size bytes with patches applied.
func Image(size int, patches map[uint32][]byte) []byte {
	img := make([]byte, size)
	for addr, data := range patches {
		copy(img[addr:], data)
	}
	return img
}

// WriteFile writes data to dir/name and returns the path. It fails the test on error.
func WriteFile(tb testing.TB, dir, name string, data []byte) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		tb.Fatalf("write %s: %v", path, err)
	}
	return path
}

// Sample returns a small document with one element of each kind:
// "Idle Speed" at 0x10, "Closed Loop" bit 3 of 0x20, and a 2x2 "Fuel Map" at 0x100.
func Sample() Doc {
	return Doc{
		Title:       "Sample ECU",
		Description: "Fixture definition",
		Categories:  []string{"Fuel", "Idle"},
		Constants: []Constant{
			{Title: "Idle Speed", Category: "Idle", Address: 0x10, Units: "rpm", Description: "Target idle"},
		},
		Flags: []Flag{
			{Title: "Closed Loop", Category: "Fuel", Address: 0x20, Mask: 0x08},
		},
		Tables: []Table{
			{
				Title: "Fuel Map", Category: "Fuel", Address: 0x100, Rows: 2, Cols: 2, Units: "ms",
				X: &Axis{Labels: []string{"1000", "2000"}, Units: "rpm"},
				Y: &Axis{Labels: []string{"20", "40"}, Units: "kPa"},
			},
		},
	}
}

// SampleImage returns a 512-byte image matching Sample: 42 at 0x10, 0x08 at 0x20,
// and the cells 1 2 3 4 at 0x100.
func SampleImage() []byte {
	return Image(0x200, map[uint32][]byte{
		0x10:  {0x2A},
		0x20:  {0x08},
		0x100: {1, 2, 3, 4},
	})
}
