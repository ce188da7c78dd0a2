package export_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/xdfexport/xdfexport-go/internal/fixture"
	"github.com/xdfexport/xdfexport-go/pkg/export"
	"github.com/xdfexport/xdfexport-go/pkg/firmware"
	"github.com/xdfexport/xdfexport-go/pkg/resolve"
	"github.com/xdfexport/xdfexport-go/pkg/xdf"
)

// resolved parses doc and resolves it against img.
func resolved(t *testing.T, doc fixture.Doc, img []byte) *xdf.Catalog {
	t.Helper()
	cat, err := xdf.ParseBytes(doc.Bytes())
	if err != nil {
		t.Fatalf("ParseBytes() error = %v", err)
	}
	if _, err := resolve.New().Resolve(context.Background(), cat, firmware.FromBytes("sample.bin", img)); err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return cat
}

// withFailures extends the sample with elements that cannot resolve.
func withFailures() fixture.Doc {
	doc := fixture.Sample()
	doc.Constants = append(doc.Constants, fixture.Constant{
		Title: "Beyond End", Category: "Idle", Address: 0x400, Units: "rpm",
		Description: strings.Repeat("long description ", 10),
	})
	doc.Tables = append(doc.Tables, fixture.Table{
		Title: "Spark", Category: "Spark", Address: 0x00, Rows: 2, Cols: 2, Bits: 16, Equation: "X/4",
		X: &fixture.Axis{Bound: true, Address: 0x1000, Count: 2},
	})
	doc.Categories = append(doc.Categories, "Spark")
	return doc
}

func format(t *testing.T, id string, cat *xdf.Catalog) string {
	t.Helper()
	f, err := export.Lookup(id)
	if err != nil {
		t.Fatalf("Lookup(%q) error = %v", id, err)
	}
	var buf bytes.Buffer
	if err := f.Format(&buf, cat); err != nil {
		t.Fatalf("%s Format() error = %v", id, err)
	}
	return buf.String()
}

func TestLookup(t *testing.T) {
	tests := []struct {
		id  string
		ext string
	}{
		{"txt", "txt"},
		{"text", "text"},
		{"test", "test"},
		{"TXT", "txt"},
		{"json", "json"},
		{"md", "md"},
		{"csv", "csv"},
		{"yaml", "yaml"},
		{"cbor", "cbor"},
	}
	for _, tt := range tests {
		f, err := export.Lookup(tt.id)
		if err != nil {
			t.Errorf("Lookup(%q) error = %v", tt.id, err)
			continue
		}
		if f.Extension() != tt.ext {
			t.Errorf("Lookup(%q).Extension() = %q, want %q", tt.id, f.Extension(), tt.ext)
		}
	}

	_, err := export.Lookup("pdf")
	if !errors.Is(err, export.ErrUnknownFormat) {
		t.Errorf("Lookup(pdf) error = %v, want ErrUnknownFormat", err)
	}
	if len(export.IDs()) != 8 {
		t.Errorf("IDs() = %v", export.IDs())
	}
}

func TestOutputPath(t *testing.T) {
	tests := []struct {
		base, ext, want string
	}{
		{"out/ecu", "json", "out/ecu.json"},
		{"out/ecu.txt", "json", "out/ecu.json"},
		{"out/ecu.CSV", "md", "out/ecu.md"},
		{"out/ecu.test", "txt", "out/ecu.txt"},
		{"out/ecu.bin", "csv", "out/ecu.bin.csv"},
		{"out/v1.2", "txt", "out/v1.2.txt"},
		{"out/ecu", ".md", "out/ecu.md"},
	}
	for _, tt := range tests {
		if got := export.OutputPath(tt.base, tt.ext); got != tt.want {
			t.Errorf("OutputPath(%q, %q) = %q, want %q", tt.base, tt.ext, got, tt.want)
		}
	}
}

func TestEmptyCatalog(t *testing.T) {
	empty := &xdf.Catalog{}

	t.Run("txt", func(t *testing.T) {
		out := format(t, "txt", empty)
		if !strings.Contains(out, "Constants: 0, Flags: 0, Tables: 0") {
			t.Errorf("missing counts line:\n%s", out)
		}
		if strings.Contains(out, "[") {
			t.Errorf("empty catalog should have no category sections:\n%s", out)
		}
	})

	t.Run("csv", func(t *testing.T) {
		records, err := csv.NewReader(strings.NewReader(format(t, "csv", empty))).ReadAll()
		if err != nil {
			t.Fatalf("invalid csv: %v", err)
		}
		if len(records) != 1 {
			t.Fatalf("got %d records, want header only", len(records))
		}
		if diff := cmp.Diff(export.CSVHeader, records[0]); diff != "" {
			t.Errorf("header mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("md", func(t *testing.T) {
		out := format(t, "md", empty)
		if !strings.HasPrefix(out, "# Definition Export") || strings.Contains(out, "## ") {
			t.Errorf("unexpected markdown:\n%s", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		doc, err := export.DecodeJSON(strings.NewReader(format(t, "json", empty)))
		if err != nil {
			t.Fatalf("DecodeJSON() error = %v", err)
		}
		if doc.Counts != (export.Counts{}) || doc.Constants == nil || len(doc.Constants) != 0 {
			t.Errorf("doc = %+v", doc)
		}
	})

	for _, id := range []string{"yaml", "cbor", "text", "test"} {
		t.Run(id, func(t *testing.T) {
			format(t, id, empty)
		})
	}
}

func TestText(t *testing.T) {
	cat := resolved(t, withFailures(), fixture.SampleImage())
	out := format(t, "txt", cat)

	for _, want := range []string{
		"Sample ECU\n==========\n",
		"Firmware: sample.bin (512 bytes)",
		"Constants: 2, Flags: 1, Tables: 2",
		"[Idle]\nConstant: Idle Speed @ 0x10 = 42 rpm\n",
		"Constant: Beyond End @ 0x400 = UNRESOLVED: address 0x400+1 is out of bounds",
		"[Fuel]\nFlag: Closed Loop @ 0x20 = Set\n",
		"Table: Fuel Map @ 0x100 = 2x2 ms\n",
		"[Spark]\nTable: Spark @ 0x0 = 2x2\n",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("text output missing %q:\n%s", want, out)
		}
	}

	// Category order follows first appearance: Idle (constant) before Fuel (flag).
	if strings.Index(out, "[Idle]") > strings.Index(out, "[Fuel]") {
		t.Error("categories out of order")
	}

	lines := strings.Split(out, "\n")
	var grid []string
	for i, l := range lines {
		if strings.HasPrefix(l, "Table: Fuel Map") {
			grid = lines[i+1 : i+4]
		}
	}
	if len(grid) != 3 {
		t.Fatalf("grid not found:\n%s", out)
	}
	for i, want := range [][]string{{"1000", "2000"}, {"20", "1", "2"}, {"40", "3", "4"}} {
		if got := strings.Fields(grid[i]); !cmp.Equal(want, got) {
			t.Errorf("grid line %d = %q, want fields %v", i, grid[i], want)
		}
	}
}

func TestCSV(t *testing.T) {
	cat := resolved(t, withFailures(), fixture.SampleImage())
	records, err := csv.NewReader(strings.NewReader(format(t, "csv", cat))).ReadAll()
	if err != nil {
		t.Fatalf("invalid csv: %v", err)
	}
	if len(records) != 6 {
		t.Fatalf("got %d records, want header + 5 rows", len(records))
	}

	rows := records[1:]
	want := [][]string{
		{"Constant", "Idle", "Idle Speed", "0x10", "42", "rpm", "Target idle"},
		{"Flag", "Fuel", "Closed Loop", "0x20", "Set", "", ""},
		{"Table", "Fuel", "Fuel Map", "0x100", "2x2", "ms", ""},
		{"Table", "Spark", "Spark", "0x0", "2x2", "", ""},
	}
	got := [][]string{rows[0], rows[2], rows[3], rows[4]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("rows mismatch (-want +got):\n%s", diff)
	}

	bad := rows[1]
	if bad[2] != "Beyond End" || !strings.HasPrefix(bad[4], "UNRESOLVED: ") {
		t.Errorf("unresolved row = %v", bad)
	}
	if n := len([]rune(bad[6])); n != 100 {
		t.Errorf("description length = %d, want 100", n)
	}
}

func TestCSVFlagNotSet(t *testing.T) {
	img := fixture.SampleImage()
	img[0x20] = 0
	cat := resolved(t, fixture.Sample(), img)

	records, err := csv.NewReader(strings.NewReader(format(t, "csv", cat))).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if records[2][4] != "Not Set" {
		t.Errorf("flag value = %q, want Not Set", records[2][4])
	}
}

func TestMarkdown(t *testing.T) {
	cat := resolved(t, withFailures(), fixture.SampleImage())
	out := format(t, "md", cat)

	for _, want := range []string{
		"# Sample ECU\n",
		"> Fixture definition",
		"| **Digest** | `",
		"## Idle\n\n### Constants\n",
		"| Idle Speed | `0x10` | 42 | rpm | `u8` | `X` | Target idle |",
		"| Beyond End | `0x400` | **UNRESOLVED: ",
		"## Fuel\n\n### Flags\n",
		"| Closed Loop | `0x20` | 3 | Set |",
		"#### Fuel Map",
		"| kPa \\ rpm | 1000 | 2000 |",
		"| **20** | 1 | 2 |",
		"| **40** | 3 | 4 |",
		"> X axis UNRESOLVED: ",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown missing %q:\n%s", want, out)
		}
	}
}

func TestDocumentRoundTrip(t *testing.T) {
	cat := resolved(t, withFailures(), fixture.SampleImage())

	decoders := map[string]func(*bytes.Buffer) (*export.Document, error){
		"json": func(b *bytes.Buffer) (*export.Document, error) { return export.DecodeJSON(b) },
		"yaml": func(b *bytes.Buffer) (*export.Document, error) { return export.DecodeYAML(b) },
		"cbor": func(b *bytes.Buffer) (*export.Document, error) { return export.DecodeCBOR(b) },
	}

	for id, decode := range decoders {
		t.Run(id, func(t *testing.T) {
			f, _ := export.Lookup(id)
			var buf bytes.Buffer
			if err := f.Format(&buf, cat); err != nil {
				t.Fatalf("Format() error = %v", err)
			}

			doc, err := decode(&buf)
			if err != nil {
				t.Fatalf("decode error = %v", err)
			}
			if doc.Version != export.DocumentVersion {
				t.Errorf("Version = %d", doc.Version)
			}
			back, err := doc.Catalog()
			if err != nil {
				t.Fatalf("Catalog() error = %v", err)
			}
			if diff := cmp.Diff(cat, back); diff != "" {
				t.Errorf("round trip mismatch (-exported +decoded):\n%s", diff)
			}
		})
	}
}

func TestDocumentFields(t *testing.T) {
	cat := resolved(t, withFailures(), fixture.SampleImage())
	doc := export.NewDocument(cat)

	if doc.Firmware == nil || len(doc.Firmware.Digest) != 64 {
		t.Fatalf("Firmware = %+v", doc.Firmware)
	}
	if doc.Counts != (export.Counts{Constants: 2, Flags: 1, Tables: 2}) {
		t.Errorf("Counts = %+v", doc.Counts)
	}

	idle := doc.Constants[0]
	if idle.Address != "0x10" || idle.Status != "resolved" || idle.Value == nil || *idle.Value != 42 {
		t.Errorf("constant = %+v", idle)
	}
	bad := doc.Constants[1]
	if bad.Status != "unresolved" || bad.Value != nil || bad.Reason == "" {
		t.Errorf("unresolved constant = %+v", bad)
	}
	flag := doc.Flags[0]
	if flag.Bit == nil || *flag.Bit != 3 || flag.Set == nil || !*flag.Set {
		t.Errorf("flag = %+v", flag)
	}
}

func TestReadDocument(t *testing.T) {
	cat := resolved(t, fixture.Sample(), fixture.SampleImage())
	dir := t.TempDir()

	for _, id := range []string{"json", "yaml", "cbor"} {
		out := format(t, id, cat)
		path := fixture.WriteFile(t, dir, "sample."+id, []byte(out))

		doc, err := export.ReadDocument(path)
		if err != nil {
			t.Errorf("ReadDocument(%s) error = %v", id, err)
			continue
		}
		if doc.Title != "Sample ECU" {
			t.Errorf("%s Title = %q", id, doc.Title)
		}
	}

	if _, err := export.ReadDocument(dir + "/sample.txt"); !errors.Is(err, export.ErrUnknownFormat) {
		t.Errorf("ReadDocument(txt) error = %v, want ErrUnknownFormat", err)
	}
}
