package export

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"

	"github.com/xdfexport/xdfexport-go/pkg/xdf"
)

// Unresolved is the marker written in place of a value that could not be decoded.
const Unresolved = "UNRESOLVED"

// ErrUnknownFormat is returned by Lookup for an unregistered format id.
var ErrUnknownFormat = errors.New("unknown format")

// Formatter writes a catalog in one output format.
type Formatter interface {
	// Format writes c to w. It must not modify c.
	Format(w io.Writer, c *xdf.Catalog) error

	// Extension returns the file extension without the dot.
	Extension() string
}

var registry = map[string]func() Formatter{
	"txt":  func() Formatter { return Text{ext: "txt"} },
	"text": func() Formatter { return Text{ext: "text"} },
	"test": func() Formatter { return Text{ext: "test"} },
	"json": func() Formatter { return JSON{} },
	"md":   func() Formatter { return Markdown{} },
	"csv":  func() Formatter { return CSV{} },
	"yaml": func() Formatter { return YAML{} },
	"cbor": func() Formatter { return CBOR{} },
}

// Lookup returns the formatter registered under id (case-insensitive).
func Lookup(id string) (Formatter, error) {
	mk, ok := registry[strings.ToLower(strings.TrimSpace(id))]
	if !ok {
		return nil, fmt.Errorf("%w: %s (supported: %s)", ErrUnknownFormat, id, strings.Join(IDs(), ", "))
	}
	return mk(), nil
}

// IDs returns the registered format ids in sorted order.
func IDs() []string {
	ids := make([]string, 0, len(registry))
	for id := range registry {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// replaceable lists the extensions OutputPath swaps instead of appending to.
var replaceable = []string{".txt", ".json", ".md", ".text", ".test", ".csv", ".yaml", ".cbor"}

// OutputPath derives an output file name from a base path and extension.
// A recognized output extension on base is replaced; anything else is kept.
func OutputPath(base, ext string) string {
	ext = strings.TrimPrefix(ext, ".")
	if cur := filepath.Ext(base); slices.Contains(replaceable, strings.ToLower(cur)) {
		base = strings.TrimSuffix(base, cur)
	}
	return base + "." + ext
}
