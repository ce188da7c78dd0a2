package inspect

import (
	"github.com/xdfexport/xdfexport-go/pkg/export"
)

// OpenDocument creates an Inspector over a previously exported JSON, YAML or
// CBOR document. The catalog carries the values as they were exported.
func OpenDocument(path string) (*Inspector, error) {
	doc, err := export.ReadDocument(path)
	if err != nil {
		return nil, err
	}
	cat, err := doc.Catalog()
	if err != nil {
		return nil, err
	}
	return NewInspector(cat), nil
}
