package export

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"

	"github.com/xdfexport/xdfexport-go/pkg/xdf"
)

var (
	docEncMode cbor.EncMode
	docDecMode cbor.DecMode
)

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	docEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create document CBOR encoder mode: %v", err))
	}

	decOpts := cbor.DecOptions{
		DupMapKey:   cbor.DupMapKeyEnforcedAPF,
		IndefLength: cbor.IndefLengthAllowed,
	}
	docDecMode, err = decOpts.DecMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create document CBOR decoder mode: %v", err))
	}
}

// JSON writes the Document as indented JSON.
type JSON struct{}

// Extension implements Formatter.
func (JSON) Extension() string { return "json" }

// Format implements Formatter.
func (JSON) Format(w io.Writer, c *xdf.Catalog) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(c)); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return nil
}

// YAML writes the Document as YAML.
type YAML struct{}

// Extension implements Formatter.
func (YAML) Extension() string { return "yaml" }

// Format implements Formatter.
func (YAML) Format(w io.Writer, c *xdf.Catalog) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(NewDocument(c)); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return enc.Close()
}

// CBOR writes the Document as canonical CBOR with integer keys.
type CBOR struct{}

// Extension implements Formatter.
func (CBOR) Extension() string { return "cbor" }

// Format implements Formatter.
func (CBOR) Format(w io.Writer, c *xdf.Catalog) error {
	if err := docEncMode.NewEncoder(w).Encode(NewDocument(c)); err != nil {
		return fmt.Errorf("failed to encode document: %w", err)
	}
	return nil
}

// DecodeJSON reads a Document written by the json format.
func DecodeJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &doc, nil
}

// DecodeYAML reads a Document written by the yaml format.
func DecodeYAML(r io.Reader) (*Document, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &doc, nil
}

// DecodeCBOR reads a Document written by the cbor format.
func DecodeCBOR(r io.Reader) (*Document, error) {
	var doc Document
	if err := docDecMode.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode document: %w", err)
	}
	return &doc, nil
}

// ReadDocument opens an exported json, yaml or cbor file, chosen by extension.
func ReadDocument(path string) (*Document, error) {
	var decode func(io.Reader) (*Document, error)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		decode = DecodeJSON
	case ".yaml", ".yml":
		decode = DecodeYAML
	case ".cbor":
		decode = DecodeCBOR
	default:
		return nil, fmt.Errorf("%w: cannot read %s", ErrUnknownFormat, path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	doc, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
