// Package export serializes a resolved catalog into output formats.
//
// Formatters only read the catalog. Every formatter accepts an empty catalog and
// renders unresolved elements with the UNRESOLVED marker and the failure reason.
//
// Formats:
//
//	txt, text, test  plain text grouped by category
//	json             lossless Document (see DecodeJSON)
//	md               Markdown for human review
//	csv              one row per element for spreadsheets
//	yaml, cbor       the Document in other encodings
//
// Output files are named with OutputPath:
//
//	OutputPath("out/ecu.txt", "json") // out/ecu.json
//	OutputPath("out/ecu", "md")       // out/ecu.md
package export
