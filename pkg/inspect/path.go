// Package inspect looks up and formats the elements of a resolved catalog.
//
// The inspect package offers a unified interface for:
//   - Parsing lookup paths (e.g., "tables/Fuel Map", "Idle/Idle Speed", "@0x100")
//   - Resolving kind names and categories
//   - Summarizing a catalog or a previously exported document
//   - Formatting elements for display in the shell
package inspect

import (
	"errors"
	"strings"

	"github.com/xdfexport/xdfexport-go/pkg/xdf"
)

// Path errors.
var (
	ErrEmptyPath     = errors.New("empty path")
	ErrInvalidPath   = errors.New("invalid path format")
	ErrInvalidNumber = errors.New("invalid address in path")
)

// Path is a parsed lookup path.
//
// Format: [scope/]title, scope, or @address. The scope is a kind name
// ("tables", "flag") or a category name.
type Path struct {
	// Scope is the kind or category part (empty when not given).
	Scope string

	// Title is the element title (empty for a partial path).
	Title string

	// Address is set when HasAddress is true.
	Address    uint32
	HasAddress bool

	// IsPartial indicates the path names a scope rather than an element.
	IsPartial bool

	// Raw stores the original input string.
	Raw string
}

// ParsePath parses a lookup path.
//
// Supported formats:
//   - "title" - element by title, any scope
//   - "scope/title" - element by title within a kind or category
//   - "scope" - partial, resolved by Find as a scope or, failing that, a title
//   - "@address" - elements covering a firmware address (decimal or 0x hex)
//
// Titles may contain further slashes; only the first one separates the scope.
func ParsePath(input string) (*Path, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyPath
	}

	p := &Path{Raw: input}

	if rest, ok := strings.CutPrefix(input, "@"); ok {
		addr, err := xdf.ParseNumber(strings.TrimSpace(rest))
		if err != nil || addr > 0xFFFFFFFF {
			return nil, ErrInvalidNumber
		}
		p.Address = uint32(addr)
		p.HasAddress = true
		return p, nil
	}

	if strings.HasPrefix(input, "/") || strings.HasSuffix(input, "/") {
		return nil, ErrInvalidPath
	}

	scope, title, found := strings.Cut(input, "/")
	if !found {
		p.Scope = input
		p.IsPartial = true
		return p, nil
	}

	p.Scope = strings.TrimSpace(scope)
	p.Title = strings.TrimSpace(title)
	if p.Scope == "" || p.Title == "" {
		return nil, ErrInvalidPath
	}
	return p, nil
}

// String returns the normalized path.
func (p *Path) String() string {
	switch {
	case p.HasAddress:
		return "@" + formatAddress(p.Address)
	case p.IsPartial:
		return p.Scope
	default:
		return p.Scope + "/" + p.Title
	}
}
