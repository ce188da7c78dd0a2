package inspect

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xdfexport/xdfexport-go/pkg/xdf"
)

// Inspector errors.
var (
	ErrScopeNotFound   = errors.New("kind or category not found")
	ErrElementNotFound = errors.New("element not found")
	ErrAmbiguous       = errors.New("path matches more than one element")
)

// Inspector answers lookups against one catalog. It only reads the catalog.
type Inspector struct {
	catalog *xdf.Catalog
}

// NewInspector creates a new Inspector for the given catalog.
func NewInspector(cat *xdf.Catalog) *Inspector {
	return &Inspector{catalog: cat}
}

// Catalog returns the underlying catalog.
func (i *Inspector) Catalog() *xdf.Catalog {
	return i.catalog
}

// Summary describes a catalog for display.
type Summary struct {
	Title       string
	Description string
	Source      *xdf.Source

	Constants int
	Flags     int
	Tables    int

	Resolved   int
	Unresolved int
	Pending    int

	Categories []CategoryInfo
}

// CategoryInfo counts the elements of one category.
type CategoryInfo struct {
	Name  string
	Count int
}

// Summarize returns counts per kind, status and category.
func (i *Inspector) Summarize() *Summary {
	c := i.catalog
	s := &Summary{
		Title:       c.Title,
		Description: c.Description,
		Source:      c.Source,
	}
	s.Constants, s.Flags, s.Tables = c.Counts()
	for _, e := range c.Elements() {
		switch e.Status {
		case xdf.StatusResolved:
			s.Resolved++
		case xdf.StatusUnresolved:
			s.Unresolved++
		default:
			s.Pending++
		}
	}
	for _, name := range c.Categories() {
		s.Categories = append(s.Categories, CategoryInfo{Name: name, Count: len(c.InCategory(name))})
	}
	return s
}

// Find returns the elements a path selects, in catalog order.
func (i *Inspector) Find(p *Path) ([]*xdf.Element, error) {
	if p == nil {
		return nil, ErrEmptyPath
	}
	if p.HasAddress {
		return i.covering(p.Address)
	}

	if p.IsPartial {
		if scope, ok := i.scope(p.Scope); ok {
			return scope, nil
		}
		// A bare word that is no scope is a title.
		return i.byTitle(i.catalog.Elements(), p.Scope)
	}

	scope, ok := i.scope(p.Scope)
	if !ok {
		// "A/B" may itself be a title.
		if found, err := i.byTitle(i.catalog.Elements(), p.Raw); err == nil {
			return found, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrScopeNotFound, p.Scope)
	}
	return i.byTitle(scope, p.Title)
}

// Lookup parses input and returns the selected elements.
func (i *Inspector) Lookup(input string) ([]*xdf.Element, error) {
	p, err := ParsePath(input)
	if err != nil {
		return nil, err
	}
	return i.Find(p)
}

// Get returns the single element input selects.
func (i *Inspector) Get(input string) (*xdf.Element, error) {
	found, err := i.Lookup(input)
	if err != nil {
		return nil, err
	}
	if len(found) != 1 {
		return nil, fmt.Errorf("%w: %s (%d matches)", ErrAmbiguous, input, len(found))
	}
	return found[0], nil
}

// Search returns elements whose title or description contains query, ignoring case.
func (i *Inspector) Search(query string) []*xdf.Element {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []*xdf.Element
	for _, e := range i.catalog.Elements() {
		if strings.Contains(strings.ToLower(e.Title), q) || strings.Contains(strings.ToLower(e.Description), q) {
			out = append(out, e)
		}
	}
	return out
}

// Unresolved returns the elements that failed to resolve.
func (i *Inspector) Unresolved() []*xdf.Element {
	return i.catalog.Unresolved()
}

// scope returns the elements of a kind or category.
func (i *Inspector) scope(name string) ([]*xdf.Element, bool) {
	if k, ok := ResolveKindName(name); ok {
		switch k {
		case xdf.KindConstant:
			return i.catalog.Constants, true
		case xdf.KindFlag:
			return i.catalog.Flags, true
		default:
			return i.catalog.Tables, true
		}
	}
	if c, ok := ResolveCategoryName(i.catalog, name); ok {
		return i.catalog.InCategory(c), true
	}
	return nil, false
}

func (i *Inspector) byTitle(in []*xdf.Element, title string) ([]*xdf.Element, error) {
	var out []*xdf.Element
	for _, e := range in {
		if strings.EqualFold(e.Title, title) {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrElementNotFound, title)
	}
	return out, nil
}

// covering returns the elements whose bytes include addr.
func (i *Inspector) covering(addr uint32) ([]*xdf.Element, error) {
	var out []*xdf.Element
	for _, e := range i.catalog.Elements() {
		n := uint64(max(e.Size(), 1))
		if uint64(addr) >= uint64(e.Address) && uint64(addr) < uint64(e.Address)+n {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: @%s", ErrElementNotFound, formatAddress(addr))
	}
	return out, nil
}
