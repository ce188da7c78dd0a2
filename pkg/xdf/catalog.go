package xdf

import "strings"

// Source identifies the firmware image a catalog was resolved against.
type Source struct {
	Path   string
	Size   int
	Digest string
}

// Catalog is the ordered element set of one definition document.
//
// The three sequences keep document order. The resolver fills in the resolved
// fields in place; formatters only read.
type Catalog struct {
	Title       string
	Description string

	Constants []*Element
	Flags     []*Element
	Tables    []*Element

	// Source is set once the catalog has been resolved.
	Source *Source
}

// Counts returns the number of constants, flags and tables.
func (c *Catalog) Counts() (constants, flags, tables int) {
	return len(c.Constants), len(c.Flags), len(c.Tables)
}

// Len returns the total number of elements.
func (c *Catalog) Len() int {
	return len(c.Constants) + len(c.Flags) + len(c.Tables)
}

// Elements returns all elements: constants, then flags, then tables.
func (c *Catalog) Elements() []*Element {
	all := make([]*Element, 0, c.Len())
	all = append(all, c.Constants...)
	all = append(all, c.Flags...)
	all = append(all, c.Tables...)
	return all
}

// Categories returns the distinct categories in order of first appearance.
func (c *Catalog) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, e := range c.Elements() {
		if !seen[e.Category] {
			seen[e.Category] = true
			cats = append(cats, e.Category)
		}
	}
	return cats
}

// InCategory returns the elements of one category, in Elements order.
func (c *Catalog) InCategory(category string) []*Element {
	var out []*Element
	for _, e := range c.Elements() {
		if e.Category == category {
			out = append(out, e)
		}
	}
	return out
}

// Unresolved returns the elements that failed to resolve.
func (c *Catalog) Unresolved() []*Element {
	var out []*Element
	for _, e := range c.Elements() {
		if e.Status == StatusUnresolved {
			out = append(out, e)
		}
	}
	return out
}

// Clone returns a deep copy of the catalog.
func (c *Catalog) Clone() *Catalog {
	out := &Catalog{
		Title:       c.Title,
		Description: c.Description,
		Constants:   cloneElements(c.Constants),
		Flags:       cloneElements(c.Flags),
		Tables:      cloneElements(c.Tables),
	}
	if c.Source != nil {
		src := *c.Source
		out.Source = &src
	}
	return out
}

// Filter returns a deep copy holding only the named categories.
// Matching ignores case. An empty list keeps every element.
func (c *Catalog) Filter(categories []string) *Catalog {
	out := c.Clone()
	if len(categories) == 0 {
		return out
	}
	keep := make(map[string]bool, len(categories))
	for _, cat := range categories {
		keep[strings.ToLower(strings.TrimSpace(cat))] = true
	}
	pick := func(in []*Element) []*Element {
		var kept []*Element
		for _, e := range in {
			if keep[strings.ToLower(e.Category)] {
				kept = append(kept, e)
			}
		}
		return kept
	}
	out.Constants = pick(out.Constants)
	out.Flags = pick(out.Flags)
	out.Tables = pick(out.Tables)
	return out
}

func cloneElements(in []*Element) []*Element {
	if in == nil {
		return nil
	}
	out := make([]*Element, len(in))
	for i, e := range in {
		out[i] = e.Clone()
	}
	return out
}
