package code

import (
	"fmt"
	"sort"
)

// Catalog is a fixed per-domain table of entries, keyed by code.
// It is built once at process start and is read-only afterwards.
type Catalog struct {
	name    string
	entries map[int]Entry
}

// NewCatalog builds a catalog and rejects duplicate codes.
func NewCatalog(name string, entries ...Entry) (*Catalog, error) {
	c := &Catalog{name: name, entries: make(map[int]Entry, len(entries))}
	for _, e := range entries {
		if prev, ok := c.entries[e.Code]; ok {
			return nil, fmt.Errorf("catalog %s: duplicate code %d (%q and %q)", name, e.Code, prev.Template, e.Template)
		}
		c.entries[e.Code] = e
	}
	return c, nil
}

// MustCatalog is the panic-on-error variant of NewCatalog, meant for
// package-level var blocks.
func MustCatalog(name string, entries ...Entry) *Catalog {
	c, err := NewCatalog(name, entries...)
	if err != nil {
		panic(err)
	}
	return c
}

// Name returns the catalog name.
func (c *Catalog) Name() string { return c.name }

// Lookup returns the entry registered for code.
func (c *Catalog) Lookup(code int) (Entry, bool) {
	e, ok := c.entries[code]
	return e, ok
}

// Entries returns all entries ordered by code.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, 0, len(c.entries))
	for _, e := range c.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }
