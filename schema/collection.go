package schema

import (
	"regexp"
	"sync"
)

// collection is an ordered set of named elements.
type collection[T any] struct {
	items  []T
	byName map[string]T
}

func (c *collection[T]) add(name string, v T) bool {
	if _, ok := c.byName[name]; ok {
		return false
	}
	if c.byName == nil {
		c.byName = make(map[string]T)
	}
	c.byName[name] = v
	c.items = append(c.items, v)
	return true
}

func (c *collection[T]) has(name string) bool {
	_, ok := c.byName[name]
	return ok
}

func (c *collection[T]) lookup(name string) (T, bool) {
	v, ok := c.byName[name]
	return v, ok
}

// validName matches identifiers usable as schema, type, attribute and
// constraint names. Names end up in output paths, so separators are out.
var validName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// facetStore carries the data that facets attach to model elements.
type facetStore struct {
	mu     sync.RWMutex
	facets map[string]any
}

// Facet returns the facet data stored under key, or nil.
func (f *facetStore) Facet(key string) any {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.facets[key]
}

// SetFacet stores facet data under key.
func (f *facetStore) SetFacet(key string, v any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.facets == nil {
		f.facets = make(map[string]any)
	}
	f.facets[key] = v
}
