package tool

import (
	"fmt"
	"iter"

	"github.com/casualjim/mobileuse/internal/registry"
)

// Catalog is an ordered set of tools indexed by name.
type Catalog struct {
	names []string
	tools registry.Registry[Tool]
}

// NewCatalog builds a catalog, rejecting duplicate names.
func NewCatalog(tools ...Tool) (*Catalog, error) {
	c := &Catalog{tools: registry.New[Tool]()}
	for _, t := range tools {
		name := t.Definition().Name
		if _, loaded := c.tools.GetOrAdd(name, func() Tool { return t }); loaded {
			return nil, fmt.Errorf("duplicate tool %q in catalog", name)
		}
		c.names = append(c.names, name)
	}
	return c, nil
}

// Get looks a tool up by the name the model used.
func (c *Catalog) Get(name string) (Tool, bool) {
	return c.tools.Get(name)
}

func (c *Catalog) Len() int {
	return len(c.names)
}

func (c *Catalog) Names() []string {
	return append([]string(nil), c.names...)
}

// Definitions returns the definitions in declaration order, ready to bind to a model.
func (c *Catalog) Definitions() []Definition {
	defs := make([]Definition, 0, len(c.names))
	for t := range c.All() {
		defs = append(defs, t.Definition())
	}
	return defs
}

// All yields the tools in declaration order.
func (c *Catalog) All() iter.Seq[Tool] {
	return func(yield func(Tool) bool) {
		for _, name := range c.names {
			t, ok := c.tools.Get(name)
			if !ok {
				continue
			}
			if !yield(t) {
				return
			}
		}
	}
}
