package catalog

import (
	"github.com/pkg/errors"
)

// Registry indexes catalogs by name, it is read-only once built
type Registry struct {
	order []string
	byKey map[string]*Catalog
}

func NewRegistry(catalogs ...Catalog) (*Registry, error) {
	r := &Registry{byKey: make(map[string]*Catalog, len(catalogs))}
	for i := range catalogs {
		c := catalogs[i]
		if err := c.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.byKey[c.Name]; dup {
			return nil, errors.Wrapf(ErrInvalidCatalog, "duplicate catalog %s", c.Name)
		}
		r.byKey[c.Name] = &c
		r.order = append(r.order, c.Name)
	}
	return r, nil
}

func (r *Registry) Get(name string) (*Catalog, error) {
	c, ok := r.byKey[name]
	if !ok {
		return nil, errors.Wrap(ErrUnknownCatalog, name)
	}
	return c, nil
}

// Names returns catalog names in file order
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

func (r *Registry) All() []*Catalog {
	all := make([]*Catalog, 0, len(r.order))
	for _, name := range r.order {
		all = append(all, r.byKey[name])
	}
	return all
}
