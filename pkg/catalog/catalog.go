package catalog

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownCatalog = errors.New("unknown catalog")
	ErrUnknownField   = errors.New("unknown field")
	ErrInvalidCatalog = errors.New("invalid catalog")
)

// Base is the kind tag of a field, it decides which aggregation and
// rendering rules apply
type Base string

const (
	BaseFloat   Base = "f"
	BaseInteger Base = "i"
	BaseBoolean Base = "b"
	BaseString  Base = "s"
)

// Numeric reports whether stats and histogram aggregations make sense for the base
func (b Base) Numeric() bool {
	return b == BaseFloat || b == BaseInteger
}

func (b Base) Valid() bool {
	switch b {
	case BaseFloat, BaseInteger, BaseBoolean, BaseString:
		return true
	}
	return false
}

// Field describes one dataset column
type Field struct {
	Name  string   `yaml:"name" json:"name"`
	Type  string   `yaml:"type" json:"type"`
	Title string   `yaml:"title" json:"title"`
	Descr string   `yaml:"descr,omitempty" json:"descr,omitempty"`
	Units string   `yaml:"units,omitempty" json:"units,omitempty"`
	Top   bool     `yaml:"top,omitempty" json:"top,omitempty"`
	Disp  bool     `yaml:"disp" json:"disp"`
	Base  Base     `yaml:"base" json:"base"`
	Terms bool     `yaml:"terms,omitempty" json:"terms,omitempty"`
	Enum  []string `yaml:"enum,omitempty" json:"enum,omitempty"`
	// Dict names an external lookup table, it is never resolved here
	Dict string `yaml:"dict,omitempty" json:"dict,omitempty"`
}

// Facetable reports whether the field may be the subject of a terms aggregation
func (f Field) Facetable() bool {
	return f.Terms
}

// Catalog is a named dataset
type Catalog struct {
	Name   string   `yaml:"name" json:"name"`
	Title  string   `yaml:"title" json:"title"`
	Descr  string   `yaml:"descr,omitempty" json:"descr,omitempty"`
	Bulk   []string `yaml:"bulk" json:"bulk"`
	Fields []Field  `yaml:"fields" json:"fields"`
	Count  *int64   `yaml:"count,omitempty" json:"count,omitempty"`
}

// Field returns the field with the given name
func (c *Catalog) Field(name string) (Field, error) {
	for _, f := range c.Fields {
		if f.Name == name {
			return f, nil
		}
	}
	return Field{}, errors.Wrapf(ErrUnknownField, "%s.%s", c.Name, name)
}

// BulkFields returns the fields of the default view in bulk order
func (c *Catalog) BulkFields() []Field {
	fields := make([]Field, 0, len(c.Bulk))
	for _, name := range c.Bulk {
		if f, err := c.Field(name); err == nil {
			fields = append(fields, f)
		}
	}
	return fields
}

// Validate checks field names are unique, bases are known and every bulk
// name refers to a field
func (c *Catalog) Validate() error {
	if c.Name == "" {
		return errors.Wrap(ErrInvalidCatalog, "empty catalog name")
	}
	seen := make(map[string]struct{}, len(c.Fields))
	for _, f := range c.Fields {
		if f.Name == "" {
			return errors.Wrapf(ErrInvalidCatalog, "%s: field without name", c.Name)
		}
		if _, dup := seen[f.Name]; dup {
			return errors.Wrapf(ErrInvalidCatalog, "%s: duplicate field %s", c.Name, f.Name)
		}
		if !f.Base.Valid() {
			return errors.Wrapf(ErrInvalidCatalog, "%s.%s: unknown base %q", c.Name, f.Name, f.Base)
		}
		seen[f.Name] = struct{}{}
	}
	for _, name := range c.Bulk {
		if _, ok := seen[name]; !ok {
			return errors.Wrapf(ErrInvalidCatalog, "%s: bulk field %s is not declared", c.Name, name)
		}
	}
	return nil
}

type file struct {
	Catalogs []Catalog `yaml:"catalogs"`
}

// Load reads and validates the catalogs described in a YAML file
func Load(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "can't read catalogs from %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates a YAML catalogs document
func Parse(data []byte) (*Registry, error) {
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(err, "can't parse catalogs")
	}
	return NewRegistry(f.Catalogs...)
}
