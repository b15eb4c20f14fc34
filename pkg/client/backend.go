package client

import (
	"context"
	"strconv"
	"time"

	"github.com/Slach/catalog-browser/pkg/aggr"
	"github.com/Slach/catalog-browser/pkg/catalog"
	"github.com/Slach/catalog-browser/pkg/config"
	"github.com/pkg/errors"
)

var (
	ErrNotFacetable   = errors.New("field is not facetable")
	ErrNotNumeric     = errors.New("field is not numeric")
	ErrUnknownBackend = errors.New("unknown backend kind")
)

const (
	// HistName is the name of the aggregation nested under every facet bucket
	HistName = "hist"

	defaultTermsSize = 100
)

// Backend runs catalog queries and answers with the aggregation response shape
type Backend interface {
	Search(ctx context.Context, q Query) (*aggr.Response, error)
	Close() error
}

type Histogram struct {
	Field    string
	Interval float64
}

type TimeRange struct {
	Field string
	From  time.Time
	To    time.Time
}

// Query is one search over a catalog. Terms and Stats name the fields to
// aggregate, the aggregation keys in the response are the field names.
type Query struct {
	Catalog   *catalog.Catalog
	Filters   map[string]string
	Terms     []string
	Stats     []string
	Histogram *Histogram
	Range     *TimeRange
	HitsSize  int
	TermsSize int
}

func (q Query) termsSize() int {
	if q.TermsSize <= 0 {
		return defaultTermsSize
	}
	return q.TermsSize
}

// Validate checks every referenced field against the catalog
func (q Query) Validate() error {
	if q.Catalog == nil {
		return errors.WithStack(catalog.ErrUnknownCatalog)
	}
	for name := range q.Filters {
		if _, err := q.Catalog.Field(name); err != nil {
			return err
		}
	}
	for _, name := range q.Terms {
		f, err := q.Catalog.Field(name)
		if err != nil {
			return err
		}
		if !f.Facetable() {
			return errors.Wrap(ErrNotFacetable, name)
		}
	}
	numeric := q.Stats
	if q.Histogram != nil {
		if q.Histogram.Interval <= 0 {
			return errors.Errorf("histogram interval must be positive, got %v", q.Histogram.Interval)
		}
		numeric = append(append([]string(nil), numeric...), q.Histogram.Field)
	}
	for _, name := range numeric {
		f, err := q.Catalog.Field(name)
		if err != nil {
			return err
		}
		if !f.Base.Numeric() {
			return errors.Wrap(ErrNotNumeric, name)
		}
	}
	if q.Range != nil {
		if _, err := q.Catalog.Field(q.Range.Field); err != nil {
			return err
		}
	}
	return nil
}

// typedValue converts a filter value to the field base so backends compare
// numbers as numbers
func typedValue(f catalog.Field, value string) interface{} {
	switch f.Base {
	case catalog.BaseInteger:
		if n, err := strconv.ParseInt(value, 10, 64); err == nil {
			return n
		}
	case catalog.BaseFloat:
		if n, err := strconv.ParseFloat(value, 64); err == nil {
			return n
		}
	case catalog.BaseBoolean:
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return value
}

// New opens the backend described by cfg
func New(cfg config.Backend, version string) (Backend, error) {
	switch cfg.Kind {
	case config.KindElasticsearch:
		return NewElastic(cfg)
	case config.KindClickHouse:
		return NewClickHouse(cfg, version)
	}
	return nil, errors.Wrapf(ErrUnknownBackend, "backend %s kind %q", cfg.Name, cfg.Kind)
}

func indexName(cfg config.Backend, c *catalog.Catalog) string {
	return cfg.IndexPrefix + c.Name
}
