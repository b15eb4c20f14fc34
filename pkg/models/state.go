package models

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Slach/catalog-browser/pkg/axis"
	"github.com/Slach/catalog-browser/pkg/catalog"
	"github.com/Slach/catalog-browser/pkg/client"
	"github.com/Slach/catalog-browser/pkg/config"
	"github.com/Slach/catalog-browser/pkg/types"
)

const timeLayout = "2006-01-02 15:04:05 -07:00"

// AppState holds what the user has picked so far, separate from UI state
type AppState struct {
	Config  *config.Config
	Version string
	CLI     *types.CLI

	Catalogs *catalog.Registry
	Backend  client.Backend

	Catalog *catalog.Catalog
	Field   *catalog.Field
	Filters map[string]string

	RangeField string
	FromTime   time.Time
	ToTime     time.Time

	// Histogram is nested under the buckets of histogram page queries
	Histogram *client.Histogram

	// LogScale is the scale new histograms open with, each histogram owns its toggle afterwards
	LogScale bool
}

func NewAppState(cfg *config.Config, catalogs *catalog.Registry, backend client.Backend, version string) *AppState {
	return &AppState{
		Config:   cfg,
		Version:  version,
		CLI:      &types.CLI{},
		Catalogs: catalogs,
		Backend:  backend,
		Filters:  make(map[string]string),
		LogScale: cfg != nil && cfg.UI.LogScale,
	}
}

// SelectCatalog switches catalogs, the field and the filters belong to the old one
func (s *AppState) SelectCatalog(name string) error {
	c, err := s.Catalogs.Get(name)
	if err != nil {
		return err
	}
	if s.Catalog == nil || s.Catalog.Name != c.Name {
		s.Field = nil
		s.Filters = make(map[string]string)
	}
	s.Catalog = c
	return nil
}

func (s *AppState) SelectField(name string) error {
	if s.Catalog == nil {
		return catalog.ErrUnknownCatalog
	}
	f, err := s.Catalog.Field(name)
	if err != nil {
		return err
	}
	s.Field = &f
	return nil
}

// SetFilter narrows the following queries, an empty value removes the filter
func (s *AppState) SetFilter(field, value string) {
	if value == "" {
		delete(s.Filters, field)
		return
	}
	s.Filters[field] = value
}

func (s *AppState) ClearFilters() {
	s.Filters = make(map[string]string)
}

func (s *AppState) InitialMode() axis.Mode {
	if s.LogScale {
		return axis.ModeLogZeroSafe
	}
	return axis.ModeLinear
}

// Query builds a query over the selected catalog with the current filters
// and time range, filters are copied so the query may leave the update loop
func (s *AppState) Query(terms ...string) client.Query {
	filters := make(map[string]string, len(s.Filters))
	for k, v := range s.Filters {
		filters[k] = v
	}
	q := client.Query{
		Catalog: s.Catalog,
		Filters: filters,
		Terms:   terms,
	}
	if s.Config != nil {
		q.TermsSize = s.Config.UI.TermsSize
		q.HitsSize = s.Config.UI.HitsSize
	}
	if s.RangeField != "" && (!s.FromTime.IsZero() || !s.ToTime.IsZero()) {
		q.Range = &client.TimeRange{Field: s.RangeField, From: s.FromTime, To: s.ToTime}
	}
	return q
}

// FiltersFormatted lists filters as field=value, sorted by field
func (s *AppState) FiltersFormatted() string {
	if len(s.Filters) == 0 {
		return ""
	}
	parts := make([]string, 0, len(s.Filters))
	for k, v := range s.Filters {
		parts = append(parts, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(parts)
	return strings.Join(parts, ", ")
}

func (s *AppState) TimeRangeFormatted() string {
	if s.FromTime.IsZero() && s.ToTime.IsZero() {
		return ""
	}
	var parts []string
	if !s.FromTime.IsZero() {
		parts = append(parts, "From: "+s.FromTime.Format(timeLayout))
	}
	if !s.ToTime.IsZero() {
		parts = append(parts, "To: "+s.ToTime.Format(timeLayout))
	}
	return strings.Join(parts, " ")
}
