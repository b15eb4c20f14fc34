package facet

import (
	"sort"
	"strconv"

	"github.com/Slach/catalog-browser/pkg/aggr"
	"github.com/Slach/catalog-browser/pkg/catalog"
	"github.com/rs/zerolog/log"
)

// Option is one entry of a selection control
type Option struct {
	Value   string `json:"value"`
	Label   string `json:"label"`
	Tooltip string `json:"tooltip,omitempty"`
}

// Control is a selection control that starts disabled while its options load
type Control interface {
	Add(opt Option)
	SetDisabled(disabled bool)
}

// FillSelectTerms adds an empty option followed by one option per bucket,
// in bucket order, then enables the control
func FillSelectTerms(c Control, f catalog.Field, a aggr.Terms) {
	for _, opt := range TermsOptions(f, a) {
		c.Add(opt)
	}
	c.SetDisabled(false)
}

// TermsOptions returns the options FillSelectTerms adds
func TermsOptions(f catalog.Field, a aggr.Terms) []Option {
	opts := make([]Option, 0, len(a.Buckets)+1)
	opts = append(opts, Option{})
	for _, b := range a.Buckets {
		opts = append(opts, Option{
			Value: b.Key.String(),
			Label: BucketLabel(f, b),
		})
	}
	return opts
}

// BucketLabel is the enum name of the key (or the raw key) followed by the count
func BucketLabel(f catalog.Field, b aggr.Bucket) string {
	return KeyLabel(f, b.Key) + " (" + strconv.FormatInt(b.DocCount, 10) + ")"
}

// KeyLabel resolves a bucket key through the field enum, falling back to the raw key
func KeyLabel(f catalog.Field, k aggr.Key) string {
	if len(f.Enum) == 0 {
		return k.String()
	}
	if i, ok := k.Index(len(f.Enum)); ok {
		return f.Enum[i]
	}
	log.Debug().Str("field", f.Name).Str("key", k.String()).Int("enum", len(f.Enum)).Msg("bucket key has no enum entry, using raw key")
	return k.String()
}

// FieldOption is the field picker entry for a field
func FieldOption(f catalog.Field) Option {
	o := Option{
		Value: f.Name,
		Label: f.Title,
	}
	if f.Descr != "" {
		o.Tooltip = f.Descr
	}
	return o
}

// PickerOptions lists every field of the catalog, top fields first
func PickerOptions(c *catalog.Catalog) []Option {
	fields := append([]catalog.Field(nil), c.Fields...)
	sort.SliceStable(fields, func(i, j int) bool {
		return fields[i].Top && !fields[j].Top
	})
	opts := make([]Option, len(fields))
	for i, f := range fields {
		opts[i] = FieldOption(f)
	}
	return opts
}

// FacetFields returns the fields that support terms aggregation, in catalog order
func FacetFields(c *catalog.Catalog) []catalog.Field {
	var fields []catalog.Field
	for _, f := range c.Fields {
		if f.Facetable() {
			fields = append(fields, f)
		}
	}
	return fields
}
