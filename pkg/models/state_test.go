package models

import (
	"testing"
	"time"

	"github.com/Slach/catalog-browser/pkg/axis"
	"github.com/Slach/catalog-browser/pkg/catalog"
	"github.com/Slach/catalog-browser/pkg/config"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testState(t *testing.T) *AppState {
	reg, err := catalog.NewRegistry(
		catalog.Catalog{Name: "stars", Fields: []catalog.Field{
			{Name: "status", Base: catalog.BaseInteger, Terms: true},
			{Name: "seen", Base: catalog.BaseString},
		}},
		catalog.Catalog{Name: "planets", Fields: []catalog.Field{{Name: "kind", Base: catalog.BaseString, Terms: true}}},
	)
	require.NoError(t, err)
	cfg := config.Default()
	cfg.UI.LogScale = true
	return NewAppState(cfg, reg, nil, "test")
}

func TestSelectCatalogResets(t *testing.T) {
	s := testState(t)
	require.NoError(t, s.SelectCatalog("stars"))
	require.NoError(t, s.SelectField("status"))
	s.SetFilter("status", "1")

	require.NoError(t, s.SelectCatalog("stars"))
	assert.NotNil(t, s.Field, "same catalog keeps the field")
	assert.Equal(t, "status=1", s.FiltersFormatted())

	require.NoError(t, s.SelectCatalog("planets"))
	assert.Nil(t, s.Field)
	assert.Empty(t, s.Filters)

	err := s.SelectCatalog("moons")
	assert.True(t, errors.Is(err, catalog.ErrUnknownCatalog))
	assert.Equal(t, "planets", s.Catalog.Name)

	err = s.SelectField("status")
	assert.True(t, errors.Is(err, catalog.ErrUnknownField))
}

func TestQuery(t *testing.T) {
	s := testState(t)
	require.NoError(t, s.SelectCatalog("stars"))
	s.SetFilter("status", "1")
	s.RangeField = "seen"
	s.FromTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	q := s.Query("status")
	assert.Equal(t, []string{"status"}, q.Terms)
	assert.Equal(t, 100, q.TermsSize)
	assert.Equal(t, 50, q.HitsSize)
	require.NotNil(t, q.Range)
	assert.Equal(t, "seen", q.Range.Field)

	s.SetFilter("status", "")
	assert.Equal(t, map[string]string{"status": "1"}, q.Filters, "query keeps its own copy")
	assert.Empty(t, s.Filters)
	assert.NotEmpty(t, s.TimeRangeFormatted())
}

func TestInitialMode(t *testing.T) {
	s := testState(t)
	assert.Equal(t, axis.ModeLogZeroSafe, s.InitialMode())
	s.LogScale = false
	assert.Equal(t, axis.ModeLinear, s.InitialMode())
}
