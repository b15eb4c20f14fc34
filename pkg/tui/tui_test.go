package tui

import (
	"context"
	"testing"

	"github.com/Slach/catalog-browser/pkg/aggr"
	"github.com/Slach/catalog-browser/pkg/axis"
	"github.com/Slach/catalog-browser/pkg/catalog"
	"github.com/Slach/catalog-browser/pkg/client"
	"github.com/Slach/catalog-browser/pkg/config"
	"github.com/Slach/catalog-browser/pkg/types"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBackend struct {
	resp    *aggr.Response
	queries []client.Query
}

func (b *fakeBackend) Search(_ context.Context, q client.Query) (*aggr.Response, error) {
	b.queries = append(b.queries, q)
	if err := q.Validate(); err != nil {
		return nil, err
	}
	return b.resp, nil
}

func (b *fakeBackend) Close() error { return nil }

func testApp(t *testing.T) (*App, *fakeBackend) {
	reg, err := catalog.NewRegistry(catalog.Catalog{
		Name:  "stars",
		Title: "Stars",
		Bulk:  []string{"id", "status"},
		Fields: []catalog.Field{
			{Name: "id", Title: "ID", Base: catalog.BaseInteger},
			{Name: "status", Title: "Status", Base: catalog.BaseInteger, Terms: true, Top: true,
				Enum: []string{"Inactive", "Active"}},
		},
	})
	require.NoError(t, err)
	backend := &fakeBackend{resp: &aggr.Response{
		Hits: aggr.Hits{
			Total: 12,
			Hits:  []map[string]any{{"id": float64(1), "status": float64(1)}},
		},
		Aggregations: map[string]aggr.Aggr{
			"status": {Terms: &aggr.Terms{Buckets: []aggr.Bucket{
				{Key: aggr.NumberKey(1), DocCount: 10},
				{Key: aggr.NumberKey(0), DocCount: 2},
				{Key: aggr.NumberKey(0.5), DocCount: 0},
			}}},
		},
	}}
	app := NewApp(config.Default(), reg, backend, "test")
	app.Update(tea.WindowSizeMsg{Width: 100, Height: 40})
	return app, backend
}

// send feeds msg to the app and then every message its commands produce
func send(app *App, msg tea.Msg) {
	_, cmd := app.Update(msg)
	for cmd != nil {
		next := cmd()
		if next == nil {
			return
		}
		_, cmd = app.Update(next)
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestCommandPrerequisites(t *testing.T) {
	app, _ := testApp(t)

	app.executeCommand(CmdFacet)
	assert.Equal(t, pageMain, app.currentPage)
	assert.Contains(t, app.mainMessage, "Please pick a catalog first")

	require.NoError(t, app.state.SelectCatalog("stars"))
	app.executeCommand(CmdHistogram)
	assert.Contains(t, app.mainMessage, "Please pick a field first")

	app.executeCommand("bogus")
	assert.Contains(t, app.mainMessage, "Unknown command: bogus")
}

func TestPickCatalogFieldAndFilter(t *testing.T) {
	app, backend := testApp(t)

	app.executeCommand(CmdCatalog)
	require.Equal(t, pageCatalog, app.currentPage)
	send(app, key("enter"))
	require.NotNil(t, app.state.Catalog)
	assert.Equal(t, "stars", app.state.Catalog.Name)
	require.Equal(t, pageField, app.currentPage)

	// top fields come first, so enter picks status
	send(app, key("enter"))
	require.NotNil(t, app.state.Field)
	assert.Equal(t, "status", app.state.Field.Name)
	require.Equal(t, pageFacet, app.currentPage)

	selector := app.facetHandler.(facetSelector)
	assert.False(t, selector.list.Disabled())
	labels := make([]string, 0, len(selector.list.Options()))
	for _, o := range selector.list.Options() {
		labels = append(labels, o.Label)
	}
	assert.Equal(t, []string{"", "Active (10)", "Inactive (2)", "0.5 (0)"}, labels)
	assert.Contains(t, app.View(), "12 matching rows")

	require.Len(t, backend.queries, 1)
	assert.Equal(t, []string{"status"}, backend.queries[0].Terms)
	assert.Zero(t, backend.queries[0].HitsSize)

	send(app, key("down"))
	send(app, key("enter"))
	assert.Equal(t, pageMain, app.currentPage)
	assert.Equal(t, map[string]string{"status": "1"}, app.state.Filters)
	assert.Contains(t, app.View(), "Filters: status=1")
}

func TestFilterInputOwnsKeys(t *testing.T) {
	app, _ := testApp(t)
	app.executeCommand(CmdCatalog)

	send(app, key("/"))
	send(app, key("q"))
	assert.Equal(t, pageCatalog, app.currentPage)

	send(app, key("esc"))
	send(app, key("q"))
	assert.Equal(t, pageMain, app.currentPage)
}

func TestHistogramLogToggle(t *testing.T) {
	app, backend := testApp(t)
	require.NoError(t, app.state.SelectCatalog("stars"))
	require.NoError(t, app.state.SelectField("status"))
	app.state.SetFilter("id", "1")

	send(app, app.executeCommand(CmdHistogram)())
	require.Equal(t, pageHistogram, app.currentPage)
	require.Len(t, backend.queries, 1)
	assert.Equal(t, map[string]string{"id": "1"}, backend.queries[0].Filters)

	viewer := app.histogramHandler.(histogramViewer)
	require.Len(t, viewer.hist.Bars, 3)
	assert.Equal(t, axis.ModeLinear, viewer.toggle.Mode())
	assert.Contains(t, app.View(), "scale: linear")

	send(app, key("l"))
	viewer = app.histogramHandler.(histogramViewer)
	assert.Equal(t, axis.ModeLogZeroSafe, viewer.toggle.Mode())
	assert.Equal(t, axis.TypeLogarithmic, viewer.hist.Axis(axis.ToggleAxisID).Options().Type)
	assert.Contains(t, app.View(), "scale: log")

	send(app, key("l"))
	viewer = app.histogramHandler.(histogramViewer)
	assert.Equal(t, axis.ModeLinear, viewer.toggle.Mode())
	assert.Equal(t, axis.TypeLinear, viewer.hist.Axis(axis.ToggleAxisID).Options().Type)
}

func TestHistogramDrillDown(t *testing.T) {
	app, _ := testApp(t)
	require.NoError(t, app.state.SelectCatalog("stars"))
	require.NoError(t, app.state.SelectField("status"))
	viewer, err := newHistogramViewer(*app.state.Field, axis.ModeLinear, 80, 20)
	require.NoError(t, err)
	app.histogramHandler = viewer
	app.currentPage = pageHistogram

	send(app, HistogramDataMsg{Field: "status", Terms: aggr.Terms{Buckets: []aggr.Bucket{
		{Key: aggr.NumberKey(1), DocCount: 3, Hist: &aggr.Terms{Buckets: []aggr.Bucket{
			{Key: aggr.NumberKey(10), DocCount: 2},
			{Key: aggr.NumberKey(20), DocCount: 1},
		}}},
	}}})

	send(app, key("enter"))
	viewer = app.histogramHandler.(histogramViewer)
	require.Len(t, viewer.hist.Bars, 2)
	assert.Equal(t, "Status / Active", viewer.hist.Title)

	send(app, key("backspace"))
	viewer = app.histogramHandler.(histogramViewer)
	require.Len(t, viewer.hist.Bars, 1)
	assert.Equal(t, "Status", viewer.hist.Title)
}

func TestScaleSelection(t *testing.T) {
	app, _ := testApp(t)
	app.executeCommand(CmdScale)
	require.Equal(t, pageScale, app.currentPage)

	send(app, key("down"))
	send(app, key("enter"))
	assert.True(t, app.state.LogScale)
	assert.Equal(t, axis.ModeLogZeroSafe, app.state.InitialMode())
}

func TestHits(t *testing.T) {
	app, _ := testApp(t)
	require.NoError(t, app.state.SelectCatalog("stars"))

	send(app, app.executeCommand(CmdHits)())
	require.Equal(t, pageHits, app.currentPage)
	viewer := app.hitsHandler.(hitsViewer)
	assert.False(t, viewer.loading)
	assert.Equal(t, 1, viewer.table.RowCount())
	assert.Contains(t, app.View(), "showing 1 of 12 rows")
}

func TestCellValue(t *testing.T) {
	status := catalog.Field{Name: "status", Base: catalog.BaseInteger, Enum: []string{"Inactive", "Active"}}
	assert.Equal(t, "Active", cellValue(status, float64(1)))
	assert.Equal(t, "Inactive", cellValue(status, int64(0)))
	assert.Equal(t, "9", cellValue(status, float64(9)))
	assert.Equal(t, "", cellValue(status, nil))
	assert.Equal(t, "true", cellValue(catalog.Field{Name: "flag"}, true))
}

func TestApplyCLIParameters(t *testing.T) {
	testCases := []struct {
		name        string
		cli         types.CLI
		initial     string
		initialPage pageType
	}{
		{"nothing set", types.CLI{}, CmdCatalog, pageCatalog},
		{"catalog set", types.CLI{Catalog: "stars"}, CmdField, pageField},
		{"field set", types.CLI{Catalog: "stars", Field: "status", LogScale: true}, CmdHistogram, pageHistogram},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app, _ := testApp(t)
			app.ApplyCLIParameters(&tc.cli, "browse")
			assert.Equal(t, tc.initial, app.initialCommand)
			app.Init()
			assert.Equal(t, tc.initialPage, app.currentPage)
			assert.Empty(t, app.initialCommand)
		})
	}

	app, _ := testApp(t)
	app.ApplyCLIParameters(&types.CLI{Catalog: "planets", Filters: []string{"status"}}, "browse")
	assert.Contains(t, app.mainMessage, "Available catalogs: stars")
	assert.Contains(t, app.mainMessage, "bad --filter")
	assert.Nil(t, app.state.Catalog)

	app, _ = testApp(t)
	app.ApplyCLIParameters(&types.CLI{Catalog: "stars", FromTime: "2024-01-01"}, "browse")
	assert.Contains(t, app.mainMessage, "--range-field is not set")
}

func TestMouseSupportConfiguration(t *testing.T) {
	testCases := []struct {
		name             string
		configUsingMouse bool
		cliDisableMouse  bool
		expectedUseMouse bool
	}{
		{"default_mouse_enabled", true, false, true},
		{"cli_flag_disables_mouse", true, true, false},
		{"config_disables_mouse", false, false, false},
		{"both_disable", false, true, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			app, _ := testApp(t)
			app.state.Config.UI.UsingMouse = tc.configUsingMouse
			app.state.CLI = &types.CLI{DisableMouse: tc.cliDisableMouse}
			assert.Equal(t, tc.expectedUseMouse, app.usingMouse())
		})
	}
}

func TestReopenedFacetIgnoresEarlierFetch(t *testing.T) {
	app, _ := testApp(t)
	require.NoError(t, app.state.SelectCatalog("stars"))
	require.NoError(t, app.state.SelectField("status"))

	first := app.ShowFacet()
	send(app, key("esc"))
	second := app.ShowFacet()

	app.Update(first())
	selector := app.facetHandler.(facetSelector)
	assert.True(t, selector.list.Disabled(), "result of the closed page is dropped")
	assert.Empty(t, selector.list.Options())

	secondMsg := second()
	app.Update(secondMsg)
	app.Update(secondMsg)
	selector = app.facetHandler.(facetSelector)
	assert.False(t, selector.list.Disabled())
	assert.Len(t, selector.list.Options(), 4)
}

func TestReopenedHistogramIgnoresEarlierFetch(t *testing.T) {
	app, _ := testApp(t)
	require.NoError(t, app.state.SelectCatalog("stars"))
	require.NoError(t, app.state.SelectField("status"))

	first := app.ShowHistogram()
	send(app, key("esc"))
	second := app.ShowHistogram()

	app.Update(first())
	viewer := app.histogramHandler.(histogramViewer)
	assert.True(t, viewer.loading)

	app.Update(second())
	viewer = app.histogramHandler.(histogramViewer)
	assert.False(t, viewer.loading)
	require.Len(t, viewer.hist.Bars, 3)

	app.Update(HistogramDataMsg{Request: viewer.request, Field: "status", Terms: aggr.Terms{Buckets: []aggr.Bucket{
		{Key: aggr.NumberKey(1), DocCount: 3},
	}}})
	viewer = app.histogramHandler.(histogramViewer)
	assert.Len(t, viewer.hist.Bars, 3, "a loaded page keeps its buckets")
}
