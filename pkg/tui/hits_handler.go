package tui

import (
	"context"
	"fmt"

	"github.com/Slach/catalog-browser/pkg/aggr"
	"github.com/Slach/catalog-browser/pkg/catalog"
	"github.com/Slach/catalog-browser/pkg/client"
	"github.com/Slach/catalog-browser/pkg/facet"
	"github.com/Slach/catalog-browser/pkg/tui/widgets"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/evertras/bubble-table/table"
	"github.com/rs/zerolog/log"
)

// HitsDataMsg carries the rows matching the current filters
type HitsDataMsg struct {
	Rows  []table.Row
	Total int64
	Err   error
}

type hitsViewer struct {
	title   string
	table   widgets.FilteredTable
	total   int64
	loading bool
	err     error
}

func newHitsViewer(c *catalog.Catalog, width, height int) hitsViewer {
	fields := c.BulkFields()
	headers := make([]string, len(fields))
	for i, f := range fields {
		headers[i] = f.Name
	}
	return hitsViewer{
		title:   c.Title,
		table:   widgets.NewFilteredTable(c.Title, headers, width, height-2),
		loading: true,
	}
}

func (m hitsViewer) Init() tea.Cmd {
	return nil
}

func (m hitsViewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case HitsDataMsg:
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.total = msg.Total
		m.table.SetRows(msg.Rows)
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m hitsViewer) View() string {
	if m.loading {
		return "Loading rows, please wait..."
	}
	if m.err != nil {
		return fmt.Sprintf("Error loading rows: %v\n\nPress ESC to return", m.err)
	}
	return fmt.Sprintf("%s\nshowing %d of %d rows", m.table.View(), m.table.RowCount(), m.total)
}

// ShowHits lists the bulk fields of rows matching the current filters
func (a *App) ShowHits() tea.Cmd {
	c := a.state.Catalog
	if len(c.Bulk) == 0 {
		a.SwitchToMainPage(fmt.Sprintf("Error: catalog %s has no bulk fields to show", c.Title))
		return nil
	}
	a.hitsHandler = newHitsViewer(c, a.width, a.height)
	a.currentPage = pageHits
	return a.fetchHitsCmd(c, a.state.Query())
}

func (a *App) fetchHitsCmd(c *catalog.Catalog, q client.Query) tea.Cmd {
	backend := a.state.Backend
	fields := c.BulkFields()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		resp, err := backend.Search(ctx, q)
		if err != nil {
			log.Error().Err(err).Str("catalog", c.Name).Msg("hits fetch failed")
			return HitsDataMsg{Err: err}
		}
		rows := make([]table.Row, 0, len(resp.Hits.Hits))
		for _, hit := range resp.Hits.Hits {
			data := table.RowData{}
			for _, f := range fields {
				data[f.Name] = cellValue(f, hit[f.Name])
			}
			rows = append(rows, table.NewRow(data))
		}
		return HitsDataMsg{Rows: rows, Total: int64(resp.Hits.Total)}
	}
}

// cellValue shows enum names instead of codes
func cellValue(f catalog.Field, v any) string {
	switch v := v.(type) {
	case nil:
		return ""
	case float64:
		return facet.KeyLabel(f, aggr.NumberKey(v))
	case int64:
		return facet.KeyLabel(f, aggr.NumberKey(float64(v)))
	case string:
		return facet.KeyLabel(f, aggr.StringKey(v))
	}
	return fmt.Sprint(v)
}
