package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/Slach/catalog-browser/pkg/aggr"
	"github.com/Slach/catalog-browser/pkg/catalog"
	"github.com/Slach/catalog-browser/pkg/client"
	"github.com/Slach/catalog-browser/pkg/facet"
	"github.com/Slach/catalog-browser/pkg/tui/widgets"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog/log"
)

const fetchTimeout = 30 * time.Second

// FacetDataMsg carries the terms aggregation of a field. Request tells the
// fetch apart from earlier ones for the same field.
type FacetDataMsg struct {
	Request uint64
	Field   string
	Terms   aggr.Terms
	Total   int64
	Err     error
}

// FilterSelectedMsg is sent when a facet value is picked, an empty value clears the filter
type FilterSelectedMsg struct {
	Field string
	Value string
}

// facetSelector is a select that stays disabled until its options arrive
type facetSelector struct {
	request uint64
	field   catalog.Field
	list    *widgets.SelectList
	total   int64
	err     error
}

func newFacetSelector(f catalog.Field, width, height int) facetSelector {
	return facetSelector{
		field: f,
		list:  widgets.NewSelectList("Filter by "+f.Title, width, height-2),
	}
}

func (m facetSelector) Init() tea.Cmd {
	return nil
}

func (m facetSelector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case FacetDataMsg:
		// stale fetches and repeated deliveries would append a second set of options
		if msg.Request != m.request || msg.Field != m.field.Name || !m.list.Disabled() {
			return m, nil
		}
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.total = msg.Total
		facet.FillSelectTerms(m.list, m.field, msg.Terms)
		return m, nil

	case tea.KeyMsg:
		if msg.String() == "enter" && !m.list.Filtering() {
			if opt, ok := m.list.Selected(); ok {
				field := m.field.Name
				return m, func() tea.Msg {
					return FilterSelectedMsg{Field: field, Value: opt.Value}
				}
			}
			return m, nil
		}
	}
	return m, m.list.Update(msg)
}

func (m facetSelector) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error loading %s values: %v\n\nPress ESC to return", m.field.Title, m.err)
	}
	view := m.list.View()
	if !m.list.Disabled() {
		view += fmt.Sprintf("\n%d matching rows", m.total)
	}
	return view
}

func (m facetSelector) Filtering() bool {
	return m.list.Filtering()
}

// ShowFacet opens the value select of the current field and starts loading its options
func (a *App) ShowFacet() tea.Cmd {
	f := *a.state.Field
	selector := newFacetSelector(f, a.width, a.height)
	selector.request = a.nextRequest()
	a.facetHandler = selector
	a.currentPage = pageFacet
	q := a.state.Query(f.Name)
	q.HitsSize = 0
	return a.fetchFacetCmd(selector.request, f.Name, q)
}

func (a *App) fetchFacetCmd(request uint64, field string, q client.Query) tea.Cmd {
	backend := a.state.Backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		resp, err := backend.Search(ctx, q)
		if err != nil {
			log.Error().Err(err).Str("field", field).Msg("facet fetch failed")
			return FacetDataMsg{Request: request, Field: field, Err: err}
		}
		msg := FacetDataMsg{Request: request, Field: field, Total: int64(resp.Hits.Total)}
		if t, ok := resp.Terms(field); ok {
			msg.Terms = *t
		}
		return msg
	}
}
