package tui

import (
	"context"
	"fmt"

	"github.com/Slach/catalog-browser/pkg/aggr"
	"github.com/Slach/catalog-browser/pkg/axis"
	"github.com/Slach/catalog-browser/pkg/catalog"
	"github.com/Slach/catalog-browser/pkg/chart"
	"github.com/Slach/catalog-browser/pkg/client"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
)

// HistogramDataMsg carries the buckets of the histogram page
type HistogramDataMsg struct {
	Request uint64
	Field   string
	Terms   aggr.Terms
	Err     error
}

type drillLevel struct {
	title    string
	bars     []chart.Bar
	selected int
}

// histogramViewer shows bucket counts, 'l' flips its value axis between
// linear and zero-safe logarithmic
type histogramViewer struct {
	request  uint64
	field    catalog.Field
	hist     *chart.Histogram
	toggle   *axis.Toggle
	parents  []drillLevel
	selected int
	loading  bool
	err      error
	width    int
	height   int
}

func newHistogramViewer(f catalog.Field, mode axis.Mode, width, height int) (histogramViewer, error) {
	h, err := chart.NewHistogram(f.Title, nil, mode)
	if err != nil {
		return histogramViewer{}, err
	}
	toggle, err := axis.NewToggle(h)
	if err != nil {
		return histogramViewer{}, err
	}
	return histogramViewer{
		field:   f,
		hist:    h,
		toggle:  toggle,
		loading: true,
		width:   width,
		height:  height,
	}, nil
}

func (m histogramViewer) Init() tea.Cmd {
	return nil
}

func (m histogramViewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case HistogramDataMsg:
		if msg.Request != m.request || msg.Field != m.field.Name || !m.loading {
			return m, nil
		}
		m.loading = false
		if msg.Err != nil {
			m.err = msg.Err
			return m, nil
		}
		m.hist.Bars = chart.BarsFromTerms(m.field, msg.Terms)
		m.selected = 0
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		if m.loading || m.err != nil {
			return m, nil
		}
		switch msg.String() {
		case "l":
			mode := m.toggle.Flip()
			log.Debug().Str("field", m.field.Name).Stringer("mode", mode).Msg("histogram scale switched")
		case "up", "k":
			if m.selected > 0 {
				m.selected--
			}
		case "down", "j":
			if m.selected < len(m.hist.Bars)-1 {
				m.selected++
			}
		case "enter":
			m.drillDown()
		case "backspace":
			m.drillUp()
		}
	}
	return m, nil
}

// drillDown replaces the bars with the nested histogram of the selected bar
func (m *histogramViewer) drillDown() {
	if m.selected >= len(m.hist.Bars) {
		return
	}
	bar := m.hist.Bars[m.selected]
	if bar.Hist == nil {
		return
	}
	m.parents = append(m.parents, drillLevel{title: m.hist.Title, bars: m.hist.Bars, selected: m.selected})
	m.hist.Title = m.hist.Title + " / " + bar.Label
	m.hist.Bars = chart.BarsFromTerms(catalog.Field{Name: client.HistName}, *bar.Hist)
	m.selected = 0
}

func (m *histogramViewer) drillUp() {
	if len(m.parents) == 0 {
		return
	}
	last := m.parents[len(m.parents)-1]
	m.parents = m.parents[:len(m.parents)-1]
	m.hist.Title = last.title
	m.hist.Bars = last.bars
	m.selected = last.selected
}

func (m histogramViewer) View() string {
	if m.loading {
		return fmt.Sprintf("Loading %s buckets, please wait...", m.field.Title)
	}
	if m.err != nil {
		return fmt.Sprintf("Error loading %s buckets: %v\n\nPress ESC to return", m.field.Title, m.err)
	}

	muted := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	views := []string{m.hist.Render(m.width - 4)}
	if m.selected < len(m.hist.Bars) {
		bar := m.hist.Bars[m.selected]
		line := fmt.Sprintf("▶ %s: %.0f", bar.Label, bar.Value)
		if bar.Hist != nil {
			line += "  (Enter: drill down)"
		}
		views = append(views, "", lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Render(line))
	}
	views = append(views, muted.Render("l: log/linear | ↑↓: select | Backspace: up | Esc: back"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("62")).
		Padding(0, 1).
		Render(lipgloss.JoinVertical(lipgloss.Left, views...))
}

// ShowHistogram opens the histogram of the current field
func (a *App) ShowHistogram() tea.Cmd {
	f := *a.state.Field
	if !f.Facetable() {
		a.SwitchToMainPage(fmt.Sprintf("Error: field %s has no value buckets", f.Title))
		return nil
	}
	viewer, err := newHistogramViewer(f, a.state.InitialMode(), a.width, a.height)
	if err != nil {
		a.SwitchToMainPage(fmt.Sprintf("Error: %v", err))
		return nil
	}
	viewer.request = a.nextRequest()
	a.histogramHandler = viewer
	a.currentPage = pageHistogram

	q := a.state.Query(f.Name)
	q.HitsSize = 0
	q.Histogram = a.state.Histogram
	return a.fetchHistogramCmd(viewer.request, f.Name, q)
}

func (a *App) fetchHistogramCmd(request uint64, field string, q client.Query) tea.Cmd {
	backend := a.state.Backend
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()
		resp, err := backend.Search(ctx, q)
		if err != nil {
			log.Error().Err(err).Str("field", field).Msg("histogram fetch failed")
			return HistogramDataMsg{Request: request, Field: field, Err: err}
		}
		msg := HistogramDataMsg{Request: request, Field: field}
		if t, ok := resp.Terms(field); ok {
			msg.Terms = *t
		}
		return msg
	}
}
