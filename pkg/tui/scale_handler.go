package tui

import (
	"github.com/Slach/catalog-browser/pkg/tui/widgets"
	tea "github.com/charmbracelet/bubbletea"
)

// ScaleSelectedMsg is sent when the scale for new histograms is picked
type ScaleSelectedMsg struct {
	Log bool
}

type scaleSelector struct {
	list widgets.FilteredList
}

func newScaleSelector(width, height int) scaleSelector {
	return scaleSelector{
		list: widgets.NewFilteredList("Select Scale Type", []string{
			"Linear",
			"Logarithmic (zero counts stay visible)",
		}, width, height),
	}
}

func (m scaleSelector) Init() tea.Cmd {
	return nil
}

func (m scaleSelector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" && !m.list.Filtering() {
		idx := m.list.SelectedIndex()
		if idx < 0 {
			return m, nil
		}
		return m, func() tea.Msg {
			return ScaleSelectedMsg{Log: idx == 1}
		}
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m scaleSelector) View() string {
	return m.list.View()
}

func (m scaleSelector) Filtering() bool {
	return m.list.Filtering()
}

func (a *App) showScaleSelector() {
	a.scaleHandler = newScaleSelector(a.width, a.height)
	a.currentPage = pageScale
}
