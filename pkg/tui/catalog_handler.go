package tui

import (
	"fmt"

	"github.com/Slach/catalog-browser/pkg/tui/widgets"
	tea "github.com/charmbracelet/bubbletea"
)

// CatalogSelectedMsg is sent when a catalog is picked
type CatalogSelectedMsg struct {
	Name string
}

type catalogSelector struct {
	list  widgets.FilteredList
	names []string
}

func newCatalogSelector(a *App) catalogSelector {
	all := a.state.Catalogs.All()
	names := make([]string, len(all))
	labels := make([]string, len(all))
	for i, c := range all {
		names[i] = c.Name
		labels[i] = c.Title
		if labels[i] == "" {
			labels[i] = c.Name
		}
		if c.Count != nil {
			labels[i] = fmt.Sprintf("%s (%s rows)", labels[i], widgets.FormatCount(*c.Count))
		}
	}
	return catalogSelector{
		list:  widgets.NewFilteredList("Select Catalog", labels, a.width, a.height),
		names: names,
	}
}

func (m catalogSelector) Init() tea.Cmd {
	return nil
}

func (m catalogSelector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" && !m.list.Filtering() {
		idx := m.list.SelectedIndex()
		if idx >= 0 && idx < len(m.names) {
			name := m.names[idx]
			return m, func() tea.Msg {
				return CatalogSelectedMsg{Name: name}
			}
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m catalogSelector) View() string {
	return m.list.View()
}

func (m catalogSelector) Filtering() bool {
	return m.list.Filtering()
}

func (a *App) showCatalogSelector() {
	a.catalogHandler = newCatalogSelector(a)
	a.currentPage = pageCatalog
}
