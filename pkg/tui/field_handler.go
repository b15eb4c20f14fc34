package tui

import (
	"github.com/Slach/catalog-browser/pkg/facet"
	"github.com/Slach/catalog-browser/pkg/tui/widgets"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// FieldSelectedMsg is sent when a field is picked
type FieldSelectedMsg struct {
	Field string
}

// fieldSelector lists the field picker options, the description of the
// highlighted field is shown below the list
type fieldSelector struct {
	list    widgets.FilteredList
	options []facet.Option
}

func newFieldSelector(a *App) fieldSelector {
	options := facet.PickerOptions(a.state.Catalog)
	labels := make([]string, len(options))
	for i, o := range options {
		labels[i] = o.Label
		if labels[i] == "" {
			labels[i] = o.Value
		}
	}
	return fieldSelector{
		list:    widgets.NewFilteredList("Select Field of "+a.state.Catalog.Title, labels, a.width, a.height-2),
		options: options,
	}
}

func (m fieldSelector) Init() tea.Cmd {
	return nil
}

func (m fieldSelector) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "enter" && !m.list.Filtering() {
		idx := m.list.SelectedIndex()
		if idx >= 0 && idx < len(m.options) {
			name := m.options[idx].Value
			return m, func() tea.Msg {
				return FieldSelectedMsg{Field: name}
			}
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m fieldSelector) View() string {
	view := m.list.View()
	idx := m.list.SelectedIndex()
	if idx >= 0 && idx < len(m.options) && m.options[idx].Tooltip != "" {
		tooltip := lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Italic(true).Render(m.options[idx].Tooltip)
		view = lipgloss.JoinVertical(lipgloss.Left, view, tooltip)
	}
	return view
}

func (m fieldSelector) Filtering() bool {
	return m.list.Filtering()
}

func (a *App) showFieldSelector() {
	a.fieldHandler = newFieldSelector(a)
	a.currentPage = pageField
}
