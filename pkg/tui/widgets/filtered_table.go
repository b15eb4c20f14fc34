package widgets

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/evertras/bubble-table/table"
)

// FilteredTable is a bubble-table with a title, '/' filters rows
type FilteredTable struct {
	title string
	model table.Model
	rows  int
}

func NewFilteredTable(title string, headers []string, width, height int) FilteredTable {
	columns := make([]table.Column, len(headers))
	for i, h := range headers {
		columns[i] = table.NewFlexColumn(h, h, 1).WithFiltered(true)
	}
	pageSize := height - 6
	if pageSize < 3 {
		pageSize = 3
	}
	model := table.New(columns).
		Filtered(true).
		Focused(true).
		WithPageSize(pageSize).
		WithTargetWidth(width).
		WithBaseStyle(lipgloss.NewStyle().Align(lipgloss.Left)).
		HighlightStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6")))
	return FilteredTable{title: title, model: model}
}

func (t *FilteredTable) SetRows(rows []table.Row) {
	t.rows = len(rows)
	t.model = t.model.WithRows(rows)
}

func (t FilteredTable) RowCount() int {
	return t.rows
}

func (t FilteredTable) HighlightedRow() table.Row {
	return t.model.HighlightedRow()
}

func (t FilteredTable) Update(msg tea.Msg) (FilteredTable, tea.Cmd) {
	var cmd tea.Cmd
	t.model, cmd = t.model.Update(msg)
	return t, cmd
}

func (t FilteredTable) View() string {
	return lipgloss.JoinVertical(lipgloss.Left, listTitleStyle.Render(t.title), t.model.View())
}
