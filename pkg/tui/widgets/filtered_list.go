package widgets

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	listTitleStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("white")).Padding(0, 1)
	listSelectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("0")).Background(lipgloss.Color("6")).Bold(true)
	listItemStyle     = lipgloss.NewStyle()
	listMutedStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	listBorderStyle   = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("62")).Padding(0, 1)
)

// FilteredList is a scrollable list, '/' starts filtering by substring
type FilteredList struct {
	title     string
	items     []string
	visible   []int // indexes into items that match the filter
	cursor    int
	offset    int
	filter    textinput.Model
	filtering bool
	width     int
	height    int
}

func NewFilteredList(title string, items []string, width, height int) FilteredList {
	ti := textinput.New()
	ti.Prompt = "/"
	ti.CharLimit = 64

	l := FilteredList{
		title:  title,
		filter: ti,
		width:  width,
		height: height,
	}
	l.SetItems(items)
	return l
}

// SetItems replaces the items and keeps the current filter
func (l *FilteredList) SetItems(items []string) {
	l.items = items
	l.applyFilter()
}

func (l FilteredList) Items() []string {
	return l.items
}

// SelectedIndex is the index in the unfiltered items, -1 when nothing matches
func (l FilteredList) SelectedIndex() int {
	if l.cursor < 0 || l.cursor >= len(l.visible) {
		return -1
	}
	return l.visible[l.cursor]
}

func (l FilteredList) Filtering() bool {
	return l.filtering
}

func (l *FilteredList) applyFilter() {
	needle := strings.ToLower(strings.TrimSpace(l.filter.Value()))
	l.visible = make([]int, 0, len(l.items))
	for i, item := range l.items {
		if needle == "" || strings.Contains(strings.ToLower(item), needle) {
			l.visible = append(l.visible, i)
		}
	}
	if l.cursor >= len(l.visible) {
		l.cursor = len(l.visible) - 1
	}
	if l.cursor < 0 {
		l.cursor = 0
	}
	l.scroll()
}

func (l FilteredList) pageSize() int {
	// title, border and filter line
	size := l.height - 5
	if size < 3 {
		size = 3
	}
	return size
}

func (l *FilteredList) scroll() {
	size := l.pageSize()
	if l.cursor < l.offset {
		l.offset = l.cursor
	}
	if l.cursor >= l.offset+size {
		l.offset = l.cursor - size + 1
	}
	if l.offset < 0 {
		l.offset = 0
	}
}

func (l *FilteredList) move(delta int) {
	if len(l.visible) == 0 {
		return
	}
	l.cursor += delta
	if l.cursor < 0 {
		l.cursor = 0
	}
	if l.cursor >= len(l.visible) {
		l.cursor = len(l.visible) - 1
	}
	l.scroll()
}

func (l FilteredList) Update(msg tea.Msg) (FilteredList, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		l.width = msg.Width
		l.height = msg.Height
		l.scroll()
		return l, nil

	case tea.KeyMsg:
		if l.filtering {
			switch msg.String() {
			case "esc":
				l.filtering = false
				l.filter.Blur()
				l.filter.SetValue("")
				l.applyFilter()
				return l, nil
			case "enter":
				l.filtering = false
				l.filter.Blur()
				return l, nil
			case "up", "down":
			default:
				l.filter, cmd = l.filter.Update(msg)
				l.applyFilter()
				return l, cmd
			}
		}

		switch msg.String() {
		case "/":
			l.filtering = true
			l.filter.Focus()
			return l, textinput.Blink
		case "up", "k":
			l.move(-1)
		case "down", "j":
			l.move(1)
		case "pgup":
			l.move(-l.pageSize())
		case "pgdown":
			l.move(l.pageSize())
		case "home", "g":
			l.move(-len(l.visible))
		case "end", "G":
			l.move(len(l.visible))
		}

	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			l.move(-1)
		case tea.MouseButtonWheelDown:
			l.move(1)
		}
	}
	return l, nil
}

func (l FilteredList) View() string {
	var b strings.Builder
	title := l.title
	if v := l.filter.Value(); v != "" && !l.filtering {
		title = fmt.Sprintf("%s /%s", l.title, v)
	}
	b.WriteString(listTitleStyle.Render(title))
	b.WriteString("\n")

	if len(l.visible) == 0 {
		b.WriteString(listMutedStyle.Render("  no matches"))
	}
	end := l.offset + l.pageSize()
	if end > len(l.visible) {
		end = len(l.visible)
	}
	for i := l.offset; i < end; i++ {
		item := l.items[l.visible[i]]
		if i == l.cursor {
			b.WriteString(listSelectedStyle.Render("▶ " + item))
		} else {
			b.WriteString(listItemStyle.Render("  " + item))
		}
		if i < end-1 {
			b.WriteString("\n")
		}
	}

	content := b.String()
	if l.filtering {
		content += "\n" + l.filter.View()
	} else {
		content += "\n" + listMutedStyle.Render(fmt.Sprintf("%d/%d  /: filter", len(l.visible), len(l.items)))
	}
	style := listBorderStyle
	if l.width > 4 {
		style = style.Width(l.width - 4)
	}
	return style.Render(content)
}
