package widgets

import (
	"github.com/Slach/catalog-browser/pkg/facet"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

const emptyOptionLabel = "(any)"

// SelectList is a FilteredList of facet options. It implements
// facet.Control and ignores keys while disabled. Options added while
// disabled reach the list in one step when it is enabled.
type SelectList struct {
	list     FilteredList
	options  []facet.Option
	labels   []string
	disabled bool
}

func NewSelectList(title string, width, height int) *SelectList {
	return &SelectList{
		list:     NewFilteredList(title, nil, width, height),
		disabled: true,
	}
}

func (s *SelectList) Add(opt facet.Option) {
	s.options = append(s.options, opt)
	label := opt.Label
	if opt.Value == "" && label == "" {
		label = emptyOptionLabel
	}
	s.labels = append(s.labels, label)
	if !s.disabled {
		s.list.SetItems(s.labels)
	}
}

func (s *SelectList) SetDisabled(disabled bool) {
	s.disabled = disabled
	if !disabled {
		s.list.SetItems(s.labels)
	}
}

func (s *SelectList) Disabled() bool {
	return s.disabled
}

func (s *SelectList) Options() []facet.Option {
	return s.options
}

// Selected returns the highlighted option
func (s *SelectList) Selected() (facet.Option, bool) {
	if s.disabled {
		return facet.Option{}, false
	}
	i := s.list.SelectedIndex()
	if i < 0 || i >= len(s.options) {
		return facet.Option{}, false
	}
	return s.options[i], true
}

func (s *SelectList) Filtering() bool {
	return s.list.Filtering()
}

func (s *SelectList) Update(msg tea.Msg) tea.Cmd {
	if _, isKey := msg.(tea.KeyMsg); isKey && s.disabled {
		return nil
	}
	var cmd tea.Cmd
	s.list, cmd = s.list.Update(msg)
	return cmd
}

func (s *SelectList) View() string {
	if s.disabled {
		return lipgloss.JoinVertical(lipgloss.Left, s.list.View(), listMutedStyle.Render("Loading options..."))
	}
	view := s.list.View()
	if opt, ok := s.Selected(); ok && opt.Tooltip != "" {
		view = lipgloss.JoinVertical(lipgloss.Left, view, listMutedStyle.Render(opt.Tooltip))
	}
	return view
}
