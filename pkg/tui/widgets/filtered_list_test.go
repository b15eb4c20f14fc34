package widgets

import (
	"strconv"
	"testing"

	"github.com/Slach/catalog-browser/pkg/facet"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keys(s string) []tea.KeyMsg {
	msgs := make([]tea.KeyMsg, 0, len(s))
	for _, r := range s {
		msgs = append(msgs, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}})
	}
	return msgs
}

func TestFilteredListNavigation(t *testing.T) {
	l := NewFilteredList("Fields", []string{"ID", "Status", "Mass"}, 80, 20)
	assert.Equal(t, 0, l.SelectedIndex())

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyDown})
	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, l.SelectedIndex())
	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 2, l.SelectedIndex(), "stays on the last item")
	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, 1, l.SelectedIndex())
	assert.Contains(t, l.View(), "▶ Status")
}

func TestFilteredListFilter(t *testing.T) {
	l := NewFilteredList("Fields", []string{"ID", "Status", "Mass"}, 80, 20)
	l, _ = l.Update(keys("/")[0])
	require.True(t, l.Filtering())
	for _, k := range keys("ma") {
		l, _ = l.Update(k)
	}
	assert.Equal(t, 2, l.SelectedIndex(), "only Mass matches")

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.False(t, l.Filtering())
	assert.Equal(t, 2, l.SelectedIndex())
	assert.Contains(t, l.View(), "Fields /ma")

	l, _ = l.Update(keys("/")[0])
	for _, k := range keys("zz") {
		l, _ = l.Update(k)
	}
	assert.Equal(t, -1, l.SelectedIndex())

	l, _ = l.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, l.Filtering())
	assert.Equal(t, 0, l.SelectedIndex())
}

func TestSelectListControl(t *testing.T) {
	s := NewSelectList("Status", 80, 20)
	var _ facet.Control = s

	assert.True(t, s.Disabled())
	assert.Contains(t, s.View(), "Loading options...")
	_, ok := s.Selected()
	assert.False(t, ok)

	s.Add(facet.Option{})
	s.Add(facet.Option{Value: "1", Label: "Active (482)"})
	s.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, ok = s.Selected()
	assert.False(t, ok, "keys are ignored while disabled")

	s.SetDisabled(false)
	opt, ok := s.Selected()
	require.True(t, ok)
	assert.Equal(t, "", opt.Value)
	assert.Contains(t, s.View(), "(any)")

	s.Update(tea.KeyMsg{Type: tea.KeyDown})
	opt, ok = s.Selected()
	require.True(t, ok)
	assert.Equal(t, "1", opt.Value)
	assert.Len(t, s.Options(), 2)
}

func TestSelectListFillsListOnEnable(t *testing.T) {
	s := NewSelectList("Name", 80, 20)
	s.Add(facet.Option{})
	for i := 0; i < 1000; i++ {
		s.Add(facet.Option{Value: strconv.Itoa(i), Label: strconv.Itoa(i) + " (1)"})
	}
	assert.Empty(t, s.list.Items(), "list is filled once, on enable")

	s.SetDisabled(false)
	require.Len(t, s.list.Items(), 1001)
	assert.Equal(t, "(any)", s.list.Items()[0])
	assert.Equal(t, "999 (1)", s.list.Items()[1000])

	s.Add(facet.Option{Value: "late", Label: "late (1)"})
	assert.Len(t, s.list.Items(), 1002)
}
