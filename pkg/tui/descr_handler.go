package tui

import (
	"fmt"
	"strings"

	"github.com/Slach/catalog-browser/pkg/catalog"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/rs/zerolog/log"
)

// descrViewer shows the catalog description and field table rendered as markdown
type descrViewer struct {
	viewport viewport.Model
}

func newDescrViewer(c *catalog.Catalog, width, height int) descrViewer {
	vp := viewport.New(width-2, height-2)
	md := catalogMarkdown(c)
	renderer, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width-4),
	)
	if err == nil {
		if out, renderErr := renderer.Render(md); renderErr == nil {
			md = out
		} else {
			log.Warn().Err(renderErr).Str("catalog", c.Name).Msg("can't render description")
		}
	}
	vp.SetContent(md)
	return descrViewer{viewport: vp}
}

func catalogMarkdown(c *catalog.Catalog) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", c.Title)
	if c.Descr != "" {
		b.WriteString(c.Descr)
		b.WriteString("\n\n")
	}
	if c.Count != nil {
		fmt.Fprintf(&b, "Rows: %d\n\n", *c.Count)
	}
	b.WriteString("| Field | Title | Units | Description |\n|---|---|---|---|\n")
	for _, f := range c.Fields {
		name := "`" + f.Name + "`"
		if f.Facetable() {
			name += " *"
		}
		fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", name, f.Title, f.Units, strings.ReplaceAll(f.Descr, "|", "\\|"))
	}
	b.WriteString("\n\\* fields with value buckets\n")
	return b.String()
}

func (m descrViewer) Init() tea.Cmd {
	return nil
}

func (m descrViewer) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m descrViewer) View() string {
	return m.viewport.View()
}

func (a *App) showDescription() {
	a.descrHandler = newDescrViewer(a.state.Catalog, a.width, a.height)
	a.currentPage = pageDescr
}
