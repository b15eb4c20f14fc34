package tui

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Slach/catalog-browser/pkg/catalog"
	"github.com/Slach/catalog-browser/pkg/client"
	"github.com/Slach/catalog-browser/pkg/config"
	"github.com/Slach/catalog-browser/pkg/models"
	"github.com/Slach/catalog-browser/pkg/types"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/rs/zerolog/log"
)

var logo = `██
██ ██
██ ██
██ ██ ██
██ ██ ██ ██
██ ██ ██ ██ ██
██ ██ ██ ██ ██ ██`

// Page types
type pageType string

const (
	pageMain      pageType = "main"
	pageCatalog   pageType = "catalog"
	pageField     pageType = "field"
	pageFacet     pageType = "facet"
	pageHistogram pageType = "histogram"
	pageHits      pageType = "hits"
	pageDescr     pageType = "descr"
	pageScale     pageType = "scale"
)

// filterable pages get every key while their filter input is active
type filterable interface {
	Filtering() bool
}

// App is the main bubbletea model
type App struct {
	state *models.AppState

	currentPage            pageType
	mainMessage            string
	commandMode            bool
	commandInput           textinput.Model
	commandSuggestions     []string
	selectedSuggestion     int
	suggestionScrollOffset int
	initialCommand         string // CLI subcommand to execute on startup
	requests               uint64
	width                  int
	height                 int

	catalogHandler   tea.Model
	fieldHandler     tea.Model
	facetHandler     tea.Model
	histogramHandler tea.Model
	hitsHandler      tea.Model
	descrHandler     tea.Model
	scaleHandler     tea.Model
}

func NewApp(cfg *config.Config, catalogs *catalog.Registry, backend client.Backend, version string) *App {
	ti := textinput.New()
	ti.Placeholder = "Enter command..."
	ti.Prompt = ":"
	ti.CharLimit = 100

	return &App{
		state:        models.NewAppState(cfg, catalogs, backend, version),
		currentPage:  pageMain,
		commandInput: ti,
		mainMessage: lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Render(logo) +
			"\n\nWelcome to Catalog Browser\nPress ':' to enter command mode",
	}
}

func (a *App) Init() tea.Cmd {
	if a.initialCommand != "" {
		cmd := a.executeCommand(a.initialCommand)
		a.initialCommand = ""
		return cmd
	}
	return nil
}

// nextRequest numbers fetches so pages can drop results of earlier ones
func (a *App) nextRequest() uint64 {
	a.requests++
	return a.requests
}

func (a *App) handlerFor(page pageType) *tea.Model {
	switch page {
	case pageCatalog:
		return &a.catalogHandler
	case pageField:
		return &a.fieldHandler
	case pageFacet:
		return &a.facetHandler
	case pageHistogram:
		return &a.histogramHandler
	case pageHits:
		return &a.hitsHandler
	case pageDescr:
		return &a.descrHandler
	case pageScale:
		return &a.scaleHandler
	}
	return nil
}

// forward passes msg to the handler of page when that page is shown
func (a *App) forward(page pageType, msg tea.Msg) tea.Cmd {
	if a.currentPage != page {
		return nil
	}
	h := a.handlerFor(page)
	if h == nil || *h == nil {
		return nil
	}
	var cmd tea.Cmd
	*h, cmd = (*h).Update(msg)
	return cmd
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		return a, a.forward(a.currentPage, msg)

	case CatalogSelectedMsg:
		if err := a.state.SelectCatalog(msg.Name); err != nil {
			a.SwitchToMainPage(fmt.Sprintf("Error: %v", err))
			return a, nil
		}
		a.showFieldSelector()
		return a, nil

	case FieldSelectedMsg:
		if err := a.state.SelectField(msg.Field); err != nil {
			a.SwitchToMainPage(fmt.Sprintf("Error: %v", err))
			return a, nil
		}
		if !a.state.Field.Facetable() {
			a.SwitchToMainPage(fmt.Sprintf("Field set to: %s\nIt has no value buckets, use :hits to see its values", a.state.Field.Title))
			return a, nil
		}
		return a, a.ShowFacet()

	case FilterSelectedMsg:
		a.state.SetFilter(msg.Field, msg.Value)
		if msg.Value == "" {
			a.SwitchToMainPage(fmt.Sprintf("Filter on %s removed", msg.Field))
		} else {
			a.SwitchToMainPage(fmt.Sprintf("Filter set: %s=%s", msg.Field, msg.Value))
		}
		return a, nil

	case ScaleSelectedMsg:
		a.state.LogScale = msg.Log
		a.SwitchToMainPage(fmt.Sprintf("New histograms open with %s scale", a.state.InitialMode()))
		return a, nil

	case FacetDataMsg:
		return a, a.forward(pageFacet, msg)

	case HistogramDataMsg:
		return a, a.forward(pageHistogram, msg)

	case HitsDataMsg:
		return a, a.forward(pageHits, msg)

	case tea.KeyMsg:
		if a.commandMode {
			return a, a.updateCommandMode(msg)
		}

		// a page filter input owns the keyboard
		if h := a.handlerFor(a.currentPage); h != nil && *h != nil {
			if f, ok := (*h).(filterable); ok && f.Filtering() {
				return a, a.forward(a.currentPage, msg)
			}
		}

		switch msg.String() {
		case ":":
			a.commandMode = true
			a.commandInput.Focus()
			a.updateCommandSuggestions()
			return a, nil

		case "ctrl+c", "q":
			if a.currentPage == pageMain {
				return a, tea.Quit
			}
			a.currentPage = pageMain
			return a, nil

		case "esc":
			a.SwitchToMainPage("")
			return a, nil
		}

		return a, a.forward(a.currentPage, msg)

	case tea.MouseMsg:
		return a, a.forward(a.currentPage, msg)
	}

	return a, nil
}

func (a *App) updateCommandMode(msg tea.KeyMsg) tea.Cmd {
	const maxVisible = 8
	switch msg.String() {
	case "esc":
		a.resetCommandMode()
		return nil
	case "enter":
		var cmd string
		if a.selectedSuggestion >= 0 && a.selectedSuggestion < len(a.commandSuggestions) {
			cmd = a.commandSuggestions[a.selectedSuggestion]
		} else {
			cmd = strings.TrimSpace(a.commandInput.Value())
		}
		a.resetCommandMode()
		return a.executeCommand(cmd)
	case "tab":
		if len(a.commandSuggestions) > 0 {
			a.commandInput.SetValue(a.commandSuggestions[a.selectedSuggestion])
			a.commandSuggestions = nil
			a.selectedSuggestion = 0
			a.suggestionScrollOffset = 0
		}
		return nil
	case "down", "ctrl+n":
		if len(a.commandSuggestions) > 0 {
			a.selectedSuggestion++
			if a.selectedSuggestion >= len(a.commandSuggestions) {
				a.selectedSuggestion = 0
				a.suggestionScrollOffset = 0
			} else if a.selectedSuggestion >= a.suggestionScrollOffset+maxVisible {
				a.suggestionScrollOffset = a.selectedSuggestion - maxVisible + 1
			}
		}
		return nil
	case "up", "ctrl+p":
		if len(a.commandSuggestions) > 0 {
			a.selectedSuggestion--
			if a.selectedSuggestion < 0 {
				a.selectedSuggestion = len(a.commandSuggestions) - 1
				a.suggestionScrollOffset = max(len(a.commandSuggestions)-maxVisible, 0)
			} else if a.selectedSuggestion < a.suggestionScrollOffset {
				a.suggestionScrollOffset = a.selectedSuggestion
			}
		}
		return nil
	}
	var cmd tea.Cmd
	a.commandInput, cmd = a.commandInput.Update(msg)
	a.updateCommandSuggestions()
	return cmd
}

func (a *App) resetCommandMode() {
	a.commandMode = false
	a.commandInput.SetValue("")
	a.commandSuggestions = nil
	a.selectedSuggestion = 0
	a.suggestionScrollOffset = 0
}

func (a *App) View() string {
	if a.width == 0 {
		return "Loading..."
	}

	var content string
	if a.currentPage == pageMain {
		content = a.renderMainPage()
	} else if h := a.handlerFor(a.currentPage); h != nil && *h != nil {
		content = (*h).View()
	} else {
		content = fmt.Sprintf("Page '%s' is not open\nPress ESC to return to main", a.currentPage)
	}

	if a.commandMode {
		commandView := lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1).
			Render(a.commandInput.View())

		views := []string{content, "", commandView}
		if len(a.commandSuggestions) > 0 {
			end := min(a.suggestionScrollOffset+8, len(a.commandSuggestions))
			var lines []string
			for i := a.suggestionScrollOffset; i < end; i++ {
				if i == a.selectedSuggestion {
					lines = append(lines, lipgloss.NewStyle().
						Foreground(lipgloss.Color("0")).
						Background(lipgloss.Color("6")).
						Bold(true).
						Render("▶ "+a.commandSuggestions[i]))
				} else {
					lines = append(lines, lipgloss.NewStyle().
						Foreground(lipgloss.Color("8")).
						Render("  "+a.commandSuggestions[i]))
				}
			}
			views = append(views, lipgloss.NewStyle().
				BorderStyle(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("8")).
				Padding(0, 1).
				Render(strings.Join(lines, "\n")))
		}
		views = append(views, lipgloss.NewStyle().
			Foreground(lipgloss.Color("8")).
			Render("Tab/Enter: Select | ↑↓: Navigate | Esc: Cancel"))
		content = lipgloss.JoinVertical(lipgloss.Left, views...)
	}

	return content
}

// updateCommandSuggestions filters available commands by prefix, then by substring
func (a *App) updateCommandSuggestions() {
	input := strings.TrimSpace(a.commandInput.Value())
	if input == "" {
		a.commandSuggestions = append([]string{}, availableCommands...)
		a.selectedSuggestion = 0
		return
	}

	var suggestions []string
	for _, cmd := range availableCommands {
		if strings.HasPrefix(cmd, input) {
			suggestions = append(suggestions, cmd)
		}
	}
	if len(suggestions) == 0 {
		for _, cmd := range availableCommands {
			if strings.Contains(cmd, input) {
				suggestions = append(suggestions, cmd)
			}
		}
	}

	a.commandSuggestions = suggestions
	if a.selectedSuggestion >= len(suggestions) {
		a.selectedSuggestion = 0
	}
}

func (a *App) renderMainPage() string {
	var content strings.Builder
	content.WriteString(a.mainMessage)
	content.WriteString("\n")

	if a.state.Catalog != nil {
		content.WriteString(fmt.Sprintf("\nCatalog: %s", a.state.Catalog.Title))
	}
	if a.state.Field != nil {
		content.WriteString(fmt.Sprintf("\nField: %s", a.state.Field.Title))
	}
	if filters := a.state.FiltersFormatted(); filters != "" {
		content.WriteString(fmt.Sprintf("\nFilters: %s", filters))
	}
	if tr := a.state.TimeRangeFormatted(); tr != "" {
		content.WriteString(fmt.Sprintf("\nTime range on %s: %s", a.state.RangeField, tr))
	}
	return content.String()
}

// SwitchToMainPage switches to the main page with an optional message
func (a *App) SwitchToMainPage(mainMsg string) {
	a.currentPage = pageMain
	if mainMsg != "" {
		a.mainMessage = mainMsg
	}
}

func (a *App) executeCommand(commandName string) tea.Cmd {
	log.Info().Str("command", commandName).Msg("Executing command")

	if slices.Contains([]string{CmdField, CmdFacet, CmdHistogram, CmdHits, CmdDescr}, commandName) && a.state.Catalog == nil {
		a.SwitchToMainPage("Error: Please pick a catalog first using :catalog command")
		return nil
	}
	if slices.Contains([]string{CmdFacet, CmdHistogram}, commandName) && a.state.Field == nil {
		a.SwitchToMainPage("Error: Please pick a field first using :field command")
		return nil
	}

	switch commandName {
	case CmdHelp:
		a.mainMessage = helpText
		a.currentPage = pageMain

	case CmdQuit:
		return tea.Quit

	case CmdCatalog:
		a.showCatalogSelector()

	case CmdField:
		a.showFieldSelector()

	case CmdFacet:
		return a.ShowFacet()

	case CmdHistogram:
		return a.ShowHistogram()

	case CmdHits:
		return a.ShowHits()

	case CmdDescr:
		a.showDescription()

	case CmdScale:
		a.showScaleSelector()

	case CmdFilters:
		filters := a.state.FiltersFormatted()
		if filters == "" {
			filters = "none"
		}
		a.SwitchToMainPage("Active filters: " + filters)

	case CmdClear:
		a.state.ClearFilters()
		a.SwitchToMainPage("Filters cleared")

	default:
		a.SwitchToMainPage(fmt.Sprintf("Unknown command: %s\nType :help for available commands", commandName))
	}

	return nil
}

// Run starts the bubbletea program
func (a *App) Run() error {
	defer func() {
		if a.state.Backend != nil {
			if err := a.state.Backend.Close(); err != nil {
				log.Error().Err(err).Stack().Send()
			}
		}
	}()

	opts := []tea.ProgramOption{tea.WithAltScreen()}
	if a.usingMouse() {
		opts = append(opts, tea.WithMouseCellMotion())
	}
	p := tea.NewProgram(a, opts...)
	_, err := p.Run()
	return err
}

// usingMouse is on unless the config or --disable-mouse turns it off
func (a *App) usingMouse() bool {
	if a.state.Config != nil && !a.state.Config.UI.UsingMouse {
		return false
	}
	if a.state.CLI != nil && a.state.CLI.DisableMouse {
		return false
	}
	return true
}

// ApplyCLIParameters applies CLI parameters to the app state
func (a *App) ApplyCLIParameters(c *types.CLI, commandName string) {
	a.state.CLI = c
	mainMsg := ""

	if c.Catalog != "" {
		if err := a.state.SelectCatalog(c.Catalog); err != nil {
			mainMsg += fmt.Sprintf("Error: %v\nAvailable catalogs: %s\n", err, strings.Join(a.state.Catalogs.Names(), ", "))
		} else {
			mainMsg += fmt.Sprintf("Set catalog: '%s'\n", c.Catalog)
		}
	}
	if c.Field != "" && a.state.Catalog != nil {
		if err := a.state.SelectField(c.Field); err != nil {
			mainMsg += fmt.Sprintf("Error: %v\n", err)
		} else {
			mainMsg += fmt.Sprintf("Set field: '%s'\n", c.Field)
		}
	}
	if filters, err := c.ParseFilters(); err != nil {
		mainMsg += fmt.Sprintf("Error: %v\n", err)
	} else {
		for k, v := range filters {
			a.state.SetFilter(k, v)
		}
	}

	if c.FromTime != "" || c.ToTime != "" {
		a.state.RangeField = c.RangeField
		if from, err := c.ParseFromTime(); err == nil {
			a.state.FromTime = from
		} else {
			mainMsg += err.Error() + "\n"
		}
		if to, err := c.ParseToTime(); err == nil {
			a.state.ToTime = to
		} else {
			mainMsg += err.Error() + "\n"
		}
		if c.RangeField == "" {
			mainMsg += "Time range ignored, --range-field is not set\n"
		}
	}

	if c.LogScale {
		a.state.LogScale = true
	}
	if c.HistField != "" {
		a.state.Histogram = &client.Histogram{Field: c.HistField, Interval: c.HistInterval}
	}

	if commandName == "browse" {
		switch {
		case a.state.Field != nil:
			a.initialCommand = CmdHistogram
		case a.state.Catalog != nil:
			a.initialCommand = CmdField
		default:
			a.initialCommand = CmdCatalog
		}
		mainMsg += fmt.Sprintf("Executing command: %s\n", a.initialCommand)
	}

	if mainMsg != "" {
		mainMsg += "Press ':' to continue"
		a.mainMessage = mainMsg
	}
}
