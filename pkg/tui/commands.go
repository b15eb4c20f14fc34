package tui

// Available commands
const (
	CmdHelp      = "help"
	CmdCatalog   = "catalog"
	CmdField     = "field"
	CmdFacet     = "facet"
	CmdHistogram = "histogram"
	CmdHits      = "hits"
	CmdDescr     = "descr"
	CmdScale     = "scale"
	CmdFilters   = "filters"
	CmdClear     = "clear"
	CmdQuit      = "quit"
)

var availableCommands = []string{
	CmdHelp,
	CmdCatalog,
	CmdField,
	CmdFacet,
	CmdHistogram,
	CmdHits,
	CmdDescr,
	CmdScale,
	CmdFilters,
	CmdClear,
	CmdQuit,
}

// Help text
const helpText = `Catalog Browser Commands:
:help      - Show this help
:catalog   - Pick a catalog
:field     - Pick a field of the catalog
:facet     - Filter by a value of the selected field
:histogram - Show bucket counts of the selected field, 'l' switches log scale
:hits      - Show matching rows
:descr     - Describe the catalog and its fields
:scale     - Choose the scale new histograms open with
:filters   - Show active filters
:clear     - Remove all filters
:quit      - Exit the application

Navigation:
- Use arrow keys to navigate
- Press / to filter lists
- Press Esc to cancel current operation`
