package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/Slach/catalog-browser/pkg/catalog"
	"github.com/Slach/catalog-browser/pkg/client"
	"github.com/Slach/catalog-browser/pkg/facet"
	"github.com/Slach/catalog-browser/pkg/types"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/term"
)

const optionsTimeout = 30 * time.Second

var headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))

func RunOptions(ctx context.Context, cli *types.CLI, version string, out io.Writer) error {
	env, err := loadEnvironment(cli, version)
	if err != nil {
		return err
	}
	defer func() {
		if err := env.backend.Close(); err != nil {
			log.Error().Err(err).Send()
		}
	}()
	if ctx == nil {
		ctx = context.Background()
	}
	opts, err := Options(ctx, env.catalogs, env.backend, cli, env.config.UI.TermsSize)
	if err != nil {
		return err
	}
	styled := false
	if f, ok := out.(*os.File); ok {
		styled = term.IsTerminal(int(f.Fd()))
	}
	return WriteOptions(out, opts, cli.JSON, styled)
}

// Options returns the field picker of --catalog, or the facet options of
// --field when it is given
func Options(ctx context.Context, catalogs *catalog.Registry, backend client.Backend, cli *types.CLI, termsSize int) ([]facet.Option, error) {
	if cli.Catalog == "" {
		return nil, errors.New("--catalog is required")
	}
	c, err := catalogs.Get(cli.Catalog)
	if err != nil {
		return nil, err
	}
	if cli.Field == "" {
		return facet.PickerOptions(c), nil
	}
	f, err := c.Field(cli.Field)
	if err != nil {
		return nil, err
	}
	filters, err := cli.ParseFilters()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, optionsTimeout)
	defer cancel()
	resp, err := backend.Search(ctx, client.Query{
		Catalog:   c,
		Filters:   filters,
		Terms:     []string{f.Name},
		TermsSize: termsSize,
	})
	if err != nil {
		return nil, err
	}
	terms, ok := resp.Terms(f.Name)
	if !ok {
		return nil, errors.Errorf("response has no terms aggregation for %s", f.Name)
	}
	list := facet.NewOptionList()
	facet.FillSelectTerms(list, f, *terms)
	return list.Options, nil
}

// WriteOptions prints options as JSON, a styled table for terminals, or
// tab-separated value and label lines
func WriteOptions(w io.Writer, opts []facet.Option, asJSON, styled bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(opts)
	}
	if styled {
		t := table.New().
			Border(lipgloss.RoundedBorder()).
			Headers("VALUE", "LABEL", "DESCRIPTION").
			StyleFunc(func(row, col int) lipgloss.Style {
				if row == table.HeaderRow {
					return headerStyle
				}
				return lipgloss.NewStyle().Padding(0, 1)
			})
		for _, o := range opts {
			t.Row(o.Value, o.Label, o.Tooltip)
		}
		_, err := fmt.Fprintln(w, t.Render())
		return err
	}
	for _, o := range opts {
		if _, err := fmt.Fprintf(w, "%s\t%s\n", o.Value, o.Label); err != nil {
			return err
		}
	}
	return nil
}
