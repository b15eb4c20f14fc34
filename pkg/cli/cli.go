package cli

import (
	"context"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/Slach/catalog-browser/pkg/catalog"
	"github.com/Slach/catalog-browser/pkg/client"
	"github.com/Slach/catalog-browser/pkg/config"
	"github.com/Slach/catalog-browser/pkg/logging"
	"github.com/Slach/catalog-browser/pkg/pprof"
	"github.com/Slach/catalog-browser/pkg/server"
	"github.com/Slach/catalog-browser/pkg/tui"
	"github.com/Slach/catalog-browser/pkg/types"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func NewRootCommand(cli *types.CLI, version string) *cobra.Command {
	var profiler *pprof.Profiler

	rootCmd := &cobra.Command{
		Use:           "catalog-browser",
		Short:         "Catalog Browser - faceted search over dataset catalogs",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// the TUI owns the terminal, so it always logs to a file
			if cmd.Name() == "browse" || cmd.Name() == cmd.Root().Name() || cli.LogPath != "" {
				if err := logging.InitLogFile(cli, version); err != nil {
					return errors.Wrap(err, "failed to initialize logger")
				}
			} else if err := logging.SetLevel(cli.LogLevel); err != nil {
				return err
			}
			if cli.Pprof {
				var err error
				if profiler, err = pprof.Start(cli.PprofPath); err != nil {
					return err
				}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return profiled(&profiler, func() error {
				return RunBrowse(cli, version, "browse")
			})
		},
	}

	browseCmd := &cobra.Command{
		Use:   "browse",
		Short: "Start the interactive browser",
		RunE: func(cmd *cobra.Command, args []string) error {
			return profiled(&profiler, func() error {
				return RunBrowse(cli, version, cmd.Name())
			})
		},
	}
	browseCmd.Flags().StringVar(&cli.FromTime, "from", "", "Start time (in any parsable format, see https://github.com/araddon/dateparse)")
	browseCmd.Flags().StringVar(&cli.ToTime, "to", "", "End time (in any parsable format, see https://github.com/araddon/dateparse)")
	browseCmd.Flags().StringVar(&cli.RangeField, "range-field", "", "Field the --from/--to range applies to")
	browseCmd.Flags().BoolVar(&cli.LogScale, "log-scale", false, "Open histograms with logarithmic scale")
	browseCmd.Flags().StringVar(&cli.HistField, "hist-field", "", "Numeric field to nest as a histogram under every bucket")
	browseCmd.Flags().Float64Var(&cli.HistInterval, "hist-interval", 1, "Interval of the nested histogram")
	browseCmd.Flags().BoolVar(&cli.DisableMouse, "disable-mouse", false, "Disable mouse support in the browser")

	optionsCmd := &cobra.Command{
		Use:   "options",
		Short: "Print field picker options, or facet options of --field",
		RunE: func(cmd *cobra.Command, args []string) error {
			return profiled(&profiler, func() error {
				return RunOptions(cmd.Context(), cli, version, cmd.OutOrStdout())
			})
		},
	}
	optionsCmd.Flags().BoolVar(&cli.JSON, "json", false, "Print options as JSON")

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve catalogs, field and facet options over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			return profiled(&profiler, func() error {
				return RunServe(cli, version)
			})
		},
	}
	serveCmd.Flags().StringVar(&cli.Listen, "listen", "", "Address to listen on (default from config, :8080)")

	rootCmd.PersistentFlags().StringVar(&cli.ConfigPath, "config", "", "Path to config file (default: ~/.catalog-browser/catalog-browser.yml)")
	rootCmd.PersistentFlags().StringVar(&cli.LogPath, "log", "", "Path to log file (default: ~/.catalog-browser/catalog-browser.log)")
	rootCmd.PersistentFlags().StringVar(&cli.LogLevel, "log-level", "info", "Log level: trace, debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVar(&cli.Pprof, "pprof", false, "Write CPU and memory profiles")
	rootCmd.PersistentFlags().StringVar(&cli.PprofPath, "pprof-path", "", "Directory for profiles (default: ~/.catalog-browser)")
	rootCmd.PersistentFlags().StringVar(&cli.Backend, "backend", "", "Backend name to use from config")
	rootCmd.PersistentFlags().StringVar(&cli.Catalog, "catalog", "", "Catalog name")
	rootCmd.PersistentFlags().StringVar(&cli.Field, "field", "", "Field name")
	rootCmd.PersistentFlags().StringArrayVar(&cli.Filters, "filter", nil, "Filter as field=value, may be repeated")

	rootCmd.AddCommand(browseCmd, optionsCmd, serveCmd)
	return rootCmd
}

// profiled runs f and then stops the profiler started by the pre-run hook,
// cobra skips post-run hooks when f fails
func profiled(profiler **pprof.Profiler, f func() error) error {
	defer func() {
		if *profiler != nil {
			(*profiler).Stop()
			*profiler = nil
		}
	}()
	return f()
}

type environment struct {
	config   *config.Config
	catalogs *catalog.Registry
	backend  client.Backend
}

// loadEnvironment reads config and catalogs and opens the configured backend
func loadEnvironment(cli *types.CLI, version string) (*environment, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get user home directory")
	}
	home = filepath.Join(home, ".catalog-browser")

	cfg, err := config.Load(cli, home)
	if err != nil {
		return nil, err
	}
	catalogsPath := cfg.CatalogsPath
	if catalogsPath == "" {
		catalogsPath = filepath.Join(home, "catalogs.yml")
	}
	catalogs, err := catalog.Load(catalogsPath)
	if err != nil {
		return nil, err
	}
	backendCfg, err := cfg.SelectedBackend()
	if err != nil {
		return nil, err
	}
	backend, err := client.New(backendCfg, version)
	if err != nil {
		return nil, err
	}
	log.Info().Str("backend", backendCfg.Name).Str("kind", backendCfg.Kind).Int("catalogs", len(catalogs.Names())).Msg("environment loaded")
	return &environment{config: cfg, catalogs: catalogs, backend: backend}, nil
}

func RunBrowse(cli *types.CLI, version string, commandName string) error {
	env, err := loadEnvironment(cli, version)
	if err != nil {
		return err
	}
	app := tui.NewApp(env.config, env.catalogs, env.backend, version)
	app.ApplyCLIParameters(cli, commandName)
	if err := app.Run(); err != nil {
		log.Error().Stack().Err(err).Send()
		return err
	}
	return nil
}

func RunServe(cli *types.CLI, version string) error {
	env, err := loadEnvironment(cli, version)
	if err != nil {
		return err
	}
	defer func() {
		if err := env.backend.Close(); err != nil {
			log.Error().Err(err).Send()
		}
	}()

	listen := cli.Listen
	if listen == "" {
		listen = env.config.Listen
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(env.catalogs, env.backend, env.config.UI.TermsSize)
	return server.Serve(ctx, listen, srv.Router())
}
