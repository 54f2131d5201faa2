// Package cli implements the searchview command tree.
package cli

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/adajed/searchview/internal/config"
	"github.com/adajed/searchview/internal/logx"
)

// RootOptions holds global flags and the state every command shares.
type RootOptions struct {
	ConfigFile string
	LogLevel   string
	Verbose    bool

	// Set by the root command before any subcommand runs.
	Config *config.Config
	Log    zerolog.Logger
}

// NewRootCommand creates the root command for the searchview CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "searchview",
		Short: "Inspect game-tree search traces",
		Long: `searchview turns the debug trace of an alpha-beta search into a
persisted tree and lets you walk it one node at a time.

  searchview ingest run.log -o run.db
  searchview browse run.db`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.setup(cmd)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "config file (default searchview.yaml in the usual places)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "debug logging")

	cmd.AddCommand(NewIngestCommand(opts))
	cmd.AddCommand(NewBrowseCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewStatsCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

func (o *RootOptions) setup(cmd *cobra.Command) error {
	var err error
	if o.ConfigFile != "" {
		o.Config, err = config.LoadFromFile(o.ConfigFile)
	} else {
		o.Config, err = config.Load()
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load config", err)
	}

	level := o.Config.LogLevel
	if o.LogLevel != "" {
		level = o.LogLevel
	}
	lvl := logx.ParseLevel(level)
	if o.Verbose {
		lvl = zerolog.DebugLevel
	}
	o.Log = logx.New(cmd.ErrOrStderr(), lvl)
	return nil
}

// storePath picks the positional store argument or the configured default.
func (o *RootOptions) storePath(args []string) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return o.Config.Store
}
