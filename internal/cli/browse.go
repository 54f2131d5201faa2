package cli

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/adajed/searchview/internal/logx"
	"github.com/adajed/searchview/internal/navigator"
	"github.com/adajed/searchview/internal/store"
	"github.com/adajed/searchview/internal/tui"
)

// BrowseOptions holds flags for the browse command.
type BrowseOptions struct {
	*RootOptions
	EcoDir  string
	LogFile string
}

var isTerminal = func(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewBrowseCommand creates the interactive browse command.
func NewBrowseCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &BrowseOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "browse [store]",
		Short: "Walk a stored search tree interactively",
		Long: `Open a full-screen browser over a stored search tree.

Keys:
  enter, right, l      open the selected child
  up, k / down, j      move the selection
  backspace, left, h   back to the parent (also p)
  u / d                first child / Exit entry
  q                    quit`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBrowse(cmd, opts, opts.storePath(args))
		},
	}

	cmd.Flags().StringVar(&opts.EcoDir, "eco-dir", "", "directory of ECO .tsv files (default from config)")
	cmd.Flags().StringVar(&opts.LogFile, "log-file", "", "write logs here while the browser owns the screen")

	return cmd
}

func runBrowse(cmd *cobra.Command, opts *BrowseOptions, path string) error {
	if !isTerminal(os.Stdin) || !isTerminal(os.Stdout) {
		return NewExitError(ExitCommandError, "browse needs an interactive terminal (try show or serve)")
	}

	// The screen belongs to the browser; logs go to --log-file or nowhere.
	screenLog := zerolog.Nop()
	if opts.LogFile != "" {
		f, err := os.OpenFile(opts.LogFile, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open log file", err)
		}
		defer f.Close()
		screenLog = logx.New(f, opts.Log.GetLevel())
	}
	opts.Log = screenLog

	st, err := openReadOnly(path)
	if err != nil {
		return err
	}
	defer st.Close()

	ecoDir := opts.EcoDir
	if ecoDir == "" {
		ecoDir = opts.Config.EcoDir
	}
	reader := store.NewCachedReader(st, store.NewFrameCache(opts.Config.CacheFrames))
	nav, err := navigator.New(cmd.Context(), reader, displayOptions(opts.loadOpenings(ecoDir)))
	if err != nil {
		return WrapExitError(ExitFailure, "failed to open tree", err)
	}

	if err := tui.Run(nav); err != nil {
		return WrapExitError(ExitFailure, "browser stopped", err)
	}
	hits, misses, _, _ := reader.Cache().Stats()
	screenLog.Info().Uint64("cache_hits", hits).Uint64("cache_misses", misses).Msg("browse finished")
	return nil
}
