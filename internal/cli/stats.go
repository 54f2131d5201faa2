package cli

import (
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/samber/lo"
	"github.com/spf13/cobra"

	"github.com/adajed/searchview/internal/store"
)

// StatsOptions holds flags for the stats command.
type StatsOptions struct {
	*RootOptions
	JSON bool
}

// StatsResult is the JSON form of the stats command.
type StatsResult struct {
	Store string            `json:"store"`
	Stats store.Stats       `json:"stats"`
	Meta  map[string]string `json:"meta"`
}

// NewStatsCommand creates the stats command.
func NewStatsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &StatsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:           "stats [store]",
		Short:         "Print store statistics and ingest metadata",
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(cmd, opts, opts.storePath(args))
		},
	}

	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print JSON")

	return cmd
}

func runStats(cmd *cobra.Command, opts *StatsOptions, path string) error {
	ctx := cmd.Context()
	st, err := openReadOnly(path)
	if err != nil {
		return err
	}
	defer st.Close()

	stats, err := st.Stats(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read stats", err)
	}
	meta, err := st.AllMeta(ctx)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to read metadata", err)
	}

	w := cmd.OutOrStdout()
	if opts.JSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(StatsResult{Store: path, Stats: stats, Meta: meta})
	}

	rows := [][]string{
		{"frames", strconv.FormatInt(stats.Frames, 10)},
		{"edges", strconv.FormatInt(stats.Edges, 10)},
		{"max ply", strconv.FormatInt(stats.MaxPly, 10)},
		{"quiescence frames", strconv.FormatInt(stats.QuiescenceNodes, 10)},
		{"cache hits", strconv.FormatInt(stats.CacheHits, 10)},
		{"razored frames", strconv.FormatInt(stats.RazoredFrames, 10)},
		{"futility frames", strconv.FormatInt(stats.FutilityFrames, 10)},
	}
	keys := lo.Keys(meta)
	slices.Sort(keys)
	for _, k := range keys {
		rows = append(rows, []string{k, meta[k]})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(styleCells).
		Headers("store", path).
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
	return nil
}
