package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/adajed/searchview/internal/graph"
	"github.com/adajed/searchview/internal/navigator"
)

// ShowOptions holds flags for the show command.
type ShowOptions struct {
	*RootOptions
	ID     int64
	EcoDir string
}

// NewShowCommand creates the show command.
func NewShowCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ShowOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "show [store]",
		Short: "Print one frame and its children",
		Long: `Print a frame and the labelled list of its children, the same
information one browser screen shows. Child values are seen from the
frame's side.

Examples:
  searchview show run.db
  searchview show run.db --id 42`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShow(cmd, opts, opts.storePath(args))
		},
	}

	cmd.Flags().Int64Var(&opts.ID, "id", 0, "frame id (default the root)")
	cmd.Flags().StringVar(&opts.EcoDir, "eco-dir", "", "directory of ECO .tsv files (default from config)")

	return cmd
}

func runShow(cmd *cobra.Command, opts *ShowOptions, path string) error {
	ctx := cmd.Context()
	st, err := openReadOnly(path)
	if err != nil {
		return err
	}
	defer st.Close()

	id := opts.ID
	if id == 0 {
		if id, err = st.GetRootID(ctx); err != nil {
			return WrapExitError(ExitFailure, "store holds no tree", err)
		}
	}
	f, err := st.GetFrame(ctx, id)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load frame", err)
	}
	ids, err := st.GetChildren(ctx, id)
	if err != nil {
		return WrapExitError(ExitFailure, "failed to load children", err)
	}
	children := make([]*graph.Frame, 0, len(ids))
	for _, cid := range ids {
		c, err := st.GetFrame(ctx, cid)
		if err != nil {
			return WrapExitError(ExitFailure, "failed to load child", err)
		}
		children = append(children, c)
	}

	ecoDir := opts.EcoDir
	if ecoDir == "" {
		ecoDir = opts.Config.EcoDir
	}
	display := displayOptions(opts.loadOpenings(ecoDir))

	w := cmd.OutOrStdout()
	writeFrame(w, f, display)
	writeChildren(w, f, children, display)
	return nil
}

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

func styleCells(row, _ int) lipgloss.Style {
	if row == table.HeaderRow {
		return headerStyle
	}
	return cellStyle
}

func writeFrame(w io.Writer, f *graph.Frame, display navigator.Options) {
	if f.IsRoot() {
		fmt.Fprintf(w, "frame #%d: search root\n", f.ID)
		return
	}
	v := navigator.PanelValues(f, false)
	rows := [][]string{
		{"ply", strconv.Itoa(f.Ply)},
		{"depth", strconv.Itoa(f.Depth)},
		{"window", v.Alpha + " .. " + v.Beta},
		{"score", v.Score},
		{"static eval", v.StaticEval},
		{"position", f.Position},
	}
	if f.BestMove != "" {
		rows = append(rows, []string{"best move", display.Notation(f.Position, f.BestMove)})
	}
	if len(f.PV) > 0 {
		rows = append(rows, []string{"pv", strings.Join(display.Line(f.Position, f.PV), " ")})
	}
	if c := f.Cache; c != nil {
		rows = append(rows, []string{"cache", fmt.Sprintf("%s depth %d score %s %s",
			display.Notation(f.Position, c.Move), c.Depth, v.CacheScore, c.Flag)})
	}
	var flags []string
	if f.IsPV {
		flags = append(flags, "pv node")
	}
	if f.Quiescence {
		flags = append(flags, "quiescence")
	}
	if f.Razoring {
		flags = append(flags, "razoring")
	}
	if f.Futility {
		flags = append(flags, "futility pruning")
	}
	if len(flags) > 0 {
		rows = append(rows, []string{"flags", strings.Join(flags, ", ")})
	}
	rows = append(rows, []string{"nodes", strconv.FormatInt(f.NodesSearched, 10)})
	if name := display.Opening(f.Position); name != "" {
		rows = append(rows, []string{"opening", name})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(styleCells).
		Headers("frame", "#"+strconv.FormatInt(f.ID, 10)).
		Rows(rows...)
	fmt.Fprintln(w, t.Render())
}

func writeChildren(w io.Writer, parent *graph.Frame, children []*graph.Frame, display navigator.Options) {
	if len(children) == 0 {
		fmt.Fprintln(w, "no children")
		return
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(styleCells).
		Headers("#", "id", "label", "alpha", "beta", "score")
	for i, c := range children {
		v := navigator.PanelValues(c, true)
		t.Row(strconv.Itoa(i), strconv.FormatInt(c.ID, 10),
			navigator.Label(parent, c, display.Notation), v.Alpha, v.Beta, v.Score)
	}
	fmt.Fprintln(w, t.Render())
}
