package navigator

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/adajed/searchview/internal/graph"
	"github.com/adajed/searchview/internal/notation"
)

// DrawCmd writes Text at (Row, Col). Reverse marks the highlighted row.
type DrawCmd struct {
	Row     int
	Col     int
	Text    string
	Reverse bool
}

// Values are the numbers a panel shows for one frame.
type Values struct {
	Alpha      string
	Beta       string
	Score      string
	StaticEval string
	CacheScore string
}

// PanelValues formats a frame's numbers. Seen from the parent, the window
// is swapped and every value negated so both panels read from one side.
func PanelValues(f *graph.Frame, fromParent bool) Values {
	v := Values{
		Alpha:      strconv.Itoa(f.Alpha),
		Beta:       strconv.Itoa(f.Beta),
		Score:      graph.FormatScore(f.Score),
		StaticEval: graph.FormatScore(f.StaticEval),
		CacheScore: "-",
	}
	if f.Cache != nil {
		v.CacheScore = strconv.Itoa(f.Cache.Score)
	}
	if !fromParent {
		return v
	}

	v.Alpha = strconv.Itoa(-f.Beta)
	v.Beta = strconv.Itoa(-f.Alpha)
	v.Score = graph.FormatScore(negate(f.Score))
	v.StaticEval = graph.FormatScore(negate(f.StaticEval))
	if f.Cache != nil {
		v.CacheScore = strconv.Itoa(-f.Cache.Score)
	}
	return v
}

func negate(v *int) *int {
	if v == nil {
		return nil
	}
	n := -*v
	return &n
}

const (
	minWidth  = 40
	minHeight = 12
	statusH   = 3
	pathH     = 1
)

// Render lays out the whole screen for a width x height terminal. It only
// reads navigator state.
func (n *Navigator) Render(width, height int) []DrawCmd {
	s := &screen{w: width, h: height}
	if width < minWidth || height < minHeight {
		s.text(0, 0, "terminal too small", false)
		return s.cmds
	}

	s.box(0, 0, statusH, width)
	s.centered(1, 1, width-2, n.statusLine(), false)
	s.centered(statusH, 0, width, strings.Join(n.path, " "), false)

	top := statusH + pathH
	mainH := height - top
	menuW := width * 3 / 10
	rightW := width - menuW
	nodeH := mainH / 2

	s.box(top, 0, mainH, menuW)
	n.renderMenu(s, top+1, 1, mainH-2, menuW-2)

	s.box(top, menuW, nodeH, rightW)
	s.lines(top+1, menuW+1, nodeH-2, rightW-2, n.frameLines(n.current, false))

	s.box(top+nodeH, menuW, mainH-nodeH, rightW)
	s.lines(top+nodeH+1, menuW+1, mainH-nodeH-2, rightW-2, n.previewLines())
	return s.cmds
}

func (n *Navigator) statusLine() string {
	kids := len(n.items) - 1
	if n.current.IsRoot() {
		return fmt.Sprintf("root  %d searches  [enter] open  [h] back  [q] quit", kids)
	}
	return fmt.Sprintf("frame #%d  level %d  %d children  [enter] open  [h] back  [q] quit",
		n.current.ID, len(n.crumbs), kids)
}

// renderMenu draws the child list, scrolled to keep the selection visible.
func (n *Navigator) renderMenu(s *screen, row, col, height, width int) {
	if height <= 0 {
		return
	}
	start := max(0, n.selected-height/2)
	end := min(len(n.items), start+height)
	for i := start; i < end; i++ {
		msg := fmt.Sprintf("%d. %s", i, n.items[i].Label)
		s.centered(row+i-start, col, width, msg, i == n.selected)
	}
}

func (n *Navigator) previewLines() []string {
	it := n.items[n.selected]
	if !it.IsExit() {
		return n.frameLines(it.Frame, true)
	}
	if len(n.crumbs) == 0 {
		return []string{"", "EXIT", "", "end the session"}
	}
	return []string{"", "EXIT", "", "back to the parent node"}
}

// frameLines is the text of a node panel.
func (n *Navigator) frameLines(f *graph.Frame, fromParent bool) []string {
	if f.IsRoot() {
		return []string{"", "SEARCH ROOT", "", fmt.Sprintf("%d top-level searches", len(n.items)-1)}
	}

	v := PanelValues(f, fromParent)
	best := "-"
	if f.BestMove != "" {
		best = n.opts.Notation(f.Position, f.BestMove)
	}

	kind := ""
	if f.Quiescence {
		kind = "  quiescence"
	}
	if f.IsPV {
		kind += "  pv node"
	}

	lines := []string{
		"NODE best move : " + best,
		fmt.Sprintf("ply : %d  depth : %d%s", f.Ply, f.Depth, kind),
		fmt.Sprintf("alpha = %s  beta = %s", v.Alpha, v.Beta),
		fmt.Sprintf("result = %s position = %s", v.Score, v.StaticEval),
	}
	if f.PV != nil {
		lines = append(lines, "pv = "+strings.Join(n.opts.Line(f.Position, f.PV), " "))
	} else {
		lines = append(lines, "")
	}
	lines = append(lines, "FEN "+f.Position)

	if board, err := notation.Diagram(f.Position); err == nil {
		lines = append(lines, board...)
	} else {
		lines = append(lines, "(no board)")
	}

	lines = append(lines, "")
	if c := f.Cache; c != nil {
		lines = append(lines, fmt.Sprintf("CACHE Move %s Depth %d Score %s Flag %s",
			n.opts.Notation(f.Position, c.Move), c.Depth, v.CacheScore, c.Flag))
	} else {
		lines = append(lines, "CACHE MISS")
	}

	var extra []string
	if f.Razoring {
		extra = append(extra, "RAZORING")
	}
	if f.Futility {
		extra = append(extra, "FUTILITY PRUNING")
	}
	extra = append(extra, fmt.Sprintf("nodes = %d", f.NodesSearched))
	lines = append(lines, strings.Join(extra, "  "))

	if name := n.opts.Opening(f.Position); name != "" {
		lines = append(lines, name)
	}
	return lines
}

// screen collects draw commands clipped to the terminal.
type screen struct {
	w, h int
	cmds []DrawCmd
}

func (s *screen) text(row, col int, text string, reverse bool) {
	if row < 0 || row >= s.h || col >= s.w || text == "" {
		return
	}
	r := []rune(text)
	if col < 0 {
		if -col >= len(r) {
			return
		}
		r = r[-col:]
		col = 0
	}
	if col+len(r) > s.w {
		r = r[:s.w-col]
	}
	s.cmds = append(s.cmds, DrawCmd{Row: row, Col: col, Text: string(r), Reverse: reverse})
}

// centered writes text centered in [col, col+width), truncated to fit.
func (s *screen) centered(row, col, width int, text string, reverse bool) {
	if width <= 0 {
		return
	}
	r := []rune(text)
	if len(r) > width {
		r = r[:width]
	}
	s.text(row, col+(width-len(r))/2, string(r), reverse)
}

// lines writes centered rows until height runs out.
func (s *screen) lines(row, col, height, width int, lines []string) {
	for i, l := range lines {
		if i >= height {
			return
		}
		s.centered(row+i, col, width, l, false)
	}
}

func (s *screen) box(row, col, height, width int) {
	if height < 2 || width < 2 {
		return
	}
	inner := strings.Repeat("─", width-2)
	s.text(row, col, "┌"+inner+"┐", false)
	for r := row + 1; r < row+height-1; r++ {
		s.text(r, col, "│", false)
		s.text(r, col+width-1, "│", false)
	}
	s.text(row+height-1, col, "└"+inner+"┘", false)
}
