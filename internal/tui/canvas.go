package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var reverseStyle = lipgloss.NewStyle().Reverse(true)

type cell struct {
	r       rune
	reverse bool
}

// Canvas is a fixed-size grid of cells that draw commands are applied to.
type Canvas struct {
	width, height int
	cells         [][]cell
}

// NewCanvas returns a blank width x height canvas.
func NewCanvas(width, height int) *Canvas {
	c := &Canvas{}
	c.Resize(width, height)
	return c
}

// Resize reallocates the grid. Contents are lost.
func (c *Canvas) Resize(width, height int) {
	c.width, c.height = max(width, 0), max(height, 0)
	c.cells = make([][]cell, c.height)
	for i := range c.cells {
		c.cells[i] = make([]cell, c.width)
	}
	c.Clear()
}

func (c *Canvas) Size() (int, int) { return c.width, c.height }

func (c *Canvas) Clear() {
	for _, row := range c.cells {
		for i := range row {
			row[i] = cell{r: ' '}
		}
	}
}

// WriteAt copies text into the grid starting at (row, col). Anything
// outside the grid is dropped.
func (c *Canvas) WriteAt(row, col int, text string, reverse bool) {
	if row < 0 || row >= c.height {
		return
	}
	for _, r := range text {
		if col >= c.width {
			return
		}
		if col >= 0 {
			c.cells[row][col] = cell{r: r, reverse: reverse}
		}
		col++
	}
}

// Lines returns the plain text of every row.
func (c *Canvas) Lines() []string {
	out := make([]string, c.height)
	for i, row := range c.cells {
		var sb strings.Builder
		for _, cl := range row {
			sb.WriteRune(cl.r)
		}
		out[i] = sb.String()
	}
	return out
}

// String renders the grid, styling reversed runs with lipgloss.
func (c *Canvas) String() string {
	var sb strings.Builder
	for i, row := range c.cells {
		if i > 0 {
			sb.WriteByte('\n')
		}
		start := 0
		for start < len(row) {
			end := start
			for end < len(row) && row[end].reverse == row[start].reverse {
				end++
			}
			run := make([]rune, 0, end-start)
			for _, cl := range row[start:end] {
				run = append(run, cl.r)
			}
			if row[start].reverse {
				sb.WriteString(reverseStyle.Render(string(run)))
			} else {
				sb.WriteString(string(run))
			}
			start = end
		}
	}
	return sb.String()
}
