package navigator

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testW = 120
	testH = 60
	// Rows of the two right-hand panels for testW x testH.
	nodeTop    = 4
	previewTop = 4 + (testH-4)/2
)

func textsBetween(cmds []DrawCmd, from, to int) string {
	var sb strings.Builder
	for _, c := range cmds {
		if c.Row >= from && c.Row < to {
			sb.WriteString(c.Text)
			sb.WriteByte('\n')
		}
	}
	return sb.String()
}

func TestRenderPerspective(t *testing.T) {
	n := newNav(t, testTree(), Options{})
	require.NoError(t, n.Handle(KeyDescend))

	cmds := n.Render(testW, testH)
	preview := textsBetween(cmds, previewTop, testH)
	assert.Contains(t, preview, "alpha = -25  beta = 30")
	assert.Contains(t, preview, "result = 12 position = 20")
	assert.Contains(t, preview, "CACHE Move e7e5 Depth 3 Score -7 Flag EXACT")
	assert.Contains(t, preview, "BLACK TO MOVE")

	node := textsBetween(cmds, nodeTop, previewTop)
	assert.Contains(t, node, "alpha = -1000  beta = 1000")
	assert.Contains(t, node, "result = 10 position = -")
	assert.Contains(t, node, "pv = e2e4 e7e5")
	assert.Contains(t, node, "r n b q k b n r")
	assert.Contains(t, node, "WHITE TO MOVE")
	assert.Contains(t, node, "CACHE MISS")

	// Open the child: its own panel shows raw values.
	require.NoError(t, n.Handle(KeyDescend))
	node = textsBetween(n.Render(testW, testH), nodeTop, previewTop)
	assert.Contains(t, node, "alpha = -30  beta = 25")
	assert.Contains(t, node, "result = -12 position = -20")
	assert.Contains(t, node, "Score 7 Flag EXACT")
}

func TestRenderMenuHighlight(t *testing.T) {
	n := newNav(t, testTree(), Options{})
	require.NoError(t, n.Handle(KeyDown))

	var reversed []string
	for _, c := range n.Render(testW, testH) {
		if c.Reverse {
			reversed = append(reversed, c.Text)
		}
	}
	assert.Equal(t, []string{"1. Search depth=3"}, reversed)
}

func TestRenderRootAndExitPreview(t *testing.T) {
	n := newNav(t, testTree(), Options{})
	require.NoError(t, n.Handle(KeyLast))

	cmds := n.Render(testW, testH)
	all := textsBetween(cmds, 0, testH)
	assert.Contains(t, all, "SEARCH ROOT")
	assert.Contains(t, all, "2 top-level searches")
	assert.Contains(t, all, "end the session")
}

func TestRenderClipsToScreen(t *testing.T) {
	n := newNav(t, testTree(), Options{Opening: func(string) string {
		return strings.Repeat("very long opening name ", 20)
	}})
	require.NoError(t, n.Handle(KeyDescend))

	for _, w := range []int{40, 80, 200} {
		for _, h := range []int{12, 30} {
			for _, c := range n.Render(w, h) {
				assert.GreaterOrEqual(t, c.Row, 0)
				assert.Less(t, c.Row, h)
				assert.GreaterOrEqual(t, c.Col, 0)
				assert.LessOrEqual(t, c.Col+len([]rune(c.Text)), w)
			}
		}
	}
}

func TestRenderTooSmall(t *testing.T) {
	n := newNav(t, testTree(), Options{})
	cmds := n.Render(10, 5)
	require.Len(t, cmds, 1)
	assert.Equal(t, "terminal t", cmds[0].Text)
}

func TestRenderIsPure(t *testing.T) {
	n := newNav(t, testTree(), Options{})
	require.NoError(t, n.Handle(KeyDescend))
	assert.Equal(t, n.Render(testW, testH), n.Render(testW, testH))
}

type recordingCanvas struct {
	cleared int
	cmds    []DrawCmd
}

func (c *recordingCanvas) Size() (int, int) { return testW, testH }
func (c *recordingCanvas) Clear()           { c.cleared++; c.cmds = nil }

func (c *recordingCanvas) WriteAt(row, col int, text string, reverse bool) {
	c.cmds = append(c.cmds, DrawCmd{Row: row, Col: col, Text: text, Reverse: reverse})
}

func TestPaint(t *testing.T) {
	n := newNav(t, testTree(), Options{})
	c := &recordingCanvas{}

	Paint(c, n)
	assert.Equal(t, 1, c.cleared)
	assert.Equal(t, n.Render(testW, testH), c.cmds)

	require.NoError(t, n.Handle(KeyDescend))
	Paint(c, n)
	assert.Equal(t, 2, c.cleared)
	assert.Equal(t, n.Render(testW, testH), c.cmds)
}
