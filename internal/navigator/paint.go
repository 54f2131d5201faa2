package navigator

// Canvas is the drawing side of a terminal. The driver owns key input and
// screen refresh.
type Canvas interface {
	Size() (width, height int)
	Clear()
	WriteAt(row, col int, text string, reverse bool)
}

// Paint clears c and draws the navigator's current screen on it.
func Paint(c Canvas, n *Navigator) {
	w, h := c.Size()
	c.Clear()
	for _, cmd := range n.Render(w, h) {
		c.WriteAt(cmd.Row, cmd.Col, cmd.Text, cmd.Reverse)
	}
}
