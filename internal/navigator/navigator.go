// Package navigator is the interactive, depth-first browser over a stored
// search tree. It holds all state and produces draw commands; a terminal
// driver only paints them and reports keys.
package navigator

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/adajed/searchview/internal/graph"
	"github.com/adajed/searchview/internal/store"
)

// Key is a navigator action decoded from a keypress.
type Key int

const (
	KeyNone Key = iota
	KeyUp
	KeyDown
	KeyFirst
	KeyLast
	KeyDescend
	KeyAscend
	KeyQuit
)

// ExitLabel is the entry appended to every child list.
const ExitLabel = "Exit"

// Options supplies display collaborators. Nil functions fall back to raw
// move tokens and no opening names.
type Options struct {
	Notation func(position, move string) string
	Line     func(position string, moves []string) []string
	Opening  func(position string) string
}

// Item is one entry of the child list. The Exit entry has a nil Frame.
type Item struct {
	ID    int64
	Frame *graph.Frame
	Label string
}

// IsExit reports whether the item is the trailing Exit entry.
func (it Item) IsExit() bool {
	return it.Frame == nil
}

type crumb struct {
	frame    *graph.Frame
	items    []Item
	selected int
	step     string
}

// Navigator walks a stored tree one node at a time.
type Navigator struct {
	ctx  context.Context
	r    store.ReadStore
	opts Options

	current  *graph.Frame
	items    []Item
	selected int
	crumbs   []crumb
	path     []string
	done     bool
}

// New opens the navigator at the root of the stored tree.
func New(ctx context.Context, r store.ReadStore, opts Options) (*Navigator, error) {
	if opts.Notation == nil {
		opts.Notation = func(_, move string) string { return move }
	}
	if opts.Line == nil {
		opts.Line = func(_ string, moves []string) []string { return moves }
	}
	if opts.Opening == nil {
		opts.Opening = func(string) string { return "" }
	}

	rootID, err := r.GetRootID(ctx)
	if err != nil {
		return nil, fmt.Errorf("find root: %w", err)
	}
	n := &Navigator{ctx: ctx, r: r, opts: opts}
	if err := n.load(rootID); err != nil {
		return nil, err
	}
	return n, nil
}

// load makes id the current frame and builds its child list.
func (n *Navigator) load(id int64) error {
	f, err := n.r.GetFrame(n.ctx, id)
	if err != nil {
		return fmt.Errorf("load frame %d: %w", id, err)
	}
	childIDs, err := n.r.GetChildren(n.ctx, id)
	if err != nil {
		return fmt.Errorf("load children of %d: %w", id, err)
	}

	items := make([]Item, 0, len(childIDs)+1)
	for _, cid := range childIDs {
		child, err := n.r.GetFrame(n.ctx, cid)
		if err != nil {
			return fmt.Errorf("load child %d: %w", cid, err)
		}
		items = append(items, Item{ID: cid, Frame: child, Label: n.label(f, child)})
	}
	items = append(items, Item{Label: ExitLabel})

	n.current = f
	n.items = items
	n.selected = 0
	return nil
}

func (n *Navigator) label(parent, child *graph.Frame) string {
	return Label(parent, child, n.opts.Notation)
}

// Label names a child frame within its parent's list. notation converts the
// child's move token for display; nil shows the raw token.
func Label(parent, child *graph.Frame, notation func(position, move string) string) string {
	switch {
	case parent.IsRoot():
		return fmt.Sprintf("Search depth=%d", child.Depth)
	case graph.IsNullMove(child.Move):
		return fmt.Sprintf("nullmove time=%s%%", timeShare(parent, child))
	case parent.Depth == 0:
		return "quiescence"
	}

	display := child.Move
	if notation != nil {
		display = notation(parent.Position, child.Move)
	}
	label := fmt.Sprintf("%s(%s)", display, child.Move)
	if s, ok := parent.MoveOrder.ScoreOf(child.Move); ok {
		label += " S=" + s
	}
	return label + fmt.Sprintf(" time=%s%%", timeShare(parent, child))
}

// timeShare is the child's share of the parent's searched nodes.
func timeShare(parent, child *graph.Frame) string {
	if parent.NodesSearched == 0 {
		return "0.0"
	}
	return fmt.Sprintf("%.1f", 100*float64(child.NodesSearched)/float64(parent.NodesSearched))
}

// Handle applies one key. A store failure while descending leaves the
// state unchanged and is returned.
func (n *Navigator) Handle(k Key) error {
	if n.done {
		return nil
	}
	switch k {
	case KeyUp:
		n.move(-1)
	case KeyDown:
		n.move(1)
	case KeyFirst:
		n.selected = 0
	case KeyLast:
		n.selected = len(n.items) - 1
	case KeyDescend:
		return n.descend()
	case KeyAscend:
		n.ascend()
	case KeyQuit:
		n.done = true
	}
	return nil
}

func (n *Navigator) move(delta int) {
	n.selected = lo.Clamp(n.selected+delta, 0, len(n.items)-1)
}

func (n *Navigator) descend() error {
	it := n.items[n.selected]
	if it.IsExit() {
		n.ascend()
		return nil
	}

	saved := crumb{frame: n.current, items: n.items, selected: n.selected, step: n.step(it)}
	if err := n.load(it.ID); err != nil {
		n.current, n.items, n.selected = saved.frame, saved.items, saved.selected
		return err
	}
	n.crumbs = append(n.crumbs, saved)
	n.path = append(n.path, saved.step)
	return nil
}

// ascend pops one level, or ends the session at the root.
func (n *Navigator) ascend() {
	if len(n.crumbs) == 0 {
		n.done = true
		return
	}
	last := n.crumbs[len(n.crumbs)-1]
	n.crumbs = n.crumbs[:len(n.crumbs)-1]
	n.path = n.path[:len(n.path)-1]
	n.current, n.items, n.selected = last.frame, last.items, last.selected
}

// step is the breadcrumb text for descending into it.
func (n *Navigator) step(it Item) string {
	if n.current.IsRoot() {
		return fmt.Sprintf("[d=%d]", it.Frame.Depth)
	}
	if it.Frame.Move == "" {
		return "-"
	}
	return n.opts.Notation(n.current.Position, it.Frame.Move)
}

// Done reports whether the session has ended.
func (n *Navigator) Done() bool { return n.done }

// Current returns the open frame.
func (n *Navigator) Current() *graph.Frame { return n.current }

// Items returns the child list including the trailing Exit entry.
func (n *Navigator) Items() []Item { return n.items }

// Selected returns the highlighted index.
func (n *Navigator) Selected() int { return n.selected }

// Depth returns the number of levels below the root.
func (n *Navigator) Depth() int { return len(n.crumbs) }

// Path returns the moves leading from the root to the open frame.
func (n *Navigator) Path() []string { return n.path }
