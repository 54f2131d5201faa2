// Package ingest rebuilds the nested search tree from a flat event stream
// and writes it to a store.
package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/adajed/searchview/internal/graph"
	"github.com/adajed/searchview/internal/store"
	"github.com/adajed/searchview/internal/trace"
)

// DefaultMaxPly is the cutoff used by the config layer when none is given.
const DefaultMaxPly = 40

// EventSource yields trace events in order. *trace.Reader satisfies it.
type EventSource interface {
	Next() (trace.Event, bool)
	Line() int
	Err() error
}

// Config configures an Ingester.
type Config struct {
	MaxPly        int            // frames deeper than this are discarded; 0 keeps only ply 0
	ProgressEvery time.Duration  // progress log interval (default 10s)
	Logger        zerolog.Logger // Logger
}

// Result summarizes a completed ingest.
type Result struct {
	RootID   int64
	Children []int64 // top-level frames in trace order
	Frames   int     // frames persisted, root excluded
	Skipped  int     // frames discarded beyond MaxPly
	Dropped  int     // frames never closed before end of input
	Stray    int     // move and annotation lines at a ply other than the open frame's
	Lines    int
	Elapsed  time.Duration
}

// strayMove is a DO MOVE seen at a ply other than the open frame's. The
// engine's quiescence recursion reports such lines; their UNDO must pair up.
type strayMove struct {
	ply  int
	move string
}

// frameCtx is a frame under construction and the ids of its finished children.
type frameCtx struct {
	frame    *graph.Frame
	children []int64
}

// Ingester is a single-use-at-a-time stack machine over trace events.
// stack[0] is the root context; the top of the stack is the open frame.
type Ingester struct {
	cfg Config
	w   store.Writer
	log zerolog.Logger

	stack     []*frameCtx
	moves     []string
	stray     []strayMove
	skipDepth int
	line      int
	res       Result
}

// New creates an Ingester writing to w.
func New(cfg Config, w store.Writer) *Ingester {
	if cfg.ProgressEvery == 0 {
		cfg.ProgressEvery = 10 * time.Second
	}
	return &Ingester{cfg: cfg, w: w, log: cfg.Logger}
}

func (in *Ingester) reset() {
	in.stack = []*frameCtx{{frame: graph.NewRoot()}}
	in.moves = in.moves[:0]
	in.stray = in.stray[:0]
	in.skipDepth = 0
	in.line = 0
	in.res = Result{}
}

// Run consumes src until it is exhausted, then writes the root frame and its
// edges. On a malformed trace it stops with a *MalformedTraceError; frames
// closed before that point stay persisted but no root is written.
func (in *Ingester) Run(ctx context.Context, src EventSource) (*Result, error) {
	in.reset()
	start := time.Now()
	lastLog := start
	events := 0

	for {
		if err := ctx.Err(); err != nil {
			in.flush()
			return in.result(start), err
		}
		ev, ok := src.Next()
		if !ok {
			break
		}
		in.line = src.Line()
		if err := in.handle(ctx, ev); err != nil {
			in.flush()
			return in.result(start), err
		}

		events++
		if events%4096 == 0 && time.Since(lastLog) >= in.cfg.ProgressEvery {
			in.log.Info().
				Int("line", in.line).
				Int("frames", in.res.Frames).
				Int("skipped", in.res.Skipped).
				Int("open", len(in.stack)-1).
				Msg("progress")
			lastLog = time.Now()
		}
	}
	if err := src.Err(); err != nil {
		in.flush()
		return in.result(start), err
	}
	if err := in.finish(ctx); err != nil {
		return in.result(start), err
	}
	return in.result(start), nil
}

func (in *Ingester) result(start time.Time) *Result {
	res := in.res
	res.Lines = in.line
	res.Elapsed = time.Since(start)
	return &res
}

func (in *Ingester) flush() {
	if f, ok := in.w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			in.log.Error().Err(err).Msg("flush after failed ingest")
		}
	}
}

func (in *Ingester) top() *frameCtx {
	return in.stack[len(in.stack)-1]
}

func (in *Ingester) hasOpenFrame() bool {
	return len(in.stack) > 1
}

func (in *Ingester) handle(ctx context.Context, ev trace.Event) error {
	if in.skipDepth > 0 {
		switch ev.Kind() {
		case trace.KindEnterFrame:
			in.skipDepth++
			in.res.Skipped++
		case trace.KindExitFrame:
			in.skipDepth--
		}
		return nil
	}

	switch e := ev.(type) {
	case trace.EnterFrame:
		return in.enter(e)
	case trace.ExitFrame:
		return in.exit(ctx, e)
	case trace.DoMove:
		if !in.hasOpenFrame() {
			return in.malformed("DO MOVE at ply %d with no open frame", e.Ply())
		}
		if in.isStray(ev) {
			in.stray = append(in.stray, strayMove{ply: e.Ply(), move: e.Move})
			return nil
		}
		in.moves = append(in.moves, e.Move)
		return nil
	case trace.UndoMove:
		return in.undo(e)
	}
	return in.annotate(ev)
}

func (in *Ingester) enter(e trace.EnterFrame) error {
	if e.Ply() > in.cfg.MaxPly {
		in.skipDepth = 1
		in.res.Skipped++
		return nil
	}
	in.stack = append(in.stack, &frameCtx{frame: &graph.Frame{
		Ply:        e.Ply(),
		Depth:      e.Depth,
		Alpha:      e.Alpha,
		Beta:       e.Beta,
		Position:   e.Position,
		IsPV:       e.IsPV,
		Quiescence: e.Search == trace.SearchQuiescence,
	}})
	return nil
}

func (in *Ingester) exit(ctx context.Context, e trace.ExitFrame) error {
	if err := in.requireFrameAt(e.Ply(), "EXIT"); err != nil {
		return err
	}
	fc := in.top()
	f := fc.frame
	score := e.Score
	f.Score = &score
	if n := len(in.moves); n > 0 {
		f.Move = in.moves[n-1]
	}

	id, err := in.w.InsertFrame(ctx, f)
	if err != nil {
		return fmt.Errorf("store frame at line %d: %w", in.line, err)
	}
	if err := in.w.InsertEdges(ctx, id, fc.children); err != nil {
		return fmt.Errorf("store edges of frame %d: %w", id, err)
	}
	in.res.Frames++

	in.stack = in.stack[:len(in.stack)-1]
	parent := in.top()
	parent.children = append(parent.children, id)
	return nil
}

func (in *Ingester) undo(e trace.UndoMove) error {
	if !in.hasOpenFrame() {
		return in.malformed("UNDO MOVE at ply %d with no open frame", e.Ply())
	}
	if open := in.top().frame.Ply; e.Ply() != open {
		n := len(in.stray)
		if n == 0 || in.stray[n-1].ply != e.Ply() || in.stray[n-1].move != e.Move {
			return in.malformed("UNDO MOVE %s at ply %d inside frame at ply %d", e.Move, e.Ply(), open)
		}
		in.stray = in.stray[:n-1]
		in.res.Stray++
		return nil
	}
	n := len(in.moves)
	if n == 0 {
		return in.malformed("UNDO MOVE %s with no move made", e.Move)
	}
	if in.moves[n-1] != e.Move {
		return in.malformed("UNDO MOVE %s does not match last move %s", e.Move, in.moves[n-1])
	}
	in.moves = in.moves[:n-1]
	return nil
}

// annotate applies an event that only decorates the open frame. Outside any
// frame, or at another ply, it is ignored.
func (in *Ingester) annotate(ev trace.Event) error {
	if !in.hasOpenFrame() || in.isStray(ev) {
		return nil
	}
	f := in.top().frame

	switch e := ev.(type) {
	case trace.CacheProbe:
		probe := e.Probe
		f.Cache = &probe
	case trace.MoveOrder:
		f.MoveOrder = e.Order
	case trace.PVList:
		f.PV = e.Moves
	case trace.BestMove:
		f.BestMove = e.Move
	case trace.StaticEval:
		score := e.Score
		f.StaticEval = &score
	case trace.Razoring:
		f.Razoring = true
	case trace.FutilityPruning:
		f.Futility = true
	case trace.NodesSearched:
		f.NodesSearched = e.Count
	}
	return nil
}

// isStray reports whether ev belongs to a ply other than the open frame's,
// counting it when so.
func (in *Ingester) isStray(ev trace.Event) bool {
	open := in.top().frame.Ply
	if ev.Ply() == open {
		return false
	}
	in.res.Stray++
	in.log.Debug().
		Int("line", in.line).
		Int("ply", ev.Ply()).
		Int("open_ply", open).
		Stringer("kind", ev.Kind()).
		Msg("ignoring line at another ply")
	return true
}

func (in *Ingester) requireFrameAt(ply int, what string) error {
	if !in.hasOpenFrame() {
		return in.malformed("%s at ply %d with no open frame", what, ply)
	}
	if open := in.top().frame.Ply; open != ply {
		return in.malformed("%s at ply %d inside frame at ply %d", what, ply, open)
	}
	return nil
}

// finish drops unterminated frames and writes the root.
func (in *Ingester) finish(ctx context.Context) error {
	if open := len(in.stack) - 1; open > 0 {
		in.res.Dropped = open
		in.log.Warn().
			Int("frames", open).
			Int("deepest_ply", in.top().frame.Ply).
			Msg("trace ended inside open frames, dropping them")
		in.stack = in.stack[:1]
	}
	if in.skipDepth > 0 {
		in.log.Warn().Msg("trace ended inside a discarded subtree")
	}

	root := in.stack[0]
	id, err := in.w.InsertFrame(ctx, root.frame)
	if err != nil {
		return fmt.Errorf("store root frame: %w", err)
	}
	if err := in.w.InsertEdges(ctx, id, root.children); err != nil {
		return fmt.Errorf("store root edges: %w", err)
	}
	in.res.RootID = id
	in.res.Children = root.children

	if f, ok := in.w.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return fmt.Errorf("flush store: %w", err)
		}
	}
	return nil
}
