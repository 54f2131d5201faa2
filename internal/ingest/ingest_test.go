package ingest

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adajed/searchview/internal/graph"
	"github.com/adajed/searchview/internal/store"
	"github.com/adajed/searchview/internal/trace"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "search.db"), store.Options{BatchSize: 8})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func run(t *testing.T, s store.Writer, maxPly int, lines ...string) (*Result, error) {
	t.Helper()
	in := New(Config{MaxPly: maxPly, Logger: zerolog.Nop()}, s)
	src := trace.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	return in.Run(context.Background(), src)
}

func enter(ply, depth int) string {
	return fmt.Sprintf("[%d] ENTER SEARCH depth=%d alpha=-1000 beta=1000 pvNode=0 fen=pos%d", ply, depth, ply)
}

func exit(ply, score int) string {
	return fmt.Sprintf("[%d] EXIT SEARCH score=%d", ply, score)
}

func TestEndToEnd(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	res, err := run(t, s, DefaultMaxPly,
		"[0] ENTER SEARCH depth=2 alpha=-1000 beta=1000 pvNode=1 fen=startpos",
		"[0] DO MOVE e2e4 alpha=-1000 beta=1000",
		"[1] ENTER SEARCH depth=1 alpha=-1000 beta=1000 pvNode=1 fen=X",
		"[1] EXIT SEARCH score=-10",
		"[0] UNDO MOVE e2e4",
		"[0] EXIT SEARCH score=10",
	)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Frames)
	assert.Equal(t, 6, res.Lines)

	rootID, err := s.GetRootID(ctx)
	require.NoError(t, err)
	assert.Equal(t, res.RootID, rootID)

	root, err := s.GetFrame(ctx, rootID)
	require.NoError(t, err)
	assert.Equal(t, graph.RootDepth, root.Depth)
	assert.Equal(t, graph.RootPly, root.Ply)
	assert.Empty(t, root.Move)

	rootKids, err := s.GetChildren(ctx, rootID)
	require.NoError(t, err)
	require.Len(t, rootKids, 1)
	assert.Equal(t, res.Children, rootKids)

	a, err := s.GetFrame(ctx, rootKids[0])
	require.NoError(t, err)
	assert.Equal(t, 2, a.Depth)
	assert.Equal(t, 10, *a.Score)
	assert.Empty(t, a.Move)
	assert.True(t, a.IsPV)
	assert.Equal(t, "startpos", a.Position)

	aKids, err := s.GetChildren(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, aKids, 1)

	b, err := s.GetFrame(ctx, aKids[0])
	require.NoError(t, err)
	assert.Equal(t, 1, b.Depth)
	assert.Equal(t, -10, *b.Score)
	assert.Equal(t, "e2e4", b.Move)
	assert.Equal(t, "X", b.Position)
}

func TestAnnotationsAttachToOpenFrame(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	res, err := run(t, s, DefaultMaxPly,
		"[0] ENTER QUIESCENCE_SEARCH depth=0 alpha=-5 beta=5 pvNode=0 fen=q",
		"[0] CACHE HIT score=3 depth=2 flag=1 move=d2d4",
		"[0] MOVE ORDER (d2d4,tt) (e2e4,capture+2)",
		"[0] PV LIST d2d4 d7d5",
		"[0] POSITION score=-7",
		"[0] BEST MOVE d2d4",
		"[0] RAZORING",
		"[0] FUTILITY PRUNING",
		"[0] NODES SEARCHED 77",
		"[0] EXIT QUIESCENCE_SEARCH score=3",
	)
	require.NoError(t, err)
	require.Len(t, res.Children, 1)

	f, err := s.GetFrame(ctx, res.Children[0])
	require.NoError(t, err)
	assert.True(t, f.Quiescence)
	assert.Equal(t, &graph.CacheProbe{Score: 3, Depth: 2, Flag: graph.FlagLower, Move: "d2d4"}, f.Cache)
	assert.Equal(t, graph.MoveOrder{{Move: "d2d4", Score: "tt"}, {Move: "e2e4", Score: "capture+2"}}, f.MoveOrder)
	assert.Equal(t, []string{"d2d4", "d7d5"}, f.PV)
	assert.Equal(t, -7, *f.StaticEval)
	assert.Equal(t, "d2d4", f.BestMove)
	assert.True(t, f.Razoring)
	assert.True(t, f.Futility)
	assert.EqualValues(t, 77, f.NodesSearched)
}

func TestAnnotationOutsideFrameIsIgnored(t *testing.T) {
	s := openStore(t)
	res, err := run(t, s, DefaultMaxPly,
		"[0] NODES SEARCHED 12",
		"[0] BEST MOVE e2e4",
		enter(0, 1),
		exit(0, 0),
		"[0] PV LIST e2e4",
	)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Frames)
}

func TestChildOrderFollowsTrace(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	res, err := run(t, s, DefaultMaxPly,
		enter(0, 2),
		"[0] DO MOVE g1f3 alpha=-1 beta=1", enter(1, 1), exit(1, 1), "[0] UNDO MOVE g1f3",
		"[0] DO MOVE e2e4 alpha=-1 beta=1", enter(1, 1), exit(1, 2), "[0] UNDO MOVE e2e4",
		"[0] DO MOVE d2d4 alpha=-1 beta=1", enter(1, 1), exit(1, 3), "[0] UNDO MOVE d2d4",
		exit(0, 0),
		enter(0, 3),
		exit(0, 5),
	)
	require.NoError(t, err)
	require.Len(t, res.Children, 2)

	kids, err := s.GetChildren(ctx, res.Children[0])
	require.NoError(t, err)
	require.Len(t, kids, 3)

	var moves []string
	for _, id := range kids {
		f, err := s.GetFrame(ctx, id)
		require.NoError(t, err)
		moves = append(moves, f.Move)
	}
	assert.Equal(t, []string{"g1f3", "e2e4", "d2d4"}, moves)

	second, err := s.GetFrame(ctx, res.Children[1])
	require.NoError(t, err)
	assert.Equal(t, 3, second.Depth)
}

func TestMaxPlyTruncation(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	res, err := run(t, s, 2,
		enter(0, 4),
		"[0] DO MOVE e2e4 alpha=-1 beta=1",
		enter(1, 3),
		"[1] DO MOVE e7e5 alpha=-1 beta=1",
		enter(2, 2),
		"[2] DO MOVE g1f3 alpha=-1 beta=1",
		enter(3, 1),
		"[3] DO MOVE b8c6 alpha=-1 beta=1",
		enter(4, 0),
		"[4] NODES SEARCHED 1",
		exit(4, 0),
		"[3] UNDO MOVE b8c6",
		exit(3, 1),
		"[2] UNDO MOVE g1f3",
		exit(2, 2),
		"[1] UNDO MOVE e7e5",
		exit(1, 3),
		"[0] UNDO MOVE e2e4",
		exit(0, 4),
	)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Frames)
	assert.Equal(t, 2, res.Skipped)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, st.Frames)
	assert.EqualValues(t, 2, st.MaxPly)

	// Walk down to ply 2 and make sure it is a leaf.
	id := res.Children[0]
	for ply := 0; ply < 2; ply++ {
		kids, err := s.GetChildren(ctx, id)
		require.NoError(t, err)
		require.Len(t, kids, 1)
		id = kids[0]
	}
	leaf, err := s.GetFrame(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 2, leaf.Ply)
	// g1f3 was made and unmade inside the ply 2 frame, so e7e5 is on top
	// of the move stack when it closes.
	assert.Equal(t, "e7e5", leaf.Move)
	kids, err := s.GetChildren(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, kids)
}

func TestMaxPlyZeroKeepsOnlyTopLevel(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	res, err := run(t, s, 0,
		enter(0, 2),
		"[0] DO MOVE e2e4 alpha=-1 beta=1",
		enter(1, 1),
		exit(1, 0),
		"[0] UNDO MOVE e2e4",
		exit(0, 0),
	)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Frames)
	assert.Equal(t, 1, res.Skipped)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, st.Frames)
	assert.EqualValues(t, 0, st.MaxPly)
}

func TestQuiescenceAtSamePly(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	res, err := run(t, s, DefaultMaxPly,
		enter(0, 1),
		"[0] DO MOVE e2e4 alpha=-1000 beta=1000",
		"[1] ENTER SEARCH depth=0 alpha=-1000 beta=1000 pvNode=0 fen=after-e4",
		"[1] ENTER QUIESCENCE_SEARCH depth=7 alpha=-1000 beta=1000 pvNode=0 fen=after-e4",
		"[1] POSITION score=-20",
		"[1] DO MOVE d7d5 alpha=-1000 beta=1000",
		"[2] ENTER QUIESCENCE_SEARCH depth=6 alpha=-1000 beta=1000 pvNode=0 fen=after-d5",
		"[1] MOVE ORDER (e4d5,capture)",
		"[1] DO MOVE e4d5 alpha=-1000 beta=1000",
		"[1] UNDO MOVE e4d5",
		"[2] EXIT QUIESCENCE_SEARCH score=15",
		"[1] UNDO MOVE d7d5",
		"[1] EXIT QUIESCENCE_SEARCH score=-15",
		"[1] EXIT SEARCH score=-15",
		"[0] UNDO MOVE e2e4",
		exit(0, 15),
	)
	require.NoError(t, err)
	assert.Equal(t, 4, res.Frames)
	assert.Equal(t, 3, res.Stray)

	top, err := s.GetChildren(ctx, res.Children[0])
	require.NoError(t, err)
	require.Len(t, top, 1)
	full, err := s.GetFrame(ctx, top[0])
	require.NoError(t, err)
	assert.False(t, full.Quiescence)
	assert.Equal(t, 0, full.Depth)
	assert.Equal(t, "e2e4", full.Move)

	kids, err := s.GetChildren(ctx, full.ID)
	require.NoError(t, err)
	require.Len(t, kids, 1)
	q, err := s.GetFrame(ctx, kids[0])
	require.NoError(t, err)
	assert.True(t, q.Quiescence)
	assert.Equal(t, 1, q.Ply)
	assert.Equal(t, -20, *q.StaticEval)
	assert.Equal(t, "e2e4", q.Move)

	deeper, err := s.GetChildren(ctx, q.ID)
	require.NoError(t, err)
	require.Len(t, deeper, 1)
	d, err := s.GetFrame(ctx, deeper[0])
	require.NoError(t, err)
	assert.Equal(t, 2, d.Ply)
	assert.Equal(t, "d7d5", d.Move)
	// The MOVE ORDER reported at ply 1 inside the ply 2 frame is dropped.
	assert.Empty(t, d.MoveOrder)
}

func TestLinesAtAnotherPlyAreIgnored(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	res, err := run(t, s, DefaultMaxPly,
		enter(0, 1),
		"[1] BEST MOVE e2e4",
		"[3] DO MOVE e2e4 alpha=0 beta=1",
		"[3] UNDO MOVE e2e4",
		"[0] BEST MOVE d2d4",
		exit(0, 1),
	)
	require.NoError(t, err)
	assert.Equal(t, 3, res.Stray)

	f, err := s.GetFrame(ctx, res.Children[0])
	require.NoError(t, err)
	assert.Equal(t, "d2d4", f.BestMove)
	assert.Empty(t, f.Move)
}

func TestMatchedPairsEqualPersistedFrames(t *testing.T) {
	s := openStore(t)

	var lines []string
	pairs := 0
	var build func(ply, fanout int)
	build = func(ply, fanout int) {
		lines = append(lines, enter(ply, 3-ply))
		pairs++
		if ply < 3 {
			for i := 0; i < fanout; i++ {
				mv := fmt.Sprintf("a%db%d", i+1, i+1)
				lines = append(lines, fmt.Sprintf("[%d] DO MOVE %s alpha=0 beta=1", ply, mv))
				build(ply+1, fanout)
				lines = append(lines, fmt.Sprintf("[%d] UNDO MOVE %s", ply, mv))
			}
		}
		lines = append(lines, exit(ply, ply))
	}
	build(0, 3)

	res, err := run(t, s, DefaultMaxPly, lines...)
	require.NoError(t, err)
	assert.Equal(t, pairs, res.Frames)
	assert.Equal(t, 0, res.Skipped)
	assert.Equal(t, 0, res.Dropped)
}

func TestUnterminatedFramesAreDropped(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	res, err := run(t, s, DefaultMaxPly,
		enter(0, 1),
		exit(0, 1),
		enter(0, 2),
		"[0] DO MOVE e2e4 alpha=0 beta=1",
		enter(1, 1),
	)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Dropped)
	assert.Equal(t, 1, res.Frames)

	kids, err := s.GetChildren(ctx, res.RootID)
	require.NoError(t, err)
	assert.Len(t, kids, 1)
}

func TestMalformedTraces(t *testing.T) {
	tests := []struct {
		name  string
		lines []string
		line  int
	}{
		{
			name:  "undo mismatch",
			lines: []string{enter(0, 1), "[0] DO MOVE e2e4 alpha=0 beta=1", "[0] UNDO MOVE d2d4"},
			line:  3,
		},
		{
			name:  "undo on empty stack",
			lines: []string{enter(0, 1), "[0] UNDO MOVE e2e4"},
			line:  2,
		},
		{
			name:  "exit without enter",
			lines: []string{exit(0, 1)},
			line:  1,
		},
		{
			name:  "exit at wrong ply",
			lines: []string{enter(0, 1), exit(1, 1)},
			line:  2,
		},
		{
			name:  "undo at another ply without a matching move",
			lines: []string{enter(0, 1), "[0] DO MOVE e2e4 alpha=0 beta=1", "[2] UNDO MOVE e2e4"},
			line:  3,
		},
		{
			name:  "do move without frame",
			lines: []string{"[0] DO MOVE e2e4 alpha=0 beta=1"},
			line:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := openStore(t)
			_, err := run(t, s, DefaultMaxPly, tt.lines...)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformedTrace)

			var mte *MalformedTraceError
			require.True(t, errors.As(err, &mte))
			assert.Equal(t, tt.line, mte.Line)

			_, err = s.GetRootID(context.Background())
			assert.ErrorIs(t, err, store.ErrNotFound)
		})
	}
}

func TestUndoMismatchDeepInTrace(t *testing.T) {
	lines := []string{enter(0, 5)}
	for i := 0; i < 500; i++ {
		lines = append(lines,
			"[0] DO MOVE e2e4 alpha=0 beta=1",
			enter(1, 0), exit(1, 0),
			"[0] UNDO MOVE e2e4",
		)
	}
	lines = append(lines, "[0] DO MOVE e2e4 alpha=0 beta=1", "[0] UNDO MOVE e7e5")

	s := openStore(t)
	res, err := run(t, s, DefaultMaxPly, lines...)
	assert.ErrorIs(t, err, ErrMalformedTrace)
	assert.Equal(t, 500, res.Frames)
}

func TestClosedFramesSurviveMalformedTrace(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)

	res, err := run(t, s, DefaultMaxPly, enter(0, 1), exit(0, 7), exit(0, 1))
	require.ErrorIs(t, err, ErrMalformedTrace)
	assert.Equal(t, 1, res.Frames)

	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, st.Frames)
}

type failingWriter struct{ err error }

func (f failingWriter) InsertFrame(context.Context, *graph.Frame) (int64, error) { return 0, f.err }
func (f failingWriter) InsertEdges(context.Context, int64, []int64) error        { return f.err }

func TestStoreErrorsPropagate(t *testing.T) {
	boom := errors.New("disk full")
	_, err := run(t, failingWriter{err: boom}, DefaultMaxPly, enter(0, 1), exit(0, 1))
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrMalformedTrace)
}

func TestCanceledContext(t *testing.T) {
	s := openStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	in := New(Config{Logger: zerolog.Nop()}, s)
	_, err := in.Run(ctx, trace.NewReader(strings.NewReader(enter(0, 1)+"\n")))
	assert.ErrorIs(t, err, context.Canceled)
}

// cancelAfter cancels its context once n events have been read.
type cancelAfter struct {
	*trace.Reader
	n      int
	cancel context.CancelFunc
}

func (c *cancelAfter) Next() (trace.Event, bool) {
	ev, ok := c.Reader.Next()
	if c.n--; c.n == 0 {
		c.cancel()
	}
	return ev, ok
}

func TestInterruptKeepsClosedFrames(t *testing.T) {
	s := openStore(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	lines := strings.Join([]string{enter(0, 1), exit(0, 1), enter(0, 2), exit(0, 2)}, "\n") + "\n"
	src := &cancelAfter{Reader: trace.NewReader(strings.NewReader(lines)), n: 3, cancel: cancel}

	in := New(Config{MaxPly: DefaultMaxPly, Logger: zerolog.Nop()}, s)
	res, err := in.Run(ctx, src)
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, res.Frames)

	st, err := s.Stats(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 1, st.Frames)
	_, err = s.GetRootID(context.Background())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDefaults(t *testing.T) {
	in := New(Config{}, nil)
	assert.Zero(t, in.cfg.MaxPly)
	assert.NotZero(t, in.cfg.ProgressEvery)
}
