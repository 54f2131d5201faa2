// Package graph holds the records reconstructed from a search trace: frames
// (one per search invocation) and the ordered edges between them.
package graph

import (
	"fmt"
	"strconv"
	"strings"
)

// The sentinel root frame owns every top-level search of a trace.
const (
	RootPly   = -1
	RootDepth = -1
)

// CacheFlag classifies a transposition table entry's bound.
type CacheFlag int

const (
	FlagExact CacheFlag = 0
	FlagLower CacheFlag = 1
	FlagUpper CacheFlag = 2
)

// ParseCacheFlag converts the numeric flag printed by the engine.
func ParseCacheFlag(n int) (CacheFlag, error) {
	switch CacheFlag(n) {
	case FlagExact, FlagLower, FlagUpper:
		return CacheFlag(n), nil
	}
	return 0, fmt.Errorf("invalid cache flag %d", n)
}

func (f CacheFlag) String() string {
	switch f {
	case FlagExact:
		return "EXACT"
	case FlagLower:
		return "LOWER BOUND"
	case FlagUpper:
		return "UPPER BOUND"
	default:
		return "UNKNOWN"
	}
}

// CacheProbe is a transposition table hit recorded inside a frame.
type CacheProbe struct {
	Score int
	Depth int
	Flag  CacheFlag
	Move  string
}

// Frame is one search invocation. Optional values use pointers or nil
// slices; the empty string means an unset move.
type Frame struct {
	ID       int64
	Ply      int
	Depth    int
	Alpha    int
	Beta     int
	Score    *int
	Position string

	Move       string // move that led into this frame
	BestMove   string
	StaticEval *int
	Cache      *CacheProbe
	MoveOrder  MoveOrder
	PV         []string

	Razoring      bool
	Futility      bool
	NodesSearched int64
	IsPV          bool
	Quiescence    bool
}

// NewRoot returns the sentinel root frame.
func NewRoot() *Frame {
	return &Frame{Ply: RootPly, Depth: RootDepth}
}

// IsRoot reports whether f is the sentinel root.
func (f *Frame) IsRoot() bool {
	return f.Depth == RootDepth
}

// MoveOrderEntry is one (move, order score) pair. The score is kept as the
// engine printed it: numeric ("120") or symbolic ("pv", "capture+3").
type MoveOrderEntry struct {
	Move  string
	Score string
}

// MoveOrder is the engine's ordering of the moves it is about to search.
type MoveOrder []MoveOrderEntry

// ScoreOf returns the order score for move.
func (mo MoveOrder) ScoreOf(move string) (string, bool) {
	for _, e := range mo {
		if e.Move == move {
			return e.Score, true
		}
	}
	return "", false
}

// Encode serializes the move order as "(move,score);(move,score)".
func (mo MoveOrder) Encode() string {
	var sb strings.Builder
	for i, e := range mo {
		if i > 0 {
			sb.WriteByte(';')
		}
		sb.WriteByte('(')
		sb.WriteString(e.Move)
		sb.WriteByte(',')
		sb.WriteString(e.Score)
		sb.WriteByte(')')
	}
	return sb.String()
}

// ParseMoveOrder parses pairs separated by ';' or whitespace. An empty input
// yields an empty, non-nil order.
func ParseMoveOrder(s string) (MoveOrder, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == ' ' || r == '\t'
	})
	mo := make(MoveOrder, 0, len(fields))
	for _, f := range fields {
		if len(f) < 2 || f[0] != '(' || f[len(f)-1] != ')' {
			return nil, fmt.Errorf("bad move order pair %q", f)
		}
		move, score, ok := strings.Cut(f[1:len(f)-1], ",")
		if !ok || move == "" {
			return nil, fmt.Errorf("bad move order pair %q", f)
		}
		mo = append(mo, MoveOrderEntry{Move: move, Score: score})
	}
	return mo, nil
}

// EncodePV joins a principal variation with single spaces.
func EncodePV(pv []string) string {
	return strings.Join(pv, " ")
}

// DecodePV splits a stored principal variation. An empty input yields an
// empty, non-nil slice.
func DecodePV(s string) []string {
	f := strings.Fields(s)
	if f == nil {
		return []string{}
	}
	return f
}

// FormatScore renders an optional score, "-" when unset.
func FormatScore(v *int) string {
	if v == nil {
		return "-"
	}
	return strconv.Itoa(*v)
}
