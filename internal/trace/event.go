// Package trace turns the engine's diagnostic log into typed events.
package trace

import "github.com/adajed/searchview/internal/graph"

// Kind identifies an event variant.
type Kind int

const (
	KindEnterFrame Kind = iota
	KindExitFrame
	KindDoMove
	KindUndoMove
	KindCacheProbe
	KindMoveOrder
	KindPVList
	KindBestMove
	KindStaticEval
	KindRazoring
	KindFutilityPruning
	KindNodesSearched
)

var kindNames = [...]string{
	KindEnterFrame:      "enter",
	KindExitFrame:       "exit",
	KindDoMove:          "do_move",
	KindUndoMove:        "undo_move",
	KindCacheProbe:      "cache_probe",
	KindMoveOrder:       "move_order",
	KindPVList:          "pv_list",
	KindBestMove:        "best_move",
	KindStaticEval:      "static_eval",
	KindRazoring:        "razoring",
	KindFutilityPruning: "futility_pruning",
	KindNodesSearched:   "nodes_searched",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "unknown"
}

// SearchKind distinguishes full-width from quiescence searches.
type SearchKind int

const (
	SearchFull SearchKind = iota
	SearchQuiescence
)

func (s SearchKind) String() string {
	if s == SearchQuiescence {
		return "QUIESCENCE_SEARCH"
	}
	return "SEARCH"
}

// Event is one recognized trace line. Every event carries the ply it
// occurred at.
type Event interface {
	Kind() Kind
	Ply() int
}

// At is embedded by every event to carry its ply.
type At struct {
	AtPly int
}

func (a At) Ply() int { return a.AtPly }

type EnterFrame struct {
	At
	Search   SearchKind
	Depth    int
	Alpha    int
	Beta     int
	IsPV     bool
	Position string
}

type ExitFrame struct {
	At
	Search SearchKind
	Score  int
}

type DoMove struct {
	At
	Move  string
	Alpha int
	Beta  int
}

type UndoMove struct {
	At
	Move string
}

type CacheProbe struct {
	At
	Probe graph.CacheProbe
}

type MoveOrder struct {
	At
	Order graph.MoveOrder
}

type PVList struct {
	At
	Moves []string
}

type BestMove struct {
	At
	Move string
}

type StaticEval struct {
	At
	Score int
}

type Razoring struct{ At }

type FutilityPruning struct{ At }

type NodesSearched struct {
	At
	Count int64
}

func (EnterFrame) Kind() Kind      { return KindEnterFrame }
func (ExitFrame) Kind() Kind       { return KindExitFrame }
func (DoMove) Kind() Kind          { return KindDoMove }
func (UndoMove) Kind() Kind        { return KindUndoMove }
func (CacheProbe) Kind() Kind      { return KindCacheProbe }
func (MoveOrder) Kind() Kind       { return KindMoveOrder }
func (PVList) Kind() Kind          { return KindPVList }
func (BestMove) Kind() Kind        { return KindBestMove }
func (StaticEval) Kind() Kind      { return KindStaticEval }
func (Razoring) Kind() Kind        { return KindRazoring }
func (FutilityPruning) Kind() Kind { return KindFutilityPruning }
func (NodesSearched) Kind() Kind   { return KindNodesSearched }
