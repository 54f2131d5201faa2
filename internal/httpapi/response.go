package httpapi

import (
	"github.com/adajed/searchview/internal/graph"
	"github.com/adajed/searchview/internal/navigator"
)

// FrameResponse is the JSON form of a stored frame.
type FrameResponse struct {
	ID            int64          `json:"id"`
	Root          bool           `json:"root,omitempty"`
	Ply           int            `json:"ply"`
	Depth         int            `json:"depth"`
	Alpha         int            `json:"alpha"`
	Beta          int            `json:"beta"`
	Score         *int           `json:"score"`
	StaticEval    *int           `json:"static_eval"`
	Position      string         `json:"position,omitempty"`
	Move          string         `json:"move,omitempty"`
	BestMove      string         `json:"best_move,omitempty"`
	BestMoveSAN   string         `json:"best_move_san,omitempty"`
	Cache         *CacheResponse `json:"cache,omitempty"`
	MoveOrder     []OrderEntry   `json:"move_order,omitempty"`
	PV            []string       `json:"pv,omitempty"`
	PVSAN         []string       `json:"pv_san,omitempty"`
	Razoring      bool           `json:"razoring,omitempty"`
	Futility      bool           `json:"futility,omitempty"`
	NodesSearched int64          `json:"nodes_searched"`
	IsPV          bool           `json:"is_pv,omitempty"`
	Quiescence    bool           `json:"quiescence,omitempty"`
	Opening       string         `json:"opening,omitempty"`
}

type CacheResponse struct {
	Move  string `json:"move"`
	Depth int    `json:"depth"`
	Score int    `json:"score"`
	Flag  string `json:"flag"`
}

type OrderEntry struct {
	Move  string `json:"move"`
	Score string `json:"score"`
}

// ChildResponse is one entry of a frame's child list.
type ChildResponse struct {
	ID            int64  `json:"id"`
	Label         string `json:"label"`
	Move          string `json:"move,omitempty"`
	Depth         int    `json:"depth"`
	NodesSearched int64  `json:"nodes_searched"`

	// Window and scores seen from the parent's side.
	Alpha string `json:"alpha"`
	Beta  string `json:"beta"`
	Score string `json:"score"`
}

type ChildrenResponse struct {
	Parent   int64           `json:"parent"`
	Children []ChildResponse `json:"children"`
}

type RootResponse struct {
	ID       int64 `json:"id"`
	Searches int   `json:"searches"`
}

func (h *Handler) toFrameResponse(f *graph.Frame) *FrameResponse {
	resp := &FrameResponse{
		ID:            f.ID,
		Root:          f.IsRoot(),
		Ply:           f.Ply,
		Depth:         f.Depth,
		Alpha:         f.Alpha,
		Beta:          f.Beta,
		Score:         f.Score,
		StaticEval:    f.StaticEval,
		Position:      f.Position,
		Move:          f.Move,
		BestMove:      f.BestMove,
		PV:            f.PV,
		Razoring:      f.Razoring,
		Futility:      f.Futility,
		NodesSearched: f.NodesSearched,
		IsPV:          f.IsPV,
		Quiescence:    f.Quiescence,
	}
	if f.BestMove != "" {
		resp.BestMoveSAN = h.notation(f.Position, f.BestMove)
	}
	if len(f.PV) > 0 {
		resp.PVSAN = h.line(f.Position, f.PV)
	}
	if c := f.Cache; c != nil {
		resp.Cache = &CacheResponse{Move: c.Move, Depth: c.Depth, Score: c.Score, Flag: c.Flag.String()}
	}
	for _, e := range f.MoveOrder {
		resp.MoveOrder = append(resp.MoveOrder, OrderEntry{Move: e.Move, Score: e.Score})
	}
	if h.opening != nil && f.Position != "" {
		resp.Opening = h.opening(f.Position)
	}
	return resp
}

func (h *Handler) toChildResponse(parent, child *graph.Frame) ChildResponse {
	v := navigator.PanelValues(child, true)
	return ChildResponse{
		ID:            child.ID,
		Label:         navigator.Label(parent, child, h.notation),
		Move:          child.Move,
		Depth:         child.Depth,
		NodesSearched: child.NodesSearched,
		Alpha:         v.Alpha,
		Beta:          v.Beta,
		Score:         v.Score,
	}
}
