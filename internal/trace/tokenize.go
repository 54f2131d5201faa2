package trace

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/adajed/searchview/internal/graph"
)

const (
	plyPrefix = `^\[(\d+)\] `
	intRE     = `(-?\d+)`
	tokenRE   = `(\w+)`
)

var (
	enterRE = regexp.MustCompile(plyPrefix + `ENTER (QUIESCENCE_SEARCH|SEARCH) depth=` + intRE +
		` alpha=` + intRE + ` beta=` + intRE + ` pvNode=([01]) fen=(.*)$`)
	exitRE      = regexp.MustCompile(plyPrefix + `EXIT (QUIESCENCE_SEARCH|SEARCH) score=` + intRE + `$`)
	doMoveRE    = regexp.MustCompile(plyPrefix + `DO MOVE ` + tokenRE + ` alpha=` + intRE + ` beta=` + intRE + `$`)
	undoMoveRE  = regexp.MustCompile(plyPrefix + `UNDO MOVE ` + tokenRE + `$`)
	cacheHitRE  = regexp.MustCompile(plyPrefix + `CACHE HIT score=` + intRE + ` depth=` + intRE + ` flag=(\d+) move=` + tokenRE + `$`)
	moveOrderRE = regexp.MustCompile(plyPrefix + `MOVE ORDER ?(.*)$`)
	pvListRE    = regexp.MustCompile(plyPrefix + `PV LIST ?(.*)$`)
	positionRE  = regexp.MustCompile(plyPrefix + `POSITION score=` + intRE + `$`)
	bestMoveRE  = regexp.MustCompile(plyPrefix + `BEST MOVE ` + tokenRE + `$`)
	razoringRE  = regexp.MustCompile(plyPrefix + `RAZORING$`)
	futilityRE  = regexp.MustCompile(plyPrefix + `FUTILITY PRUNING$`)
	nodesRE     = regexp.MustCompile(plyPrefix + `NODES SEARCHED (\d+)$`)
)

// Tokenize classifies a single trace line. Lines matching none of the
// grammars report ok=false and are meant to be skipped.
func Tokenize(line string) (Event, bool) {
	line = strings.TrimRight(line, "\r\n")
	if len(line) < 4 || line[0] != '[' {
		return nil, false
	}
	ev := match(line)
	if ev == nil {
		return nil, false
	}
	return ev, true
}

func match(line string) Event {
	if m := enterRE.FindStringSubmatch(line); m != nil {
		c := captures(m)
		ev := EnterFrame{
			At:       c.at(),
			Search:   searchKind(m[2]),
			Depth:    c.int(3),
			Alpha:    c.int(4),
			Beta:     c.int(5),
			IsPV:     m[6] == "1",
			Position: m[7],
		}
		return c.ok(ev)
	}
	if m := exitRE.FindStringSubmatch(line); m != nil {
		c := captures(m)
		return c.ok(ExitFrame{At: c.at(), Search: searchKind(m[2]), Score: c.int(3)})
	}
	if m := doMoveRE.FindStringSubmatch(line); m != nil {
		c := captures(m)
		return c.ok(DoMove{At: c.at(), Move: m[2], Alpha: c.int(3), Beta: c.int(4)})
	}
	if m := undoMoveRE.FindStringSubmatch(line); m != nil {
		c := captures(m)
		return c.ok(UndoMove{At: c.at(), Move: m[2]})
	}
	if m := cacheHitRE.FindStringSubmatch(line); m != nil {
		c := captures(m)
		flag, err := graph.ParseCacheFlag(c.int(4))
		if err != nil {
			return nil
		}
		return c.ok(CacheProbe{At: c.at(), Probe: graph.CacheProbe{
			Score: c.int(2),
			Depth: c.int(3),
			Flag:  flag,
			Move:  m[5],
		}})
	}
	if m := moveOrderRE.FindStringSubmatch(line); m != nil {
		c := captures(m)
		order, err := graph.ParseMoveOrder(m[2])
		if err != nil {
			return nil
		}
		return c.ok(MoveOrder{At: c.at(), Order: order})
	}
	if m := pvListRE.FindStringSubmatch(line); m != nil {
		c := captures(m)
		return c.ok(PVList{At: c.at(), Moves: graph.DecodePV(m[2])})
	}
	if m := positionRE.FindStringSubmatch(line); m != nil {
		c := captures(m)
		return c.ok(StaticEval{At: c.at(), Score: c.int(2)})
	}
	if m := bestMoveRE.FindStringSubmatch(line); m != nil {
		c := captures(m)
		return c.ok(BestMove{At: c.at(), Move: m[2]})
	}
	if m := razoringRE.FindStringSubmatch(line); m != nil {
		c := captures(m)
		return c.ok(Razoring{At: c.at()})
	}
	if m := futilityRE.FindStringSubmatch(line); m != nil {
		c := captures(m)
		return c.ok(FutilityPruning{At: c.at()})
	}
	if m := nodesRE.FindStringSubmatch(line); m != nil {
		c := captures(m)
		n, err := strconv.ParseInt(m[2], 10, 64)
		if err != nil {
			return nil
		}
		return c.ok(NodesSearched{At: c.at(), Count: n})
	}
	return nil
}

// parsed wraps regexp submatches and remembers the first integer
// conversion failure (only possible on overflow).
type parsed struct {
	m   []string
	err error
}

func captures(m []string) *parsed {
	return &parsed{m: m}
}

func (p *parsed) int(i int) int {
	n, err := strconv.Atoi(p.m[i])
	if err != nil && p.err == nil {
		p.err = err
	}
	return n
}

func (p *parsed) at() At {
	return At{AtPly: p.int(1)}
}

func (p *parsed) ok(ev Event) Event {
	if p.err != nil {
		return nil
	}
	return ev
}

func searchKind(s string) SearchKind {
	if s == "QUIESCENCE_SEARCH" {
		return SearchQuiescence
	}
	return SearchFull
}
