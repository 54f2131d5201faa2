package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/adajed/searchview/internal/graph"
)

const frameColumns = `id, ply, depth, alpha, beta, score, position, move, best_move, static_eval,
	cache_move, cache_depth, cache_score, cache_flag, move_order, pv_list,
	razoring, futility, nodes_searched, is_pv, quiescence`

// InsertFrame persists a completed frame and returns its id. Ids increase
// monotonically; frames are never updated afterwards.
func (s *Store) InsertFrame(ctx context.Context, f *graph.Frame) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.beginWrite(ctx)
	if err != nil {
		return 0, err
	}

	var cacheMove, cacheDepth, cacheScore, cacheFlag any
	if c := f.Cache; c != nil {
		cacheMove, cacheDepth, cacheScore, cacheFlag = c.Move, c.Depth, c.Score, int(c.Flag)
	}
	var moveOrder, pvList any
	if f.MoveOrder != nil {
		moveOrder = f.MoveOrder.Encode()
	}
	if f.PV != nil {
		pvList = graph.EncodePV(f.PV)
	}

	res, err := tx.ExecContext(ctx, `INSERT INTO frames (
		ply, depth, alpha, beta, score, position, move, best_move, static_eval,
		cache_move, cache_depth, cache_score, cache_flag, move_order, pv_list,
		razoring, futility, nodes_searched, is_pv, quiescence
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		f.Ply, f.Depth, f.Alpha, f.Beta, nullInt(f.Score), f.Position,
		nullString(f.Move), nullString(f.BestMove), nullInt(f.StaticEval),
		cacheMove, cacheDepth, cacheScore, cacheFlag, moveOrder, pvList,
		f.Razoring, f.Futility, f.NodesSearched, f.IsPV, f.Quiescence,
	)
	if err != nil {
		return 0, fmt.Errorf("insert frame: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("frame id: %w", err)
	}
	f.ID = id
	return id, s.endWrite()
}

// InsertEdges appends parent->child edges in the given order. Every child
// must already be stored.
func (s *Store) InsertEdges(ctx context.Context, parentID int64, childIDs []int64) error {
	if len(childIDs) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.beginWrite(ctx)
	if err != nil {
		return err
	}
	for _, child := range childIDs {
		var one int
		err := tx.QueryRowContext(ctx, `SELECT 1 FROM frames WHERE id = ?`, child).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("edge %d->%d: %w", parentID, child, ErrUnknownChild)
		}
		if err != nil {
			return fmt.Errorf("check child %d: %w", child, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO edges (parent_id, child_id) VALUES (?, ?)`, parentID, child); err != nil {
			return fmt.Errorf("insert edge %d->%d: %w", parentID, child, err)
		}
	}
	return s.endWrite()
}

// GetFrame loads a frame by id.
func (s *Store) GetFrame(ctx context.Context, id int64) (*graph.Frame, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.addRead()

	row := s.q().QueryRowContext(ctx, `SELECT `+frameColumns+` FROM frames WHERE id = ?`, id)
	f, err := scanFrame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("frame %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get frame %d: %w", id, err)
	}
	return f, nil
}

// GetChildren returns the child ids of a frame in discovery order. A frame
// without children yields an empty slice.
func (s *Store) GetChildren(ctx context.Context, parentID int64) ([]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.addRead()

	rows, err := s.q().QueryContext(ctx,
		`SELECT child_id FROM edges WHERE parent_id = ? ORDER BY rowid`, parentID)
	if err != nil {
		return nil, fmt.Errorf("get children of %d: %w", parentID, err)
	}
	defer rows.Close()

	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetRootID returns the id of the sentinel root frame. It is ErrNotFound
// until an ingest has completed.
func (s *Store) GetRootID(ctx context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stats.addRead()

	var id int64
	err := s.q().QueryRowContext(ctx,
		`SELECT id FROM frames WHERE depth = ? ORDER BY id LIMIT 1`, graph.RootDepth).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("root frame: %w", ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("get root: %w", err)
	}
	return id, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanFrame(row rowScanner) (*graph.Frame, error) {
	var (
		f                                 graph.Frame
		score, staticEval                 sql.NullInt64
		move, bestMove, cacheMove         sql.NullString
		cacheDepth, cacheScore, cacheFlag sql.NullInt64
		moveOrder, pvList                 sql.NullString
	)
	err := row.Scan(
		&f.ID, &f.Ply, &f.Depth, &f.Alpha, &f.Beta, &score, &f.Position, &move, &bestMove, &staticEval,
		&cacheMove, &cacheDepth, &cacheScore, &cacheFlag, &moveOrder, &pvList,
		&f.Razoring, &f.Futility, &f.NodesSearched, &f.IsPV, &f.Quiescence,
	)
	if err != nil {
		return nil, err
	}

	f.Score = intPtr(score)
	f.StaticEval = intPtr(staticEval)
	f.Move = move.String
	f.BestMove = bestMove.String
	if cacheMove.Valid {
		flag, err := graph.ParseCacheFlag(int(cacheFlag.Int64))
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", f.ID, err)
		}
		f.Cache = &graph.CacheProbe{
			Score: int(cacheScore.Int64),
			Depth: int(cacheDepth.Int64),
			Flag:  flag,
			Move:  cacheMove.String,
		}
	}
	if moveOrder.Valid {
		mo, err := graph.ParseMoveOrder(moveOrder.String)
		if err != nil {
			return nil, fmt.Errorf("frame %d: %w", f.ID, err)
		}
		f.MoveOrder = mo
	}
	if pvList.Valid {
		f.PV = graph.DecodePV(pvList.String)
	}
	return &f, nil
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
