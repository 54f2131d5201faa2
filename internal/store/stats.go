package store

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Stats summarizes a store's contents and the activity of this handle.
type Stats struct {
	Frames          int64 `json:"frames"`
	Edges           int64 `json:"edges"`
	MaxPly          int64 `json:"max_ply"`
	QuiescenceNodes int64 `json:"quiescence_frames"`
	CacheHits       int64 `json:"cache_hits"`
	RazoredFrames   int64 `json:"razored_frames"`
	FutilityFrames  int64 `json:"futility_frames"`

	TotalReads   uint64 `json:"total_reads"`
	TotalWrites  uint64 `json:"total_writes"`
	TotalCommits uint64 `json:"total_commits"`
}

// StatsCollector tracks per-handle activity counters.
type StatsCollector struct {
	totalReads   uint64
	totalWrites  uint64
	totalCommits uint64
}

func (sc *StatsCollector) addRead()   { atomic.AddUint64(&sc.totalReads, 1) }
func (sc *StatsCollector) addWrite()  { atomic.AddUint64(&sc.totalWrites, 1) }
func (sc *StatsCollector) addCommit() { atomic.AddUint64(&sc.totalCommits, 1) }

// Stats counts frames and edges and reports handle activity. The root frame
// is not counted.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var st Stats
	err := s.q().QueryRowContext(ctx, `SELECT
		COUNT(*),
		COALESCE(MAX(ply), 0),
		COALESCE(SUM(quiescence), 0),
		COUNT(cache_move),
		COALESCE(SUM(razoring), 0),
		COALESCE(SUM(futility), 0)
		FROM frames WHERE depth <> -1`).Scan(
		&st.Frames, &st.MaxPly, &st.QuiescenceNodes, &st.CacheHits, &st.RazoredFrames, &st.FutilityFrames)
	if err != nil {
		return Stats{}, fmt.Errorf("frame stats: %w", err)
	}
	if err := s.q().QueryRowContext(ctx, `SELECT COUNT(*) FROM edges`).Scan(&st.Edges); err != nil {
		return Stats{}, fmt.Errorf("edge stats: %w", err)
	}

	st.TotalReads = atomic.LoadUint64(&s.stats.totalReads)
	st.TotalWrites = atomic.LoadUint64(&s.stats.totalWrites)
	st.TotalCommits = atomic.LoadUint64(&s.stats.totalCommits)
	return st, nil
}
