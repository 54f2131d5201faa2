package store

import (
	"context"
	"errors"

	"github.com/adajed/searchview/internal/graph"
)

var (
	// ErrNotFound is returned when a frame, root or meta key does not exist.
	ErrNotFound = errors.New("not found")

	// ErrReadOnly is returned by write operations on a read-only store.
	ErrReadOnly = errors.New("store is read-only")

	// ErrUnknownChild is returned when an edge names a frame that was never inserted.
	ErrUnknownChild = errors.New("edge references unknown frame")

	// ErrLocked is returned when an ingest lock is held on the store.
	ErrLocked = errors.New("store is locked by an ingest")
)

// ReadStore is the query side used by the navigator and the HTTP API.
type ReadStore interface {
	GetFrame(ctx context.Context, id int64) (*graph.Frame, error)
	GetChildren(ctx context.Context, parentID int64) ([]int64, error)
	GetRootID(ctx context.Context) (int64, error)
}

// Writer is the append-only side used by ingestion.
type Writer interface {
	InsertFrame(ctx context.Context, f *graph.Frame) (int64, error)
	InsertEdges(ctx context.Context, parentID int64, childIDs []int64) error
}

// Ensure Store implements both sides.
var (
	_ ReadStore = (*Store)(nil)
	_ Writer    = (*Store)(nil)
)
