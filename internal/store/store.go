package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"os"
	"sync"

	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog"
)

//go:embed schema.sql
var schemaSQL string

const schemaVersion = 1

// DefaultBatchSize is the number of writes committed per transaction.
const DefaultBatchSize = 1000

// Options configures a writable store.
type Options struct {
	BatchSize int
	Logger    zerolog.Logger
}

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store is a SQLite-backed search tree.
type Store struct {
	db       *sql.DB
	path     string
	readOnly bool
	log      zerolog.Logger
	stats    StatsCollector

	mu        sync.Mutex
	tx        *sql.Tx
	pending   int
	batchSize int
}

// Open creates or opens a writable store at path and initializes its schema.
//
// The database is configured with WAL journaling, NORMAL synchronous mode,
// a 5 second busy timeout and foreign keys. A single connection is used so
// reads issued during a batch see the uncommitted writes.
func Open(path string, opts Options) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, err
	}

	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	s := &Store{
		db:        db,
		path:      path,
		log:       opts.Logger,
		batchSize: opts.BatchSize,
	}
	if err := s.InitSchema(context.Background()); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// OpenReadOnly opens an existing store without write access.
func OpenReadOnly(path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &Store{
		db:       db,
		path:     path,
		readOnly: true,
		log:      zerolog.Nop(),
	}, nil
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("execute %q: %w", pragma, err)
		}
	}
	return nil
}

// InitSchema creates the tables if they do not exist. It is idempotent.
func (s *Store) InitSchema(ctx context.Context) error {
	if s.readOnly {
		return ErrReadOnly
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.q().ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	if _, err := s.q().ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
		return fmt.Errorf("set schema version: %w", err)
	}
	return nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// ReadOnly reports whether the store was opened with OpenReadOnly.
func (s *Store) ReadOnly() bool {
	return s.readOnly
}

// q returns the open batch transaction if any, else the database.
// Callers hold s.mu.
func (s *Store) q() querier {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// beginWrite returns a transaction for the next write, opening one lazily.
// The batch is detached from ctx cancellation so that Flush can still commit
// it after an interrupt. Callers hold s.mu.
func (s *Store) beginWrite(ctx context.Context) (*sql.Tx, error) {
	if s.readOnly {
		return nil, ErrReadOnly
	}
	if s.tx == nil {
		tx, err := s.db.BeginTx(context.WithoutCancel(ctx), nil)
		if err != nil {
			return nil, fmt.Errorf("begin batch: %w", err)
		}
		s.tx = tx
	}
	return s.tx, nil
}

// endWrite counts a write and commits the batch once it is full.
// Callers hold s.mu.
func (s *Store) endWrite() error {
	s.pending++
	s.stats.addWrite()
	if s.pending >= s.batchSize {
		return s.commit()
	}
	return nil
}

func (s *Store) commit() error {
	if s.tx == nil {
		return nil
	}
	n := s.pending
	err := s.tx.Commit()
	s.tx = nil
	s.pending = 0
	if err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	s.stats.addCommit()
	s.log.Debug().Int("writes", n).Msg("batch committed")
	return nil
}

// Flush commits any pending batch.
func (s *Store) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.commit()
}

// Close flushes pending writes and closes the database.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	flushErr := s.Flush()
	closeErr := s.db.Close()
	s.db = nil
	if flushErr != nil {
		return flushErr
	}
	return closeErr
}
