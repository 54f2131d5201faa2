package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/adajed/searchview/internal/eco"
	"github.com/adajed/searchview/internal/navigator"
	"github.com/adajed/searchview/internal/notation"
	"github.com/adajed/searchview/internal/store"
)

// openReadOnly opens a finished store for browsing. A store still being
// ingested is refused.
func openReadOnly(path string) (*store.Store, error) {
	if store.IsLocked(path) {
		return nil, WrapExitError(ExitCommandError, "cannot open "+path, store.ErrLocked)
	}
	s, err := store.OpenReadOnly(path)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open store", err)
	}
	return s, nil
}

// loadOpenings reads the ECO tables in dir. An empty dir yields an empty
// database.
func (o *RootOptions) loadOpenings(dir string) *eco.Database {
	db := eco.NewDatabase()
	if dir == "" {
		return db
	}
	if err := db.LoadDir(dir); err != nil {
		o.Log.Warn().Err(err).Str("dir", dir).Msg("eco tables not loaded")
		return db
	}
	o.Log.Debug().Int("positions", db.Count()).Str("dir", dir).Msg("eco tables loaded")
	return db
}

// displayOptions wires chess notation and opening names into the navigator.
func displayOptions(db *eco.Database) navigator.Options {
	return navigator.Options{
		Notation: notation.ToDisplay,
		Line:     notation.Line,
		Opening: func(position string) string {
			if o := db.LookupFEN(notation.NormalizeFEN(position)); o != nil {
				return o.String()
			}
			return ""
		},
	}
}

// removeStore deletes a database and its sidecar files.
func removeStore(path string) error {
	for _, p := range []string{path, path + "-wal", path + "-shm", store.LockFilePath(path)} {
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %s: %w", p, err)
		}
	}
	return nil
}
