// Package eco names the opening a displayed position belongs to.
package eco

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/freeeve/pgn/v3"
)

// Opening is an ECO classification.
type Opening struct {
	ECO  string `json:"eco"`
	Name string `json:"name"`
}

func (o Opening) String() string {
	return o.ECO + " " + o.Name
}

// Database maps positions reached by opening lines to their names.
type Database struct {
	byPosition map[pgn.PackedPosition]Opening
}

func NewDatabase() *Database {
	return &Database{byPosition: make(map[pgn.PackedPosition]Opening)}
}

var moveNumberRegex = regexp.MustCompile(`\d+\.+\s*`)

// LoadDir loads every .tsv file in dir.
func (db *Database) LoadDir(dir string) error {
	files, err := filepath.Glob(filepath.Join(dir, "*.tsv"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no .tsv files found in %s", dir)
	}
	for _, file := range files {
		if err := db.LoadFile(file); err != nil {
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// LoadFile loads one TSV file of "eco<TAB>name<TAB>pgn" rows. An optional
// header row and unparsable lines are skipped.
func (db *Database) LoadFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for lineNum := 1; scanner.Scan(); lineNum++ {
		line := scanner.Text()
		if lineNum == 1 && strings.HasPrefix(line, "eco\t") {
			continue
		}
		parts := strings.SplitN(line, "\t", 3)
		if len(parts) != 3 {
			continue
		}
		pos := pgn.NewStartingPosition()
		if err := applyMoves(pos, parts[2]); err != nil {
			continue
		}
		db.byPosition[pos.Pack()] = Opening{ECO: parts[0], Name: parts[1]}
	}
	return scanner.Err()
}

// applyMoves plays a movetext such as "1. e4 e5 2. Nf3 Nc6".
func applyMoves(pos *pgn.GameState, movetext string) error {
	for _, san := range strings.Fields(moveNumberRegex.ReplaceAllString(movetext, "")) {
		if san[0] == '$' || san[0] == '{' {
			continue
		}
		san = strings.TrimRight(san, "+#")
		mv, err := pgn.ParseSAN(pos, san)
		if err != nil {
			return fmt.Errorf("parse %q: %w", san, err)
		}
		if err := pgn.ApplyMove(pos, mv); err != nil {
			return fmt.Errorf("apply %q: %w", san, err)
		}
	}
	return nil
}

// LookupGameState returns the opening for a position, or nil.
func (db *Database) LookupGameState(gs *pgn.GameState) *Opening {
	if o, ok := db.byPosition[gs.Pack()]; ok {
		return &o
	}
	return nil
}

// LookupFEN returns the opening for a FEN, or nil when unknown or unparsable.
func (db *Database) LookupFEN(fen string) *Opening {
	if db == nil || len(db.byPosition) == 0 {
		return nil
	}
	gs, err := pgn.NewGame(fen)
	if err != nil {
		return nil
	}
	return db.LookupGameState(gs)
}

// Count returns the number of distinct positions loaded.
func (db *Database) Count() int {
	return len(db.byPosition)
}
