package eco_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/freeeve/pgn/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adajed/searchview/internal/eco"
)

const sampleTSV = "eco\tname\tpgn\n" +
	"B00\tKing's Pawn Game\t1. e4\n" +
	"C50\tItalian Game\t1. e4 e5 2. Nf3 Nc6 3. Bc4\n" +
	"X99\tBroken\t1. e5\n" +
	"short line\n"

func writeSample(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.tsv"), []byte(sampleTSV), 0o644))
	return dir
}

func TestLoadAndLookup(t *testing.T) {
	db := eco.NewDatabase()
	require.NoError(t, db.LoadDir(writeSample(t)))
	assert.Equal(t, 2, db.Count())

	pos := pgn.NewStartingPosition()
	assert.Nil(t, db.LookupGameState(pos))

	for _, san := range []string{"e4", "e5", "Nf3", "Nc6", "Bc4"} {
		mv, err := pgn.ParseSAN(pos, san)
		require.NoError(t, err)
		require.NoError(t, pgn.ApplyMove(pos, mv))
	}
	o := db.LookupGameState(pos)
	require.NotNil(t, o)
	assert.Equal(t, "C50", o.ECO)
	assert.Equal(t, "C50 Italian Game", o.String())

	byFEN := db.LookupFEN(pos.ToFEN())
	require.NotNil(t, byFEN)
	assert.Equal(t, "Italian Game", byFEN.Name)
}

func TestLookupFENMisses(t *testing.T) {
	var empty *eco.Database
	assert.Nil(t, empty.LookupFEN("startpos"))

	db := eco.NewDatabase()
	require.NoError(t, db.LoadDir(writeSample(t)))
	assert.Nil(t, db.LookupFEN("not a fen"))
}

func TestLoadDirWithoutFiles(t *testing.T) {
	err := eco.NewDatabase().LoadDir(t.TempDir())
	assert.Error(t, err)
}
