// Package notation renders engine move tokens and positions for display.
package notation

import (
	"strings"

	"github.com/freeeve/pgn/v3"
)

// StartFEN is the standard initial position. Traces may write "startpos".
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

// NormalizeFEN expands the "startpos" shorthand.
func NormalizeFEN(fen string) string {
	fen = strings.TrimSpace(fen)
	if fen == "startpos" {
		return StartFEN
	}
	return fen
}

// Diagram renders fen as eight rank lines, rank 8 first with '.' for empty
// squares, followed by a "WHITE TO MOVE" or "BLACK TO MOVE" line.
func Diagram(fen string) ([]string, error) {
	pos, err := pgn.NewGame(NormalizeFEN(fen))
	if err != nil {
		return nil, err
	}
	out := make([]string, 0, 9)
	cells := make([]string, 8)
	for r := 7; r >= 0; r-- {
		for f := 0; f < 8; f++ {
			if p := pos.PieceAt(pgn.Square(r*8 + f)); p != 0 {
				cells[f] = string(p)
			} else {
				cells[f] = "."
			}
		}
		out = append(out, strings.Join(cells, " "))
	}
	return append(out, SideToMove(pos)+" TO MOVE"), nil
}

// SideToMove returns "WHITE" or "BLACK".
func SideToMove(pos *pgn.GameState) string {
	if pos.SideToMove == pgn.White {
		return "WHITE"
	}
	return "BLACK"
}
