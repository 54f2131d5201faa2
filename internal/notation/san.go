package notation

import (
	"fmt"
	"strings"

	"github.com/freeeve/pgn/v3"

	"github.com/adajed/searchview/internal/graph"
)

const (
	files = "abcdefgh"
	ranks = "12345678"
)

// ToDisplay renders an engine move token in SAN for the given position.
// Null moves and tokens that are not legal in the position come back as-is.
func ToDisplay(fen, token string) string {
	if graph.IsNullMove(token) {
		return token
	}
	pos, err := pgn.NewGame(NormalizeFEN(fen))
	if err != nil {
		return token
	}
	san, err := applyToken(pos, token)
	if err != nil {
		return token
	}
	return san
}

// Line renders a sequence of tokens played from fen, e.g. a principal
// variation. Once a token cannot be played the rest are returned raw.
func Line(fen string, tokens []string) []string {
	out := make([]string, 0, len(tokens))
	pos, err := pgn.NewGame(NormalizeFEN(fen))
	for i, tok := range tokens {
		if err != nil {
			out = append(out, tokens[i:]...)
			break
		}
		var san string
		san, err = applyToken(pos, tok)
		if err != nil {
			out = append(out, tokens[i:]...)
			break
		}
		out = append(out, san)
	}
	return out
}

// applyToken finds the legal move matching token, returns its SAN and
// plays it on pos.
func applyToken(pos *pgn.GameState, token string) (string, error) {
	want, err := graph.ParseMove(token)
	if err != nil {
		return "", err
	}
	for _, mv := range pgn.GenerateLegalMoves(pos) {
		if int(mv.From) != want.From() || int(mv.To) != want.To() || promoOf(mv) != want.Promotion() {
			continue
		}
		san := moveToSAN(pos, mv)
		if err := pgn.ApplyMove(pos, mv); err != nil {
			return "", fmt.Errorf("apply %s: %w", token, err)
		}
		if pos.IsInCheck() {
			if len(pgn.GenerateLegalMoves(pos)) == 0 {
				san += "#"
			} else {
				san += "+"
			}
		}
		return san, nil
	}
	return "", fmt.Errorf("%s is not legal here", token)
}

func promoOf(mv pgn.Mv) byte {
	switch mv.Promo {
	case pgn.PromoQueen:
		return graph.PromoQueen
	case pgn.PromoRook:
		return graph.PromoRook
	case pgn.PromoBishop:
		return graph.PromoBishop
	case pgn.PromoKnight:
		return graph.PromoKnight
	}
	return graph.PromoNone
}

// moveToSAN builds SAN without the check suffix.
func moveToSAN(pos *pgn.GameState, mv pgn.Mv) string {
	fromSq, toSq := int(mv.From), int(mv.To)
	fromFile, toFile := fromSq%8, toSq%8
	piece := upper(pos.PieceAt(mv.From))

	if piece == 'K' && (toFile-fromFile == 2 || fromFile-toFile == 2) {
		if toFile > fromFile {
			return "O-O"
		}
		return "O-O-O"
	}

	target := string(files[toFile]) + string(ranks[toSq/8])
	// A pawn changing file onto an empty square is en passant.
	isCapture := pos.PieceAt(mv.To) != 0 || (piece == 'P' && fromFile != toFile)

	var sb strings.Builder
	if piece == 'P' {
		if isCapture {
			sb.WriteByte(files[fromFile])
			sb.WriteByte('x')
		}
		sb.WriteString(target)
		if p := promoOf(mv); p != graph.PromoNone {
			sb.WriteByte('=')
			sb.WriteByte("QRBN"[p-1])
		}
		return sb.String()
	}

	sb.WriteByte(piece)
	sb.WriteString(disambiguate(pos, mv, piece))
	if isCapture {
		sb.WriteByte('x')
	}
	sb.WriteString(target)
	return sb.String()
}

func disambiguate(pos *pgn.GameState, mv pgn.Mv, piece byte) string {
	fromSq := int(mv.From)
	sameFile, sameRank, clash := false, false, false
	for _, other := range pgn.GenerateLegalMoves(pos) {
		otherFrom := int(other.From)
		if int(other.To) != int(mv.To) || otherFrom == fromSq || upper(pos.PieceAt(other.From)) != piece {
			continue
		}
		clash = true
		if otherFrom%8 == fromSq%8 {
			sameFile = true
		}
		if otherFrom/8 == fromSq/8 {
			sameRank = true
		}
	}
	switch {
	case !clash:
		return ""
	case !sameFile:
		return string(files[fromSq%8])
	case !sameRank:
		return string(ranks[fromSq/8])
	default:
		return string(files[fromSq%8]) + string(ranks[fromSq/8])
	}
}

func upper(p byte) byte {
	if p >= 'a' && p <= 'z' {
		return p - 'a' + 'A'
	}
	return p
}
