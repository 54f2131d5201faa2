package graph

import "fmt"

// Move encoding (uint32):
//
//	bits 0-5:   from square (0-63, A1=0 ... H8=63)
//	bits 6-11:  to square
//	bits 12-14: promotion piece (0=none, 1=Q, 2=R, 3=B, 4=N)
type Move uint32

const (
	moveFromMask   = 0x3F
	moveToMask     = 0xFC0
	movePromoMask  = 0x7000
	moveToShift    = 6
	movePromoShift = 12
)

const (
	PromoNone   = 0
	PromoQueen  = 1
	PromoRook   = 2
	PromoBishop = 3
	PromoKnight = 4
)

// Null move tokens. The engine prints its empty move as a1a1.
const (
	NullMoveUCI    = "0000"
	NullMoveEngine = "a1a1"
)

// IsNullMove reports whether a trace move token denotes a null move.
func IsNullMove(token string) bool {
	return token == NullMoveUCI || token == NullMoveEngine
}

// EncodeMove packs square indices and an optional promotion.
func EncodeMove(from, to int, promo byte) Move {
	if from < 0 || from > 63 || to < 0 || to > 63 {
		return 0
	}
	return Move(uint32(from) | uint32(to)<<moveToShift | uint32(promo)<<movePromoShift)
}

func (m Move) From() int {
	return int(m & moveFromMask)
}

func (m Move) To() int {
	return int((m & moveToMask) >> moveToShift)
}

func (m Move) Promotion() byte {
	return byte((m & movePromoMask) >> movePromoShift)
}

// String returns the coordinate form of the move (e.g. "e2e4", "e7e8q").
func (m Move) String() string {
	from, to := m.From(), m.To()
	b := []byte{
		byte('a' + from%8), byte('1' + from/8),
		byte('a' + to%8), byte('1' + to/8),
	}
	if p := m.Promotion(); p > 0 && p <= 4 {
		b = append(b, "qrbn"[p-1])
	}
	return string(b)
}

// ParseMove parses a coordinate move token such as "e2e4" or "e7e8q".
func ParseMove(token string) (Move, error) {
	if len(token) < 4 || len(token) > 5 {
		return 0, fmt.Errorf("bad move token %q", token)
	}
	fromFile, fromRank := int(token[0])-'a', int(token[1])-'1'
	toFile, toRank := int(token[2])-'a', int(token[3])-'1'
	if fromFile < 0 || fromFile > 7 || fromRank < 0 || fromRank > 7 ||
		toFile < 0 || toFile > 7 || toRank < 0 || toRank > 7 {
		return 0, fmt.Errorf("bad square in move token %q", token)
	}

	var promo byte = PromoNone
	if len(token) == 5 {
		switch token[4] {
		case 'q', 'Q':
			promo = PromoQueen
		case 'r', 'R':
			promo = PromoRook
		case 'b', 'B':
			promo = PromoBishop
		case 'n', 'N':
			promo = PromoKnight
		default:
			return 0, fmt.Errorf("bad promotion in move token %q", token)
		}
	}
	return EncodeMove(fromRank*8+fromFile, toRank*8+toFile, promo), nil
}
