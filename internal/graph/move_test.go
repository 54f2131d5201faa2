package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMove(t *testing.T) {
	tests := []struct {
		name    string
		token   string
		from    int
		to      int
		promo   byte
		wantErr bool
	}{
		{"e2e4", "e2e4", 12, 28, PromoNone, false},
		{"e7e8q", "e7e8q", 52, 60, PromoQueen, false},
		{"a7a8r", "a7a8r", 48, 56, PromoRook, false},
		{"h2h1b", "h2h1b", 15, 7, PromoBishop, false},
		{"b7b8N", "b7b8N", 49, 57, PromoKnight, false},
		{"too short", "e2e", 0, 0, 0, true},
		{"bad square", "i2e4", 0, 0, 0, true},
		{"bad promo", "e7e8k", 0, 0, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := ParseMove(tt.token)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.from, m.From())
			assert.Equal(t, tt.to, m.To())
			assert.Equal(t, tt.promo, m.Promotion())
		})
	}
}

func TestMoveStringRoundTrip(t *testing.T) {
	for _, token := range []string{"e2e4", "e7e8q", "a1h8", "b7b8n", "c7c8b", "d7d8r"} {
		t.Run(token, func(t *testing.T) {
			m, err := ParseMove(token)
			require.NoError(t, err)
			assert.Equal(t, token, m.String())
		})
	}
}

func TestEncodeMoveRejectsOutOfRange(t *testing.T) {
	assert.Equal(t, Move(0), EncodeMove(-1, 10, PromoNone))
	assert.Equal(t, Move(0), EncodeMove(10, 64, PromoNone))
}

func TestIsNullMove(t *testing.T) {
	assert.True(t, IsNullMove("0000"))
	assert.True(t, IsNullMove("a1a1"))
	assert.False(t, IsNullMove("e2e4"))
	assert.False(t, IsNullMove(""))
}
