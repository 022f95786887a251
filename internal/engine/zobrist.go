package engine

import (
	"math/rand"

	"ataxx/internal/ataxx"
)

// zobrist holds the random keys of one engine. Built once in New and never changed:
// regenerating it would orphan every cache key.
type zobrist struct {
	cells [ataxx.Size][ataxx.Size][3]uint64 // [x][y][cell]
	turn  [2]uint64                         // [player-1]
}

func newZobrist(rng *rand.Rand) *zobrist {
	z := &zobrist{}
	for x := 0; x < ataxx.Size; x++ {
		for y := 0; y < ataxx.Size; y++ {
			for c := 0; c < 3; c++ {
				z.cells[x][y][c] = rng.Uint64()
			}
		}
	}
	z.turn[0] = rng.Uint64()
	z.turn[1] = rng.Uint64()
	return z
}

// hashState XORs the key of every square plus the side to move. Distinct states can collide;
// callers verify the board before trusting a match.
func hashState[S State[S]](z *zobrist, s S) uint64 {
	var h uint64
	for x := 0; x < ataxx.Size; x++ {
		for y := 0; y < ataxx.Size; y++ {
			c, err := s.PieceAt(x, y)
			if err != nil || !c.Valid() {
				continue
			}
			h ^= z.cells[x][y][c]
		}
	}
	if p := s.ActivePlayer(); p.IsPlayer() {
		h ^= z.turn[p-1]
	}
	return h
}

// sameState compares two states square by square.
func sameState[S State[S]](a, b S) bool {
	if a.ActivePlayer() != b.ActivePlayer() {
		return false
	}
	for x := 0; x < ataxx.Size; x++ {
		for y := 0; y < ataxx.Size; y++ {
			ca, errA := a.PieceAt(x, y)
			cb, errB := b.PieceAt(x, y)
			if errA != nil || errB != nil || ca != cb {
				return false
			}
		}
	}
	return true
}
