package ataxx

import (
	"errors"
	"fmt"
)

const (
	Size     = 10
	NumCells = Size * Size

	// MaxStep is the longest reach of a move along either axis.
	MaxStep = 2
)

var (
	ErrOutOfBounds   = errors.New("coordinates out of bounds")
	ErrInvalidMove   = errors.New("invalid move geometry")
	ErrIllegalMove   = errors.New("illegal move")
	ErrInvalidPlayer = errors.New("invalid player")
)

// Cell is the content of one square; also used to name a player.
type Cell int8

const (
	Empty   Cell = 0
	PlayerA Cell = 1
	PlayerB Cell = 2
)

func (c Cell) Valid() bool { return c >= Empty && c <= PlayerB }

// IsPlayer reports whether c names one of the two sides.
func (c Cell) IsPlayer() bool { return c == PlayerA || c == PlayerB }

// Opponent returns the other side; Empty for anything that is not a player.
func (c Cell) Opponent() Cell {
	switch c {
	case PlayerA:
		return PlayerB
	case PlayerB:
		return PlayerA
	default:
		return Empty
	}
}

func (c Cell) String() string {
	switch c {
	case Empty:
		return "empty"
	case PlayerA:
		return "A"
	case PlayerB:
		return "B"
	default:
		return fmt.Sprintf("cell(%d)", int8(c))
	}
}

// Move relocates or clones the piece at (FromX, FromY) onto (ToX, ToY).
// The zero Move has source == destination, is never legal and stands for "no move".
type Move struct {
	FromX int `json:"from_x"`
	FromY int `json:"from_y"`
	ToX   int `json:"to_x"`
	ToY   int `json:"to_y"`
}

// NewMove checks the geometry of a move. Ownership of the cells is checked by Position.IsMoveLegal.
func NewMove(fromX, fromY, toX, toY int) (Move, error) {
	m := Move{FromX: fromX, FromY: fromY, ToX: toX, ToY: toY}
	if !InBounds(fromX, fromY) || !InBounds(toX, toY) {
		return Move{}, fmt.Errorf("%w: %s", ErrOutOfBounds, m)
	}
	if !m.validGeometry() {
		return Move{}, fmt.Errorf("%w: %s", ErrInvalidMove, m)
	}
	return m, nil
}

func (m Move) IsZero() bool { return m == Move{} }

func (m Move) dx() int { return abs(m.ToX - m.FromX) }
func (m Move) dy() int { return abs(m.ToY - m.FromY) }

// IsJump reports a move of distance 2 on at least one axis; the source square is vacated.
func (m Move) IsJump() bool { return m.dx() > 1 || m.dy() > 1 }

func (m Move) validGeometry() bool {
	if m.FromX == m.ToX && m.FromY == m.ToY {
		return false
	}
	return m.dx() <= MaxStep && m.dy() <= MaxStep
}

func (m Move) String() string {
	return fmt.Sprintf("%d,%d->%d,%d", m.FromX, m.FromY, m.ToX, m.ToY)
}

func InBounds(x, y int) bool {
	return x >= 0 && x < Size && y >= 0 && y < Size
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
