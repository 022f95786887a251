package ataxx

import (
	"fmt"
	"strings"
)

// Position = board + side to move. Treat it as immutable once handed to the engine:
// ApplyMove returns a fresh Position and never touches the receiver.
type Position struct {
	cells [Size][Size]Cell // [x][y]
	turn  Cell

	// legal moves memo, rebuilt after any change of cells or turn
	moves      []Move
	movesValid bool
}

// NewPosition returns an empty board with PlayerA to move.
func NewPosition() *Position {
	return &Position{turn: PlayerA}
}

// NewInitialPosition is the standard opening: one piece per side in each pair of opposite corners.
func NewInitialPosition() *Position {
	p := NewPosition()
	p.cells[0][0] = PlayerA
	p.cells[Size-1][Size-1] = PlayerA
	p.cells[0][Size-1] = PlayerB
	p.cells[Size-1][0] = PlayerB
	return p
}

func (p *Position) ActivePlayer() Cell { return p.turn }

// PieceAt returns the content of (x, y).
func (p *Position) PieceAt(x, y int) (Cell, error) {
	if !InBounds(x, y) {
		return Empty, fmt.Errorf("%w: %d,%d", ErrOutOfBounds, x, y)
	}
	return p.cells[x][y], nil
}

// SetPiece overwrites one square. Normal play goes through ApplyMove; this is for building positions.
func (p *Position) SetPiece(x, y int, c Cell) error {
	if !InBounds(x, y) {
		return fmt.Errorf("%w: %d,%d", ErrOutOfBounds, x, y)
	}
	if !c.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidPlayer, int8(c))
	}
	p.cells[x][y] = c
	p.invalidate()
	return nil
}

func (p *Position) SetActivePlayer(c Cell) error {
	if !c.IsPlayer() {
		return fmt.Errorf("%w: %d", ErrInvalidPlayer, int8(c))
	}
	p.turn = c
	p.invalidate()
	return nil
}

func (p *Position) invalidate() {
	p.moves = nil
	p.movesValid = false
}

// CountPieces counts the squares holding c; Empty counts free squares.
func (p *Position) CountPieces(c Cell) int {
	n := 0
	for x := 0; x < Size; x++ {
		for y := 0; y < Size; y++ {
			if p.cells[x][y] == c {
				n++
			}
		}
	}
	return n
}

// Clone copies the board and turn; the move memo is not shared.
func (p *Position) Clone() *Position {
	return &Position{cells: p.cells, turn: p.turn}
}

// Equal compares board contents and side to move.
func (p *Position) Equal(o *Position) bool {
	if p == nil || o == nil {
		return p == o
	}
	return p.turn == o.turn && p.cells == o.cells
}

func (p *Position) String() string {
	var sb strings.Builder
	for y := 0; y < Size; y++ {
		for x := 0; x < Size; x++ {
			switch p.cells[x][y] {
			case PlayerA:
				sb.WriteByte('x')
			case PlayerB:
				sb.WriteByte('o')
			default:
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	fmt.Fprintf(&sb, "to move: %s\n", p.turn)
	return sb.String()
}
