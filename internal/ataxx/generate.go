package ataxx

import "fmt"

// IsMoveLegal: own piece at the source, empty destination, at most two squares away on each axis.
func (p *Position) IsMoveLegal(m Move) bool {
	if !InBounds(m.FromX, m.FromY) || !InBounds(m.ToX, m.ToY) {
		return false
	}
	if !m.validGeometry() {
		return false
	}
	if p.cells[m.FromX][m.FromY] != p.turn {
		return false
	}
	return p.cells[m.ToX][m.ToY] == Empty
}

// LegalMoves lists every legal move of the side to move.
// Order: source x, source y, then dx and dy from -2 to +2. The search relies on this order being stable.
// The returned slice is shared with the memo; callers must not modify it.
func (p *Position) LegalMoves() []Move {
	if p.movesValid {
		return p.moves
	}
	moves := make([]Move, 0, 32)
	for x := 0; x < Size; x++ {
		for y := 0; y < Size; y++ {
			if p.cells[x][y] != p.turn {
				continue
			}
			for dx := -MaxStep; dx <= MaxStep; dx++ {
				for dy := -MaxStep; dy <= MaxStep; dy++ {
					tx, ty := x+dx, y+dy
					if !InBounds(tx, ty) || p.cells[tx][ty] != Empty {
						continue
					}
					moves = append(moves, Move{FromX: x, FromY: y, ToX: tx, ToY: ty})
				}
			}
		}
	}
	p.moves = moves
	p.movesValid = true
	return moves
}

// HasLegalMove is LegalMoves without building the list when the memo is cold.
func (p *Position) HasLegalMove() bool {
	if p.movesValid {
		return len(p.moves) > 0
	}
	for x := 0; x < Size; x++ {
		for y := 0; y < Size; y++ {
			if p.cells[x][y] != p.turn {
				continue
			}
			for tx := x - MaxStep; tx <= x+MaxStep; tx++ {
				for ty := y - MaxStep; ty <= y+MaxStep; ty++ {
					if InBounds(tx, ty) && p.cells[tx][ty] == Empty {
						return true
					}
				}
			}
		}
	}
	return false
}

// ApplyMove returns the position after m. A clone keeps the source piece, a jump vacates it;
// every occupied neighbour of the destination turns to the mover.
func (p *Position) ApplyMove(m Move) (*Position, error) {
	if !p.IsMoveLegal(m) {
		return nil, fmt.Errorf("%w: %s for %s", ErrIllegalMove, m, p.turn)
	}
	mover := p.turn

	np := &Position{cells: p.cells, turn: mover.Opponent()}
	if m.IsJump() {
		np.cells[m.FromX][m.FromY] = Empty
	}
	np.cells[m.ToX][m.ToY] = mover

	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			x, y := m.ToX+dx, m.ToY+dy
			if !InBounds(x, y) {
				continue
			}
			if np.cells[x][y] != Empty {
				np.cells[x][y] = mover
			}
		}
	}
	return np, nil
}
