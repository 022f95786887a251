package ataxx

// Outcome is the scoreboard of a position as the front end reports it.
type Outcome struct {
	Over   bool
	ScoreA int
	ScoreB int
	Winner Cell // Empty while ongoing or on a draw
}

// Outcome ends the game when the side to move is stuck: the other side claims every empty square.
func (p *Position) Outcome() Outcome {
	o := Outcome{
		ScoreA: p.CountPieces(PlayerA),
		ScoreB: p.CountPieces(PlayerB),
	}
	if p.HasLegalMove() {
		return o
	}
	o.Over = true
	rest := NumCells - o.ScoreA - o.ScoreB
	if p.turn == PlayerA {
		o.ScoreB += rest
	} else {
		o.ScoreA += rest
	}
	switch {
	case o.ScoreA > o.ScoreB:
		o.Winner = PlayerA
	case o.ScoreB > o.ScoreA:
		o.Winner = PlayerB
	}
	return o
}
