package engine

import (
	"fmt"
	"sort"

	"ataxx/internal/ataxx"
)

// PieceCounter is all the difficulty tiers look at.
type PieceCounter interface {
	CountPieces(c ataxx.Cell) int
}

// Strategy is one difficulty tier: how deep to look and how to score the horizon.
type Strategy struct {
	Name  string
	Depth int
	Score func(b PieceCounter, self, opp ataxx.Cell) int
}

var strategies = map[string]Strategy{
	"beginner": {
		Name:  "beginner",
		Depth: 2,
		// cautious while the board is open, then grabs material carelessly
		Score: func(b PieceCounter, self, opp ataxx.Cell) int {
			empty := b.CountPieces(ataxx.Empty)
			switch {
			case empty > 75:
				return 1000 + b.CountPieces(self)
			case empty < 75:
				return 1000 + empty - b.CountPieces(opp)
			default:
				return 1000
			}
		},
	},
	"intermediate": {
		Name:  "intermediate",
		Depth: 2,
		Score: func(b PieceCounter, self, opp ataxx.Cell) int {
			ours, theirs := b.CountPieces(self), b.CountPieces(opp)
			empty := b.CountPieces(ataxx.Empty)

			rating := 1000
			if theirs >= ours {
				rating += ours - empty
			} else {
				rating -= theirs
			}
			switch {
			case ours > theirs && empty >= 50:
				rating -= empty
			case ours > theirs:
				rating += ours - empty
			default:
				rating = 1000 - theirs
			}
			return rating
		},
	},
	"advanced": {
		Name:  "advanced",
		Depth: 2,
		Score: func(b PieceCounter, self, opp ataxx.Cell) int {
			ours, theirs := b.CountPieces(self), b.CountPieces(opp)
			empty := b.CountPieces(ataxx.Empty)

			if ours <= 10 && empty > 80 {
				return 5000 + ours
			}
			if theirs >= ours {
				return 1000 - theirs - empty
			}
			return 1000 + ours - empty - theirs
		},
	},
	"aggressive": {
		Name:  "aggressive",
		Depth: 2,
		Score: func(b PieceCounter, self, opp ataxx.Cell) int {
			return 1000 - b.CountPieces(opp)
		},
	},
	"defensive": {
		Name:  "defensive",
		Depth: 2,
		Score: func(b PieceCounter, self, opp ataxx.Cell) int {
			return b.CountPieces(self)
		},
	},
}

func StrategyByName(name string) (Strategy, error) {
	s, ok := strategies[name]
	if !ok {
		return Strategy{}, fmt.Errorf("unknown strategy %q", name)
	}
	return s, nil
}

// Strategies lists every tier sorted by name.
func Strategies() []Strategy {
	out := make([]Strategy, 0, len(strategies))
	for _, s := range strategies {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// StrategyHeuristic adapts the tier's scoring to any engine state.
func StrategyHeuristic[S State[S]](st Strategy) Heuristic[S] {
	return func(state S, self, opp ataxx.Cell) int {
		return st.Score(state, self, opp)
	}
}

// NewFromStrategy builds an engine with the tier's depth and scoring.
// depthOverride > 0 replaces the tier's depth.
func NewFromStrategy[S State[S]](st Strategy, depthOverride int, opts ...Option) (*Engine[S], error) {
	depth := st.Depth
	if depthOverride > 0 {
		depth = depthOverride
	}
	return New[S](depth, StrategyHeuristic[S](st), opts...)
}
