package engine

import (
	"time"

	"ataxx/internal/ataxx"
)

const (
	winScore  = 9998
	lossScore = 0

	// scoreInf bounds the root window and marks a move with no surviving continuation.
	scoreInf      = 9999
	rejectedScore = -scoreInf
)

// Decide returns the move Search picks.
func (e *Engine[S]) Decide(state S) (ataxx.Move, error) {
	res, err := e.Search(state)
	if err != nil {
		return ataxx.Move{}, err
	}
	return res.BestMove, nil
}

// Search runs a full-window alpha-beta search of e.depth plies from state, then prunes
// cache entries that the game can no longer reach.
func (e *Engine[S]) Search(state S) (SearchResult, error) {
	moves := state.LegalMoves()
	if len(moves) == 0 {
		return SearchResult{}, ErrNoLegalMove
	}

	start := time.Now()
	e.stats = Stats{}
	e.self = state.ActivePlayer()
	e.opp = e.self.Opponent()

	found, ok := e.search(state, e.depth, -scoreInf, scoreInf)
	if !ok {
		// every line was rejected; any legal move is as good as another
		found = RatedMove{Move: moves[0], Rating: rejectedScore, Depth: e.depth}
	}

	if e.cache != nil {
		threshold := 0
		if next, err := state.ApplyMove(found.Move); err == nil {
			threshold = next.CountPieces(ataxx.Empty)
		} else {
			threshold = state.CountPieces(ataxx.Empty)
		}
		e.stats.Evicted = e.cache.evictStale(threshold)
		e.stats.CacheSize = e.cache.len()
	}

	res := SearchResult{
		BestMove: found.Move,
		Rating:   found.Rating,
		Depth:    found.Depth,
		Stats:    e.stats,
		TimeUsed: time.Since(start),
	}
	e.log.Debug().
		Str("player", e.self.String()).
		Str("move", res.BestMove.String()).
		Int("rating", res.Rating).
		Int("depth", res.Depth).
		Int64("states", e.stats.States).
		Int64("alpha_cutoffs", e.stats.AlphaCutoffs).
		Int64("beta_cutoffs", e.stats.BetaCutoffs).
		Int64("hits", e.stats.Hits).
		Int64("overdrives", e.stats.Overdrives).
		Int64("collisions", e.stats.Collisions).
		Int64("bumps", e.stats.Bumps).
		Int("cache_size", e.stats.CacheSize).
		Int("evicted", e.stats.Evicted).
		Dur("elapsed", res.TimeUsed).
		Msg("search-finished")
	return res, nil
}

// search rates state with plies left, maximizing when self is on move. ok is false when no
// move was found inside the window.
func (e *Engine[S]) search(state S, plies, alpha, beta int) (RatedMove, bool) {
	var key uint64
	if e.cache != nil {
		key = hashState(e.zobrist, state)
		if entry, hit := e.cache.lookup(key); hit {
			switch {
			case !sameState(entry.state, state):
				e.stats.Collisions++
			case entry.found.Depth > plies && entry.found.usable(alpha, beta):
				e.stats.Overdrives++
				return entry.found, true
			case entry.found.Depth == plies && entry.found.usable(alpha, beta):
				e.stats.Hits++
				return entry.found, true
			default:
				e.stats.Bumps++
			}
		}
	}

	alpha0, beta0 := alpha, beta
	maximizing := state.ActivePlayer() == e.self

	var best ataxx.Move
	bestRating := scoreInf
	if maximizing {
		bestRating = -scoreInf
	}

	for _, m := range state.LegalMoves() {
		e.stats.States++
		rating := e.rateMove(state, m, plies-1, alpha, beta)
		if maximizing {
			if rating > bestRating {
				bestRating = rating
				best = m
			}
			alpha = max(alpha, rating)
			if alpha >= beta {
				e.stats.BetaCutoffs++
				break
			}
		} else {
			if rating < bestRating {
				bestRating = rating
				best = m
			}
			beta = min(beta, rating)
			if alpha >= beta {
				e.stats.AlphaCutoffs++
				break
			}
		}
	}

	if best.IsZero() {
		return RatedMove{Rating: bestRating, Depth: plies}, false
	}

	found := RatedMove{Move: best, Rating: bestRating, Depth: plies}
	switch {
	case bestRating <= alpha0:
		found.bound = boundUpper
	case bestRating >= beta0:
		found.bound = boundLower
	}
	if e.cache != nil {
		e.cache.insert(key, &cacheEntry[S]{
			state:     state,
			found:     found,
			staleness: state.CountPieces(ataxx.Empty),
		})
	}
	return found, true
}

// rateMove applies m and rates the result for self: game-ending states first, then a deeper
// search while plies remain, else the heuristic.
func (e *Engine[S]) rateMove(state S, m ataxx.Move, plies, alpha, beta int) int {
	next, err := state.ApplyMove(m)
	if err != nil {
		// LegalMoves only yields legal moves; treat a broken State as a dead line
		return rejectedScore
	}

	if rating, over := e.terminal(next); over {
		return rating
	}
	if plies > 0 {
		found, ok := e.search(next, plies, alpha, beta)
		if !ok {
			return rejectedScore
		}
		return found.Rating
	}
	return clampHeuristic(e.heuristic(next, e.self, e.opp))
}

// terminal scores states where the game is decided no matter what follows.
// A tie on a full board counts as a loss for self.
func (e *Engine[S]) terminal(next S) (int, bool) {
	ours := next.CountPieces(e.self)
	theirs := next.CountPieces(e.opp)

	if theirs == 0 {
		return winScore, true
	}
	if ours+theirs == ataxx.NumCells {
		return majority(ours), true
	}
	if len(next.LegalMoves()) == 0 {
		// the side that can still move takes every empty square
		rest := ataxx.NumCells - ours - theirs
		if next.ActivePlayer() == e.self {
			theirs += rest
		} else {
			ours += rest
		}
		return majority(ours), true
	}
	return 0, false
}

func majority(ours int) int {
	if 2*ours > ataxx.NumCells {
		return winScore
	}
	return lossScore
}

func clampHeuristic(v int) int {
	if v > winScore {
		return winScore
	}
	if v < -winScore {
		return -winScore
	}
	return v
}
