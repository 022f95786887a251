package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"time"

	"ataxx/internal/ataxx"
	"ataxx/internal/engine"
)

// BenchReport compares the same searches with and without the transposition cache.
type BenchReport struct {
	Strategy       string
	Depth          int
	Positions      int
	Disagreements  int
	StatesCached   int64
	StatesUncached int64
	Hits           int64
	Overdrives     int64
	Collisions     int64
	TimeCached     time.Duration
	TimeUncached   time.Duration
}

// samplePositions plays random moves from the opening and keeps one position per game.
func samplePositions(rng *rand.Rand, n int) []*ataxx.Position {
	out := make([]*ataxx.Position, 0, n)
	for len(out) < n {
		pos := ataxx.NewInitialPosition()
		plies := 2 + rng.Intn(30)
		for i := 0; i < plies; i++ {
			moves := pos.LegalMoves()
			if len(moves) == 0 {
				break
			}
			next, err := pos.ApplyMove(moves[rng.Intn(len(moves))])
			if err != nil {
				break
			}
			pos = next
		}
		if pos.HasLegalMove() {
			out = append(out, pos)
		}
	}
	return out
}

func runBenchmark(ctx context.Context, st engine.Strategy, depth, n int, seed int64) (BenchReport, error) {
	rep := BenchReport{Strategy: st.Name, Depth: depth}
	for _, pos := range samplePositions(rand.New(rand.NewSource(seed)), n) {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		// fresh engines per position: a warm cache would answer from earlier searches
		cached, err := engine.NewFromStrategy[*ataxx.Position](st, depth, engine.WithSeed(seed))
		if err != nil {
			return rep, err
		}
		plain, err := engine.NewFromStrategy[*ataxx.Position](st, depth, engine.WithoutCache())
		if err != nil {
			return rep, err
		}

		rc, err := cached.Search(pos)
		if err != nil {
			return rep, err
		}
		rp, err := plain.Search(pos)
		if err != nil {
			return rep, err
		}

		rep.Positions++
		if rc.BestMove != rp.BestMove || rc.Rating != rp.Rating {
			rep.Disagreements++
		}
		rep.StatesCached += rc.Stats.States
		rep.StatesUncached += rp.Stats.States
		rep.Hits += rc.Stats.Hits
		rep.Overdrives += rc.Stats.Overdrives
		rep.Collisions += rc.Stats.Collisions
		rep.TimeCached += rc.TimeUsed
		rep.TimeUncached += rp.TimeUsed
	}
	return rep, nil
}

func (r BenchReport) Print(w io.Writer) {
	fmt.Fprintf(w, "\n=== Cache benchmark: %s, depth %d, %d positions ===\n", r.Strategy, r.Depth, r.Positions)
	fmt.Fprintf(w, "states   cached %d / uncached %d\n", r.StatesCached, r.StatesUncached)
	fmt.Fprintf(w, "time     cached %v / uncached %v\n", r.TimeCached, r.TimeUncached)
	fmt.Fprintf(w, "hits %d, overdrives %d, collisions %d\n", r.Hits, r.Overdrives, r.Collisions)
	fmt.Fprintf(w, "disagreements: %d\n", r.Disagreements)
}
