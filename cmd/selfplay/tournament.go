package main

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"ataxx/internal/ataxx"
	"ataxx/internal/engine"
	"ataxx/internal/store"
)

// Tournament plays every ordered pair of strategies against each other.
type Tournament struct {
	Strategies []engine.Strategy
	Games      int
	Depth      int
	MaxMoves   int
	Parallel   int
	Seed       int64
	Records    store.Store // optional
}

type GameResult struct {
	A, B    string
	Outcome ataxx.Outcome
	Plies   int
	Capped  bool // stopped by MaxMoves; scored on the pieces on the board
	Record  *store.GameRecord
}

type Standing struct {
	Name                string
	Wins, Losses, Draws int
	Pieces              int
}

type Table []Standing

type pairing struct {
	a, b engine.Strategy
	seed int64
}

func (t *Tournament) pairings() []pairing {
	var out []pairing
	n := int64(0)
	for i, a := range t.Strategies {
		for j, b := range t.Strategies {
			if i == j {
				continue
			}
			for g := 0; g < t.Games; g++ {
				// 交替先后手
				p := pairing{a: a, b: b, seed: t.Seed + n}
				if g%2 == 1 {
					p.a, p.b = b, a
				}
				out = append(out, p)
				n++
			}
		}
	}
	return out
}

func (t *Tournament) Run(ctx context.Context) (Table, error) {
	pairs := t.pairings()
	results := make([]GameResult, len(pairs))

	g, ctx := errgroup.WithContext(ctx)
	if t.Parallel > 0 {
		g.SetLimit(t.Parallel)
	}
	for i, p := range pairs {
		g.Go(func() error {
			res, err := playGame(ctx, p.a, p.b, t.Depth, t.MaxMoves, p.seed)
			if err != nil {
				return fmt.Errorf("%s vs %s: %w", p.a.Name, p.b.Name, err)
			}
			results[i] = res
			log.Info().Str("a", res.A).Str("b", res.B).Int("score_a", res.Outcome.ScoreA).
				Int("score_b", res.Outcome.ScoreB).Int("plies", res.Plies).Bool("capped", res.Capped).Msg("game-finished")
			if t.Records != nil {
				if err := t.Records.SaveGame(ctx, res.Record); err != nil {
					return fmt.Errorf("save game: %w", err)
				}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tally(results), nil
}

// playGame runs one game between freshly built engines; nothing is shared with other games.
func playGame(ctx context.Context, a, b engine.Strategy, depth, maxMoves int, seed int64) (GameResult, error) {
	ea, err := engine.NewFromStrategy[*ataxx.Position](a, depth, engine.WithSeed(seed))
	if err != nil {
		return GameResult{}, err
	}
	eb, err := engine.NewFromStrategy[*ataxx.Position](b, depth, engine.WithSeed(seed+1<<32))
	if err != nil {
		return GameResult{}, err
	}

	pos := ataxx.NewInitialPosition()
	rec := &store.GameRecord{
		ID:         uuid.NewString(),
		StartedAt:  time.Now(),
		SeatA:      "ai:" + a.Name,
		SeatB:      "ai:" + b.Name,
		InitialFEN: pos.Encode(),
	}
	res := GameResult{A: a.Name, B: b.Name, Record: rec}

	for ply := 0; ; ply++ {
		if out := pos.Outcome(); out.Over {
			res.Outcome = out
			break
		}
		if ply >= maxMoves {
			res.Capped = true
			res.Outcome = pos.Outcome()
			switch {
			case res.Outcome.ScoreA > res.Outcome.ScoreB:
				res.Outcome.Winner = ataxx.PlayerA
			case res.Outcome.ScoreB > res.Outcome.ScoreA:
				res.Outcome.Winner = ataxx.PlayerB
			}
			break
		}
		if err := ctx.Err(); err != nil {
			return GameResult{}, err
		}

		player := pos.ActivePlayer()
		e := ea
		if player == ataxx.PlayerB {
			e = eb
		}
		sr, err := e.Search(pos)
		if err != nil {
			return GameResult{}, err
		}
		if pos, err = pos.ApplyMove(sr.BestMove); err != nil {
			return GameResult{}, err
		}
		rec.Moves = append(rec.Moves, store.MoveEntry{
			Ply:    ply + 1,
			Player: player.String(),
			Move:   sr.BestMove,
			Rating: sr.Rating,
			Depth:  sr.Depth,
		})
		res.Plies = ply + 1
	}

	rec.EndedAt = time.Now()
	rec.ScoreA, rec.ScoreB = res.Outcome.ScoreA, res.Outcome.ScoreB
	rec.Winner = store.WinnerName(res.Outcome.Winner)
	rec.FinalFEN = pos.Encode()
	return res, nil
}

func tally(results []GameResult) Table {
	by := map[string]*Standing{}
	get := func(name string) *Standing {
		if by[name] == nil {
			by[name] = &Standing{Name: name}
		}
		return by[name]
	}
	for _, r := range results {
		sa, sb := get(r.A), get(r.B)
		sa.Pieces += r.Outcome.ScoreA
		sb.Pieces += r.Outcome.ScoreB
		switch r.Outcome.Winner {
		case ataxx.PlayerA:
			sa.Wins++
			sb.Losses++
		case ataxx.PlayerB:
			sb.Wins++
			sa.Losses++
		default:
			sa.Draws++
			sb.Draws++
		}
	}
	table := make(Table, 0, len(by))
	for _, s := range by {
		table = append(table, *s)
	}
	sort.Slice(table, func(i, j int) bool {
		if table[i].Wins != table[j].Wins {
			return table[i].Wins > table[j].Wins
		}
		if table[i].Pieces != table[j].Pieces {
			return table[i].Pieces > table[j].Pieces
		}
		return table[i].Name < table[j].Name
	})
	return table
}

func (t Table) Print(w io.Writer) {
	fmt.Fprintf(w, "\n=== Final Score ===\n")
	fmt.Fprintf(w, "%-14s %5s %6s %5s %7s\n", "tier", "wins", "losses", "draws", "pieces")
	for _, s := range t {
		fmt.Fprintf(w, "%-14s %5d %6d %5d %7d\n", s.Name, s.Wins, s.Losses, s.Draws, s.Pieces)
	}
}
