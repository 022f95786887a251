package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"ataxx/internal/ataxx"
	"ataxx/internal/engine"
	"ataxx/internal/logging"
)

func main() {
	fen := flag.String("fen", "", "position to inspect (default: opening)")
	tier := flag.String("tier", "", "also search the position with this tier")
	depth := flag.Int("depth", 0, "override the tier's depth")
	flag.Parse()

	if err := logging.Setup("debug", true); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	pos := ataxx.NewInitialPosition()
	if *fen != "" {
		var err error
		if pos, err = ataxx.DecodePosition(*fen); err != nil {
			log.Fatal().Err(err).Msg("decode")
		}
	}
	fmt.Println("FEN:", pos.Encode())
	fmt.Print(pos)
	moves := pos.LegalMoves()
	fmt.Println("Legal moves:", len(moves))
	out := pos.Outcome()
	fmt.Printf("A %d / B %d, over=%v\n", out.ScoreA, out.ScoreB, out.Over)

	if *tier == "" {
		return
	}
	st, err := engine.StrategyByName(*tier)
	if err != nil {
		log.Fatal().Err(err).Msg("tier")
	}
	e, err := engine.NewFromStrategy[*ataxx.Position](st, *depth)
	if err != nil {
		log.Fatal().Err(err).Msg("engine")
	}
	res, err := e.Search(pos)
	if err != nil {
		log.Fatal().Err(err).Msg("search")
	}
	fmt.Printf("Best: %s rating %d depth %d in %v\n", res.BestMove, res.Rating, res.Depth, res.TimeUsed)
}
