package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"strings"

	"github.com/rs/zerolog/log"

	"ataxx/internal/config"
	"ataxx/internal/engine"
	"ataxx/internal/logging"
	"ataxx/internal/store"
)

func main() {
	configPath := flag.String("config", "", "JSON config file; its storage section is used with -record")
	tiers := flag.String("tiers", "", "comma separated tiers (default: all)")
	games := flag.Int("games", 2, "games per pairing, colours alternate")
	depth := flag.Int("depth", 0, "override every tier's depth")
	maxMoves := flag.Int("maxmoves", 400, "stop a game after this many plies")
	parallel := flag.Int("parallel", 4, "games played at once")
	seed := flag.Int64("seed", 1, "zobrist seed of game 0; game i uses seed+i")
	record := flag.Bool("record", false, "save finished games to the configured storage")
	bench := flag.Bool("bench", false, "compare cached and uncached search instead of playing")
	benchPositions := flag.Int("bench-positions", 20, "positions sampled by -bench")
	pprofAddr := flag.String("pprof", "", "serve pprof on this address, e.g. localhost:6060")
	logLevel := flag.String("log-level", "info", "log level")
	flag.Parse()

	if err := logging.Setup(*logLevel, true); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if *pprofAddr != "" {
		go func() {
			log.Info().Str("addr", *pprofAddr).Msg("pprof-listening")
			if err := http.ListenAndServe(*pprofAddr, nil); err != nil {
				log.Warn().Err(err).Msg("pprof failed")
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	strategies, err := pickStrategies(*tiers)
	if err != nil {
		log.Fatal().Err(err).Msg("tiers")
	}

	if *bench {
		d := *depth
		if d == 0 {
			d = 3
		}
		rep, err := runBenchmark(ctx, strategies[0], d, *benchPositions, *seed)
		if err != nil {
			log.Fatal().Err(err).Msg("benchmark")
		}
		rep.Print(os.Stdout)
		if rep.Disagreements > 0 {
			os.Exit(1)
		}
		return
	}

	var records store.Store
	if *record {
		cfg, err := config.Load(*configPath)
		if err != nil {
			log.Fatal().Err(err).Msg("load config")
		}
		if records, err = store.Open(ctx, cfg); err != nil {
			log.Fatal().Err(err).Msg("open storage")
		}
		if records == nil {
			log.Fatal().Msg("-record needs a storage driver in the config")
		}
		defer records.Close()
	}

	t := &Tournament{
		Strategies: strategies,
		Games:      *games,
		Depth:      *depth,
		MaxMoves:   *maxMoves,
		Parallel:   *parallel,
		Seed:       *seed,
		Records:    records,
	}
	table, err := t.Run(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("tournament")
	}
	table.Print(os.Stdout)
}

func pickStrategies(list string) ([]engine.Strategy, error) {
	if list == "" {
		return engine.Strategies(), nil
	}
	var out []engine.Strategy
	for _, name := range strings.Split(list, ",") {
		st, err := engine.StrategyByName(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	return out, nil
}
