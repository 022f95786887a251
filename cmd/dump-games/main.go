package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"ataxx/internal/config"
	"ataxx/internal/logging"
	"ataxx/internal/store"
)

func main() {
	configPath := flag.String("config", "", "JSON config file (default $ATAXX_CONFIG)")
	dbPath := flag.String("db", "", "SQLite database, overrides the config storage")
	id := flag.String("id", "", "print only this game")
	limit := flag.Int("limit", 0, "print at most this many games (0 = all)")
	moves := flag.Bool("moves", false, "include the move list")
	flag.Parse()

	if err := logging.Setup("warn", true); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}
	if *dbPath != "" {
		if _, err := os.Stat(*dbPath); os.IsNotExist(err) {
			log.Fatal().Str("path", *dbPath).Msg("database not found")
		}
		cfg.Storage.Driver = config.DriverSQLite
		cfg.Storage.SQLitePath = *dbPath
	}

	ctx := context.Background()
	s, err := store.Open(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("open storage")
	}
	if s == nil {
		log.Fatal().Msg("storage driver is none; pass -db or a config with storage")
	}
	defer s.Close()

	var recs []store.GameRecord
	if *id != "" {
		rec, err := s.GetGame(ctx, *id)
		if err != nil {
			log.Fatal().Err(err).Msg("get game")
		}
		recs = append(recs, *rec)
	} else if recs, err = s.ListGames(ctx, *limit); err != nil {
		log.Fatal().Err(err).Msg("list games")
	}

	for _, rec := range recs {
		printRecord(rec, *moves)
	}
	fmt.Printf("Total games found: %d\n", len(recs))
}

func printRecord(rec store.GameRecord, withMoves bool) {
	fmt.Printf("Game ID: %s\n", rec.ID)
	fmt.Printf("Time: %s - %s\n", rec.StartedAt.Format(time.RFC822), rec.EndedAt.Format(time.RFC822))
	fmt.Printf("Players: %s (A) vs %s (B)\n", rec.SeatA, rec.SeatB)
	fmt.Printf("Result: %d - %d, winner %s, %d moves\n", rec.ScoreA, rec.ScoreB, rec.Winner, len(rec.Moves))
	fmt.Printf("Final: %s\n", rec.FinalFEN)
	if withMoves {
		formatted, _ := json.MarshalIndent(rec.Moves, "", "  ")
		fmt.Println(string(formatted))
	}
	fmt.Println("--------------------------------------------------")
}
