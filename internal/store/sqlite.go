package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const createGamesSQL = `
CREATE TABLE IF NOT EXISTS games (
	id TEXT PRIMARY KEY,
	started_at INTEGER,
	ended_at INTEGER,
	seat_a TEXT,
	seat_b TEXT,
	score_a INTEGER,
	score_b INTEGER,
	winner TEXT,
	initial_fen TEXT,
	final_fen TEXT,
	moves TEXT
);
CREATE INDEX IF NOT EXISTS games_ended_at ON games (ended_at);
`

const selectGamesSQL = `
SELECT id, started_at, ended_at, seat_a, seat_b, score_a, score_b, winner,
       initial_fen, final_fen, moves
FROM games`

type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens (and creates if needed) the database file at path.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// one writer; sqlite serializes anyway
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(createGamesSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}
	log.Info().Str("path", path).Msg("sqlite-store-ready")
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveGame(ctx context.Context, rec *GameRecord) error {
	moves, err := json.Marshal(rec.Moves)
	if err != nil {
		return fmt.Errorf("encode moves: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO games (id, started_at, ended_at, seat_a, seat_b, score_a, score_b,
			winner, initial_fen, final_fen, moves)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.StartedAt.UnixNano(),
		rec.EndedAt.UnixNano(),
		rec.SeatA,
		rec.SeatB,
		rec.ScoreA,
		rec.ScoreB,
		rec.Winner,
		rec.InitialFEN,
		rec.FinalFEN,
		string(moves),
	)
	if err != nil {
		return fmt.Errorf("save game %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetGame(ctx context.Context, id string) (*GameRecord, error) {
	row := s.db.QueryRowContext(ctx, selectGamesSQL+` WHERE id = ?`, id)
	rec, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *SQLiteStore) ListGames(ctx context.Context, limit int) ([]GameRecord, error) {
	query := selectGamesSQL + ` ORDER BY ended_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query games: %w", err)
	}
	defer rows.Close()

	var out []GameRecord
	for rows.Next() {
		rec, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(sc scanner) (*GameRecord, error) {
	var (
		rec              GameRecord
		started, ended   int64
		seatA, seatB     sql.NullString
		initial, final   sql.NullString
		winner, moveJSON sql.NullString
	)
	err := sc.Scan(&rec.ID, &started, &ended, &seatA, &seatB, &rec.ScoreA, &rec.ScoreB,
		&winner, &initial, &final, &moveJSON)
	if err != nil {
		return nil, err
	}
	rec.StartedAt = time.Unix(0, started).UTC()
	rec.EndedAt = time.Unix(0, ended).UTC()
	rec.SeatA, rec.SeatB = seatA.String, seatB.String
	rec.Winner = winner.String
	rec.InitialFEN, rec.FinalFEN = initial.String, final.String
	if moveJSON.Valid && moveJSON.String != "" {
		if err := json.Unmarshal([]byte(moveJSON.String), &rec.Moves); err != nil {
			return nil, fmt.Errorf("decode moves of %s: %w", rec.ID, err)
		}
	}
	return &rec, nil
}
