package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"ataxx/internal/ataxx"
	"ataxx/internal/config"
)

var ErrNotFound = errors.New("game record not found")

// MoveEntry is one played move. Rating and Depth are set for engine moves only.
type MoveEntry struct {
	Ply    int        `json:"ply" bson:"ply"`
	Player string     `json:"player" bson:"player"`
	Move   ataxx.Move `json:"move" bson:"move"`
	Rating int        `json:"rating,omitempty" bson:"rating,omitempty"`
	Depth  int        `json:"depth,omitempty" bson:"depth,omitempty"`
}

// GameRecord is a finished game.
type GameRecord struct {
	ID         string      `json:"id" bson:"_id"`
	StartedAt  time.Time   `json:"startedAt" bson:"startedAt"`
	EndedAt    time.Time   `json:"endedAt" bson:"endedAt"`
	SeatA      string      `json:"seatA" bson:"seatA"`
	SeatB      string      `json:"seatB" bson:"seatB"`
	ScoreA     int         `json:"scoreA" bson:"scoreA"`
	ScoreB     int         `json:"scoreB" bson:"scoreB"`
	Winner     string      `json:"winner" bson:"winner"` // "A", "B" or "draw"
	InitialFEN string      `json:"initialFen" bson:"initialFen"`
	FinalFEN   string      `json:"finalFen" bson:"finalFen"`
	Moves      []MoveEntry `json:"moves" bson:"moves"`
}

// Store persists finished games. Saving a record with an existing ID replaces it.
type Store interface {
	SaveGame(ctx context.Context, rec *GameRecord) error
	GetGame(ctx context.Context, id string) (*GameRecord, error)
	// ListGames returns the most recently ended games first; limit <= 0 means all.
	ListGames(ctx context.Context, limit int) ([]GameRecord, error)
	Close() error
}

// Open builds the backend selected by cfg. The "none" driver yields a nil Store.
func Open(ctx context.Context, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Driver {
	case config.DriverNone, "":
		return nil, nil
	case config.DriverSQLite:
		s, err := OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, err
		}
		return s, nil
	case config.DriverMongo:
		s, err := OpenMongo(ctx, cfg.Storage.MongoURI, cfg.Storage.MongoDatabase)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

func WinnerName(c ataxx.Cell) string {
	if c.IsPlayer() {
		return c.String()
	}
	return "draw"
}
