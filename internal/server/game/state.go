package game

import (
	"fmt"
	"sync"
	"time"

	"ataxx/internal/ataxx"
	"ataxx/internal/engine"
	"ataxx/internal/store"
)

const (
	SeatHuman = "human"
	SeatAI    = "ai"
)

// Seat says who plays one side. Tier and Depth only apply to AI seats; Depth 0 keeps the tier's.
type Seat struct {
	Kind  string `json:"kind"`
	Tier  string `json:"tier,omitempty"`
	Depth int    `json:"depth,omitempty"`
}

func (s Seat) String() string {
	if s.Kind == SeatAI {
		return fmt.Sprintf("ai:%s", s.Tier)
	}
	return s.Kind
}

// SearchInfo describes the last engine move of a game.
type SearchInfo struct {
	Move      ataxx.Move   `json:"move"`
	Rating    int          `json:"rating"`
	Depth     int          `json:"depth"`
	Stats     engine.Stats `json:"stats"`
	ElapsedMs int64        `json:"elapsed_ms"`
}

type GameState struct {
	ID         string
	Pos        *ataxx.Position
	Seats      [2]Seat // [0] plays A, [1] plays B
	InitialFEN string
	Moves      []store.MoveEntry
	LastSearch *SearchInfo
	CreatedAt  time.Time
	UpdatedAt  time.Time

	// mu serializes moves; held for the whole engine search
	mu      sync.Mutex
	engines [2]*engine.Engine[*ataxx.Position]
	saved   bool
}

func seatIndex(c ataxx.Cell) int { return int(c) - 1 }

// Snapshot is an immutable view of a game for callers outside the package.
type Snapshot struct {
	ID         string            `json:"id"`
	FEN        string            `json:"fen"`
	Turn       string            `json:"turn"`
	Seats      [2]Seat           `json:"seats"`
	Board      [][]string        `json:"board"` // [y][x]: "A", "B" or ""
	LegalMoves []ataxx.Move      `json:"legal_moves"`
	Moves      []store.MoveEntry `json:"moves"`
	Outcome    Outcome           `json:"outcome"`
	LastSearch *SearchInfo       `json:"last_search,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

type Outcome struct {
	Over   bool   `json:"over"`
	ScoreA int    `json:"score_a"`
	ScoreB int    `json:"score_b"`
	Winner string `json:"winner,omitempty"` // "A", "B" or "draw" once over
}

// snapshot must be called with g.mu held.
func (g *GameState) snapshot() Snapshot {
	out := g.Pos.Outcome()
	s := Snapshot{
		ID:         g.ID,
		FEN:        g.Pos.Encode(),
		Turn:       g.Pos.ActivePlayer().String(),
		Seats:      g.Seats,
		Board:      boardRows(g.Pos),
		LegalMoves: append([]ataxx.Move(nil), g.Pos.LegalMoves()...),
		Moves:      append([]store.MoveEntry(nil), g.Moves...),
		Outcome:    Outcome{Over: out.Over, ScoreA: out.ScoreA, ScoreB: out.ScoreB},
		CreatedAt:  g.CreatedAt,
		UpdatedAt:  g.UpdatedAt,
	}
	if out.Over {
		s.Outcome.Winner = store.WinnerName(out.Winner)
	}
	if g.LastSearch != nil {
		info := *g.LastSearch
		s.LastSearch = &info
	}
	return s
}

// record must be called with g.mu held and only once the game is over.
func (g *GameState) record() *store.GameRecord {
	out := g.Pos.Outcome()
	return &store.GameRecord{
		ID:         g.ID,
		StartedAt:  g.CreatedAt,
		EndedAt:    g.UpdatedAt,
		SeatA:      g.Seats[0].String(),
		SeatB:      g.Seats[1].String(),
		ScoreA:     out.ScoreA,
		ScoreB:     out.ScoreB,
		Winner:     store.WinnerName(out.Winner),
		InitialFEN: g.InitialFEN,
		FinalFEN:   g.Pos.Encode(),
		Moves:      append([]store.MoveEntry(nil), g.Moves...),
	}
}

func boardRows(p *ataxx.Position) [][]string {
	rows := make([][]string, ataxx.Size)
	for y := 0; y < ataxx.Size; y++ {
		rows[y] = make([]string, ataxx.Size)
		for x := 0; x < ataxx.Size; x++ {
			if c, _ := p.PieceAt(x, y); c.IsPlayer() {
				rows[y][x] = c.String()
			}
		}
	}
	return rows
}
