package httpserver

import (
	"ataxx/internal/ataxx"
	"ataxx/internal/engine"
	"ataxx/internal/server/game"
)

// NewGameRequest 创建对局。缺省：A 为人类，B 为默认难度的 AI。
type NewGameRequest struct {
	A   game.Seat `json:"a"`
	B   game.Seat `json:"b"`
	FEN string    `json:"fen,omitempty"`
}

type PlayRequest struct {
	Move ataxx.Move `json:"move"`
}

// AnalyzeRequest asks for a best move without creating a game.
type AnalyzeRequest struct {
	FEN   string `json:"fen"`
	Tier  string `json:"tier"`
	Depth int    `json:"depth"`
}

type AnalyzeResponse struct {
	BestMove ataxx.Move   `json:"best_move"`
	Rating   int          `json:"rating"`
	Depth    int          `json:"depth"`
	Stats    engine.Stats `json:"stats"`
	TimeMs   int64        `json:"time_ms"`
	Position string       `json:"position"` // after the best move
}

type TierDTO struct {
	Name  string `json:"name"`
	Depth int    `json:"depth"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// WSMessage is pushed to websocket clients on every change of their game.
type WSMessage struct {
	Type string         `json:"type"` // "state"
	Game *game.Snapshot `json:"game"`
}

func tiersToDTO(ss []engine.Strategy) []TierDTO {
	out := make([]TierDTO, len(ss))
	for i, s := range ss {
		out[i] = TierDTO{Name: s.Name, Depth: s.Depth}
	}
	return out
}
