package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ataxx/internal/ataxx"
	"ataxx/internal/engine"
	"ataxx/internal/server/game"
	"ataxx/internal/store"
)

// Handler 实现 /api/* 的所有接口
type Handler struct {
	games       *game.Manager
	records     store.Store // nil: /api/records answers 503
	defaultTier string
	log         zerolog.Logger
}

type HandlerOption func(*Handler)

func WithRecords(s store.Store) HandlerOption {
	return func(h *Handler) { h.records = s }
}

func WithDefaultTier(tier string) HandlerOption {
	return func(h *Handler) { h.defaultTier = tier }
}

func NewHandler(games *game.Manager, opts ...HandlerOption) *Handler {
	h := &Handler{
		games:       games,
		defaultTier: "intermediate",
		log:         log.Logger,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) handleNewGame(w http.ResponseWriter, r *http.Request) {
	var req NewGameRequest
	// 空请求体 = 全部默认
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.A.Kind == "" {
		req.A.Kind = game.SeatHuman
	}
	if req.B.Kind == "" {
		req.B.Kind = game.SeatAI
	}
	for _, seat := range []*game.Seat{&req.A, &req.B} {
		if seat.Kind == game.SeatAI && seat.Tier == "" {
			seat.Tier = h.defaultTier
		}
	}

	snap, err := h.games.NewGame([2]game.Seat{req.A, req.B}, req.FEN)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSONStatus(w, http.StatusCreated, snap)
}

func (h *Handler) handleListGames(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.games.List())
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	snap, err := h.games.Get(mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, snap)
}

func (h *Handler) handleDeleteGame(w http.ResponseWriter, r *http.Request) {
	if err := h.games.Remove(mux.Vars(r)["id"]); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handlePlay(w http.ResponseWriter, r *http.Request) {
	var req PlayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	mv, err := ataxx.NewMove(req.Move.FromX, req.Move.FromY, req.Move.ToX, req.Move.ToY)
	if err != nil {
		h.fail(w, err)
		return
	}
	snap, err := h.games.Play(r.Context(), mux.Vars(r)["id"], mv)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, snap)
}

func (h *Handler) handleAiMove(w http.ResponseWriter, r *http.Request) {
	snap, err := h.games.AIMove(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, snap)
}

// handleAnalyze 无状态分析：每个请求一个新引擎，不与对局共享
func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req AnalyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	if req.Tier == "" {
		req.Tier = h.defaultTier
	}
	e, err := h.games.NewEngine(game.Seat{Kind: game.SeatAI, Tier: req.Tier, Depth: req.Depth})
	if err != nil {
		h.fail(w, err)
		return
	}

	pos := ataxx.NewInitialPosition()
	if req.FEN != "" {
		if pos, err = ataxx.DecodePosition(req.FEN); err != nil {
			h.fail(w, err)
			return
		}
	}
	res, err := e.Search(pos)
	if err != nil {
		h.fail(w, err)
		return
	}
	next, err := pos.ApplyMove(res.BestMove)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, AnalyzeResponse{
		BestMove: res.BestMove,
		Rating:   res.Rating,
		Depth:    res.Depth,
		Stats:    res.Stats,
		TimeMs:   res.TimeUsed.Milliseconds(),
		Position: next.Encode(),
	})
}

func (h *Handler) handleTiers(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, tiersToDTO(engine.Strategies()))
}

func (h *Handler) handleRecords(w http.ResponseWriter, r *http.Request) {
	if h.records == nil {
		writeError(w, http.StatusServiceUnavailable, "game recording is disabled")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad limit")
			return
		}
		limit = n
	}
	recs, err := h.records.ListGames(r.Context(), limit)
	if err != nil {
		h.fail(w, err)
		return
	}
	if recs == nil {
		recs = []store.GameRecord{}
	}
	writeJSON(w, recs)
}

func (h *Handler) handleRecord(w http.ResponseWriter, r *http.Request) {
	if h.records == nil {
		writeError(w, http.StatusServiceUnavailable, "game recording is disabled")
		return
	}
	rec, err := h.records.GetGame(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, rec)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// fail maps domain errors onto status codes.
func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, game.ErrGameNotFound), errors.Is(err, store.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ataxx.ErrIllegalMove),
		errors.Is(err, ataxx.ErrInvalidMove),
		errors.Is(err, ataxx.ErrOutOfBounds),
		errors.Is(err, ataxx.ErrInvalidFEN),
		errors.Is(err, game.ErrInvalidSeat),
		errors.Is(err, engine.ErrInvalidDepth):
		status = http.StatusBadRequest
	case errors.Is(err, game.ErrNotYourTurn),
		errors.Is(err, game.ErrGameOver),
		errors.Is(err, engine.ErrNoLegalMove):
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Msg("request-failed")
	}
	writeError(w, status, err.Error())
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("writeJSON")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSONStatus(w, status, ErrorResponse{Error: msg})
}
