package game

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ataxx/internal/ataxx"
	"ataxx/internal/engine"
	"ataxx/internal/store"
)

var (
	ErrGameNotFound = errors.New("game not found")
	ErrNotYourTurn  = errors.New("not this seat's turn")
	ErrGameOver     = errors.New("game is over")
	ErrInvalidSeat  = errors.New("invalid seat")
)

// Listener is told about every state change. It runs on the mover's goroutine and must not block.
type Listener func(Snapshot)

type Manager struct {
	mu    sync.RWMutex
	games map[string]*GameState

	listenersMu sync.RWMutex
	listeners   []Listener

	store      store.Store // nil: finished games are not recorded
	maxDepth   int
	engineOpts []engine.Option
	log        zerolog.Logger
}

type ManagerOption func(*Manager)

func WithStore(s store.Store) ManagerOption {
	return func(m *Manager) { m.store = s }
}

// WithMaxDepth caps the depth an AI seat may ask for.
func WithMaxDepth(d int) ManagerOption {
	return func(m *Manager) { m.maxDepth = d }
}

// WithEngineOptions is passed to every engine the manager builds.
func WithEngineOptions(opts ...engine.Option) ManagerOption {
	return func(m *Manager) { m.engineOpts = append(m.engineOpts, opts...) }
}

func WithLogger(l zerolog.Logger) ManagerOption {
	return func(m *Manager) { m.log = l }
}

func NewManager(opts ...ManagerOption) *Manager {
	m := &Manager{
		games:    make(map[string]*GameState),
		maxDepth: 5,
		log:      log.Logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

func (m *Manager) OnChange(l Listener) {
	m.listenersMu.Lock()
	defer m.listenersMu.Unlock()
	m.listeners = append(m.listeners, l)
}

func (m *Manager) notify(s Snapshot) {
	m.listenersMu.RLock()
	defer m.listenersMu.RUnlock()
	for _, l := range m.listeners {
		l(s)
	}
}

// NewEngine builds an engine for an AI seat, validating tier and depth.
func (m *Manager) NewEngine(seat Seat) (*engine.Engine[*ataxx.Position], error) {
	st, err := engine.StrategyByName(seat.Tier)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSeat, err)
	}
	if seat.Depth < 0 || seat.Depth > m.maxDepth {
		return nil, fmt.Errorf("%w: depth %d outside 1..%d", ErrInvalidSeat, seat.Depth, m.maxDepth)
	}
	depth := seat.Depth
	if depth == 0 {
		// a tier's own depth is capped, not rejected
		depth = min(st.Depth, m.maxDepth)
	}
	opts := append([]engine.Option{engine.WithLogger(m.log)}, m.engineOpts...)
	return engine.NewFromStrategy[*ataxx.Position](st, depth, opts...)
}

// NewGame starts a session. An empty fen means the standard opening.
func (m *Manager) NewGame(seats [2]Seat, fen string) (Snapshot, error) {
	pos := ataxx.NewInitialPosition()
	if fen != "" {
		var err error
		if pos, err = ataxx.DecodePosition(fen); err != nil {
			return Snapshot{}, err
		}
	}

	now := time.Now()
	g := &GameState{
		ID:         uuid.NewString(),
		Pos:        pos,
		Seats:      seats,
		InitialFEN: pos.Encode(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	for i, seat := range seats {
		switch seat.Kind {
		case SeatHuman:
		case SeatAI:
			// one engine per seat for the whole game; never shared
			e, err := m.NewEngine(seat)
			if err != nil {
				return Snapshot{}, err
			}
			g.engines[i] = e
		default:
			return Snapshot{}, fmt.Errorf("%w: kind %q", ErrInvalidSeat, seat.Kind)
		}
	}

	m.mu.Lock()
	m.games[g.ID] = g
	m.mu.Unlock()

	m.log.Info().Str("game", g.ID).Str("a", seats[0].String()).Str("b", seats[1].String()).Msg("game-created")

	g.mu.Lock()
	snap := g.snapshot()
	g.mu.Unlock()
	m.notify(snap)
	return snap, nil
}

func (m *Manager) lookup(id string) (*GameState, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	return g, nil
}

func (m *Manager) Get(id string) (Snapshot, error) {
	g, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot(), nil
}

// List returns every session, oldest first.
func (m *Manager) List() []Snapshot {
	m.mu.RLock()
	games := make([]*GameState, 0, len(m.games))
	for _, g := range m.games {
		games = append(games, g)
	}
	m.mu.RUnlock()

	out := make([]Snapshot, 0, len(games))
	for _, g := range games {
		g.mu.Lock()
		out = append(out, g.snapshot())
		g.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[id]; !ok {
		return fmt.Errorf("%w: %s", ErrGameNotFound, id)
	}
	delete(m.games, id)
	return nil
}

// Play applies a human move for the seat on move.
func (m *Manager) Play(ctx context.Context, id string, mv ataxx.Move) (Snapshot, error) {
	g, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}

	g.mu.Lock()
	if err := g.ready(SeatHuman); err != nil {
		g.mu.Unlock()
		return Snapshot{}, err
	}
	player := g.Pos.ActivePlayer()
	next, err := g.Pos.ApplyMove(mv)
	if err != nil {
		g.mu.Unlock()
		return Snapshot{}, err
	}
	g.advance(next, store.MoveEntry{Player: player.String(), Move: mv})
	snap, rec := g.snapshot(), m.finished(g)
	g.mu.Unlock()

	m.after(ctx, snap, rec)
	return snap, nil
}

// AIMove lets the engine of the seat on move pick and play its move.
func (m *Manager) AIMove(ctx context.Context, id string) (Snapshot, error) {
	g, err := m.lookup(id)
	if err != nil {
		return Snapshot{}, err
	}

	g.mu.Lock()
	if err := g.ready(SeatAI); err != nil {
		g.mu.Unlock()
		return Snapshot{}, err
	}
	player := g.Pos.ActivePlayer()
	e := g.engines[seatIndex(player)]
	res, err := e.Search(g.Pos)
	if err != nil {
		g.mu.Unlock()
		return Snapshot{}, err
	}
	next, err := g.Pos.ApplyMove(res.BestMove)
	if err != nil {
		g.mu.Unlock()
		return Snapshot{}, fmt.Errorf("engine move %s: %w", res.BestMove, err)
	}
	g.LastSearch = &SearchInfo{
		Move:      res.BestMove,
		Rating:    res.Rating,
		Depth:     res.Depth,
		Stats:     res.Stats,
		ElapsedMs: res.TimeUsed.Milliseconds(),
	}
	g.advance(next, store.MoveEntry{
		Player: player.String(),
		Move:   res.BestMove,
		Rating: res.Rating,
		Depth:  res.Depth,
	})
	snap, rec := g.snapshot(), m.finished(g)
	g.mu.Unlock()

	m.log.Debug().Str("game", id).Str("move", res.BestMove.String()).Int("rating", res.Rating).Msg("ai-moved")
	m.after(ctx, snap, rec)
	return snap, nil
}

// ready checks that the game goes on and the seat on move is of the given kind. g.mu held.
func (g *GameState) ready(kind string) error {
	if g.Pos.Outcome().Over {
		return ErrGameOver
	}
	if seat := g.Seats[seatIndex(g.Pos.ActivePlayer())]; seat.Kind != kind {
		return fmt.Errorf("%w: %s is played by %s", ErrNotYourTurn, g.Pos.ActivePlayer(), seat)
	}
	return nil
}

func (g *GameState) advance(next *ataxx.Position, entry store.MoveEntry) {
	entry.Ply = len(g.Moves) + 1
	g.Pos = next
	g.Moves = append(g.Moves, entry)
	g.UpdatedAt = time.Now()
}

// finished returns the record to persist when the game just ended. g.mu held.
func (m *Manager) finished(g *GameState) *store.GameRecord {
	if g.saved || !g.Pos.Outcome().Over {
		return nil
	}
	g.saved = true
	return g.record()
}

func (m *Manager) after(ctx context.Context, snap Snapshot, rec *store.GameRecord) {
	if rec != nil {
		m.log.Info().Str("game", rec.ID).Int("score_a", rec.ScoreA).Int("score_b", rec.ScoreB).
			Str("winner", rec.Winner).Msg("game-over")
		if m.store != nil {
			if err := m.store.SaveGame(ctx, rec); err != nil {
				m.log.Error().Err(err).Str("game", rec.ID).Msg("save-game")
			}
		}
	}
	m.notify(snap)
}
