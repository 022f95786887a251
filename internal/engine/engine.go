package engine

import (
	"errors"
	"math/rand"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"ataxx/internal/ataxx"
)

var (
	ErrInvalidDepth = errors.New("search depth must be positive")
	ErrNilHeuristic = errors.New("heuristic is nil")
	ErrNoLegalMove  = errors.New("no legal move")
)

// State is what the engine needs from a board. *ataxx.Position implements it.
type State[S any] interface {
	ActivePlayer() ataxx.Cell
	PieceAt(x, y int) (ataxx.Cell, error)
	LegalMoves() []ataxx.Move
	ApplyMove(m ataxx.Move) (S, error)
	CountPieces(c ataxx.Cell) int
}

// Heuristic scores a non-terminal state at the horizon from self's point of view. Must be pure.
type Heuristic[S any] func(state S, self, opponent ataxx.Cell) int

// Engine is a depth-limited alpha-beta player. One instance per AI seat: it owns its cache and
// is not safe for concurrent use; never call Search again before the previous call returned.
type Engine[S State[S]] struct {
	depth     int
	heuristic Heuristic[S]
	zobrist   *zobrist
	cache     *cache[S] // nil when disabled
	log       zerolog.Logger

	// fixed for the duration of one Search
	self, opp ataxx.Cell
	stats     Stats
}

// Stats are per-call counters, for logging only.
type Stats struct {
	States       int64 `json:"states"`
	AlphaCutoffs int64 `json:"alpha_cutoffs"`
	BetaCutoffs  int64 `json:"beta_cutoffs"`
	Hits         int64 `json:"hits"`
	Overdrives   int64 `json:"overdrives"`
	Collisions   int64 `json:"collisions"`
	Bumps        int64 `json:"bumps"` // verified entries too shallow or with a bound outside the window
	CacheSize    int   `json:"cache_size"`
	Evicted      int   `json:"evicted"`
}

// SearchResult is what one Search call found.
type SearchResult struct {
	BestMove ataxx.Move
	Rating   int
	Depth    int
	Stats    Stats
	TimeUsed time.Duration
}

type options struct {
	rng     *rand.Rand
	noCache bool
	logger  *zerolog.Logger
}

type Option func(*options)

// WithSeed makes the zobrist table reproducible.
func WithSeed(seed int64) Option {
	return func(o *options) { o.rng = rand.New(rand.NewSource(seed)) }
}

func WithRand(rng *rand.Rand) Option {
	return func(o *options) { o.rng = rng }
}

// WithoutCache turns off the transposition cache. The chosen moves do not change.
func WithoutCache() Option {
	return func(o *options) { o.noCache = true }
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) { o.logger = &l }
}

// New builds an engine searching depth plies and scoring the horizon with h.
func New[S State[S]](depth int, h Heuristic[S], opts ...Option) (*Engine[S], error) {
	if depth < 1 {
		return nil, ErrInvalidDepth
	}
	if h == nil {
		return nil, ErrNilHeuristic
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.rng == nil {
		o.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	e := &Engine[S]{
		depth:     depth,
		heuristic: h,
		zobrist:   newZobrist(o.rng),
		log:       log.Logger,
	}
	if o.logger != nil {
		e.log = *o.logger
	}
	if !o.noCache {
		e.cache = newCache[S]()
	}
	return e, nil
}

func (e *Engine[S]) Depth() int { return e.depth }

// Stats returns the counters of the last Search.
func (e *Engine[S]) Stats() Stats { return e.stats }

// CacheLen is the number of cached positions; 0 when the cache is disabled.
func (e *Engine[S]) CacheLen() int {
	if e.cache == nil {
		return 0
	}
	return e.cache.len()
}
