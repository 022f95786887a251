package engine

import "ataxx/internal/ataxx"

type bound uint8

const (
	boundExact bound = iota
	boundLower       // node failed high: true rating >= stored
	boundUpper       // node failed low: true rating <= stored
)

func (b bound) String() string {
	switch b {
	case boundLower:
		return "lower"
	case boundUpper:
		return "upper"
	default:
		return "exact"
	}
}

// RatedMove is the result of one node: the best move (zero Move when none),
// its rating and the plies it was searched to.
type RatedMove struct {
	Move   ataxx.Move
	Rating int
	Depth  int
	bound  bound
}

// usable reports whether a stored rating answers a node searched in (alpha, beta).
func (r RatedMove) usable(alpha, beta int) bool {
	switch r.bound {
	case boundLower:
		return r.Rating >= beta
	case boundUpper:
		return r.Rating <= alpha
	default:
		return true
	}
}

// cacheEntry keeps the exact state for collision checks and the number of empty squares
// at insertion. Pieces never leave the board, so a state with more empties than the
// current one cannot come back.
type cacheEntry[S any] struct {
	state     S
	found     RatedMove
	staleness int
}

type cache[S any] struct {
	entries map[uint64]*cacheEntry[S]
}

func newCache[S any]() *cache[S] {
	return &cache[S]{entries: make(map[uint64]*cacheEntry[S], 1<<12)}
}

func (c *cache[S]) lookup(key uint64) (*cacheEntry[S], bool) {
	e, ok := c.entries[key]
	return e, ok
}

// insert overwrites whatever is stored under key; the caller already inspected it.
func (c *cache[S]) insert(key uint64, e *cacheEntry[S]) {
	c.entries[key] = e
}

// evictStale drops entries with more empty squares than threshold and returns how many went.
func (c *cache[S]) evictStale(threshold int) int {
	n := 0
	for k, e := range c.entries {
		if e.staleness > threshold {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

func (c *cache[S]) len() int { return len(c.entries) }
