package game

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"ataxx/internal/ataxx"
	"ataxx/internal/engine"
	"ataxx/internal/store"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

type memStore struct {
	mu   sync.Mutex
	recs []*store.GameRecord
}

func (s *memStore) SaveGame(_ context.Context, rec *store.GameRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs = append(s.recs, rec)
	return nil
}

func (s *memStore) GetGame(_ context.Context, id string) (*store.GameRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, r := range s.recs {
		if r.ID == id {
			return r, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *memStore) ListGames(context.Context, int) ([]store.GameRecord, error) { return nil, nil }
func (s *memStore) Close() error                                               { return nil }

var (
	human = Seat{Kind: SeatHuman}
	bot   = Seat{Kind: SeatAI, Tier: "beginner", Depth: 1}
)

func newTestManager(opts ...ManagerOption) *Manager {
	return NewManager(append([]ManagerOption{WithEngineOptions(engine.WithSeed(1))}, opts...)...)
}

// oneEmptyFEN is a board with A everywhere but a few B pieces and an empty (9,9), A to move.
func oneEmptyFEN(t *testing.T) string {
	t.Helper()
	p := ataxx.NewPosition()
	for x := 0; x < ataxx.Size; x++ {
		for y := 0; y < ataxx.Size; y++ {
			c := ataxx.PlayerA
			if y == 0 {
				c = ataxx.PlayerB
			}
			if x == 9 && y == 9 {
				c = ataxx.Empty
			}
			if err := p.SetPiece(x, y, c); err != nil {
				t.Fatal(err)
			}
		}
	}
	return p.Encode()
}

func TestHumanVersusAI(t *testing.T) {
	m := newTestManager()
	snap, err := m.NewGame([2]Seat{human, bot}, "")
	if err != nil {
		t.Fatal(err)
	}
	if snap.Turn != "A" || len(snap.LegalMoves) == 0 || snap.Board[0][0] != "A" || snap.Board[9][0] != "B" {
		t.Fatalf("unexpected opening snapshot: %+v", snap)
	}

	if _, err := m.AIMove(context.Background(), snap.ID); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("AI moved for the human: %v", err)
	}

	mv := snap.LegalMoves[0]
	snap, err = m.Play(context.Background(), snap.ID, mv)
	if err != nil {
		t.Fatalf("Play: %v", err)
	}
	if snap.Turn != "B" || len(snap.Moves) != 1 || snap.Moves[0].Ply != 1 {
		t.Fatalf("after human move: %+v", snap)
	}

	if _, err := m.Play(context.Background(), snap.ID, snap.LegalMoves[0]); !errors.Is(err, ErrNotYourTurn) {
		t.Fatalf("human moved for the AI: %v", err)
	}

	snap, err = m.AIMove(context.Background(), snap.ID)
	if err != nil {
		t.Fatalf("AIMove: %v", err)
	}
	if snap.Turn != "A" || len(snap.Moves) != 2 || snap.LastSearch == nil || snap.Moves[1].Depth != 1 {
		t.Fatalf("after AI move: %+v", snap)
	}
}

func TestIllegalMoveRejected(t *testing.T) {
	m := newTestManager()
	snap, err := m.NewGame([2]Seat{human, human}, "")
	if err != nil {
		t.Fatal(err)
	}
	bad := ataxx.Move{FromX: 0, FromY: 9, ToX: 0, ToY: 8} // B's piece while A is on move
	if _, err := m.Play(context.Background(), snap.ID, bad); !errors.Is(err, ataxx.ErrIllegalMove) {
		t.Fatalf("err = %v, want ErrIllegalMove", err)
	}
	got, err := m.Get(snap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.FEN != snap.FEN || len(got.Moves) != 0 {
		t.Fatalf("rejected move changed the game")
	}
}

func TestNewEngineCapsTierDepth(t *testing.T) {
	m := newTestManager(WithMaxDepth(1))
	e, err := m.NewEngine(Seat{Kind: SeatAI, Tier: "advanced"})
	if err != nil {
		t.Fatal(err)
	}
	if e.Depth() != 1 {
		t.Fatalf("depth = %d, want tier depth capped to 1", e.Depth())
	}
	if _, err := m.NewEngine(Seat{Kind: SeatAI, Tier: "advanced", Depth: 2}); !errors.Is(err, ErrInvalidSeat) {
		t.Fatalf("explicit depth over the cap: err = %v, want ErrInvalidSeat", err)
	}
}

func TestNewGameValidation(t *testing.T) {
	m := newTestManager(WithMaxDepth(3))
	tests := map[string][2]Seat{
		"unknown kind": {{Kind: "robot"}, human},
		"unknown tier": {{Kind: SeatAI, Tier: "grandmaster"}, human},
		"too deep":     {{Kind: SeatAI, Tier: "beginner", Depth: 4}, human},
	}
	for name, seats := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := m.NewGame(seats, ""); !errors.Is(err, ErrInvalidSeat) {
				t.Fatalf("err = %v, want ErrInvalidSeat", err)
			}
		})
	}
	if _, err := m.NewGame([2]Seat{human, human}, "garbage"); !errors.Is(err, ataxx.ErrInvalidFEN) {
		t.Fatalf("bad fen: %v", err)
	}
	if len(m.List()) != 0 {
		t.Fatalf("failed creations left sessions behind")
	}
}

func TestUnknownGame(t *testing.T) {
	m := newTestManager()
	if _, err := m.Get("nope"); !errors.Is(err, ErrGameNotFound) {
		t.Fatal(err)
	}
	if _, err := m.Play(context.Background(), "nope", ataxx.Move{}); !errors.Is(err, ErrGameNotFound) {
		t.Fatal(err)
	}
	if _, err := m.AIMove(context.Background(), "nope"); !errors.Is(err, ErrGameNotFound) {
		t.Fatal(err)
	}
	if err := m.Remove("nope"); !errors.Is(err, ErrGameNotFound) {
		t.Fatal(err)
	}
}

func TestFinishedGameIsRecordedOnce(t *testing.T) {
	st := &memStore{}
	m := newTestManager(WithStore(st))

	var mu sync.Mutex
	var seen []Snapshot
	m.OnChange(func(s Snapshot) {
		mu.Lock()
		seen = append(seen, s)
		mu.Unlock()
	})

	snap, err := m.NewGame([2]Seat{bot, human}, oneEmptyFEN(t))
	if err != nil {
		t.Fatal(err)
	}
	snap, err = m.AIMove(context.Background(), snap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if !snap.Outcome.Over || snap.Outcome.Winner != "A" {
		t.Fatalf("outcome = %+v, want A to win", snap.Outcome)
	}
	if _, err := m.AIMove(context.Background(), snap.ID); !errors.Is(err, ErrGameOver) {
		t.Fatalf("move after the end: %v", err)
	}

	if len(st.recs) != 1 {
		t.Fatalf("saved %d records, want 1", len(st.recs))
	}
	rec := st.recs[0]
	if rec.ID != snap.ID || rec.SeatA != "ai:beginner" || rec.SeatB != "human" || len(rec.Moves) != 1 {
		t.Fatalf("record = %+v", rec)
	}
	if rec.ScoreA+rec.ScoreB != ataxx.NumCells || rec.Winner != "A" {
		t.Fatalf("scores %d/%d winner %s", rec.ScoreA, rec.ScoreB, rec.Winner)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 2 || !seen[1].Outcome.Over {
		t.Fatalf("listener saw %d changes", len(seen))
	}
}

func TestConcurrentAIMovesAreSerialized(t *testing.T) {
	m := newTestManager()
	snap, err := m.NewGame([2]Seat{bot, bot}, "")
	if err != nil {
		t.Fatal(err)
	}

	const callers = 8
	var wg sync.WaitGroup
	errs := make(chan error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := m.AIMove(context.Background(), snap.ID)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok := 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrGameOver):
		default:
			t.Fatalf("AIMove: %v", err)
		}
	}
	got, err := m.Get(snap.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Moves) != ok {
		t.Fatalf("%d successful moves but %d recorded", ok, len(got.Moves))
	}
	for i, entry := range got.Moves {
		if entry.Ply != i+1 {
			t.Fatalf("ply numbering broken: %+v", got.Moves)
		}
	}
}

func TestListAndRemove(t *testing.T) {
	m := newTestManager()
	a, _ := m.NewGame([2]Seat{human, human}, "")
	b, _ := m.NewGame([2]Seat{human, bot}, "")
	list := m.List()
	if len(list) != 2 {
		t.Fatalf("List = %d games", len(list))
	}
	if err := m.Remove(a.ID); err != nil {
		t.Fatal(err)
	}
	list = m.List()
	if len(list) != 1 || list[0].ID != b.ID {
		t.Fatalf("List after remove = %+v", list)
	}
}
