package engine

import (
	"testing"

	"ataxx/internal/ataxx"
)

func TestStrategiesSortedAndKnown(t *testing.T) {
	all := Strategies()
	want := []string{"advanced", "aggressive", "beginner", "defensive", "intermediate"}
	if len(all) != len(want) {
		t.Fatalf("got %d strategies, want %d", len(all), len(want))
	}
	for i, st := range all {
		if st.Name != want[i] {
			t.Fatalf("strategy %d = %q, want %q", i, st.Name, want[i])
		}
		if st.Depth != 2 {
			t.Fatalf("%s has depth %d, want 2 plies", st.Name, st.Depth)
		}
	}
	if _, err := StrategyByName("grandmaster"); err == nil {
		t.Fatalf("unknown strategy accepted")
	}
}

func TestEveryStrategyPlaysLegalMoves(t *testing.T) {
	for _, st := range Strategies() {
		t.Run(st.Name, func(t *testing.T) {
			e, err := NewFromStrategy[*ataxx.Position](st, 0, WithSeed(3))
			if err != nil {
				t.Fatal(err)
			}
			if e.Depth() != st.Depth {
				t.Fatalf("depth = %d, want %d", e.Depth(), st.Depth)
			}
			p := ataxx.NewInitialPosition()
			for ply := 0; ply < 4; ply++ {
				m, err := e.Decide(p)
				if err != nil {
					t.Fatal(err)
				}
				if !p.IsMoveLegal(m) {
					t.Fatalf("ply %d: illegal move %s", ply, m)
				}
				if p, err = p.ApplyMove(m); err != nil {
					t.Fatal(err)
				}
			}
		})
	}
}

func TestDepthOverride(t *testing.T) {
	st, err := StrategyByName("advanced")
	if err != nil {
		t.Fatal(err)
	}
	e, err := NewFromStrategy[*ataxx.Position](st, 1)
	if err != nil {
		t.Fatal(err)
	}
	if e.Depth() != 1 {
		t.Fatalf("depth = %d, want override 1", e.Depth())
	}
}

func TestStrategyTakesImmediateWin(t *testing.T) {
	st, _ := StrategyByName("aggressive")
	p := ataxx.NewPosition()
	for _, sq := range [][3]int{{0, 0, 1}, {4, 4, 2}, {4, 5, 2}} {
		if err := p.SetPiece(sq[0], sq[1], ataxx.Cell(sq[2])); err != nil {
			t.Fatal(err)
		}
	}
	if err := p.SetPiece(2, 2, ataxx.PlayerA); err != nil {
		t.Fatal(err)
	}
	e, err := NewFromStrategy[*ataxx.Position](st, 1, WithSeed(5))
	if err != nil {
		t.Fatal(err)
	}
	m, err := e.Decide(p)
	if err != nil {
		t.Fatal(err)
	}
	next, err := p.ApplyMove(m)
	if err != nil {
		t.Fatal(err)
	}
	if got := next.CountPieces(ataxx.PlayerB); got != 0 {
		t.Fatalf("%s leaves %d B pieces, a move capturing both exists", m, got)
	}
}
