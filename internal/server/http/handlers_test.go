package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"ataxx/internal/ataxx"
	"ataxx/internal/engine"
	"ataxx/internal/server/game"
	"ataxx/internal/store"
)

func TestMain(m *testing.M) {
	zerolog.SetGlobalLevel(zerolog.WarnLevel)
	os.Exit(m.Run())
}

type testServer struct {
	*httptest.Server
	games *game.Manager
	hub   *Hub
	web   string
}

func newTestServer(t *testing.T, records store.Store) *testServer {
	t.Helper()
	opts := []game.ManagerOption{game.WithEngineOptions(engine.WithSeed(1)), game.WithMaxDepth(3)}
	hopts := []HandlerOption{WithDefaultTier("beginner")}
	if records != nil {
		opts = append(opts, game.WithStore(records))
		hopts = append(hopts, WithRecords(records))
	}
	games := game.NewManager(opts...)
	hub := NewHub(games)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	web := t.TempDir()
	srv := httptest.NewServer(NewRouter(NewHandler(games, hopts...), hub, web, ""))
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return &testServer{Server: srv, games: games, hub: hub, web: web}
}

func (s *testServer) do(t *testing.T, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req, err := http.NewRequest(method, s.URL+path, &buf)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("%s %s: decode: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func TestGameFlow(t *testing.T) {
	s := newTestServer(t, nil)

	var snap game.Snapshot
	if code := s.do(t, http.MethodPost, "/api/games", nil, &snap); code != http.StatusCreated {
		t.Fatalf("create: %d", code)
	}
	if snap.Seats[0].Kind != game.SeatHuman || snap.Seats[1].Tier != "beginner" {
		t.Fatalf("default seats = %+v", snap.Seats)
	}

	mv := snap.LegalMoves[0]
	if code := s.do(t, http.MethodPost, "/api/games/"+snap.ID+"/move", PlayRequest{Move: mv}, &snap); code != http.StatusOK {
		t.Fatalf("move: %d", code)
	}
	if snap.Turn != "B" {
		t.Fatalf("turn after move = %s", snap.Turn)
	}

	if code := s.do(t, http.MethodPost, "/api/games/"+snap.ID+"/move", PlayRequest{Move: snap.LegalMoves[0]}, nil); code != http.StatusConflict {
		t.Fatalf("move on AI turn: %d, want 409", code)
	}
	if code := s.do(t, http.MethodPost, "/api/games/"+snap.ID+"/ai_move", nil, &snap); code != http.StatusOK {
		t.Fatalf("ai_move: %d", code)
	}
	if snap.Turn != "A" || len(snap.Moves) != 2 || snap.LastSearch == nil {
		t.Fatalf("after ai move: %+v", snap)
	}

	var got game.Snapshot
	if code := s.do(t, http.MethodGet, "/api/games/"+snap.ID, nil, &got); code != http.StatusOK || got.FEN != snap.FEN {
		t.Fatalf("state: %d %s", code, got.FEN)
	}
	var list []game.Snapshot
	if code := s.do(t, http.MethodGet, "/api/games", nil, &list); code != http.StatusOK || len(list) != 1 {
		t.Fatalf("list: %d %d", code, len(list))
	}
	if code := s.do(t, http.MethodDelete, "/api/games/"+snap.ID, nil, nil); code != http.StatusNoContent {
		t.Fatalf("delete: %d", code)
	}
	if code := s.do(t, http.MethodGet, "/api/games/"+snap.ID, nil, nil); code != http.StatusNotFound {
		t.Fatalf("deleted game: %d", code)
	}
}

func TestBadRequests(t *testing.T) {
	s := newTestServer(t, nil)
	var snap game.Snapshot
	s.do(t, http.MethodPost, "/api/games", NewGameRequest{B: game.Seat{Kind: game.SeatHuman}}, &snap)

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"unknown game", http.MethodGet, "/api/games/nope", nil, http.StatusNotFound},
		{"off board", http.MethodPost, "/api/games/" + snap.ID + "/move",
			PlayRequest{Move: ataxx.Move{FromX: 0, FromY: 0, ToX: -1, ToY: 0}}, http.StatusBadRequest},
		{"too far", http.MethodPost, "/api/games/" + snap.ID + "/move",
			PlayRequest{Move: ataxx.Move{FromX: 0, FromY: 0, ToX: 3, ToY: 0}}, http.StatusBadRequest},
		{"not own piece", http.MethodPost, "/api/games/" + snap.ID + "/move",
			PlayRequest{Move: ataxx.Move{FromX: 0, FromY: 9, ToX: 0, ToY: 8}}, http.StatusBadRequest},
		{"ai move for human", http.MethodPost, "/api/games/" + snap.ID + "/ai_move", nil, http.StatusConflict},
		{"bad seat", http.MethodPost, "/api/games", NewGameRequest{A: game.Seat{Kind: "robot"}}, http.StatusBadRequest},
		{"bad fen", http.MethodPost, "/api/games", NewGameRequest{FEN: "x/y"}, http.StatusBadRequest},
		{"wrong method", http.MethodPut, "/api/games", nil, http.StatusMethodNotAllowed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if code := s.do(t, tc.method, tc.path, tc.body, nil); code != tc.want {
				t.Fatalf("status = %d, want %d", code, tc.want)
			}
		})
	}

	resp, err := s.Client().Post(s.URL+"/api/games/"+snap.ID+"/move", "application/json", strings.NewReader("{"))
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("bad json: %d", resp.StatusCode)
	}
}

func TestAnalyze(t *testing.T) {
	s := newTestServer(t, nil)
	start := ataxx.NewInitialPosition()

	var res AnalyzeResponse
	code := s.do(t, http.MethodPost, "/api/analyze", AnalyzeRequest{FEN: start.Encode(), Tier: "aggressive", Depth: 1}, &res)
	if code != http.StatusOK {
		t.Fatalf("analyze: %d", code)
	}
	if !start.IsMoveLegal(res.BestMove) || res.Depth != 1 {
		t.Fatalf("analyze result %+v", res)
	}
	after, err := ataxx.DecodePosition(res.Position)
	if err != nil || after.ActivePlayer() != ataxx.PlayerB {
		t.Fatalf("position after move %q: %v", res.Position, err)
	}

	if code := s.do(t, http.MethodPost, "/api/analyze", AnalyzeRequest{Depth: 9}, nil); code != http.StatusBadRequest {
		t.Fatalf("too deep: %d", code)
	}
	if code := s.do(t, http.MethodPost, "/api/analyze", AnalyzeRequest{Tier: "nobody"}, nil); code != http.StatusBadRequest {
		t.Fatalf("unknown tier: %d", code)
	}
	full := strings.Repeat("xxxxxxxxxx/", 9) + "xxxxxxxxxx x"
	if code := s.do(t, http.MethodPost, "/api/analyze", AnalyzeRequest{FEN: full}, nil); code != http.StatusConflict {
		t.Fatalf("no moves: %d", code)
	}
}

func TestTiers(t *testing.T) {
	s := newTestServer(t, nil)
	var tiers []TierDTO
	if code := s.do(t, http.MethodGet, "/api/tiers", nil, &tiers); code != http.StatusOK || len(tiers) != 5 {
		t.Fatalf("tiers: %d %+v", code, tiers)
	}
}

func TestRecords(t *testing.T) {
	disabled := newTestServer(t, nil)
	if code := disabled.do(t, http.MethodGet, "/api/records", nil, nil); code != http.StatusServiceUnavailable {
		t.Fatalf("records without store: %d", code)
	}

	db, err := store.OpenSQLite(filepath.Join(t.TempDir(), "games.db"))
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()
	s := newTestServer(t, db)

	// A fills the last empty square and the game ends
	p := ataxx.NewPosition()
	for x := 0; x < ataxx.Size; x++ {
		for y := 0; y < ataxx.Size; y++ {
			c := ataxx.PlayerA
			if x == 0 {
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
	var snap game.Snapshot
	s.do(t, http.MethodPost, "/api/games", NewGameRequest{A: game.Seat{Kind: game.SeatHuman}, B: game.Seat{Kind: game.SeatHuman}, FEN: p.Encode()}, &snap)
	mv := ataxx.Move{FromX: 8, FromY: 8, ToX: 9, ToY: 9}
	if code := s.do(t, http.MethodPost, "/api/games/"+snap.ID+"/move", PlayRequest{Move: mv}, &snap); code != http.StatusOK {
		t.Fatalf("final move: %d", code)
	}
	if !snap.Outcome.Over || snap.Outcome.Winner != "A" {
		t.Fatalf("outcome %+v", snap.Outcome)
	}

	var recs []store.GameRecord
	if code := s.do(t, http.MethodGet, "/api/records?limit=5", nil, &recs); code != http.StatusOK || len(recs) != 1 {
		t.Fatalf("records: %d %d", code, len(recs))
	}
	var rec store.GameRecord
	if code := s.do(t, http.MethodGet, "/api/records/"+snap.ID, nil, &rec); code != http.StatusOK || rec.Winner != "A" {
		t.Fatalf("record: %d %+v", code, rec)
	}
	if code := s.do(t, http.MethodGet, "/api/records/missing", nil, nil); code != http.StatusNotFound {
		t.Fatalf("missing record: %d", code)
	}
	if code := s.do(t, http.MethodGet, "/api/records?limit=x", nil, nil); code != http.StatusBadRequest {
		t.Fatalf("bad limit: %d", code)
	}
}

func TestWebSocketPushesState(t *testing.T) {
	s := newTestServer(t, nil)
	var snap game.Snapshot
	s.do(t, http.MethodPost, "/api/games", NewGameRequest{B: game.Seat{Kind: game.SeatHuman}}, &snap)

	url := "ws" + strings.TrimPrefix(s.URL, "http") + "/ws/games/" + snap.ID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	read := func() WSMessage {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		var msg WSMessage
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		return msg
	}

	first := read()
	if first.Type != "state" || first.Game.ID != snap.ID || len(first.Game.Moves) != 0 {
		t.Fatalf("first message %+v", first)
	}

	if code := s.do(t, http.MethodPost, "/api/games/"+snap.ID+"/move", PlayRequest{Move: snap.LegalMoves[0]}, nil); code != http.StatusOK {
		t.Fatalf("move: %d", code)
	}
	update := read()
	if len(update.Game.Moves) != 1 || update.Game.Turn != "B" {
		t.Fatalf("update %+v", update.Game)
	}

	if _, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(s.URL, "http")+"/ws/games/nope", nil); err == nil {
		t.Fatalf("websocket for unknown game accepted")
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	var body map[string]string
	if code := s.do(t, http.MethodGet, "/health", nil, &body); code != http.StatusOK || body["status"] != "ok" {
		t.Fatalf("health: %d %v", code, body)
	}
}

func TestCORSPreflight(t *testing.T) {
	h := WithCORS(http.NotFoundHandler(), []string{"http://localhost:3000"})
	req := httptest.NewRequest(http.MethodOptions, "/api/games", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Fatalf("allow origin = %q", got)
	}
}
