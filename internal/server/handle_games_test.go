package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/playperu/fingergame/internal/catalog"
	"github.com/playperu/fingergame/internal/database"
	"github.com/playperu/fingergame/internal/engine"
	"github.com/playperu/fingergame/internal/fingergame"
	"github.com/playperu/fingergame/internal/leaderboard"
	"github.com/playperu/fingergame/internal/session"
)

var testTasks = []fingergame.Task{
	{Type: fingergame.TaskTruth, Text: "easy truth", Difficulty: fingergame.DifficultyEasy},
	{Type: fingergame.TaskAction, Text: "hard action", Difficulty: fingergame.DifficultyHard},
	{Type: fingergame.TaskTruth, Text: "hard truth", Difficulty: fingergame.DifficultyHard},
}

func testDeps(t *testing.T) Deps {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Memory)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	board, err := leaderboard.NewStore(ctx, db)
	if err != nil {
		t.Fatalf("init leaderboard: %v", err)
	}

	cat := catalog.New(testTasks, []string{"https://example.com/a.gif"}, []string{"idiot"})
	broker := NewBroker()
	return Deps{
		Sessions:    session.NewStore(session.WithNotifier(broker.Publish)),
		Broker:      broker,
		Catalog:     cat,
		Engine:      engine.New(cat, nil),
		Leaderboard: leaderboard.NewCached(board),
	}
}

func testRouter(t *testing.T, deps Deps) chi.Router {
	t.Helper()
	return NewRouter(slog.New(slog.DiscardHandler), deps)
}

func do(t *testing.T, h http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(w.Body).Decode(&v); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
	return v
}

func createGame(t *testing.T, h http.Handler) string {
	t.Helper()
	w := do(t, h, http.MethodPost, "/api/games", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	resp := decode[CreateGameResponse](t, w)
	if resp.GameID == "" {
		t.Fatal("expected a game id")
	}
	return resp.GameID
}

func expectError(t *testing.T, w *httptest.ResponseRecorder, status int, msg string) {
	t.Helper()
	if w.Code != status {
		t.Fatalf("expected %d, got %d: %s", status, w.Code, w.Body.String())
	}
	resp := decode[ErrorResponse](t, w)
	if msg != "" && resp.Error != msg {
		t.Fatalf("expected error %q, got %q", msg, resp.Error)
	}
}

func TestGameFlowAnaBo(t *testing.T) {
	r := testRouter(t, testDeps(t))
	id := createGame(t, r)

	w := do(t, r, http.MethodGet, "/api/games/"+id+"/status", nil)
	if got := strings.TrimSpace(w.Body.String()); got != `{"players":[],"eliminated":[],"winner":null}` {
		t.Fatalf("unexpected empty status %s", got)
	}

	for _, name := range []string{"Ana", "Bo"} {
		w := do(t, r, http.MethodPost, "/api/games/"+id+"/players", PlayerRequest{PlayerName: name})
		if w.Code != http.StatusOK {
			t.Fatalf("add %s: expected 200, got %d: %s", name, w.Code, w.Body.String())
		}
	}

	w = do(t, r, http.MethodPost, "/api/games/"+id+"/eliminate", PlayerRequest{PlayerName: "Ana"})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	elim := decode[EliminateResponse](t, w)
	if !reflect.DeepEqual(elim.Eliminated, []string{"Ana"}) || elim.Winner == nil || *elim.Winner != "Bo" {
		t.Fatalf("unexpected elimination %+v", elim)
	}

	st := decode[fingergame.Status](t, do(t, r, http.MethodGet, "/api/games/"+id+"/status", nil))
	if !reflect.DeepEqual(st.Players, []string{"Ana", "Bo"}) || st.Winner == nil || *st.Winner != "Bo" {
		t.Fatalf("unexpected status %+v", st)
	}
}

func TestAddPlayerErrors(t *testing.T) {
	r := testRouter(t, testDeps(t))
	id := createGame(t, r)
	do(t, r, http.MethodPost, "/api/games/"+id+"/players", PlayerRequest{PlayerName: "Ana"})

	tests := []struct {
		name   string
		path   string
		body   any
		status int
		msg    string
	}{
		{"duplicate", "/api/games/" + id + "/players", PlayerRequest{PlayerName: "Ana"}, http.StatusBadRequest, "player exists"},
		{"blank", "/api/games/" + id + "/players", PlayerRequest{PlayerName: "  "}, http.StatusBadRequest, ""},
		{"bad body", "/api/games/" + id + "/players", "{", http.StatusBadRequest, "invalid request body"},
		{"missing game", "/api/games/nope/players", PlayerRequest{PlayerName: "Bo"}, http.StatusNotFound, "game not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expectError(t, do(t, r, http.MethodPost, tt.path, tt.body), tt.status, tt.msg)
		})
	}
}

func TestEliminateErrors(t *testing.T) {
	r := testRouter(t, testDeps(t))
	id := createGame(t, r)
	do(t, r, http.MethodPost, "/api/games/"+id+"/players", PlayerRequest{PlayerName: "Ana"})

	expectError(t, do(t, r, http.MethodPost, "/api/games/"+id+"/eliminate", PlayerRequest{PlayerName: "Zed"}),
		http.StatusNotFound, "player not found")
	expectError(t, do(t, r, http.MethodPost, "/api/games/nope/eliminate", PlayerRequest{PlayerName: "Ana"}),
		http.StatusNotFound, "game not found")
	expectError(t, do(t, r, http.MethodGet, "/api/games/nope/status", nil),
		http.StatusNotFound, "game not found")
}

func TestRandomTask(t *testing.T) {
	r := testRouter(t, testDeps(t))
	id := createGame(t, r)

	for range 10 {
		w := do(t, r, http.MethodGet, "/api/games/"+id+"/random-task?difficulty=hard", nil)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if task := decode[fingergame.Task](t, w); task.Difficulty != fingergame.DifficultyHard {
			t.Fatalf("expected a hard task, got %+v", task)
		}
	}

	if w := do(t, r, http.MethodGet, "/api/games/"+id+"/random-task", nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200 without filter, got %d", w.Code)
	}

	expectError(t, do(t, r, http.MethodGet, "/api/games/"+id+"/random-task?difficulty=medium", nil),
		http.StatusNotFound, "no tasks for that difficulty")
	expectError(t, do(t, r, http.MethodGet, "/api/games/"+id+"/random-task?difficulty=extreme", nil),
		http.StatusBadRequest, "")
	expectError(t, do(t, r, http.MethodGet, "/api/games/nope/random-task", nil),
		http.StatusNotFound, "game not found")
}

func TestCatalogEndpoints(t *testing.T) {
	r := testRouter(t, testDeps(t))

	tasks := decode[[]fingergame.Task](t, do(t, r, http.MethodGet, "/api/tasks", nil))
	if len(tasks) != len(testTasks) {
		t.Fatalf("expected %d tasks, got %d", len(testTasks), len(tasks))
	}
	memes := decode[[]string](t, do(t, r, http.MethodGet, "/api/memes", nil))
	if len(memes) != 1 {
		t.Fatalf("expected 1 meme, got %v", memes)
	}
	words := decode[[]string](t, do(t, r, http.MethodGet, "/api/bad-words", nil))
	if !reflect.DeepEqual(words, []string{"idiot"}) {
		t.Fatalf("unexpected bad words %v", words)
	}
}

func TestEmptyCatalogServesEmptyArrays(t *testing.T) {
	deps := testDeps(t)
	deps.Catalog = catalog.New(nil, nil, nil)
	r := testRouter(t, deps)

	for _, path := range []string{"/api/tasks", "/api/memes", "/api/bad-words"} {
		if got := strings.TrimSpace(do(t, r, http.MethodGet, path, nil).Body.String()); got != "[]" {
			t.Errorf("%s: expected [], got %s", path, got)
		}
	}
}

func TestLeaderboardEndpoints(t *testing.T) {
	r := testRouter(t, testDeps(t))

	results := []fingergame.Result{
		{Name: "Ana", Result: 1},
		{Name: "Ana", Result: 1},
		{Name: "Bo", Result: 0},
		{Result: 1},
	}
	for _, res := range results {
		w := do(t, r, http.MethodPost, "/api/game-result", res)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
		}
		if resp := decode[GameResultResponse](t, w); !resp.Success || resp.ID == "" {
			t.Fatalf("unexpected response %+v", resp)
		}
	}

	got := decode[map[string]int](t, do(t, r, http.MethodGet, "/api/leaderboard", nil))
	want := map[string]int{"Ana": 2, fingergame.AnonymousName: 1}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}

	expectError(t, do(t, r, http.MethodPost, "/api/game-result", "nope"), http.StatusBadRequest, "")
}

type brokenBoard struct{}

func (brokenBoard) ReportResult(context.Context, fingergame.Result) (string, error) {
	return "", errors.Join(fingergame.ErrExternalStore, errors.New("disk full"))
}

func (brokenBoard) FetchWinCounts(context.Context) (map[string]int, error) {
	return nil, errors.Join(fingergame.ErrExternalStore, errors.New("disk full"))
}

func TestLeaderboardFailureIs500(t *testing.T) {
	deps := testDeps(t)
	deps.Leaderboard = brokenBoard{}
	r := testRouter(t, deps)

	expectError(t, do(t, r, http.MethodPost, "/api/game-result", fingergame.Result{Name: "Ana", Result: 1}),
		http.StatusInternalServerError, fingergame.ErrExternalStore.Error())
	expectError(t, do(t, r, http.MethodGet, "/api/leaderboard", nil),
		http.StatusInternalServerError, fingergame.ErrExternalStore.Error())
}

func TestQRCode(t *testing.T) {
	deps := testDeps(t)
	deps.PublicURL = "https://play.example.com/"
	r := testRouter(t, deps)
	id := createGame(t, r)

	w := do(t, r, http.MethodGet, "/api/games/"+id+"/qr", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != "image/png" {
		t.Fatalf("expected image/png, got %q", ct)
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("\x89PNG")) {
		t.Fatal("expected a PNG body")
	}

	expectError(t, do(t, r, http.MethodGet, "/api/games/nope/qr", nil), http.StatusNotFound, "game not found")
}

func TestGameURL(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/games/abc/qr", nil)
	req.Host = "party.local:8080"
	req.Header.Set("X-Forwarded-Proto", "https")

	if got := gameURL(req, "", "abc"); got != "https://party.local:8080/api/games/abc/status" {
		t.Errorf("unexpected derived url %q", got)
	}
	if got := gameURL(req, "https://x.example/", "abc"); got != "https://x.example/api/games/abc/status" {
		t.Errorf("unexpected public url %q", got)
	}
}

func TestEventsStream(t *testing.T) {
	deps := testDeps(t)
	srv := httptest.NewServer(testRouter(t, deps))
	defer srv.Close()

	id := deps.Sessions.Create()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/games/" + id + "/events"

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var ev session.Event
	if err := conn.ReadJSON(&ev); err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if ev.Type != EventSnapshot || ev.GameID != id {
		t.Fatalf("unexpected snapshot %+v", ev)
	}

	// The subscription is registered before the upgrade completes.
	if n := deps.Broker.Subscribers(id); n != 1 {
		t.Fatalf("expected 1 subscriber, got %d", n)
	}

	deps.Sessions.AddPlayer(id, "Ana")
	deps.Sessions.AddPlayer(id, "Bo")
	deps.Sessions.Eliminate(id, "Bo")

	var types []string
	for range 4 {
		if err := conn.ReadJSON(&ev); err != nil {
			t.Fatalf("read event: %v", err)
		}
		types = append(types, ev.Type)
	}
	want := []string{session.EventPlayerAdded, session.EventPlayerAdded, session.EventPlayerEliminated, session.EventWinner}
	if !reflect.DeepEqual(types, want) {
		t.Fatalf("expected %v, got %v", want, types)
	}
	if ev.Status.Winner == nil || *ev.Status.Winner != "Ana" {
		t.Fatalf("expected Ana to win, got %+v", ev.Status)
	}
}

func TestEventsMissingGame(t *testing.T) {
	r := testRouter(t, testDeps(t))
	expectError(t, do(t, r, http.MethodGet, "/api/games/nope/events", nil), http.StatusNotFound, "game not found")
}

func TestSnapshotWindowLosesNoEvents(t *testing.T) {
	deps := testDeps(t)
	id := deps.Sessions.Create()

	// A player joins while the snapshot is being taken.
	snapshot := func(id string) (fingergame.Status, error) {
		if _, err := deps.Sessions.AddPlayer(id, "Ana"); err != nil {
			t.Fatalf("add player: %v", err)
		}
		return deps.Sessions.Status(id)
	}

	ch, st, err := subscribeWithSnapshot(deps.Broker, id, snapshot)
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer deps.Broker.Unsubscribe(id, ch)

	if !reflect.DeepEqual(st.Players, []string{"Ana"}) {
		t.Fatalf("expected snapshot with Ana, got %v", st.Players)
	}
	select {
	case data := <-ch:
		var ev session.Event
		if err := json.Unmarshal(data, &ev); err != nil {
			t.Fatalf("decoding event: %v", err)
		}
		if ev.Type != session.EventPlayerAdded || ev.PlayerName != "Ana" {
			t.Fatalf("unexpected event %+v", ev)
		}
	default:
		t.Fatal("expected the concurrent join to be queued")
	}
}

func TestSnapshotFailureUnsubscribes(t *testing.T) {
	deps := testDeps(t)
	if _, _, err := subscribeWithSnapshot(deps.Broker, "nope", deps.Sessions.Status); !errors.Is(err, fingergame.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if n := deps.Broker.Subscribers("nope"); n != 0 {
		t.Fatalf("expected no subscribers, got %d", n)
	}
}
