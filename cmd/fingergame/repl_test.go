package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/playperu/fingergame/internal/catalog"
	"github.com/playperu/fingergame/internal/database"
	"github.com/playperu/fingergame/internal/engine"
	"github.com/playperu/fingergame/internal/fingergame"
	"github.com/playperu/fingergame/internal/leaderboard"
	"github.com/playperu/fingergame/internal/readiness"
	"github.com/playperu/fingergame/internal/session"
	"github.com/playperu/fingergame/internal/winstats"
	"github.com/playperu/fingergame/internal/wizard"
)

var quickSpinner = wizard.Spinner{Interval: time.Millisecond, Duration: 3 * time.Millisecond}

type replHarness struct {
	repl  *REPL
	wz    *wizard.Wizard
	stats *winstats.Stats
	out   *bytes.Buffer
}

func newReplHarness(t *testing.T) *replHarness {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, database.Memory)
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	cat := catalog.New([]fingergame.Task{
		{Type: fingergame.TaskTruth, Text: "tell a secret", Difficulty: fingergame.DifficultyEasy},
		{Type: fingergame.TaskAction, Text: "do a dance", Difficulty: fingergame.DifficultyHard},
	}, []string{"https://example.com/m.gif"}, []string{"ana"})

	backend, err := winstats.NewSQLBackend(ctx, db)
	if err != nil {
		t.Fatalf("stats backend: %v", err)
	}
	stats, err := winstats.Open(ctx, backend, cat.Denylist())
	if err != nil {
		t.Fatalf("open stats: %v", err)
	}
	store, err := leaderboard.NewStore(ctx, db)
	if err != nil {
		t.Fatalf("leaderboard store: %v", err)
	}

	out := &bytes.Buffer{}
	con := newConsole(out)
	wz := wizard.New(wizard.Config{
		Games:         wizard.NewLocalGames(session.NewStore()),
		Engine:        engine.New(cat, nil),
		Denylist:      cat.Denylist(),
		Stats:         stats,
		Leaderboard:   store,
		HoldThreshold: 10 * time.Millisecond,
		OnReadiness:   con.readiness,
	})
	t.Cleanup(wz.Close)

	r := newREPL(wz, con, stats, store)
	r.eliminationSpinner = quickSpinner
	r.winnerSpinner = quickSpinner
	return &replHarness{repl: r, wz: wz, stats: stats, out: out}
}

func (h *replHarness) run(t *testing.T, lines ...string) string {
	t.Helper()
	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	if err := h.repl.Run(context.Background(), in); err != nil {
		t.Fatalf("run: %v", err)
	}
	h.wz.Wait()
	return h.out.String()
}

func expectOutput(t *testing.T, out string, want ...string) {
	t.Helper()
	for _, w := range want {
		if !strings.Contains(out, w) {
			t.Errorf("expected output to contain %q, got:\n%s", w, out)
		}
	}
}

func TestREPLEliminationGame(t *testing.T) {
	h := newReplHarness(t)
	out := h.run(t,
		"settings elimination hard 10",
		"players 2",
		"names Cy, Bo",
		"start",
		"hold 1",
		"hold 2",
		"start",
		"next",
		"quit",
	)

	expectOutput(t, out,
		"[ready] hold to ready",
		"error: ",
		"player 1 ready!",
		"everyone is ready: type start",
		"eliminated player: ",
		"task: (ACTION) [hard, 10s]",
		"media: https://example.com/m.gif",
		"(1 wins)",
		"[winner] restart to play again",
	)

	ranking := h.stats.Ranking()
	if len(ranking) != 1 || ranking[0].Wins != 1 {
		t.Fatalf("expected one recorded win, got %v", ranking)
	}
	if name := ranking[0].Name; name != "Cy" && name != "Bo" {
		t.Fatalf("expected Cy or Bo to win, got %q", name)
	}
}

func TestREPLRejectedNamesStayOnNicknameStep(t *testing.T) {
	h := newReplHarness(t)
	out := h.run(t,
		"settings",
		"players 2",
		"names Bo, Bo",
		"names Banana, Cy",
		"quit",
	)

	expectOutput(t, out, wizard.MsgDuplicateNickname, wizard.MsgBadNickname)
	if got := h.wz.Step(); got != wizard.StepNicknames {
		t.Fatalf("expected step %s, got %s", wizard.StepNicknames, got)
	}
	if got := h.wz.Round().Nicknames; got[0] != "Banana" {
		t.Fatalf("expected typed names to be kept, got %v", got)
	}
}

func TestREPLTasksMode(t *testing.T) {
	h := newReplHarness(t)
	out := h.run(t, "settings tasks easy", "players 2", "names Cy, Bo", "quit")

	expectOutput(t, out,
		"random tasks for everyone (easy, 30s):",
		"Cy: TRUTH tell a secret",
		"Bo: TRUTH tell a secret",
		"[tasks] restart to play again",
	)
}

func TestREPLSimpleMode(t *testing.T) {
	h := newReplHarness(t)
	out := h.run(t, "settings simple", "players 3", "names Cy, Bo", "quit")

	expectOutput(t, out, "choosing winner... > ", "winner: ")
	if got := h.wz.Step(); got != wizard.StepWinner {
		t.Fatalf("expected step %s, got %s", wizard.StepWinner, got)
	}
	if got := len(h.stats.Ranking()); got != 0 {
		t.Fatalf("expected simple mode to record no wins, got %d", got)
	}
}

func TestREPLBackAndRestart(t *testing.T) {
	h := newReplHarness(t)
	h.run(t, "settings tasks", "players 4", "back", "back")
	if got := h.wz.Step(); got != wizard.StepSettings {
		t.Fatalf("expected step %s, got %s", wizard.StepSettings, got)
	}

	h.out.Reset()
	out := h.run(t, "back", "settings", "players 2", "restart")
	expectOutput(t, out, "error: ")
	if got := h.wz.Step(); got != wizard.StepSettings {
		t.Fatalf("expected step %s after restart, got %s", wizard.StepSettings, got)
	}
}

func TestREPLBadInput(t *testing.T) {
	h := newReplHarness(t)
	out := h.run(t, "dance", "players two", "settings elimination any soon", "press x", "help")

	expectOutput(t, out,
		`unknown command "dance"`,
		`players needs a number: "two"`,
		`task time must be whole seconds: "soon"`,
		`press needs a player number: "x"`,
		"names A, B, C",
	)
}

func TestREPLStopsAtEOF(t *testing.T) {
	h := newReplHarness(t)
	if err := h.repl.Run(context.Background(), strings.NewReader("settings")); err != nil {
		t.Fatalf("expected clean EOF, got %v", err)
	}
	if got := h.wz.Step(); got != wizard.StepPlayerCount {
		t.Fatalf("expected step %s, got %s", wizard.StepPlayerCount, got)
	}
}

func TestConsoleReadiness(t *testing.T) {
	var buf bytes.Buffer
	con := newConsole(&buf)

	con.readiness(readiness.Change{Player: -1, AllReady: false})
	con.readiness(readiness.Change{Player: 0, From: readiness.NotReady, To: readiness.Holding})
	con.readiness(readiness.Change{Player: 1, From: readiness.Holding, To: readiness.Ready, AllReady: true})

	want := "player 1 holding...\nplayer 2 ready!\neveryone is ready: type start\n"
	if got := buf.String(); got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}
}

func TestRunOffline(t *testing.T) {
	dir := t.TempDir()
	tasks := `[{"type":"truth","text":"sing a song","difficulty":"easy"}]`
	if err := os.WriteFile(filepath.Join(dir, "tasks.json"), []byte(tasks), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "badwords.yaml"), []byte("- ana\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := &Config{
		db:         filepath.Join(t.TempDir(), "wins.db"),
		catalogDir: dir,
		hold:       10 * time.Millisecond,
	}
	in := strings.NewReader("settings tasks\nplayers 2\nnames Ana, Bo\nnames Cy, Bo\nquit\n")
	var out bytes.Buffer
	if err := run(context.Background(), cfg, in, &out, io.Discard); err != nil {
		t.Fatalf("run: %v", err)
	}

	expectOutput(t, out.String(),
		"warning: memes: ",
		wizard.MsgBadNickname,
		"Cy: TRUTH sing a song",
	)
}
