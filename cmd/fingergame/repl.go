package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/playperu/fingergame/internal/engine"
	"github.com/playperu/fingergame/internal/fingergame"
	"github.com/playperu/fingergame/internal/leaderboard"
	"github.com/playperu/fingergame/internal/winstats"
	"github.com/playperu/fingergame/internal/wizard"
)

const helpText = `commands:
  settings [mode] [difficulty] [seconds]   mode: elimination|tasks|simple
  players N                                number of players (2-8)
  names A, B, C                            nicknames, comma separated
  press N | release N | hold N             hold player N's ready control
  start                                    draw the next elimination
  next                                     apply the elimination
  back | restart | stats | help | quit
`

var errQuit = errors.New("quit")

type REPL struct {
	w     *wizard.Wizard
	con   *console
	stats *winstats.Stats
	board leaderboard.Client

	eliminationSpinner wizard.Spinner
	winnerSpinner      wizard.Spinner
	boardTimeout       time.Duration
}

func newREPL(w *wizard.Wizard, con *console, stats *winstats.Stats, board leaderboard.Client) *REPL {
	return &REPL{
		w:                  w,
		con:                con,
		stats:              stats,
		board:              board,
		eliminationSpinner: wizard.EliminationSpinner,
		winnerSpinner:      wizard.WinnerSpinner,
		boardTimeout:       3 * time.Second,
	}
}

// Run reads commands until quit, EOF or ctx is done.
func (r *REPL) Run(ctx context.Context, in io.Reader) error {
	r.con.printf("finger game. type help for commands.\n")
	r.prompt()

	sc := bufio.NewScanner(in)
	for sc.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		err := r.exec(ctx, line)
		switch {
		case errors.Is(err, errQuit):
			return nil
		case err != nil:
			r.con.printf("error: %v\n", err)
		}
		r.prompt()
	}
	return sc.Err()
}

func (r *REPL) exec(ctx context.Context, line string) error {
	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(cmd) {
	case "help", "?":
		r.con.printf("%s", helpText)
	case "quit", "exit":
		return errQuit
	case "settings":
		return r.settings(rest)
	case "players":
		n, err := strconv.Atoi(rest)
		if err != nil {
			return fmt.Errorf("players needs a number: %q", rest)
		}
		return r.w.SubmitPlayerCount(n)
	case "names":
		return r.names(ctx, rest)
	case "press", "release", "hold":
		n, err := strconv.Atoi(rest)
		if err != nil {
			return fmt.Errorf("%s needs a player number: %q", cmd, rest)
		}
		return r.readiness(ctx, cmd, n-1)
	case "start":
		return r.start(ctx)
	case "next":
		return r.next(ctx)
	case "back":
		return r.w.Back()
	case "restart":
		r.w.Restart()
	case "stats":
		r.printStats(ctx)
	default:
		return fmt.Errorf("unknown command %q (try help)", cmd)
	}
	return nil
}

func (r *REPL) settings(args string) error {
	f := strings.Fields(args)
	get := func(i int) string {
		if i < len(f) {
			return f[i]
		}
		return ""
	}

	var taskTime time.Duration
	if s := get(2); s != "" {
		secs, err := strconv.Atoi(s)
		if err != nil {
			return fmt.Errorf("task time must be whole seconds: %q", s)
		}
		taskTime = time.Duration(secs) * time.Second
	}
	return r.w.SubmitSettings(get(0), get(1), taskTime)
}

func (r *REPL) names(ctx context.Context, args string) error {
	var names []string
	if args != "" {
		names = strings.Split(args, ",")
	}
	for i := range names {
		names[i] = strings.TrimSpace(names[i])
	}
	if err := r.w.SubmitNicknames(ctx, names); err != nil {
		return err
	}

	round := r.w.Round()
	switch r.w.Step() {
	case wizard.StepOutcome:
		r.con.printf("random tasks for everyone (%s, %s):\n", round.Settings.Difficulty, round.Settings.TaskTime)
		for _, a := range round.Assignments {
			r.con.printf("  %s: %s %s\n", a.Player, strings.ToUpper(string(a.Task.Type)), a.Task.Text)
		}
	case wizard.StepWinner:
		if err := r.spin(ctx, r.winnerSpinner, "choosing winner", round.Players); err != nil {
			return err
		}
		r.con.printf("winner: %s\n", round.Winner)
	}
	return nil
}

func (r *REPL) readiness(ctx context.Context, cmd string, player int) error {
	switch cmd {
	case "press":
		return r.w.Press(player)
	case "release":
		return r.w.Release(player)
	}

	if err := r.w.Press(player); err != nil {
		return err
	}
	// Keep holding a little past the threshold so the timer fires first.
	select {
	case <-time.After(r.w.Readiness().Threshold() + 50*time.Millisecond):
	case <-ctx.Done():
		return ctx.Err()
	}
	return r.w.Release(player)
}

func (r *REPL) start(ctx context.Context) error {
	remaining := r.w.Round().Remaining
	out, err := r.w.StartRound()
	if err != nil {
		return err
	}
	if err := r.spin(ctx, r.eliminationSpinner, "eliminating", remaining); err != nil {
		return err
	}
	r.printOutcome(out, r.w.Round().Settings)
	return nil
}

func (r *REPL) printOutcome(out engine.Outcome, s wizard.Settings) {
	r.con.printf("eliminated player: %s\n", out.Target)
	r.con.printf("task: (%s) [%s, %s]\n  %s\n", strings.ToUpper(string(out.Task.Type)), s.Difficulty, s.TaskTime, out.Task.Text)
	if out.Media != "" {
		r.con.printf("media: %s\n", out.Media)
	}
}

func (r *REPL) next(ctx context.Context) error {
	if err := r.w.Confirm(ctx); err != nil {
		return err
	}
	if r.w.Step() != wizard.StepWinner {
		return nil
	}

	round := r.w.Round()
	r.con.printf("winner: %s (%d wins)\n", round.Winner, round.WinCount)
	r.printRanking()
	return nil
}

// spin shows the suspense highlight. The outcome is already decided.
func (r *REPL) spin(ctx context.Context, s wizard.Spinner, label string, names []string) error {
	err := s.Run(ctx, len(names), func(i int) {
		r.con.printf("\r%s... > %-20s", label, names[i])
	})
	r.con.printf("\n")
	return err
}

func (r *REPL) printRanking() {
	ranking := r.stats.Ranking()
	if len(ranking) == 0 {
		return
	}
	r.con.printf("leaderboard:\n")
	for i, e := range ranking {
		r.con.printf("  %d. %s: %d wins\n", i+1, e.Name, e.Wins)
	}
}

func (r *REPL) printStats(ctx context.Context) {
	r.printRanking()

	ctx, cancel := context.WithTimeout(ctx, r.boardTimeout)
	defer cancel()
	counts, err := r.board.FetchWinCounts(ctx)
	if err != nil {
		r.con.printf("global leaderboard unavailable: %v\n", err)
		return
	}
	if len(counts) == 0 {
		r.con.printf("global leaderboard is empty\n")
		return
	}
	r.con.printf("global leaderboard:\n")
	for _, e := range sortedCounts(counts) {
		r.con.printf("  %s: %d\n", e.Name, e.Wins)
	}
}

func sortedCounts(counts map[string]int) []winstats.Entry {
	out := make([]winstats.Entry, 0, len(counts))
	for name, wins := range counts {
		out = append(out, winstats.Entry{Name: name, Wins: wins})
	}
	winstats.SortEntries(out)
	return out
}

func (r *REPL) prompt() {
	round := r.w.Round()
	switch r.w.Step() {
	case wizard.StepSettings:
		r.con.printf("[settings] mode, difficulty and task time: settings elimination any 30\n")
	case wizard.StepPlayerCount:
		r.con.printf("[players] how many players (%d-%d)? players N\n", wizard.MinPlayers, wizard.MaxPlayers)
	case wizard.StepNicknames:
		r.con.printf("[names] %d nicknames, blanks become Player N: names A, B\n", round.PlayerCount)
	case wizard.StepRoundGate:
		r.con.printf("[ready] hold to ready (%s):\n", r.w.Readiness().Threshold())
		states := r.w.Readiness().States()
		for i, name := range round.Remaining {
			state := "not ready"
			if i < len(states) {
				state = strings.ReplaceAll(states[i].String(), "_", " ")
			}
			r.con.printf("  %d. %s (%s)\n", i+1, name, state)
		}
	case wizard.StepOutcome:
		if round.Settings.Mode == fingergame.ModeTasks {
			r.con.printf("[tasks] restart to play again\n")
			return
		}
		if len(round.Remaining) > 2 {
			r.con.printf("[outcome] next: eliminate and start the next round\n")
		} else {
			r.con.printf("[outcome] next: show the winner\n")
		}
	case wizard.StepWinner:
		r.con.printf("[winner] restart to play again\n")
	}
}
