// Package wizard drives a local game from settings to the winner screen.
//
// The wizard owns one Round value holding everything the current game has
// collected so far. Presenters call the step methods and render Step and
// Round; they never mutate round state directly.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/playperu/fingergame/internal/engine"
	"github.com/playperu/fingergame/internal/fingergame"
	"github.com/playperu/fingergame/internal/leaderboard"
	"github.com/playperu/fingergame/internal/readiness"
)

const (
	MinPlayers = 2
	MaxPlayers = 8

	DefaultTaskTime = 30 * time.Second
	MinTaskTime     = 5 * time.Second
	MaxTaskTime     = 180 * time.Second

	DefaultReportTimeout = 5 * time.Second
)

const (
	MsgBadNickname       = "One or more nicknames contain inappropriate language."
	MsgDuplicateNickname = "Duplicate nicknames are not allowed."
)

var (
	ErrWrongStep = errors.New("action not available at this step")
	ErrNotReady  = errors.New("not all players are ready")
)

type Step int

const (
	StepSettings Step = iota
	StepPlayerCount
	StepNicknames
	StepRoundGate
	StepOutcome
	StepWinner
)

func (s Step) String() string {
	switch s {
	case StepSettings:
		return "settings"
	case StepPlayerCount:
		return "player_count"
	case StepNicknames:
		return "nicknames"
	case StepRoundGate:
		return "round_gate"
	case StepOutcome:
		return "outcome"
	case StepWinner:
		return "winner"
	default:
		return fmt.Sprintf("Step(%d)", int(s))
	}
}

// Games is the session backend: the in-process store or a remote server.
type Games interface {
	CreateGame(ctx context.Context) (string, error)
	AddPlayer(ctx context.Context, gameID, name string) ([]string, error)
	Eliminate(ctx context.Context, gameID, name string) (fingergame.Elimination, error)
}

type Denylist interface {
	Contains(name string) bool
}

// WinRecorder is the locally persisted win counter.
type WinRecorder interface {
	RecordWin(ctx context.Context, name string) (int, error)
}

type Settings struct {
	Mode       fingergame.Mode
	Difficulty fingergame.Difficulty
	TaskTime   time.Duration
}

type Assignment struct {
	Player string
	Task   fingergame.Task
}

// Round is the state of the game in progress.
type Round struct {
	Settings    Settings
	PlayerCount int
	Nicknames   []string

	GameID    string
	Players   []string
	Remaining []string

	Outcome     *engine.Outcome
	Assignments []Assignment
	Winner      string
	WinCount    int

	// Error is the message of the last rejected submission.
	Error string
}

func (r Round) clone() Round {
	r.Nicknames = slices.Clone(r.Nicknames)
	r.Players = slices.Clone(r.Players)
	r.Remaining = slices.Clone(r.Remaining)
	r.Assignments = slices.Clone(r.Assignments)
	if r.Outcome != nil {
		o := *r.Outcome
		r.Outcome = &o
	}
	return r
}

type Config struct {
	Games       Games
	Engine      *engine.Engine
	Denylist    Denylist
	Stats       WinRecorder
	Leaderboard leaderboard.Client
	Logger      *slog.Logger

	HoldThreshold time.Duration
	Scheduler     readiness.Scheduler
	// OnReadiness observes every readiness transition. It must not call
	// back into the Wizard.
	OnReadiness func(readiness.Change)

	ReportTimeout time.Duration
	Now           func() time.Time
}

type Wizard struct {
	cfg   Config
	ready *readiness.Coordinator

	mu    sync.Mutex
	step  Step
	round Round

	reports sync.WaitGroup
}

func New(cfg Config) *Wizard {
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	if cfg.ReportTimeout <= 0 {
		cfg.ReportTimeout = DefaultReportTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	opts := []readiness.Option{}
	if cfg.HoldThreshold > 0 {
		opts = append(opts, readiness.WithThreshold(cfg.HoldThreshold))
	}
	if cfg.Scheduler != nil {
		opts = append(opts, readiness.WithScheduler(cfg.Scheduler))
	}
	if cfg.OnReadiness != nil {
		opts = append(opts, readiness.WithOnChange(cfg.OnReadiness))
	}

	return &Wizard{
		cfg:   cfg,
		ready: readiness.New(0, opts...),
		round: freshRound(),
	}
}

func freshRound() Round {
	return Round{
		Settings: Settings{
			Mode:       fingergame.ModeElimination,
			Difficulty: fingergame.DifficultyAny,
			TaskTime:   DefaultTaskTime,
		},
		PlayerCount: MinPlayers,
		Nicknames:   make([]string, MinPlayers),
	}
}

func (w *Wizard) Step() Step {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.step
}

// Round returns a copy of the current round.
func (w *Wizard) Round() Round {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.round.clone()
}

func (w *Wizard) Readiness() *readiness.Coordinator { return w.ready }

// SubmitSettings validates the game settings. A zero task time means the
// default; other values are clamped to the allowed range.
func (w *Wizard) SubmitSettings(mode, difficulty string, taskTime time.Duration) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.expectLocked(StepSettings); err != nil {
		return err
	}

	m, err := fingergame.ParseMode(mode)
	if err != nil {
		return w.rejectLocked(err)
	}
	d, err := fingergame.ParseDifficulty(difficulty)
	if err != nil {
		return w.rejectLocked(err)
	}
	if taskTime == 0 {
		taskTime = DefaultTaskTime
	}

	w.round.Settings = Settings{
		Mode:       m,
		Difficulty: d,
		TaskTime:   min(max(taskTime, MinTaskTime), MaxTaskTime),
	}
	w.round.Error = ""
	w.step = StepPlayerCount
	return nil
}

// SubmitPlayerCount clamps n and resizes the nickname slots, keeping what
// was already typed.
func (w *Wizard) SubmitPlayerCount(n int) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.expectLocked(StepPlayerCount); err != nil {
		return err
	}

	n = min(max(n, MinPlayers), MaxPlayers)
	w.round.PlayerCount = n
	w.round.Nicknames = resize(w.round.Nicknames, n)
	w.round.Error = ""
	w.step = StepNicknames
	return nil
}

func resize(names []string, n int) []string {
	out := make([]string, n)
	copy(out, names)
	return out
}

// SubmitNicknames validates the roster, creates the game and starts it.
// A rejected roster keeps the typed names and leaves the wizard on the
// nickname step with Round.Error set.
func (w *Wizard) SubmitNicknames(ctx context.Context, names []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.expectLocked(StepNicknames); err != nil {
		return err
	}

	if len(names) > w.round.PlayerCount {
		return w.rejectLocked(fmt.Errorf("%w: %s", fingergame.ErrInvalidInput, tooManyNicknames(w.round.PlayerCount)))
	}
	w.round.Nicknames = resize(names, w.round.PlayerCount)
	roster := normalize(w.round.Nicknames)

	if w.cfg.Denylist != nil && slices.ContainsFunc(roster, w.cfg.Denylist.Contains) {
		return w.rejectLocked(fmt.Errorf("%w: %s", fingergame.ErrInvalidInput, MsgBadNickname))
	}
	if hasDuplicates(roster) {
		return w.rejectLocked(fmt.Errorf("%w: %s", fingergame.ErrDuplicate, MsgDuplicateNickname))
	}

	// Draw before creating the game: a failed draw must leave no session.
	var (
		assignments []Assignment
		winner      string
	)
	switch w.round.Settings.Mode {
	case fingergame.ModeTasks:
		tasks, err := w.cfg.Engine.AssignTasks(roster, w.round.Settings.Difficulty)
		if err != nil {
			return w.rejectLocked(err)
		}
		assignments = make([]Assignment, len(roster))
		for i, name := range roster {
			assignments[i] = Assignment{Player: name, Task: tasks[i]}
		}
	case fingergame.ModeSimple:
		idx, err := w.cfg.Engine.PickWinner(roster)
		if err != nil {
			return w.rejectLocked(err)
		}
		winner = roster[idx]
	}

	id, err := w.cfg.Games.CreateGame(ctx)
	if err != nil {
		return w.rejectLocked(fmt.Errorf("creating game: %w", err))
	}
	for _, name := range roster {
		if _, err := w.cfg.Games.AddPlayer(ctx, id, name); err != nil {
			return w.rejectLocked(fmt.Errorf("adding %s: %w", name, err))
		}
	}

	w.round.GameID = id
	w.round.Players = roster
	w.round.Remaining = slices.Clone(roster)
	w.round.Error = ""
	w.cfg.Logger.Info("game created", "game_id", id, "mode", w.round.Settings.Mode, "players", len(roster))

	switch w.round.Settings.Mode {
	case fingergame.ModeTasks:
		w.round.Assignments = assignments
		w.step = StepOutcome
	case fingergame.ModeSimple:
		w.round.Winner = winner
		w.step = StepWinner
	default:
		w.ready.Reset(len(roster))
		w.step = StepRoundGate
	}
	return nil
}

func tooManyNicknames(n int) string {
	return fmt.Sprintf("Too many nicknames: this game has %d players.", n)
}

// normalize trims every name and fills blanks with "Player N".
func normalize(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		if n = strings.TrimSpace(n); n == "" {
			n = fmt.Sprintf("Player %d", i+1)
		}
		out[i] = n
	}
	return out
}

func hasDuplicates(names []string) bool {
	seen := make(map[string]bool, len(names))
	for _, n := range names {
		if seen[n] {
			return true
		}
		seen[n] = true
	}
	return false
}

// Press and Release forward a hold gesture to the readiness coordinator.
func (w *Wizard) Press(player int) error {
	if err := w.expect(StepRoundGate); err != nil {
		return err
	}
	return w.ready.Press(player)
}

func (w *Wizard) Release(player int) error {
	if err := w.expect(StepRoundGate); err != nil {
		return err
	}
	return w.ready.Release(player)
}

// StartRound draws the elimination target once every player is ready.
func (w *Wizard) StartRound() (engine.Outcome, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.expectLocked(StepRoundGate); err != nil {
		return engine.Outcome{}, err
	}
	if !w.ready.AllReady() {
		return engine.Outcome{}, ErrNotReady
	}

	out, err := w.cfg.Engine.Draw(w.round.Remaining, w.round.Settings.Difficulty)
	if err != nil {
		return engine.Outcome{}, w.rejectLocked(err)
	}
	w.round.Outcome = &out
	w.round.Error = ""
	w.step = StepOutcome
	return out, nil
}

// Confirm applies the drawn elimination and moves to the next round or to
// the winner.
func (w *Wizard) Confirm(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.expectLocked(StepOutcome); err != nil {
		return err
	}
	if w.round.Outcome == nil {
		return ErrWrongStep
	}

	target := w.round.Outcome.Target
	res, err := w.cfg.Games.Eliminate(ctx, w.round.GameID, target)
	if err != nil {
		return w.rejectLocked(fmt.Errorf("eliminating %s: %w", target, err))
	}

	w.round.Remaining = slices.DeleteFunc(w.round.Remaining, func(n string) bool { return n == target })
	w.round.Outcome = nil
	w.round.Error = ""
	w.cfg.Logger.Debug("player eliminated", "game_id", w.round.GameID, "player", target, "remaining", len(w.round.Remaining))

	winner, done, err := engine.Terminal(w.round.Remaining)
	if err != nil {
		return err
	}
	if res.Winner != nil {
		winner, done = *res.Winner, true
	}
	if !done {
		w.ready.Reset(len(w.round.Remaining))
		w.step = StepRoundGate
		return nil
	}

	w.ready.Reset(0)
	w.round.Winner = winner
	w.step = StepWinner
	w.recordWinLocked(ctx)
	return nil
}

// recordWinLocked counts the win locally and reports it in the background.
// Neither failure affects the game.
func (w *Wizard) recordWinLocked(ctx context.Context) {
	winner := w.round.Winner
	if w.cfg.Stats != nil {
		n, err := w.cfg.Stats.RecordWin(ctx, winner)
		if err != nil {
			w.cfg.Logger.Warn("recording win", "winner", winner, "error", err)
		}
		w.round.WinCount = n
	}

	if w.cfg.Leaderboard == nil {
		return
	}
	result := fingergame.Result{
		Name:       winner,
		Result:     1,
		Mode:       w.round.Settings.Mode,
		Difficulty: w.round.Settings.Difficulty,
		Players:    len(w.round.Players),
		RecordedAt: w.cfg.Now().UTC(),
	}
	w.reports.Add(1)
	go func() {
		defer w.reports.Done()
		ctx, cancel := context.WithTimeout(context.Background(), w.cfg.ReportTimeout)
		defer cancel()

		id, err := w.cfg.Leaderboard.ReportResult(ctx, result)
		if err != nil {
			w.cfg.Logger.Warn("reporting result", "winner", result.Name, "error", err)
			return
		}
		w.cfg.Logger.Debug("result reported", "id", id, "winner", result.Name)
	}()
}

// Back returns to the previous step, keeping entered data. Leaving a game
// in progress abandons it.
func (w *Wizard) Back() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	switch w.step {
	case StepSettings:
		return ErrWrongStep
	case StepPlayerCount, StepNicknames:
		w.step--
	default:
		w.ready.Reset(0)
		w.clearGameLocked()
		w.step = StepNicknames
	}
	w.round.Error = ""
	return nil
}

// Restart cancels every pending timer and clears the round. Win stats and
// the catalog are left alone.
func (w *Wizard) Restart() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ready.Reset(0)
	w.round = freshRound()
	w.step = StepSettings
}

func (w *Wizard) clearGameLocked() {
	w.round.GameID = ""
	w.round.Players = nil
	w.round.Remaining = nil
	w.round.Outcome = nil
	w.round.Assignments = nil
	w.round.Winner = ""
	w.round.WinCount = 0
}

// Wait blocks until background leaderboard reports have finished.
func (w *Wizard) Wait() {
	w.reports.Wait()
}

// Close cancels readiness timers and waits for pending reports.
func (w *Wizard) Close() {
	w.ready.Close()
	w.Wait()
}

func (w *Wizard) expect(s Step) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.expectLocked(s)
}

func (w *Wizard) expectLocked(s Step) error {
	if w.step != s {
		return fmt.Errorf("%w: %s (at %s)", ErrWrongStep, s, w.step)
	}
	return nil
}

func (w *Wizard) rejectLocked(err error) error {
	w.round.Error = message(err)
	return err
}

// message is the user-facing part of err.
func message(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{fingergame.ErrInvalidInput, fingergame.ErrDuplicate} {
		if errors.Is(err, sentinel) {
			return strings.TrimPrefix(msg, sentinel.Error()+": ")
		}
	}
	return msg
}
