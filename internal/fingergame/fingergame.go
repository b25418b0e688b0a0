// Package fingergame defines the core domain types and error taxonomy.
// It has no dependencies outside the standard library.
package fingergame

import (
	"fmt"
	"strings"
	"time"
)

type TaskType string

const (
	TaskTruth  TaskType = "truth"
	TaskAction TaskType = "action"
)

type Difficulty string

const (
	DifficultyAny    Difficulty = "any"
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty maps a query or flag value to a Difficulty. The empty
// string means "any".
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case "":
		return DifficultyAny, nil
	case DifficultyAny, DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d, nil
	default:
		return "", fmt.Errorf("%w: unknown difficulty %q", ErrInvalidInput, s)
	}
}

// Task is one catalog entry.
type Task struct {
	Type       TaskType   `json:"type" yaml:"type"`
	Text       string     `json:"text" yaml:"text"`
	Difficulty Difficulty `json:"difficulty" yaml:"difficulty"`
}

// Mode is fixed at game setup and never changes mid-game.
type Mode string

const (
	ModeSimple      Mode = "simple"
	ModeTasks       Mode = "tasks"
	ModeElimination Mode = "elimination"
)

func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeElimination, nil
	case ModeSimple, ModeTasks, ModeElimination:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidInput, s)
	}
}

// Status is the read model of one session.
type Status struct {
	Players    []string `json:"players"`
	Eliminated []string `json:"eliminated"`
	Winner     *string  `json:"winner"`
}

// Elimination is the outcome of one eliminate call.
type Elimination struct {
	Eliminated []string `json:"eliminated"`
	Winner     *string  `json:"winner"`
}

// Result is one leaderboard record. Only Name and Result are required.
type Result struct {
	ID         string     `json:"id,omitempty"`
	Name       string     `json:"Name"`
	Result     int        `json:"Result"`
	Mode       Mode       `json:"Mode,omitempty"`
	Difficulty Difficulty `json:"Difficulty,omitempty"`
	Players    int        `json:"Players,omitempty"`
	RecordedAt time.Time  `json:"RecordedAt,omitzero"`
}

// Won reports whether the record counts towards the leaderboard.
func (r Result) Won() bool { return r.Result == 1 }

// AnonymousName is the leaderboard key for records without a name.
const AnonymousName = "Anonymous"
