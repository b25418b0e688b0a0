// Package engine holds the pure decision logic of a game: task selection,
// elimination target selection and terminal detection. It never mutates a
// session; callers apply the outcome.
package engine

import (
	"fmt"
	"math/rand/v2"

	"github.com/playperu/fingergame/internal/catalog"
	"github.com/playperu/fingergame/internal/fingergame"
)

// Rand returns a uniform draw in [0, n). n is always positive.
type Rand func(n int) int

// Catalog is the read-only view the engine draws from.
type Catalog interface {
	TasksFor(d fingergame.Difficulty) []fingergame.Task
	Media() []string
}

var _ Catalog = (*catalog.Catalog)(nil)

type Engine struct {
	catalog Catalog
	rand    Rand
}

// New returns an engine over c. A nil rnd uses math/rand/v2.
func New(c Catalog, rnd Rand) *Engine {
	if rnd == nil {
		rnd = rand.IntN
	}
	return &Engine{catalog: c, rand: rnd}
}

// PickTask returns one task chosen uniformly from the pool matching d.
// An empty pool is ErrEmptyPool, never a fallback to the unfiltered pool.
func (e *Engine) PickTask(d fingergame.Difficulty) (fingergame.Task, error) {
	d, err := fingergame.ParseDifficulty(string(d))
	if err != nil {
		return fingergame.Task{}, err
	}
	pool := e.catalog.TasksFor(d)
	if len(pool) == 0 {
		return fingergame.Task{}, fmt.Errorf("%w: %s", fingergame.ErrEmptyPool, d)
	}
	return pool[e.rand(len(pool))], nil
}

// AssignTasks draws one task per player independently. Tasks may repeat.
func (e *Engine) AssignTasks(players []string, d fingergame.Difficulty) ([]fingergame.Task, error) {
	out := make([]fingergame.Task, len(players))
	for i := range players {
		t, err := e.PickTask(d)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// PickEliminationTarget returns an index into remaining, the current
// survivors. Eliminating from a roster of fewer than two would leave no
// winner, so it is rejected.
func (e *Engine) PickEliminationTarget(remaining []string) (int, error) {
	if len(remaining) < 2 {
		return 0, fmt.Errorf("%w: cannot eliminate from %d remaining players", fingergame.ErrInvariant, len(remaining))
	}
	return e.rand(len(remaining)), nil
}

// PickWinner chooses the outright winner in simple mode.
func (e *Engine) PickWinner(players []string) (int, error) {
	if len(players) == 0 {
		return 0, fmt.Errorf("%w: no players", fingergame.ErrInvalidInput)
	}
	return e.rand(len(players)), nil
}

// PickMedia is decorative: ok is false when nothing is available and the
// caller simply omits the media.
func (e *Engine) PickMedia() (ref string, ok bool) {
	media := e.catalog.Media()
	if len(media) == 0 {
		return "", false
	}
	ref = media[e.rand(len(media))]
	return ref, ref != ""
}

// Terminal reports the winner once exactly one player remains.
func Terminal(remaining []string) (winner string, done bool, err error) {
	switch len(remaining) {
	case 0:
		return "", false, fmt.Errorf("%w: no players remaining", fingergame.ErrInvariant)
	case 1:
		return remaining[0], true, nil
	default:
		return "", false, nil
	}
}

// Outcome is the result of one elimination draw.
type Outcome struct {
	TargetIndex int
	Target      string
	Task        fingergame.Task
	Media       string
}

// Draw computes one elimination round: the target among remaining and the
// task they must perform.
func (e *Engine) Draw(remaining []string, d fingergame.Difficulty) (Outcome, error) {
	idx, err := e.PickEliminationTarget(remaining)
	if err != nil {
		return Outcome{}, err
	}
	task, err := e.PickTask(d)
	if err != nil {
		return Outcome{}, err
	}
	media, _ := e.PickMedia()
	return Outcome{
		TargetIndex: idx,
		Target:      remaining[idx],
		Task:        task,
		Media:       media,
	}, nil
}
