package session

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/playperu/fingergame/internal/fingergame"
)

// Session is one game. All fields are guarded by mu and every operation
// reads and writes them under a single lock acquisition.
type Session struct {
	mu sync.Mutex

	id         string
	players    []string
	eliminated []string
	out        map[string]bool
	winner     *string

	createdAt time.Time
	updatedAt time.Time
}

func newSession(id string, now time.Time) *Session {
	return &Session{
		id:        id,
		out:       make(map[string]bool),
		createdAt: now,
		updatedAt: now,
	}
}

func (s *Session) ID() string { return s.id }

func (s *Session) CreatedAt() time.Time { return s.createdAt }

func (s *Session) UpdatedAt() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

func (s *Session) addPlayer(name string, now time.Time) ([]string, fingergame.Status, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slices.Contains(s.players, name) {
		return nil, fingergame.Status{}, fmt.Errorf("%w: %q", fingergame.ErrDuplicate, name)
	}
	s.players = append(s.players, name)
	s.updatedAt = now
	return slices.Clone(s.players), s.statusLocked(), nil
}

// eliminate applies one elimination. changed reports whether the
// eliminated set grew; crowned reports whether this call set the winner.
func (s *Session) eliminate(name string, now time.Time) (res fingergame.Elimination, changed, crowned bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !slices.Contains(s.players, name) {
		return res, false, false, fmt.Errorf("%w: %q", fingergame.ErrPlayerNotFound, name)
	}

	// A decided game is terminal, and the last survivor is never removed.
	if s.winner == nil && !s.out[name] && s.remainingLocked() > 1 {
		s.out[name] = true
		s.eliminated = append(s.eliminated, name)
		s.updatedAt = now
		changed = true
	}

	remaining := s.survivorsLocked()
	switch {
	case len(remaining) == 0:
		return res, false, false, fmt.Errorf("%w: session %s has no remaining players", fingergame.ErrInvariant, s.id)
	case len(remaining) == 1 && s.winner == nil:
		w := remaining[0]
		s.winner = &w
		s.updatedAt = now
		crowned = true
	}

	return fingergame.Elimination{
		Eliminated: orEmpty(slices.Clone(s.eliminated)),
		Winner:     cloneWinner(s.winner),
	}, changed, crowned, nil
}

func (s *Session) status() fingergame.Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statusLocked()
}

func (s *Session) statusLocked() fingergame.Status {
	return fingergame.Status{
		Players:    orEmpty(slices.Clone(s.players)),
		Eliminated: orEmpty(slices.Clone(s.eliminated)),
		Winner:     cloneWinner(s.winner),
	}
}

func (s *Session) remainingLocked() int {
	return len(s.players) - len(s.eliminated)
}

func (s *Session) survivorsLocked() []string {
	out := make([]string, 0, s.remainingLocked())
	for _, p := range s.players {
		if !s.out[p] {
			out = append(out, p)
		}
	}
	return out
}

func cloneWinner(w *string) *string {
	if w == nil {
		return nil
	}
	v := *w
	return &v
}

// orEmpty keeps JSON output as [] rather than null.
func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
