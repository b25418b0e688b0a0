// Package session is the authoritative registry of live games.
package session

import (
	"crypto/rand"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/playperu/fingergame/internal/fingergame"
)

const (
	idLength   = 9
	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// Event is published after every successful mutation of a session.
type Event struct {
	Type       string            `json:"type"`
	GameID     string            `json:"gameId"`
	PlayerName string            `json:"playerName,omitempty"`
	Status     fingergame.Status `json:"status"`
}

const (
	EventPlayerAdded      = "player_added"
	EventPlayerEliminated = "player_eliminated"
	EventWinner           = "winner"
)

// Store maps session ids to sessions. Entries live for the lifetime of the
// store; nothing is ever deleted.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	newID  func() string
	now    func() time.Time
	notify func(Event)
	logger *slog.Logger
}

type Option func(*Store)

// WithIDGenerator replaces the random id source. Collisions are retried.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) { s.newID = fn }
}

func WithClock(fn func() time.Time) Option {
	return func(s *Store) { s.now = fn }
}

// WithLogger sets the logger that records finished games.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithNotifier registers fn to receive events. fn is called without any
// store or session lock held.
func WithNotifier(fn func(Event)) Option {
	return func(s *Store) { s.notify = fn }
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		newID:    NewID,
		now:      time.Now,
		notify:   func(Event) {},
		logger:   slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewID returns a 9-character base-36 token from crypto/rand.
func NewID() string {
	max := big.NewInt(int64(len(idAlphabet)))
	id := make([]byte, idLength)
	for i := range id {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		id[i] = idAlphabet[n.Int64()]
	}
	return string(id)
}

// Create inserts an empty session under a fresh id.
func (s *Store) Create() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		id := s.newID()
		if _, exists := s.sessions[id]; exists {
			continue
		}
		now := s.now()
		s.sessions[id] = newSession(id, now)
		return id
	}
}

func (s *Store) Get(id string) (*Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", fingergame.ErrNotFound, id)
	}
	return sess, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// AddPlayer appends name to the roster and returns the updated roster.
func (s *Store) AddPlayer(id, name string) ([]string, error) {
	sess, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: player name is required", fingergame.ErrInvalidInput)
	}

	players, status, err := sess.addPlayer(name, s.now())
	if err != nil {
		return nil, err
	}

	s.notify(Event{Type: EventPlayerAdded, GameID: id, PlayerName: name, Status: status})
	return players, nil
}

// Eliminate marks name as eliminated. It is idempotent and always returns
// the current eliminated set and winner.
func (s *Store) Eliminate(id, name string) (fingergame.Elimination, error) {
	sess, err := s.Get(id)
	if err != nil {
		return fingergame.Elimination{}, err
	}

	name = strings.TrimSpace(name)
	res, changed, crowned, err := sess.eliminate(name, s.now())
	if err != nil {
		return fingergame.Elimination{}, err
	}

	if changed || crowned {
		status := sess.status()
		if changed {
			s.notify(Event{Type: EventPlayerEliminated, GameID: id, PlayerName: name, Status: status})
		}
		if crowned {
			s.notify(Event{Type: EventWinner, GameID: id, PlayerName: *status.Winner, Status: status})
			s.logWin(sess, *status.Winner)
		}
	}
	return res, nil
}

func (s *Store) Status(id string) (fingergame.Status, error) {
	sess, err := s.Get(id)
	if err != nil {
		return fingergame.Status{}, err
	}
	return sess.status(), nil
}

func (s *Store) logWin(sess *Session, winner string) {
	created, updated := sess.CreatedAt(), sess.UpdatedAt()
	s.logger.Info("game won",
		"game_id", sess.ID(),
		"winner", winner,
		"created_at", created,
		"updated_at", updated,
		"duration", updated.Sub(created),
	)
}
