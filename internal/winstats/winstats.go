// Package winstats keeps the locally persisted win-count map of a client.
package winstats

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"maps"
	"slices"
	"sync"
)

// Key is the fixed storage key of the win-count map.
const Key = "fingergame-winStats"

// Backend persists one JSON value per key.
type Backend interface {
	Load(ctx context.Context, key string) (data []byte, ok bool, err error)
	Save(ctx context.Context, key string, data []byte) error
}

// Denylist reports names that must not appear in the stats.
type Denylist interface {
	Contains(name string) bool
}

type Entry struct {
	Name string `json:"name"`
	Wins int    `json:"wins"`
}

type Stats struct {
	mu      sync.Mutex
	backend Backend
	deny    Denylist
	counts  map[string]int
}

// Open loads the stored map and drops every denylisted name. The purge is
// saved immediately when it removed anything.
func Open(ctx context.Context, backend Backend, deny Denylist) (*Stats, error) {
	s := &Stats{backend: backend, deny: deny, counts: make(map[string]int)}

	data, ok, err := backend.Load(ctx, Key)
	if err != nil {
		return nil, fmt.Errorf("loading win stats: %w", err)
	}
	if ok {
		if err := json.Unmarshal(data, &s.counts); err != nil {
			return nil, fmt.Errorf("decoding win stats: %w", err)
		}
		if s.counts == nil {
			s.counts = make(map[string]int)
		}
	}

	if s.purgeLocked() {
		if err := s.saveLocked(ctx); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Stats) purgeLocked() bool {
	if s.deny == nil {
		return false
	}
	changed := false
	for name := range s.counts {
		if s.deny.Contains(name) {
			delete(s.counts, name)
			changed = true
		}
	}
	return changed
}

// RecordWin increments name's count and persists the map.
func (s *Stats) RecordWin(ctx context.Context, name string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.counts[name]++
	if err := s.saveLocked(ctx); err != nil {
		return s.counts[name], err
	}
	return s.counts[name], nil
}

func (s *Stats) saveLocked(ctx context.Context) error {
	data, err := json.Marshal(s.counts)
	if err != nil {
		return fmt.Errorf("encoding win stats: %w", err)
	}
	if err := s.backend.Save(ctx, Key, data); err != nil {
		return fmt.Errorf("saving win stats: %w", err)
	}
	return nil
}

func (s *Stats) Counts() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return maps.Clone(s.counts)
}

// Ranking returns every recorded name in SortEntries order.
func (s *Stats) Ranking() []Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Entry, 0, len(s.counts))
	for name, wins := range s.counts {
		out = append(out, Entry{Name: name, Wins: wins})
	}
	SortEntries(out)
	return out
}

// SortEntries orders entries by wins, most first, ties by name.
func SortEntries(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := cmp.Compare(b.Wins, a.Wins); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})
}
