package wizard

import (
	"context"

	"github.com/playperu/fingergame/internal/fingergame"
	"github.com/playperu/fingergame/internal/session"
)

// LocalGames runs sessions in-process, for play without a server.
type LocalGames struct {
	store *session.Store
}

var _ Games = (*LocalGames)(nil)

func NewLocalGames(store *session.Store) *LocalGames {
	return &LocalGames{store: store}
}

func (g *LocalGames) CreateGame(context.Context) (string, error) {
	return g.store.Create(), nil
}

func (g *LocalGames) AddPlayer(_ context.Context, gameID, name string) ([]string, error) {
	return g.store.AddPlayer(gameID, name)
}

func (g *LocalGames) Eliminate(_ context.Context, gameID, name string) (fingergame.Elimination, error) {
	return g.store.Eliminate(gameID, name)
}
