// Package leaderboard records game results and aggregates win counts.
package leaderboard

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/playperu/fingergame/internal/fingergame"
)

// Client is the contract the game depends on. Implementations wrap every
// failure in fingergame.ErrExternalStore.
type Client interface {
	// ReportResult appends one record and returns its id.
	ReportResult(ctx context.Context, r fingergame.Result) (string, error)
	// FetchWinCounts returns the number of winning records per name.
	FetchWinCounts(ctx context.Context) (map[string]int, error)
}

// DisplayName is the aggregation key for a record.
func DisplayName(name string) string {
	if name = strings.TrimSpace(name); name == "" {
		return fingergame.AnonymousName
	}
	return name
}

// DefaultFetchTimeout bounds one shared FetchWinCounts flight.
const DefaultFetchTimeout = 5 * time.Second

// Cached collapses concurrent FetchWinCounts calls into one request to the
// underlying client. The shared request is detached from every caller's
// cancellation and bounded by FetchTimeout instead; each caller still stops
// waiting when its own context ends.
type Cached struct {
	Client
	FetchTimeout time.Duration
	group        singleflight.Group
}

func NewCached(c Client) *Cached {
	return &Cached{Client: c, FetchTimeout: DefaultFetchTimeout}
}

func (c *Cached) FetchWinCounts(ctx context.Context) (map[string]int, error) {
	flight := c.group.DoChan("wins", func() (any, error) {
		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.FetchTimeout)
		defer cancel()
		return c.Client.FetchWinCounts(fetchCtx)
	})

	var res singleflight.Result
	select {
	case res = <-flight:
	case <-ctx.Done():
		return nil, fmt.Errorf("%w: %w", fingergame.ErrExternalStore, ctx.Err())
	}
	if res.Err != nil {
		return nil, res.Err
	}
	v := res.Val
	// Callers sharing a flight must not share the map.
	return maps.Clone(v.(map[string]int)), nil
}
