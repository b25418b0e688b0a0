package wizard

import (
	"context"
	"time"
)

// Spinner cycles a highlight over the roster for a fixed duration before an
// outcome is shown. It is decoration only: the outcome is already decided
// when it starts.
type Spinner struct {
	Interval time.Duration
	Duration time.Duration
}

var (
	EliminationSpinner = Spinner{Interval: 110 * time.Millisecond, Duration: 1600 * time.Millisecond}
	WinnerSpinner      = Spinner{Interval: 120 * time.Millisecond, Duration: 1800 * time.Millisecond}
)

// Run calls tick with the highlighted index, cycling through n entries,
// until the duration elapses or ctx is done. The ticker is stopped before
// Run returns, so no tick happens after it.
func (s Spinner) Run(ctx context.Context, n int, tick func(idx int)) error {
	if n <= 0 {
		return nil
	}
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()
	done := time.NewTimer(s.Duration)
	defer done.Stop()

	idx := 0
	tick(idx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-done.C:
			return nil
		case <-ticker.C:
			idx = (idx + 1) % n
			tick(idx)
		}
	}
}
