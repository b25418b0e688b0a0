package fingergame

import "errors"

var (
	ErrNotFound       = errors.New("game not found")
	ErrPlayerNotFound = errors.New("player not found")
	ErrInvalidInput   = errors.New("invalid input")
	ErrDuplicate      = errors.New("player exists")
	ErrEmptyPool      = errors.New("no tasks for that difficulty")
	ErrExternalStore  = errors.New("leaderboard unavailable")

	// ErrInvariant marks states that cannot occur unless a caller broke the
	// elimination rules, e.g. an empty surviving roster.
	ErrInvariant = errors.New("invariant violation")
)
