// Package readiness gates the start of a round on every player holding a
// ready control for a minimum duration.
//
// Each player moves independently through NotReady -> Holding -> Ready:
//
//	Press    NotReady -> Holding   (starts the threshold timer)
//	elapse   Holding  -> Ready     (timer fired while still holding)
//	Release  Holding  -> NotReady  (timer cancelled)
//	Press    Ready    -> NotReady  (immediate un-ready toggle)
//
// Every timer carries a generation number. A fire whose generation no longer
// matches the player's current one is discarded, so a release or reset can
// never be undone by a timer that elapsed concurrently.
package readiness

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// DefaultThreshold is how long a press must be held.
const DefaultThreshold = time.Second

var (
	ErrUnknownPlayer = errors.New("unknown player")
)

type State int

const (
	NotReady State = iota
	Holding
	Ready
)

func (s State) String() string {
	switch s {
	case NotReady:
		return "not_ready"
	case Holding:
		return "holding"
	case Ready:
		return "ready"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Timer is the cancellable handle returned by a Scheduler.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Change describes one transition. Player is -1 for a reset.
type Change struct {
	Player   int
	From     State
	To       State
	AllReady bool
}

type slot struct {
	state State
	gen   uint64
	timer Timer
}

type Coordinator struct {
	mu        sync.Mutex
	players   []slot
	seq       uint64
	threshold time.Duration
	sched     Scheduler

	// emitMu serializes transitions with their callbacks. Lock order is
	// emitMu, then mu.
	emitMu   sync.Mutex
	onChange func(Change)
}

type Option func(*Coordinator)

func WithThreshold(d time.Duration) Option {
	return func(c *Coordinator) { c.threshold = d }
}

func WithScheduler(s Scheduler) Option {
	return func(c *Coordinator) { c.sched = s }
}

// WithOnChange registers fn to run after every transition, outside the
// state lock. fn may read the coordinator but must not Press, Release or
// Reset it.
func WithOnChange(fn func(Change)) Option {
	return func(c *Coordinator) { c.onChange = fn }
}

// New returns a coordinator for n players, all NotReady.
func New(n int, opts ...Option) *Coordinator {
	c := &Coordinator{
		players:   make([]slot, n),
		threshold: DefaultThreshold,
		sched:     realScheduler{},
		onChange:  func(Change) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Coordinator) Threshold() time.Duration { return c.threshold }

// Press starts a hold, or un-readies a player who is already Ready.
func (c *Coordinator) Press(player int) error {
	return c.transition(func() (Change, bool, error) {
		if err := c.checkLocked(player); err != nil {
			return Change{}, false, err
		}

		p := &c.players[player]
		from := p.state
		switch p.state {
		case NotReady:
			p.state = Holding
			p.gen = c.nextGenLocked()
			gen := p.gen
			p.timer = c.sched.AfterFunc(c.threshold, func() { c.elapse(player, gen) })
		case Ready:
			p.state = NotReady
		case Holding:
			return Change{}, false, nil
		}
		return Change{Player: player, From: from, To: p.state}, true, nil
	})
}

// Release ends a hold. Releasing before the threshold cancels the pending
// transition; releasing in any other state does nothing.
func (c *Coordinator) Release(player int) error {
	return c.transition(func() (Change, bool, error) {
		if err := c.checkLocked(player); err != nil {
			return Change{}, false, err
		}

		p := &c.players[player]
		if p.state != Holding {
			return Change{}, false, nil
		}
		c.cancelLocked(p)
		p.state = NotReady
		return Change{Player: player, From: Holding, To: NotReady}, true, nil
	})
}

func (c *Coordinator) elapse(player int, gen uint64) {
	_ = c.transition(func() (Change, bool, error) {
		if player >= len(c.players) {
			return Change{}, false, nil
		}
		p := &c.players[player]
		if p.state != Holding || p.gen != gen {
			return Change{}, false, nil
		}
		p.state = Ready
		p.timer = nil
		return Change{Player: player, From: Holding, To: Ready}, true, nil
	})
}

// Reset reinitializes the coordinator for n players, all NotReady, and
// cancels every outstanding timer.
func (c *Coordinator) Reset(n int) {
	_ = c.transition(func() (Change, bool, error) {
		for i := range c.players {
			c.cancelLocked(&c.players[i])
		}
		c.players = make([]slot, n)
		return Change{Player: -1, From: NotReady, To: NotReady}, true, nil
	})
}

// transition runs fn under mu and delivers the change it reports after mu
// is released. emitMu is always taken before mu, and is held across the
// callback so changes arrive in the order they happened.
func (c *Coordinator) transition(fn func() (Change, bool, error)) error {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	ch, changed, err := fn()
	if changed {
		ch.AllReady = c.allReadyLocked()
	}
	c.mu.Unlock()

	if err != nil || !changed {
		return err
	}
	c.onChange(ch)
	return nil
}

// Close cancels every outstanding timer and drops all players.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := range c.players {
		c.cancelLocked(&c.players[i])
	}
	c.players = nil
}

func (c *Coordinator) cancelLocked(p *slot) {
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	p.gen = c.nextGenLocked()
}

func (c *Coordinator) nextGenLocked() uint64 {
	c.seq++
	return c.seq
}

func (c *Coordinator) checkLocked(player int) error {
	if player < 0 || player >= len(c.players) {
		return fmt.Errorf("%w: %d of %d", ErrUnknownPlayer, player, len(c.players))
	}
	return nil
}

// AllReady reports whether every player is Ready. No players is never ready.
func (c *Coordinator) AllReady() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.allReadyLocked()
}

func (c *Coordinator) allReadyLocked() bool {
	if len(c.players) == 0 {
		return false
	}
	for _, p := range c.players {
		if p.state != Ready {
			return false
		}
	}
	return true
}

func (c *Coordinator) State(player int) (State, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkLocked(player); err != nil {
		return NotReady, err
	}
	return c.players[player].state, nil
}

func (c *Coordinator) States() []State {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]State, len(c.players))
	for i, p := range c.players {
		out[i] = p.state
	}
	return out
}

func (c *Coordinator) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.players)
}

// ReadyCount is the number of players currently Ready.
func (c *Coordinator) ReadyCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := 0
	for _, p := range c.players {
		if p.state == Ready {
			n++
		}
	}
	return n
}
