// Package gate implements the timed pause that stands between the user and
// guarded checkout elements.
//
// A Gate starts in Counting and loses one second of its delay per tick. When
// the delay reaches zero it becomes Unlockable and the override action is
// accepted. Overridden and Cancelled are terminal.
package gate

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// State is a gate's position in its lifecycle.
type State int

const (
	Counting State = iota
	Unlockable
	Overridden
	Cancelled
)

func (s State) String() string {
	switch s {
	case Counting:
		return "counting"
	case Unlockable:
		return "unlockable"
	case Overridden:
		return "overridden"
	case Cancelled:
		return "cancelled"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText encodes the state by name.
func (s State) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

// Terminal reports whether s ends the gate.
func (s State) Terminal() bool { return s == Overridden || s == Cancelled }

var (
	// ErrLocked is returned by Override while the countdown is running.
	ErrLocked = errors.New("gate: override locked while counting")
	// ErrClosed is returned by actions on a gate that already ended.
	ErrClosed = errors.New("gate: closed")
	// ErrInvalidDelay is returned by New for a non-positive delay.
	ErrInvalidDelay = errors.New("gate: delay must be positive")
)

// Surface displays a gate. platform.Overlay satisfies it.
type Surface interface {
	Update(remaining int, unlockable bool)
	Close()
}

// Snapshot is a point-in-time view of a gate.
type Snapshot struct {
	ID        string `yaml:"id"        json:"id"`
	State     State  `yaml:"state"     json:"state"`
	Remaining int    `yaml:"remaining" json:"remaining"`
	Delay     int    `yaml:"delay"     json:"delay"`
}

// Options configures a Gate.
type Options struct {
	// Interval between ticks. Defaults to one second.
	Interval time.Duration
	// Dispatch runs a tick on the owner's goroutine. Defaults to calling it
	// directly from the ticker goroutine.
	Dispatch func(func())
	// Surface is updated on every tick and closed when the gate ends.
	Surface Surface
	// OnChange is called after every state or countdown change, outside the
	// gate's lock.
	OnChange func(Snapshot)
	Logger   *slog.Logger
}

// Gate is one friction session. It is safe for concurrent use.
type Gate struct {
	mu        sync.Mutex
	id        string
	delay     int
	remaining int
	state     State
	opts      Options

	stop     chan struct{}
	unlocked chan struct{}
	done     chan struct{}
}

// New creates a gate in Counting with delaySeconds remaining.
func New(delaySeconds int, opts Options) (*Gate, error) {
	if delaySeconds <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidDelay, delaySeconds)
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Dispatch == nil {
		opts.Dispatch = func(fn func()) { fn() }
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Gate{
		id:        uuid.NewString(),
		delay:     delaySeconds,
		remaining: delaySeconds,
		state:     Counting,
		opts:      opts,
		unlocked:  make(chan struct{}),
		done:      make(chan struct{}),
	}, nil
}

// ID returns the gate's unique id.
func (g *Gate) ID() string { return g.id }

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Remaining returns the seconds left on the countdown.
func (g *Gate) Remaining() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.remaining
}

// Live reports whether the gate has not ended.
func (g *Gate) Live() bool {
	return !g.State().Terminal()
}

// Snapshot returns the gate's current view.
func (g *Gate) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshot()
}

// Unlocked is closed when the countdown completes.
func (g *Gate) Unlocked() <-chan struct{} { return g.unlocked }

// Done is closed when the gate reaches a terminal state.
func (g *Gate) Done() <-chan struct{} { return g.done }

// Start runs the countdown ticker. Calling Start more than once, or after
// the countdown finished, does nothing.
func (g *Gate) Start() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.stop != nil || g.state != Counting {
		return
	}
	g.stop = make(chan struct{})
	go g.run(time.NewTicker(g.opts.Interval), g.stop)
}

func (g *Gate) run(t *time.Ticker, stop <-chan struct{}) {
	defer t.Stop()
	for {
		select {
		case <-stop:
			return
		case <-t.C:
			g.opts.Dispatch(func() { g.Tick() })
		}
	}
}

// Tick decrements the countdown by one second. It has no effect outside
// Counting.
func (g *Gate) Tick() State {
	g.mu.Lock()
	if g.state != Counting {
		s := g.state
		g.mu.Unlock()
		return s
	}
	if g.remaining > 0 {
		g.remaining--
	}
	if g.remaining == 0 {
		g.state = Unlockable
		g.stopTicker()
	}
	snap := g.snapshot()
	if g.opts.Surface != nil {
		g.opts.Surface.Update(snap.Remaining, snap.State == Unlockable)
	}
	if snap.State == Unlockable {
		close(g.unlocked)
	}
	g.mu.Unlock()

	g.notify(snap)
	return snap.State
}

// Override ends an Unlockable gate and then runs fn synchronously. The
// ticker is stopped before fn runs. While Counting it returns ErrLocked and
// leaves the gate untouched.
func (g *Gate) Override(fn func()) error {
	g.mu.Lock()
	switch g.state {
	case Counting:
		g.mu.Unlock()
		return ErrLocked
	case Overridden, Cancelled:
		g.mu.Unlock()
		return ErrClosed
	}
	snap := g.finish(Overridden)
	g.mu.Unlock()

	g.opts.Logger.Debug("gate overridden", "gate", snap.ID)
	g.notify(snap)
	if fn != nil {
		fn()
	}
	return nil
}

// Cancel dismisses the gate from Counting or Unlockable. Guarded elements
// are left as they are.
func (g *Gate) Cancel() error {
	g.mu.Lock()
	if g.state.Terminal() {
		g.mu.Unlock()
		return ErrClosed
	}
	snap := g.finish(Cancelled)
	g.mu.Unlock()

	g.opts.Logger.Debug("gate cancelled", "gate", snap.ID, "remaining", snap.Remaining)
	g.notify(snap)
	return nil
}

// finish moves the gate to a terminal state. Callers hold g.mu.
func (g *Gate) finish(s State) Snapshot {
	g.state = s
	g.stopTicker()
	close(g.done)
	if g.opts.Surface != nil {
		g.opts.Surface.Close()
	}
	return g.snapshot()
}

// stopTicker stops the countdown goroutine once. Callers hold g.mu.
func (g *Gate) stopTicker() {
	if g.stop != nil {
		close(g.stop)
		g.stop = nil
	}
}

func (g *Gate) snapshot() Snapshot {
	return Snapshot{ID: g.id, State: g.state, Remaining: g.remaining, Delay: g.delay}
}

func (g *Gate) notify(s Snapshot) {
	if g.opts.OnChange != nil {
		g.opts.OnChange(s)
	}
}
