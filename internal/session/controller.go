// Package session runs protection for one loaded page: it reads settings,
// guards checkout elements, opens the timed gate, keeps watching the page
// and restores everything when the user overrides.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mj1618/shopshield/internal/gate"
	"github.com/mj1618/shopshield/internal/guard"
	"github.com/mj1618/shopshield/internal/model"
	"github.com/mj1618/shopshield/internal/monitor"
	"github.com/mj1618/shopshield/internal/platform"
	"github.com/mj1618/shopshield/internal/scan"
	"github.com/mj1618/shopshield/internal/settings"
)

var (
	// ErrInactive is returned by actions on a session that is not protecting
	// its page.
	ErrInactive = errors.New("session: inactive")
	// ErrNoGate is returned when an action needs a live gate and none is open.
	ErrNoGate = errors.New("session: no live gate")
	// ErrStarted is returned by a second Start.
	ErrStarted = errors.New("session: already started")
)

// Reason explains a Start outcome.
type Reason string

const (
	ReasonGated               Reason = "gated"
	ReasonDisabled            Reason = "disabled"
	ReasonWhitelisted         Reason = "whitelisted"
	ReasonSettingsUnavailable Reason = "settings-unavailable"
	ReasonInvalidDelay        Reason = "invalid-delay"
	ReasonNoMatches           Reason = "no-matches"
	ReasonGateUnavailable     Reason = "gate-unavailable"
)

// Result is the outcome of Start.
type Result struct {
	Active bool              `yaml:"active"         json:"active"`
	Reason Reason            `yaml:"reason"         json:"reason"`
	Scan   *model.ScanReport `yaml:"scan,omitempty" json:"scan,omitempty"`
	Gate   *gate.Snapshot    `yaml:"gate,omitempty" json:"gate,omitempty"`
}

// Sink receives override records.
type Sink interface {
	Record(ctx context.Context, e model.OverrideLogEntry) error
}

// Deps are the controller's collaborators.
type Deps struct {
	Settings settings.Source
	// Log stores override records. Nil disables recording.
	Log    Sink
	Logger *slog.Logger
	// Interval between countdown ticks. Defaults to one second.
	Interval time.Duration
	// OnChange observes guard and gate events. It runs on the session
	// goroutine and must not call back into the controller.
	OnChange func(model.GuardChange)
	// Now defaults to time.Now.
	Now func() time.Time
}

// Controller protects one page. Create it with New, then call Start once.
type Controller struct {
	page   platform.Page
	deps   Deps
	logger *slog.Logger

	loop    *loop
	guard   *guard.Guard
	scanner *scan.Scanner
	monitor *monitor.Monitor
	slot    gate.Slot

	mu      sync.Mutex
	started bool
	active  bool
	closed  bool
	delay   int

	// guarded is owned by the loop goroutine.
	guarded []platform.Element
}

// New creates a controller for page.
func New(page platform.Page, deps Deps) *Controller {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Interval <= 0 {
		deps.Interval = time.Second
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	logger := deps.Logger.With("url", page.URL())
	g := guard.New(guard.WithLogger(logger))
	return &Controller{
		page:    page,
		deps:    deps,
		logger:  logger,
		loop:    newLoop(logger),
		guard:   g,
		scanner: scan.New(page, g, logger),
	}
}

// Start reads settings and, when protection applies, guards the page,
// opens a gate and arms the live monitor. Inactive outcomes are reported in
// Result, not as errors.
func (c *Controller) Start(ctx context.Context) (Result, error) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return Result{}, ErrStarted
	}
	c.started = true
	c.mu.Unlock()

	if c.deps.Settings == nil {
		c.logger.Warn("no settings source; staying inactive")
		return Result{Reason: ReasonSettingsUnavailable}, nil
	}
	snap, err := c.deps.Settings.Snapshot(ctx)
	if err != nil {
		c.logger.Warn("settings unavailable; staying inactive", "err", err)
		return Result{Reason: ReasonSettingsUnavailable}, nil
	}
	if !snap.Enabled {
		c.logger.Debug("protection disabled")
		return Result{Reason: ReasonDisabled}, nil
	}
	if snap.IsWhitelisted(c.page.Host()) {
		c.logger.Debug("host whitelisted", "host", c.page.Host())
		return Result{Reason: ReasonWhitelisted}, nil
	}
	if snap.DelaySeconds <= 0 {
		c.logger.Warn("invalid delay; staying inactive", "delay", snap.DelaySeconds)
		return Result{Reason: ReasonInvalidDelay}, nil
	}

	c.mu.Lock()
	c.delay = snap.DelaySeconds
	c.mu.Unlock()

	c.loop.start()

	var (
		res     Result
		guarded int
	)
	err = c.loop.call(func() {
		pass := c.scanner.Scan(c.page.Document())
		report := pass.Report(c.page.URL())
		res.Scan = &report
		if pass.Empty() {
			res.Reason = ReasonNoMatches
			return
		}
		c.addGuarded(pass.All())
		guarded = len(c.guarded)

		g, err := c.openGate()
		if err != nil || g == nil {
			// Never leave elements blocked without a way out.
			c.logger.Warn("gate failed; restoring page", "err", err)
			c.unblockAll()
			res.Reason = ReasonGateUnavailable
			return
		}

		c.monitor = monitor.New(c.page, c.scanner, monitor.Options{
			Dispatch:  c.loop.dispatch,
			OnGuarded: c.onInserted,
			Logger:    c.logger,
		})
		c.monitor.Start()

		gs := g.Snapshot()
		res.Active = true
		res.Reason = ReasonGated
		res.Gate = &gs
	})
	if err != nil {
		return Result{}, err
	}

	if !res.Active {
		c.loop.stop()
		c.loop.wait()
		return res, nil
	}

	c.mu.Lock()
	c.active = true
	c.mu.Unlock()
	c.logger.Info("page gated", "guarded", guarded, "delay", snap.DelaySeconds)
	return res, nil
}

// Gate returns the live gate, or nil.
func (c *Controller) Gate() *gate.Gate {
	return c.slot.Current()
}

// Active reports whether the controller is protecting its page.
func (c *Controller) Active() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active && !c.closed
}

// Guarded returns how many elements are currently blocked.
func (c *Controller) Guarded() (int, error) {
	if !c.Active() {
		return 0, ErrInactive
	}
	var n int
	err := c.loop.call(func() {
		c.pruneDetached()
		n = len(c.guarded)
	})
	return n, err
}

// Tick advances the live countdown by up to n seconds on the session
// goroutine, stopping once the gate unlocks.
func (c *Controller) Tick(n int) (gate.Snapshot, error) {
	if !c.Active() {
		return gate.Snapshot{}, ErrInactive
	}
	var (
		snap  gate.Snapshot
		opErr error
	)
	err := c.loop.call(func() {
		g := c.slot.Current()
		if g == nil {
			opErr = ErrNoGate
			return
		}
		for i := 0; i < n && g.State() == gate.Counting; i++ {
			g.Tick()
		}
		snap = g.Snapshot()
	})
	if err != nil {
		return gate.Snapshot{}, err
	}
	return snap, opErr
}

// Override ends an unlockable gate, restores every guarded element and
// records one entry with note. A failed record is logged and does not undo
// the override.
func (c *Controller) Override(ctx context.Context, note string) (model.OverrideLogEntry, error) {
	if !c.Active() {
		return model.OverrideLogEntry{}, ErrInactive
	}

	var (
		entry model.OverrideLogEntry
		opErr error
	)
	err := c.loop.call(func() {
		g := c.slot.Current()
		if g == nil {
			opErr = ErrNoGate
			return
		}
		opErr = g.Override(func() {
			c.unblockAll()
			entry = c.record(ctx, note)
		})
	})
	if err != nil {
		return model.OverrideLogEntry{}, err
	}
	return entry, opErr
}

// Cancel dismisses the live gate. Guarded elements stay blocked and nothing
// is recorded.
func (c *Controller) Cancel() error {
	if !c.Active() {
		return ErrInactive
	}
	var opErr error
	err := c.loop.call(func() {
		g := c.slot.Current()
		if g == nil {
			opErr = ErrNoGate
			return
		}
		opErr = g.Cancel()
	})
	if err != nil {
		return err
	}
	return opErr
}

// Reopen opens a new gate over the elements still guarded. It returns
// nil, nil when a gate is already live or nothing is guarded.
func (c *Controller) Reopen() (*gate.Gate, error) {
	if !c.Active() {
		return nil, ErrInactive
	}
	var (
		g     *gate.Gate
		opErr error
	)
	err := c.loop.call(func() {
		g, opErr = c.openGate()
	})
	if err != nil {
		return nil, err
	}
	return g, opErr
}

// Close tears the session down: the monitor stops, a live gate is
// dismissed without recording, and guarded elements stay as they are.
// It must not be called from an OnChange callback.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	active := c.active
	c.mu.Unlock()

	if !active {
		return
	}
	_ = c.loop.call(func() {
		if c.monitor != nil {
			c.monitor.Stop()
		}
		if g := c.slot.Current(); g != nil {
			_ = g.Cancel()
		}
	})
	c.loop.stop()
	c.loop.wait()
}

// openGate shows the overlay and starts a new countdown. It returns nil, nil
// when a gate is live or nothing on the page is guarded. Runs on the loop.
func (c *Controller) openGate() (*gate.Gate, error) {
	c.pruneDetached()
	if c.slot.Current() != nil || len(c.guarded) == 0 {
		return nil, nil
	}

	c.mu.Lock()
	delay := c.delay
	c.mu.Unlock()

	opts := gate.Options{
		Interval: c.deps.Interval,
		Dispatch: c.loop.dispatch,
		OnChange: c.onGate,
		Logger:   c.logger,
	}
	overlay, err := c.page.ShowOverlay(delay)
	if err != nil {
		c.logger.Warn("overlay unavailable", "err", err)
	} else {
		opts.Surface = overlay
	}

	g, err := c.slot.Open(delay, opts)
	if err != nil || g == nil {
		if overlay != nil {
			overlay.Close()
		}
		return nil, err
	}
	c.emit(model.GuardChange{
		Type:      model.ChangeGate,
		TS:        c.deps.Now().Unix(),
		Gate:      g.ID(),
		State:     gate.Counting.String(),
		Remaining: delay,
	})
	g.Start()
	return g, nil
}

// onInserted handles monitor passes. New elements join a live gate, or get
// a new gate covering everything still guarded. Runs on the loop.
func (c *Controller) onInserted(res scan.Result) {
	c.addGuarded(res.All())
	if c.slot.Current() != nil {
		return
	}
	if _, err := c.openGate(); err != nil {
		c.logger.Warn("could not reopen gate", "err", err)
	}
}

func (c *Controller) onGate(s gate.Snapshot) {
	c.emit(model.GuardChange{
		Type:      model.ChangeGate,
		TS:        c.deps.Now().Unix(),
		Gate:      s.ID,
		State:     s.State.String(),
		Remaining: s.Remaining,
	})
}

func (c *Controller) addGuarded(els []platform.Element) {
	for _, el := range els {
		c.guarded = append(c.guarded, el)
		c.emit(model.NewElementChange(model.ChangeBlocked, el.Path(), el.Describe()))
	}
}

// pruneDetached drops guarded elements the page has removed. Runs on the loop.
func (c *Controller) pruneDetached() {
	kept := c.guarded[:0]
	for _, el := range c.guarded {
		if el.Attached() {
			kept = append(kept, el)
			continue
		}
		c.guard.Forget(el)
		c.logger.Debug("guarded element removed by page", "path", el.Path())
	}
	c.guarded = kept
}

// unblockAll restores every guarded element still on the page. Elements that
// fail to restore stay in the list. Runs on the loop.
func (c *Controller) unblockAll() {
	c.pruneDetached()
	var kept []platform.Element
	for _, el := range c.guarded {
		if _, err := c.guard.Unblock(el); err != nil {
			kept = append(kept, el)
			continue
		}
		c.emit(model.NewElementChange(model.ChangeUnblocked, el.Path(), el.Describe()))
	}
	c.guarded = kept
}

func (c *Controller) record(ctx context.Context, note string) model.OverrideLogEntry {
	entry := model.OverrideLogEntry{
		ID:        uuid.NewString(),
		Timestamp: c.deps.Now(),
		PageURL:   c.page.URL(),
		Note:      model.TruncateNote(note),
	}
	if c.deps.Log == nil {
		c.logger.Debug("override not recorded: no log configured")
		return entry
	}
	if err := c.deps.Log.Record(ctx, entry); err != nil {
		c.logger.Warn("failed to record override", "err", err)
	}
	return entry
}

func (c *Controller) emit(ch model.GuardChange) {
	if c.deps.OnChange != nil {
		c.deps.OnChange(ch)
	}
}
