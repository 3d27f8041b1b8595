// Package monitor watches a page for inserted subtrees and scans each one.
package monitor

import (
	"log/slog"
	"sync"

	"github.com/mj1618/shopshield/internal/platform"
	"github.com/mj1618/shopshield/internal/scan"
)

// Options configures a Monitor.
type Options struct {
	// Dispatch runs insertion handling on the owner's goroutine. Defaults to
	// handling on the goroutine that reported the insertion.
	Dispatch func(func())
	// OnGuarded receives every pass that blocked at least one element.
	OnGuarded func(scan.Result)
	Logger    *slog.Logger
}

// Monitor scans inserted subtrees, never the whole document.
type Monitor struct {
	page    platform.Page
	scanner *scan.Scanner
	opts    Options

	mu    sync.Mutex
	unsub func()
}

// New creates a stopped Monitor.
func New(page platform.Page, scanner *scan.Scanner, opts Options) *Monitor {
	if opts.Dispatch == nil {
		opts.Dispatch = func(fn func()) { fn() }
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Monitor{page: page, scanner: scanner, opts: opts}
}

// Start subscribes to insertions. It is a no-op if already started.
func (m *Monitor) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.unsub != nil {
		return
	}
	m.unsub = m.page.Subscribe(func(ins platform.Insertion) {
		m.opts.Dispatch(func() { m.Observe(ins) })
	})
	m.opts.Logger.Debug("live monitor armed", "url", m.page.URL())
}

// Stop unsubscribes. It is safe to call more than once.
func (m *Monitor) Stop() {
	m.mu.Lock()
	unsub := m.unsub
	m.unsub = nil
	m.mu.Unlock()
	if unsub != nil {
		unsub()
	}
}

// Active reports whether the monitor is subscribed.
func (m *Monitor) Active() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.unsub != nil
}

// Observe scans each inserted node that is still attached. Delivering the
// same insertion twice guards nothing new.
func (m *Monitor) Observe(ins platform.Insertion) scan.Result {
	var total scan.Result
	for _, n := range ins.Nodes {
		if n == nil || !n.Attached() {
			continue
		}
		res := m.scanner.Scan(n)
		total.Scanned += res.Scanned
		total.Candidates = append(total.Candidates, res.Candidates...)
		total.Guarded = append(total.Guarded, res.Guarded...)
		total.Adopted = append(total.Adopted, res.Adopted...)
	}
	if !total.Empty() {
		m.opts.Logger.Info("guarded inserted elements", "count", len(total.Guarded), "adopted", len(total.Adopted))
		if m.opts.OnGuarded != nil {
			m.opts.OnGuarded(total)
		}
	}
	return total
}
