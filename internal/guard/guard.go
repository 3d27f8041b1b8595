// Package guard neutralizes and restores individual page elements.
//
// Block and Unblock are idempotent. A marker attribute on the element records
// that it is guarded; an element carrying the marker is never re-blocked,
// which is also what makes overlapping scans safe. The marker value holds the
// state captured before blocking, so markup saved while guarded can still be
// restored by a later Guard. Failures on one element are logged and returned,
// never propagated as panics.
package guard

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/mj1618/shopshield/internal/platform"
	"golang.org/x/time/rate"
)

// MarkerAttr is set on every guarded element.
const MarkerAttr = "data-shopshield-blocked"

const markerVersion = "1"

const (
	blockedOpacity = "0.35"
	wrapperStyle   = "display:inline-block;opacity:" + blockedOpacity + ";pointer-events:none"
)

// ErrNeutralization wraps any failure while mutating an element.
var ErrNeutralization = errors.New("neutralization failed")

// record is the element state captured before blocking.
type record struct {
	style       string
	hadStyle    bool
	disabled    string
	hadDisabled bool
	wrapped     bool
}

// encode renders rec as the marker value.
func (r *record) encode() string {
	v := url.Values{"v": {markerVersion}}
	if r.hadStyle {
		v.Set("s", r.style)
	}
	if r.hadDisabled {
		v.Set("d", r.disabled)
	}
	if r.wrapped {
		v.Set("w", "1")
	}
	return v.Encode()
}

// decodeRecord parses a marker value written by encode. Values from other
// writers yield nil.
func decodeRecord(s string) *record {
	v, err := url.ParseQuery(s)
	if err != nil || v.Get("v") != markerVersion {
		return nil
	}
	rec := &record{wrapped: v.Get("w") == "1"}
	if _, ok := v["s"]; ok {
		rec.style, rec.hadStyle = v.Get("s"), true
	}
	if _, ok := v["d"]; ok {
		rec.disabled, rec.hadDisabled = v.Get("d"), true
	}
	return rec
}

// Guard blocks and unblocks elements. It is safe for concurrent use.
type Guard struct {
	mu         sync.Mutex
	records    map[platform.Element]*record
	logger     *slog.Logger
	warn       *rate.Limiter
	suppressed int
}

// Option configures a Guard.
type Option func(*Guard)

// WithLogger sets the diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(g *Guard) { g.logger = l }
}

// WithWarnLimit throttles failure warnings to r per second with the given burst.
func WithWarnLimit(r rate.Limit, burst int) Option {
	return func(g *Guard) { g.warn = rate.NewLimiter(r, burst) }
}

// New creates a Guard.
func New(opts ...Option) *Guard {
	g := &Guard{
		records: make(map[platform.Element]*record),
		logger:  slog.Default(),
		warn:    rate.NewLimiter(rate.Every(time.Second), 5),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// IsGuarded reports whether el carries the guard marker.
func IsGuarded(el platform.Element) (guarded bool) {
	defer func() {
		if recover() != nil {
			guarded = false
		}
	}()
	_, guarded = el.Attr(MarkerAttr)
	return guarded
}

// Block neutralizes el. It returns true when el was newly blocked and false
// when it already carried the marker or could not be neutralized.
func (g *Guard) Block(el platform.Element) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if IsGuarded(el) {
		return false, nil
	}

	rec, err := g.block(el)
	if err != nil {
		g.rollback(el, rec)
		g.warnf(el, "block", err)
		return false, err
	}
	g.records[el] = rec
	return true, nil
}

// Unblock restores el to its state before Block. It returns true when el
// was guarded and has been restored.
func (g *Guard) Unblock(el platform.Element) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if !IsGuarded(el) {
		return false, nil
	}

	rec := g.records[el]
	if err := g.unblock(el, rec); err != nil {
		g.warnf(el, "unblock", err)
		return false, err
	}
	delete(g.records, el)
	return true, nil
}

// Adopt takes over an element that already carries the marker but was not
// blocked by this guard, such as markup saved from an earlier session. It
// reports whether el was taken over.
func (g *Guard) Adopt(el platform.Element) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.records[el]; held || !IsGuarded(el) {
		return false
	}
	g.records[el] = nil
	return true
}

// Forget drops what the guard holds for el without touching it.
func (g *Guard) Forget(el platform.Element) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.records, el)
}

// Count returns how many elements this guard currently holds blocked.
func (g *Guard) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.records)
}

func (g *Guard) block(el platform.Element) (rec *record, err error) {
	rec = &record{}
	defer recoverInto(&err)

	rec.style, rec.hadStyle = el.Attr("style")
	rec.disabled, rec.hadDisabled = el.Attr("disabled")

	rec.wrapped = !el.SupportsDisabled()

	if err := el.SetAttr(MarkerAttr, rec.encode()); err != nil {
		return rec, fmt.Errorf("%w: set marker: %v", ErrNeutralization, err)
	}

	if !rec.wrapped {
		if err := el.SetAttr("disabled", ""); err != nil {
			return rec, fmt.Errorf("%w: set disabled: %v", ErrNeutralization, err)
		}
		style := setStyleProps(rec.style, "opacity", blockedOpacity, "pointer-events", "none")
		if err := el.SetAttr("style", style); err != nil {
			return rec, fmt.Errorf("%w: set style: %v", ErrNeutralization, err)
		}
		return rec, nil
	}

	if err := el.Wrap(map[string]string{"style": wrapperStyle}); err != nil {
		return rec, fmt.Errorf("%w: wrap: %v", ErrNeutralization, err)
	}
	return rec, nil
}

// unblock restores the captured state. Without rec the state is read back
// from the marker; if that fails only the marker and any wrapper are removed.
func (g *Guard) unblock(el platform.Element, rec *record) (err error) {
	defer recoverInto(&err)

	if rec == nil {
		if v, ok := el.Attr(MarkerAttr); ok {
			rec = decodeRecord(v)
		}
	}
	if rec == nil {
		if el.Wrapped() {
			if err := el.Unwrap(); err != nil {
				return fmt.Errorf("%w: unwrap: %v", ErrNeutralization, err)
			}
		}
		if err := el.RemoveAttr(MarkerAttr); err != nil {
			return fmt.Errorf("%w: remove marker: %v", ErrNeutralization, err)
		}
		return nil
	}

	if rec.wrapped {
		if err := el.Unwrap(); err != nil {
			return fmt.Errorf("%w: unwrap: %v", ErrNeutralization, err)
		}
	}
	if err := restoreAttr(el, "style", rec.style, rec.hadStyle); err != nil {
		return fmt.Errorf("%w: restore style: %v", ErrNeutralization, err)
	}
	if err := restoreAttr(el, "disabled", rec.disabled, rec.hadDisabled); err != nil {
		return fmt.Errorf("%w: restore disabled: %v", ErrNeutralization, err)
	}
	if err := el.RemoveAttr(MarkerAttr); err != nil {
		return fmt.Errorf("%w: remove marker: %v", ErrNeutralization, err)
	}
	return nil
}

// rollback undoes a partial block, best effort.
func (g *Guard) rollback(el platform.Element, rec *record) {
	if rec == nil {
		return
	}
	defer func() { _ = recover() }()
	if el.Wrapped() {
		_ = el.Unwrap()
	}
	_ = restoreAttr(el, "style", rec.style, rec.hadStyle)
	_ = restoreAttr(el, "disabled", rec.disabled, rec.hadDisabled)
	_ = el.RemoveAttr(MarkerAttr)
}

func (g *Guard) warnf(el platform.Element, op string, err error) {
	if !g.warn.Allow() {
		g.suppressed++
		return
	}
	g.logger.Warn("element guard failed",
		"op", op,
		"path", safePath(el),
		"err", err,
		"suppressed", g.suppressed,
	)
	g.suppressed = 0
}

func restoreAttr(el platform.Element, name, value string, present bool) error {
	if present {
		return el.SetAttr(name, value)
	}
	return el.RemoveAttr(name)
}

func recoverInto(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: panic: %v", ErrNeutralization, r)
	}
}

func safePath(el platform.Element) (path string) {
	defer func() {
		if recover() != nil {
			path = "?"
		}
	}()
	return el.Path()
}
