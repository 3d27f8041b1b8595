// Package scan finds checkout triggers under a page node and guards them.
package scan

import (
	"log/slog"
	"time"

	"github.com/mj1618/shopshield/internal/classify"
	"github.com/mj1618/shopshield/internal/guard"
	"github.com/mj1618/shopshield/internal/model"
	"github.com/mj1618/shopshield/internal/platform"
)

// Result is the outcome of one scanner pass.
type Result struct {
	// Scanned counts actionable elements visited, excluding guarded ones.
	Scanned int
	// Candidates lists every match in document order.
	Candidates []model.Candidate
	// Guarded holds the elements this pass newly blocked.
	Guarded []platform.Element
	// Adopted holds elements that already carried the marker and were
	// taken over by the scanner's guard.
	Adopted []platform.Element
}

// Empty reports whether the pass blocked or adopted nothing.
func (r Result) Empty() bool { return len(r.Guarded) == 0 && len(r.Adopted) == 0 }

// All returns the guarded elements followed by the adopted ones.
func (r Result) All() []platform.Element {
	all := make([]platform.Element, 0, len(r.Guarded)+len(r.Adopted))
	return append(append(all, r.Guarded...), r.Adopted...)
}

// Report converts r to its printable form.
func (r Result) Report(pageURL string) model.ScanReport {
	cands := r.Candidates
	if cands == nil {
		cands = []model.Candidate{}
	}
	return model.ScanReport{
		URL:        pageURL,
		TS:         time.Now().Unix(),
		Scanned:    r.Scanned,
		Adopted:    len(r.Adopted),
		Candidates: cands,
	}
}

// Scanner runs the classifier over a page and hands matches to a guard.
// Passes are synchronous; overlapping passes are safe because guarded
// elements are skipped.
type Scanner struct {
	page   platform.Page
	guard  *guard.Guard
	logger *slog.Logger
}

// New creates a Scanner for page that blocks matches with g.
func New(page platform.Page, g *guard.Guard, logger *slog.Logger) *Scanner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{page: page, guard: g, logger: logger}
}

// Guard returns the guard matches are handed to.
func (s *Scanner) Guard() *guard.Guard { return s.guard }

// Scan classifies every actionable element under root and blocks the
// matches not already guarded. Marked elements the guard does not hold yet
// are adopted instead of classified.
func (s *Scanner) Scan(root platform.Node) Result {
	var res Result
	if root == nil || !root.Attached() {
		return res
	}

	for _, el := range s.page.Actionable(root) {
		if !el.Attached() {
			continue
		}
		if guard.IsGuarded(el) {
			if s.guard.Adopt(el) {
				res.Adopted = append(res.Adopted, el)
			}
			continue
		}
		res.Scanned++

		d := el.Describe()
		v := classify.Explain(d)
		if !v.Match {
			continue
		}

		blocked, err := s.guard.Block(el)
		res.Candidates = append(res.Candidates, model.Candidate{
			Path:       el.Path(),
			Descriptor: d,
			Rule:       v.Rule,
			Field:      v.Field,
			Keyword:    v.Keyword,
			Blocked:    blocked,
		})
		if err != nil {
			// Already logged by the guard; keep going with the rest.
			continue
		}
		if blocked {
			res.Guarded = append(res.Guarded, el)
		}
	}

	s.logger.Debug("scan finished",
		"scanned", res.Scanned,
		"matched", len(res.Candidates),
		"guarded", len(res.Guarded),
		"adopted", len(res.Adopted),
	)
	return res
}
