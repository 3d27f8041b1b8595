package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/mj1618/shopshield/internal/gate"
	"github.com/mj1618/shopshield/internal/session"
)

const notePrompt = "Optional: briefly why are you overriding the pause?"

// interact drives the live gate from a terminal: it shows the countdown on
// out and reads single-letter commands from in until the gate ends.
func interact(ctx context.Context, ctrl *session.Controller, in io.Reader, out io.Writer) StepResult {
	res := StepResult{Action: "interactive"}
	g := ctrl.Gate()
	if g == nil {
		res.Error = session.ErrNoGate.Error()
		return res
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(in)
		for sc.Scan() {
			lines <- strings.TrimSpace(sc.Text())
		}
	}()

	fmt.Fprintln(out, "Checkout paused. [c] cancel, [o] override once the countdown ends.")
	last := -1
	unlocked := g.Unlocked()
	show := time.NewTicker(250 * time.Millisecond)
	defer show.Stop()

	for {
		if r := g.Remaining(); r != last && g.State() == gate.Counting {
			fmt.Fprintf(out, "\r%d second(s) remaining   ", r)
			last = r
		}
		select {
		case <-ctx.Done():
			res.Error = ctx.Err().Error()
			return res
		case <-unlocked:
			unlocked = nil
			fmt.Fprintln(out, "\rYou can override now. [o] override, [c] cancel")
			last = 0
		case <-g.Done():
			res.OK = true
			snap := g.Snapshot()
			res.Gate = &snap
			return res
		case <-show.C:
			continue
		case line, ok := <-lines:
			if !ok {
				res.Error = "input closed"
				return res
			}
			switch strings.ToLower(line) {
			case "c", "cancel":
				if err := ctrl.Cancel(); err != nil {
					res.Error = err.Error()
					return res
				}
				fmt.Fprintln(out, "\rCancelled. Checkout stays paused.")
				res.OK = true
				snap := g.Snapshot()
				res.Gate = &snap
				return res
			case "o", "override":
				if g.State() != gate.Unlockable {
					fmt.Fprintf(out, "\rNot yet: %d second(s) remaining\n", g.Remaining())
					continue
				}
				fmt.Fprintln(out, notePrompt)
				note := <-lines
				entry, err := ctrl.Override(ctx, note)
				if err != nil {
					if errors.Is(err, gate.ErrLocked) {
						continue
					}
					res.Error = err.Error()
					return res
				}
				fmt.Fprintln(out, "Override recorded.")
				res.OK = true
				res.Note = entry.Note
				res.LogID = entry.ID
				snap := g.Snapshot()
				res.Gate = &snap
				return res
			}
		}
	}
}
