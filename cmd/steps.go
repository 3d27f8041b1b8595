package cmd

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mj1618/shopshield/internal/gate"
	"github.com/mj1618/shopshield/internal/params"
	"github.com/mj1618/shopshield/internal/platform"
	"github.com/mj1618/shopshield/internal/session"
)

// StepResult is the output for a single step within a run.
type StepResult struct {
	Step     int            `yaml:"step"               json:"step"`
	OK       bool           `yaml:"ok"                 json:"ok"`
	Action   string         `yaml:"action"             json:"action"`
	Error    string         `yaml:"error,omitempty"    json:"error,omitempty"`
	Gate     *gate.Snapshot `yaml:"gate,omitempty"     json:"gate,omitempty"`
	Guarded  int            `yaml:"guarded,omitempty"  json:"guarded,omitempty"`
	Inserted int            `yaml:"inserted,omitempty" json:"inserted,omitempty"`
	Removed  int            `yaml:"removed,omitempty"  json:"removed,omitempty"`
	Note     string         `yaml:"note,omitempty"     json:"note,omitempty"`
	LogID    string         `yaml:"log_id,omitempty"   json:"log_id,omitempty"`
	Elapsed  string         `yaml:"elapsed,omitempty"  json:"elapsed,omitempty"`
}

// stepEnv is what steps act on.
type stepEnv struct {
	ctrl *session.Controller
	page platform.Page
}

// executeSteps runs steps in order and returns their results, the number
// completed and the first error message.
func executeSteps(ctx context.Context, env *stepEnv, steps []map[string]map[string]interface{}, stopOnError bool) ([]StepResult, int, string) {
	results := make([]StepResult, 0, len(steps))
	completed := 0
	var firstErr string

	for i, step := range steps {
		stepNum := i + 1

		if len(step) != 1 {
			errMsg := fmt.Sprintf("step %d: expected exactly one action key, got %d", stepNum, len(step))
			results = append(results, StepResult{Step: stepNum, OK: false, Error: errMsg})
			if firstErr == "" {
				firstErr = errMsg
			}
			if stopOnError {
				break
			}
			continue
		}

		for action, p := range step {
			if p == nil {
				p = map[string]interface{}{}
			}
			result, err := executeStep(ctx, env, action, p)
			result.Step = stepNum
			result.Action = action
			if err != nil {
				result.OK = false
				result.Error = err.Error()
				if firstErr == "" {
					firstErr = fmt.Sprintf("step %d: %s", stepNum, err.Error())
				}
			} else {
				result.OK = true
				completed++
			}
			results = append(results, result)
		}
		if firstErr != "" && stopOnError {
			break
		}
	}
	return results, completed, firstErr
}

func executeStep(ctx context.Context, env *stepEnv, action string, p map[string]interface{}) (StepResult, error) {
	switch action {
	case "insert":
		return stepInsert(env, p)
	case "remove":
		return stepRemove(env, p)
	case "tick":
		return stepTick(env, p)
	case "wait":
		return stepWait(ctx, env, p)
	case "sleep":
		return stepSleep(ctx, p)
	case "override":
		return stepOverride(ctx, env, p)
	case "cancel":
		return stepCancel(env)
	case "reopen":
		return stepReopen(env)
	case "status":
		return stepStatus(env)
	default:
		return StepResult{}, fmt.Errorf("unknown action %q (supported: insert, remove, tick, wait, sleep, override, cancel, reopen, status)", action)
	}
}

func mutator(env *stepEnv) (platform.Mutator, error) {
	m, ok := env.page.(platform.Mutator)
	if !ok {
		return nil, fmt.Errorf("page cannot be modified")
	}
	return m, nil
}

func stepInsert(env *stepEnv, p map[string]interface{}) (StepResult, error) {
	m, err := mutator(env)
	if err != nil {
		return StepResult{}, err
	}
	html := params.String(p, "html", "")
	if html == "" {
		return StepResult{}, fmt.Errorf("html is required")
	}
	n, err := m.InsertHTML(params.String(p, "parent", "body"), html)
	if err != nil {
		return StepResult{}, err
	}
	return withStatus(env, StepResult{Inserted: n}), nil
}

func stepRemove(env *stepEnv, p map[string]interface{}) (StepResult, error) {
	m, err := mutator(env)
	if err != nil {
		return StepResult{}, err
	}
	n, err := m.RemoveMatching(params.String(p, "selector", ""))
	if err != nil {
		return StepResult{}, err
	}
	return StepResult{Removed: n}, nil
}

// stepTick advances the live countdown by n seconds without waiting.
func stepTick(env *stepEnv, p map[string]interface{}) (StepResult, error) {
	n := params.Int(p, "n", 1)
	if n <= 0 {
		return StepResult{}, fmt.Errorf("n must be > 0")
	}
	snap, err := env.ctrl.Tick(n)
	if err != nil {
		return StepResult{}, err
	}
	return withStatus(env, StepResult{Gate: &snap}), nil
}

// stepWait blocks until the live gate unlocks (for: unlocked) or ends
// (for: closed), or the timeout in seconds passes.
func stepWait(ctx context.Context, env *stepEnv, p map[string]interface{}) (StepResult, error) {
	timeout := time.Duration(params.Int(p, "timeout", 10)) * time.Second
	g := env.ctrl.Gate()
	if g == nil {
		return StepResult{}, session.ErrNoGate
	}

	var ch <-chan struct{}
	switch target := params.String(p, "for", "unlocked"); target {
	case "unlocked":
		ch = g.Unlocked()
	case "closed":
		ch = g.Done()
	default:
		return StepResult{}, fmt.Errorf("unknown wait target %q (use unlocked or closed)", target)
	}

	start := time.Now()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-ch:
	case <-timer.C:
		return StepResult{}, fmt.Errorf("timeout after %s waiting for gate", timeout)
	case <-ctx.Done():
		return StepResult{}, ctx.Err()
	}
	res := StepResult{Elapsed: time.Since(start).Round(time.Millisecond).String()}
	snap := g.Snapshot()
	res.Gate = &snap
	return res, nil
}

func stepSleep(ctx context.Context, p map[string]interface{}) (StepResult, error) {
	ms := params.Int(p, "ms", 0)
	if ms <= 0 {
		return StepResult{}, fmt.Errorf("ms must be > 0")
	}
	select {
	case <-time.After(time.Duration(ms) * time.Millisecond):
	case <-ctx.Done():
		return StepResult{}, ctx.Err()
	}
	return StepResult{Elapsed: fmt.Sprintf("%dms", ms)}, nil
}

func stepOverride(ctx context.Context, env *stepEnv, p map[string]interface{}) (StepResult, error) {
	g := env.ctrl.Gate()
	entry, err := env.ctrl.Override(ctx, params.String(p, "note", ""))
	if err != nil {
		if errors.Is(err, gate.ErrLocked) && g != nil {
			return withStatus(env, StepResult{}), fmt.Errorf("override locked: %d second(s) remaining", g.Remaining())
		}
		return StepResult{}, err
	}
	res := StepResult{Note: entry.Note, LogID: entry.ID}
	if g != nil {
		snap := g.Snapshot()
		res.Gate = &snap
	}
	return withStatus(env, res), nil
}

func stepCancel(env *stepEnv) (StepResult, error) {
	g := env.ctrl.Gate()
	if err := env.ctrl.Cancel(); err != nil {
		return StepResult{}, err
	}
	res := StepResult{}
	if g != nil {
		snap := g.Snapshot()
		res.Gate = &snap
	}
	return withStatus(env, res), nil
}

func stepReopen(env *stepEnv) (StepResult, error) {
	if _, err := env.ctrl.Reopen(); err != nil {
		return StepResult{}, err
	}
	return withStatus(env, StepResult{}), nil
}

func stepStatus(env *stepEnv) (StepResult, error) {
	if !env.ctrl.Active() {
		return StepResult{}, session.ErrInactive
	}
	return withStatus(env, StepResult{}), nil
}

// withStatus fills in the live gate and guarded count when available.
func withStatus(env *stepEnv, res StepResult) StepResult {
	if res.Gate == nil {
		if g := env.ctrl.Gate(); g != nil {
			snap := g.Snapshot()
			res.Gate = &snap
		}
	}
	if n, err := env.ctrl.Guarded(); err == nil {
		res.Guarded = n
	}
	return res
}
