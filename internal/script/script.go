// Package script parses and runs overlay scripts: YAML lists of steps such as
//
//	- show
//	- wait: shown
//	- configure: { blur_radius: 0 }
//	- sleep: 250ms
//	- hide
package script

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/mj1618/privacy-blur/internal/model"
	"github.com/mj1618/privacy-blur/internal/overlay"
	"gopkg.in/yaml.v3"
)

// DefaultWaitTimeout bounds a wait step that sets no timeout.
const DefaultWaitTimeout = 5 * time.Second

// Actions lists the step names a script may use.
var Actions = []string{"show", "hide", "enable", "disable", "teardown", "configure", "sleep", "wait", "status"}

// Overlay is the control surface a script drives. *overlay.Controller
// implements it.
type Overlay interface {
	Show()
	Hide()
	Enable()
	Disable()
	Teardown()
	Configure(p overlay.Patch)
	Status() model.Status
}

// Parse decodes a YAML list of steps. Each entry is either a bare action name
// or a single-key map from action name to its argument.
func Parse(data []byte) ([]model.Step, error) {
	var nodes []yaml.Node
	if err := yaml.Unmarshal(data, &nodes); err != nil {
		return nil, fmt.Errorf("failed to parse YAML steps: %w", err)
	}
	if len(nodes) == 0 {
		return nil, errors.New("no steps provided, expected a YAML list of actions")
	}
	steps := make([]model.Step, 0, len(nodes))
	for i := range nodes {
		step, err := parseStep(&nodes[i])
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i+1, err)
		}
		steps = append(steps, step)
	}
	return steps, nil
}

func parseStep(n *yaml.Node) (model.Step, error) {
	var action string
	var arg *yaml.Node
	switch n.Kind {
	case yaml.ScalarNode:
		action = n.Value
	case yaml.MappingNode:
		if len(n.Content) != 2 {
			return model.Step{}, fmt.Errorf("expected exactly one action key, got %d", len(n.Content)/2)
		}
		action, arg = n.Content[0].Value, n.Content[1]
	default:
		return model.Step{}, errors.New("expected an action name or a single-key map")
	}

	step := model.Step{Action: action}
	switch action {
	case "show", "hide", "enable", "disable", "teardown", "status":
	case "sleep":
		if arg == nil || arg.Kind != yaml.ScalarNode {
			return step, errors.New("sleep needs a duration, e.g. sleep: 250ms")
		}
		step.Duration = arg.Value
	case "wait":
		if arg == nil {
			return step, errors.New("wait needs a phase, e.g. wait: shown")
		}
		if arg.Kind == yaml.ScalarNode {
			step.Phase = arg.Value
			break
		}
		var w struct {
			Phase   string `yaml:"phase"`
			Timeout string `yaml:"timeout"`
		}
		if err := arg.Decode(&w); err != nil {
			return step, fmt.Errorf("invalid wait: %w", err)
		}
		step.Phase, step.Timeout = w.Phase, w.Timeout
	case "configure":
		var o model.ConfigOverrides
		if arg != nil {
			if err := arg.Decode(&o); err != nil {
				return step, fmt.Errorf("invalid configure: %w", err)
			}
		}
		if o.Empty() {
			return step, errors.New("configure needs at least one setting")
		}
		step.Configure = &o
	default:
		return step, fmt.Errorf("unknown step type %q, supported: %v", action, Actions)
	}
	return step, nil
}

// Runner executes steps against an overlay.
type Runner struct {
	Overlay     Overlay
	StopOnError bool
	// PollInterval is how often a wait step checks the phase.
	PollInterval time.Duration
}

// NewRunner returns a runner that stops at the first failing step.
func NewRunner(o Overlay) *Runner {
	return &Runner{Overlay: o, StopOnError: true, PollInterval: 5 * time.Millisecond}
}

// Run executes steps in order. Transitions and Snapshot are left for the
// caller to fill in.
func (r *Runner) Run(ctx context.Context, steps []model.Step) model.RunResult {
	res := model.RunResult{Steps: len(steps), Results: make([]model.StepResult, 0, len(steps))}
	failed := false
	for i, step := range steps {
		sr, err := r.runStep(ctx, step)
		sr.Step = i + 1
		sr.Action = step.Action
		if err != nil {
			sr.Error = err.Error()
			res.Results = append(res.Results, sr)
			failed = true
			if res.Error == "" {
				res.Error = fmt.Sprintf("step %d: %s", i+1, err)
			}
			if r.StopOnError || ctx.Err() != nil {
				break
			}
			continue
		}
		sr.OK = true
		res.Completed++
		res.Results = append(res.Results, sr)
	}
	res.OK = !failed
	res.Final = r.Overlay.Status()
	return res
}

func (r *Runner) runStep(ctx context.Context, step model.Step) (model.StepResult, error) {
	var sr model.StepResult
	if err := ctx.Err(); err != nil {
		return sr, err
	}
	switch step.Action {
	case "show":
		r.Overlay.Show()
	case "hide":
		r.Overlay.Hide()
	case "enable":
		r.Overlay.Enable()
	case "disable":
		r.Overlay.Disable()
	case "teardown":
		r.Overlay.Teardown()
	case "configure":
		p, err := overlay.PatchFromOverrides(step.Configure)
		if err != nil {
			return sr, err
		}
		r.Overlay.Configure(p)
	case "status":
		st := r.Overlay.Status()
		sr.Status = &st
	case "sleep":
		d, err := parseDuration(step.Duration)
		if err != nil {
			return sr, err
		}
		if d <= 0 {
			return sr, errors.New("sleep duration must be > 0")
		}
		if err := sleep(ctx, d); err != nil {
			return sr, err
		}
		sr.Elapsed = d.String()
	case "wait":
		start := time.Now()
		if err := r.wait(ctx, step); err != nil {
			return sr, err
		}
		sr.Elapsed = time.Since(start).Round(time.Millisecond).String()
	default:
		return sr, fmt.Errorf("unknown step type %q", step.Action)
	}
	sr.Phase = r.Overlay.Status().Phase
	return sr, nil
}

func (r *Runner) wait(ctx context.Context, step model.Step) error {
	want, ok := overlay.ParsePhase(step.Phase)
	if !ok {
		return fmt.Errorf("unknown phase %q (use hidden, showing, shown, hiding)", step.Phase)
	}
	timeout := DefaultWaitTimeout
	if step.Timeout != "" {
		d, err := parseDuration(step.Timeout)
		if err != nil {
			return err
		}
		timeout = d
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	interval := r.PollInterval
	if interval <= 0 {
		interval = 5 * time.Millisecond
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		st := r.Overlay.Status()
		if st.Phase == want.String() {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("timed out after %s waiting for %s (phase is %s)", timeout, want, st.Phase)
		case <-ticker.C:
		}
	}
}

// parseDuration accepts Go durations ("250ms") and bare integers, read as
// milliseconds.
func parseDuration(s string) (time.Duration, error) {
	if ms, err := strconv.Atoi(s); err == nil {
		return time.Duration(ms) * time.Millisecond, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid duration %q: %w", s, err)
	}
	return d, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
