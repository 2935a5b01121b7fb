package skills

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/nuoa-io/nuoactl/internal/shell"
)

// StepResult holds the outcome of one executed step.
type StepResult struct {
	StepID   string
	Title    string
	Output   string
	Duration time.Duration
}

// Runner executes a skill by running its DAG of command steps.
type Runner struct {
	skill   *Skill
	dag     *DAG
	workDir string
}

// NewRunner creates a runner for a skill. workDir is the base directory for
// steps that don't set their own.
func NewRunner(skill *Skill, workDir string) (*Runner, error) {
	dag, err := NewDAG(skill.Steps)
	if err != nil {
		return nil, fmt.Errorf("build DAG for skill %q: %w", skill.Name, err)
	}

	return &Runner{
		skill:   skill,
		dag:     dag,
		workDir: workDir,
	}, nil
}

// Run executes the skill, running steps in DAG order with parallel execution
// where dependencies allow. Returns per-step results in completion order.
func (r *Runner) Run(ctx context.Context, vars map[string]string) ([]StepResult, error) {
	if vars == nil {
		vars = make(map[string]string)
	}
	if err := r.validateVars(vars); err != nil {
		return nil, err
	}

	// Apply defaults
	for name, v := range r.skill.Vars {
		if _, ok := vars[name]; !ok && v.Default != "" {
			vars[name] = v.Default
		}
	}

	completed := make(map[string]bool)
	outputs := make(map[string]string)
	var results []StepResult
	var mu sync.Mutex

	for {
		mu.Lock()
		ready := r.dag.ReadySteps(completed)
		mu.Unlock()

		if len(ready) == 0 {
			break
		}

		var wg sync.WaitGroup
		errCh := make(chan error, len(ready))

		for _, stepID := range ready {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()

				mu.Lock()
				outputsCopy := make(map[string]string, len(outputs))
				for k, v := range outputs {
					outputsCopy[k] = v
				}
				mu.Unlock()

				res, err := r.runStep(ctx, id, vars, outputsCopy)
				if err != nil {
					errCh <- fmt.Errorf("step %q: %w", id, err)
					return
				}

				mu.Lock()
				completed[id] = true
				outputs[id] = res.Output
				results = append(results, *res)
				mu.Unlock()
			}(stepID)
		}

		wg.Wait()
		close(errCh)

		// Fail-fast: return first error
		if err := <-errCh; err != nil {
			return results, err
		}
	}

	return results, nil
}

func (r *Runner) validateVars(vars map[string]string) error {
	for name, v := range r.skill.Vars {
		if v.Required {
			if _, ok := vars[name]; !ok {
				return fmt.Errorf("skill %q: required variable %q not provided", r.skill.Name, name)
			}
		}
	}
	return nil
}

func (r *Runner) runStep(ctx context.Context, stepID string, vars, prevOutputs map[string]string) (*StepResult, error) {
	step := r.dag.Step(stepID)
	if step == nil {
		return nil, fmt.Errorf("step %q not found in DAG", stepID)
	}

	slog.Info("running step", "skill", r.skill.Name, "step", stepID, "title", step.Title)

	dir := step.Dir
	if dir == "" {
		dir = r.workDir
	}

	res, err := shell.Run(ctx, shell.Command{
		Script: step.Run,
		Dir:    dir,
		Env:    r.stepEnv(step, vars, prevOutputs),
	})
	if err != nil {
		if res != nil && res.Output != "" {
			slog.Error("step failed", "step", stepID, "output", strings.TrimSpace(res.Output))
		}
		return nil, err
	}

	slog.Info("step done", "step", stepID, "duration", res.Duration.Round(time.Millisecond))
	return &StepResult{
		StepID:   stepID,
		Title:    step.Title,
		Output:   res.Output,
		Duration: res.Duration,
	}, nil
}

// stepEnv builds the step environment: skill vars, step env, and the trimmed
// output of each needed step as NUOA_STEP_<ID>.
func (r *Runner) stepEnv(step *Step, vars, prevOutputs map[string]string) map[string]string {
	env := make(map[string]string, len(vars)+len(step.Env)+len(step.Needs))
	for k, v := range vars {
		env[k] = v
	}
	for k, v := range step.Env {
		env[k] = v
	}
	for _, need := range step.Needs {
		if out, ok := prevOutputs[need]; ok {
			env["NUOA_STEP_"+strings.ToUpper(strings.ReplaceAll(need, "-", "_"))] = strings.TrimSpace(out)
		}
	}
	return env
}
