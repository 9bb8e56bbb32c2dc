package plan

import (
	"context"
	"fmt"
)

// ExecuteStep runs the step at p.CurrentStep via exec (DefaultExecutor
// if nil), advancing the cursor on success. The step's status moves
// not_started -> in_progress -> completed (or blocked on failure), and
// its note records the executor's output or error. On failure it
// records FailedStep = CurrentStep, leaves the cursor unmoved so the
// plan can be retried, and returns the error.
func ExecuteStep(ctx context.Context, p *Plan, exec StepExecutor) (string, error) {
	if p.CurrentStep >= len(p.Steps) {
		return "", fmt.Errorf("plan: no remaining steps")
	}
	if exec == nil {
		exec = DefaultExecutor
	}
	p.normalizeStepTracking()

	idx := p.CurrentStep
	step := p.Steps[idx]
	p.StepStatuses[idx] = StepInProgress

	out, err := exec(ctx, step)
	if err != nil {
		failed := idx
		p.FailedStep = &failed
		p.LastResult = err.Error()
		p.StepStatuses[idx] = StepBlocked
		p.StepNotes[idx] = err.Error()
		return "", err
	}

	p.LastResult = out
	p.StepStatuses[idx] = StepCompleted
	p.StepNotes[idx] = out
	p.CurrentStep++
	p.FailedStep = nil
	return out, nil
}

// ExecutionSummary is execute's (whole-plan) report.
type ExecutionSummary struct {
	CompletedSteps int  `json:"completed_steps"`
	TotalSteps     int  `json:"total_steps"`
	FailedStep     *int `json:"failed_step,omitempty"`
}

// ExecuteAll runs ExecuteStep repeatedly until either a step fails or
// every step has run, then reports progress.
func ExecuteAll(ctx context.Context, p *Plan, exec StepExecutor) ExecutionSummary {
	for p.CurrentStep < len(p.Steps) {
		if _, err := ExecuteStep(ctx, p, exec); err != nil {
			break
		}
	}
	return ExecutionSummary{
		CompletedSteps: p.CurrentStep,
		TotalSteps:     len(p.Steps),
		FailedStep:     p.FailedStep,
	}
}
